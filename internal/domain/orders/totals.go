package orders

import (
	"fmt"
	"strings"
)

// TotalToleranceCents absorbs client side rounding.
const TotalToleranceCents int64 = 1

func ComputeTotal(items []OrderItem, shippingCents int64) int64 {
	total := shippingCents
	for _, it := range items {
		total += it.LineTotal()
	}
	return total
}

type TotalMismatchError struct {
	Claimed  int64
	Computed int64
}

func (e *TotalMismatchError) Error() string {
	return fmt.Sprintf("order total %d does not match items and shipping (%d)", e.Claimed, e.Computed)
}

// VerifyTotal rejects a caller supplied total that is off by more than the tolerance.
func VerifyTotal(items []OrderItem, shippingCents, claimed int64) error {
	computed := ComputeTotal(items, shippingCents)
	diff := claimed - computed
	if diff < 0 {
		diff = -diff
	}
	if diff > TotalToleranceCents {
		return &TotalMismatchError{Claimed: claimed, Computed: computed}
	}
	return nil
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
