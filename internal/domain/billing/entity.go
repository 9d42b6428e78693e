package billing

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// EntityType is the closed set of things a payment can settle.
type EntityType string

const (
	EntityGiftCard   EntityType = "gift_card"
	EntityOrder      EntityType = "order"
	EntityBooking    EntityType = "booking"
	EntityTicket     EntityType = "ticket"
	EntityTournament EntityType = "tournament"
	EntityEvent      EntityType = "event"
)

var EntityTypes = []EntityType{
	EntityGiftCard, EntityOrder, EntityBooking, EntityTicket, EntityTournament, EntityEvent,
}

var ErrUnknownEntityType = errors.New("unknown entity type")

func ParseEntityType(s string) (EntityType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, t := range EntityTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownEntityType, s)
}

const (
	MetaUserID     = "user_id"
	MetaEntityType = "entity_type"
	MetaEntityID   = "entity_id"
)

// Reference is the routing key carried in gateway metadata. The reconciler
// uses it to find the pending payment and the entity to update.
type Reference struct {
	UserID     *uint
	EntityType EntityType
	EntityID   uint
}

func (r Reference) Metadata() map[string]string {
	md := map[string]string{
		MetaEntityType: string(r.EntityType),
		MetaEntityID:   strconv.FormatUint(uint64(r.EntityID), 10),
	}
	if r.UserID != nil {
		md[MetaUserID] = strconv.FormatUint(uint64(*r.UserID), 10)
	}
	return md
}

func ParseReference(md map[string]string) (Reference, error) {
	var ref Reference

	t, err := ParseEntityType(md[MetaEntityType])
	if err != nil {
		return ref, err
	}
	ref.EntityType = t

	id, err := strconv.ParseUint(md[MetaEntityID], 10, 64)
	if err != nil || id == 0 {
		return ref, fmt.Errorf("invalid %s %q", MetaEntityID, md[MetaEntityID])
	}
	ref.EntityID = uint(id)

	if raw := strings.TrimSpace(md[MetaUserID]); raw != "" {
		uid, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return ref, fmt.Errorf("invalid %s %q", MetaUserID, raw)
		}
		u := uint(uid)
		ref.UserID = &u
	}
	return ref, nil
}

// Locator is what a provider event says about the payment it concerns. The
// gateway ids win over the reference when a recorded payment carries them.
type Locator struct {
	Reference
	CheckoutSessionID string
	PaymentIntentID   string
}

func (l Locator) HasProviderID() bool {
	return l.CheckoutSessionID != "" || l.PaymentIntentID != ""
}

// Identifies reports whether p is the payment this locator names by gateway id.
func (l Locator) Identifies(p Payment) bool {
	if l.CheckoutSessionID != "" && p.CheckoutSessionID != nil && *p.CheckoutSessionID == l.CheckoutSessionID {
		return true
	}
	return l.PaymentIntentID != "" && p.PaymentIntentID != nil && *p.PaymentIntentID == l.PaymentIntentID
}
