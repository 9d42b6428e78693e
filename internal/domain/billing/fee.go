package billing

// PlatformFee is the platform's cut of amountCents at percent, rounded down.
func PlatformFee(amountCents, percent int64) int64 {
	if percent <= 0 || amountCents <= 0 {
		return 0
	}
	return amountCents * percent / 100
}
