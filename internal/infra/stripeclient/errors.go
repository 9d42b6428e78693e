package stripeclient

import (
	"errors"
	"net/http"

	stripe "github.com/stripe/stripe-go/v75"

	"venue-backend/internal/apperr"
)

const (
	CodeCardDeclined   = "card_declined"
	CodeInvalidRequest = "invalid_request"
	CodeAuth           = "gateway_auth"
	CodeRateLimited    = "rate_limited"
	CodeUnavailable    = "gateway_unavailable"
	CodeUnknown        = "gateway_error"
)

// ClassifyError maps a Stripe SDK error onto an application error whose Code
// and Status tell the client what went wrong.
func ClassifyError(err error) *apperr.Error {
	var se *stripe.Error
	if !errors.As(err, &se) {
		// No Stripe envelope: the request never got an answer.
		return apperr.Gateway(CodeUnavailable, http.StatusServiceUnavailable, "payment provider unreachable", err)
	}

	switch {
	case se.Type == stripe.ErrorTypeCard:
		return apperr.Gateway(CodeCardDeclined, http.StatusPaymentRequired, messageOr(se, "card declined"), err)
	case se.HTTPStatusCode == http.StatusUnauthorized:
		return apperr.Gateway(CodeAuth, http.StatusBadGateway, "payment provider rejected credentials", err)
	case se.HTTPStatusCode == http.StatusTooManyRequests:
		return apperr.Gateway(CodeRateLimited, http.StatusTooManyRequests, "payment provider rate limit reached", err)
	case se.Type == stripe.ErrorTypeInvalidRequest:
		return apperr.Gateway(CodeInvalidRequest, http.StatusBadRequest, messageOr(se, "invalid payment request"), err)
	case se.Type == stripe.ErrorTypeAPI || se.HTTPStatusCode >= 500:
		return apperr.Gateway(CodeUnavailable, http.StatusServiceUnavailable, "payment provider unavailable", err)
	default:
		return apperr.Gateway(CodeUnknown, http.StatusInternalServerError, messageOr(se, "payment provider error"), err)
	}
}

func messageOr(se *stripe.Error, fallback string) string {
	if se.Msg != "" {
		return se.Msg
	}
	return fallback
}
