package billing

import (
	"errors"
	"net/http"
	"strings"

	"github.com/dmitrymomot/stripesync/handler"
	core "github.com/dmitrymomot/stripesync/pkg/billing"
	"github.com/dmitrymomot/stripesync/pkg/validator"
)

var (
	errUnauthorized         = handler.ErrUnauthorized
	errInternal             = handler.ErrInternalServerError
	errWebhookSignature     = handler.NewHTTPError(http.StatusBadRequest, "Webhook signature verification failed")
	errWebhookPayload       = handler.NewHTTPError(http.StatusBadRequest, "Malformed webhook payload")
	errWebhookProcessing    = handler.NewHTTPError(http.StatusBadRequest, "Webhook processing failed")
	errInvalidPlan          = handler.NewHTTPError(http.StatusBadRequest, "Invalid Plan type.")
	errNewPlanRequired      = handler.NewHTTPError(http.StatusBadRequest, "New plan is required.")
	errNoActiveSubscription = handler.NewHTTPError(http.StatusOK, "No active subscription found.")
	errSubscriptionItem     = handler.NewHTTPError(http.StatusOK, "Subscription item not found.")
	errPlanChangeFailed     = handler.NewHTTPError(http.StatusInternalServerError, "Failed to change subscription plan.")
	errUnsubscribeFailed    = handler.NewHTTPError(http.StatusInternalServerError, "Failed to unsubscribe.")
	errProfileNotFound      = handler.NewHTTPError(http.StatusNotFound, "Profile not found")
	errStatusLookupFailed   = handler.NewHTTPError(http.StatusInternalServerError, "Internal Error")
)

// webhookError answers every failure with 400 so the provider redelivers.
func webhookError(err error) error {
	switch {
	case errors.Is(err, core.ErrVerificationFailed):
		return errWebhookSignature
	case errors.Is(err, core.ErrMalformedEvent):
		return errWebhookPayload
	default:
		return errWebhookProcessing
	}
}

func checkoutError(err error) error {
	switch {
	case validator.IsValidationError(err):
		return err
	case errors.Is(err, core.ErrInvalidPlan), errors.Is(err, core.ErrUnknownPlan):
		return errInvalidPlan
	default:
		return errInternal
	}
}

func changePlanError(newPlan string, err error) error {
	switch {
	case errors.Is(err, core.ErrUnauthorized):
		return errUnauthorized
	case errors.Is(err, core.ErrInvalidPlan) && strings.TrimSpace(newPlan) == "":
		return errNewPlanRequired
	case errors.Is(err, core.ErrInvalidPlan):
		return errInvalidPlan
	case errors.Is(err, core.ErrNoActiveSubscription):
		return errNoActiveSubscription
	case errors.Is(err, core.ErrSubscriptionItemNotFound):
		return errSubscriptionItem
	default:
		return errPlanChangeFailed
	}
}

func unsubscribeError(err error) error {
	if errors.Is(err, core.ErrUnauthorized) {
		return errUnauthorized
	}
	return errUnsubscribeFailed
}

func statusError(err error) error {
	switch {
	case errors.Is(err, core.ErrUnauthorized):
		return errUnauthorized
	case errors.Is(err, core.ErrProfileNotFound):
		return errProfileNotFound
	default:
		return errStatusLookupFailed
	}
}

func profileError(err error) error {
	if errors.Is(err, core.ErrUnauthorized) {
		return errUnauthorized
	}
	return errInternal
}
