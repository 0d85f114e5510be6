package billing

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dmitrymomot/stripesync/binder"
	"github.com/dmitrymomot/stripesync/handler"
	core "github.com/dmitrymomot/stripesync/pkg/billing"
	"github.com/dmitrymomot/stripesync/pkg/jwt"
	"github.com/dmitrymomot/stripesync/pkg/logger"
)

// defaultMaxWebhookSize is well above the largest provider event payloads.
const defaultMaxWebhookSize = 512 << 10

const signatureHeader = "Stripe-Signature"

type webhookRequest struct {
	Payload   []byte
	Signature string
}

type changePlanRequest struct {
	NewPlan string `json:"newPlan"`
}

type checkSubscriptionRequest struct {
	UserID string `query:"userId"`
}

type empty struct{}

func (m *Module) bindWebhook(r *http.Request, v any) error {
	req := v.(*webhookRequest)
	body, err := binder.ReadBody(r, m.maxBodySize)
	if err != nil {
		return errors.Join(handler.NewHTTPError(http.StatusBadRequest, "Invalid webhook payload"), err)
	}
	req.Payload = body
	req.Signature = r.Header.Get(signatureHeader)
	return nil
}

func (m *Module) webhook() http.HandlerFunc {
	h := func(ctx handler.Context, req webhookRequest) handler.Response {
		res, err := m.webhooks.Process(ctx, req.Payload, req.Signature)
		if err != nil {
			return m.fail(ctx, "webhook rejected", webhookError(err), err)
		}

		m.logger.DebugContext(ctx, "webhook acknowledged",
			logger.Event(string(res.Outcome)),
			logger.Handler("webhook"),
		)
		return handler.JSON(nil)
	}

	return handler.Wrap(h,
		handler.WithBinder[handler.Context, webhookRequest](m.bindWebhook),
		handler.WithErrorHandler[handler.Context, webhookRequest](handler.NewErrorHandler(m.logger)),
	)
}

func (m *Module) checkout() http.HandlerFunc {
	h := func(ctx handler.Context, req core.CheckoutInput) handler.Response {
		sess, err := m.service.CreateCheckout(ctx, req)
		if err != nil {
			return m.fail(ctx, "checkout failed", checkoutError(err), err)
		}
		return handler.JSON(map[string]string{"url": sess.URL})
	}

	return handler.Wrap(h,
		handler.WithBinder[handler.Context, core.CheckoutInput](binder.JSON()),
		handler.WithErrorHandler[handler.Context, core.CheckoutInput](handler.NewErrorHandler(m.logger)),
	)
}

func (m *Module) checkSubscription() http.HandlerFunc {
	h := func(ctx handler.Context, req checkSubscriptionRequest) handler.Response {
		userID := strings.TrimSpace(req.UserID)
		if userID == "" {
			return handler.JSONError(handler.NewHTTPError(http.StatusBadRequest, "Missing userId"))
		}

		active, err := m.service.IsActive(ctx, userID)
		if err != nil {
			return m.fail(ctx, "subscription check failed", handler.ErrInternalServerError, err)
		}
		return handler.JSON(map[string]bool{"subscriptionActive": active})
	}

	return handler.Wrap(h,
		handler.WithBinder[handler.Context, checkSubscriptionRequest](binder.Query()),
		handler.WithErrorHandler[handler.Context, checkSubscriptionRequest](handler.NewErrorHandler(m.logger)),
	)
}

func (m *Module) createProfile() http.HandlerFunc {
	h := func(ctx handler.Context, _ empty) handler.Response {
		p, err := m.service.EnsureProfile(ctx, callerID(ctx))
		if err != nil {
			return m.fail(ctx, "profile provisioning failed", profileError(err), err)
		}
		return handler.JSON(map[string]any{"profile": p})
	}
	return handler.Wrap(h)
}

func (m *Module) changePlan() http.HandlerFunc {
	h := func(ctx handler.Context, req changePlanRequest) handler.Response {
		sub, err := m.service.ChangePlan(ctx, callerID(ctx), req.NewPlan)
		if err != nil {
			return m.fail(ctx, "plan change failed", changePlanError(req.NewPlan, err), err)
		}
		return handler.JSON(map[string]any{"subscription": sub})
	}

	return handler.Wrap(h,
		handler.WithBinder[handler.Context, changePlanRequest](binder.JSON()),
		handler.WithErrorHandler[handler.Context, changePlanRequest](handler.NewErrorHandler(m.logger)),
	)
}

func (m *Module) unsubscribe() http.HandlerFunc {
	h := func(ctx handler.Context, _ empty) handler.Response {
		sub, err := m.service.Cancel(ctx, callerID(ctx))
		if err != nil {
			return m.fail(ctx, "unsubscribe failed", unsubscribeError(err), err)
		}
		return handler.JSON(map[string]any{"subscription": sub})
	}
	return handler.Wrap(h)
}

func (m *Module) subscription() http.HandlerFunc {
	h := func(ctx handler.Context, _ empty) handler.Response {
		p, err := m.service.SubscriptionStatus(ctx, callerID(ctx))
		if err != nil {
			return m.fail(ctx, "subscription lookup failed", statusError(err), err)
		}
		return handler.JSON(map[string]any{
			"subscription": map[string]*core.Plan{"subscriptionTier": p.SubscriptionTier},
		})
	}
	return handler.Wrap(h)
}

func callerID(ctx handler.Context) string {
	id, _ := jwt.SubjectFromContext(ctx)
	return id
}

// fail logs cause and renders public. Validation errors pass through so the
// response carries field details.
func (m *Module) fail(ctx handler.Context, msg string, public, cause error) handler.Response {
	level := handler.ClassifyError(public).LogLevel
	if errors.Is(public, errNoActiveSubscription) || errors.Is(public, errSubscriptionItem) {
		level = slog.LevelInfo
	}
	m.logger.LogAttrs(ctx, level, msg,
		logger.Error(cause),
		logger.UserID(callerID(ctx)),
	)
	return handler.JSONError(public)
}
