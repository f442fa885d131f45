package webhooks

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/webhook"

	"github.com/vendgb/vendgb-backend/api/responses"
	pkgerrors "github.com/vendgb/vendgb-backend/pkg/errors"
	"github.com/vendgb/vendgb-backend/pkg/logger"
)

type StripeWebhookService interface {
	HandleEvent(ctx context.Context, event *stripe.Event) error
}

type stripeWebhookGuard interface {
	CheckAndMark(ctx context.Context, eventID string) (bool, error)
	Delete(ctx context.Context, eventID string) error
}

type stripeClient interface {
	SigningSecret() string
}

// StripeWebhook handles Stripe payment intent events. Signature verification
// is enforced whenever a signing secret is configured; without one the
// payload is decoded as-is, which is only acceptable for local development.
func StripeWebhook(svc StripeWebhookService, client stripeClient, guard stripeWebhookGuard, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook service unavailable"))
			return
		}
		if guard == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "idempotency guard unavailable"))
			return
		}

		payload, err := io.ReadAll(r.Body)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request body"))
			return
		}

		event, err := parseEvent(client, payload, r.Header.Get("Stripe-Signature"))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		alreadyProcessed, err := guard.CheckAndMark(ctx, event.ID)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency"))
			return
		}
		if alreadyProcessed {
			responses.WriteSuccess(w, map[string]bool{"received": true})
			return
		}

		if err := svc.HandleEvent(ctx, &event); err != nil {
			_ = guard.Delete(ctx, event.ID)
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if logg != nil {
			logg.Info(ctx, fmt.Sprintf("stripe event %s processed", event.ID))
		}
		responses.WriteSuccess(w, map[string]bool{"received": true})
	}
}

func parseEvent(client stripeClient, payload []byte, sigHeader string) (stripe.Event, error) {
	secret := ""
	if client != nil {
		secret = client.SigningSecret()
	}
	if secret == "" {
		var event stripe.Event
		if err := json.Unmarshal(payload, &event); err != nil {
			return stripe.Event{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode event payload")
		}
		if event.ID == "" {
			return stripe.Event{}, pkgerrors.New(pkgerrors.CodeValidation, "event id missing")
		}
		return event, nil
	}

	if sigHeader == "" {
		return stripe.Event{}, pkgerrors.New(pkgerrors.CodeValidation, "stripe signature missing")
	}
	event, err := webhook.ConstructEvent(payload, sigHeader, secret)
	if err != nil {
		// A 4xx stops the provider from retrying a forged delivery.
		return stripe.Event{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid signature")
	}
	return event, nil
}
