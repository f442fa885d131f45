package stripewebhook

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/vendgb/vendgb-backend/internal/orders"
	"github.com/vendgb/vendgb-backend/pkg/enums"
	pkgerrors "github.com/vendgb/vendgb-backend/pkg/errors"
	"github.com/vendgb/vendgb-backend/pkg/logger"
	"github.com/vendgb/vendgb-backend/pkg/metrics"
)

// ServiceParams carries the webhook service dependencies.
type ServiceParams struct {
	Orders     orders.Service
	OrdersRepo orders.Repository
	Logger     *logger.Logger
	Metrics    *metrics.PaymentMetrics
}

// Service applies gateway events to the order lifecycle. Confirmation polling
// and webhook delivery race each other; both converge on the same paid
// transition.
type Service struct {
	orders     orders.Service
	ordersRepo orders.Repository
	logg       *logger.Logger
	metrics    *metrics.PaymentMetrics
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Orders == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "orders service required")
	}
	if params.OrdersRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "orders repo required")
	}
	return &Service{
		orders:     params.Orders,
		ordersRepo: params.OrdersRepo,
		logg:       params.Logger,
		metrics:    params.Metrics,
	}, nil
}

// HandleEvent processes a verified gateway event. Unhandled event types are
// accepted and ignored so the gateway does not retry them.
func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) error {
	if event == nil || event.Data == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}

	s.metrics.IncWebhookEvent(string(event.Type))

	switch event.Type {
	case stripe.EventTypePaymentIntentSucceeded:
		pi, err := decodeIntent(event)
		if err != nil {
			return err
		}
		return s.handleSucceeded(ctx, pi)

	case stripe.EventTypePaymentIntentPaymentFailed:
		pi, err := decodeIntent(event)
		if err != nil {
			return err
		}
		return s.handleFailed(ctx, pi)

	default:
		return nil
	}
}

func (s *Service) handleSucceeded(ctx context.Context, pi *stripe.PaymentIntent) error {
	orderID, err := s.resolveOrderID(ctx, pi)
	if err != nil {
		return err
	}

	if s.logg != nil {
		ctx = s.logg.WithOrderID(ctx, orderID.String())
		ctx = s.logg.WithPaymentIntentID(ctx, pi.ID)
	}

	if err := s.orders.MarkPaid(ctx, orderID, pi.ID); err != nil {
		return err
	}
	if s.logg != nil {
		s.logg.Info(ctx, "webhook confirmed payment")
	}
	return nil
}

// handleFailed is best effort: a failure event arriving after the order was
// already paid or cancelled is dropped rather than retried.
func (s *Service) handleFailed(ctx context.Context, pi *stripe.PaymentIntent) error {
	orderID, err := s.resolveOrderID(ctx, pi)
	if err != nil {
		return err
	}

	updated, err := s.ordersRepo.UpdateStatus(ctx, orderID, enums.OrderStatusNew, enums.OrderStatusFailed)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marking order failed")
	}
	if s.logg != nil {
		ctx = s.logg.WithOrderID(ctx, orderID.String())
		if updated {
			s.logg.Info(ctx, "order marked failed from webhook")
		} else {
			s.logg.Warn(ctx, "ignoring failure event for settled order")
		}
	}
	return nil
}

// resolveOrderID prefers the order_id metadata stamped at intent creation.
// Events replayed from the dashboard or CLI can arrive without metadata, so
// the stored intent binding is the fallback.
func (s *Service) resolveOrderID(ctx context.Context, pi *stripe.PaymentIntent) (uuid.UUID, error) {
	orderID, metaErr := orderIDFromMetadata(pi.Metadata)
	if metaErr == nil {
		return orderID, nil
	}
	if pi.ID == "" {
		return uuid.Nil, metaErr
	}

	order, err := s.ordersRepo.FindByPaymentIntentID(ctx, pi.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return uuid.Nil, metaErr
		}
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolving order for payment intent")
	}
	return order.ID, nil
}

func decodeIntent(event *stripe.Event) (*stripe.PaymentIntent, error) {
	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode payment intent event")
	}
	return &pi, nil
}

func orderIDFromMetadata(metadata map[string]string) (uuid.UUID, error) {
	raw := metadata["order_id"]
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "payment intent is not linked to an order")
	}
	orderID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "payment intent carries an invalid order reference")
	}
	return orderID, nil
}
