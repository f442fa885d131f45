package payments

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"

	"github.com/vendgb/vendgb-backend/internal/orders"
	"github.com/vendgb/vendgb-backend/pkg/db/models"
	"github.com/vendgb/vendgb-backend/pkg/enums"
	pkgerrors "github.com/vendgb/vendgb-backend/pkg/errors"
	"github.com/vendgb/vendgb-backend/pkg/logger"
	"github.com/vendgb/vendgb-backend/pkg/metrics"
	"github.com/vendgb/vendgb-backend/pkg/money"
)

// Service drives the payment intent lifecycle against the gateway. The
// charge amount always comes from the stored order total, never from the
// client.
type Service interface {
	CreateIntent(ctx context.Context, orderID uuid.UUID) (*Intent, error)
	Confirm(ctx context.Context, intentID string, orderID uuid.UUID) (*Confirmation, error)
}

// Intent is the client-facing handle for completing a payment.
type Intent struct {
	ClientSecret    string `json:"clientSecret"`
	PaymentIntentID string `json:"paymentIntentId"`
	Amount          int64  `json:"amount"`
	Currency        string `json:"currency"`
}

// Confirmation reports a completed payment. AlreadyPaid marks a replayed
// confirmation that found the order settled by an earlier call or webhook.
type Confirmation struct {
	Success     bool
	AlreadyPaid bool
	Order       *models.Order
}

type service struct {
	stripe     StripeIntentClient
	ordersSvc  orders.Service
	ordersRepo orders.Repository
	currency   enums.Currency
	logg       *logger.Logger
	metrics    *metrics.PaymentMetrics
}

// NewService builds the payment service. A nil Stripe client is allowed; the
// endpoints then answer with a dependency error until a key is configured.
func NewService(stripeClient StripeIntentClient, ordersSvc orders.Service, ordersRepo orders.Repository, currency enums.Currency, logg *logger.Logger, m *metrics.PaymentMetrics) (Service, error) {
	if ordersSvc == nil {
		return nil, errors.New("payments: orders service is required")
	}
	if ordersRepo == nil {
		return nil, errors.New("payments: orders repository is required")
	}
	if !currency.IsValid() {
		currency = enums.CurrencyGBP
	}
	return &service{
		stripe:     stripeClient,
		ordersSvc:  ordersSvc,
		ordersRepo: ordersRepo,
		currency:   currency,
		logg:       logg,
		metrics:    m,
	}, nil
}

func (s *service) CreateIntent(ctx context.Context, orderID uuid.UUID) (*Intent, error) {
	if s.stripe == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "payment provider is not configured")
	}

	order, err := s.ordersSvc.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}

	switch order.Status {
	case enums.OrderStatusNew:
	case enums.OrderStatusPaid:
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order is already paid")
	default:
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order is not awaiting payment").
			WithDetails(map[string]string{"status": order.Status.String()})
	}

	// an intent already opened for this order is handed back as-is
	if order.PaymentIntentID != nil {
		pi, err := s.stripe.Get(ctx, *order.PaymentIntentID, nil)
		if err == nil && intentReusable(pi.Status) {
			return s.toIntent(pi), nil
		}
	}

	amount := money.ToPence(order.Total)
	if amount <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order total must be positive")
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amount),
		Currency: stripe.String(s.currency.String()),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.AddMetadata("order_id", order.ID.String())
	params.AddMetadata("customer_name", order.CustomerName)

	pi, err := s.stripe.Create(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "payments temporarily unavailable")
	}

	attached, err := s.ordersRepo.AttachPaymentIntent(ctx, order.ID, pi.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "binding payment intent to order")
	}
	if !attached {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "a payment is already in progress for this order")
	}

	if s.logg != nil {
		ctx = s.logg.WithOrderID(ctx, order.ID.String())
		s.logg.Info(s.logg.WithPaymentIntentID(ctx, pi.ID), "payment intent created")
	}

	return s.toIntent(pi), nil
}

// Confirm settles an order against the intent's provider-side status. A
// non-nil wantOrderID must match the order the intent was created for.
func (s *service) Confirm(ctx context.Context, intentID string, wantOrderID uuid.UUID) (*Confirmation, error) {
	if s.stripe == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "payment provider is not configured")
	}

	pi, err := s.stripe.Get(ctx, intentID, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "payments temporarily unavailable")
	}

	orderID, err := orderIDFromIntent(pi)
	if err != nil {
		return nil, err
	}
	if wantOrderID != uuid.Nil && wantOrderID != orderID {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "payment intent does not belong to this order")
	}

	order, err := s.ordersSvc.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.PaymentIntentID != nil && *order.PaymentIntentID != pi.ID {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "payment intent does not belong to this order")
	}

	switch pi.Status {
	case stripe.PaymentIntentStatusSucceeded:
		alreadyPaid := order.Status == enums.OrderStatusPaid
		if err := s.ordersSvc.MarkPaid(ctx, orderID, pi.ID); err != nil {
			return nil, err
		}
		if !alreadyPaid {
			order, err = s.ordersSvc.Get(ctx, orderID)
			if err != nil {
				return nil, err
			}
		}
		s.metrics.IncConfirmation("succeeded")
		return &Confirmation{Success: true, AlreadyPaid: alreadyPaid, Order: order}, nil

	case stripe.PaymentIntentStatusRequiresAction:
		s.metrics.IncConfirmation("requires_action")
		return nil, pkgerrors.New(pkgerrors.CodePaymentDeclined, "payment requires additional authentication")

	case stripe.PaymentIntentStatusProcessing:
		s.metrics.IncConfirmation("processing")
		return nil, pkgerrors.New(pkgerrors.CodePaymentDeclined, "payment is still processing")

	case stripe.PaymentIntentStatusCanceled:
		s.metrics.IncConfirmation("canceled")
		return nil, pkgerrors.New(pkgerrors.CodePaymentDeclined, "payment was cancelled")

	default:
		s.metrics.IncConfirmation("declined")
		return nil, pkgerrors.New(pkgerrors.CodePaymentDeclined, "payment was not completed").
			WithDetails(map[string]string{"status": string(pi.Status)})
	}
}

func (s *service) toIntent(pi *stripe.PaymentIntent) *Intent {
	return &Intent{
		ClientSecret:    pi.ClientSecret,
		PaymentIntentID: pi.ID,
		Amount:          pi.Amount,
		Currency:        string(pi.Currency),
	}
}

func orderIDFromIntent(pi *stripe.PaymentIntent) (uuid.UUID, error) {
	raw, ok := pi.Metadata["order_id"]
	if !ok || raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "payment intent is not linked to an order")
	}
	orderID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "payment intent carries an invalid order reference")
	}
	return orderID, nil
}

func intentReusable(status stripe.PaymentIntentStatus) bool {
	switch status {
	case stripe.PaymentIntentStatusRequiresPaymentMethod,
		stripe.PaymentIntentStatusRequiresConfirmation,
		stripe.PaymentIntentStatusRequiresAction,
		stripe.PaymentIntentStatusProcessing:
		return true
	}
	return false
}
