package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/vendgb/vendgb-backend/api/responses"
	"github.com/vendgb/vendgb-backend/api/validators"
	"github.com/vendgb/vendgb-backend/internal/payments"
	"github.com/vendgb/vendgb-backend/pkg/logger"
)

// Amount and currency are accepted for backwards compatibility but never
// trusted; the charge is always derived from the stored order total.
type createIntentRequest struct {
	OrderID  uuid.UUID `json:"orderId" validate:"required"`
	Amount   *int64    `json:"amount"`
	Currency string    `json:"currency"`
}

func CreatePaymentIntent(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body createIntentRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		intent, err := svc.CreateIntent(r.Context(), body.OrderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, intent)
	}
}

type confirmPaymentRequest struct {
	PaymentIntentID string    `json:"paymentIntentId" validate:"required"`
	OrderID         uuid.UUID `json:"orderId"`
}

type confirmPaymentResponse struct {
	Success     bool          `json:"success"`
	AlreadyPaid bool          `json:"alreadyPaid,omitempty"`
	Order       orderResponse `json:"order"`
}

func ConfirmPayment(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body confirmPaymentRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		confirmation, err := svc.Confirm(r.Context(), body.PaymentIntentID, body.OrderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, confirmPaymentResponse{
			Success:     confirmation.Success,
			AlreadyPaid: confirmation.AlreadyPaid,
			Order:       newOrderResponse(confirmation.Order),
		})
	}
}
