package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/vendgb/vendgb-backend/api/responses"
	"github.com/vendgb/vendgb-backend/api/validators"
	"github.com/vendgb/vendgb-backend/internal/checkout"
	"github.com/vendgb/vendgb-backend/pkg/logger"
)

type checkoutItemRequest struct {
	ProductID uuid.UUID `json:"productId" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,gte=1"`
}

type checkoutCustomer struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"omitempty,email"`
	Phone string `json:"phone"`
}

type checkoutAddress struct {
	Line1    string `json:"line1" validate:"required"`
	Line2    string `json:"line2"`
	City     string `json:"city" validate:"required"`
	Postcode string `json:"postcode" validate:"required"`
}

type checkoutRequest struct {
	Customer checkoutCustomer      `json:"customer" validate:"required"`
	Address  checkoutAddress       `json:"address" validate:"required"`
	Notes    string                `json:"notes"`
	Items    []checkoutItemRequest `json:"items" validate:"required,min=1,dive"`
}

// Checkout creates an order from the submitted basket. The response carries
// only the order id; payment happens through the payment-intent endpoints.
func Checkout(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body checkoutRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := checkout.Input{
			CustomerName:  body.Customer.Name,
			CustomerEmail: body.Customer.Email,
			CustomerPhone: body.Customer.Phone,
			AddressLine1:  body.Address.Line1,
			AddressLine2:  body.Address.Line2,
			City:          body.Address.City,
			Postcode:      body.Address.Postcode,
			Notes:         body.Notes,
			Items:         make([]checkout.ItemInput, 0, len(body.Items)),
		}
		for _, item := range body.Items {
			input.Items = append(input.Items, checkout.ItemInput{
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
			})
		}

		order, err := svc.CreateOrder(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]string{"id": order.ID.String()})
	}
}
