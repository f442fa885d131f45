package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vendgb/vendgb-backend/api/responses"
	"github.com/vendgb/vendgb-backend/api/validators"
	"github.com/vendgb/vendgb-backend/internal/checkout"
	"github.com/vendgb/vendgb-backend/internal/orders"
	"github.com/vendgb/vendgb-backend/pkg/db/models"
	"github.com/vendgb/vendgb-backend/pkg/enums"
	pkgerrors "github.com/vendgb/vendgb-backend/pkg/errors"
	"github.com/vendgb/vendgb-backend/pkg/logger"
)

const (
	defaultOrderPageSize = 50
	maxOrderPageSize     = 200
)

type orderItemResponse struct {
	ID        uuid.UUID `json:"id"`
	ProductID uuid.UUID `json:"productId"`
	Name      string    `json:"name"`
	UnitPrice float64   `json:"unitPrice"`
	Quantity  int       `json:"quantity"`
	LineTotal float64   `json:"lineTotal"`
}

type orderResponse struct {
	ID              uuid.UUID           `json:"id"`
	CustomerName    string              `json:"customerName"`
	CustomerEmail   string              `json:"customerEmail"`
	CustomerPhone   string              `json:"customerPhone,omitempty"`
	AddressLine1    string              `json:"addressLine1"`
	AddressLine2    string              `json:"addressLine2,omitempty"`
	City            string              `json:"city"`
	Postcode        string              `json:"postcode"`
	Notes           string              `json:"notes,omitempty"`
	Total           float64             `json:"total"`
	Status          string              `json:"status"`
	PaymentIntentID string              `json:"paymentIntentId,omitempty"`
	Items           []orderItemResponse `json:"items"`
	CreatedAt       time.Time           `json:"createdAt"`
	UpdatedAt       time.Time           `json:"updatedAt"`
}

func newOrderResponse(order *models.Order) orderResponse {
	resp := orderResponse{
		ID:            order.ID,
		CustomerName:  order.CustomerName,
		CustomerEmail: order.CustomerEmail,
		CustomerPhone: order.CustomerPhone,
		AddressLine1:  order.AddressLine1,
		AddressLine2:  order.AddressLine2,
		City:          order.City,
		Postcode:      order.Postcode,
		Notes:         order.Notes,
		Total:         order.Total.InexactFloat64(),
		Status:        order.Status.String(),
		Items:         make([]orderItemResponse, 0, len(order.Items)),
		CreatedAt:     order.CreatedAt,
		UpdatedAt:     order.UpdatedAt,
	}
	if order.PaymentIntentID != nil {
		resp.PaymentIntentID = *order.PaymentIntentID
	}
	for _, item := range order.Items {
		resp.Items = append(resp.Items, orderItemResponse{
			ID:        item.ID,
			ProductID: item.ProductID,
			Name:      item.Name,
			UnitPrice: item.UnitPrice.InexactFloat64(),
			Quantity:  item.Quantity,
			LineTotal: item.LineTotal.InexactFloat64(),
		})
	}
	return resp
}

func listFilterFromQuery(r *http.Request) (orders.ListFilter, error) {
	filter := orders.ListFilter{Limit: defaultOrderPageSize}

	if raw := r.URL.Query().Get("status"); raw != "" {
		status, err := enums.ParseOrderStatus(raw)
		if err != nil {
			return filter, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter")
		}
		filter.Status = &status
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return filter, pkgerrors.New(pkgerrors.CodeValidation, "limit must be a positive integer")
		}
		if limit > maxOrderPageSize {
			limit = maxOrderPageSize
		}
		filter.Limit = limit
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return filter, pkgerrors.New(pkgerrors.CodeValidation, "offset must not be negative")
		}
		filter.Offset = offset
	}
	return filter, nil
}

func AdminListOrders(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := listFilterFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		results, err := svc.List(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		out := make([]orderResponse, 0, len(results))
		for i := range results {
			out = append(out, newOrderResponse(&results[i]))
		}
		responses.WriteSuccess(w, out)
	}
}

type manualOrderItemRequest struct {
	ProductID *uuid.UUID      `json:"productId"`
	Name      string          `json:"name" validate:"required"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int             `json:"quantity" validate:"required,gte=1"`
}

type manualOrderRequest struct {
	CustomerName  string                   `json:"customerName" validate:"required"`
	CustomerEmail string                   `json:"customerEmail" validate:"omitempty,email"`
	CustomerPhone string                   `json:"customerPhone"`
	AddressLine1  string                   `json:"addressLine1" validate:"required"`
	AddressLine2  string                   `json:"addressLine2"`
	City          string                   `json:"city" validate:"required"`
	Postcode      string                   `json:"postcode" validate:"required"`
	Notes         string                   `json:"notes"`
	Items         []manualOrderItemRequest `json:"items" validate:"required,min=1,dive"`
	// Accepted but ignored; the total is recomputed from the lines.
	Total *decimal.Decimal `json:"total"`
}

// AdminCreateOrder records an order entered by staff, typically taken over
// the phone. Line prices come from the request; the total does not.
func AdminCreateOrder(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body manualOrderRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := checkout.ManualInput{
			CustomerName:  body.CustomerName,
			CustomerEmail: body.CustomerEmail,
			CustomerPhone: body.CustomerPhone,
			AddressLine1:  body.AddressLine1,
			AddressLine2:  body.AddressLine2,
			City:          body.City,
			Postcode:      body.Postcode,
			Notes:         body.Notes,
			Items:         make([]checkout.ManualItemInput, 0, len(body.Items)),
		}
		for _, item := range body.Items {
			input.Items = append(input.Items, checkout.ManualItemInput{
				ProductID: item.ProductID,
				Name:      item.Name,
				UnitPrice: item.UnitPrice,
				Quantity:  item.Quantity,
			})
		}

		order, err := svc.CreateManualOrder(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newOrderResponse(order))
	}
}

func AdminGetOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderResponse(order))
	}
}

type updateOrderStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

func AdminUpdateOrderStatus(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateOrderStatusRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := enums.ParseOrderStatus(body.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}

		order, err := svc.SetStatus(r.Context(), id, status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderResponse(order))
	}
}

func AdminDeleteOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"deleted": true})
	}
}
