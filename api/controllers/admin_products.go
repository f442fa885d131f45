package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/vendgb/vendgb-backend/api/responses"
	"github.com/vendgb/vendgb-backend/api/validators"
	"github.com/vendgb/vendgb-backend/internal/catalog"
	"github.com/vendgb/vendgb-backend/pkg/db/models"
	"github.com/vendgb/vendgb-backend/pkg/logger"
)

// adminProductResponse is the back-office projection, including the fields
// the public catalogue hides.
type adminProductResponse struct {
	ID           uuid.UUID `json:"id"`
	SKU          string    `json:"sku"`
	Name         string    `json:"name"`
	ShortDesc    string    `json:"shortDesc"`
	FullDesc     string    `json:"fullDesc"`
	Category     string    `json:"category"`
	Tags         []string  `json:"tags"`
	Price        float64   `json:"price"`
	SalePrice    *float64  `json:"salePrice,omitempty"`
	TaxRate      float64   `json:"taxRate"`
	CostPrice    float64   `json:"costPrice"`
	Available    bool      `json:"available"`
	StockQty     int       `json:"stockQty"`
	MaxOrderQty  int       `json:"maxOrderQty"`
	PrepTimeMins int       `json:"prepTimeMins"`
	ImageURL     string    `json:"imageUrl"`
	Images       []string  `json:"images"`
	Active       bool      `json:"active"`
	SortOrder    int       `json:"sortOrder"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func newAdminProductResponse(p *models.Product) adminProductResponse {
	resp := adminProductResponse{
		ID:           p.ID,
		SKU:          p.SKU,
		Name:         p.Name,
		ShortDesc:    p.ShortDesc,
		FullDesc:     p.FullDesc,
		Category:     p.Category,
		Tags:         p.Tags,
		Price:        p.Price.InexactFloat64(),
		TaxRate:      p.TaxRate.InexactFloat64(),
		CostPrice:    p.CostPrice.InexactFloat64(),
		Available:    p.Available,
		StockQty:     p.StockQty,
		MaxOrderQty:  p.MaxOrderQty,
		PrepTimeMins: p.PrepTimeMins,
		ImageURL:     p.ImageURL,
		Images:       p.Images,
		Active:       p.Active,
		SortOrder:    p.SortOrder,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
	if p.SalePrice != nil {
		sale := p.SalePrice.InexactFloat64()
		resp.SalePrice = &sale
	}
	return resp
}

func AdminListProducts(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		products, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		out := make([]adminProductResponse, 0, len(products))
		for i := range products {
			out = append(out, newAdminProductResponse(&products[i]))
		}
		responses.WriteSuccess(w, out)
	}
}

func AdminGetProduct(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newAdminProductResponse(product))
	}
}

func AdminCreateProduct(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input catalog.ProductInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newAdminProductResponse(product))
	}
}

func AdminUpdateProduct(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var input catalog.ProductInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.Update(r.Context(), id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newAdminProductResponse(product))
	}
}

func AdminDeleteProduct(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
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
