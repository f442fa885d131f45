package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/vendgb/vendgb-backend/pkg/db"
	"github.com/vendgb/vendgb-backend/pkg/db/models"
	pkgerrors "github.com/vendgb/vendgb-backend/pkg/errors"
	"github.com/vendgb/vendgb-backend/pkg/money"
)

// Service exposes the storefront catalogue plus the admin CRUD surface.
type Service interface {
	ListPublic(ctx context.Context) ([]PublicProduct, error)
	GetPublic(ctx context.Context, id uuid.UUID) (*PublicProduct, error)

	List(ctx context.Context) ([]models.Product, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Product, error)
	Create(ctx context.Context, input ProductInput) (*models.Product, error)
	Update(ctx context.Context, id uuid.UUID, input ProductInput) (*models.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo Repository
}

// NewService builds the catalogue service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, errors.New("catalog: repository is required")
	}
	return &service{repo: repo}, nil
}

// PublicProduct is the storefront view of a catalogue row. Back-office
// fields (cost price, tax rate, stock level, SKU) are never exposed here.
type PublicProduct struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	ShortDesc    string    `json:"shortDesc,omitempty"`
	FullDesc     string    `json:"fullDesc,omitempty"`
	Category     string    `json:"category"`
	Tags         []string  `json:"tags,omitempty"`
	Price        float64   `json:"price"`
	SalePrice    *float64  `json:"salePrice,omitempty"`
	PriceWithTax float64   `json:"priceWithTax"`
	Available    bool      `json:"available"`
	MaxOrderQty  int       `json:"maxOrderQty,omitempty"`
	PrepTimeMins int       `json:"prepTimeMins,omitempty"`
	ImageURL     string    `json:"imageUrl,omitempty"`
	Images       []string  `json:"images,omitempty"`
	SortOrder    int       `json:"sortOrder"`
}

// ProductInput carries the writable fields for admin create/update.
type ProductInput struct {
	SKU          string           `json:"sku" validate:"required"`
	Name         string           `json:"name" validate:"required"`
	ShortDesc    string           `json:"shortDesc"`
	FullDesc     string           `json:"fullDesc"`
	Category     string           `json:"category" validate:"required"`
	Tags         []string         `json:"tags"`
	Price        decimal.Decimal  `json:"price" validate:"required"`
	SalePrice    *decimal.Decimal `json:"salePrice"`
	TaxRate      decimal.Decimal  `json:"taxRate"`
	CostPrice    decimal.Decimal  `json:"costPrice"`
	Available    *bool            `json:"available"`
	StockQty     int              `json:"stockQty" validate:"gte=0"`
	MaxOrderQty  int              `json:"maxOrderQty" validate:"gte=0"`
	PrepTimeMins int              `json:"prepTimeMins" validate:"gte=0"`
	ImageURL     string           `json:"imageUrl"`
	Images       []string         `json:"images"`
	Active       *bool            `json:"active"`
	SortOrder    int              `json:"sortOrder"`
}

func (s *service) ListPublic(ctx context.Context) ([]PublicProduct, error) {
	products, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing products")
	}
	out := make([]PublicProduct, 0, len(products))
	for _, p := range products {
		out = append(out, toPublicProduct(p))
	}
	return out, nil
}

func (s *service) GetPublic(ctx context.Context, id uuid.UUID) (*PublicProduct, error) {
	product, err := s.findProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if !product.Active {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	public := toPublicProduct(*product)
	return &public, nil
}

func (s *service) List(ctx context.Context) ([]models.Product, error) {
	products, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing products")
	}
	return products, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	return s.findProduct(ctx, id)
}

func (s *service) Create(ctx context.Context, input ProductInput) (*models.Product, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	product := models.Product{ID: uuid.New()}
	applyInput(&product, input)

	created, err := s.repo.Create(ctx, &product)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "a product with this SKU already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating product")
	}
	return created, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input ProductInput) (*models.Product, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	product, err := s.findProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	applyInput(product, input)

	updated, err := s.repo.Update(ctx, product)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "a product with this SKU already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating product")
	}
	return updated, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.findProduct(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deleting product")
	}
	return nil
}

func (s *service) findProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading product")
	}
	return product, nil
}

func validateInput(input ProductInput) error {
	if !input.Price.IsPositive() {
		return pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
	}
	if input.SalePrice != nil {
		if input.SalePrice.IsNegative() {
			return pkgerrors.New(pkgerrors.CodeValidation, "sale price must not be negative")
		}
		if input.SalePrice.GreaterThanOrEqual(input.Price) {
			return pkgerrors.New(pkgerrors.CodeValidation, "sale price must be lower than the regular price")
		}
	}
	if input.TaxRate.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "tax rate must not be negative")
	}
	return nil
}

func applyInput(product *models.Product, input ProductInput) {
	product.SKU = strings.TrimSpace(input.SKU)
	product.Name = strings.TrimSpace(input.Name)
	product.ShortDesc = input.ShortDesc
	product.FullDesc = input.FullDesc
	product.Category = strings.TrimSpace(input.Category)
	product.Tags = input.Tags
	product.Price = money.Round2(input.Price)
	product.SalePrice = nil
	if input.SalePrice != nil {
		rounded := money.Round2(*input.SalePrice)
		product.SalePrice = &rounded
	}
	product.TaxRate = input.TaxRate
	product.CostPrice = money.Round2(input.CostPrice)
	if input.Available != nil {
		product.Available = *input.Available
	} else {
		product.Available = true
	}
	product.StockQty = input.StockQty
	product.MaxOrderQty = input.MaxOrderQty
	product.PrepTimeMins = input.PrepTimeMins
	product.ImageURL = input.ImageURL
	product.Images = input.Images
	if input.Active != nil {
		product.Active = *input.Active
	} else {
		product.Active = true
	}
	product.SortOrder = input.SortOrder
}

func toPublicProduct(p models.Product) PublicProduct {
	withTax := money.Round2(p.CurrentPrice().Mul(decimal.NewFromInt(1).Add(p.TaxRate)))

	public := PublicProduct{
		ID:           p.ID,
		Name:         p.Name,
		ShortDesc:    p.ShortDesc,
		FullDesc:     p.FullDesc,
		Category:     p.Category,
		Tags:         p.Tags,
		Price:        p.Price.InexactFloat64(),
		PriceWithTax: withTax.InexactFloat64(),
		Available:    p.Available && p.StockQty > 0,
		MaxOrderQty:  p.MaxOrderQty,
		PrepTimeMins: p.PrepTimeMins,
		ImageURL:     p.ImageURL,
		Images:       p.Images,
		SortOrder:    p.SortOrder,
	}
	if p.SalePrice != nil && p.SalePrice.IsPositive() {
		sale := p.SalePrice.InexactFloat64()
		public.SalePrice = &sale
	}
	return public
}
