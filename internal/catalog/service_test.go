package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/vendgb/vendgb-backend/pkg/db/models"
	pkgerrors "github.com/vendgb/vendgb-backend/pkg/errors"
)

type stubRepo struct {
	products  []models.Product
	createErr error
	byID      map[uuid.UUID]*models.Product
}

func (s *stubRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubRepo) ListActive(ctx context.Context) ([]models.Product, error) {
	var active []models.Product
	for _, p := range s.products {
		if p.Active {
			active = append(active, p)
		}
	}
	return active, nil
}

func (s *stubRepo) List(ctx context.Context) ([]models.Product, error) {
	return s.products, nil
}

func (s *stubRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	if p, ok := s.byID[id]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubRepo) FindBySKU(ctx context.Context, sku string) (*models.Product, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *stubRepo) Create(ctx context.Context, product *models.Product) (*models.Product, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	s.products = append(s.products, *product)
	return product, nil
}

func (s *stubRepo) Update(ctx context.Context, product *models.Product) (*models.Product, error) {
	return product, nil
}

func (s *stubRepo) Delete(ctx context.Context, id uuid.UUID) error { return nil }

func dec(t *testing.T, v string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(v)
	if err != nil {
		t.Fatalf("parse decimal %q: %v", v, err)
	}
	return d
}

func TestListPublicComputesPriceWithTax(t *testing.T) {
	repo := &stubRepo{products: []models.Product{
		{
			ID:       uuid.New(),
			SKU:      "TEA-001",
			Name:     "Earl Grey",
			Category: "drinks",
			Price:    dec(t, "8.99"),
			TaxRate:  dec(t, "0.20"),
			StockQty: 5,
			Active:   true,
		},
	}}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	public, err := svc.ListPublic(context.Background())
	if err != nil {
		t.Fatalf("ListPublic: %v", err)
	}
	if len(public) != 1 {
		t.Fatalf("len = %d, want 1", len(public))
	}
	got := public[0]
	if got.Price != 8.99 {
		t.Errorf("Price = %v, want 8.99", got.Price)
	}
	if got.PriceWithTax != 10.79 {
		t.Errorf("PriceWithTax = %v, want 10.79", got.PriceWithTax)
	}
}

func TestListPublicSkipsInactive(t *testing.T) {
	repo := &stubRepo{products: []models.Product{
		{ID: uuid.New(), Name: "Hidden", Active: false, Price: dec(t, "1.00")},
	}}
	svc, _ := NewService(repo)

	public, err := svc.ListPublic(context.Background())
	if err != nil {
		t.Fatalf("ListPublic: %v", err)
	}
	if len(public) != 0 {
		t.Fatalf("len = %d, want 0", len(public))
	}
}

func TestSaleProductUsesSalePriceForTax(t *testing.T) {
	sale := dec(t, "5.00")
	repo := &stubRepo{products: []models.Product{
		{
			ID:        uuid.New(),
			Name:      "Flat White",
			Price:     dec(t, "6.00"),
			SalePrice: &sale,
			TaxRate:   dec(t, "0.20"),
			StockQty:  3,
			Available: true,
			Active:    true,
		},
	}}
	svc, _ := NewService(repo)

	public, err := svc.ListPublic(context.Background())
	if err != nil {
		t.Fatalf("ListPublic: %v", err)
	}
	got := public[0]
	if got.SalePrice == nil || *got.SalePrice != 5.00 {
		t.Fatalf("SalePrice = %v, want 5.00", got.SalePrice)
	}
	if got.PriceWithTax != 6.00 {
		t.Errorf("PriceWithTax = %v, want 6.00 (sale price basis)", got.PriceWithTax)
	}
}

func TestGetPublicInactiveIsNotFound(t *testing.T) {
	id := uuid.New()
	repo := &stubRepo{byID: map[uuid.UUID]*models.Product{
		id: {ID: id, Name: "Retired", Active: false, Price: dec(t, "1.00")},
	}}
	svc, _ := NewService(repo)

	_, err := svc.GetPublic(context.Background(), id)
	var apiErr *pkgerrors.Error
	if !errors.As(err, &apiErr) || apiErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("GetPublic error = %v, want not found", err)
	}
}

func TestCreateRejectsNonPositivePrice(t *testing.T) {
	repo := &stubRepo{}
	svc, _ := NewService(repo)

	_, err := svc.Create(context.Background(), ProductInput{
		SKU:      "TEA-002",
		Name:     "Assam",
		Category: "drinks",
		Price:    decimal.Zero,
	})
	var apiErr *pkgerrors.Error
	if !errors.As(err, &apiErr) || apiErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("Create error = %v, want validation", err)
	}
	if len(repo.products) != 0 {
		t.Fatalf("products = %d, want 0 persisted", len(repo.products))
	}
}

func TestCreateRejectsSalePriceAtOrAboveRegularPrice(t *testing.T) {
	repo := &stubRepo{}
	svc, _ := NewService(repo)

	for _, sale := range []string{"8.99", "9.50"} {
		s := dec(t, sale)
		_, err := svc.Create(context.Background(), ProductInput{
			SKU:       "PIZ-001",
			Name:      "Margherita",
			Category:  "pizza",
			Price:     dec(t, "8.99"),
			SalePrice: &s,
		})
		var apiErr *pkgerrors.Error
		if !errors.As(err, &apiErr) || apiErr.Code() != pkgerrors.CodeValidation {
			t.Fatalf("Create with sale price %s: error = %v, want validation", sale, err)
		}
	}

	s := dec(t, "7.49")
	if _, err := svc.Create(context.Background(), ProductInput{
		SKU:       "PIZ-001",
		Name:      "Margherita",
		Category:  "pizza",
		Price:     dec(t, "8.99"),
		SalePrice: &s,
	}); err != nil {
		t.Fatalf("Create with discounted sale price: %v", err)
	}
}

func TestCreateDuplicateSKUIsConflict(t *testing.T) {
	repo := &stubRepo{createErr: errors.New(`duplicate key value violates unique constraint "products_sku_key"`)}
	svc, _ := NewService(repo)

	_, err := svc.Create(context.Background(), ProductInput{
		SKU:      "TEA-001",
		Name:     "Earl Grey",
		Category: "drinks",
		Price:    dec(t, "8.99"),
	})
	var apiErr *pkgerrors.Error
	if !errors.As(err, &apiErr) || apiErr.Code() != pkgerrors.CodeConflict {
		t.Fatalf("Create error = %v, want conflict", err)
	}
}
