package checkout

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/vendgb/vendgb-backend/internal/cart"
	"github.com/vendgb/vendgb-backend/internal/catalog"
	"github.com/vendgb/vendgb-backend/internal/orders"
	"github.com/vendgb/vendgb-backend/pkg/db/models"
	"github.com/vendgb/vendgb-backend/pkg/enums"
	pkgerrors "github.com/vendgb/vendgb-backend/pkg/errors"
	"github.com/vendgb/vendgb-backend/pkg/logger"
	"github.com/vendgb/vendgb-backend/pkg/metrics"
	"github.com/vendgb/vendgb-backend/pkg/money"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service turns a submitted basket into a persisted order.
type Service interface {
	CreateOrder(ctx context.Context, input Input) (*models.Order, error)
	CreateManualOrder(ctx context.Context, input ManualInput) (*models.Order, error)
}

type service struct {
	catalog catalog.Repository
	orders  orders.Repository
	tx      txRunner
	logg    *logger.Logger
	metrics *metrics.PaymentMetrics
}

// NewService builds the checkout service with the required dependencies.
func NewService(catalogRepo catalog.Repository, ordersRepo orders.Repository, tx txRunner, logg *logger.Logger, m *metrics.PaymentMetrics) (Service, error) {
	if catalogRepo == nil {
		return nil, errors.New("checkout: catalog repository is required")
	}
	if ordersRepo == nil {
		return nil, errors.New("checkout: orders repository is required")
	}
	if tx == nil {
		return nil, errors.New("checkout: transaction runner is required")
	}
	return &service{
		catalog: catalogRepo,
		orders:  ordersRepo,
		tx:      tx,
		logg:    logg,
		metrics: m,
	}, nil
}

// Input is the checkout request after transport-level validation.
// Item prices are never taken from the client; every line is re-priced
// from the catalogue before the total is computed.
type Input struct {
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
	AddressLine1  string
	AddressLine2  string
	City          string
	Postcode      string
	Notes         string
	Items         []ItemInput
}

// ItemInput is one requested basket line.
type ItemInput struct {
	ProductID uuid.UUID
	Quantity  int
}

func (s *service) CreateOrder(ctx context.Context, input Input) (*models.Order, error) {
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order must contain at least one item")
	}

	basket := cart.New()
	products := make(map[uuid.UUID]*models.Product)
	for _, item := range input.Items {
		if item.Quantity < 1 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be at least 1").
				WithDetails(map[string]string{"productId": item.ProductID.String()})
		}

		product, ok := products[item.ProductID]
		if !ok {
			loaded, err := s.catalog.FindByID(ctx, item.ProductID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return nil, pkgerrors.New(pkgerrors.CodeNotFound, "unknown product in order").
						WithDetails(map[string]string{"productId": item.ProductID.String()})
				}
				return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading product")
			}
			product = loaded
			products[item.ProductID] = product
		}
		if !product.Active || !product.Available {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product is not available").
				WithDetails(map[string]string{"productId": item.ProductID.String()})
		}

		basket.Add(product.ID, product.Name, product.CurrentPrice(), item.Quantity)
	}

	for _, line := range basket.Lines() {
		product := products[line.ProductID]
		if product.MaxOrderQty > 0 && line.Quantity > product.MaxOrderQty {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity exceeds the per-order limit").
				WithDetails(map[string]any{
					"productId":   line.ProductID.String(),
					"maxOrderQty": product.MaxOrderQty,
				})
		}
	}

	order := &models.Order{
		ID:            uuid.New(),
		CustomerName:  strings.TrimSpace(input.CustomerName),
		CustomerEmail: strings.TrimSpace(input.CustomerEmail),
		CustomerPhone: strings.TrimSpace(input.CustomerPhone),
		AddressLine1:  strings.TrimSpace(input.AddressLine1),
		AddressLine2:  strings.TrimSpace(input.AddressLine2),
		City:          strings.TrimSpace(input.City),
		Postcode:      strings.TrimSpace(input.Postcode),
		Notes:         strings.TrimSpace(input.Notes),
		Total:         basket.Total(),
		Status:        enums.OrderStatusNew,
	}

	items := make([]models.OrderItem, 0, len(basket.Lines()))
	for i, line := range basket.Lines() {
		items = append(items, models.OrderItem{
			ID:        uuid.New(),
			OrderID:   order.ID,
			ProductID: line.ProductID,
			Name:      line.Name,
			UnitPrice: line.UnitPrice,
			Quantity:  line.Quantity,
			LineTotal: line.LineTotal(),
			Position:  i,
		})
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.orders.WithTx(tx)
		if _, err := repo.Create(ctx, order); err != nil {
			return err
		}
		return repo.CreateItems(ctx, items)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persisting order")
	}

	order.Items = items
	s.metrics.IncOrderCreated("api")

	if s.logg != nil {
		ctx = s.logg.WithOrderID(ctx, order.ID.String())
		s.logg.Info(s.logg.WithField(ctx, "total", order.Total.StringFixed(2)), "order created")
	}

	return order, nil
}

// ManualInput is a back-office order entered on the customer's behalf,
// typically over the phone. Lines carry their own prices and need not
// reference a catalogue product.
type ManualInput struct {
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
	AddressLine1  string
	AddressLine2  string
	City          string
	Postcode      string
	Notes         string
	Items         []ManualItemInput
}

// ManualItemInput is one admin-priced line.
type ManualItemInput struct {
	ProductID *uuid.UUID
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int
}

// CreateManualOrder persists an admin-entered order. The total is always
// recomputed from the submitted lines; a client-supplied total is ignored.
func (s *service) CreateManualOrder(ctx context.Context, input ManualInput) (*models.Order, error) {
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order must contain at least one item")
	}

	orderID := uuid.New()
	total := decimal.Zero
	items := make([]models.OrderItem, 0, len(input.Items))
	for i, line := range input.Items {
		if line.Quantity < 1 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be at least 1").
				WithDetails(map[string]any{"position": i})
		}
		name := strings.TrimSpace(line.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item name is required").
				WithDetails(map[string]any{"position": i})
		}
		if line.UnitPrice.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item price must not be negative").
				WithDetails(map[string]any{"position": i})
		}

		productID := uuid.Nil
		if line.ProductID != nil {
			productID = *line.ProductID
		}
		unitPrice := money.Round2(line.UnitPrice)
		lineTotal := money.Round2(unitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
		total = total.Add(lineTotal)

		items = append(items, models.OrderItem{
			ID:        uuid.New(),
			OrderID:   orderID,
			ProductID: productID,
			Name:      name,
			UnitPrice: unitPrice,
			Quantity:  line.Quantity,
			LineTotal: lineTotal,
			Position:  i,
		})
	}

	order := &models.Order{
		ID:            orderID,
		CustomerName:  strings.TrimSpace(input.CustomerName),
		CustomerEmail: strings.TrimSpace(input.CustomerEmail),
		CustomerPhone: strings.TrimSpace(input.CustomerPhone),
		AddressLine1:  strings.TrimSpace(input.AddressLine1),
		AddressLine2:  strings.TrimSpace(input.AddressLine2),
		City:          strings.TrimSpace(input.City),
		Postcode:      strings.TrimSpace(input.Postcode),
		Notes:         strings.TrimSpace(input.Notes),
		Total:         total,
		Status:        enums.OrderStatusNew,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.orders.WithTx(tx)
		if _, err := repo.Create(ctx, order); err != nil {
			return err
		}
		return repo.CreateItems(ctx, items)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persisting order")
	}

	order.Items = items
	s.metrics.IncOrderCreated("admin")

	if s.logg != nil {
		ctx = s.logg.WithOrderID(ctx, order.ID.String())
		s.logg.Info(s.logg.WithField(ctx, "total", order.Total.StringFixed(2)), "manual order created")
	}

	return order, nil
}
