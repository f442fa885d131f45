package orders

import (
	"context"

	"github.com/google/uuid"
	"github.com/vendgb/vendgb-backend/pkg/db/models"
	"github.com/vendgb/vendgb-backend/pkg/enums"
	"gorm.io/gorm"
)

// Repository exposes order persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	CreateItems(ctx context.Context, items []models.OrderItem) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByPaymentIntentID(ctx context.Context, intentID string) (*models.Order, error)
	List(ctx context.Context, filter ListFilter) ([]models.Order, error)
	AttachPaymentIntent(ctx context.Context, orderID uuid.UUID, intentID string) (bool, error)
	MarkPaid(ctx context.Context, orderID uuid.UUID, intentID string) (bool, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, from, to enums.OrderStatus) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ListFilter narrows admin order listings.
type ListFilter struct {
	Status *enums.OrderStatus
	Limit  int
	Offset int
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := r.db.WithContext(ctx).Omit("Items").Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

func (r *repository) CreateItems(ctx context.Context, items []models.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindByPaymentIntentID(ctx context.Context, intentID string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("payment_intent_id = ?", intentID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]models.Order, error) {
	query := r.db.WithContext(ctx).
		Preload("Items").
		Order("created_at DESC")
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var orders []models.Order
	if err := query.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// AttachPaymentIntent binds a gateway intent to an unpaid order. The guard on
// payment_intent_id keeps one order bound to exactly one intent.
func (r *repository) AttachPaymentIntent(ctx context.Context, orderID uuid.UUID, intentID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ? AND (payment_intent_id IS NULL OR payment_intent_id = ?)",
			orderID, enums.OrderStatusNew, intentID).
		Update("payment_intent_id", intentID)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// MarkPaid flips a new order to paid in a single conditional update, so
// concurrent confirmations and webhook deliveries converge on one winner.
func (r *repository) MarkPaid(ctx context.Context, orderID uuid.UUID, intentID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", orderID, enums.OrderStatusNew).
		Updates(map[string]any{
			"status":            enums.OrderStatusPaid,
			"payment_intent_id": intentID,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) UpdateStatus(ctx context.Context, orderID uuid.UUID, from, to enums.OrderStatus) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", orderID, from).
		Update("status", to)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.Order{}).Error
}
