package orders

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vendgb/vendgb-backend/pkg/db/models"
	"github.com/vendgb/vendgb-backend/pkg/enums"
	pkgerrors "github.com/vendgb/vendgb-backend/pkg/errors"
	"github.com/vendgb/vendgb-backend/pkg/logger"
)

// Service defines order lifecycle operations beyond repository reads.
type Service interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Order, error)
	List(ctx context.Context, filter ListFilter) ([]models.Order, error)
	SetStatus(ctx context.Context, id uuid.UUID, to enums.OrderStatus) (*models.Order, error)
	MarkPaid(ctx context.Context, id uuid.UUID, intentID string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo Repository
	logg *logger.Logger
}

// NewService builds the order lifecycle service.
func NewService(repo Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, errors.New("orders: repository is required")
	}
	return &service{repo: repo, logg: logg}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return s.findOrder(ctx, id)
}

func (s *service) List(ctx context.Context, filter ListFilter) ([]models.Order, error) {
	orders, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing orders")
	}
	return orders, nil
}

// SetStatus applies an admin status change. Any valid status may be forced;
// the automated lifecycle graph applies only to payment-driven transitions,
// and manual overrides outside it are logged, not rejected. Setting the
// status an order already has is a no-op.
func (s *service) SetStatus(ctx context.Context, id uuid.UUID, to enums.OrderStatus) (*models.Order, error) {
	if !to.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid status").
			WithDetails(map[string]string{"status": to.String()})
	}

	order, err := s.findOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	if order.Status == to {
		return order, nil
	}

	updated, err := s.repo.UpdateStatus(ctx, id, order.Status, to)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating order status")
	}
	if !updated {
		// lost a race with another writer; re-read and report
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order changed concurrently")
	}

	if s.logg != nil {
		ctx = s.logg.WithOrderID(ctx, id.String())
		ctx = s.logg.WithField(ctx, "status", to.String())
		if CanTransition(order.Status, to) {
			s.logg.Info(ctx, "order status updated")
		} else {
			s.logg.Warn(s.logg.WithField(ctx, "previous_status", order.Status.String()), "order status forced outside the standard flow")
		}
	}

	order.Status = to
	return order, nil
}

// MarkPaid transitions a new order to paid exactly once. Replayed
// confirmations for the same intent are accepted silently.
func (s *service) MarkPaid(ctx context.Context, id uuid.UUID, intentID string) error {
	updated, err := s.repo.MarkPaid(ctx, id, intentID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marking order paid")
	}
	if updated {
		if s.logg != nil {
			ctx = s.logg.WithOrderID(ctx, id.String())
			s.logg.Info(s.logg.WithPaymentIntentID(ctx, intentID), "order marked paid")
		}
		return nil
	}

	order, err := s.findOrder(ctx, id)
	if err != nil {
		return err
	}
	if order.Status == enums.OrderStatusPaid &&
		order.PaymentIntentID != nil && *order.PaymentIntentID == intentID {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeStateConflict, "order is not awaiting payment").
		WithDetails(map[string]string{"status": order.Status.String()})
}

// Delete removes an order record. Only cancelled orders can be deleted;
// everything else stays for the audit trail.
func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	order, err := s.findOrder(ctx, id)
	if err != nil {
		return err
	}
	if order.Status != enums.OrderStatusCancelled {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "only cancelled orders can be deleted")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deleting order")
	}
	return nil
}

func (s *service) findOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading order")
	}
	return order, nil
}
