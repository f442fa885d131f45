package orders

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vendgb/vendgb-backend/pkg/db/models"
	"github.com/vendgb/vendgb-backend/pkg/enums"
	pkgerrors "github.com/vendgb/vendgb-backend/pkg/errors"
)

type stubRepo struct {
	orders map[uuid.UUID]*models.Order

	markPaidCalls  int
	markPaidResult bool
	statusUpdates  []enums.OrderStatus
	deleted        []uuid.UUID
}

func newStubRepo(orders ...*models.Order) *stubRepo {
	s := &stubRepo{orders: map[uuid.UUID]*models.Order{}}
	for _, o := range orders {
		s.orders[o.ID] = o
	}
	return s
}

func (s *stubRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubRepo) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	s.orders[order.ID] = order
	return order, nil
}

func (s *stubRepo) CreateItems(ctx context.Context, items []models.OrderItem) error { return nil }

func (s *stubRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	if o, ok := s.orders[id]; ok {
		return o, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubRepo) FindByPaymentIntentID(ctx context.Context, intentID string) (*models.Order, error) {
	for _, o := range s.orders {
		if o.PaymentIntentID != nil && *o.PaymentIntentID == intentID {
			return o, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubRepo) List(ctx context.Context, filter ListFilter) ([]models.Order, error) {
	var out []models.Order
	for _, o := range s.orders {
		if filter.Status != nil && o.Status != *filter.Status {
			continue
		}
		out = append(out, *o)
	}
	return out, nil
}

func (s *stubRepo) AttachPaymentIntent(ctx context.Context, orderID uuid.UUID, intentID string) (bool, error) {
	o, ok := s.orders[orderID]
	if !ok || o.Status != enums.OrderStatusNew {
		return false, nil
	}
	if o.PaymentIntentID != nil && *o.PaymentIntentID != intentID {
		return false, nil
	}
	o.PaymentIntentID = &intentID
	return true, nil
}

func (s *stubRepo) MarkPaid(ctx context.Context, orderID uuid.UUID, intentID string) (bool, error) {
	s.markPaidCalls++
	o, ok := s.orders[orderID]
	if !ok || o.Status != enums.OrderStatusNew {
		return false, nil
	}
	o.Status = enums.OrderStatusPaid
	o.PaymentIntentID = &intentID
	s.markPaidResult = true
	return true, nil
}

func (s *stubRepo) UpdateStatus(ctx context.Context, orderID uuid.UUID, from, to enums.OrderStatus) (bool, error) {
	o, ok := s.orders[orderID]
	if !ok || o.Status != from {
		return false, nil
	}
	o.Status = to
	s.statusUpdates = append(s.statusUpdates, to)
	return true, nil
}

func (s *stubRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(s.orders, id)
	s.deleted = append(s.deleted, id)
	return nil
}

func errCode(t *testing.T, err error) pkgerrors.Code {
	t.Helper()
	var apiErr *pkgerrors.Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("error %v is not a typed error", err)
	}
	return apiErr.Code()
}

func TestSetStatusFollowsLifecycle(t *testing.T) {
	order := &models.Order{ID: uuid.New(), Status: enums.OrderStatusPaid}
	repo := newStubRepo(order)
	svc, err := NewService(repo, nil)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	updated, err := svc.SetStatus(context.Background(), order.ID, enums.OrderStatusPreparing)
	if err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	if updated.Status != enums.OrderStatusPreparing {
		t.Errorf("Status = %s, want preparing", updated.Status)
	}
}

func TestSetStatusAllowsManualOverride(t *testing.T) {
	// Phone orders and refunds need transitions outside the automated graph.
	order := &models.Order{ID: uuid.New(), Status: enums.OrderStatusNew}
	svc, _ := NewService(newStubRepo(order), nil)

	updated, err := svc.SetStatus(context.Background(), order.ID, enums.OrderStatusDelivered)
	if err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	if updated.Status != enums.OrderStatusDelivered {
		t.Errorf("Status = %s, want delivered", updated.Status)
	}
}

func TestSetStatusRejectsUnknownStatus(t *testing.T) {
	order := &models.Order{ID: uuid.New(), Status: enums.OrderStatusNew}
	svc, _ := NewService(newStubRepo(order), nil)

	_, err := svc.SetStatus(context.Background(), order.ID, enums.OrderStatus("refunded"))
	if got := errCode(t, err); got != pkgerrors.CodeValidation {
		t.Errorf("code = %s, want validation", got)
	}
}

func TestSetStatusSameStatusIsNoOp(t *testing.T) {
	order := &models.Order{ID: uuid.New(), Status: enums.OrderStatusPaid}
	repo := newStubRepo(order)
	svc, _ := NewService(repo, nil)

	if _, err := svc.SetStatus(context.Background(), order.ID, enums.OrderStatusPaid); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	if len(repo.statusUpdates) != 0 {
		t.Error("no update should be written for an unchanged status")
	}
}

func TestSetStatusUnknownOrder(t *testing.T) {
	svc, _ := NewService(newStubRepo(), nil)

	_, err := svc.SetStatus(context.Background(), uuid.New(), enums.OrderStatusPaid)
	if got := errCode(t, err); got != pkgerrors.CodeNotFound {
		t.Errorf("code = %s, want not found", got)
	}
}

func TestMarkPaidTransitionsNewOrder(t *testing.T) {
	order := &models.Order{ID: uuid.New(), Status: enums.OrderStatusNew}
	repo := newStubRepo(order)
	svc, _ := NewService(repo, nil)

	if err := svc.MarkPaid(context.Background(), order.ID, "pi_123"); err != nil {
		t.Fatalf("MarkPaid: %v", err)
	}
	if order.Status != enums.OrderStatusPaid {
		t.Errorf("Status = %s, want paid", order.Status)
	}
	if order.PaymentIntentID == nil || *order.PaymentIntentID != "pi_123" {
		t.Errorf("PaymentIntentID = %v, want pi_123", order.PaymentIntentID)
	}
}

func TestMarkPaidIsIdempotentForSameIntent(t *testing.T) {
	order := &models.Order{ID: uuid.New(), Status: enums.OrderStatusNew}
	repo := newStubRepo(order)
	svc, _ := NewService(repo, nil)

	if err := svc.MarkPaid(context.Background(), order.ID, "pi_123"); err != nil {
		t.Fatalf("first MarkPaid: %v", err)
	}
	if err := svc.MarkPaid(context.Background(), order.ID, "pi_123"); err != nil {
		t.Fatalf("replayed MarkPaid: %v", err)
	}
	if repo.markPaidCalls != 2 {
		t.Errorf("markPaidCalls = %d, want 2", repo.markPaidCalls)
	}
}

func TestMarkPaidRejectsCancelledOrder(t *testing.T) {
	order := &models.Order{ID: uuid.New(), Status: enums.OrderStatusCancelled}
	svc, _ := NewService(newStubRepo(order), nil)

	err := svc.MarkPaid(context.Background(), order.ID, "pi_123")
	if got := errCode(t, err); got != pkgerrors.CodeStateConflict {
		t.Errorf("code = %s, want state conflict", got)
	}
}

func TestDeleteRequiresCancelledStatus(t *testing.T) {
	paid := &models.Order{ID: uuid.New(), Status: enums.OrderStatusPaid}
	cancelled := &models.Order{ID: uuid.New(), Status: enums.OrderStatusCancelled}
	repo := newStubRepo(paid, cancelled)
	svc, _ := NewService(repo, nil)

	err := svc.Delete(context.Background(), paid.ID)
	if got := errCode(t, err); got != pkgerrors.CodeStateConflict {
		t.Errorf("code = %s, want state conflict", got)
	}

	if err := svc.Delete(context.Background(), cancelled.ID); err != nil {
		t.Fatalf("Delete cancelled order: %v", err)
	}
	if len(repo.deleted) != 1 {
		t.Errorf("deleted = %v, want one entry", repo.deleted)
	}
}
