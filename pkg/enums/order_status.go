package enums

import (
	"fmt"
	"strings"
)

// OrderStatus tracks an order through its lifecycle. Orders start as
// OrderStatusNew and move to OrderStatusPaid once the payment gateway
// confirms the charge; fulfilment statuses follow from there.
type OrderStatus string

const (
	OrderStatusNew            OrderStatus = "new"
	OrderStatusPaid           OrderStatus = "paid"
	OrderStatusPreparing      OrderStatus = "preparing"
	OrderStatusOutForDelivery OrderStatus = "out_for_delivery"
	OrderStatusDelivered      OrderStatus = "delivered"
	OrderStatusCancelled      OrderStatus = "cancelled"
	OrderStatusFailed         OrderStatus = "failed"
)

func (s OrderStatus) String() string {
	return string(s)
}

func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusNew, OrderStatusPaid, OrderStatusPreparing,
		OrderStatusOutForDelivery, OrderStatusDelivered,
		OrderStatusCancelled, OrderStatusFailed:
		return true
	}
	return false
}

// IsTerminal reports whether no further transitions are allowed.
func (s OrderStatus) IsTerminal() bool {
	switch s {
	case OrderStatusDelivered, OrderStatusCancelled, OrderStatusFailed:
		return true
	}
	return false
}

func ParseOrderStatus(value string) (OrderStatus, error) {
	status := OrderStatus(strings.ToLower(strings.TrimSpace(value)))
	if !status.IsValid() {
		return "", fmt.Errorf("invalid order status: %q", value)
	}
	return status, nil
}
