package orders

import "github.com/vendgb/vendgb-backend/pkg/enums"

// allowedTransitions is the order lifecycle. Payment success moves new to
// paid; the kitchen flow runs paid through delivered; cancellation is open
// until the order leaves the kitchen.
var allowedTransitions = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusNew: {
		enums.OrderStatusPaid,
		enums.OrderStatusCancelled,
		enums.OrderStatusFailed,
	},
	enums.OrderStatusPaid: {
		enums.OrderStatusPreparing,
		enums.OrderStatusCancelled,
	},
	enums.OrderStatusPreparing: {
		enums.OrderStatusOutForDelivery,
		enums.OrderStatusCancelled,
	},
	enums.OrderStatusOutForDelivery: {
		enums.OrderStatusDelivered,
	},
}

// CanTransition reports whether moving from one status to the other is allowed.
func CanTransition(from, to enums.OrderStatus) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
