package order

// OrderStatus represents the fulfilment status of an order
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusInProcess  OrderStatus = "inProcess"
	OrderStatusInShipping OrderStatus = "inShipping"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusRejected   OrderStatus = "rejected"
	OrderStatusExpired    OrderStatus = "expired"
)

// IsValid checks if the status is a valid OrderStatus
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusInProcess, OrderStatusInShipping,
		OrderStatusDelivered, OrderStatusRejected, OrderStatusExpired:
		return true
	}
	return false
}

// String returns the string representation of OrderStatus
func (s OrderStatus) String() string {
	return string(s)
}

// IsTerminal returns true if no further transition is possible
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusRejected || s == OrderStatusExpired
}

// IsAdminSettable returns true for the statuses an administrator may assign
func (s OrderStatus) IsAdminSettable() bool {
	switch s {
	case OrderStatusInProcess, OrderStatusInShipping, OrderStatusDelivered, OrderStatusRejected:
		return true
	}
	return false
}

// CanTransitionTo checks if the status can transition to the target status
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	switch s {
	case OrderStatusPending:
		return target == OrderStatusConfirmed || target == OrderStatusRejected || target == OrderStatusExpired
	case OrderStatusConfirmed:
		return target == OrderStatusInProcess || target == OrderStatusInShipping ||
			target == OrderStatusDelivered || target == OrderStatusRejected
	case OrderStatusInProcess:
		return target == OrderStatusInShipping || target == OrderStatusDelivered || target == OrderStatusRejected
	case OrderStatusInShipping:
		return target == OrderStatusDelivered || target == OrderStatusRejected
	case OrderStatusDelivered, OrderStatusRejected, OrderStatusExpired:
		return false // Terminal states
	}
	return false
}

// PaymentStatus represents the payment state of an order
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusFailed  PaymentStatus = "failed"
)

// IsValid checks if the status is a valid PaymentStatus
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusFailed:
		return true
	}
	return false
}

// String returns the string representation of PaymentStatus
func (s PaymentStatus) String() string {
	return string(s)
}
