package domain

import "fmt"

// OrderStatus is the fulfillment axis of an order. Codes are stable wire
// values; lookups go through the code table, never through names.
type OrderStatus int

const (
	OrderPendingPayment  OrderStatus = 1
	OrderPaid            OrderStatus = 2
	OrderPendingShipment OrderStatus = 3
	OrderShipped         OrderStatus = 4
	OrderCompleted       OrderStatus = 5
	OrderCancelled       OrderStatus = 6
)

var orderStatusNames = map[OrderStatus]string{
	OrderPendingPayment:  "PENDING_PAYMENT",
	OrderPaid:            "PAID",
	OrderPendingShipment: "PENDING_SHIPMENT",
	OrderShipped:         "SHIPPED",
	OrderCompleted:       "COMPLETED",
	OrderCancelled:       "CANCELLED",
}

// OrderStatusFromCode resolves a numeric status code.
func OrderStatusFromCode(code int) (OrderStatus, error) {
	s := OrderStatus(code)
	if _, ok := orderStatusNames[s]; !ok {
		return 0, fmt.Errorf("unknown order status code %d", code)
	}
	return s, nil
}

func (s OrderStatus) String() string {
	if name, ok := orderStatusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("OrderStatus(%d)", int(s))
}

// Terminal reports whether no further transition is allowed from s.
func (s OrderStatus) Terminal() bool {
	return s == OrderCompleted || s == OrderCancelled
}

// orderTransitions is the one-directional transition table. Cancellation is
// listed explicitly: shipped and terminal orders cannot be cancelled.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderPendingPayment:  {OrderPaid, OrderPendingShipment, OrderCancelled},
	OrderPaid:            {OrderPendingShipment, OrderCancelled},
	OrderPendingShipment: {OrderShipped, OrderCancelled},
	OrderShipped:         {OrderCompleted},
}

// CanTransitionTo reports whether s may move to next.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// PayStatus is the payment axis, orthogonal to OrderStatus.
type PayStatus int

const (
	PayPending PayStatus = 1
	PayPaying  PayStatus = 2
	PayPaid    PayStatus = 3
	PayFailed  PayStatus = 4
)

var payStatusNames = map[PayStatus]string{
	PayPending: "PENDING",
	PayPaying:  "PAYING",
	PayPaid:    "PAID",
	PayFailed:  "PAYMENT_FAILED",
}

// PayStatusFromCode resolves a numeric pay status code.
func PayStatusFromCode(code int) (PayStatus, error) {
	s := PayStatus(code)
	if _, ok := payStatusNames[s]; !ok {
		return 0, fmt.Errorf("unknown pay status code %d", code)
	}
	return s, nil
}

func (s PayStatus) String() string {
	if name, ok := payStatusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("PayStatus(%d)", int(s))
}

// SamplingStatus is the sample-collection axis.
type SamplingStatus int

const (
	SamplingAwaiting       SamplingStatus = 1
	SamplingAppointmentSet SamplingStatus = 2
	SamplingSampled        SamplingStatus = 3
	SamplingShipped        SamplingStatus = 4
)

var samplingStatusNames = map[SamplingStatus]string{
	SamplingAwaiting:       "AWAITING_SAMPLE",
	SamplingAppointmentSet: "APPOINTMENT_SET",
	SamplingSampled:        "SAMPLED",
	SamplingShipped:        "SHIPPED",
}

// SamplingStatusFromCode resolves a numeric sampling status code.
func SamplingStatusFromCode(code int) (SamplingStatus, error) {
	s := SamplingStatus(code)
	if _, ok := samplingStatusNames[s]; !ok {
		return 0, fmt.Errorf("unknown sampling status code %d", code)
	}
	return s, nil
}

func (s SamplingStatus) String() string {
	if name, ok := samplingStatusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("SamplingStatus(%d)", int(s))
}

// Next returns the sampling status following s; sampling advances strictly
// one step at a time.
func (s SamplingStatus) Next() (SamplingStatus, bool) {
	if s >= SamplingAwaiting && s < SamplingShipped {
		return s + 1, true
	}
	return 0, false
}

// SamplingMethod distinguishes self-collected-and-mailed samples from
// at-home pickup by staff.
type SamplingMethod int

const (
	SamplingSelf   SamplingMethod = 1
	SamplingPickup SamplingMethod = 2
)

// SamplingMethodFromCode resolves a numeric sampling method code.
func SamplingMethodFromCode(code int) (SamplingMethod, error) {
	if m := SamplingMethod(code); m == SamplingSelf || m == SamplingPickup {
		return m, nil
	}
	return 0, fmt.Errorf("unknown sampling method code %d", code)
}

func (m SamplingMethod) String() string {
	switch m {
	case SamplingSelf:
		return "SELF"
	case SamplingPickup:
		return "PICKUP"
	}
	return fmt.Sprintf("SamplingMethod(%d)", int(m))
}
