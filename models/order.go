package models

import (
	"time"
)

// OrderStatus is the closed set of lifecycle states an order moves through.
type OrderStatus string

const (
	StatusPending             OrderStatus = "PENDING"
	StatusConfirmed           OrderStatus = "CONFIRMED"
	StatusDesignInProgress    OrderStatus = "DESIGN_IN_PROGRESS"
	StatusDesignCompleted     OrderStatus = "DESIGN_COMPLETED"
	StatusMeasurementComplete OrderStatus = "MEASUREMENT_COMPLETED"
	StatusFinalPaymentPending OrderStatus = "FINAL_PAYMENT_PENDING"
	StatusCompleted           OrderStatus = "COMPLETED"
	StatusShipped             OrderStatus = "SHIPPED"
	StatusDelivered           OrderStatus = "DELIVERED"
	StatusCancelled           OrderStatus = "CANCELLED"
)

// Role identifies which side of the order an actor is on.
type Role string

const (
	RoleBuyer  Role = "buyer"
	RoleSeller Role = "seller"
	// RoleSystem marks transitions applied by payment verification, not
	// by either party through the status endpoint.
	RoleSystem Role = "system"
)

// PaymentPhase names the two halves of the split payment.
type PaymentPhase string

const (
	PhaseInitial PaymentPhase = "initial"
	PhaseFinal   PaymentPhase = "final"
)

// OrderItem is a line item with name and price snapshotted at creation,
// so later catalog edits never change a placed order.
type OrderItem struct {
	DesignID  string `bson:"designid" json:"designId"`
	Name      string `bson:"name" json:"name"`
	Quantity  int    `bson:"quantity" json:"quantity"`
	UnitPrice int64  `bson:"unitprice" json:"unitPrice"` // paise
}

// Totals is computed once at order creation and immutable afterwards.
type Totals struct {
	Subtotal int64 `bson:"subtotal" json:"subtotal"`
	Tax      int64 `bson:"tax" json:"tax"`
	Shipping int64 `bson:"shipping" json:"shipping"`
	Total    int64 `bson:"total" json:"total"`
}

// PaymentRecord tracks one phase of the split payment.
// Invariant: Paid flips false->true at most once and is never reset.
type PaymentRecord struct {
	Amount            int64      `bson:"amount" json:"amount"` // paise
	RazorpayOrderID   string     `bson:"razorpay_order_id,omitempty" json:"razorpayOrderId,omitempty"`
	RazorpayPaymentID string     `bson:"razorpay_payment_id,omitempty" json:"razorpayPaymentId,omitempty"`
	Paid              bool       `bson:"paid" json:"paid"`
	VerifiedAt        *time.Time `bson:"verified_at,omitempty" json:"verifiedAt,omitempty"`
	DueDate           *time.Time `bson:"due_date,omitempty" json:"dueDate,omitempty"` // final phase only
}

// Payments holds both phase records of an order.
type Payments struct {
	Initial PaymentRecord `bson:"initial" json:"initial"`
	Final   PaymentRecord `bson:"final" json:"final"`
}

// StatusChange is one entry of the append-only status history.
type StatusChange struct {
	From    OrderStatus `bson:"from" json:"from"`
	To      OrderStatus `bson:"to" json:"to"`
	ActorID string      `bson:"actorid" json:"actorId"`
	Role    Role        `bson:"role" json:"role"`
	At      time.Time   `bson:"at" json:"at"`
}

// Order is the aggregate: identity, snapshotted items and totals, the
// two payment records, lifecycle status and its history.
type Order struct {
	OrderID         string         `bson:"orderid" json:"orderId"`
	BuyerID         string         `bson:"buyerid" json:"buyerId"`
	SellerID        string         `bson:"sellerid" json:"sellerId"`
	Items           []OrderItem    `bson:"items" json:"items"`
	Totals          Totals         `bson:"totals" json:"totals"`
	Status          OrderStatus    `bson:"status" json:"status"`
	History         []StatusChange `bson:"history" json:"history"`
	ShippingAddress Address        `bson:"shipping_address" json:"shippingAddress"`
	Payments        Payments       `bson:"payments" json:"payments"`
	MeetingID       string         `bson:"meetingid,omitempty" json:"meetingId,omitempty"`
	Currency        string         `bson:"currency" json:"currency"`
	CreatedAt       time.Time      `bson:"created_at" json:"createdAt"`
}

// PaymentFor returns the record for a phase.
func (o *Order) PaymentFor(phase PaymentPhase) *PaymentRecord {
	if phase == PhaseFinal {
		return &o.Payments.Final
	}
	return &o.Payments.Initial
}

// RoleOf resolves a user id to its role on this order, empty when the
// user is neither party.
func (o *Order) RoleOf(userID string) Role {
	switch userID {
	case o.BuyerID:
		return RoleBuyer
	case o.SellerID:
		return RoleSeller
	}
	return ""
}

// IsTerminal reports whether no further transition can leave s.
func (s OrderStatus) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}
