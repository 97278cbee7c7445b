package models

import "time"

// Address is owned by a user. Meetings reference it by id; orders take
// a denormalized copy at creation time.
type Address struct {
	AddressID   string    `bson:"addressid" json:"addressId"`
	UserID      string    `bson:"userid" json:"userId"`
	Label       string    `bson:"label" json:"label"`
	FullAddress string    `bson:"full_address" json:"fullAddress"`
	City        string    `bson:"city" json:"city"`
	State       string    `bson:"state" json:"state"`
	Pincode     string    `bson:"pincode" json:"pincode"`
	Country     string    `bson:"country" json:"country"`
	IsDefault   bool      `bson:"is_default" json:"isDefault"`
	CreatedAt   time.Time `bson:"created_at" json:"createdAt"`
}

// MeetingType is either a home visit or a phone call.
type MeetingType string

const (
	MeetingHomeVisit MeetingType = "HOME_VISIT"
	MeetingPhoneCall MeetingType = "PHONE_CALL"
)

// Meeting is a scheduled measurement session for an order. One per
// order; advisory metadata, gates no transition.
type Meeting struct {
	MeetingID   string      `bson:"meetingid" json:"meetingId"`
	OrderID     string      `bson:"orderid" json:"orderId"`
	Type        MeetingType `bson:"type" json:"type"`
	ScheduledAt time.Time   `bson:"scheduled_at" json:"scheduledAt"`
	AddressID   string      `bson:"addressid,omitempty" json:"addressId,omitempty"`
	Notes       string      `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt   time.Time   `bson:"created_at" json:"createdAt"`
}

// Design is the read-only catalog view the order flow needs: the price
// to snapshot and the seller who owns the design.
type Design struct {
	DesignID string `bson:"designid" json:"designId"`
	SellerID string `bson:"sellerid" json:"sellerId"`
	Name     string `bson:"name" json:"name"`
	Price    int64  `bson:"price" json:"price"` // paise
}

// WebhookEvent is the dedup ledger entry for a processed gateway event.
type WebhookEvent struct {
	EventID     string    `bson:"eventid" json:"eventId"`
	PayloadHash string    `bson:"payload_hash" json:"payloadHash"`
	ReceivedAt  time.Time `bson:"received_at" json:"receivedAt"`
}
