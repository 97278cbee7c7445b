package payments

import (
	"context"
	"time"

	"karigar/db"
	"karigar/models"
	"karigar/orders"

	"go.mongodb.org/mongo-driver/bson"
)

// orderStore is the persistence surface the payment workflow touches.
// A package var like Gateway, so tests can swap in a fake.
type orderStore interface {
	Find(ctx context.Context, orderID string) (*models.Order, error)
	// SetChargeIntent records a gateway order id for an unpaid phase.
	// Returns false when the phase was captured in the meantime.
	SetChargeIntent(ctx context.Context, orderID string, phase models.PaymentPhase, gatewayOrderID string) (bool, error)
	// MarkPaid flips a phase to paid. The write is guarded: it refuses
	// when the phase is already paid or the order was cancelled, and
	// reports which via the bool.
	MarkPaid(ctx context.Context, orderID string, phase models.PaymentPhase, gatewayPaymentID string, at time.Time) (bool, error)
	ApplyEdge(ctx context.Context, orderID string, from, to models.OrderStatus) error
}

var store orderStore = mongoOrderStore{}

type mongoOrderStore struct{}

func (mongoOrderStore) Find(ctx context.Context, orderID string) (*models.Order, error) {
	return orders.FindByID(ctx, orderID)
}

func (mongoOrderStore) SetChargeIntent(ctx context.Context, orderID string, phase models.PaymentPhase, gatewayOrderID string) (bool, error) {
	field := "payments." + string(phase)
	res, err := db.OrdersCollection.UpdateOne(ctx,
		bson.M{"orderid": orderID, field + ".paid": false},
		bson.M{"$set": bson.M{field + ".razorpay_order_id": gatewayOrderID}},
	)
	if err != nil {
		return false, err
	}
	return res.MatchedCount == 1, nil
}

func (mongoOrderStore) MarkPaid(ctx context.Context, orderID string, phase models.PaymentPhase, gatewayPaymentID string, at time.Time) (bool, error) {
	field := "payments." + string(phase)
	res, err := db.OrdersCollection.UpdateOne(ctx,
		bson.M{
			"orderid":       orderID,
			field + ".paid": false,
			"status":        bson.M{"$ne": models.StatusCancelled},
		},
		bson.M{"$set": bson.M{
			field + ".paid":                true,
			field + ".razorpay_payment_id": gatewayPaymentID,
			field + ".verified_at":         at,
		}},
	)
	if err != nil {
		return false, err
	}
	return res.MatchedCount == 1, nil
}

func (mongoOrderStore) ApplyEdge(ctx context.Context, orderID string, from, to models.OrderStatus) error {
	return orders.ApplyPaymentTransition(ctx, orderID, from, to)
}
