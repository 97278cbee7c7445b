package orders

import (
	"context"
	"time"

	"karigar/apperr"
	"karigar/db"
	"karigar/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// edge is one legal transition out of a status, with the role allowed
// to drive it.
type edge struct {
	to   models.OrderStatus
	role models.Role
}

// transitions is the fixed adjacency table. Production edges belong to
// the seller; the buyer only confirms receipt or cancels. CANCELLED is
// reachable from every non-terminal state and is added in edgesFrom.
var transitions = map[models.OrderStatus][]edge{
	models.StatusPending:             {{models.StatusConfirmed, models.RoleSeller}},
	models.StatusConfirmed:           {{models.StatusDesignInProgress, models.RoleSeller}},
	models.StatusDesignInProgress:    {{models.StatusDesignCompleted, models.RoleSeller}},
	models.StatusDesignCompleted:     {{models.StatusMeasurementComplete, models.RoleSeller}},
	models.StatusMeasurementComplete: {{models.StatusFinalPaymentPending, models.RoleSeller}},
	models.StatusFinalPaymentPending: {{models.StatusCompleted, models.RoleSeller}},
	models.StatusCompleted:           {{models.StatusShipped, models.RoleSeller}},
	models.StatusShipped:             {{models.StatusDelivered, models.RoleBuyer}},
	models.StatusDelivered:           {},
	models.StatusCancelled:           {},
}

func edgesFrom(s models.OrderStatus) []edge {
	out, ok := transitions[s]
	if !ok {
		return nil
	}
	if s.IsTerminal() {
		return out
	}
	return append(append([]edge{}, out...), edge{models.StatusCancelled, models.RoleBuyer})
}

// ValidStatus reports whether s is a member of the closed status set.
func ValidStatus(s models.OrderStatus) bool {
	_, ok := transitions[s]
	return ok
}

// roleMayTarget is the role half of edge legality: the buyer only ever
// confirms receipt or cancels, every other target belongs to the
// seller. Checked before adjacency so a buyer poking at a production
// status gets "not your turn", not "wrong step", regardless of where
// the order currently sits.
func roleMayTarget(role models.Role, target models.OrderStatus) bool {
	if target == models.StatusDelivered || target == models.StatusCancelled {
		return role == models.RoleBuyer
	}
	return role == models.RoleSeller
}

// CheckTransition validates one edge against the adjacency table, the
// actor's role, and the final-payment gate. A request that targets the
// order's current status over a legal edge is reported as a no-op so
// client retries succeed without reapplying anything.
func CheckTransition(order *models.Order, role models.Role, target models.OrderStatus) (noop bool, err error) {
	if !ValidStatus(target) {
		return false, apperr.Validation("unknown status " + string(target))
	}
	if role != models.RoleBuyer && role != models.RoleSeller {
		return false, apperr.Authorization("actor is not a party to this order")
	}
	if !roleMayTarget(role, target) {
		return false, apperr.Authorization(string(role) + " may not move order to " + string(target))
	}

	// Retry of an already-applied transition.
	if order.Status == target {
		return true, nil
	}

	if order.Status.IsTerminal() {
		return false, apperr.InvalidTransition("order is " + string(order.Status) + " and cannot change")
	}

	// Payment-gated targets fail with PaymentNotCaptured before the
	// adjacency check, so "step right but unpaid" and "right step too
	// early" both point the caller at the missing payment.
	if target == models.StatusCompleted && !order.Payments.Final.Paid {
		return false, apperr.PaymentNotCaptured("final payment has not been captured")
	}
	if target == models.StatusConfirmed && !order.Payments.Initial.Paid {
		return false, apperr.PaymentNotCaptured("initial payment has not been captured")
	}

	found := false
	for _, e := range edgesFrom(order.Status) {
		if e.to == target {
			found = true
			break
		}
	}
	if !found {
		return false, apperr.InvalidTransition(string(order.Status) + " cannot move to " + string(target))
	}
	return false, nil
}

// ApplyTransition validates and persists one transition. The update is
// conditional on the current status, so concurrent writers to the same
// order serialize: the loser re-reads and either no-ops (already at
// target) or fails validation against the new state. Only status and
// history are touched.
func ApplyTransition(ctx context.Context, order *models.Order, actorID string, role models.Role, target models.OrderStatus) (*models.Order, error) {
	for {
		noop, err := CheckTransition(order, role, target)
		if err != nil {
			return nil, err
		}
		if noop {
			return order, nil
		}

		change := models.StatusChange{
			From:    order.Status,
			To:      target,
			ActorID: actorID,
			Role:    role,
			At:      time.Now().UTC(),
		}
		res, err := db.OrdersCollection.UpdateOne(ctx,
			bson.M{"orderid": order.OrderID, "status": order.Status},
			bson.M{
				"$set":  bson.M{"status": target},
				"$push": bson.M{"history": change},
			},
		)
		if err != nil {
			return nil, apperr.Internal("failed to update order status")
		}
		if res.MatchedCount == 1 {
			order.Status = target
			order.History = append(order.History, change)
			return order, nil
		}

		// Lost the race: reload and re-validate against the fresh state.
		fresh, err := FindByID(ctx, order.OrderID)
		if err != nil {
			return nil, err
		}
		order = fresh
	}
}

// ApplyPaymentTransition moves an order across one of the two edges
// that payment verification owns (PENDING->CONFIRMED and
// FINAL_PAYMENT_PENDING->COMPLETED). It bypasses role gating: the
// capture itself is the authorization. Already-advanced orders are a
// no-op, matching the idempotent verification contract.
func ApplyPaymentTransition(ctx context.Context, orderID string, from, to models.OrderStatus) error {
	change := models.StatusChange{
		From:    from,
		To:      to,
		ActorID: "payment-gateway",
		Role:    models.RoleSystem,
		At:      time.Now().UTC(),
	}
	res, err := db.OrdersCollection.UpdateOne(ctx,
		bson.M{"orderid": orderID, "status": from},
		bson.M{
			"$set":  bson.M{"status": to},
			"$push": bson.M{"history": change},
		},
	)
	if err != nil {
		return apperr.Internal("failed to update order status")
	}
	if res.MatchedCount == 1 {
		return nil
	}

	// The filter missed, so the order is no longer in `from`: either this
	// edge already applied (duplicate verification) or the order moved on
	// through later transitions. Both are fine for an idempotent caller;
	// a cancellation that slipped in is surfaced, since completing or
	// confirming a cancelled order must not look successful.
	fresh, err := FindByID(ctx, orderID)
	if err != nil {
		return err
	}
	if fresh.Status == models.StatusCancelled {
		return apperr.InvalidTransition("order was cancelled")
	}
	return nil
}

// FindByID loads one order document.
func FindByID(ctx context.Context, orderID string) (*models.Order, error) {
	var order models.Order
	if err := db.OrdersCollection.FindOne(ctx, bson.M{"orderid": orderID}).Decode(&order); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperr.NotFound("order not found")
		}
		return nil, apperr.Internal("failed to load order")
	}
	return &order, nil
}
