package orders

import (
	"testing"

	"karigar/apperr"
	"karigar/models"
)

func testOrder(status models.OrderStatus) *models.Order {
	return &models.Order{
		OrderID:  "ord_test_1",
		BuyerID:  "buyer1",
		SellerID: "seller1",
		Status:   status,
		Payments: models.Payments{
			Initial: models.PaymentRecord{Amount: 400},
			Final:   models.PaymentRecord{Amount: 600},
		},
	}
}

func TestSellerProductionChain(t *testing.T) {
	chain := []models.OrderStatus{
		models.StatusConfirmed,
		models.StatusDesignInProgress,
		models.StatusDesignCompleted,
		models.StatusMeasurementComplete,
		models.StatusFinalPaymentPending,
	}

	order := testOrder(models.StatusConfirmed)
	for _, next := range chain[1:] {
		noop, err := CheckTransition(order, models.RoleSeller, next)
		if err != nil {
			t.Fatalf("seller %s -> %s: unexpected error %v", order.Status, next, err)
		}
		if noop {
			t.Fatalf("seller %s -> %s: unexpected no-op", order.Status, next)
		}
		order.Status = next
	}
}

func TestBuyerCannotDriveProduction(t *testing.T) {
	statuses := []models.OrderStatus{
		models.StatusPending,
		models.StatusConfirmed,
		models.StatusDesignInProgress,
		models.StatusDesignCompleted,
		models.StatusMeasurementComplete,
		models.StatusFinalPaymentPending,
		models.StatusCompleted,
		models.StatusShipped,
	}
	for _, s := range statuses {
		order := testOrder(s)
		// "Not your turn" must be distinguishable from "wrong step"
		// wherever the order currently sits.
		_, err := CheckTransition(order, models.RoleBuyer, models.StatusDesignInProgress)
		if !apperr.IsKind(err, apperr.KindAuthorization) {
			t.Fatalf("buyer from %s: want authorization error, got %v", s, err)
		}
	}
}

func TestCompletionGatedOnFinalPayment(t *testing.T) {
	order := testOrder(models.StatusFinalPaymentPending)

	_, err := CheckTransition(order, models.RoleSeller, models.StatusCompleted)
	if !apperr.IsKind(err, apperr.KindPaymentNotCaptured) {
		t.Fatalf("want PaymentNotCaptured before capture, got %v", err)
	}

	order.Payments.Final.Paid = true
	noop, err := CheckTransition(order, models.RoleSeller, models.StatusCompleted)
	if err != nil || noop {
		t.Fatalf("after capture: noop=%v err=%v", noop, err)
	}
}

func TestCompletionGateFiresFromAnyStatus(t *testing.T) {
	// Even several steps early, an unpaid balance must surface as
	// PaymentNotCaptured rather than a generic wrong-step error.
	for _, s := range []models.OrderStatus{
		models.StatusConfirmed,
		models.StatusDesignInProgress,
		models.StatusMeasurementComplete,
		models.StatusFinalPaymentPending,
	} {
		order := testOrder(s)
		_, err := CheckTransition(order, models.RoleSeller, models.StatusCompleted)
		if !apperr.IsKind(err, apperr.KindPaymentNotCaptured) {
			t.Fatalf("seller %s -> COMPLETED unpaid: want PaymentNotCaptured, got %v", s, err)
		}
	}
}

func TestConfirmationGateOnDeposit(t *testing.T) {
	order := testOrder(models.StatusPending)
	_, err := CheckTransition(order, models.RoleSeller, models.StatusConfirmed)
	if !apperr.IsKind(err, apperr.KindPaymentNotCaptured) {
		t.Fatalf("confirming unpaid order: want PaymentNotCaptured, got %v", err)
	}

	order.Payments.Initial.Paid = true
	noop, err := CheckTransition(order, models.RoleSeller, models.StatusConfirmed)
	if err != nil || noop {
		t.Fatalf("confirming paid order: noop=%v err=%v", noop, err)
	}
}

func TestRepeatedTransitionIsNoop(t *testing.T) {
	order := testOrder(models.StatusDesignInProgress)
	noop, err := CheckTransition(order, models.RoleSeller, models.StatusDesignInProgress)
	if err != nil {
		t.Fatalf("retry of applied transition failed: %v", err)
	}
	if !noop {
		t.Fatal("retry of applied transition should be a no-op")
	}
}

func TestBuyerCancellation(t *testing.T) {
	nonTerminal := []models.OrderStatus{
		models.StatusPending,
		models.StatusConfirmed,
		models.StatusDesignInProgress,
		models.StatusDesignCompleted,
		models.StatusMeasurementComplete,
		models.StatusFinalPaymentPending,
		models.StatusCompleted,
		models.StatusShipped,
	}
	for _, s := range nonTerminal {
		order := testOrder(s)
		if _, err := CheckTransition(order, models.RoleBuyer, models.StatusCancelled); err != nil {
			t.Fatalf("buyer cancel from %s: %v", s, err)
		}
		if _, err := CheckTransition(order, models.RoleSeller, models.StatusCancelled); err == nil {
			t.Fatalf("seller cancelled order from %s", s)
		}
	}
}

func TestTerminalStatesRejectEverything(t *testing.T) {
	type attempt struct {
		role   models.Role
		target models.OrderStatus
	}
	attempts := []attempt{
		{models.RoleSeller, models.StatusConfirmed},
		{models.RoleSeller, models.StatusShipped},
		{models.RoleBuyer, models.StatusDelivered},
	}
	for _, s := range []models.OrderStatus{models.StatusDelivered, models.StatusCancelled} {
		order := testOrder(s)
		for _, a := range attempts {
			if a.target == s {
				continue
			}
			_, err := CheckTransition(order, a.role, a.target)
			if !apperr.IsKind(err, apperr.KindInvalidTransition) {
				t.Fatalf("%s -> %s as %s: want InvalidTransition, got %v", s, a.target, a.role, err)
			}
		}
	}
}

func TestAdjacencyTableRolesMatchPolicy(t *testing.T) {
	for from, edges := range transitions {
		for _, e := range edges {
			if !roleMayTarget(e.role, e.to) {
				t.Fatalf("table edge %s -> %s assigned to %s, policy disagrees", from, e.to, e.role)
			}
		}
	}
}

func TestUnknownStatusRejected(t *testing.T) {
	order := testOrder(models.StatusConfirmed)
	_, err := CheckTransition(order, models.RoleSeller, models.OrderStatus("SHIPPED_MAYBE"))
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("want validation error for unknown status, got %v", err)
	}
}

func TestOutsiderRoleRejected(t *testing.T) {
	order := testOrder(models.StatusConfirmed)
	_, err := CheckTransition(order, models.Role(""), models.StatusDesignInProgress)
	if !apperr.IsKind(err, apperr.KindAuthorization) {
		t.Fatalf("want authorization error for non-party, got %v", err)
	}
}

// Walks the full lifecycle end to end: deposit confirms, seller
// advances, completion blocked until the balance clears, then ship
// and deliver.
func TestLifecycleWalk(t *testing.T) {
	order := testOrder(models.StatusPending)

	step := func(role models.Role, target models.OrderStatus) {
		t.Helper()
		noop, err := CheckTransition(order, role, target)
		if err != nil || noop {
			t.Fatalf("%s -> %s as %s: noop=%v err=%v", order.Status, target, role, noop, err)
		}
		order.Status = target
	}

	// Initial capture drives PENDING -> CONFIRMED internally.
	order.Payments.Initial.Paid = true
	order.Status = models.StatusConfirmed

	step(models.RoleSeller, models.StatusDesignInProgress)
	step(models.RoleSeller, models.StatusDesignCompleted)
	step(models.RoleSeller, models.StatusMeasurementComplete)
	step(models.RoleSeller, models.StatusFinalPaymentPending)

	if _, err := CheckTransition(order, models.RoleSeller, models.StatusCompleted); !apperr.IsKind(err, apperr.KindPaymentNotCaptured) {
		t.Fatalf("premature completion: want PaymentNotCaptured, got %v", err)
	}

	order.Payments.Final.Paid = true
	step(models.RoleSeller, models.StatusCompleted)
	step(models.RoleSeller, models.StatusShipped)
	step(models.RoleBuyer, models.StatusDelivered)

	if _, err := CheckTransition(order, models.RoleBuyer, models.StatusCancelled); !apperr.IsKind(err, apperr.KindInvalidTransition) {
		t.Fatalf("transition out of DELIVERED: want InvalidTransition, got %v", err)
	}
}
