package models

import "testing"

func TestRoleOf(t *testing.T) {
	order := Order{BuyerID: "b1", SellerID: "s1"}

	if got := order.RoleOf("b1"); got != RoleBuyer {
		t.Fatalf("buyer resolved to %q", got)
	}
	if got := order.RoleOf("s1"); got != RoleSeller {
		t.Fatalf("seller resolved to %q", got)
	}
	if got := order.RoleOf("someone"); got != "" {
		t.Fatalf("outsider resolved to %q", got)
	}
}

func TestPaymentFor(t *testing.T) {
	order := Order{Payments: Payments{
		Initial: PaymentRecord{Amount: 400},
		Final:   PaymentRecord{Amount: 600},
	}}

	if order.PaymentFor(PhaseInitial).Amount != 400 {
		t.Fatal("initial record not returned for initial phase")
	}
	if order.PaymentFor(PhaseFinal).Amount != 600 {
		t.Fatal("final record not returned for final phase")
	}

	// Mutations through the pointer must land on the order.
	order.PaymentFor(PhaseFinal).Paid = true
	if !order.Payments.Final.Paid {
		t.Fatal("PaymentFor returned a copy")
	}
}

func TestIsTerminal(t *testing.T) {
	for _, s := range []OrderStatus{StatusDelivered, StatusCancelled} {
		if !s.IsTerminal() {
			t.Fatalf("%s should be terminal", s)
		}
	}
	for _, s := range []OrderStatus{StatusPending, StatusConfirmed, StatusShipped, StatusCompleted} {
		if s.IsTerminal() {
			t.Fatalf("%s should not be terminal", s)
		}
	}
}
