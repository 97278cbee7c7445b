package payments

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"karigar/apperr"
	"karigar/models"
	"karigar/razorpay"
)

// fakeOrderStore keeps orders in memory and counts guarded writes, so
// the capture-once invariant is observable.
type fakeOrderStore struct {
	orders        map[string]*models.Order
	markPaidCalls int
}

func (f *fakeOrderStore) Find(_ context.Context, orderID string) (*models.Order, error) {
	o, ok := f.orders[orderID]
	if !ok {
		return nil, apperr.NotFound("order not found")
	}
	cp := *o
	return &cp, nil
}

func (f *fakeOrderStore) SetChargeIntent(_ context.Context, orderID string, phase models.PaymentPhase, gatewayOrderID string) (bool, error) {
	o := f.orders[orderID]
	rec := o.PaymentFor(phase)
	if rec.Paid {
		return false, nil
	}
	rec.RazorpayOrderID = gatewayOrderID
	return true, nil
}

func (f *fakeOrderStore) MarkPaid(_ context.Context, orderID string, phase models.PaymentPhase, gatewayPaymentID string, at time.Time) (bool, error) {
	f.markPaidCalls++
	o := f.orders[orderID]
	rec := o.PaymentFor(phase)
	if rec.Paid || o.Status == models.StatusCancelled {
		return false, nil
	}
	rec.Paid = true
	rec.RazorpayPaymentID = gatewayPaymentID
	t := at
	rec.VerifiedAt = &t
	return true, nil
}

func (f *fakeOrderStore) ApplyEdge(_ context.Context, orderID string, from, to models.OrderStatus) error {
	o := f.orders[orderID]
	if o.Status == from {
		o.Status = to
		return nil
	}
	if o.Status == models.StatusCancelled {
		return apperr.InvalidTransition("order was cancelled")
	}
	return nil
}

func swapStore(t *testing.T, fs *fakeOrderStore) {
	t.Helper()
	old := store
	store = fs
	t.Cleanup(func() { store = old })
}

func swapGateway(t *testing.T, gw *razorpay.Client) {
	t.Helper()
	old := Gateway
	Gateway = gw
	t.Cleanup(func() { Gateway = old })
}

func sign(message, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(message))
	return hex.EncodeToString(mac.Sum(nil))
}

func pendingOrder() *models.Order {
	return &models.Order{
		OrderID:  "ord_wf_1",
		BuyerID:  "buyer1",
		SellerID: "seller1",
		Status:   models.StatusPending,
		Currency: "INR",
		Payments: models.Payments{
			Initial: models.PaymentRecord{Amount: 400, RazorpayOrderID: "order_rzp_init"},
			Final:   models.PaymentRecord{Amount: 600},
		},
	}
}

func TestVerifyChargeCapturesOnce(t *testing.T) {
	fs := &fakeOrderStore{orders: map[string]*models.Order{"ord_wf_1": pendingOrder()}}
	swapStore(t, fs)
	swapGateway(t, &razorpay.Client{KeyID: "rzp_test", KeySecret: "test_secret"})

	sig := sign("order_rzp_init|pay_1", "test_secret")

	updated, err := VerifyCharge(context.Background(), "ord_wf_1", models.PhaseInitial, "pay_1", sig)
	if err != nil {
		t.Fatalf("first verification failed: %v", err)
	}
	if updated.Status != models.StatusConfirmed {
		t.Fatalf("after capture: status=%s, want CONFIRMED", updated.Status)
	}
	rec := fs.orders["ord_wf_1"].PaymentFor(models.PhaseInitial)
	if !rec.Paid || rec.RazorpayPaymentID != "pay_1" || rec.VerifiedAt == nil {
		t.Fatalf("capture not recorded: %+v", rec)
	}
	firstVerifiedAt := *rec.VerifiedAt

	// A duplicate callback (or the webhook arriving second) succeeds
	// without re-processing anything.
	again, err := VerifyCharge(context.Background(), "ord_wf_1", models.PhaseInitial, "pay_1", sig)
	if err != nil {
		t.Fatalf("duplicate verification failed: %v", err)
	}
	if again.Status != models.StatusConfirmed {
		t.Fatalf("duplicate verification moved order to %s", again.Status)
	}
	if fs.markPaidCalls != 1 {
		t.Fatalf("paid flag written %d times, want exactly once", fs.markPaidCalls)
	}
	if !rec.VerifiedAt.Equal(firstVerifiedAt) {
		t.Fatal("duplicate verification rewrote verified_at")
	}
}

func TestVerifyChargeBadSignatureLeavesStateUntouched(t *testing.T) {
	fs := &fakeOrderStore{orders: map[string]*models.Order{"ord_wf_1": pendingOrder()}}
	swapStore(t, fs)
	swapGateway(t, &razorpay.Client{KeyID: "rzp_test", KeySecret: "test_secret"})

	badSig := sign("order_rzp_init|pay_1", "wrong_secret")
	_, err := VerifyCharge(context.Background(), "ord_wf_1", models.PhaseInitial, "pay_1", badSig)
	if !apperr.IsKind(err, apperr.KindSignatureInvalid) {
		t.Fatalf("want SignatureInvalid, got %v", err)
	}

	o := fs.orders["ord_wf_1"]
	if o.Status != models.StatusPending || o.Payments.Initial.Paid || fs.markPaidCalls != 0 {
		t.Fatalf("rejected signature mutated state: status=%s paid=%v writes=%d",
			o.Status, o.Payments.Initial.Paid, fs.markPaidCalls)
	}
}

func TestVerifyChargeCancelledOrderNotMutated(t *testing.T) {
	order := pendingOrder()
	order.Status = models.StatusCancelled
	fs := &fakeOrderStore{orders: map[string]*models.Order{"ord_wf_1": order}}
	swapStore(t, fs)
	swapGateway(t, &razorpay.Client{KeyID: "rzp_test", KeySecret: "test_secret"})

	sig := sign("order_rzp_init|pay_1", "test_secret")
	_, err := VerifyCharge(context.Background(), "ord_wf_1", models.PhaseInitial, "pay_1", sig)
	if !apperr.IsKind(err, apperr.KindInvalidTransition) {
		t.Fatalf("want InvalidTransition for cancelled order, got %v", err)
	}

	rec := fs.orders["ord_wf_1"].PaymentFor(models.PhaseInitial)
	if rec.Paid || rec.VerifiedAt != nil || rec.RazorpayPaymentID != "" {
		t.Fatalf("cancelled order was mutated: %+v", rec)
	}
}

func TestVerifyChargeRaceLoserSucceedsWithoutWriting(t *testing.T) {
	// The caller read the order before a concurrent verifier captured it:
	// its guarded write refuses, and it must still report success.
	fs := &fakeOrderStore{orders: map[string]*models.Order{"ord_wf_1": pendingOrder()}}
	swapStore(t, fs)
	swapGateway(t, &razorpay.Client{KeyID: "rzp_test", KeySecret: "test_secret"})

	stale, err := store.Find(context.Background(), "ord_wf_1")
	if err != nil {
		t.Fatal(err)
	}
	winner := fs.orders["ord_wf_1"].PaymentFor(models.PhaseInitial)
	winner.Paid = true
	winner.RazorpayPaymentID = "pay_winner"
	now := time.Now().UTC()
	winner.VerifiedAt = &now
	fs.orders["ord_wf_1"].Status = models.StatusConfirmed

	updated, err := capture(context.Background(), stale, models.PhaseInitial, "pay_loser")
	if err != nil {
		t.Fatalf("race loser errored: %v", err)
	}
	if updated.Status != models.StatusConfirmed {
		t.Fatalf("race loser saw status %s", updated.Status)
	}
	if winner.RazorpayPaymentID != "pay_winner" {
		t.Fatal("race loser overwrote the winner's payment id")
	}
}

func gatewayStub(t *testing.T, orderID string) *razorpay.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"id":%q,"amount":600,"currency":"INR","status":"created"}`, orderID)
	}))
	t.Cleanup(srv.Close)
	return &razorpay.Client{
		KeyID:      "rzp_test",
		KeySecret:  "test_secret",
		BaseURL:    srv.URL,
		HTTPClient: srv.Client(),
	}
}

func TestInitiateFinalChargeTooEarly(t *testing.T) {
	order := pendingOrder()
	order.Status = models.StatusDesignInProgress
	_, err := InitiateFinalCharge(context.Background(), order)
	if !apperr.IsKind(err, apperr.KindPhaseNotEligible) {
		t.Fatalf("want PhaseNotEligible before FINAL_PAYMENT_PENDING, got %v", err)
	}
}

func TestInitiateFinalChargeRefusedAfterConcurrentCapture(t *testing.T) {
	// The handler loaded the order while the balance was still unpaid,
	// then a webhook captured it. The fresh gateway intent must not come
	// back as payable.
	order := pendingOrder()
	order.Status = models.StatusFinalPaymentPending
	captured := *order
	captured.Status = models.StatusCompleted
	captured.Payments.Final.Paid = true

	fs := &fakeOrderStore{orders: map[string]*models.Order{"ord_wf_1": &captured}}
	swapStore(t, fs)
	swapGateway(t, gatewayStub(t, "order_rzp_final"))

	_, err := InitiateFinalCharge(context.Background(), order)
	if !apperr.IsKind(err, apperr.KindPhaseNotEligible) {
		t.Fatalf("want PhaseNotEligible after concurrent capture, got %v", err)
	}
	if fs.orders["ord_wf_1"].Payments.Final.RazorpayOrderID != "" {
		t.Fatal("stale intent overwrote a captured phase")
	}
}
