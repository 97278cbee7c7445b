package payments

import (
	"context"
	"log"
	"time"

	"karigar/apperr"
	"karigar/models"
	"karigar/razorpay"
	"karigar/rdx"
)

// Gateway is the single Razorpay client; tests swap it out.
var Gateway = razorpay.NewClient()

const verifyLockTTL = 10 * time.Second

// InitiateFinalCharge creates the gateway-side order for the balance.
// Only legal once production has reached FINAL_PAYMENT_PENDING, so a
// buyer cannot prepay the balance early.
func InitiateFinalCharge(ctx context.Context, order *models.Order) (*razorpay.OrderResponse, error) {
	if order.Status != models.StatusFinalPaymentPending {
		return nil, apperr.PhaseNotEligible("final payment opens when the order reaches FINAL_PAYMENT_PENDING")
	}
	if order.Payments.Final.Paid {
		return nil, apperr.PhaseNotEligible("final payment already captured")
	}

	gw, err := Gateway.CreateOrder(ctx, order.Payments.Final.Amount, order.Currency, order.OrderID)
	if err != nil {
		log.Printf("InitiateFinalCharge: gateway error for %s: %v", order.OrderID, err)
		return nil, apperr.Internal("payment gateway unavailable")
	}

	// A stale unverified intent is simply replaced; Paid is never touched
	// here. The guarded write refusing means the balance was captured
	// between the load above and now, and the fresh intent must not be
	// handed out as payable.
	ok, err := store.SetChargeIntent(ctx, order.OrderID, models.PhaseFinal, gw.ID)
	if err != nil {
		return nil, apperr.Internal("failed to store charge intent")
	}
	if !ok {
		return nil, apperr.PhaseNotEligible("final payment already captured")
	}
	return gw, nil
}

// VerifyCharge is the single verification funnel for both phases and
// both entry points (client callback and gateway webhook). It is
// idempotent: once a phase is paid, re-verification succeeds without
// re-processing, and exactly one caller ever flips the paid flag.
func VerifyCharge(ctx context.Context, orderID string, phase models.PaymentPhase, gatewayPaymentID, signature string) (*models.Order, error) {
	order, err := store.Find(ctx, orderID)
	if err != nil {
		return nil, err
	}

	rec := order.PaymentFor(phase)
	if rec.RazorpayOrderID == "" {
		return nil, apperr.Validation("no charge was initiated for the " + string(phase) + " phase")
	}

	// The expected signature is recomputed from the STORED gateway order
	// id, so a client cannot verify against an intent it invented.
	if !razorpay.VerifyPaymentSignature(rec.RazorpayOrderID, gatewayPaymentID, signature, Gateway.KeySecret) {
		return nil, apperr.SignatureInvalid("payment signature mismatch")
	}

	return capture(ctx, order, phase, gatewayPaymentID)
}

// capture flips the paid flag at most once and applies the phase's
// state-machine edge. Shared by signature-verified client callbacks and
// webhook deliveries (each entry point authenticates its own way before
// landing here). A cancelled order is never mutated: the capture stays
// at the gateway, unrecorded, awaiting a refund.
func capture(ctx context.Context, order *models.Order, phase models.PaymentPhase, gatewayPaymentID string) (*models.Order, error) {
	orderID := order.OrderID

	if order.PaymentFor(phase).Paid {
		return settled(ctx, order, phase)
	}
	if order.Status == models.StatusCancelled {
		log.Printf("capture: payment %s arrived for cancelled order %s; not recording", gatewayPaymentID, orderID)
		return nil, apperr.InvalidTransition("order was cancelled")
	}

	// Best-effort serialization per (order, phase); the guarded write
	// below is the correctness backstop.
	lockKey := "payverify:" + orderID + ":" + string(phase)
	if ok, err := rdx.AcquireLock(ctx, lockKey, verifyLockTTL); err == nil && ok {
		defer rdx.ReleaseLock(ctx, lockKey)
	}

	ok, err := store.MarkPaid(ctx, orderID, phase, gatewayPaymentID, time.Now().UTC())
	if err != nil {
		return nil, apperr.Internal("failed to record payment capture")
	}
	if !ok {
		// The guarded write refused: either a concurrent verifier won, or
		// a cancellation slipped in between the load above and the write.
		fresh, err := store.Find(ctx, orderID)
		if err != nil {
			return nil, err
		}
		if !fresh.PaymentFor(phase).Paid {
			log.Printf("capture: payment %s arrived for cancelled order %s; not recording", gatewayPaymentID, orderID)
			return nil, apperr.InvalidTransition("order was cancelled")
		}
		return settled(ctx, fresh, phase)
	}

	if err := applyPhaseTransition(ctx, orderID, phase); err != nil {
		return nil, err
	}
	return store.Find(ctx, orderID)
}

// settled finishes a capture whose paid flag is already set (webhook
// after callback, or a client retry). If the winner crashed between
// flipping the flag and moving the order, finish its transition;
// otherwise change nothing.
func settled(ctx context.Context, order *models.Order, phase models.PaymentPhase) (*models.Order, error) {
	if order.Status == phaseSource(phase) {
		if err := applyPhaseTransition(ctx, order.OrderID, phase); err != nil {
			return nil, err
		}
		return store.Find(ctx, order.OrderID)
	}
	return order, nil
}

// phaseSource is the status a phase's capture transitions away from.
func phaseSource(phase models.PaymentPhase) models.OrderStatus {
	if phase == models.PhaseFinal {
		return models.StatusFinalPaymentPending
	}
	return models.StatusPending
}

// applyPhaseTransition drives the state-machine edge owned by a
// payment phase. No-op when the order already moved on.
func applyPhaseTransition(ctx context.Context, orderID string, phase models.PaymentPhase) error {
	if phase == models.PhaseFinal {
		return store.ApplyEdge(ctx, orderID, models.StatusFinalPaymentPending, models.StatusCompleted)
	}
	return store.ApplyEdge(ctx, orderID, models.StatusPending, models.StatusConfirmed)
}
