package payments

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"karigar/apperr"
	"karigar/db"
	"karigar/models"
	"karigar/razorpay"
	"karigar/utils"

	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// webhookPayload is the slice of the Razorpay event envelope we need.
type webhookPayload struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity struct {
				ID      string `json:"id"`
				OrderID string `json:"order_id"`
				Status  string `json:"status"`
			} `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

// Webhook is the asynchronous gateway entry point. It may arrive
// before, after, or instead of the client callback; either order is
// safe because both funnel into the same idempotent capture.
// POST /api/payments/webhook
func Webhook(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx := r.Context()

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		utils.RespondWithAppError(w, apperr.Validation("failed to read webhook body"))
		return
	}
	r.Body = io.NopCloser(bytes.NewReader(body))

	signature := r.Header.Get("X-Razorpay-Signature")
	if !razorpay.VerifyWebhookSignature(body, signature, os.Getenv("RAZORPAY_WEBHOOK_SECRET")) {
		utils.RespondWithAppError(w, apperr.SignatureInvalid("webhook signature mismatch"))
		return
	}

	eventID := r.Header.Get("X-Razorpay-Event-Id")
	if eventID == "" {
		eventID = uuid.NewString()
	}

	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		utils.RespondWithAppError(w, apperr.Validation("malformed webhook payload"))
		return
	}
	if payload.Event != "payment.captured" {
		// Not ours; acknowledge so the gateway stops redelivering.
		utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "ignored": payload.Event})
		return
	}

	hash := sha256.Sum256(body)
	_, err = db.WebhookEventsCollection.InsertOne(ctx, models.WebhookEvent{
		EventID:     eventID,
		PayloadHash: hex.EncodeToString(hash[:]),
		ReceivedAt:  time.Now().UTC(),
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			// Replay of a processed delivery.
			utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "duplicate": true})
			return
		}
		log.Printf("Webhook: ledger insert failed for event %s: %v", eventID, err)
		// fall through; capture itself is idempotent
	}

	gatewayOrderID := payload.Payload.Payment.Entity.OrderID
	gatewayPaymentID := payload.Payload.Payment.Entity.ID

	order, phase, err := findByGatewayOrder(ctx, gatewayOrderID)
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}

	if _, err := capture(ctx, order, phase, gatewayPaymentID); err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true})
}

// findByGatewayOrder maps a gateway order id back to the local order
// and the phase it charges.
func findByGatewayOrder(ctx context.Context, gatewayOrderID string) (*models.Order, models.PaymentPhase, error) {
	if gatewayOrderID == "" {
		return nil, "", apperr.Validation("webhook payload has no order id")
	}
	var order models.Order
	err := db.OrdersCollection.FindOne(ctx, bson.M{"$or": []bson.M{
		{"payments.initial.razorpay_order_id": gatewayOrderID},
		{"payments.final.razorpay_order_id": gatewayOrderID},
	}}).Decode(&order)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, "", apperr.NotFound("no order matches gateway order " + gatewayOrderID)
		}
		return nil, "", apperr.Internal("failed to resolve webhook order")
	}
	if order.Payments.Final.RazorpayOrderID == gatewayOrderID {
		return &order, models.PhaseFinal, nil
	}
	return &order, models.PhaseInitial, nil
}
