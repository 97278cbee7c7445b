package payments

import (
	"encoding/json"
	"net/http"

	"karigar/apperr"
	"karigar/models"
	"karigar/orders"
	"karigar/utils"

	"github.com/julienschmidt/httprouter"
)

type verifyRequest struct {
	OrderID           string `json:"orderId"`
	RazorpayOrderID   string `json:"razorpayOrderId"`
	RazorpayPaymentID string `json:"razorpayPaymentId"`
	RazorpaySignature string `json:"razorpaySignature"`
}

// VerifyInitial is the client-callback entry point for the deposit.
// POST /api/payments/verify
func VerifyInitial(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	verifyHandler(w, r, models.PhaseInitial)
}

// VerifyFinal is the client-callback entry point for the balance.
// POST /api/payments/final/verify
func VerifyFinal(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	verifyHandler(w, r, models.PhaseFinal)
}

func verifyHandler(w http.ResponseWriter, r *http.Request, phase models.PaymentPhase) {
	ctx := r.Context()
	userID := utils.GetUserIDFromRequest(r)

	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil ||
		req.OrderID == "" || req.RazorpayPaymentID == "" || req.RazorpaySignature == "" {
		utils.RespondWithAppError(w, apperr.Validation("orderId, razorpayPaymentId and razorpaySignature are required"))
		return
	}

	order, err := orders.FindByID(ctx, req.OrderID)
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	if order.BuyerID != userID {
		utils.RespondWithAppError(w, apperr.NotFound("order not found"))
		return
	}

	updated, err := VerifyCharge(ctx, req.OrderID, phase, req.RazorpayPaymentID, req.RazorpaySignature)
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"success": true,
		"status":  updated.Status,
	})
}

type finalChargeRequest struct {
	OrderID string `json:"orderId"`
}

// CreateFinalPayment opens the balance charge for an eligible order.
// POST /api/payments/final
func CreateFinalPayment(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx := r.Context()
	userID := utils.GetUserIDFromRequest(r)

	var req finalChargeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.OrderID == "" {
		utils.RespondWithAppError(w, apperr.Validation("orderId is required"))
		return
	}

	order, err := orders.FindByID(ctx, req.OrderID)
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	if order.BuyerID != userID {
		utils.RespondWithAppError(w, apperr.NotFound("order not found"))
		return
	}

	gw, err := InitiateFinalCharge(ctx, order)
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"success":         true,
		"razorpayOrderId": gw.ID,
		"razorpayKey":     Gateway.KeyID,
		"amount":          order.Payments.Final.Amount,
		"currency":        order.Currency,
	})
}
