package orders

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"karigar/apperr"
	"karigar/db"
	"karigar/models"
	"karigar/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
)

type statusUpdateRequest struct {
	Status models.OrderStatus `json:"status"`
}

// UpdateStatus drives one state-machine transition.
// PUT /api/orders/order/:orderid/status
func UpdateStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx := r.Context()
	userID := utils.GetUserIDFromRequest(r)
	orderID := ps.ByName("orderid")

	var req statusUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Status == "" {
		utils.RespondWithAppError(w, apperr.Validation("status is required"))
		return
	}

	order, err := FindByID(ctx, orderID)
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}

	role := order.RoleOf(userID)
	if role == "" {
		// Do not reveal foreign orders
		utils.RespondWithAppError(w, apperr.NotFound("order not found"))
		return
	}

	updated, err := ApplyTransition(ctx, order, userID, role, req.Status)
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}

	// Reaching the balance checkpoint starts the payment clock.
	if updated.Status == models.StatusFinalPaymentPending && updated.Payments.Final.DueDate == nil {
		due := time.Now().UTC().Add(7 * 24 * time.Hour)
		_, err := db.OrdersCollection.UpdateOne(ctx,
			bson.M{"orderid": orderID, "payments.final.due_date": nil},
			bson.M{"$set": bson.M{"payments.final.due_date": due}},
		)
		if err != nil {
			log.Printf("UpdateStatus: failed to stamp final due date for %s: %v", orderID, err)
		} else {
			updated.Payments.Final.DueDate = &due
		}
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"status":  updated.Status,
	})
}
