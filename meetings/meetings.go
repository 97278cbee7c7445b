package meetings

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"karigar/apperr"
	"karigar/db"
	"karigar/models"
	"karigar/orders"
	"karigar/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type scheduleRequest struct {
	Type        models.MeetingType `json:"type"`
	ScheduledAt time.Time          `json:"scheduledAt"`
	AddressID   string             `json:"addressId,omitempty"`
	Notes       string             `json:"notes,omitempty"`
}

// ScheduleMeeting creates the measurement meeting for an order, at most
// one per order. A repeat call returns the existing record unchanged.
// The meeting is advisory metadata; it gates no order transition.
// POST /api/meetings/orders/:orderid
func ScheduleMeeting(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx := r.Context()
	userID := utils.GetUserIDFromRequest(r)
	orderID := ps.ByName("orderid")

	order, err := orders.FindByID(ctx, orderID)
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	if order.RoleOf(userID) == "" {
		utils.RespondWithAppError(w, apperr.NotFound("order not found"))
		return
	}

	var req scheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithAppError(w, apperr.Validation("invalid request body"))
		return
	}
	if req.Type != models.MeetingHomeVisit && req.Type != models.MeetingPhoneCall {
		utils.RespondWithAppError(w, apperr.Validation("type must be HOME_VISIT or PHONE_CALL"))
		return
	}
	if req.ScheduledAt.IsZero() {
		utils.RespondWithAppError(w, apperr.Validation("scheduledAt is required"))
		return
	}

	// A home visit needs somewhere to visit: an address owned by the
	// buyer, created beforehand through the address store.
	if req.Type == models.MeetingHomeVisit {
		if req.AddressID == "" {
			utils.RespondWithAppError(w, apperr.Validation("addressId is required for a home visit"))
			return
		}
		count, err := db.AddressesCollection.CountDocuments(ctx,
			bson.M{"addressid": req.AddressID, "userid": order.BuyerID})
		if err != nil {
			utils.RespondWithAppError(w, apperr.Internal("failed to resolve address"))
			return
		}
		if count == 0 {
			utils.RespondWithAppError(w, apperr.NotFound("address not found"))
			return
		}
	}

	meeting := models.Meeting{
		MeetingID:   utils.GenerateRandomString(14),
		OrderID:     orderID,
		Type:        req.Type,
		ScheduledAt: req.ScheduledAt.UTC(),
		AddressID:   req.AddressID,
		Notes:       req.Notes,
		CreatedAt:   time.Now().UTC(),
	}

	// The unique index on orderid makes create-if-absent race-proof: the
	// losing insert reads back the winner.
	if _, err := db.MeetingsCollection.InsertOne(ctx, meeting); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			var existing models.Meeting
			if err := db.MeetingsCollection.FindOne(ctx, bson.M{"orderid": orderID}).Decode(&existing); err != nil {
				utils.RespondWithAppError(w, apperr.Internal("failed to load meeting"))
				return
			}
			utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "meeting": existing})
			return
		}
		log.Printf("ScheduleMeeting: insert failed for order %s: %v", orderID, err)
		utils.RespondWithAppError(w, apperr.Internal("failed to schedule meeting"))
		return
	}

	_, err = db.OrdersCollection.UpdateOne(ctx,
		bson.M{"orderid": orderID},
		bson.M{"$set": bson.M{"meetingid": meeting.MeetingID}},
	)
	if err != nil {
		log.Printf("ScheduleMeeting: failed to link meeting %s to order %s: %v", meeting.MeetingID, orderID, err)
	}

	utils.RespondWithJSON(w, http.StatusCreated, utils.M{"success": true, "meeting": meeting})
}

// GetMeeting returns the meeting for an order to either party.
// GET /api/meetings/orders/:orderid
func GetMeeting(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx := r.Context()
	userID := utils.GetUserIDFromRequest(r)
	orderID := ps.ByName("orderid")

	order, err := orders.FindByID(ctx, orderID)
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	if order.RoleOf(userID) == "" {
		utils.RespondWithAppError(w, apperr.NotFound("order not found"))
		return
	}

	var meeting models.Meeting
	if err := db.MeetingsCollection.FindOne(ctx, bson.M{"orderid": orderID}).Decode(&meeting); err != nil {
		if err == mongo.ErrNoDocuments {
			utils.RespondWithAppError(w, apperr.NotFound("no meeting scheduled for this order"))
			return
		}
		utils.RespondWithAppError(w, apperr.Internal("failed to load meeting"))
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "meeting": meeting})
}
