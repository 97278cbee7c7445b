package addresses

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
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type addressRequest struct {
	Label       string `json:"label"`
	FullAddress string `json:"fullAddress"`
	City        string `json:"city"`
	State       string `json:"state"`
	Pincode     string `json:"pincode"`
	Country     string `json:"country"`
	IsDefault   bool   `json:"isDefault"`
}

func (req *addressRequest) validate() error {
	if req.FullAddress == "" || req.City == "" || req.Pincode == "" {
		return apperr.Validation("fullAddress, city and pincode are required")
	}
	return nil
}

// CreateAddress adds an address to the caller's address book.
// POST /api/user/addresses
func CreateAddress(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx := r.Context()
	userID := utils.GetUserIDFromRequest(r)

	var req addressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithAppError(w, apperr.Validation("invalid request body"))
		return
	}
	if err := req.validate(); err != nil {
		utils.RespondWithAppError(w, err)
		return
	}

	addr := models.Address{
		AddressID:   utils.GenerateRandomString(14),
		UserID:      userID,
		Label:       req.Label,
		FullAddress: req.FullAddress,
		City:        req.City,
		State:       req.State,
		Pincode:     req.Pincode,
		Country:     req.Country,
		IsDefault:   req.IsDefault,
		CreatedAt:   time.Now().UTC(),
	}

	if req.IsDefault {
		clearDefault(r, userID)
	}

	if _, err := db.AddressesCollection.InsertOne(ctx, addr); err != nil {
		log.Printf("CreateAddress: insert failed for user %s: %v", userID, err)
		utils.RespondWithAppError(w, apperr.Internal("failed to save address"))
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, utils.M{"success": true, "address": addr})
}

// ListAddresses returns the caller's address book, default first.
// GET /api/user/addresses
func ListAddresses(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx := r.Context()
	userID := utils.GetUserIDFromRequest(r)

	cur, err := db.AddressesCollection.Find(ctx,
		bson.M{"userid": userID},
		options.Find().SetSort(bson.D{{Key: "is_default", Value: -1}, {Key: "created_at", Value: -1}}),
	)
	if err != nil {
		log.Printf("ListAddresses: DB error for user %s: %v", userID, err)
		utils.RespondWithAppError(w, apperr.Internal("failed to load addresses"))
		return
	}
	defer cur.Close(ctx)

	addrs := []models.Address{}
	if err := cur.All(ctx, &addrs); err != nil {
		utils.RespondWithAppError(w, apperr.Internal("failed to load addresses"))
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "addresses": addrs})
}

// UpdateAddress edits an address the caller owns. Orders keep their
// denormalized copy; editing here never changes a placed order.
// PUT /api/user/addresses/:addressid
func UpdateAddress(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx := r.Context()
	userID := utils.GetUserIDFromRequest(r)
	addressID := ps.ByName("addressid")

	var req addressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithAppError(w, apperr.Validation("invalid request body"))
		return
	}
	if err := req.validate(); err != nil {
		utils.RespondWithAppError(w, err)
		return
	}

	if req.IsDefault {
		clearDefault(r, userID)
	}

	res := db.AddressesCollection.FindOneAndUpdate(ctx,
		bson.M{"addressid": addressID, "userid": userID},
		bson.M{"$set": bson.M{
			"label":        req.Label,
			"full_address": req.FullAddress,
			"city":         req.City,
			"state":        req.State,
			"pincode":      req.Pincode,
			"country":      req.Country,
			"is_default":   req.IsDefault,
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)

	var addr models.Address
	if err := res.Decode(&addr); err != nil {
		if err == mongo.ErrNoDocuments {
			utils.RespondWithAppError(w, apperr.NotFound("address not found"))
			return
		}
		utils.RespondWithAppError(w, apperr.Internal("failed to update address"))
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "address": addr})
}

// DeleteAddress removes an address the caller owns.
// DELETE /api/user/addresses/:addressid
func DeleteAddress(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx := r.Context()
	userID := utils.GetUserIDFromRequest(r)
	addressID := ps.ByName("addressid")

	res, err := db.AddressesCollection.DeleteOne(ctx,
		bson.M{"addressid": addressID, "userid": userID})
	if err != nil {
		utils.RespondWithAppError(w, apperr.Internal("failed to delete address"))
		return
	}
	if res.DeletedCount == 0 {
		utils.RespondWithAppError(w, apperr.NotFound("address not found"))
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true})
}

// clearDefault drops the default flag from any other address of the user.
func clearDefault(r *http.Request, userID string) {
	_, err := db.AddressesCollection.UpdateMany(r.Context(),
		bson.M{"userid": userID, "is_default": true},
		bson.M{"$set": bson.M{"is_default": false}},
	)
	if err != nil {
		log.Printf("clearDefault: failed for user %s: %v", userID, err)
	}
}
