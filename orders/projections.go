package orders

import (
	"context"
	"log"
	"net/http"

	"karigar/apperr"
	"karigar/db"
	"karigar/models"
	"karigar/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// GetOrder returns the role-aware detail view for either party.
// GET /api/orders/order/:orderid
func GetOrder(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx := r.Context()
	userID := utils.GetUserIDFromRequest(r)

	order, err := FindByID(ctx, ps.ByName("orderid"))
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	role := order.RoleOf(userID)
	if role == "" {
		utils.RespondWithAppError(w, apperr.NotFound("order not found"))
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, orderDetail(order, role, loadUser(ctx, order.BuyerID)))
}

// orderDetail assembles the detail response: the order itself plus the
// buyer block the seller needs to reach the customer.
func orderDetail(order *models.Order, role models.Role, buyer *models.User) utils.M {
	return utils.M{
		"success": true,
		"role":    role,
		"order":   order,
		"buyer":   buyerSummary(order.BuyerID, buyer),
		"payments": utils.M{
			"initial": order.Payments.Initial,
			"final":   order.Payments.Final,
		},
		"shipping": order.ShippingAddress,
	}
}

// buyerSummary degrades to the bare id when the profile doc is missing.
func buyerSummary(buyerID string, u *models.User) utils.M {
	out := utils.M{"userId": buyerID}
	if u != nil {
		out["name"] = u.Name
		out["email"] = u.Email
		out["phone"] = u.Phone
	}
	return out
}

// loadUser is a best-effort profile read; the detail view renders
// without it.
func loadUser(ctx context.Context, userID string) *models.User {
	var u models.User
	if err := db.UserCollection.FindOne(ctx, bson.M{"userid": userID}).Decode(&u); err != nil {
		return nil
	}
	return &u
}

// GetConfirmation is the post-checkout snapshot shown after payment.
// GET /api/orders/order/:orderid/confirmation
func GetConfirmation(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx := r.Context()
	userID := utils.GetUserIDFromRequest(r)

	order, err := FindByID(ctx, ps.ByName("orderid"))
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	if order.RoleOf(userID) == "" {
		utils.RespondWithAppError(w, apperr.NotFound("order not found"))
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success":     true,
		"orderId":     order.OrderID,
		"status":      order.Status,
		"totals":      order.Totals,
		"products":    order.Items,
		"paymentInfo": order.Payments,
		"createdAt":   order.CreatedAt,
	})
}

// GetPurchases lists the caller's orders as a buyer, newest first, with
// the final due date surfaced for payment reminders.
// GET /api/orders/purchases
func GetPurchases(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx := r.Context()
	userID := utils.GetUserIDFromRequest(r)

	cur, err := db.OrdersCollection.Find(ctx,
		bson.M{"buyerid": userID},
		options.Find().SetSort(bson.M{"created_at": -1}),
	)
	if err != nil {
		log.Printf("GetPurchases: DB error for user %s, err=%v\n", userID, err)
		utils.RespondWithAppError(w, apperr.Internal("failed to load purchases"))
		return
	}
	defer cur.Close(ctx)

	orderList := []models.Order{}
	if err = cur.All(ctx, &orderList); err != nil {
		log.Printf("GetPurchases: decode error for user %s, err=%v\n", userID, err)
		utils.RespondWithAppError(w, apperr.Internal("failed to load purchases"))
		return
	}

	views := make([]utils.M, 0, len(orderList))
	for _, o := range orderList {
		views = append(views, utils.M{
			"orderId":         o.OrderID,
			"status":          o.Status,
			"totals":          o.Totals,
			"items":           o.Items,
			"finalPaymentDue": o.Payments.Final.DueDate,
			"finalPaid":       o.Payments.Final.Paid,
			"createdAt":       o.CreatedAt,
		})
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "orders": views})
}

// GetSales lists the caller's orders as a seller plus a revenue figure.
// Revenue only counts orders whose initial deposit has cleared, so
// unconfirmed checkouts never inflate it.
// GET /api/orders/sales
func GetSales(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx := r.Context()
	userID := utils.GetUserIDFromRequest(r)

	cur, err := db.OrdersCollection.Find(ctx,
		bson.M{"sellerid": userID},
		options.Find().SetSort(bson.M{"created_at": -1}),
	)
	if err != nil {
		log.Printf("GetSales: DB error for user %s, err=%v\n", userID, err)
		utils.RespondWithAppError(w, apperr.Internal("failed to load sales"))
		return
	}
	defer cur.Close(ctx)

	orderList := []models.Order{}
	if err = cur.All(ctx, &orderList); err != nil {
		log.Printf("GetSales: decode error for user %s, err=%v\n", userID, err)
		utils.RespondWithAppError(w, apperr.Internal("failed to load sales"))
		return
	}

	pipeline := []bson.M{
		{"$match": bson.M{"sellerid": userID, "payments.initial.paid": true}},
		{"$group": bson.M{"_id": nil, "revenue": bson.M{"$sum": "$totals.total"}}},
	}
	revenue := int64(0)
	aggCur, err := db.OrdersCollection.Aggregate(ctx, pipeline)
	if err != nil {
		log.Printf("GetSales: aggregation error for user %s, err=%v\n", userID, err)
	} else {
		defer aggCur.Close(ctx)
		var agg []struct {
			Revenue int64 `bson:"revenue"`
		}
		if err := aggCur.All(ctx, &agg); err == nil && len(agg) > 0 {
			revenue = agg[0].Revenue
		}
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"success": true,
		"orders":  orderList,
		"revenue": revenue,
	})
}
