package payments

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"karigar/apperr"
	"karigar/db"
	"karigar/designs"
	"karigar/models"
	"karigar/orders"
	"karigar/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type checkoutItem struct {
	DesignID string `json:"designId"`
	Quantity int    `json:"quantity"`
}

type checkoutRequest struct {
	Items []checkoutItem `json:"items"`
	// Either an address from the caller's address book, or inline
	// shipping details; the order stores a copy either way.
	ShippingAddressID string          `json:"shippingAddressId,omitempty"`
	ShippingDetails   *models.Address `json:"shippingDetails,omitempty"`
}

// CreateOrder places an order in PENDING and returns the initial charge
// intent. Prices, seller and address are snapshotted here; nothing in
// the catalog or address book can change this order afterwards.
// POST /api/orders
func CreateOrder(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx := r.Context()
	buyerID := utils.GetUserIDFromRequest(r)

	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithAppError(w, apperr.Validation("invalid request body"))
		return
	}
	if len(req.Items) == 0 {
		utils.RespondWithAppError(w, apperr.Validation("at least one item is required"))
		return
	}

	var items []models.OrderItem
	sellerID := ""
	for _, it := range req.Items {
		if it.Quantity <= 0 {
			utils.RespondWithAppError(w, apperr.Validation("quantity must be positive"))
			return
		}
		design, err := designs.GetDesign(ctx, it.DesignID)
		if err != nil {
			utils.RespondWithAppError(w, err)
			return
		}
		if sellerID == "" {
			sellerID = design.SellerID
		} else if sellerID != design.SellerID {
			utils.RespondWithAppError(w, apperr.Validation("all items must belong to the same seller"))
			return
		}
		items = append(items, models.OrderItem{
			DesignID:  design.DesignID,
			Name:      design.Name,
			Quantity:  it.Quantity,
			UnitPrice: design.Price,
		})
	}
	if sellerID == buyerID {
		utils.RespondWithAppError(w, apperr.Validation("cannot order your own design"))
		return
	}

	shipping, err := resolveShipping(r, buyerID, &req)
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}

	totals := orders.ComputeTotals(items)
	initialAmt, finalAmt := orders.ComputeSplit(totals.Total)

	order := models.Order{
		OrderID:         utils.GenerateRandomString(14),
		BuyerID:         buyerID,
		SellerID:        sellerID,
		Items:           items,
		Totals:          totals,
		Status:          models.StatusPending,
		History:         []models.StatusChange{},
		ShippingAddress: *shipping,
		Payments: models.Payments{
			Initial: models.PaymentRecord{Amount: initialAmt},
			Final:   models.PaymentRecord{Amount: finalAmt},
		},
		Currency:  orders.DefaultCurrency,
		CreatedAt: time.Now().UTC(),
	}

	gw, err := Gateway.CreateOrder(ctx, initialAmt, order.Currency, order.OrderID)
	if err != nil {
		log.Printf("CreateOrder: gateway error for buyer %s: %v", buyerID, err)
		utils.RespondWithAppError(w, apperr.Internal("payment gateway unavailable"))
		return
	}
	order.Payments.Initial.RazorpayOrderID = gw.ID

	if _, err := db.OrdersCollection.InsertOne(ctx, order); err != nil {
		log.Printf("CreateOrder: insert failed for buyer %s: %v", buyerID, err)
		utils.RespondWithAppError(w, apperr.Internal("failed to create order"))
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, utils.M{
		"success":         true,
		"orderId":         order.OrderID,
		"razorpayOrderId": gw.ID,
		"razorpayKey":     Gateway.KeyID,
		"amount":          initialAmt,
		"currency":        order.Currency,
	})
}

func resolveShipping(r *http.Request, buyerID string, req *checkoutRequest) (*models.Address, error) {
	ctx := r.Context()
	if req.ShippingAddressID != "" {
		var addr models.Address
		err := db.AddressesCollection.FindOne(ctx,
			bson.M{"addressid": req.ShippingAddressID, "userid": buyerID}).Decode(&addr)
		if err != nil {
			if err == mongo.ErrNoDocuments {
				return nil, apperr.NotFound("shipping address not found")
			}
			return nil, apperr.Internal("failed to load shipping address")
		}
		return &addr, nil
	}

	d := req.ShippingDetails
	if d == nil || d.FullAddress == "" || d.City == "" || d.Pincode == "" {
		return nil, apperr.Validation("shipping details are incomplete")
	}
	d.UserID = buyerID
	return d, nil
}
