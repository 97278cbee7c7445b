package routes

import (
	"karigar/addresses"
	"karigar/invoice"
	"karigar/meetings"
	"karigar/middleware"
	"karigar/orders"
	"karigar/payments"
	"karigar/ratelim"

	"github.com/julienschmidt/httprouter"
)

func AddOrderRoutes(router *httprouter.Router, rateLimiter *ratelim.RateLimiter) {
	router.POST("/api/orders", rateLimiter.Limit(middleware.Authenticate(payments.CreateOrder)))
	router.GET("/api/orders/purchases", middleware.Authenticate(orders.GetPurchases))
	router.GET("/api/orders/sales", middleware.Authenticate(orders.GetSales))
	router.GET("/api/orders/order/:orderid", middleware.Authenticate(orders.GetOrder))
	router.GET("/api/orders/order/:orderid/confirmation", middleware.Authenticate(orders.GetConfirmation))
	router.GET("/api/orders/order/:orderid/invoice", middleware.Authenticate(invoice.PrintInvoice))
	router.PUT("/api/orders/order/:orderid/status", rateLimiter.Limit(middleware.Authenticate(orders.UpdateStatus)))
}

func AddPaymentRoutes(router *httprouter.Router, rateLimiter *ratelim.RateLimiter) {
	router.POST("/api/payments/verify", rateLimiter.Limit(middleware.Authenticate(payments.VerifyInitial)))
	router.POST("/api/payments/final", rateLimiter.Limit(middleware.Authenticate(payments.CreateFinalPayment)))
	router.POST("/api/payments/final/verify", rateLimiter.Limit(middleware.Authenticate(payments.VerifyFinal)))
	// The gateway signs the webhook itself; no user token involved.
	router.POST("/api/payments/webhook", payments.Webhook)
}

func AddMeetingRoutes(router *httprouter.Router, rateLimiter *ratelim.RateLimiter) {
	router.POST("/api/meetings/orders/:orderid", rateLimiter.Limit(middleware.Authenticate(meetings.ScheduleMeeting)))
	router.GET("/api/meetings/orders/:orderid", middleware.Authenticate(meetings.GetMeeting))
}

func AddAddressRoutes(router *httprouter.Router, rateLimiter *ratelim.RateLimiter) {
	router.POST("/api/user/addresses", rateLimiter.Limit(middleware.Authenticate(addresses.CreateAddress)))
	router.GET("/api/user/addresses", middleware.Authenticate(addresses.ListAddresses))
	router.PUT("/api/user/addresses/:addressid", rateLimiter.Limit(middleware.Authenticate(addresses.UpdateAddress)))
	router.DELETE("/api/user/addresses/:addressid", rateLimiter.Limit(middleware.Authenticate(addresses.DeleteAddress)))
}

func RoutesWrapper(router *httprouter.Router, rateLimiter *ratelim.RateLimiter) {
	AddOrderRoutes(router, rateLimiter)
	AddPaymentRoutes(router, rateLimiter)
	AddMeetingRoutes(router, rateLimiter)
	AddAddressRoutes(router, rateLimiter)
}
