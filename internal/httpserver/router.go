package httpserver

import (
	"context"
	"log"

	"healthmall/internal/domain"
	cartsvc "healthmall/internal/service/cart"
	ordersvc "healthmall/internal/service/order"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CartService is the cart surface the handlers consume.
type CartService interface {
	Add(ctx context.Context, actor domain.Actor, in cartsvc.AddInput) error
	List(ctx context.Context, actor domain.Actor) ([]domain.CartItem, error)
	Update(ctx context.Context, actor domain.Actor, lineID string, in cartsvc.UpdateInput) error
	Remove(ctx context.Context, actor domain.Actor, lineID string) error
	RemoveMany(ctx context.Context, actor domain.Actor, lineIDs []string) error
	Clear(ctx context.Context, actor domain.Actor) error
	MergeGuestIntoUser(ctx context.Context, guestToken string, userID int64) error
	Status(ctx context.Context, actor domain.Actor) (*domain.CartStatus, error)
}

// OrderService is the order surface the handlers consume.
type OrderService interface {
	Create(ctx context.Context, userID int64, in ordersvc.CreateInput) (*domain.Order, error)
	Get(ctx context.Context, userID, orderID int64) (*domain.Order, error)
	List(ctx context.Context, userID int64, statusCode *int, page, size int) (domain.PageResult[domain.Order], error)
	Statistics(ctx context.Context, userID int64) (domain.OrderStatistics, error)
	PaymentSuccess(ctx context.Context, paymentNo, tradeNo string) error
	PaymentFailure(ctx context.Context, paymentNo, reason string) error
	Cancel(ctx context.Context, userID, orderID int64, reason string) error
	ConfirmReceipt(ctx context.Context, userID, orderID int64) error
	SetAppointment(ctx context.Context, userID, orderID, appointmentID int64) error
	AdvanceSampling(ctx context.Context, orderID int64, to domain.SamplingStatus) error
}

// IdentityService resolves bearer tokens upstream of the core.
type IdentityService interface {
	CurrentUser(ctx context.Context, token string) (int64, error)
}

// Deps carries the services the router wires handlers to.
type Deps struct {
	CartSvc  CartService
	OrderSvc OrderService
	Identity IdentityService
}

// buildRouter wires routes for the API.
func buildRouter(logger *log.Logger, db *pgxpool.Pool, deps Deps) (*gin.Engine, error) {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.LoggerWithWriter(logger.Writer()), gin.Recovery())
	router.Use(cors.Default())

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db))

	actor := actorMiddleware(deps.Identity, logger)

	cart := router.Group("/cart", actor)
	{
		cart.POST("", addToCartHandler(deps.CartSvc))
		cart.GET("", listCartHandler(deps.CartSvc))
		cart.GET("/status", cartStatusHandler(deps.CartSvc))
		cart.PUT("/:cartId", updateCartHandler(deps.CartSvc))
		cart.DELETE("/:cartId", removeCartHandler(deps.CartSvc))
		cart.DELETE("", clearCartHandler(deps.CartSvc))
		cart.POST("/batch-delete", batchRemoveCartHandler(deps.CartSvc))
		cart.POST("/merge", mergeCartHandler(deps.CartSvc))
	}

	orders := router.Group("/orders", actor)
	{
		orders.POST("", createOrderHandler(deps.OrderSvc))
		orders.GET("", listOrdersHandler(deps.OrderSvc))
		orders.GET("/statistics", orderStatisticsHandler(deps.OrderSvc))
		orders.GET("/:orderId", getOrderHandler(deps.OrderSvc))
		orders.POST("/:orderId/cancel", cancelOrderHandler(deps.OrderSvc))
		orders.POST("/:orderId/confirm-receipt", confirmReceiptHandler(deps.OrderSvc))
		orders.POST("/:orderId/appointment", appointmentHandler(deps.OrderSvc))
	}

	// Collaborator callbacks; not bearer-authenticated.
	internal := router.Group("/internal")
	{
		internal.POST("/payments/success", paymentSuccessHandler(deps.OrderSvc))
		internal.POST("/payments/failure", paymentFailureHandler(deps.OrderSvc))
		internal.POST("/sampling/:orderId/sampled", samplingAdvanceHandler(deps.OrderSvc, domain.SamplingSampled))
		internal.POST("/sampling/:orderId/shipped", samplingAdvanceHandler(deps.OrderSvc, domain.SamplingShipped))
	}

	return router, nil
}
