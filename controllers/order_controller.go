package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/artisan-marketplace-api/config"
	"github.com/kendall-kelly/artisan-marketplace-api/models"
	"github.com/kendall-kelly/artisan-marketplace-api/permissions"
	"github.com/kendall-kelly/artisan-marketplace-api/services"
	"github.com/shopspring/decimal"
)

// CreateOrderRequest represents the request body for creating an order.
// Ready-made orders name a product; custom orders name an accepted custom request.
type CreateOrderRequest struct {
	OrderType       models.OrderType `json:"order_type" binding:"required,oneof=ready-made custom"`
	ProductID       *uint            `json:"product_id"`
	CartID          *uint            `json:"cart_id"`
	CustomRequestID *uint            `json:"custom_request_id"`
	Quantity        *int             `json:"quantity"`
	TotalAmount     decimal.Decimal  `json:"total_amount"`
}

// RejectOrderRequest carries the artisan's reason for declining an order
type RejectOrderRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// CreateOrder handles POST /api/v1/orders - creates a new order (buyers only)
func CreateOrder(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	svc := services.NewOrderService(config.GetDB())

	var order *models.Order
	var err error
	switch req.OrderType {
	case models.OrderTypeCustom:
		if req.CustomRequestID == nil {
			respondServiceError(c, models.ValidationErrors{{Field: "custom_request", Message: "is required for custom orders"}})
			return
		}
		order, err = svc.CreateFromCustomRequest(c.Request.Context(), user, services.CustomOrderInput{
			CustomRequestID: *req.CustomRequestID,
			Quantity:        req.Quantity,
			TotalAmount:     req.TotalAmount,
		})
	default:
		if req.ProductID == nil {
			respondServiceError(c, models.ValidationErrors{{Field: "product", Message: "is required for ready-made orders"}})
			return
		}
		order, err = svc.CreateReadyMade(c.Request.Context(), user, services.ReadyMadeOrderInput{
			ProductID:   *req.ProductID,
			CartID:      req.CartID,
			Quantity:    req.Quantity,
			TotalAmount: req.TotalAmount,
		})
	}
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondSuccess(c, http.StatusCreated, order)
}

// ListOrders handles GET /api/v1/orders - lists the orders the user is a party to
func ListOrders(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	svc := services.NewOrderService(config.GetDB())
	orders, err := svc.ListForUser(c.Request.Context(), user)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, orders)
}

// GetOrder handles GET /api/v1/orders/:id
func GetOrder(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	order, ok := loadOrderForParty(c, user)
	if !ok {
		return
	}

	respondSuccess(c, http.StatusOK, order)
}

// AcceptOrder handles PUT /api/v1/orders/:id/accept (assigned artisan)
func AcceptOrder(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	svc := services.NewOrderService(config.GetDB())
	order, err := svc.Accept(c.Request.Context(), user, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, order)
}

// RejectOrder handles PUT /api/v1/orders/:id/reject (assigned artisan)
func RejectOrder(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req RejectOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	svc := services.NewOrderService(config.GetDB())
	order, err := svc.Reject(c.Request.Context(), user, id, req.Reason)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, order)
}

// ConfirmDelivery handles PUT /api/v1/orders/:id/confirm-delivery (buyer)
func ConfirmDelivery(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	svc := services.NewOrderService(config.GetDB())
	order, err := svc.ConfirmDelivery(c.Request.Context(), user, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, order)
}

// loadOrderForParty loads the :id order when the user is its buyer, its
// artisan or an admin. On failure it writes the response.
func loadOrderForParty(c *gin.Context, user *models.User) (*models.Order, bool) {
	id, ok := idParam(c, "id")
	if !ok {
		return nil, false
	}

	svc := services.NewOrderService(config.GetDB())
	order, err := svc.Get(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return nil, false
	}
	if !order.IsBuyer(user) && !permissions.CanAccess(user, order) {
		respondError(c, http.StatusForbidden, "FORBIDDEN", "You do not have permission to view this order")
		return nil, false
	}

	return order, true
}
