package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/artisan-marketplace-api/controllers"
	"github.com/kendall-kelly/artisan-marketplace-api/middleware"
)

// Register mounts the marketplace API on v1. auth guards every route except
// local media, which browsers fetch without a token.
func Register(v1 *gin.RouterGroup, auth gin.HandlerFunc) {
	v1.GET("/media/*key", controllers.GetMediaFile)

	api := v1.Group("")
	api.Use(auth, middleware.SanitizeJSONInput())
	{
		// User routes
		api.POST("/users", controllers.CreateUser)
		api.GET("/users/me", controllers.GetMyProfile)
		api.PUT("/users/me", controllers.UpdateMyProfile)

		// Custom design request routes
		api.POST("/custom-requests", controllers.CreateCustomRequest)
		api.GET("/custom-requests", controllers.ListCustomRequests)
		api.GET("/custom-requests/:id", controllers.GetCustomRequest)
		api.PUT("/custom-requests/:id/quote", controllers.QuoteCustomRequest)
		api.PUT("/custom-requests/:id/status", controllers.AdvanceCustomRequestStatus)
		api.POST("/custom-requests/:id/uploads", controllers.UploadArtisanImage)
		api.GET("/custom-requests/:id/uploads", controllers.ListArtisanUploads)

		// Order routes
		api.POST("/orders", controllers.CreateOrder)
		api.GET("/orders", controllers.ListOrders)
		api.GET("/orders/:id", controllers.GetOrder)
		api.PUT("/orders/:id/accept", controllers.AcceptOrder)
		api.PUT("/orders/:id/reject", controllers.RejectOrder)
		api.PUT("/orders/:id/confirm-delivery", controllers.ConfirmDelivery)

		// Production milestones and buyer approval
		api.POST("/orders/:id/statuses", controllers.PostOrderStatus)
		api.GET("/orders/:id/statuses", controllers.ListOrderStatuses)
		api.PUT("/order-statuses/:id/approve", controllers.ApproveOrderStatus)

		// Ratings
		api.POST("/orders/:id/ratings", controllers.SubmitRating)
		api.GET("/orders/:id/ratings", controllers.ListRatings)
	}
}
