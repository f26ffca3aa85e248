package routes

import (
	"log"
	"net/http"

	"scoreform/handlers"
	"scoreform/middleware"
	"scoreform/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for development
	},
}

func SetupRoutes(
	router *gin.Engine,
	authHandler *handlers.AuthHandler,
	formHandler *handlers.FormHandler,
	responseHandler *handlers.ResponseHandler,
	hub *services.Hub,
	responseService *services.ResponseService,
	jwtSecret string,
) {
	// API routes
	api := router.Group("/api")
	{
		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
		}

		// Protected routes
		protected := api.Group("/")
		protected.Use(middleware.AuthMiddleware(jwtSecret))
		{
			// User profile
			protected.GET("/auth/profile", authHandler.GetProfile)

			// Form builder routes
			forms := protected.Group("/forms")
			{
				forms.GET("", formHandler.GetUserForms)
				forms.POST("", formHandler.CreateForm)
				forms.GET("/:id", formHandler.GetFormByID)
				forms.GET("/:id/snapshot", formHandler.GetFormSnapshot)
				forms.PUT("/:id", formHandler.UpdateForm)
				forms.DELETE("/:id", formHandler.DeleteForm)
				forms.GET("/:id/responses", responseHandler.GetFormResponses)
				forms.GET("/:id/responses/:responseID", responseHandler.GetResponseByID)
			}
		}

		// Public respondent routes
		public := api.Group("/public/forms")
		{
			public.GET("/:slug", responseHandler.GetPublicForm)
			public.POST("/:slug/responses", responseHandler.SubmitResponse)
		}
	}

	// WebSocket endpoint: authors watch submissions on their form live.
	router.GET("/ws/forms/:slug", func(c *gin.Context) {
		slug := c.Param("slug")
		token := c.Query("token")

		userID, err := middleware.ParseUserID(token, jwtSecret)
		if err != nil {
			log.Printf("WebSocket auth failed for form %s: %v", slug, err)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		ownerID, err := responseService.GetFormOwner(slug)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Form not found"})
			return
		}
		if ownerID != userID {
			c.JSON(http.StatusForbidden, gin.H{"error": "Not the form owner"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("WebSocket upgrade failed for form %s, user %d: %v", slug, userID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upgrade connection"})
			return
		}

		log.Printf("WebSocket connection established for form %s, user %d", slug, userID)

		// Register client with hub - this will handle all message processing
		hub.RegisterClient(conn, slug, userID)
	})

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}
