package main

import (
	"log"
	"scoreform/config"
	"scoreform/handlers"
	"scoreform/middleware"
	"scoreform/models"
	"scoreform/routes"
	"scoreform/services"

	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Auto-migrate database models
	err = db.AutoMigrate(
		&models.User{},
		&models.Form{},
		&models.Section{},
		&models.AnswerTemplate{},
		&models.ResultRule{},
		&models.ResultRuleText{},
		&models.Question{},
		&models.QuestionOption{},
		&models.FormResponse{},
		&models.ResponseAnswer{},
	)
	if err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	// Initialize Redis
	redisClient := config.InitRedis(cfg)

	// Initialize services
	authService := services.NewAuthService(db, cfg.JWTSecret)
	formService := services.NewFormService(db, redisClient)
	responseService := services.NewResponseService(db, redisClient)

	// Initialize WebSocket hub
	hub := services.NewHub()
	go hub.Run()

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	formHandler := handlers.NewFormHandler(formService)
	responseHandler := handlers.NewResponseHandler(responseService, hub)

	// Setup Gin router
	router := gin.Default()

	// Add CORS middleware
	router.Use(middleware.CORS())

	// Setup routes
	routes.SetupRoutes(router, authHandler, formHandler, responseHandler, hub, responseService, cfg.JWTSecret)

	// Start server
	log.Printf("Server starting on port %s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
