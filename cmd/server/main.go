package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/Dias221467/CampusHub/internal/config"
	"github.com/Dias221467/CampusHub/internal/database"
	"github.com/Dias221467/CampusHub/internal/handlers"
	"github.com/Dias221467/CampusHub/internal/repository"
	"github.com/Dias221467/CampusHub/internal/services"
	"github.com/Dias221467/CampusHub/pkg/logger"
	"github.com/Dias221467/CampusHub/pkg/middleware"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

func main() {
	// Load configuration from .env file
	cfg := config.LoadConfig()

	logger.InitLogger()
	logger.Log.Info("Logger initialized")

	db, err := database.ConnectDB(cfg)
	if err != nil {
		log.Fatalf("Database connection error: %v", err)
	}

	// --- Repositories ---
	userRepo := repository.NewUserRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := notificationRepo.EnsureIndexes(ctx); err != nil {
		log.Fatalf("Index creation error: %v", err)
	}
	cancel()

	// --- Services ---
	userService := services.NewUserService(userRepo)
	notificationService := services.NewNotificationService(notificationRepo)

	// --- Handlers ---
	userHandler := handlers.NewUserHandler(userService, cfg)
	notificationHandler := handlers.NewNotificationHandler(notificationService)

	router := mux.NewRouter()

	// Public user routes
	router.HandleFunc("/users/register", userHandler.RegisterUserHandler).Methods("POST")
	router.HandleFunc("/users/login", userHandler.LoginUserHandler).Methods("POST")

	// Protected user routes
	protectedUserRoutes := router.PathPrefix("/users").Subrouter()
	protectedUserRoutes.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	protectedUserRoutes.HandleFunc("", userHandler.ListUsersByRoleHandler).Methods("GET")
	protectedUserRoutes.HandleFunc("/{id}", userHandler.GetUserHandler).Methods("GET")

	// Notification routes
	notificationRoutes := router.PathPrefix("/notifications").Subrouter()
	notificationRoutes.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	notificationRoutes.HandleFunc("", notificationHandler.CreateNotificationHandler).Methods("POST")
	notificationRoutes.HandleFunc("/inbox", notificationHandler.InboxHandler).Methods("GET")
	notificationRoutes.HandleFunc("/history", notificationHandler.SentHistoryHandler).Methods("GET")
	notificationRoutes.HandleFunc("/read-all", notificationHandler.MarkAllReadHandler).Methods("PUT")
	notificationRoutes.HandleFunc("/{id}/read", notificationHandler.MarkReadHandler).Methods("PUT")
	notificationRoutes.HandleFunc("/{id}", notificationHandler.DeleteNotificationHandler).Methods("DELETE")

	// Admin routes
	adminRoutes := router.PathPrefix("/admin").Subrouter()
	adminRoutes.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	adminRoutes.Use(middleware.RequireRole("admin"))
	adminRoutes.HandleFunc("/notifications", notificationHandler.AdminGetAllNotificationsHandler).Methods("GET")

	router.Use(middleware.LoggingMiddleware)

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})
	handler := c.Handler(router)

	fmt.Printf("Server running on port %s\n", cfg.Port)
	log.Fatal(http.ListenAndServe(":"+cfg.Port, handler))
}
