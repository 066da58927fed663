package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"gorm.io/gorm"

	"travelkita_app/internal/handlers"
	appMiddleware "travelkita_app/internal/middleware"
	"travelkita_app/internal/services"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment")
	}

	// Initialize Firebase (the external auth collaborator)
	credPath := os.Getenv("FIREBASE_CREDENTIALS_PATH")
	if credPath == "" {
		credPath = "./firebase-service-account.json"
	}

	authClient, err := services.InitFirebase(credPath)
	if err != nil {
		log.Printf("Warning: Firebase initialization failed: %v", err)
		log.Println("Sign-in will not work until valid credentials are provided; guest checkout is unaffected")
	}

	// Initialize Database
	var db *gorm.DB
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL != "" {
		var err error
		db, err = services.InitDB(databaseURL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}

		if err := services.AutoMigrate(db); err != nil {
			log.Fatalf("Failed to run database migrations: %v", err)
		}
	} else {
		log.Println("Warning: DATABASE_URL not set, bookings will not be persisted")
	}

	// Initialize Redis (receipt store + webhook idempotency)
	var cache *services.RedisCache
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		cache, err = services.NewRedisCache(redisURL)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer cache.Close()
	} else {
		log.Println("Warning: REDIS_URL not set, receipt key-value store disabled")
	}

	// Payment gateway + engine wiring
	midtransClient := services.NewMidtransService()
	emailService := services.NewEmailService()

	outcomes := services.NewRandomOutcomeProvider(envFloat("CHECKOUT_CARD_SUCCESS_RATE", 0.9))
	processor := services.NewPaymentProcessor(
		db,
		midtransClient,
		outcomes,
		time.Duration(envFloat("CHECKOUT_CARD_DELAY_SECONDS", 3))*time.Second,
		time.Duration(envFloat("CHECKOUT_CARD_TIMEOUT_SECONDS", 30))*time.Second,
		envFloat("MIDTRANS_IDR_PER_USD", 15500),
		os.Getenv("CHECKOUT_FINISH_URL"),
	)
	receipts := services.NewReceiptService(db, cache, emailService, "TravelKita")
	checkout := services.NewCheckoutService(services.CheckoutConfig{
		InsuranceUnitPrice:    envFloat("CHECKOUT_INSURANCE_UNIT_PRICE", 29.99),
		AllowBackToPassengers: os.Getenv("CHECKOUT_ALLOW_BACK_TO_PASSENGERS") == "true",
		SessionTTL:            time.Duration(envFloat("CHECKOUT_SESSION_TTL_MINUTES", 120)) * time.Minute,
	}, processor, receipts)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	checkout.StartJanitor(ctx, 10*time.Minute)

	// Create Echo instance
	e := echo.New()

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.HTTPErrorHandler = appMiddleware.CustomErrorHandler

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authClient, db)
	checkoutHandler := handlers.NewCheckoutHandler(checkout)
	paymentHandler := handlers.NewPaymentHandler(checkout, midtransClient, cache, db)
	receiptHandler := handlers.NewReceiptHandler(receipts)

	// Auth routes
	e.POST("/auth/login", authHandler.HandleLogin)
	e.POST("/auth/logout", authHandler.HandleLogout)
	e.GET("/auth/status", authHandler.Status, appMiddleware.OptionalAuth(authClient, db))

	// Checkout flow; optional auth so signed-in users skip account resolution
	co := e.Group("/checkout", appMiddleware.OptionalAuth(authClient, db))
	co.POST("", checkoutHandler.Begin)
	co.GET("/:id", checkoutHandler.GetSession)
	co.POST("/:id/guest", checkoutHandler.ContinueAsGuest)
	co.POST("/:id/account", checkoutHandler.AttachAccount)
	co.PUT("/:id/passengers/:index", checkoutHandler.UpdatePassenger)
	co.POST("/:id/passengers/next", checkoutHandler.NextPassenger)
	co.POST("/:id/passengers/prev", checkoutHandler.PrevPassenger)
	co.POST("/:id/passengers/complete", checkoutHandler.CompletePassengers)
	co.POST("/:id/insurance", checkoutHandler.SetInsurance)
	co.POST("/:id/terms", checkoutHandler.AcceptTerms)
	co.POST("/:id/back", checkoutHandler.Back)
	co.POST("/:id/payment", paymentHandler.Submit)
	co.POST("/:id/payment/close", paymentHandler.CloseRedirect)
	co.DELETE("/:id", checkoutHandler.Abandon)

	// Gateway notifications
	e.POST("/payments/midtrans/callback", paymentHandler.MidtransCallback)

	// Receipts and trip history
	e.GET("/receipts/:reference", receiptHandler.GetReceipt)
	e.GET("/receipts/:reference/ticket", receiptHandler.DownloadTicket)
	e.GET("/trips", receiptHandler.TripHistory, appMiddleware.RequireAuth(authClient, db))

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on port %s", port)
	e.Logger.Fatal(e.Start(":" + port))
}

func envFloat(key string, fallback float64) float64 {
	if raw := os.Getenv(key); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			return v
		}
		log.Printf("Warning: invalid value for %s, using default %v", key, fallback)
	}
	return fallback
}
