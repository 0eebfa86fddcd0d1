package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/inamkj/Agriboost/config"
	"github.com/inamkj/Agriboost/controllers"
	"github.com/inamkj/Agriboost/disease"
	"github.com/inamkj/Agriboost/middlewares"
	"github.com/inamkj/Agriboost/models"
	"github.com/inamkj/Agriboost/sensors"
	"github.com/inamkj/Agriboost/store"
)

func main() {
	cfg := config.Load()

	db, err := config.Connect(cfg)
	if err != nil {
		log.Fatal(err)
	}
	if err := controllers.MigrateModels(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	latest := sensors.NewLatest()
	diseaseService := disease.NewService(disease.RemoteLoader(cfg.DiseaseModelURL, cfg.DiseaseTimeout), cfg.DiseaseThreshold)

	h := &controllers.Handler{
		DB:             db,
		Auth:           middlewares.NewAuth(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL),
		History:        store.NewGormHistory(db),
		Sensors:        latest,
		Latest:         latest,
		Disease:        diseaseService,
		Location:       cfg.Location(),
		MaxUploadBytes: int64(cfg.DiseaseMaxUploadMB) << 20,
	}
	h.Hub = controllers.NewHub(h.CountAbnormal)

	if cfg.DiseaseWarmOnStart {
		if err := diseaseService.Warm(context.Background()); err != nil {
			// Not fatal: the service retries on the first request.
			log.Printf("Disease model not ready: %v", err)
		}
	}

	if cfg.MQTTBroker != "" {
		source, err := sensors.NewMQTTSource(sensors.MQTTConfig{
			Broker:   cfg.MQTTBroker,
			ClientID: cfg.MQTTClientID,
			Username: cfg.MQTTUsername,
			Password: cfg.MQTTPassword,
			Topic:    cfg.MQTTTopic,
		}, latest, h.OnDeviceReading)
		if err != nil {
			log.Fatalf("Failed to initialize MQTT: %v", err)
		}
		defer source.Close()
		if err := source.Subscribe(); err != nil {
			log.Fatalf("Failed to subscribe to MQTT topics: %v", err)
		}
	} else {
		log.Println("MQTT_BROKER not set, sensor feed relies on HTTP ingestion")
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: setupRouter(cfg, h),
	}

	go func() {
		log.Printf("Agriboost backend listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server error: %v", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutdown signal received, stopping server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Forced shutdown: %v", err)
	}
	log.Println("Shutdown complete")
}

func setupRouter(cfg *config.Config, h *controllers.Handler) *gin.Engine {
	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Public routes
	api := r.Group("/api")
	api.POST("/auth/register", h.Register)
	api.POST("/auth/verify-otp", h.VerifyOTP)
	api.POST("/auth/login", h.Login)
	api.POST("/auth/refresh", h.Refresh)
	api.GET("/sensors/feed", h.GetFeed)

	// Protected routes using auth middleware
	auth := api.Group("/")
	auth.Use(h.Auth.Middleware())
	auth.GET("/auth/profile", h.GetProfile)
	auth.PUT("/auth/profile", h.UpdateProfile)
	auth.POST("/auth/change-password", h.ChangePassword)
	auth.GET("/auth/history", h.GetUserHistory)

	auth.POST("/sensors/data", h.ReceiveData)
	auth.GET("/sensors/history", h.GetHistory)
	auth.GET("/sensors/abnormal-count", h.GetAbnormalCount)
	auth.GET("/sensors/abnormal-history", h.GetAbnormalHistory)
	auth.GET("/sensors/download-csv", h.DownloadCSV)
	auth.DELETE("/sensors/records/mine", h.DeleteMyRecords)
	auth.DELETE("/sensors/records/:id", h.DeleteRecord)

	auth.POST("/sensors/predict", h.PredictFertilizer)
	auth.GET("/sensors/predictions", h.GetPredictions)
	auth.GET("/sensors/predictions/:id", h.GetPrediction)

	auth.POST("/disease/predict", h.PredictDisease)
	auth.GET("/disease/history", h.GetDiseaseHistory)

	admin := auth.Group("/")
	admin.Use(middlewares.RequireRole(models.RoleAdmin))
	admin.POST("/auth/promote", h.PromoteUser)
	admin.GET("/auth/users", h.GetUsers)
	admin.DELETE("/auth/users/:user_id", h.DeleteUserAccount)

	r.GET("/ws", h.Auth.Middleware(), h.Hub.HandleWebSocket)
	return r
}
