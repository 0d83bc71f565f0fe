package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	api "hndld-backend/cmd/api"
	authDelivery "hndld-backend/internal/auth/delivery"
	authUsecase "hndld-backend/internal/auth/usecase"
	"hndld-backend/internal/bootstrap"
	householdDelivery "hndld-backend/internal/household/delivery"
	momentsScheduler "hndld-backend/internal/moments/scheduler"
	momentsUsecase "hndld-backend/internal/moments/usecase"
	"hndld-backend/internal/notification"
	taskDelivery "hndld-backend/internal/task/delivery"
	taskUsecase "hndld-backend/internal/task/usecase"
	"hndld-backend/pkg/config"
	"hndld-backend/pkg/events"
	"hndld-backend/pkg/fcm"
	"hndld-backend/pkg/metrics"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize storage (postgres with auto-migration, or memory)
	repos, err := bootstrap.OpenRepositories(cfg)
	if err != nil {
		log.Fatal("Failed to initialize storage:", err)
	}
	defer repos.Close()

	m := metrics.NewMetrics()

	// Initialize use cases (dependency injection)
	authUc := authUsecase.NewAuthUsecase(cfg.JWTSecret, cfg.JWTIssuer)
	taskUc := taskUsecase.NewTaskUsecase(repos.Tasks, repos.Households, cfg.PersistenceTimeout)
	taskUc.SetMetrics(m)
	momentsUc := momentsUsecase.NewMomentsUsecase(repos.Households, repos.Tasks, momentsUsecase.Options{
		WindowDays: cfg.MomentsWindowDays,
		LeadDays:   cfg.MomentsLeadDays,
		Timeout:    cfg.PersistenceTimeout,
	})
	momentsUc.SetMetrics(m)

	taskHandler := taskDelivery.NewTaskHandler(taskUc)

	// Initialize Pub/Sub event publisher (optional)
	var publisher *events.Publisher
	if cfg.GoogleProjectID != "" {
		publisher, err = events.NewPublisher(context.Background(), cfg.GoogleProjectID, cfg.GooglePubSubTopic, cfg.GoogleCredentials)
		if err != nil {
			log.Printf("[WARN] Failed to initialize event publisher (task events disabled): %v", err)
		} else {
			defer publisher.Close()
			taskHandler.SetPublisher(publisher)
		}
	} else {
		log.Printf("[WARN] GoogleProjectID not configured, task events disabled")
	}

	// Initialize FCM push notifications (optional)
	var notifier *notification.Service
	if cfg.FirebaseCredentials != "" {
		fcmClient, err := fcm.NewClient(context.Background(), cfg.FirebaseCredentials)
		if err != nil {
			log.Printf("[WARN] Failed to initialize FCM client (push notifications disabled): %v", err)
		} else {
			notifier = notification.NewService(repos.Households, repos.Devices, fcmClient)
			taskHandler.SetNotifier(notifier)
		}
	} else {
		log.Printf("[DEBUG] No Firebase credentials configured, FCM disabled")
	}

	// Moments automation: once at boot, then every interval
	var scheduler *momentsScheduler.MomentsScheduler
	if cfg.MomentsEnabled {
		var n momentsScheduler.Notifier
		if notifier != nil {
			n = notifier
		}
		var p momentsScheduler.Publisher
		if publisher != nil {
			p = publisher
		}
		scheduler = momentsScheduler.NewMomentsScheduler(momentsUc, n, p, cfg.MomentsInterval)
		scheduler.Start()
	}

	householdHandler := householdDelivery.NewHouseholdHandler(repos.Households, momentsUc)
	if notifier != nil {
		householdHandler.SetNotifier(notifier)
	}
	if publisher != nil {
		householdHandler.SetPublisher(publisher)
	}
	deviceHandler := authDelivery.NewDeviceHandler(repos.Devices)

	handler := api.NewHandler(authUc, taskHandler, householdHandler, deviceHandler, m)

	go func() {
		if err := handler.Start(":" + cfg.Port); err != nil {
			log.Fatal("Failed to start server:", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down...")

	if scheduler != nil {
		scheduler.Stop()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := handler.Shutdown(ctx); err != nil {
		log.Printf("[ERROR] Server shutdown: %v", err)
	}
}
