package api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	authDelivery "hndld-backend/internal/auth/delivery"
	authUsecase "hndld-backend/internal/auth/usecase"
	householdDelivery "hndld-backend/internal/household/delivery"
	taskDelivery "hndld-backend/internal/task/delivery"
	"hndld-backend/pkg/metrics"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	authUsecase      authUsecase.AuthUsecase
	taskHandler      *taskDelivery.TaskHandler
	householdHandler *householdDelivery.HouseholdHandler
	deviceHandler    *authDelivery.DeviceHandler
	metrics          *metrics.Metrics

	server *http.Server
}

func NewHandler(authUc authUsecase.AuthUsecase, taskHandler *taskDelivery.TaskHandler, householdHandler *householdDelivery.HouseholdHandler, deviceHandler *authDelivery.DeviceHandler, m *metrics.Metrics) *Handler {
	return &Handler{
		authUsecase:      authUc,
		taskHandler:      taskHandler,
		householdHandler: householdHandler,
		deviceHandler:    deviceHandler,
		metrics:          m,
	}
}

// Router builds the gin engine with middleware and routes
func (h *Handler) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	// CORS middleware
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		} else {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	SetupRoutes(r, h.authUsecase, h.taskHandler, h.householdHandler, h.deviceHandler, h.metrics)
	return r
}

// Start serves HTTP until Shutdown is called
func (h *Handler) Start(addr string) error {
	gin.SetMode(gin.ReleaseMode)
	h.server = &http.Server{
		Addr:              addr,
		Handler:           h.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Printf("Server starting on %s", addr)
	if err := h.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests
func (h *Handler) Shutdown(ctx context.Context) error {
	if h.server == nil {
		return nil
	}
	return h.server.Shutdown(ctx)
}
