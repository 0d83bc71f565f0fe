package delivery

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	authdelivery "hndld-backend/internal/auth/delivery"
	"hndld-backend/internal/household/domain"
	"hndld-backend/internal/household/repository"
	taskdomain "hndld-backend/internal/task/domain"
	"hndld-backend/pkg/events"

	"github.com/gin-gonic/gin"
)

// MomentsGenerator creates reminder tasks for one household
type MomentsGenerator interface {
	GenerateMomentsTasks(ctx context.Context, householdID string) ([]*taskdomain.Task, error)
}

// TaskNotifier pushes reminder tasks to the household's devices
type TaskNotifier interface {
	NotifyTasksCreated(ctx context.Context, tasks []*taskdomain.Task)
}

// EventPublisher receives the moments.swept event of an on-demand run
type EventPublisher interface {
	Publish(ctx context.Context, evt events.Event) error
}

// HouseholdHandler serves important dates and the on-demand moments run
type HouseholdHandler struct {
	repo      repository.HouseholdRepository
	moments   MomentsGenerator
	notifier  TaskNotifier
	publisher EventPublisher
}

func NewHouseholdHandler(repo repository.HouseholdRepository, moments MomentsGenerator) *HouseholdHandler {
	return &HouseholdHandler{
		repo:    repo,
		moments: moments,
	}
}

func (h *HouseholdHandler) SetNotifier(n TaskNotifier) {
	h.notifier = n
}

func (h *HouseholdHandler) SetPublisher(p EventPublisher) {
	h.publisher = p
}

// CreateImportantDateRequest is the body of POST /api/important-dates.
// Date accepts YYYY-MM-DD or RFC3339.
type CreateImportantDateRequest struct {
	Title string                   `json:"title" binding:"required"`
	Date  string                   `json:"date" binding:"required"`
	Notes string                   `json:"notes"`
	Type  domain.ImportantDateType `json:"type"`
}

// parseDate keeps the calendar day as written and stores it as UTC midnight
func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		if t, err = time.Parse(time.RFC3339, raw); err != nil {
			return time.Time{}, err
		}
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
}

// GetImportantDates lists the household's important dates
// GET /api/important-dates
func (h *HouseholdHandler) GetImportantDates(c *gin.Context) {
	householdID := c.GetString(authdelivery.ContextHouseholdID)

	dates, err := h.repo.FindImportantDates(c.Request.Context(), householdID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if dates == nil {
		dates = []*domain.ImportantDate{}
	}
	c.JSON(http.StatusOK, gin.H{"important_dates": dates, "total": len(dates)})
}

// CreateImportantDate adds an important date
// POST /api/important-dates
func (h *HouseholdHandler) CreateImportantDate(c *gin.Context) {
	householdID := c.GetString(authdelivery.ContextHouseholdID)

	var req CreateImportantDateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD or RFC3339"})
		return
	}
	if req.Type == "" {
		req.Type = domain.ImportantDateOther
	}

	importantDate := &domain.ImportantDate{
		HouseholdID: householdID,
		Title:       strings.TrimSpace(req.Title),
		Date:        date,
		Notes:       req.Notes,
		Type:        req.Type,
	}
	if err := h.repo.CreateImportantDate(c.Request.Context(), importantDate); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, importantDate)
}

// DeleteImportantDate removes an important date
// DELETE /api/important-dates/:id
func (h *HouseholdHandler) DeleteImportantDate(c *gin.Context) {
	householdID := c.GetString(authdelivery.ContextHouseholdID)

	deleted, err := h.repo.DeleteImportantDate(c.Request.Context(), householdID, c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"error": "Important date not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Important date deleted successfully"})
}

// RunMoments generates reminder tasks for the caller's household now
// POST /api/moments/run
func (h *HouseholdHandler) RunMoments(c *gin.Context) {
	householdID := c.GetString(authdelivery.ContextHouseholdID)

	ctx := c.Request.Context()

	created, err := h.moments.GenerateMomentsTasks(ctx, householdID)
	// tasks written before a failure still exist, so they are announced either way
	if h.notifier != nil && len(created) > 0 {
		h.notifier.NotifyTasksCreated(ctx, created)
	}
	h.publishSwept(c, householdID, len(created), err != nil)

	if err != nil {
		log.Printf("[HouseholdHandler] Moments run failed for household %s: %v", householdID, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   err.Error(),
			"created": len(created),
		})
		return
	}
	if created == nil {
		created = []*taskdomain.Task{}
	}
	c.JSON(http.StatusOK, gin.H{
		"tasks": created,
		"count": len(created),
	})
}

func (h *HouseholdHandler) publishSwept(c *gin.Context, householdID string, created int, failed bool) {
	if h.publisher == nil {
		return
	}
	failedHouseholds := []string{}
	if failed {
		failedHouseholds = append(failedHouseholds, householdID)
	}
	evt := events.Event{
		Type:        events.TypeMomentsSwept,
		HouseholdID: householdID,
		ActorID:     c.GetString(authdelivery.ContextUserID),
		Payload: map[string]interface{}{
			"households":        1,
			"created":           created,
			"failed_households": failedHouseholds,
		},
	}
	if err := h.publisher.Publish(c.Request.Context(), evt); err != nil {
		log.Printf("[HouseholdHandler] Error publishing %s: %v", evt.Type, err)
	}
}
