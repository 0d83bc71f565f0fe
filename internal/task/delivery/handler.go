package delivery

import (
	"context"
	"errors"
	"log"
	"net/http"

	authdelivery "hndld-backend/internal/auth/delivery"
	"hndld-backend/internal/task/domain"
	"hndld-backend/internal/task/usecase"
	"hndld-backend/pkg/events"

	"github.com/gin-gonic/gin"
)

// EventPublisher fans task lifecycle events out to other services
type EventPublisher interface {
	Publish(ctx context.Context, evt events.Event) error
}

// TaskNotifier pushes newly created tasks to devices
type TaskNotifier interface {
	NotifyTasksCreated(ctx context.Context, tasks []*domain.Task)
}

// TaskHandler handles task-related HTTP requests
type TaskHandler struct {
	taskUsecase usecase.TaskUsecase
	publisher   EventPublisher
	notifier    TaskNotifier
}

// NewTaskHandler creates a new TaskHandler
func NewTaskHandler(taskUsecase usecase.TaskUsecase) *TaskHandler {
	return &TaskHandler{
		taskUsecase: taskUsecase,
	}
}

func (h *TaskHandler) SetPublisher(p EventPublisher) {
	h.publisher = p
}

func (h *TaskHandler) SetNotifier(n TaskNotifier) {
	h.notifier = n
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, usecase.ErrTaskNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
	case errors.Is(err, usecase.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, usecase.ErrInvalidTransition),
		errors.Is(err, usecase.ErrInvalidRecurrence),
		errors.Is(err, usecase.ErrInvalidTask):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		log.Printf("[TaskHandler] Internal error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func (h *TaskHandler) publish(c *gin.Context, evt events.Event) {
	if h.publisher == nil {
		return
	}
	if err := h.publisher.Publish(c.Request.Context(), evt); err != nil {
		log.Printf("[TaskHandler] Error publishing %s: %v", evt.Type, err)
	}
}

// GetTasks returns the tasks of the caller's household
// GET /api/tasks?status=PLANNED
func (h *TaskHandler) GetTasks(c *gin.Context) {
	householdID := c.GetString(authdelivery.ContextHouseholdID)

	var statusPtr *string
	if status := c.Query("status"); status != "" {
		statusPtr = &status
	}

	tasks, err := h.taskUsecase.ListTasks(c.Request.Context(), householdID, statusPtr)
	if err != nil {
		writeError(c, err)
		return
	}
	if tasks == nil {
		tasks = []*domain.Task{}
	}

	c.JSON(http.StatusOK, gin.H{
		"tasks": tasks,
		"total": len(tasks),
	})
}

// GetTaskByID returns a specific task
// GET /api/tasks/:id
func (h *TaskHandler) GetTaskByID(c *gin.Context) {
	householdID := c.GetString(authdelivery.ContextHouseholdID)

	task, err := h.taskUsecase.GetTask(c.Request.Context(), householdID, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// CreateTask creates a new task
// POST /api/tasks
func (h *TaskHandler) CreateTask(c *gin.Context) {
	householdID := c.GetString(authdelivery.ContextHouseholdID)
	userID := c.GetString(authdelivery.ContextUserID)

	var req usecase.TaskInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	task, err := h.taskUsecase.CreateTask(c.Request.Context(), householdID, userID, req)
	if err != nil {
		writeError(c, err)
		return
	}

	h.publish(c, events.Event{
		Type:        events.TypeTaskCreated,
		HouseholdID: householdID,
		TaskID:      task.ID,
		ActorID:     userID,
	})
	if h.notifier != nil {
		h.notifier.NotifyTasksCreated(c.Request.Context(), []*domain.Task{task})
	}

	c.JSON(http.StatusCreated, task)
}

// CompleteTask marks a task done and schedules the next occurrence of recurring tasks
// POST /api/tasks/:id/complete
func (h *TaskHandler) CompleteTask(c *gin.Context) {
	householdID := c.GetString(authdelivery.ContextHouseholdID)
	userID := c.GetString(authdelivery.ContextUserID)

	result, err := h.taskUsecase.CompleteTask(c.Request.Context(), householdID, c.Param("id"), userID)
	if err != nil {
		writeError(c, err)
		return
	}

	if !result.AlreadyCompleted {
		payload := map[string]interface{}{}
		if result.NextTask != nil {
			payload["next_task_id"] = result.NextTask.ID
			payload["next_due_at"] = result.NextTask.DueAt
		}
		h.publish(c, events.Event{
			Type:        events.TypeTaskCompleted,
			HouseholdID: householdID,
			TaskID:      result.CompletedTask.ID,
			ActorID:     userID,
			Payload:     payload,
		})
		if h.notifier != nil && result.NextTask != nil {
			h.notifier.NotifyTasksCreated(c.Request.Context(), []*domain.Task{result.NextTask})
		}
	}

	c.JSON(http.StatusOK, result)
}

// CancelTask cancels a task that is not finished yet
// POST /api/tasks/:id/cancel
func (h *TaskHandler) CancelTask(c *gin.Context) {
	householdID := c.GetString(authdelivery.ContextHouseholdID)
	userID := c.GetString(authdelivery.ContextUserID)

	task, err := h.taskUsecase.CancelTask(c.Request.Context(), householdID, c.Param("id"), userID)
	if err != nil {
		writeError(c, err)
		return
	}

	h.publish(c, events.Event{
		Type:        events.TypeTaskCancelled,
		HouseholdID: householdID,
		TaskID:      task.ID,
		ActorID:     userID,
	})
	c.JSON(http.StatusOK, task)
}

// GetRecurrenceGroup returns all occurrences of a recurring series
// GET /api/tasks/groups/:groupId
func (h *TaskHandler) GetRecurrenceGroup(c *gin.Context) {
	householdID := c.GetString(authdelivery.ContextHouseholdID)

	tasks, err := h.taskUsecase.ListRecurrenceGroup(c.Request.Context(), householdID, c.Param("groupId"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"tasks": tasks,
		"total": len(tasks),
	})
}

// RegisterRoutes mounts the task routes on an authenticated group
func (h *TaskHandler) RegisterRoutes(tasks *gin.RouterGroup) {
	tasks.GET("", h.GetTasks)
	tasks.POST("", h.CreateTask)
	tasks.GET("/groups/:groupId", h.GetRecurrenceGroup)
	tasks.GET("/:id", h.GetTaskByID)
	tasks.POST("/:id/complete", h.CompleteTask)
	tasks.POST("/:id/cancel", h.CancelTask)
}
