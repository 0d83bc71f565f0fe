package notification

import (
	"context"
	"fmt"
	"log"

	authrepo "hndld-backend/internal/auth/repository"
	hdomain "hndld-backend/internal/household/domain"
	"hndld-backend/internal/task/domain"
	"hndld-backend/pkg/fcm"
)

const dueLayout = "Mon, Jan 2"

// PushSender delivers a notification to a set of device tokens and returns
// the tokens that could not be reached
type PushSender interface {
	SendToDevices(ctx context.Context, tokens []string, n fcm.NotificationData) ([]string, error)
}

// MemberLister lists the members of a household
type MemberLister interface {
	FindMembers(ctx context.Context, householdID string) ([]*hdomain.Member, error)
}

// Service pushes new-task notifications to household devices
type Service struct {
	members MemberLister
	tokens  authrepo.DeviceTokenRepository
	sender  PushSender
}

func NewService(members MemberLister, tokens authrepo.DeviceTokenRepository, sender PushSender) *Service {
	return &Service{
		members: members,
		tokens:  tokens,
		sender:  sender,
	}
}

// NotifyTasksCreated sends one push per task. Assigned tasks go to the
// assignee, unassigned ones to the household's assistants. Failures are
// logged and do not stop the remaining tasks.
func (s *Service) NotifyTasksCreated(ctx context.Context, tasks []*domain.Task) {
	for _, task := range tasks {
		if err := s.notify(ctx, task); err != nil {
			log.Printf("[Notification] Error notifying task %s: %v", task.ID, err)
		}
	}
}

func (s *Service) recipients(ctx context.Context, task *domain.Task) ([]string, error) {
	if task.AssignedTo != nil && *task.AssignedTo != "" {
		return []string{*task.AssignedTo}, nil
	}
	members, err := s.members.FindMembers(ctx, task.HouseholdID)
	if err != nil {
		return nil, fmt.Errorf("load members: %w", err)
	}
	var userIDs []string
	for _, m := range members {
		if m.Role == hdomain.RoleAssistant {
			userIDs = append(userIDs, m.UserID)
		}
	}
	return userIDs, nil
}

func (s *Service) notify(ctx context.Context, task *domain.Task) error {
	userIDs, err := s.recipients(ctx, task)
	if err != nil {
		return err
	}
	if len(userIDs) == 0 {
		return nil
	}

	tokens, err := s.tokens.GetTokensByUserIDs(ctx, userIDs)
	if err != nil {
		return fmt.Errorf("load device tokens: %w", err)
	}
	if len(tokens) == 0 {
		return nil
	}
	tokenStrings := make([]string, 0, len(tokens))
	for _, t := range tokens {
		tokenStrings = append(tokenStrings, t.Token)
	}

	failed, err := s.sender.SendToDevices(ctx, tokenStrings, BuildNotification(task))
	if err != nil {
		return err
	}
	log.Printf("[Notification] Sent task '%s' to %d devices", task.Title, len(tokenStrings)-len(failed))

	if err := s.tokens.DeleteTokens(ctx, failed); err != nil {
		log.Printf("[Notification] Error removing stale tokens: %v", err)
	}
	return nil
}

// BuildNotification renders the push payload of a task
func BuildNotification(task *domain.Task) fcm.NotificationData {
	body := task.Description
	if body == "" {
		body = "A new task is waiting in the household inbox"
	}
	if task.DueAt != nil {
		body = fmt.Sprintf("%s\nDue: %s", body, task.DueAt.Format(dueLayout))
	}

	kind := "task_created"
	if task.CreatedBy == domain.SystemUser {
		kind = "moment_reminder"
	} else if task.RecurrenceGroupID != nil {
		kind = "next_occurrence"
	}

	return fcm.NotificationData{
		Title: task.Title,
		Body:  body,
		Data: map[string]string{
			"type":         kind,
			"task_id":      task.ID,
			"household_id": task.HouseholdID,
			"urgency":      string(task.Urgency),
		},
		Link: "/tasks/" + task.ID,
	}
}
