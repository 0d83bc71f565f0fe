package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	hdomain "hndld-backend/internal/household/domain"
	hrepo "hndld-backend/internal/household/repository"
	"hndld-backend/internal/task/domain"
	taskrepo "hndld-backend/internal/task/repository"
	"hndld-backend/pkg/metrics"
)

const (
	DefaultWindowDays = 14
	DefaultLeadDays   = 3

	titleSuffix = " coming up"
	dateLayout  = "January 2"
)

// ErrHouseholdPanicked wraps a panic recovered while sweeping one household
var ErrHouseholdPanicked = errors.New("household sweep panicked")

// RunSummary reports the outcome of one sweep over all households
type RunSummary struct {
	Households int
	Created    []*domain.Task
	// Failed maps household ID to the error that stopped its processing
	Failed map[string]error
}

// Options tune the reminder window
type Options struct {
	// WindowDays is how far ahead important dates are considered
	WindowDays int
	// LeadDays is how many days before the date the reminder is due
	LeadDays int
	// Timeout bounds the persistence work of a single household
	Timeout time.Duration
}

// MomentsUsecase turns upcoming important dates into reminder tasks
type MomentsUsecase struct {
	households hrepo.HouseholdRepository
	tasks      taskrepo.TaskRepository
	opts       Options
	now        func() time.Time
	metrics    *metrics.Metrics
}

// NewMomentsUsecase creates the sweep; zero option fields take defaults
func NewMomentsUsecase(households hrepo.HouseholdRepository, tasks taskrepo.TaskRepository, opts Options) *MomentsUsecase {
	if opts.WindowDays <= 0 {
		opts.WindowDays = DefaultWindowDays
	}
	if opts.LeadDays <= 0 {
		opts.LeadDays = DefaultLeadDays
	}
	return &MomentsUsecase{
		households: households,
		tasks:      tasks,
		opts:       opts,
		now:        time.Now,
	}
}

func (u *MomentsUsecase) SetClock(now func() time.Time) {
	u.now = now
}

func (u *MomentsUsecase) SetMetrics(m *metrics.Metrics) {
	u.metrics = m
}

// ReminderTitle is the deterministic title used for dedup
func ReminderTitle(date *hdomain.ImportantDate) string {
	return date.Title + titleSuffix
}

// NextOccurrence projects the month/day of date onto the year of today, or
// the following year when that day has already passed. Important dates are
// stored as UTC midnight, so month and day are read in UTC whatever zone the
// driver returned the value in.
func NextOccurrence(date time.Time, today time.Time) time.Time {
	_, month, day := date.UTC().Date()
	target := time.Date(today.Year(), month, day, 0, 0, 0, 0, today.Location())
	if target.Before(today) {
		target = time.Date(today.Year()+1, month, day, 0, 0, 0, 0, today.Location())
	}
	return target
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// GenerateMomentsTasks creates reminder tasks for the household's important
// dates that fall within the window. A persistence error stops the household
// and is returned with the tasks created up to that point.
func (u *MomentsUsecase) GenerateMomentsTasks(ctx context.Context, householdID string) ([]*domain.Task, error) {
	if u.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, u.opts.Timeout)
		defer cancel()
	}

	dates, err := u.households.FindImportantDates(ctx, householdID)
	if err != nil {
		return nil, fmt.Errorf("load important dates: %w", err)
	}
	if len(dates) == 0 {
		return nil, nil
	}
	existing, err := u.tasks.FindByHousehold(ctx, householdID, nil)
	if err != nil {
		return nil, fmt.Errorf("load tasks: %w", err)
	}

	titles := make(map[string]struct{}, len(existing))
	for _, t := range existing {
		titles[t.Title] = struct{}{}
	}

	today := startOfDay(u.now())
	windowEnd := today.AddDate(0, 0, u.opts.WindowDays)

	var created []*domain.Task
	for _, date := range dates {
		target := NextOccurrence(date.Date, today)
		if target.Before(today) || target.After(windowEnd) {
			continue
		}

		title := ReminderTitle(date)
		if _, dup := titles[title]; dup {
			continue
		}

		description := fmt.Sprintf("Reminder: %s on %s.", date.Title, target.Format(dateLayout))
		if date.Notes != "" {
			description += " " + date.Notes
		}
		due := target.AddDate(0, 0, -u.opts.LeadDays)

		task := &domain.Task{
			HouseholdID: householdID,
			CreatedBy:   domain.SystemUser,
			Title:       title,
			Description: description,
			Category:    domain.CategoryHousehold,
			Urgency:     domain.UrgencyMedium,
			Status:      domain.TaskStatusInbox,
			DueAt:       &due,
			Recurrence:  domain.RecurrenceNone,
		}
		if err := u.tasks.Create(ctx, task); err != nil {
			return created, fmt.Errorf("create reminder %q: %w", title, err)
		}
		titles[title] = struct{}{}
		created = append(created, task)
	}

	return created, nil
}

// sweepHousehold turns a panic inside one household into that household's error
func (u *MomentsUsecase) sweepHousehold(ctx context.Context, householdID string) (created []*domain.Task, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrHouseholdPanicked, r)
		}
	}()
	return u.GenerateMomentsTasks(ctx, householdID)
}

// RunMomentsAutomation sweeps every household in turn. A failing household
// is logged and skipped; the remaining households are still processed.
func (u *MomentsUsecase) RunMomentsAutomation(ctx context.Context) RunSummary {
	started := time.Now()
	summary := RunSummary{Failed: map[string]error{}}

	households, err := u.households.FindAll(ctx)
	if err != nil {
		log.Printf("[Moments] Error loading households: %v", err)
		summary.Failed[""] = err
		u.metrics.MomentsSwept(0, 1, time.Since(started))
		return summary
	}
	summary.Households = len(households)

	for _, h := range households {
		if ctx.Err() != nil {
			log.Printf("[Moments] Sweep interrupted: %v", ctx.Err())
			break
		}
		created, err := u.sweepHousehold(ctx, h.ID)
		summary.Created = append(summary.Created, created...)
		if err != nil {
			log.Printf("[Moments] Error processing household %s: %v", h.ID, err)
			summary.Failed[h.ID] = err
		}
	}

	if n := len(summary.Created); n > 0 {
		log.Printf("[Moments] Created %d moment tasks across %d households", n, summary.Households)
	}
	u.metrics.MomentsSwept(len(summary.Created), len(summary.Failed), time.Since(started))
	return summary
}
