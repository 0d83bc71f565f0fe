package domain

import "time"

// SystemUser is the creator recorded on tasks generated by automation
const SystemUser = "system"

// TaskStatus represents the current state of a task
type TaskStatus string

const (
	TaskStatusInbox           TaskStatus = "INBOX"
	TaskStatusPlanned         TaskStatus = "PLANNED"
	TaskStatusInProgress      TaskStatus = "IN_PROGRESS"
	TaskStatusWaitingOnClient TaskStatus = "WAITING_ON_CLIENT"
	TaskStatusDone            TaskStatus = "DONE"
	TaskStatusCancelled       TaskStatus = "CANCELLED"
)

// IsTerminal reports whether no further transition is allowed from s
func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusDone || s == TaskStatusCancelled
}

// Valid reports whether s is a known status
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusInbox, TaskStatusPlanned, TaskStatusInProgress,
		TaskStatusWaitingOnClient, TaskStatusDone, TaskStatusCancelled:
		return true
	}
	return false
}

// Category is the service area a task belongs to
type Category string

const (
	CategoryHousehold   Category = "HOUSEHOLD"
	CategoryErrands     Category = "ERRANDS"
	CategoryMaintenance Category = "MAINTENANCE"
	CategoryGroceries   Category = "GROCERIES"
	CategoryKids        Category = "KIDS"
	CategoryPets        Category = "PETS"
	CategoryEvents      Category = "EVENTS"
	CategoryOther       Category = "OTHER"
)

// Urgency represents task urgency level
type Urgency string

const (
	UrgencyLow    Urgency = "LOW"
	UrgencyMedium Urgency = "MEDIUM"
	UrgencyHigh   Urgency = "HIGH"
)

// Recurrence is the repeat rule of a task
type Recurrence string

const (
	RecurrenceNone     Recurrence = "none"
	RecurrenceDaily    Recurrence = "daily"
	RecurrenceWeekly   Recurrence = "weekly"
	RecurrenceBiweekly Recurrence = "biweekly"
	RecurrenceMonthly  Recurrence = "monthly"
	RecurrenceCustom   Recurrence = "custom"
)

// IsRecurring reports whether r generates successors
func (r Recurrence) IsRecurring() bool {
	return r != "" && r != RecurrenceNone
}

// Task is a unit of household work. Recurring tasks form a series linked
// by RecurrenceGroupID, numbered by RecurrenceOccurrence.
type Task struct {
	ID          string     `json:"id" gorm:"primaryKey"`
	HouseholdID string     `json:"household_id" gorm:"index;not null"`
	CreatedBy   string     `json:"created_by" gorm:"not null"`
	AssignedTo  *string    `json:"assigned_to,omitempty" gorm:"index"`
	Title       string     `json:"title" gorm:"not null"`
	Description string     `json:"description,omitempty"`
	Category    Category   `json:"category" gorm:"default:OTHER"`
	Urgency     Urgency    `json:"urgency" gorm:"default:MEDIUM"`
	Location    string     `json:"location,omitempty"`
	Notes       string     `json:"notes,omitempty"`
	Status      TaskStatus `json:"status" gorm:"index;default:INBOX"`
	DueAt       *time.Time `json:"due_at,omitempty"`

	Recurrence           Recurrence `json:"recurrence" gorm:"default:none"`
	RecurrenceCustomDays *int       `json:"recurrence_custom_days,omitempty"`
	RecurrenceGroupID    *string    `json:"recurrence_group_id,omitempty" gorm:"index"`
	RecurrenceOccurrence *int       `json:"recurrence_occurrence,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Occurrence returns the 1-based position of the task in its series
func (t *Task) Occurrence() int {
	if t.RecurrenceOccurrence == nil || *t.RecurrenceOccurrence < 1 {
		return 1
	}
	return *t.RecurrenceOccurrence
}

// IsAssignedTo reports whether the task is assigned to userID
func (t *Task) IsAssignedTo(userID string) bool {
	return t.AssignedTo != nil && *t.AssignedTo == userID
}

// TaskPatch is a partial update; nil fields are left unchanged
type TaskPatch struct {
	Title             *string     `json:"title,omitempty"`
	Description       *string     `json:"description,omitempty"`
	Status            *TaskStatus `json:"status,omitempty"`
	DueAt             *time.Time  `json:"due_at,omitempty"`
	AssignedTo        *string     `json:"assigned_to,omitempty"`
	RecurrenceGroupID *string     `json:"recurrence_group_id,omitempty"`
}

// Apply copies the set fields of p onto t
func (p TaskPatch) Apply(t *Task) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.DueAt != nil {
		due := *p.DueAt
		t.DueAt = &due
	}
	if p.AssignedTo != nil {
		assignee := *p.AssignedTo
		t.AssignedTo = &assignee
	}
	if p.RecurrenceGroupID != nil {
		group := *p.RecurrenceGroupID
		t.RecurrenceGroupID = &group
	}
}

// Columns returns the patch as a column map for persistence layers
func (p TaskPatch) Columns() map[string]interface{} {
	cols := map[string]interface{}{}
	if p.Title != nil {
		cols["title"] = *p.Title
	}
	if p.Description != nil {
		cols["description"] = *p.Description
	}
	if p.Status != nil {
		cols["status"] = *p.Status
	}
	if p.DueAt != nil {
		cols["due_at"] = *p.DueAt
	}
	if p.AssignedTo != nil {
		cols["assigned_to"] = *p.AssignedTo
	}
	if p.RecurrenceGroupID != nil {
		cols["recurrence_group_id"] = *p.RecurrenceGroupID
	}
	return cols
}
