package models

import (
	"encoding/json"
	"time"
)

// TaskStatus is the lifecycle state of a task.
type TaskStatus string

const (
	TaskActive    TaskStatus = "active"
	TaskCompleted TaskStatus = "completed"
	TaskArchived  TaskStatus = "archived"
)

// TaskStatuses lists the accepted statuses in display order.
var TaskStatuses = []TaskStatus{TaskActive, TaskCompleted, TaskArchived}

// Valid reports whether s is a known status.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskActive, TaskCompleted, TaskArchived:
		return true
	}
	return false
}

// Task belongs to exactly one client.
type Task struct {
	ID          string     `json:"id"`
	ClientID    string     `json:"clientId"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Status      TaskStatus `json:"status"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	Timestamps
}

// UnmarshalJSON accepts the backend's "_id" as well as "id".
func (t *Task) UnmarshalJSON(data []byte) error {
	type plain Task
	var aux struct {
		plain
		MongoID string `json:"_id"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*t = Task(aux.plain)
	if t.ID == "" {
		t.ID = aux.MongoID
	}
	return nil
}

// TaskInput is the body of POST /tasks.
type TaskInput struct {
	ClientID    string     `json:"clientId"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Status      TaskStatus `json:"status,omitempty"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
}

// TaskPatch is the body of PATCH /tasks/:id. Nil fields are left alone.
type TaskPatch struct {
	Name        *string     `json:"name,omitempty"`
	Description *string     `json:"description,omitempty"`
	Status      *TaskStatus `json:"status,omitempty"`
	DueDate     *time.Time  `json:"dueDate,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p TaskPatch) IsEmpty() bool {
	return p.Name == nil && p.Description == nil && p.Status == nil && p.DueDate == nil
}

// Apply returns t with the patch merged in.
func (p TaskPatch) Apply(t Task) Task {
	if p.Name != nil {
		t.Name = *p.Name
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.DueDate != nil {
		due := *p.DueDate
		t.DueDate = &due
	}
	return t
}

// TaskListParams are the query parameters of GET /tasks.
type TaskListParams struct {
	ListParams
	ClientID string
	Search   string
}
