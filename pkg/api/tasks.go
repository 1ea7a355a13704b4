package api

import (
	"context"
	"net/http"

	"github.com/grovetools/ftrack/errors"
	"github.com/grovetools/ftrack/pkg/models"
)

// ListTasks fetches one page of a client's tasks.
func (c *Client) ListTasks(ctx context.Context, params models.TaskListParams) (*models.Page[models.Task], error) {
	q := listQuery(params.ListParams)
	q.Set("clientId", params.ClientID)
	if params.Search != "" {
		q.Set("search", params.Search)
	}

	var resp struct {
		Data  *[]models.Task `json:"data"`
		Total int            `json:"total"`
	}
	if err := c.do(ctx, request{method: http.MethodGet, path: "/tasks", query: q, auth: true}, &resp); err != nil {
		return nil, err
	}
	if resp.Data == nil {
		return nil, errors.MalformedResponse("task list missing data")
	}
	return &models.Page[models.Task]{Data: *resp.Data, Total: resp.Total}, nil
}

// CreateTask creates a task and returns the stored record.
func (c *Client) CreateTask(ctx context.Context, input models.TaskInput) (*models.Task, error) {
	var task models.Task
	if err := c.do(ctx, request{method: http.MethodPost, path: "/tasks", body: input, auth: true}, &task); err != nil {
		return nil, err
	}
	if task.ID == "" {
		return nil, errors.MalformedResponse("created task missing id")
	}
	return &task, nil
}

// UpdateTask patches a task and returns the stored record.
func (c *Client) UpdateTask(ctx context.Context, id string, patch models.TaskPatch) (*models.Task, error) {
	var task models.Task
	req := request{method: http.MethodPatch, path: "/tasks/" + escape(id), body: patch, auth: true}
	if err := c.do(ctx, req, &task); err != nil {
		return nil, err
	}
	if task.ID == "" {
		return nil, errors.MalformedResponse("updated task missing id")
	}
	return &task, nil
}

// DeleteTask deletes a task.
func (c *Client) DeleteTask(ctx context.Context, id string) error {
	return c.do(ctx, request{method: http.MethodDelete, path: "/tasks/" + escape(id), auth: true}, nil)
}
