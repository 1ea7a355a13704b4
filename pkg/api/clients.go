package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/grovetools/ftrack/errors"
	"github.com/grovetools/ftrack/pkg/models"
)

func listQuery(p models.ListParams) url.Values {
	q := url.Values{}
	q.Set("page", strconv.Itoa(p.Page))
	q.Set("limit", strconv.Itoa(p.Limit))
	if p.Sort != "" {
		q.Set("sort", p.Sort)
	}
	if p.Order != "" {
		q.Set("order", p.Order)
	}
	return q
}

// ListClients fetches one page of clients.
func (c *Client) ListClients(ctx context.Context, params models.ListParams) (*models.Page[models.Client], error) {
	var resp struct {
		Data  *[]models.Client `json:"data"`
		Total int              `json:"total"`
	}
	req := request{method: http.MethodGet, path: "/clients", query: listQuery(params), auth: true}
	if err := c.do(ctx, req, &resp); err != nil {
		return nil, err
	}
	if resp.Data == nil {
		return nil, errors.MalformedResponse("client list missing data")
	}
	return &models.Page[models.Client]{Data: *resp.Data, Total: resp.Total}, nil
}

// GetClient fetches a single client.
func (c *Client) GetClient(ctx context.Context, id string) (*models.Client, error) {
	var client models.Client
	req := request{method: http.MethodGet, path: "/clients/" + escape(id), auth: true}
	if err := c.do(ctx, req, &client); err != nil {
		if errors.Status(err) == http.StatusNotFound {
			return nil, errors.NotFound("client", id)
		}
		return nil, err
	}
	if client.ID == "" {
		return nil, errors.MalformedResponse("client missing id")
	}
	return &client, nil
}

// CreateClient creates a client and returns the stored record.
func (c *Client) CreateClient(ctx context.Context, input models.ClientInput) (*models.Client, error) {
	var client models.Client
	req := request{method: http.MethodPost, path: "/clients", body: input, auth: true}
	if err := c.do(ctx, req, &client); err != nil {
		return nil, err
	}
	if client.ID == "" {
		return nil, errors.MalformedResponse("created client missing id")
	}
	return &client, nil
}

// UpdateClient patches a client and returns the stored record.
func (c *Client) UpdateClient(ctx context.Context, id string, patch models.ClientPatch) (*models.Client, error) {
	var client models.Client
	req := request{method: http.MethodPatch, path: "/clients/" + escape(id), body: patch, auth: true}
	if err := c.do(ctx, req, &client); err != nil {
		return nil, err
	}
	if client.ID == "" {
		return nil, errors.MalformedResponse("updated client missing id")
	}
	return &client, nil
}

// DeleteClient deletes a client.
func (c *Client) DeleteClient(ctx context.Context, id string) error {
	return c.do(ctx, request{method: http.MethodDelete, path: "/clients/" + escape(id), auth: true}, nil)
}
