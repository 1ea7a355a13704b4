package models

import (
	"encoding/json"
	"strings"
	"time"
)

// Client is one record of the client list.
type Client struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	ContactEmail string `json:"contactEmail,omitempty"`
	ContactPhone string `json:"contactPhone,omitempty"`
	Notes        string `json:"notes,omitempty"`
	Timestamps
}

// UnmarshalJSON accepts the backend's "_id" as well as "id".
func (c *Client) UnmarshalJSON(data []byte) error {
	type plain Client
	var aux struct {
		plain
		MongoID string `json:"_id"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*c = Client(aux.plain)
	if c.ID == "" {
		c.ID = aux.MongoID
	}
	return nil
}

// Matches reports whether term is a case-insensitive substring of the name
// or contact email. An empty term matches everything.
func (c Client) Matches(term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(c.Name), term) ||
		strings.Contains(strings.ToLower(c.ContactEmail), term)
}

// ClientInput is the body of POST /clients.
type ClientInput struct {
	Name         string `json:"name"`
	ContactEmail string `json:"contactEmail,omitempty"`
	ContactPhone string `json:"contactPhone,omitempty"`
	Notes        string `json:"notes,omitempty"`
}

// ClientPatch is the body of PATCH /clients/:id. Nil fields are left alone.
type ClientPatch struct {
	Name         *string    `json:"name,omitempty"`
	ContactEmail *string    `json:"contactEmail,omitempty"`
	ContactPhone *string    `json:"contactPhone,omitempty"`
	Notes        *string    `json:"notes,omitempty"`
	UpdatedAt    *time.Time `json:"-"`
}

// IsEmpty reports whether the patch changes nothing the API accepts.
func (p ClientPatch) IsEmpty() bool {
	return p.Name == nil && p.ContactEmail == nil && p.ContactPhone == nil && p.Notes == nil
}

// Apply returns c with the patch merged in.
func (p ClientPatch) Apply(c Client) Client {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.ContactEmail != nil {
		c.ContactEmail = *p.ContactEmail
	}
	if p.ContactPhone != nil {
		c.ContactPhone = *p.ContactPhone
	}
	if p.Notes != nil {
		c.Notes = *p.Notes
	}
	if p.UpdatedAt != nil {
		c.UpdatedAt = *p.UpdatedAt
	}
	return c
}

// PatchFromClient builds a patch that overwrites every mutable field with
// the server's copy of the record.
func PatchFromClient(c Client) ClientPatch {
	updated := c.UpdatedAt
	return ClientPatch{
		Name:         strPtr(c.Name),
		ContactEmail: strPtr(c.ContactEmail),
		ContactPhone: strPtr(c.ContactPhone),
		Notes:        strPtr(c.Notes),
		UpdatedAt:    &updated,
	}
}
