// Package tasks keeps the task list of one client. Search and sort run on
// the server; updates are applied locally before the server confirms them.
package tasks

import (
	"context"
	"strings"
	"sync"

	"github.com/grovetools/ftrack/errors"
	"github.com/grovetools/ftrack/logging"
	"github.com/grovetools/ftrack/pkg/models"
	"github.com/sirupsen/logrus"
)

// PageSize matches the client list.
const PageSize = 20

// SortKeys are the fields the backend can sort tasks by.
var SortKeys = []string{"createdAt", "updatedAt", "name", "status", "dueDate"}

// Default query.
const (
	DefaultSort  = "createdAt"
	DefaultOrder = models.OrderDesc
)

// API is the subset of the backend client the cache needs.
type API interface {
	ListTasks(ctx context.Context, params models.TaskListParams) (*models.Page[models.Task], error)
	CreateTask(ctx context.Context, input models.TaskInput) (*models.Task, error)
	UpdateTask(ctx context.Context, id string, patch models.TaskPatch) (*models.Task, error)
	DeleteTask(ctx context.Context, id string) error
}

// Query selects and orders the task list.
type Query struct {
	Sort   string
	Order  string
	Search string
}

// Validate checks the sort key and order.
func (q Query) Validate() error {
	if !validSortKey(q.Sort) {
		return errors.InvalidInput("unknown task sort " + q.Sort + " (use one of " + strings.Join(SortKeys, ", ") + ")")
	}
	if !models.ValidOrder(q.Order) {
		return errors.InvalidInput("order must be asc or desc")
	}
	return nil
}

func validSortKey(key string) bool {
	for _, k := range SortKeys {
		if k == key {
			return true
		}
	}
	return false
}

// Cache holds the loaded tasks of one client.
type Cache struct {
	api      API
	clientID string
	logger   *logrus.Entry

	mu         sync.Mutex
	tasks      []models.Task
	query      Query
	page       int
	total      int
	hasMore    bool
	loading    bool
	generation uint64
}

// Option configures a Cache.
type Option func(*Cache)

// WithLogger sets the logger.
func WithLogger(l *logrus.Entry) Option {
	return func(c *Cache) { c.logger = l }
}

// NewCache creates an empty cache for clientID.
func NewCache(api API, clientID string, opts ...Option) *Cache {
	c := &Cache{
		api:      api,
		clientID: clientID,
		query:    Query{Sort: DefaultSort, Order: DefaultOrder},
		hasMore:  true,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logging.NewLogger("tasks")
	}
	c.logger = c.logger.WithField("client", clientID)
	return c
}

// ClientID returns the client the cache belongs to.
func (c *Cache) ClientID() string {
	return c.clientID
}

// SetQuery changes sort, order and search and reloads page 1. Empty sort or
// order keep the defaults.
func (c *Cache) SetQuery(ctx context.Context, q Query) error {
	if q.Sort == "" {
		q.Sort = DefaultSort
	}
	if q.Order == "" {
		q.Order = DefaultOrder
	}
	if err := q.Validate(); err != nil {
		return err
	}
	c.mu.Lock()
	c.query = q
	c.generation++
	c.tasks = nil
	c.loading = false
	c.mu.Unlock()
	return c.LoadFirstPage(ctx)
}

// LoadFirstPage replaces the loaded tasks with page 1.
func (c *Cache) LoadFirstPage(ctx context.Context) error {
	c.mu.Lock()
	c.generation++
	gen := c.generation
	q := c.query
	c.loading = true
	c.mu.Unlock()

	result, err := c.api.ListTasks(ctx, c.params(1, q))

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		return nil
	}
	c.loading = false
	if err != nil {
		c.hasMore = false
		c.logger.WithError(err).Warn("Failed to load tasks")
		return err
	}
	c.tasks = append([]models.Task(nil), result.Data...)
	c.page = 1
	c.total = result.Total
	c.hasMore = len(result.Data) == PageSize
	return nil
}

// LoadNextPage appends the next page. It returns false without fetching
// while a load is running or when no more pages exist.
func (c *Cache) LoadNextPage(ctx context.Context) (loaded bool, err error) {
	c.mu.Lock()
	if c.loading || !c.hasMore {
		c.mu.Unlock()
		return false, nil
	}
	c.loading = true
	gen := c.generation
	next := c.page + 1
	q := c.query
	c.mu.Unlock()

	result, err := c.api.ListTasks(ctx, c.params(next, q))

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		return false, nil
	}
	c.loading = false
	if err != nil {
		c.logger.WithError(err).WithField("page", next).Warn("Failed to load tasks")
		return false, err
	}

	seen := make(map[string]struct{}, len(c.tasks))
	for _, t := range c.tasks {
		seen[t.ID] = struct{}{}
	}
	for _, t := range result.Data {
		if _, dup := seen[t.ID]; !dup {
			c.tasks = append(c.tasks, t)
		}
	}
	c.page = next
	c.total = result.Total
	c.hasMore = len(result.Data) == PageSize
	return true, nil
}

// LoadAll keeps loading pages until the server reports no more.
func (c *Cache) LoadAll(ctx context.Context) error {
	if err := c.LoadFirstPage(ctx); err != nil {
		return err
	}
	for {
		loaded, err := c.LoadNextPage(ctx)
		if err != nil {
			return err
		}
		if !loaded {
			return nil
		}
	}
}

func (c *Cache) params(page int, q Query) models.TaskListParams {
	return models.TaskListParams{
		ListParams: models.ListParams{Page: page, Limit: PageSize, Sort: q.Sort, Order: q.Order},
		ClientID:   c.clientID,
		Search:     q.Search,
	}
}

// Tasks returns the loaded tasks in server order.
func (c *Cache) Tasks() []models.Task {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.Task(nil), c.tasks...)
}

// ByStatus returns the loaded tasks with the given status.
func (c *Cache) ByStatus(status models.TaskStatus) []models.Task {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []models.Task
	for _, t := range c.tasks {
		if t.Status == status {
			out = append(out, t)
		}
	}
	return out
}

// Status is a point-in-time view of the paging state.
type Status struct {
	Query   Query
	Page    int
	Loaded  int
	Total   int
	HasMore bool
	Loading bool
}

// Status returns the current paging state.
func (c *Cache) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Status{
		Query:   c.query,
		Page:    c.page,
		Loaded:  len(c.tasks),
		Total:   c.total,
		HasMore: c.hasMore,
		Loading: c.loading,
	}
}

// Create adds a task to the client and reloads page 1.
func (c *Cache) Create(ctx context.Context, input models.TaskInput) (*models.Task, error) {
	input.ClientID = c.clientID
	if strings.TrimSpace(input.Name) == "" {
		return nil, errors.InvalidInput("task name is required")
	}
	if input.Status == "" {
		input.Status = models.TaskActive
	}
	if !input.Status.Valid() {
		return nil, invalidStatus(input.Status)
	}

	created, err := c.api.CreateTask(ctx, input)
	if err != nil {
		return nil, err
	}
	c.logger.WithField("task", created.ID).Info("Task created")
	return created, c.LoadFirstPage(ctx)
}

// Update applies patch locally first, then sends it. A failed request is
// not rolled back; the error is returned and the next reload shows the
// server's state. On success the server's record replaces the local one.
func (c *Cache) Update(ctx context.Context, id string, patch models.TaskPatch) (*models.Task, error) {
	if patch.IsEmpty() {
		return nil, errors.InvalidInput("nothing to update")
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return nil, invalidStatus(*patch.Status)
	}
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return nil, errors.InvalidInput("task name cannot be empty")
	}

	c.replace(id, patch.Apply)

	updated, err := c.api.UpdateTask(ctx, id, patch)
	if err != nil {
		c.logger.WithError(err).WithField("task", id).Warn("Task update failed")
		return nil, err
	}
	c.replace(id, func(models.Task) models.Task { return *updated })
	return updated, nil
}

func (c *Cache) replace(id string, fn func(models.Task) models.Task) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.tasks {
		if c.tasks[i].ID == id {
			c.tasks[i] = fn(c.tasks[i])
			return
		}
	}
}

// Delete removes a task on the server and then locally.
func (c *Cache) Delete(ctx context.Context, id string) error {
	if err := c.api.DeleteTask(ctx, id); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.tasks {
		if c.tasks[i].ID == id {
			c.tasks = append(c.tasks[:i:i], c.tasks[i+1:]...)
			if c.total > 0 {
				c.total--
			}
			break
		}
	}
	c.logger.WithField("task", id).Info("Task deleted")
	return nil
}

func invalidStatus(s models.TaskStatus) error {
	names := make([]string, len(models.TaskStatuses))
	for i, st := range models.TaskStatuses {
		names[i] = string(st)
	}
	return errors.InvalidInput("invalid task status " + string(s) + " (use one of " + strings.Join(names, ", ") + ")")
}
