// Package clients keeps the paginated client list: pages loaded so far, the
// chosen sort, a local search filter, and the shared first-page copy other
// views read.
package clients

import (
	"context"
	"strings"
	"sync"

	"github.com/grovetools/ftrack/errors"
	"github.com/grovetools/ftrack/internal/store"
	"github.com/grovetools/ftrack/logging"
	"github.com/grovetools/ftrack/pkg/models"
	"github.com/grovetools/ftrack/state"
	"github.com/sirupsen/logrus"
)

// PageSize is the fixed number of clients requested per page. A page with
// exactly this many records means more may follow.
const PageSize = 20

// storeSource tags shared store updates made by the cache.
const storeSource = "clients"

// API is the subset of the backend client the cache needs.
type API interface {
	ListClients(ctx context.Context, params models.ListParams) (*models.Page[models.Client], error)
	GetClient(ctx context.Context, id string) (*models.Client, error)
	CreateClient(ctx context.Context, input models.ClientInput) (*models.Client, error)
	UpdateClient(ctx context.Context, id string, patch models.ClientPatch) (*models.Client, error)
	DeleteClient(ctx context.Context, id string) error
}

// Cache holds the loaded client pages.
//
// Every fetch records the cache generation it started in. LoadFirstPage,
// ChangeSort and AddRecord start a new generation, so a fetch that finishes
// after one of them is discarded without touching any state.
type Cache struct {
	api     API
	shared  *store.Store
	durable state.Store
	logger  *logrus.Entry

	mu          sync.Mutex
	pages       [][]models.Client
	sort        models.SortOption
	search      string
	page        int
	hasMore     bool
	loadingMore bool
	generation  uint64
	sentinel    Sentinel
}

// Option configures a Cache.
type Option func(*Cache)

// WithLogger sets the logger.
func WithLogger(l *logrus.Entry) Option {
	return func(c *Cache) { c.logger = l }
}

// NewCache creates an empty cache using the default sort. Mount loads the
// persisted sort and the first page.
func NewCache(api API, shared *store.Store, durable state.Store, opts ...Option) *Cache {
	c := &Cache{
		api:     api,
		shared:  shared,
		durable: durable,
		sort:    models.DefaultClientSort(),
		hasMore: true,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logging.NewLogger("clients")
	}
	return c
}

// Mount prepares the list for display. The shared first page is reused when
// it was loaded with the persisted sort and is not empty; otherwise page 1
// is fetched. reused reports which happened.
func (c *Cache) Mount(ctx context.Context) (reused bool, err error) {
	opt := LoadSort(ctx, c.durable, c.logger)

	snap := c.shared.Get()
	c.mu.Lock()
	c.sort = opt
	if len(snap.Clients) > 0 && sameSort(snap.ClientsSort, opt) {
		c.generation++
		c.pages = [][]models.Client{snap.Clients}
		c.page = 1
		c.hasMore = len(snap.Clients) == PageSize
		c.loadingMore = false
		c.sentinel.Rearm()
		c.mu.Unlock()
		c.logger.WithField("count", len(snap.Clients)).Debug("Reusing cached first page")
		return true, nil
	}
	c.mu.Unlock()

	return false, c.LoadFirstPage(ctx)
}

// LoadFirstPage fetches page 1 with the current sort and replaces every
// loaded page with it. The result is mirrored into the shared store. While
// the fetch runs, next page loads are blocked. On failure the loaded pages
// are kept and loading stops.
func (c *Cache) LoadFirstPage(ctx context.Context) error {
	c.mu.Lock()
	c.generation++
	gen := c.generation
	opt := c.sort
	c.page = 1
	c.hasMore = true
	c.loadingMore = true
	c.mu.Unlock()

	log := c.logger.WithField("sort", opt.Label)
	log.Debug("Loading first page")
	result, err := c.api.ListClients(ctx, listParams(1, opt))

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation {
		log.Debug("Discarding stale first page")
		return nil
	}
	c.loadingMore = false
	if err != nil {
		c.hasMore = false
		log.WithError(err).Warn("Failed to load clients")
		return err
	}

	first := append([]models.Client(nil), result.Data...)
	c.pages = [][]models.Client{first}
	c.hasMore = len(result.Data) == PageSize
	c.sentinel.Rearm()
	c.shared.SetClients(storeSource, first, opt)
	log.WithField("count", len(first)).Debug("Loaded first page")
	return nil
}

// LoadNextPage fetches the page after the last loaded one and appends it.
// It is a no-op returning false when a load is already running or no more
// pages exist. Records already loaded are not appended twice. On failure
// the loaded pages are kept.
func (c *Cache) LoadNextPage(ctx context.Context) (loaded bool, err error) {
	c.mu.Lock()
	if c.loadingMore || !c.hasMore {
		c.mu.Unlock()
		return false, nil
	}
	c.loadingMore = true
	gen := c.generation
	next := c.page + 1
	opt := c.sort
	c.mu.Unlock()

	log := c.logger.WithField("page", next)
	result, err := c.api.ListClients(ctx, listParams(next, opt))

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation {
		log.Debug("Discarding stale page")
		return false, nil
	}
	c.loadingMore = false
	if err != nil {
		log.WithError(err).Warn("Failed to load next page")
		return false, err
	}

	c.pages = append(c.pages, withoutLoaded(c.pages, result.Data))
	c.page = next
	c.hasMore = len(result.Data) == PageSize
	c.sentinel.Rearm()
	log.WithField("count", len(result.Data)).Debug("Loaded page")
	return true, nil
}

// ChangeSort persists opt, drops every loaded page and reloads page 1. Only
// options from the sort menu are accepted.
func (c *Cache) ChangeSort(ctx context.Context, opt models.SortOption) error {
	canonical, ok := models.FindClientSort(opt.Sort, opt.Order)
	if !ok {
		return errors.InvalidInput("unknown sort " + opt.Sort + ":" + opt.Order)
	}
	if err := SaveSort(ctx, c.durable, canonical); err != nil {
		c.logger.WithError(err).Warn("Failed to persist sort preference")
	}

	c.mu.Lock()
	c.generation++
	c.sort = canonical
	c.pages = nil
	c.page = 1
	c.hasMore = true
	c.loadingMore = false
	c.mu.Unlock()

	return c.LoadFirstPage(ctx)
}

// Search sets the local filter applied by Filtered. It never fetches.
func (c *Cache) Search(term string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.search = term
}

// Filtered returns the loaded clients matching the search term, in page
// order.
func (c *Cache) Filtered() []models.Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []models.Client
	for _, page := range c.pages {
		for _, client := range page {
			if client.Matches(c.search) {
				out = append(out, client)
			}
		}
	}
	return out
}

// All returns every loaded client in page order.
func (c *Cache) All() []models.Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []models.Client
	for _, page := range c.pages {
		out = append(out, page...)
	}
	return out
}

// Pages returns a copy of the loaded pages.
func (c *Cache) Pages() [][]models.Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([][]models.Client, len(c.pages))
	for i, page := range c.pages {
		out[i] = append([]models.Client(nil), page...)
	}
	return out
}

// Status is a point-in-time view of the cache's paging state.
type Status struct {
	Sort        models.SortOption
	Search      string
	Page        int
	Loaded      int
	HasMore     bool
	LoadingMore bool
}

// Status returns the current paging state.
func (c *Cache) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	loaded := 0
	for _, page := range c.pages {
		loaded += len(page)
	}
	return Status{
		Sort:        c.sort,
		Search:      c.search,
		Page:        c.page,
		Loaded:      loaded,
		HasMore:     c.hasMore,
		LoadingMore: c.loadingMore,
	}
}

// Create adds a client on the server, then reloads the list sorted newest
// first so the new record shows where the server puts it. The created
// record is returned even if the reload fails.
func (c *Cache) Create(ctx context.Context, input models.ClientInput) (*models.Client, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, errors.InvalidInput("client name is required")
	}
	created, err := c.api.CreateClient(ctx, input)
	if err != nil {
		return nil, err
	}
	c.logger.WithField("client", created.ID).Info("Client created")
	return created, c.AddRecord(ctx)
}

// AddRecord switches to the default newest-first sort, persists it and
// reloads page 1.
func (c *Cache) AddRecord(ctx context.Context) error {
	opt := models.DefaultClientSort()
	if err := SaveSort(ctx, c.durable, opt); err != nil {
		c.logger.WithError(err).Warn("Failed to persist sort preference")
	}
	c.mu.Lock()
	c.generation++
	c.sort = opt
	c.loadingMore = false
	c.mu.Unlock()
	return c.LoadFirstPage(ctx)
}

// Update patches a client on the server and applies the server's copy to
// the cache.
func (c *Cache) Update(ctx context.Context, id string, patch models.ClientPatch) (*models.Client, error) {
	if patch.IsEmpty() {
		return nil, errors.InvalidInput("nothing to update")
	}
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return nil, errors.InvalidInput("client name cannot be empty")
	}
	updated, err := c.api.UpdateClient(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	c.UpdateRecord(id, models.PatchFromClient(*updated))
	return updated, nil
}

// UpdateRecord applies patch to the client with id in every loaded page.
// When the client is on the first page the shared copy is patched too.
// found reports whether any loaded page held the client.
func (c *Cache) UpdateRecord(id string, patch models.ClientPatch) (found bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	inFirst := false
	for i, page := range c.pages {
		for j := range page {
			if page[j].ID != id {
				continue
			}
			page[j] = patch.Apply(page[j])
			found = true
			if i == 0 {
				inFirst = true
			}
		}
	}
	if inFirst {
		c.shared.UpdateClient(storeSource, id, patch)
	}
	return found
}

// Delete removes a client on the server and then from the cache.
func (c *Cache) Delete(ctx context.Context, id string) error {
	if err := c.api.DeleteClient(ctx, id); err != nil {
		return err
	}
	c.logger.WithField("client", id).Info("Client deleted")
	c.DeleteRecord(id)
	return nil
}

// DeleteRecord removes the client with id from every loaded page. When it
// was on the first page it is removed from the shared copy too. found
// reports whether any loaded page held the client.
func (c *Cache) DeleteRecord(id string) (found bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	inFirst := false
	for i, page := range c.pages {
		kept := page[:0:0]
		for _, client := range page {
			if client.ID == id {
				found = true
				if i == 0 {
					inFirst = true
				}
				continue
			}
			kept = append(kept, client)
		}
		c.pages[i] = kept
	}
	if inFirst {
		c.shared.RemoveClient(storeSource, id)
	}
	return found
}

// Get returns a client from the shared first page, the loaded pages, or the
// server, in that order.
func (c *Cache) Get(ctx context.Context, id string) (*models.Client, error) {
	for _, client := range c.shared.Get().Clients {
		if client.ID == id {
			return &client, nil
		}
	}

	c.mu.Lock()
	for _, page := range c.pages {
		for _, client := range page {
			if client.ID == id {
				c.mu.Unlock()
				return &client, nil
			}
		}
	}
	c.mu.Unlock()

	return c.api.GetClient(ctx, id)
}

// OnSentinel reports the visibility of the end-of-list marker and loads the
// next page when the sentinel fires.
func (c *Cache) OnSentinel(ctx context.Context, visible bool) (loaded bool, err error) {
	if !c.ObserveSentinel(visible) {
		return false, nil
	}
	return c.LoadNextPage(ctx)
}

// ObserveSentinel records the marker's visibility without loading anything.
// When it returns true the caller must start LoadNextPage.
func (c *Cache) ObserveSentinel(visible bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sentinel.Observe(visible, c.hasMore, c.loadingMore)
}

func listParams(page int, opt models.SortOption) models.ListParams {
	return models.ListParams{Page: page, Limit: PageSize, Sort: opt.Sort, Order: opt.Order}
}

func sameSort(a, b models.SortOption) bool {
	return a.Sort == b.Sort && a.Order == b.Order
}

// withoutLoaded returns the records of next whose ids are not already in
// pages or earlier in next.
func withoutLoaded(pages [][]models.Client, next []models.Client) []models.Client {
	seen := make(map[string]struct{})
	for _, page := range pages {
		for _, client := range page {
			seen[client.ID] = struct{}{}
		}
	}
	out := make([]models.Client, 0, len(next))
	for _, client := range next {
		if _, dup := seen[client.ID]; dup {
			continue
		}
		seen[client.ID] = struct{}{}
		out = append(out, client)
	}
	return out
}
