package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/grovetools/ftrack/pkg/models"
)

// SeedBase is the createdAt of the first seeded client. Later clients are
// one minute apart.
var SeedBase = time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)

// Backend is an in-memory fake of the REST API served over httptest.
type Backend struct {
	Server *httptest.Server

	// Now is the backend's clock, used for token expiry and timestamps.
	Now      func() time.Time
	TokenTTL time.Duration

	mu       sync.Mutex
	accounts map[string]*account
	access   map[string]string
	refresh  map[string]string
	clients  []models.Client
	tasks    []models.Task
	calls    map[string]int

	refreshStatus    int
	refreshMalformed bool
	logoutStatus     int
	listStatus       map[int]int
	listHook         func(page int)
}

type account struct {
	user     models.User
	password string
}

// NewBackend starts a fake API and stops it when the test ends.
func NewBackend(t testing.TB) *Backend {
	t.Helper()
	b := &Backend{
		Now:        time.Now,
		TokenTTL:   time.Hour,
		accounts:   make(map[string]*account),
		access:     make(map[string]string),
		refresh:    make(map[string]string),
		calls:      make(map[string]int),
		listStatus: make(map[int]int),
	}
	b.Server = httptest.NewServer(b.router())
	t.Cleanup(b.Server.Close)
	return b
}

// URL is the API base URL.
func (b *Backend) URL() string {
	return b.Server.URL
}

func (b *Backend) router() http.Handler {
	r := chi.NewRouter()
	r.Use(b.countCalls)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", b.handleLogin)
		r.Post("/signup", b.handleSignup)
		r.Post("/google", b.handleGoogle)
		r.Post("/refresh-token", b.handleRefresh)
		r.With(b.bearerAuth).Post("/logout", b.handleLogout)
	})

	r.Group(func(r chi.Router) {
		r.Use(b.bearerAuth)
		r.Route("/clients", func(r chi.Router) {
			r.Get("/", b.handleListClients)
			r.Post("/", b.handleCreateClient)
			r.Get("/{id}", b.handleGetClient)
			r.Patch("/{id}", b.handleUpdateClient)
			r.Delete("/{id}", b.handleDeleteClient)
		})
		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", b.handleListTasks)
			r.Post("/", b.handleCreateTask)
			r.Patch("/{id}", b.handleUpdateTask)
			r.Delete("/{id}", b.handleDeleteTask)
		})
	})
	return r
}

// Route keys passed to Calls look like "POST /auth/refresh-token" or
// "GET /clients/{id}". Counted before the handler runs.
func (b *Backend) countCalls(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.calls[routeKey(r)]++
		b.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func routeKey(r *http.Request) string {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) == 2 && (parts[0] == "clients" || parts[0] == "tasks") {
		parts[1] = "{id}"
	}
	return r.Method + " /" + strings.Join(parts, "/")
}

func (b *Backend) bearerAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		b.mu.Lock()
		_, ok := b.access[token]
		b.mu.Unlock()
		if token == "" || !ok {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ---- setup and inspection ----

// AddUser registers an account and returns its user.
func (b *Backend) AddUser(name, email, password string) models.User {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.addUserLocked(name, email, password)
}

func (b *Backend) addUserLocked(name, email, password string) models.User {
	user := models.User{ID: strconv.Itoa(len(b.accounts) + 1), Name: name, Email: email}
	b.accounts[strings.ToLower(email)] = &account{user: user, password: password}
	return user
}

// IssueTokens mints an access/refresh pair for a user as if they had logged in.
func (b *Backend) IssueTokens(userID string) (accessToken, refreshToken string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.issueLocked(userID)
}

func (b *Backend) issueLocked(userID string) (string, string) {
	accessToken := "at-" + uuid.NewString()
	refreshToken := "rt-" + uuid.NewString()
	b.access[accessToken] = userID
	b.refresh[refreshToken] = userID
	return accessToken, refreshToken
}

// SeedClients replaces the client list with n deterministic records c1..cn.
func (b *Backend) SeedClients(n int) []models.Client {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.clients = make([]models.Client, 0, n)
	for i := 1; i <= n; i++ {
		ts := SeedBase.Add(time.Duration(i) * time.Minute)
		b.clients = append(b.clients, models.Client{
			ID:           fmt.Sprintf("c%d", i),
			Name:         fmt.Sprintf("Client %03d", i),
			ContactEmail: fmt.Sprintf("contact%d@example.com", i),
			Timestamps:   models.Timestamps{CreatedAt: ts, UpdatedAt: ts},
		})
	}
	return append([]models.Client(nil), b.clients...)
}

// InsertClient adds a record server-side without going through the API.
func (b *Backend) InsertClient(c models.Client) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.clients = append(b.clients, c)
}

// SeedTasks adds tasks for a client.
func (b *Backend) SeedTasks(clientID string, names ...string) []models.Task {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []models.Task
	for i, name := range names {
		ts := SeedBase.Add(time.Duration(i) * time.Hour)
		task := models.Task{
			ID:         fmt.Sprintf("%s-t%d", clientID, len(b.tasks)+1),
			ClientID:   clientID,
			Name:       name,
			Status:     models.TaskActive,
			Timestamps: models.Timestamps{CreatedAt: ts, UpdatedAt: ts},
		}
		b.tasks = append(b.tasks, task)
		out = append(out, task)
	}
	return out
}

// Clients returns a copy of the server-side client list.
func (b *Backend) Clients() []models.Client {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]models.Client(nil), b.clients...)
}

// Tasks returns a copy of the server-side task list.
func (b *Backend) Tasks() []models.Task {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]models.Task(nil), b.tasks...)
}

// Calls returns how many requests hit a route.
func (b *Backend) Calls(route string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[route]
}

// ValidRefreshToken reports whether the backend still honours token.
func (b *Backend) ValidRefreshToken(token string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.refresh[token]
	return ok
}

// FailRefresh makes /auth/refresh-token answer with status (0 restores it).
func (b *Backend) FailRefresh(status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refreshStatus = status
}

// MalformedRefresh makes /auth/refresh-token answer 200 without a token.
func (b *Backend) MalformedRefresh(on bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refreshMalformed = on
}

// FailLogout makes /auth/logout answer with status (0 restores it).
func (b *Backend) FailLogout(status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.logoutStatus = status
}

// FailListPage makes GET /clients fail with status for one page number.
func (b *Backend) FailListPage(page, status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if status == 0 {
		delete(b.listStatus, page)
		return
	}
	b.listStatus[page] = status
}

// OnList registers a hook run before GET /clients responds. It runs without
// the backend lock held, so it may block.
func (b *Backend) OnList(hook func(page int)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listHook = hook
}

// ---- auth ----

func (b *Backend) authResponse(user models.User) models.AuthResponse {
	accessToken, refreshToken := b.issueLocked(user.ID)
	return models.AuthResponse{
		User:         &user,
		Token:        accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    b.Now().Add(b.TokenTTL).UnixMilli(),
	}
}

func (b *Backend) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req models.Credentials
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	acct, ok := b.accounts[strings.ToLower(req.Email)]
	if !ok || acct.password != req.Password {
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	writeJSON(w, http.StatusOK, b.authResponse(acct.user))
}

func (b *Backend) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req models.SignupRequest
	if err := decodeJSON(r, &req); err != nil || req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "name, email and password are required")
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.accounts[strings.ToLower(req.Email)]; exists {
		writeError(w, http.StatusConflict, "Email already registered")
		return
	}
	user := b.addUserLocked(req.Name, req.Email, req.Password)
	writeJSON(w, http.StatusCreated, b.authResponse(user))
}

// GoogleIDToken is the only ID token the fake accepts.
const GoogleIDToken = "google-id-token"

func (b *Backend) handleGoogle(w http.ResponseWriter, r *http.Request) {
	var req models.GoogleLoginRequest
	if err := decodeJSON(r, &req); err != nil || req.IDToken != GoogleIDToken {
		writeError(w, http.StatusUnauthorized, "Invalid Google token")
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	acct, ok := b.accounts["google-user@example.com"]
	if !ok {
		b.addUserLocked("Google User", "google-user@example.com", "")
		acct = b.accounts["google-user@example.com"]
	}
	writeJSON(w, http.StatusOK, b.authResponse(acct.user))
}

func (b *Backend) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req models.RefreshRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.refreshStatus != 0 {
		writeError(w, b.refreshStatus, "Refresh failed")
		return
	}
	if b.refreshMalformed {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}
	userID, ok := b.refresh[req.RefreshToken]
	if !ok {
		writeError(w, http.StatusUnauthorized, "Invalid refresh token")
		return
	}
	accessToken := "at-" + uuid.NewString()
	b.access[accessToken] = userID
	writeJSON(w, http.StatusOK, models.RefreshResponse{
		Token:     accessToken,
		ExpiresAt: b.Now().Add(b.TokenTTL).UnixMilli(),
	})
}

func (b *Backend) handleLogout(w http.ResponseWriter, r *http.Request) {
	var req models.RefreshRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.logoutStatus != 0 {
		writeError(w, b.logoutStatus, "Logout failed")
		return
	}
	delete(b.refresh, req.RefreshToken)
	delete(b.access, strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "))
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

// ---- clients ----

func (b *Backend) handleListClients(w http.ResponseWriter, r *http.Request) {
	page, limit := pagination(r)

	b.mu.Lock()
	hook := b.listHook
	status := b.listStatus[page]
	b.mu.Unlock()

	if hook != nil {
		hook(page)
	}
	if status != 0 {
		writeError(w, status, "List failed")
		return
	}

	b.mu.Lock()
	sorted := append([]models.Client(nil), b.clients...)
	b.mu.Unlock()

	key := r.URL.Query().Get("sort")
	sort.SliceStable(sorted, func(i, j int) bool {
		switch key {
		case "name":
			return strings.ToLower(sorted[i].Name) < strings.ToLower(sorted[j].Name)
		case "updatedAt":
			return sorted[i].UpdatedAt.Before(sorted[j].UpdatedAt)
		default:
			return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
		}
	})
	if r.URL.Query().Get("order") == models.OrderDesc {
		reverse(sorted)
	}

	writeJSON(w, http.StatusOK, models.Page[models.Client]{
		Data:  paginate(sorted, page, limit),
		Total: len(sorted),
	})
}

func (b *Backend) handleCreateClient(w http.ResponseWriter, r *http.Request) {
	var req models.ClientInput
	if err := decodeJSON(r, &req); err != nil || strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	now := b.Now().UTC()
	c := models.Client{
		ID:           uuid.NewString(),
		Name:         req.Name,
		ContactEmail: req.ContactEmail,
		ContactPhone: req.ContactPhone,
		Notes:        req.Notes,
		Timestamps:   models.Timestamps{CreatedAt: now, UpdatedAt: now},
	}
	b.mu.Lock()
	b.clients = append(b.clients, c)
	b.mu.Unlock()
	writeJSON(w, http.StatusCreated, c)
}

func (b *Backend) findClientLocked(id string) int {
	for i, c := range b.clients {
		if c.ID == id {
			return i
		}
	}
	return -1
}

func (b *Backend) handleGetClient(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	i := b.findClientLocked(chi.URLParam(r, "id"))
	if i < 0 {
		writeError(w, http.StatusNotFound, "Client not found")
		return
	}
	writeJSON(w, http.StatusOK, b.clients[i])
}

func (b *Backend) handleUpdateClient(w http.ResponseWriter, r *http.Request) {
	var patch models.ClientPatch
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	i := b.findClientLocked(chi.URLParam(r, "id"))
	if i < 0 {
		writeError(w, http.StatusNotFound, "Client not found")
		return
	}
	now := b.Now().UTC()
	patch.UpdatedAt = &now
	b.clients[i] = patch.Apply(b.clients[i])
	writeJSON(w, http.StatusOK, b.clients[i])
}

func (b *Backend) handleDeleteClient(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := chi.URLParam(r, "id")
	i := b.findClientLocked(id)
	if i < 0 {
		writeError(w, http.StatusNotFound, "Client not found")
		return
	}
	b.clients = append(b.clients[:i], b.clients[i+1:]...)
	kept := b.tasks[:0]
	for _, t := range b.tasks {
		if t.ClientID != id {
			kept = append(kept, t)
		}
	}
	b.tasks = kept
	writeJSON(w, http.StatusOK, map[string]string{"message": "Client deleted"})
}

// ---- tasks ----

func (b *Backend) handleListTasks(w http.ResponseWriter, r *http.Request) {
	page, limit := pagination(r)
	q := r.URL.Query()
	clientID := q.Get("clientId")
	search := strings.ToLower(q.Get("search"))

	b.mu.Lock()
	var matched []models.Task
	for _, t := range b.tasks {
		if clientID != "" && t.ClientID != clientID {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(t.Name), search) &&
			!strings.Contains(strings.ToLower(t.Description), search) {
			continue
		}
		matched = append(matched, t)
	}
	b.mu.Unlock()

	key := q.Get("sort")
	sort.SliceStable(matched, func(i, j int) bool {
		switch key {
		case "name":
			return strings.ToLower(matched[i].Name) < strings.ToLower(matched[j].Name)
		case "status":
			return matched[i].Status < matched[j].Status
		case "dueDate":
			return dueBefore(matched[i].DueDate, matched[j].DueDate)
		case "updatedAt":
			return matched[i].UpdatedAt.Before(matched[j].UpdatedAt)
		default:
			return matched[i].CreatedAt.Before(matched[j].CreatedAt)
		}
	})
	if q.Get("order") == models.OrderDesc {
		reverse(matched)
	}

	writeJSON(w, http.StatusOK, models.Page[models.Task]{
		Data:  paginate(matched, page, limit),
		Total: len(matched),
	})
}

func (b *Backend) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var req models.TaskInput
	if err := decodeJSON(r, &req); err != nil || req.Name == "" || req.ClientID == "" {
		writeError(w, http.StatusBadRequest, "clientId and name are required")
		return
	}
	if req.Status == "" {
		req.Status = models.TaskActive
	}
	now := b.Now().UTC()
	task := models.Task{
		ID:          uuid.NewString(),
		ClientID:    req.ClientID,
		Name:        req.Name,
		Description: req.Description,
		Status:      req.Status,
		DueDate:     req.DueDate,
		Timestamps:  models.Timestamps{CreatedAt: now, UpdatedAt: now},
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.findClientLocked(req.ClientID) < 0 {
		writeError(w, http.StatusNotFound, "Client not found")
		return
	}
	b.tasks = append(b.tasks, task)
	writeJSON(w, http.StatusCreated, task)
}

func (b *Backend) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	var patch models.TaskPatch
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if patch.Status != nil && !patch.Status.Valid() {
		writeError(w, http.StatusBadRequest, "invalid status")
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	id := chi.URLParam(r, "id")
	for i, t := range b.tasks {
		if t.ID == id {
			b.tasks[i] = patch.Apply(t)
			b.tasks[i].UpdatedAt = b.Now().UTC()
			writeJSON(w, http.StatusOK, b.tasks[i])
			return
		}
	}
	writeError(w, http.StatusNotFound, "Task not found")
}

func (b *Backend) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := chi.URLParam(r, "id")
	for i, t := range b.tasks {
		if t.ID == id {
			b.tasks = append(b.tasks[:i], b.tasks[i+1:]...)
			writeJSON(w, http.StatusOK, map[string]string{"message": "Task deleted"})
			return
		}
	}
	writeError(w, http.StatusNotFound, "Task not found")
}

// ---- helpers ----

func pagination(r *http.Request) (page, limit int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	return page, limit
}

func paginate[T any](items []T, page, limit int) []T {
	start := (page - 1) * limit
	if start >= len(items) {
		return []T{}
	}
	end := start + limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

func reverse[T any](items []T) {
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}
}

func dueBefore(a, b *time.Time) bool {
	switch {
	case a == nil:
		return false
	case b == nil:
		return true
	default:
		return a.Before(*b)
	}
}

func decodeJSON(r *http.Request, v interface{}) error {
	return json.NewDecoder(r.Body).Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, models.ErrorBody{Message: message})
}
