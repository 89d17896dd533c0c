package api

import (
	"context"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/checklists/internal/auth"
	"github.com/desertthunder/checklists/internal/models"
	"github.com/desertthunder/checklists/internal/server"
	"github.com/desertthunder/checklists/internal/shared"
)

// MaxBodyBytes caps every request body.
const MaxBodyBytes = 1 << 20

// DefaultCookieName names the session cookie when none is configured.
const DefaultCookieName = "checklists_session"

// Authenticator is the session authenticator used by the API.
type Authenticator interface {
	Signup(ctx context.Context, email, password string, name *string) (*models.User, error)
	Login(ctx context.Context, email, password string, client auth.Client) (*models.User, *models.Session, string, error)
	Authenticate(ctx context.Context, token string) (*models.User, *models.Session, error)
	Logout(ctx context.Context, token string) error
}

// ChecklistStore is the owner-scoped checklist persistence used by the API.
type ChecklistStore interface {
	Create(ctx context.Context, ownerID, title string) (*models.Checklist, error)
	List(ctx context.Context, ownerID string) ([]*models.Checklist, error)
	Get(ctx context.Context, ownerID, id string) (*models.Checklist, error)
	Rename(ctx context.Context, ownerID, id, title string) (*models.Checklist, error)
	Delete(ctx context.Context, ownerID, id string) error
}

// ItemStore is the owner-scoped item persistence used by the API.
type ItemStore interface {
	Create(ctx context.Context, ownerID, checklistID, content string) (*models.Item, error)
	Update(ctx context.Context, ownerID, id string, patch models.ItemPatch) (*models.Item, error)
	Delete(ctx context.Context, ownerID, id string) error
}

// Pinger reports storage health.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// CookieOptions controls the session cookie.
type CookieOptions struct {
	Name   string
	Secure bool
}

// Options holds the API's dependencies.
type Options struct {
	Auth         Authenticator
	Checklists   ChecklistStore
	Items        ItemStore
	DB           Pinger
	Logger       *log.Logger
	Metrics      *server.Metrics
	LoginLimiter *server.IPRateLimiter
	Cookie       CookieOptions
}

// API serves the resource routes.
type API struct {
	auth       Authenticator
	checklists ChecklistStore
	items      ItemStore
	db         Pinger
	logger     *log.Logger
	metrics    *server.Metrics
	limiter    *server.IPRateLimiter
	cookie     CookieOptions
}

// New creates an [API]. Missing metrics and limiter are replaced with fresh defaults.
func New(opts Options) *API {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Metrics == nil {
		opts.Metrics = server.NewMetrics()
	}
	if opts.LoginLimiter == nil {
		opts.LoginLimiter = server.NewIPRateLimiter(0, 0)
	}
	if opts.Cookie.Name == "" {
		opts.Cookie.Name = DefaultCookieName
	}

	return &API{
		auth:       opts.Auth,
		checklists: opts.Checklists,
		items:      opts.Items,
		db:         opts.DB,
		logger:     shared.WithLogger(opts.Logger, "component", "api"),
		metrics:    opts.Metrics,
		limiter:    opts.LoginLimiter,
		cookie:     opts.Cookie,
	}
}

// Routes builds the router with all middleware and routes registered.
func (a *API) Routes() *server.BasicRouter {
	r := server.NewBasicRouter()
	r.Use(
		server.Recoverer(a.logger, a.internalError),
		server.RequestLogger(a.logger),
		a.metrics.Middleware(),
		server.MaxBodyBytes(MaxBodyBytes),
	)

	r.HandleFunc(http.MethodGet, "/healthz", a.healthz)
	r.Handler(a.metrics)

	limited := a.limiter.Middleware(a.rateLimited)
	r.Handle(http.MethodPost, "/api/auth/signup", limited(http.HandlerFunc(a.signup)))
	r.Handle(http.MethodPost, "/api/auth/login", limited(http.HandlerFunc(a.login)))
	r.HandleFunc(http.MethodPost, "/api/auth/logout", a.logout)
	r.HandleFunc(http.MethodGet, "/api/auth/session", a.requireUser(a.session))

	r.HandleFunc(http.MethodGet, "/api/checklists", a.requireUser(a.listChecklists))
	r.HandleFunc(http.MethodPost, "/api/checklists", a.requireUser(a.createChecklist))
	r.HandleFunc(http.MethodGet, "/api/checklists/{id}", a.requireUser(a.getChecklist))
	r.HandleFunc(http.MethodPatch, "/api/checklists/{id}", a.requireUser(a.updateChecklist))
	r.HandleFunc(http.MethodDelete, "/api/checklists/{id}", a.requireUser(a.deleteChecklist))

	r.HandleFunc(http.MethodPost, "/api/items", a.requireUser(a.createItem))
	r.HandleFunc(http.MethodPatch, "/api/items/{id}", a.requireUser(a.updateItem))
	r.HandleFunc(http.MethodDelete, "/api/items/{id}", a.requireUser(a.deleteItem))

	return r
}

func (a *API) healthz(w http.ResponseWriter, r *http.Request) {
	if a.db != nil {
		if err := a.db.PingContext(r.Context()); err != nil {
			shared.LogError(a.logger, "health check failed", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
