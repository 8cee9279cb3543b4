package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"DirectoryServer/internal/metrics"
	"DirectoryServer/internal/service"
)

type RouterOpts struct {
	Logger *slog.Logger
	IsProd bool

	DBPing func(context.Context) error

	Sessions      *service.SessionService
	Auth          *service.AuthService
	Directory     *service.DirectoryService
	Users         *service.UsersService
	Friends       *service.FriendsService
	Authz         service.Authorizer
	Subscriptions PersonSubscriber
	Metrics       *metrics.Metrics

	// PingInterval is how often subscription sockets are pinged. Zero means
	// 30 seconds.
	PingInterval time.Duration
}

func NewRouter(opts RouterOpts) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.PingInterval <= 0 {
		opts.PingInterval = defaultPingInterval
	}

	api := &api{
		logger:       logger,
		dbPing:       opts.DBPing,
		sessionSvc:   opts.Sessions,
		authSvc:      opts.Auth,
		directorySvc: opts.Directory,
		usersSvc:     opts.Users,
		friendsSvc:   opts.Friends,
		authz:        opts.Authz,
		subscriber:   opts.Subscriptions,
		metrics:      opts.Metrics,
		pingInterval: opts.PingInterval,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
	if !opts.IsProd {
		api.upgrader.CheckOrigin = func(*http.Request) bool { return true }
	}
	api.registerOperations()

	publicMux := http.NewServeMux()
	apiMux := http.NewServeMux()

	publicMux.HandleFunc("GET /healthz", api.handleHealthz)
	if api.metrics != nil {
		publicMux.Handle("GET /metrics", api.metrics.Handler())
	}

	if api.sessionSvc == nil {
		apiMux.HandleFunc("POST /v1/query", handleNotImplemented)
		apiMux.HandleFunc("GET /v1/subscriptions/personAdded", handleNotImplemented)
	} else {
		apiMux.HandleFunc("POST /v1/query", api.withSession(api.handleQuery))
		if api.subscriber != nil && api.authz != nil {
			apiMux.HandleFunc("GET /v1/subscriptions/personAdded", api.withSession(api.handleSubscribePersonAdded))
		}
	}

	apiHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h, pattern := apiMux.Handler(r)
		if pattern == "" {
			handleV1NotFound(w, r)
			return
		}
		h.ServeHTTP(w, r)
	})

	root := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/v1/") || r.URL.Path == "/v1" {
			apiHandler.ServeHTTP(w, r)
			return
		}
		publicMux.ServeHTTP(w, r)
	})

	var h http.Handler = root
	h = RequestLogger(logger)(h)
	h = RequestID()(h)
	h = Recoverer(logger, opts.IsProd)(h)
	return h
}

func handleNotImplemented(w http.ResponseWriter, _ *http.Request) {
	WriteError(w, http.StatusNotImplemented, "not_implemented", "not implemented")
}

func handleV1NotFound(w http.ResponseWriter, _ *http.Request) {
	WriteError(w, http.StatusNotFound, "not_found", "not found")
}

type api struct {
	logger *slog.Logger

	dbPing func(context.Context) error

	sessionSvc   *service.SessionService
	authSvc      *service.AuthService
	directorySvc *service.DirectoryService
	usersSvc     *service.UsersService
	friendsSvc   *service.FriendsService
	authz        service.Authorizer
	subscriber   PersonSubscriber
	metrics      *metrics.Metrics

	ops          map[string]operation
	upgrader     websocket.Upgrader
	pingInterval time.Duration
}

func (a *api) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	if a.dbPing != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 1*time.Second)
		defer cancel()
		if err := a.dbPing(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("db down"))
			return
		}
	}

	_, _ = w.Write([]byte("ok"))
}
