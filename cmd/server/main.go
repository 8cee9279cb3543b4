package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"DirectoryServer/internal/auth"
	"DirectoryServer/internal/authz"
	"DirectoryServer/internal/config"
	"DirectoryServer/internal/domain"
	"DirectoryServer/internal/httpapi"
	"DirectoryServer/internal/metrics"
	"DirectoryServer/internal/pubsub"
	"DirectoryServer/internal/service"
	"DirectoryServer/internal/store/memory"
	"DirectoryServer/internal/store/mongo"
	"DirectoryServer/internal/store/postgres"
)

type stores struct {
	persons service.PersonsStore
	users   service.UsersStore
	ping    func(context.Context) error
	close   func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}

	logger := newLogger(cfg)

	if err := run(cfg, logger); err != nil {
		logger.Error("server error", "err", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx := context.Background()

	st, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.close()
	logger.Info("store opened", "store", cfg.Store)

	credentials, err := newCredentialVerifier(cfg)
	if err != nil {
		return err
	}

	az, err := authz.New(ctx)
	if err != nil {
		return fmt.Errorf("authz: %w", err)
	}

	overflow, err := pubsub.ParseOverflow(cfg.SubscriberOverflow)
	if err != nil {
		return fmt.Errorf("APP_SUBSCRIBER_OVERFLOW: %w", err)
	}

	m := metrics.New()
	bus := pubsub.New[domain.Person](pubsub.Options{
		Buffer:   cfg.SubscriberBuffer,
		Overflow: overflow,
		Recorder: m,
		Logger:   logger,
	})
	tokens := auth.NewTokenCodec([]byte(cfg.JWTSecret), cfg.TokenTTL)

	handler := httpapi.NewRouter(httpapi.RouterOpts{
		Logger:   logger,
		IsProd:   cfg.IsProd(),
		DBPing:   st.ping,
		Sessions: &service.SessionService{Users: st.users, Tokens: tokens},
		Auth: &service.AuthService{
			Users:       st.users,
			Tokens:      tokens,
			Credentials: credentials,
			Metrics:     m,
			Logger:      logger,
		},
		Directory: &service.DirectoryService{
			Persons:  st.persons,
			Authz:    az,
			Notifier: &service.BusNotifier{Bus: bus, Logger: logger},
			Metrics:  m,
			Logger:   logger,
		},
		Users:         &service.UsersService{Users: st.users, Metrics: m},
		Friends:       &service.FriendsService{Users: st.users, Persons: st.persons, Authz: az},
		Authz:         az,
		Subscriptions: bus,
		Metrics:       m,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "env", cfg.Env, "addr", cfg.Addr, "store", cfg.Store)
		errCh <- srv.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stop:
		logger.Info("shutting down", "signal", sig.String())
		// Closing the bus first ends open subscriptions so Shutdown is not
		// left waiting on hijacked websocket connections.
		bus.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	case err := <-errCh:
		bus.Close()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func openStores(ctx context.Context, cfg config.Config) (stores, error) {
	switch cfg.Store {
	case config.StorePostgres:
		pool, err := postgres.Open(ctx, cfg.DBDSN)
		if err != nil {
			return stores{}, fmt.Errorf("db open: %w", err)
		}
		if err := postgres.EnsureSchema(ctx, pool); err != nil {
			pool.Close()
			return stores{}, fmt.Errorf("db schema: %w", err)
		}
		return stores{
			persons: postgres.NewPersonsStore(pool),
			users:   postgres.NewUsersStore(pool),
			ping:    pool.Ping,
			close:   pool.Close,
		}, nil

	case config.StoreMongo:
		db, err := mongo.Open(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return stores{}, fmt.Errorf("mongo open: %w", err)
		}
		closeDB := func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = db.Close(ctx)
		}
		if err := db.EnsureIndexes(ctx); err != nil {
			closeDB()
			return stores{}, fmt.Errorf("mongo indexes: %w", err)
		}
		return stores{
			persons: mongo.NewPersonsStore(db),
			users:   mongo.NewUsersStore(db),
			ping:    db.Ping,
			close:   closeDB,
		}, nil

	default:
		db, err := memory.Open()
		if err != nil {
			return stores{}, fmt.Errorf("memory open: %w", err)
		}
		return stores{
			persons: memory.NewPersonsStore(db),
			users:   memory.NewUsersStore(db),
			close:   func() {},
		}, nil
	}
}

func newCredentialVerifier(cfg config.Config) (auth.CredentialVerifier, error) {
	if cfg.LoginPasswordHash != "" {
		v, err := auth.NewHashedPasswordVerifier(cfg.LoginPasswordHash)
		if err != nil {
			return nil, fmt.Errorf("APP_LOGIN_PASSWORD_HASH: %w", err)
		}
		return v, nil
	}
	return auth.NewSharedPasswordVerifier(cfg.LoginPassword), nil
}

func newLogger(cfg config.Config) *slog.Logger {
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "info", "":
		level = slog.LevelInfo
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.IsProd() {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
