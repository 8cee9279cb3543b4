package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"DirectoryServer/internal/auth"
	"DirectoryServer/internal/authz"
	"DirectoryServer/internal/domain"
	"DirectoryServer/internal/metrics"
	"DirectoryServer/internal/pubsub"
	"DirectoryServer/internal/service"
	"DirectoryServer/internal/store/memory"
)

const testPassword = "secret"

type testEnv struct {
	handler http.Handler
	bus     *pubsub.Bus[domain.Person]
	tokens  *auth.TokenCodec
	metrics *metrics.Metrics
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithLogger(t, nil)
}

func newTestEnvWithLogger(t *testing.T, logger *slog.Logger) *testEnv {
	t.Helper()

	db, err := memory.Open()
	if err != nil {
		t.Fatalf("memory.Open: %v", err)
	}
	persons := memory.NewPersonsStore(db)
	users := memory.NewUsersStore(db)

	az, err := authz.New(context.Background())
	if err != nil {
		t.Fatalf("authz.New: %v", err)
	}

	m := metrics.New()
	bus := pubsub.New[domain.Person](pubsub.Options{Buffer: 16, Recorder: m})
	t.Cleanup(bus.Close)
	tokens := auth.NewTokenCodec([]byte(strings.Repeat("t", 32)), 0)

	h := NewRouter(RouterOpts{
		Logger:   logger,
		Sessions: &service.SessionService{Users: users, Tokens: tokens},
		Auth: &service.AuthService{
			Users:       users,
			Tokens:      tokens,
			Credentials: auth.NewSharedPasswordVerifier(testPassword),
			Metrics:     m,
		},
		Directory: &service.DirectoryService{
			Persons:  persons,
			Authz:    az,
			Notifier: &service.BusNotifier{Bus: bus},
			Metrics:  m,
		},
		Users:         &service.UsersService{Users: users, Metrics: m},
		Friends:       &service.FriendsService{Users: users, Persons: persons, Authz: az},
		Authz:         az,
		Subscriptions: bus,
		Metrics:       m,
	})

	return &testEnv{handler: h, bus: bus, tokens: tokens, metrics: m}
}

type queryResult struct {
	Data  map[string]json.RawMessage `json:"data"`
	Error *apiError                  `json:"error"`
}

func (e *testEnv) query(t *testing.T, token, op string, vars any) (int, queryResult) {
	t.Helper()

	body := map[string]any{"operation": op}
	if vars != nil {
		body["variables"] = vars
	}
	b, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/query", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	e.handler.ServeHTTP(rr, req)

	var res queryResult
	if err := json.Unmarshal(rr.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode response %q: %v", rr.Body.String(), err)
	}
	return rr.Code, res
}

func (e *testEnv) mustQuery(t *testing.T, token, op string, vars any, dst any) {
	t.Helper()

	code, res := e.query(t, token, op, vars)
	if code != http.StatusOK {
		t.Fatalf("%s: expected 200, got %d (%+v)", op, code, res.Error)
	}
	if dst == nil {
		return
	}
	if err := json.Unmarshal(res.Data[op], dst); err != nil {
		t.Fatalf("%s: decode data %s: %v", op, res.Data[op], err)
	}
}

func (e *testEnv) login(t *testing.T, username string) string {
	t.Helper()

	e.mustQuery(t, "", "createUser", map[string]any{"username": username}, nil)
	var tok tokenResponse
	e.mustQuery(t, "", "login", map[string]any{"username": username, "password": testPassword}, &tok)
	if tok.Value == "" {
		t.Fatalf("expected token")
	}
	return tok.Value
}
