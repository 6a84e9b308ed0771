package httpserver

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/yukyra-eren/flarum-ext-money/internal/domain"
	"github.com/yukyra-eren/flarum-ext-money/internal/platform/config"
)

const testWebhookSecret = "test-webhook-secret"

// --- Mock implementations ---

type mockAppService struct {
	getBalanceFn       func(ctx context.Context, accountID uuid.UUID) (*domain.Account, error)
	editBalanceFn      func(ctx context.Context, actorID, accountID uuid.UUID, balance float64) (*domain.Account, error)
	handleForumEventFn func(ctx context.Context, event domain.Event) error
	ruleConfigFn       func() domain.RuleConfig
}

func (m *mockAppService) GetBalance(ctx context.Context, accountID uuid.UUID) (*domain.Account, error) {
	if m.getBalanceFn != nil {
		return m.getBalanceFn(ctx, accountID)
	}
	return nil, errors.New("not implemented")
}

func (m *mockAppService) EditBalance(ctx context.Context, actorID, accountID uuid.UUID, balance float64) (*domain.Account, error) {
	if m.editBalanceFn != nil {
		return m.editBalanceFn(ctx, actorID, accountID, balance)
	}
	return nil, errors.New("not implemented")
}

func (m *mockAppService) HandleForumEvent(ctx context.Context, event domain.Event) error {
	if m.handleForumEventFn != nil {
		return m.handleForumEventFn(ctx, event)
	}
	return nil
}

func (m *mockAppService) RuleConfig() domain.RuleConfig {
	if m.ruleConfigFn != nil {
		return m.ruleConfigFn()
	}
	return domain.RuleConfig{}
}

type mockHub struct {
	registerFn   func(accountID uuid.UUID, conn *websocket.Conn) error
	unregisterFn func(accountID uuid.UUID, conn *websocket.Conn)
}

func (m *mockHub) Register(accountID uuid.UUID, conn *websocket.Conn) error {
	if m.registerFn != nil {
		return m.registerFn(accountID, conn)
	}
	return nil
}

func (m *mockHub) Unregister(accountID uuid.UUID, conn *websocket.Conn) {
	if m.unregisterFn != nil {
		m.unregisterFn(accountID, conn)
	}
}

// --- Test helpers ---

func newTestServer(t *testing.T, app appService, opts ...func(*Server)) *Server {
	t.Helper()

	e := echo.New()

	srv := &Server{
		echo:     e,
		config:   &config.Config{WebhookSecret: testWebhookSecret, Port: "0"},
		app:      app,
		hub:      &mockHub{},
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
	}

	for _, opt := range opts {
		opt(srv)
	}

	// Register routes so endpoints are available for testing
	srv.registerRoutes()

	return srv
}

func withHealthChecks(checks ...HealthCheck) func(*Server) {
	return func(s *Server) {
		s.healthChecks = checks
	}
}

func withHub(hub balanceHub) func(*Server) {
	return func(s *Server) {
		s.hub = hub
	}
}

// serve runs a request through the full middleware chain.
func serve(srv *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)
	return rec
}

func signBody(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func signedWebhookRequest(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/webhooks/forum", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set(signatureHeader, signBody(testWebhookSecret, []byte(body)))
	return req
}

func testAccount(username string, balance float64) *domain.Account {
	return &domain.Account{
		ID:        uuid.New(),
		Username:  username,
		Balance:   balance,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}
