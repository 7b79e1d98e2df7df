package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/leadflow/internal/api/http/handlers"
	"github.com/spec-kit/leadflow/internal/auth"
	"github.com/spec-kit/leadflow/internal/events"
	"github.com/spec-kit/leadflow/internal/kvstore"
	"github.com/spec-kit/leadflow/internal/observability"
	"github.com/spec-kit/leadflow/internal/repository"
	"github.com/spec-kit/leadflow/internal/seed"
	"github.com/spec-kit/leadflow/internal/service"
)

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	ctx := context.Background()
	logger := zap.NewNop()
	store := kvstore.NewMemoryStore()
	metrics := observability.NewMetrics()

	leadRepo := repository.NewLeadRepository(store, time.Now)
	historyRepo := repository.NewLeadHistoryRepository(store, time.Now)
	userRepo := repository.NewUserRepository(store, time.Now)
	credentialRepo := repository.NewCredentialRepository(store)
	settingsRepo := repository.NewSettingsRepository(store)
	require.NoError(t, seed.NewSeeder(leadRepo, userRepo, credentialRepo, bcrypt.MinCost, logger).Run(ctx))

	tokens := auth.NewTokenManager("test-secret", 15*time.Minute, time.Hour)
	authService := service.NewAuthService(service.AuthDependencies{
		UserRepo:       userRepo,
		CredentialRepo: credentialRepo,
		Tokens:         tokens,
		BcryptCost:     bcrypt.MinCost,
	})
	leadService := service.NewLeadService(service.LeadDependencies{
		LeadRepo:    leadRepo,
		HistoryRepo: historyRepo,
		Dispatcher:  events.NewInMemoryDispatcher(logger),
		Transitions: metrics,
		Logger:      logger,
		Now:         time.Now,
	})
	assignments := service.NewAssignmentService(leadService, userRepo)

	app := fiber.New()
	RegisterMiddlewares(app, logger, metrics, 5*time.Second)
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler("leadflow", "test", "memory", store),
		Auth:           handlers.NewAuthHandler(authService),
		Leads:          handlers.NewLeadsHandler(leadService, assignments),
		Board:          handlers.NewBoardHandler(leadService, assignments),
		Admin:          handlers.NewAdminHandler(service.NewUserService(userRepo, credentialRepo, bcrypt.MinCost), service.NewSettingsService(settingsRepo)),
		AuthMiddleware: auth.NewAuthMiddleware(tokens, userRepo),
		Metrics:        metrics,
	})
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body any) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	out := map[string]any{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &out)
	}
	return resp.StatusCode, out
}

func login(t *testing.T, app *fiber.App, email, password string) string {
	t.Helper()
	status, body := doJSON(t, app, http.MethodPost, "/auth/login", "", map[string]string{"email": email, "password": password})
	require.Equal(t, http.StatusOK, status, body)
	token, _ := body["data"].(map[string]any)["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func errorCode(body map[string]any) string {
	errBody, _ := body["error"].(map[string]any)
	code, _ := errBody["code"].(string)
	return code
}

func TestHealthAndMetricsArePublic(t *testing.T) {
	app := newTestApp(t)

	status, body := doJSON(t, app, http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ready", body["status"])

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestLoginRejectsBadPassword(t *testing.T) {
	app := newTestApp(t)

	status, body := doJSON(t, app, http.MethodPost, "/auth/login", "", map[string]string{"email": "admin@leadflow.io", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", errorCode(body))
}

func TestLeadsRequireToken(t *testing.T) {
	app := newTestApp(t)

	status, body := doJSON(t, app, http.MethodGet, "/leads", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", errorCode(body))
}

func TestSalespersonCannotManageUsers(t *testing.T) {
	app := newTestApp(t)
	token := login(t, app, "sales@leadflow.io", "sales123")

	status, body := doJSON(t, app, http.MethodGet, "/admin/users", token, nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", errorCode(body))

	status, _ = doJSON(t, app, http.MethodGet, "/reports/dashboard", token, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = doJSON(t, app, http.MethodDelete, "/leads/1", token, nil)
	assert.Equal(t, http.StatusForbidden, status)
}

func TestAdminListsUsers(t *testing.T) {
	app := newTestApp(t)
	token := login(t, app, "admin@leadflow.io", "admin123")

	status, body := doJSON(t, app, http.MethodGet, "/admin/users", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["data"], 3)
}

func TestListLeadsReturnsCounts(t *testing.T) {
	app := newTestApp(t)
	token := login(t, app, "sales@leadflow.io", "sales123")

	status, body := doJSON(t, app, http.MethodGet, "/leads", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["data"], 13)
	meta := body["meta"].(map[string]any)
	assert.EqualValues(t, 13, meta["total"])
	counts := meta["counts"].(map[string]any)
	assert.EqualValues(t, 13, counts["all"])
}

func TestListLeadsRejectsUnknownTab(t *testing.T) {
	app := newTestApp(t)
	token := login(t, app, "sales@leadflow.io", "sales123")

	status, body := doJSON(t, app, http.MethodGet, "/leads?tab=someday", token, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(body))
}

func TestCreateLeadValidationShape(t *testing.T) {
	app := newTestApp(t)
	token := login(t, app, "sales@leadflow.io", "sales123")

	status, body := doJSON(t, app, http.MethodPost, "/leads", token, map[string]any{"email": "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(body))
	assert.NotEmpty(t, body["error"].(map[string]any)["details"])
}

func TestBoardMoveFlow(t *testing.T) {
	app := newTestApp(t)
	token := login(t, app, "sales@leadflow.io", "sales123")

	status, body := doJSON(t, app, http.MethodPost, "/board/move", token, map[string]any{
		"leadId": "1", "sourceColumn": "new", "destinationColumn": "contacted",
	})
	require.Equal(t, http.StatusOK, status, body)
	result := body["data"].(map[string]any)
	assert.Equal(t, true, result["applied"])
	lead := result["lead"].(map[string]any)
	assert.Equal(t, "Contacted", lead["status"])
	assert.Equal(t, "contacted", lead["column"])

	status, body = doJSON(t, app, http.MethodPost, "/board/move", token, map[string]any{
		"leadId": "1", "sourceColumn": " contacted", "destinationColumn": " in_progress ",
	})
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "in_progress", body["data"].(map[string]any)["lead"].(map[string]any)["column"])

	status, body = doJSON(t, app, http.MethodPost, "/board/move", token, map[string]any{
		"leadId": "1", "sourceColumn": "in_progress", "destinationColumn": nil,
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, body["data"].(map[string]any)["applied"])

	status, body = doJSON(t, app, http.MethodPost, "/board/move", token, map[string]any{
		"leadId": "1", "sourceColumn": "in_progress", "destinationColumn": "archived",
	})
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", errorCode(body))

	status, body = doJSON(t, app, http.MethodGet, "/leads/1/history", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.NotEmpty(t, body["data"])
}

func TestUnknownRouteMapsToNotFound(t *testing.T) {
	app := newTestApp(t)

	status, body := doJSON(t, app, http.MethodGet, "/nowhere", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", errorCode(body))
}

func TestOverlongPasswordIsRejected(t *testing.T) {
	app := newTestApp(t)
	token := login(t, app, "admin@leadflow.io", "admin123")

	status, body := doJSON(t, app, http.MethodPost, "/admin/users", token, map[string]any{
		"name": "Long", "email": "long@leadflow.io", "password": strings.Repeat("a", 80),
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(body))

	status, body = doJSON(t, app, http.MethodPost, "/auth/password", token, map[string]any{
		"currentPassword": "admin123", "newPassword": strings.Repeat("a", 80),
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(body))
}
