package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/andressep95/gameplan-api/internal/handler/middleware"
	"github.com/andressep95/gameplan-api/internal/ratelimit"
	"github.com/andressep95/gameplan-api/internal/repository/repotest"
	"github.com/andressep95/gameplan-api/internal/service"
	"github.com/andressep95/gameplan-api/pkg/hash"
	"github.com/andressep95/gameplan-api/pkg/jwt"
	"github.com/andressep95/gameplan-api/pkg/validator"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testPassword = "Abc123!@"

type pingFunc func(ctx context.Context) error

func (f pingFunc) PingContext(ctx context.Context) error { return f(ctx) }

type testServer struct {
	app    *fiber.App
	store  *repotest.Store
	tokens *jwt.TokenService
}

type testOptions struct {
	rateLimit int
	dbErr     error
}

func newTestServer(t *testing.T, opts testOptions) *testServer {
	t.Helper()

	if opts.rateLimit == 0 {
		opts.rateLimit = 1000
	}

	tokens, err := jwt.NewTokenService("test-secret", 7*24*time.Hour, 30*24*time.Hour, "gameplan-api", "gameplan-client")
	require.NoError(t, err)

	store := repotest.NewStore()
	hasher := hash.NewHasher(hash.Argon2Config{Memory: 1024, Iterations: 1, Parallelism: 1})
	v := validator.NewValidator()
	log := zap.NewNop()

	authService := service.NewAuthService(store, tokens, hasher, nil, log)
	userService := service.NewUserService(store)
	membershipService := service.NewMembershipService(store)

	limiter := ratelimit.NewMemoryLimiter(ratelimit.Config{MaxRequests: opts.rateLimit, Window: time.Minute, Capacity: 100})
	authenticator := middleware.NewAuthenticator(tokens, store.Users(), store.Sessions())

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(log, nil, false)})
	SetupRoutes(app, Routes{
		Auth:         NewAuthHandler(authService, userService, v),
		Password:     NewPasswordHandler(authService, v),
		Session:      NewSessionHandler(userService),
		Role:         NewRoleHandler(membershipService),
		Health:       NewHealthHandler(pingFunc(func(context.Context) error { return opts.dbErr }), nil),
		Authenticate: authenticator.Authenticate(),
		OptionalAuth: authenticator.OptionalAuthenticate(),
		RateLimit:    middleware.UserRateLimit(limiter, nil, log),
		Authorizer:   middleware.NewAuthorizer(membershipService),
	})

	return &testServer{app: app, store: store, tokens: tokens}
}

type envelope struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message"`
	Data    map[string]interface{} `json:"data"`
	Error   struct {
		Code    string      `json:"code"`
		Message string      `json:"message"`
		Details interface{} `json:"details"`
		Stack   string      `json:"stack"`
	} `json:"error"`
	Path   string `json:"path"`
	Method string `json:"method"`
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}, headers map[string]string) (int, envelope) {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	}
	return resp.StatusCode, env
}

func registerBody(email string) fiber.Map {
	return fiber.Map{
		"firstName": "Ana",
		"lastName":  "Lopez",
		"email":     email,
		"password":  testPassword,
		"birthDate": "1990-05-01",
		"country":   "ES",
	}
}

func bearer(token string, sessionID string) map[string]string {
	h := map[string]string{fiber.HeaderAuthorization: "Bearer " + token}
	if sessionID != "" {
		h[middleware.SessionHeader] = sessionID
	}
	return h
}

// registerAndLogin returns a token and session id from a fresh login.
func (s *testServer) registerAndLogin(t *testing.T, email string) (token, sessionID string) {
	t.Helper()

	status, _ := s.do(t, http.MethodPost, "/api/v1/auth/register", registerBody(email), nil)
	require.Equal(t, http.StatusCreated, status)

	status, env := s.do(t, http.MethodPost, "/api/v1/auth/login", fiber.Map{"email": email, "password": testPassword}, nil)
	require.Equal(t, http.StatusOK, status)

	return env.Data["token"].(string), env.Data["sessionId"].(string)
}

var errDBDown = errors.New("connection refused")
