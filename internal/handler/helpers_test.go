package handler

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/arkhipov/post-service/internal/config"
	"github.com/arkhipov/post-service/internal/mailer"
	"github.com/arkhipov/post-service/internal/repository"
	"github.com/arkhipov/post-service/internal/service"
	"github.com/arkhipov/post-service/internal/token"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

const testJWTSecret = "post_service_test_jwt_secret_0123456789"

// testEnv wires the real layers over a mocked database
type testEnv struct {
	router *mux.Router
	mock   sqlmock.Sqlmock
	tokens *token.Manager
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	// MinCost keeps the hashing in tests cheap; SMTP unset disables mail
	cfg := &config.Config{
		JWTSecret:  testJWTSecret,
		JWTExpires: time.Hour,
		BcryptCost: bcrypt.MinCost,
	}

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	repo := repository.NewRepository(db)
	tokens := token.NewManager(cfg.JWTSecret, cfg.JWTExpires)
	mail := mailer.NewSender(cfg, logger)
	svc := service.NewService(repo, tokens, mail, logger, cfg)
	h := NewHandler(svc)

	return &testEnv{
		router: NewRouter(h, tokens),
		mock:   mock,
		tokens: tokens,
	}
}

// do sends a JSON request through the real router
func (env *testEnv) do(t *testing.T, method, path, bearer string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("json.Marshal: %v", err)
		}
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp := httptest.NewRecorder()
	env.router.ServeHTTP(resp, req)
	return resp
}

func (env *testEnv) issueToken(t *testing.T, userID int, role string) string {
	t.Helper()
	tokenString, err := env.tokens.Issue(userID, role)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	return tokenString
}

func (env *testEnv) expectationsMet(t *testing.T) {
	t.Helper()
	if err := env.mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}

func mustStatus(t *testing.T, resp *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if resp.Code != expected {
		t.Fatalf("expected status %d, got %d (body %s)", expected, resp.Code, resp.Body.String())
	}
}

func decodeBody(t *testing.T, resp *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("json.Unmarshal: %v", err)
	}
	return out
}

func mustError(t *testing.T, resp *httptest.ResponseRecorder, status int, message string) {
	t.Helper()
	mustStatus(t, resp, status)
	out := decodeBody(t, resp)
	if out["error"] != message {
		t.Fatalf("error = %q, want %q", out["error"], message)
	}
}

func hashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt.GenerateFromPassword: %v", err)
	}
	return string(hash)
}

// bcryptArg matches a statement argument that is a bcrypt hash of the given
// password. Used to prove the persisted hash is the one derived from the new
// password.
type bcryptArg string

func (b bcryptArg) Match(v driver.Value) bool {
	s, ok := v.(string)
	if !ok {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(s), []byte(string(b))) == nil
}
