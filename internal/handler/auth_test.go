package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"habitcal/internal/config"
	"habitcal/internal/repository"
	"habitcal/internal/utils"
)

func newAuthHandler(t *testing.T) (*AuthHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	cfg := config.Config{JWTSecret: "test-secret", TokenTTLMin: 60, BcryptCost: bcrypt.MinCost}
	return NewAuthHandler(cfg, repository.NewUserRepo(db)), mock
}

func doJSON(t *testing.T, h echo.HandlerFunc, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	if err := h(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	return rec
}

func userRow(t *testing.T, id int, username, password string) *sqlmock.Rows {
	t.Helper()
	hash, err := utils.HashPassword(password, bcrypt.MinCost)
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	return sqlmock.NewRows([]string{"id", "username", "password_hash", "created_at"}).
		AddRow(id, username, hash, time.Now())
}

func TestLoginEnumerationResistance(t *testing.T) {
	h, mock := newAuthHandler(t)

	// Unknown username.
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE username=?")).
		WithArgs("nobody").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "password_hash", "created_at"}))
	recUnknown := doJSON(t, h.Login, http.MethodPost, "/login",
		`{"username":"nobody","password":"whatever"}`)

	// Known username, wrong password.
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE username=?")).
		WithArgs("alice").
		WillReturnRows(userRow(t, 1, "alice", "correct"))
	recWrong := doJSON(t, h.Login, http.MethodPost, "/login",
		`{"username":"alice","password":"incorrect"}`)

	if recUnknown.Code != http.StatusUnauthorized || recWrong.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for both failures, got %d and %d", recUnknown.Code, recWrong.Code)
	}
	if recUnknown.Body.String() != recWrong.Body.String() {
		t.Errorf("failure responses differ: %q vs %q — usernames can be enumerated",
			recUnknown.Body.String(), recWrong.Body.String())
	}
}

func TestLoginIssuesVerifiableToken(t *testing.T) {
	h, mock := newAuthHandler(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE username=?")).
		WithArgs("alice").
		WillReturnRows(userRow(t, 42, "alice", "correct"))

	rec := doJSON(t, h.Login, http.MethodPost, "/login",
		`{"username":"alice","password":"correct"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Token    string `json:"token"`
		Username string `json:"username"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response failed: %v", err)
	}
	if resp.Username != "alice" {
		t.Errorf("expected username alice, got %q", resp.Username)
	}
	claims, err := utils.ParseSessionToken("test-secret", resp.Token)
	if err != nil {
		t.Fatalf("issued token does not verify: %v", err)
	}
	if claims.UserID != 42 || claims.Username != "alice" {
		t.Errorf("unexpected claims: %+v", claims)
	}
}

func TestRegisterRequiresCredentials(t *testing.T) {
	h, _ := newAuthHandler(t)

	rec := doJSON(t, h.Register, http.MethodPost, "/register", `{"username":"alice"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for a missing password, got %d", rec.Code)
	}

	rec = doJSON(t, h.Register, http.MethodPost, "/register", `{"password":"s3cret"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for a missing username, got %d", rec.Code)
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	h, mock := newAuthHandler(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WithArgs("alice", sqlmock.AnyArg()).
		WillReturnError(errors.New("Error 1062 (23000): Duplicate entry 'alice' for key 'uq_users_username'"))

	rec := doJSON(t, h.Register, http.MethodPost, "/register",
		`{"username":"alice","password":"s3cret"}`)
	if rec.Code != http.StatusConflict {
		t.Errorf("expected 409 for a duplicate username, got %d: %s", rec.Code, rec.Body.String())
	}
}
