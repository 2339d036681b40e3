package http

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"library-backend/internal/clock"
	"library-backend/internal/domain"
	"library-backend/internal/repository/memory"
	"library-backend/internal/security"
	"library-backend/internal/service"

	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type testAPI struct {
	t      *testing.T
	server *Server
	store  *memory.Store
	clock  *clock.Manual
	auth   service.AuthService
	users  service.UserService
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	store := memory.NewStore()
	clk := clock.NewManual(testNow)
	// Tests move the clock by weeks; tokens must outlive that.
	tokens := security.NewTokenManager("0123456789abcdef0123456789abcdef", 60*24*time.Hour, 90*24*time.Hour, clk)

	auth := service.NewAuthService(store, tokens, clk, 3)
	users := service.NewUserService(store, clk)
	server := NewServer(Services{
		Auth:       auth,
		User:       users,
		Book:       service.NewBookService(store, clk),
		Loan:       service.NewLoanService(store, clk, domain.DefaultLoanPeriods()),
		Membership: service.NewMembershipService(store),
	}, tokens, clk)

	return &testAPI{t: t, server: server, store: store, clock: clk, auth: auth, users: users}
}

func (a *testAPI) do(method, path string, body any, token string) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.server.ServeHTTP(rec, req)
	return rec
}

// member registers a user and returns its id and token pair
func (a *testAPI) member(username string) (int64, *service.TokenPair) {
	a.t.Helper()
	user, tokens, err := a.auth.Register(context.Background(), service.RegisterInput{
		Username: username,
		Email:    username + "@example.com",
		Password: "correct horse",
	})
	require.NoError(a.t, err)
	return user.ID, tokens
}

func (a *testAPI) librarian() string {
	a.t.Helper()
	_, err := a.auth.CreateStaffUser(context.Background(), service.RegisterInput{
		Username: "librarian",
		Email:    "librarian@example.com",
		Password: "correct horse",
	})
	require.NoError(a.t, err)
	_, tokens, err := a.auth.Login(context.Background(), "librarian", "correct horse")
	require.NoError(a.t, err)
	return tokens.AccessToken
}

func (a *testAPI) book(admin string, isbn string, copies int32) int64 {
	a.t.Helper()
	rec := a.do(http.MethodPost, "/api/v1/books", map[string]any{
		"title":          "Book " + isbn,
		"author":         "Author",
		"isbn":           isbn,
		"page_count":     100,
		"published_date": "2001-01-01",
		"total_copies":   copies,
	}, admin)
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
	var book domain.Book
	decodeBody(a.t, rec, &book)
	return book.ID
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst), rec.Body.String())
}
