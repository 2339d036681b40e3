package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"library-backend/internal/domain"
	"library-backend/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{domain.ErrPolicyViolation, http.StatusUnprocessableEntity},
		{domain.ErrDuplicateLoan, http.StatusConflict},
		{domain.ErrNotAvailable, http.StatusConflict},
		{domain.ErrAlreadyReturned, http.StatusConflict},
		{domain.ErrBookInUse, http.StatusConflict},
		{domain.ErrInvalidDueDate, http.StatusBadRequest},
		{fmt.Errorf("%w: bad isbn", domain.ErrValidation), http.StatusBadRequest},
		{domain.ErrNotFound, http.StatusNotFound},
		{domain.ErrForbidden, http.StatusForbidden},
		{domain.ErrUnauthorized, http.StatusUnauthorized},
		{domain.ErrTransient, http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}

func TestRequestID(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(requestIDHeader, "req-42")
	rec = httptest.NewRecorder()
	api.server.ServeHTTP(rec, req)
	assert.Equal(t, "req-42", rec.Header().Get(requestIDHeader))
}

func TestAuthEndpoints(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(http.MethodPost, "/api/v1/auth/register", map[string]string{
		"username":         "alice",
		"email":            "alice@example.com",
		"password":         "correct horse",
		"password_confirm": "battery staple",
	}, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var verr errorResponse
	decodeBody(t, rec, &verr)
	assert.Equal(t, "eqfield", verr.Details["PasswordConfirm"])

	rec = api.do(http.MethodPost, "/api/v1/auth/register", map[string]string{
		"username":         "alice",
		"email":            "alice@example.com",
		"password":         "correct horse",
		"password_confirm": "correct horse",
	}, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var registered authResponse
	decodeBody(t, rec, &registered)
	assert.Equal(t, int32(3), registered.User.Profile.MaxBooksAllowed)
	tokens := registered.Tokens

	rec = api.do(http.MethodPost, "/api/v1/auth/login", map[string]string{"username": "alice", "password": "nope"}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	t.Run("Profile needs an access token", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, api.do(http.MethodGet, "/api/v1/auth/profile", nil, "").Code)
		assert.Equal(t, http.StatusForbidden, api.do(http.MethodGet, "/api/v1/auth/profile", nil, tokens.RefreshToken).Code)

		rec := api.do(http.MethodGet, "/api/v1/auth/profile", nil, tokens.AccessToken)
		require.Equal(t, http.StatusOK, rec.Code)
		var profile struct {
			Username    string `json:"username"`
			Eligibility struct {
				CanBorrow bool `json:"can_borrow"`
			} `json:"eligibility"`
		}
		decodeBody(t, rec, &profile)
		assert.Equal(t, "alice", profile.Username)
		assert.True(t, profile.Eligibility.CanBorrow)
	})

	t.Run("Profile update ignores membership fields", func(t *testing.T) {
		rec := api.do(http.MethodPatch, "/api/v1/auth/profile", map[string]any{
			"phone_number":      "555-0100",
			"max_books_allowed": 50,
		}, tokens.AccessToken)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var user domain.User
		decodeBody(t, rec, &user)
		assert.Equal(t, "555-0100", user.Profile.PhoneNumber)
		assert.Equal(t, int32(3), user.Profile.MaxBooksAllowed)
	})

	t.Run("Refresh then logout", func(t *testing.T) {
		assert.Equal(t, http.StatusForbidden, api.do(http.MethodPost, "/api/v1/auth/refresh", nil, tokens.AccessToken).Code)

		rec := api.do(http.MethodPost, "/api/v1/auth/refresh", nil, tokens.RefreshToken)
		require.Equal(t, http.StatusOK, rec.Code)
		var body map[string]string
		decodeBody(t, rec, &body)
		assert.NotEmpty(t, body["access"])

		assert.Equal(t, http.StatusNoContent, api.do(http.MethodPost, "/api/v1/auth/logout", nil, tokens.RefreshToken).Code)
		assert.Equal(t, http.StatusUnauthorized, api.do(http.MethodPost, "/api/v1/auth/refresh", nil, tokens.RefreshToken).Code)
	})
}

func TestBookEndpoints(t *testing.T) {
	api := newTestAPI(t)
	admin := api.librarian()
	_, member := api.member("alice")

	rec := api.do(http.MethodPost, "/api/v1/books", map[string]any{
		"title": "Dune", "author": "Frank Herbert", "isbn": "9780441172719",
		"page_count": 412, "published_date": "1965-08-01",
	}, member.AccessToken)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = api.do(http.MethodPost, "/api/v1/books", map[string]any{
		"title": "Dune", "author": "Frank Herbert", "isbn": "12345",
		"page_count": 412, "published_date": "1965-08-01",
	}, admin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	id := api.book(admin, "9780441172719", 2)
	api.book(admin, "9780553293357", 1)

	t.Run("Public reads", func(t *testing.T) {
		rec := api.do(http.MethodGet, fmt.Sprintf("/api/v1/books/%d", id), nil, "")
		require.Equal(t, http.StatusOK, rec.Code)
		var book domain.Book
		decodeBody(t, rec, &book)
		assert.Equal(t, int32(2), book.AvailableCopies)
		assert.Equal(t, domain.GenreOther, book.Genre)

		assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, "/api/v1/books/999", nil, "").Code)
	})

	t.Run("List filters and ordering", func(t *testing.T) {
		rec := api.do(http.MethodGet, "/api/v1/books?isbn=9780553293357", nil, "")
		require.Equal(t, http.StatusOK, rec.Code)
		var page listResponse[domain.Book]
		decodeBody(t, rec, &page)
		assert.Equal(t, int64(1), page.Count)
		assert.Equal(t, 20, page.PageSize)

		assert.Equal(t, http.StatusBadRequest, api.do(http.MethodGet, "/api/v1/books?ordering=-color", nil, "").Code)
		assert.Equal(t, http.StatusBadRequest, api.do(http.MethodGet, "/api/v1/books?min_pages=many", nil, "").Code)
	})

	t.Run("Patch clamps copies", func(t *testing.T) {
		rec := api.do(http.MethodPatch, fmt.Sprintf("/api/v1/books/%d", id), map[string]any{"total_copies": 1}, admin)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var book domain.Book
		decodeBody(t, rec, &book)
		assert.Equal(t, int32(1), book.AvailableCopies)
	})

	t.Run("Delete refused while on loan", func(t *testing.T) {
		rec := api.do(http.MethodPost, "/api/v1/loans/borrow", map[string]any{"book_id": id}, member.AccessToken)
		require.Equal(t, http.StatusCreated, rec.Code)

		assert.Equal(t, http.StatusConflict, api.do(http.MethodDelete, fmt.Sprintf("/api/v1/books/%d", id), nil, admin).Code)
	})
}

func TestLoanEndpoints(t *testing.T) {
	api := newTestAPI(t)
	admin := api.librarian()
	aliceID, alice := api.member("alice")
	_, bob := api.member("bob")
	bookID := api.book(admin, "9780441172719", 5)

	rec := api.do(http.MethodPost, "/api/v1/loans/borrow", map[string]any{"book_id": bookID}, alice.AccessToken)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var loan loanView
	decodeBody(t, rec, &loan)
	assert.Equal(t, domain.LoanStatusActive, loan.Status)
	assert.True(t, testNow.Add(14*24*time.Hour).Equal(loan.DueOn))
	assert.False(t, loan.IsOverdue)

	rec = api.do(http.MethodPost, "/api/v1/loans/borrow", map[string]any{"book_id": bookID}, alice.AccessToken)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = api.do(http.MethodPost, "/api/v1/loans/borrow", map[string]any{
		"book_id":  api.book(admin, "9780553293357", 1),
		"due_date": testNow.Add(-time.Hour),
	}, alice.AccessToken)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	t.Run("Only the owner or staff returns", func(t *testing.T) {
		rec := api.do(http.MethodPost, "/api/v1/loans/return", map[string]any{"loan_id": loan.ID}, bob.AccessToken)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("Overdue is flagged on read", func(t *testing.T) {
		api.clock.Advance(15 * 24 * time.Hour)

		rec := api.do(http.MethodGet, "/api/v1/loans/active", nil, alice.AccessToken)
		require.Equal(t, http.StatusOK, rec.Code)
		var page listResponse[loanView]
		decodeBody(t, rec, &page)
		require.Len(t, page.Results, 1)
		assert.Equal(t, domain.LoanStatusOverdue, page.Results[0].Status)
		assert.True(t, page.Results[0].IsOverdue)
	})

	t.Run("Return then return again", func(t *testing.T) {
		rec := api.do(http.MethodPost, "/api/v1/loans/return", map[string]any{"loan_id": loan.ID}, alice.AccessToken)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var returned loanView
		decodeBody(t, rec, &returned)
		assert.Equal(t, domain.LoanStatusReturned, returned.Status)
		assert.NotNil(t, returned.ReturnedOn)
		assert.False(t, returned.IsOverdue)

		rec = api.do(http.MethodPost, "/api/v1/loans/return", map[string]any{"loan_id": loan.ID}, alice.AccessToken)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("History filters by status", func(t *testing.T) {
		rec := api.do(http.MethodGet, "/api/v1/loans/history?status=returned", nil, alice.AccessToken)
		require.Equal(t, http.StatusOK, rec.Code)
		var page listResponse[loanView]
		decodeBody(t, rec, &page)
		assert.Equal(t, int64(1), page.Count)

		assert.Equal(t, http.StatusBadRequest, api.do(http.MethodGet, "/api/v1/loans/history?status=lost", nil, alice.AccessToken).Code)
	})

	t.Run("Membership cap is enforced", func(t *testing.T) {
		rec := api.do(http.MethodPatch, fmt.Sprintf("/api/v1/admin/users/%d/membership", aliceID), map[string]any{"max_books_allowed": 1}, admin)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		first := api.book(admin, "9780765326355", 1)
		second := api.book(admin, "9780765326362", 1)
		require.Equal(t, http.StatusCreated, api.do(http.MethodPost, "/api/v1/loans/borrow", map[string]any{"book_id": first}, alice.AccessToken).Code)
		assert.Equal(t, http.StatusUnprocessableEntity, api.do(http.MethodPost, "/api/v1/loans/borrow", map[string]any{"book_id": second}, alice.AccessToken).Code)
	})
}

func TestAdminEndpoints(t *testing.T) {
	api := newTestAPI(t)
	admin := api.librarian()
	aliceID, alice := api.member("alice")
	bookID := api.book(admin, "9780441172719", 1)

	rec := api.do(http.MethodPost, "/api/v1/loans/borrow", map[string]any{"book_id": bookID}, alice.AccessToken)
	require.Equal(t, http.StatusCreated, rec.Code)
	var loan loanView
	decodeBody(t, rec, &loan)

	assert.Equal(t, http.StatusForbidden, api.do(http.MethodGet, "/api/v1/admin/loans", nil, alice.AccessToken).Code)

	api.clock.Advance(20 * 24 * time.Hour)

	t.Run("List overdue loans", func(t *testing.T) {
		rec := api.do(http.MethodGet, "/api/v1/admin/loans?status=overdue&search=alice", nil, admin)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var page listResponse[loanView]
		decodeBody(t, rec, &page)
		require.Equal(t, int64(1), page.Count)
		assert.Equal(t, "alice", page.Results[0].Username)
	})

	t.Run("Get and refresh", func(t *testing.T) {
		rec := api.do(http.MethodPost, fmt.Sprintf("/api/v1/admin/loans/%d/refresh", loan.ID), nil, admin)
		require.Equal(t, http.StatusOK, rec.Code)
		var refreshed loanView
		decodeBody(t, rec, &refreshed)
		assert.Equal(t, domain.LoanStatusOverdue, refreshed.Status)

		assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, "/api/v1/admin/loans/999", nil, admin).Code)
	})

	t.Run("Deactivate user", func(t *testing.T) {
		rec := api.do(http.MethodPost, fmt.Sprintf("/api/v1/admin/users/%d/deactivate", aliceID), nil, admin)
		require.Equal(t, http.StatusNoContent, rec.Code)

		rec = api.do(http.MethodGet, "/api/v1/admin/users?is_active=false", nil, admin)
		require.Equal(t, http.StatusOK, rec.Code)
		var page listResponse[domain.User]
		decodeBody(t, rec, &page)
		require.Len(t, page.Results, 1)
		assert.Equal(t, aliceID, page.Results[0].ID)
	})

	t.Run("Demoted staff loses admin routes", func(t *testing.T) {
		staff, err := api.store.Users().GetByUsername(context.Background(), "librarian")
		require.NoError(t, err)
		require.True(t, staff.IsStaff)

		demote := false
		_, err = api.users.UpdateMembership(context.Background(), staff.ID, service.MembershipUpdate{IsStaff: &demote})
		require.NoError(t, err)
		assert.Equal(t, http.StatusForbidden, api.do(http.MethodGet, "/api/v1/admin/users", nil, admin).Code)
	})
}
