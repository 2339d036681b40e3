package http

import (
	"net/http"

	"library-backend/internal/domain"
	"library-backend/internal/repository"
	"library-backend/internal/service"
)

func (s *Server) handleAdminListLoans(w http.ResponseWriter, r *http.Request) {
	q := newQuery(r)
	filter := repository.LoanFilter{
		UserID:   q.int64Ptr("user_id"),
		BookID:   q.int64Ptr("book_id"),
		Statuses: q.statuses(),
		Search:   q.str("search"),
		Ordering: q.ordering(repository.LoanOrderings, repository.DefaultLoanSort),
		Page:     q.page(),
	}
	if q.err != nil {
		writeError(w, r, q.err)
		return
	}

	loans, total, err := s.services.Loan.ListLoans(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse[loanView]{
		Count:    total,
		Page:     filter.Page.Page,
		PageSize: filter.Page.PageSize,
		Results:  newLoanViews(loans, s.clock.Now()),
	})
}

func (s *Server) handleAdminGetLoan(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	loan, err := s.services.Loan.GetLoan(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newLoanView(loan, s.clock.Now()))
}

func (s *Server) handleAdminRefreshLoan(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	loan, err := s.services.Loan.RefreshStatus(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newLoanView(loan, s.clock.Now()))
}

func (s *Server) handleAdminListUsers(w http.ResponseWriter, r *http.Request) {
	q := newQuery(r)
	filter := repository.UserFilter{
		IsActive: q.boolPtr("is_active"),
		Page:     q.page(),
	}
	if q.err != nil {
		writeError(w, r, q.err)
		return
	}

	users, total, err := s.services.User.ListUsers(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse[domain.User]{
		Count:    total,
		Page:     filter.Page.Page,
		PageSize: filter.Page.PageSize,
		Results:  users,
	})
}

func (s *Server) handleAdminGetUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	user, err := s.services.User.GetUser(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleAdminUpdateMembership(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req membershipRequest
	if err := s.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	user, err := s.services.User.UpdateMembership(r.Context(), id, service.MembershipUpdate{
		MaxBooksAllowed: req.MaxBooksAllowed,
		IsActiveMember:  req.IsActiveMember,
		IsStaff:         req.IsStaff,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleAdminDeactivateUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.services.User.DeactivateUser(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
