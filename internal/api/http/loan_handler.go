package http

import (
	"net/http"

	"library-backend/internal/repository"
)

func (s *Server) handleBorrow(w http.ResponseWriter, r *http.Request) {
	var req borrowRequest
	if err := s.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	loan, err := s.services.Loan.Borrow(r.Context(), userIDFromContext(r.Context()), req.BookID, req.DueDate, req.Notes)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newLoanView(loan, s.clock.Now()))
}

func (s *Server) handleReturn(w http.ResponseWriter, r *http.Request) {
	var req returnRequest
	if err := s.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	loan, err := s.services.Loan.Return(r.Context(), userIDFromContext(r.Context()), req.LoanID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newLoanView(loan, s.clock.Now()))
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	q := newQuery(r)
	statuses := q.statuses()
	ordering := q.ordering(repository.LoanOrderings, repository.DefaultLoanSort)
	page := q.page()
	if q.err != nil {
		writeError(w, r, q.err)
		return
	}

	loans, total, err := s.services.Loan.History(r.Context(), userIDFromContext(r.Context()), statuses, ordering, page)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse[loanView]{
		Count:    total,
		Page:     page.Page,
		PageSize: page.PageSize,
		Results:  newLoanViews(loans, s.clock.Now()),
	})
}

func (s *Server) handleActive(w http.ResponseWriter, r *http.Request) {
	loans, err := s.services.Loan.Active(r.Context(), userIDFromContext(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse[loanView]{
		Count:   int64(len(loans)),
		Results: newLoanViews(loans, s.clock.Now()),
	})
}
