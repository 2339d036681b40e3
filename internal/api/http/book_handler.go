package http

import (
	"net/http"

	"library-backend/internal/domain"
	"library-backend/internal/repository"
)

func (s *Server) handleListBooks(w http.ResponseWriter, r *http.Request) {
	q := newQuery(r)
	filter := repository.BookFilter{
		Title:           q.str("title"),
		Author:          q.str("author"),
		ISBN:            q.str("isbn"),
		Genre:           domain.Genre(q.str("genre")),
		IsAvailable:     q.boolPtr("is_available"),
		PublishedAfter:  q.datePtr("published_after"),
		PublishedBefore: q.datePtr("published_before"),
		MinPages:        q.int32Ptr("min_pages"),
		MaxPages:        q.int32Ptr("max_pages"),
		Search:          q.str("search"),
		Ordering:        q.ordering(repository.BookOrderings, repository.DefaultBookSort),
		Page:            q.page(),
	}
	if q.err != nil {
		writeError(w, r, q.err)
		return
	}

	books, total, err := s.services.Book.ListBooks(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse[domain.Book]{
		Count:    total,
		Page:     filter.Page.Page,
		PageSize: filter.Page.PageSize,
		Results:  books,
	})
}

func (s *Server) handleGetBook(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	book, err := s.services.Book.GetBook(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, book)
}

func (s *Server) handleCreateBook(w http.ResponseWriter, r *http.Request) {
	var req bookRequest
	if err := s.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	book := req.toBook()
	if err := s.services.Book.CreateBook(r.Context(), book); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, book)
}

// handleUpdateBook serves PUT (full representation) and PATCH (partial)
func (s *Server) handleUpdateBook(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var book *domain.Book
	if r.Method == http.MethodPut {
		var req bookRequest
		if err := s.decode(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		book, err = s.services.Book.UpdateBook(r.Context(), id, req.toPatch())
	} else {
		var req bookPatchRequest
		if err := s.decode(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		book, err = s.services.Book.UpdateBook(r.Context(), id, req.toPatch())
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, book)
}

func (s *Server) handleDeleteBook(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.services.Book.DeleteBook(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
