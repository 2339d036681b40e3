package service

import (
	"context"
	"fmt"
	"strings"

	"library-backend/internal/clock"
	"library-backend/internal/domain"
	"library-backend/internal/logger"
	"library-backend/internal/repository"
)

type bookService struct {
	store repository.Store
	clock clock.Clock
}

func NewBookService(store repository.Store, clk clock.Clock) BookService {
	return &bookService{store: store, clock: clk}
}

func validateBook(b *domain.Book) error {
	b.Title = strings.TrimSpace(b.Title)
	b.Author = strings.TrimSpace(b.Author)
	switch {
	case b.Title == "":
		return fmt.Errorf("%w: title is required", domain.ErrValidation)
	case b.Author == "":
		return fmt.Errorf("%w: author is required", domain.ErrValidation)
	case !domain.ValidISBN(b.ISBN):
		return fmt.Errorf("%w: isbn must be 10 or 13 digits", domain.ErrValidation)
	case b.PageCount < 1:
		return fmt.Errorf("%w: page count must be at least 1", domain.ErrValidation)
	case b.TotalCopies < 1:
		return fmt.Errorf("%w: total copies must be at least 1", domain.ErrValidation)
	case !b.Genre.Valid():
		return fmt.Errorf("%w: unknown genre %q", domain.ErrValidation, b.Genre)
	}
	return nil
}

func (s *bookService) CreateBook(ctx context.Context, book *domain.Book) error {
	if book.Genre == "" {
		book.Genre = domain.GenreOther
	}
	if err := validateBook(book); err != nil {
		return err
	}
	book.Normalize()
	book.CreatedOn = s.clock.Now()
	book.UpdatedOn = book.CreatedOn

	if err := s.store.Books().Create(ctx, book); err != nil {
		logger.ExitMethodWithError(ctx, "bookService.CreateBook", err, expected(err), "isbn", book.ISBN)
		return err
	}
	logger.InfoContext(ctx, "Book created", "bookID", book.ID, "isbn", book.ISBN)
	return nil
}

func (s *bookService) GetBook(ctx context.Context, id int64) (*domain.Book, error) {
	return s.store.Books().GetByID(ctx, id)
}

// UpdateBook applies patch under the book's row lock so it serialises with
// borrows and returns of the same title.
func (s *bookService) UpdateBook(ctx context.Context, id int64, patch BookPatch) (*domain.Book, error) {
	var updated *domain.Book
	err := s.store.WithinTx(ctx, func(ctx context.Context, uow repository.UnitOfWork) error {
		book, err := uow.Books().GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		applyBookPatch(book, patch)
		if err := validateBook(book); err != nil {
			return err
		}
		book.Normalize()
		book.UpdatedOn = s.clock.Now()
		if err := uow.Books().Update(ctx, book); err != nil {
			return err
		}
		updated = book
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError(ctx, "bookService.UpdateBook", err, expected(err), "bookID", id)
		return nil, err
	}
	return updated, nil
}

func applyBookPatch(b *domain.Book, p BookPatch) {
	if p.Title != nil {
		b.Title = *p.Title
	}
	if p.Author != nil {
		b.Author = *p.Author
	}
	if p.ISBN != nil {
		b.ISBN = *p.ISBN
	}
	if p.PageCount != nil {
		b.PageCount = *p.PageCount
	}
	if p.PublishedDate != nil {
		b.PublishedDate = *p.PublishedDate
	}
	if p.Genre != nil {
		b.Genre = *p.Genre
	}
	if p.Description != nil {
		b.Description = *p.Description
	}
	if p.TotalCopies != nil {
		b.TotalCopies = *p.TotalCopies
	}
	if p.AvailableCopies != nil {
		b.AvailableCopies = *p.AvailableCopies
	}
	if p.CoverImage != nil {
		cover := *p.CoverImage
		if cover == "" {
			b.CoverImage = nil
		} else {
			b.CoverImage = &cover
		}
	}
}

// DeleteBook soft-deletes a book that no open loan references. Loan history
// keeps pointing at the deleted record.
func (s *bookService) DeleteBook(ctx context.Context, id int64) error {
	err := s.store.WithinTx(ctx, func(ctx context.Context, uow repository.UnitOfWork) error {
		if _, err := uow.Books().GetByIDForUpdate(ctx, id); err != nil {
			return err
		}
		open, err := uow.Loans().CountOpenByBook(ctx, id)
		if err != nil {
			return err
		}
		if open > 0 {
			return fmt.Errorf("%w: %d open loans", domain.ErrBookInUse, open)
		}
		return uow.Books().SoftDelete(ctx, id, s.clock.Now())
	})
	if err != nil {
		logger.ExitMethodWithError(ctx, "bookService.DeleteBook", err, expected(err), "bookID", id)
		return err
	}
	logger.InfoContext(ctx, "Book deleted", "bookID", id)
	return nil
}

func (s *bookService) ListBooks(ctx context.Context, filter repository.BookFilter) ([]domain.Book, int64, error) {
	if filter.Genre != "" && !filter.Genre.Valid() {
		return nil, 0, fmt.Errorf("%w: unknown genre %q", domain.ErrValidation, filter.Genre)
	}
	return s.store.Books().List(ctx, filter)
}
