package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"library-backend/internal/domain"
	"library-backend/internal/repository"
)

type bookRepository struct {
	access
}

func isbnTaken(st *state, isbn string, except int64) bool {
	for id, b := range st.books {
		if id != except && !b.IsDeleted() && b.ISBN == isbn {
			return true
		}
	}
	return false
}

// checkCopies mirrors the table's CHECK constraints.
func checkCopies(b *domain.Book) error {
	if b.TotalCopies < 1 || b.AvailableCopies < 0 || b.AvailableCopies > b.TotalCopies {
		return fmt.Errorf("%w: books_available_copies_range", domain.ErrValidation)
	}
	return nil
}

func (r *bookRepository) Create(ctx context.Context, b *domain.Book) error {
	return r.do(func(st *state) error {
		b.Normalize()
		if err := checkCopies(b); err != nil {
			return err
		}
		if isbnTaken(st, b.ISBN, 0) {
			return fmt.Errorf("%w: books_isbn_unique", domain.ErrConflict)
		}
		if b.CreatedOn.IsZero() {
			b.CreatedOn = time.Now().UTC()
		}
		b.UpdatedOn = b.CreatedOn
		st.nextBookID++
		b.ID = st.nextBookID
		st.books[b.ID] = *b
		return nil
	})
}

func (r *bookRepository) GetByID(ctx context.Context, id int64) (*domain.Book, error) {
	var out *domain.Book
	err := r.do(func(st *state) error {
		b, ok := st.books[id]
		if !ok || b.IsDeleted() {
			return domain.ErrNotFound
		}
		out = &b
		return nil
	})
	return out, err
}

func (r *bookRepository) GetByIDForUpdate(ctx context.Context, id int64) (*domain.Book, error) {
	return r.GetByID(ctx, id)
}

func (r *bookRepository) Update(ctx context.Context, b *domain.Book) error {
	return r.do(func(st *state) error {
		existing, ok := st.books[b.ID]
		if !ok || existing.IsDeleted() {
			return domain.ErrNotFound
		}
		b.Normalize()
		if err := checkCopies(b); err != nil {
			return err
		}
		if isbnTaken(st, b.ISBN, b.ID) {
			return fmt.Errorf("%w: books_isbn_unique", domain.ErrConflict)
		}
		if b.UpdatedOn.IsZero() {
			b.UpdatedOn = time.Now().UTC()
		}
		updated := *b
		updated.CreatedOn = existing.CreatedOn
		st.books[b.ID] = updated
		return nil
	})
}

func (r *bookRepository) SoftDelete(ctx context.Context, id int64, at time.Time) error {
	return r.do(func(st *state) error {
		b, ok := st.books[id]
		if !ok || b.IsDeleted() {
			return domain.ErrNotFound
		}
		deleted := at
		b.DeletedOn = &deleted
		b.UpdatedOn = at
		st.books[id] = b
		return nil
	})
}

func (r *bookRepository) DecrementAvailable(ctx context.Context, id int64) (bool, error) {
	return r.adjust(id, (*domain.Book).DecrementCopy)
}

func (r *bookRepository) IncrementAvailable(ctx context.Context, id int64) (bool, error) {
	return r.adjust(id, (*domain.Book).IncrementCopy)
}

func (r *bookRepository) adjust(id int64, fn func(*domain.Book) bool) (bool, error) {
	var changed bool
	err := r.do(func(st *state) error {
		b, ok := st.books[id]
		if !ok {
			return nil
		}
		if changed = fn(&b); changed {
			b.UpdatedOn = time.Now().UTC()
			st.books[id] = b
		}
		return nil
	})
	return changed, err
}

func (r *bookRepository) List(ctx context.Context, filter repository.BookFilter) ([]domain.Book, int64, error) {
	var out []domain.Book
	var total int64
	err := r.do(func(st *state) error {
		matched := make([]domain.Book, 0, len(st.books))
		for _, b := range st.books {
			if !b.IsDeleted() && matchBook(&b, filter) {
				matched = append(matched, b)
			}
		}
		ordering := filter.Ordering
		if !slices.Contains(repository.BookOrderings, ordering.Field) {
			ordering = repository.DefaultBookSort
		}
		slices.SortFunc(matched, func(a, b domain.Book) int {
			c := compareBooks(&a, &b, ordering.Field)
			if ordering.Desc {
				c = -c
			}
			if c == 0 {
				c = cmp.Compare(a.ID, b.ID)
			}
			return c
		})
		total = int64(len(matched))
		out = paginate(matched, filter.Page)
		return nil
	})
	return out, total, err
}

func matchBook(b *domain.Book, f repository.BookFilter) bool {
	if f.Title != "" && !containsFold(b.Title, f.Title) {
		return false
	}
	if f.Author != "" && !containsFold(b.Author, f.Author) {
		return false
	}
	if f.ISBN != "" && b.ISBN != f.ISBN {
		return false
	}
	if f.Genre != "" && b.Genre != f.Genre {
		return false
	}
	if f.IsAvailable != nil && b.IsAvailable() != *f.IsAvailable {
		return false
	}
	if f.PublishedAfter != nil && b.PublishedDate.Before(*f.PublishedAfter) {
		return false
	}
	if f.PublishedBefore != nil && b.PublishedDate.After(*f.PublishedBefore) {
		return false
	}
	if f.MinPages != nil && b.PageCount < *f.MinPages {
		return false
	}
	if f.MaxPages != nil && b.PageCount > *f.MaxPages {
		return false
	}
	if f.Search != "" &&
		!containsFold(b.Title, f.Search) &&
		!containsFold(b.Author, f.Search) &&
		!containsFold(b.ISBN, f.Search) &&
		!containsFold(b.Description, f.Search) {
		return false
	}
	return true
}

func compareBooks(a, b *domain.Book, field string) int {
	switch field {
	case "author":
		return strings.Compare(a.Author, b.Author)
	case "published_date":
		return a.PublishedDate.Compare(b.PublishedDate)
	case "page_count":
		return cmp.Compare(a.PageCount, b.PageCount)
	case "available_copies":
		return cmp.Compare(a.AvailableCopies, b.AvailableCopies)
	default:
		return strings.Compare(a.Title, b.Title)
	}
}
