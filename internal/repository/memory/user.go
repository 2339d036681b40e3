package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"library-backend/internal/domain"
	"library-backend/internal/repository"
)

type userRepository struct {
	access
}

func (r *userRepository) Create(ctx context.Context, u *domain.User) error {
	return r.do(func(st *state) error {
		for _, existing := range st.users {
			if existing.Username == u.Username {
				return fmt.Errorf("%w: users_username_key", domain.ErrConflict)
			}
			if existing.Email == u.Email {
				return fmt.Errorf("%w: users_email_key", domain.ErrConflict)
			}
		}
		if u.DateJoined.IsZero() {
			u.DateJoined = time.Now().UTC()
		}
		if u.Profile.UpdatedOn.IsZero() {
			u.Profile.UpdatedOn = u.DateJoined
		}
		st.nextUserID++
		u.ID = st.nextUserID
		st.users[u.ID] = *u
		return nil
	})
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	var out *domain.User
	err := r.do(func(st *state) error {
		u, ok := st.users[id]
		if !ok {
			return domain.ErrNotFound
		}
		out = &u
		return nil
	})
	return out, err
}

func (r *userRepository) GetByIDForUpdate(ctx context.Context, id int64) (*domain.User, error) {
	return r.GetByID(ctx, id)
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	var out *domain.User
	err := r.do(func(st *state) error {
		for _, u := range st.users {
			if u.Username == username {
				out = &u
				return nil
			}
		}
		return domain.ErrNotFound
	})
	return out, err
}

func (r *userRepository) Update(ctx context.Context, u *domain.User) error {
	return r.do(func(st *state) error {
		existing, ok := st.users[u.ID]
		if !ok {
			return domain.ErrNotFound
		}
		for id, other := range st.users {
			if id != u.ID && other.Email == u.Email {
				return fmt.Errorf("%w: users_email_key", domain.ErrConflict)
			}
		}
		updated := *u
		// Username, password and join date are not changed by Update.
		updated.Username = existing.Username
		updated.PasswordHash = existing.PasswordHash
		updated.DateJoined = existing.DateJoined
		st.users[u.ID] = updated
		return nil
	})
}

func (r *userRepository) List(ctx context.Context, filter repository.UserFilter) ([]domain.User, int64, error) {
	var out []domain.User
	var total int64
	err := r.do(func(st *state) error {
		matched := make([]domain.User, 0, len(st.users))
		for _, u := range st.users {
			if filter.IsActive != nil && u.IsActive != *filter.IsActive {
				continue
			}
			matched = append(matched, u)
		}
		slices.SortFunc(matched, func(a, b domain.User) int { return cmp.Compare(a.ID, b.ID) })
		total = int64(len(matched))
		out = paginate(matched, filter.Page)
		return nil
	})
	return out, total, err
}
