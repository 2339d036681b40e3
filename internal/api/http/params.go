package http

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"library-backend/internal/domain"
	"library-backend/internal/repository"

	"github.com/gorilla/mux"
)

const dateLayout = "2006-01-02"

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid id", domain.ErrValidation)
	}
	return id, nil
}

// query wraps url.Values and keeps the first parse error
type query struct {
	r   *http.Request
	err error
}

func newQuery(r *http.Request) *query {
	return &query{r: r}
}

func (q *query) fail(key string) {
	if q.err == nil {
		q.err = fmt.Errorf("%w: invalid value for %s", domain.ErrValidation, key)
	}
}

func (q *query) str(key string) string {
	return strings.TrimSpace(q.r.URL.Query().Get(key))
}

func (q *query) int(key string) int {
	raw := q.str(key)
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		q.fail(key)
	}
	return n
}

func (q *query) int64Ptr(key string) *int64 {
	raw := q.str(key)
	if raw == "" {
		return nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		q.fail(key)
		return nil
	}
	return &n
}

func (q *query) int32Ptr(key string) *int32 {
	raw := q.str(key)
	if raw == "" {
		return nil
	}
	n, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		q.fail(key)
		return nil
	}
	v := int32(n)
	return &v
}

func (q *query) boolPtr(key string) *bool {
	raw := q.str(key)
	if raw == "" {
		return nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		q.fail(key)
		return nil
	}
	return &b
}

func (q *query) datePtr(key string) *time.Time {
	raw := q.str(key)
	if raw == "" {
		return nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		q.fail(key)
		return nil
	}
	return &t
}

func (q *query) page() repository.Page {
	return repository.Page{Page: q.int("page"), PageSize: q.int("page_size")}.Normalize()
}

// statuses accepts both ?status=a,b and repeated ?status= parameters
func (q *query) statuses() []domain.LoanStatus {
	var out []domain.LoanStatus
	for _, raw := range q.r.URL.Query()["status"] {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			status := domain.LoanStatus(part)
			if !status.Valid() {
				q.fail("status")
				continue
			}
			out = append(out, status)
		}
	}
	return out
}

func (q *query) ordering(allowed []string, def repository.Ordering) repository.Ordering {
	o, err := repository.ParseOrdering(q.str("ordering"), allowed, def)
	if err != nil && q.err == nil {
		q.err = err
	}
	return o
}
