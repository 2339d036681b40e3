package memory

import (
	"strings"

	"library-backend/internal/repository"
)

func paginate[T any](items []T, p repository.Page) []T {
	offset, limit := p.Offset(), p.Limit()
	if offset >= len(items) {
		return []T{}
	}
	end := min(offset+limit, len(items))
	return items[offset:end]
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
