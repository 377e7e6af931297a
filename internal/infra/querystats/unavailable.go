package querystats

import (
	"context"
	"errors"

	"github.com/yanqian/faq-vectorstore/internal/domain/faq"
)

// ErrUnavailable is returned when no backend can keep counters across runs.
var ErrUnavailable = errors.New("trending queries require valkey or a sqlite/postgres store")

// Unavailable drops counters and reports ErrUnavailable on read, so trending
// fails loudly instead of always printing nothing.
type Unavailable struct{}

// IncrementQuery implements faq.QueryStats.
func (Unavailable) IncrementQuery(context.Context, string, string) error {
	return nil
}

// TopQueries implements faq.QueryStats.
func (Unavailable) TopQueries(context.Context, int) ([]faq.TrendingQuery, error) {
	return nil, ErrUnavailable
}

var _ faq.QueryStats = Unavailable{}
