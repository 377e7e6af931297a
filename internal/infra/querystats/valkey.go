package querystats

import (
	"context"
	"fmt"

	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/faq-vectorstore/internal/domain/faq"
)

const defaultTopLimit = 10

// ValkeyStore counts queries in a sorted set so every process sharing the
// collection sees the same trending list.
type ValkeyStore struct {
	client valkey.Client
	prefix string
}

// NewValkeyStore constructs a store backed by Valkey. Keys are scoped by
// prefix and collection.
func NewValkeyStore(client valkey.Client, prefix, collection string) *ValkeyStore {
	if prefix == "" {
		prefix = "faqstore"
	}
	if collection != "" {
		prefix = prefix + ":" + collection
	}
	return &ValkeyStore{client: client, prefix: prefix}
}

// IncrementQuery implements faq.QueryStats.
func (s *ValkeyStore) IncrementQuery(ctx context.Context, canonical, display string) error {
	if canonical == "" {
		return nil
	}
	if err := s.client.Do(ctx, s.client.B().Zincrby().Key(s.trendingKey()).Increment(1).Member(canonical).Build()).Error(); err != nil {
		return err
	}
	if display != "" {
		_ = s.client.Do(ctx, s.client.B().Set().Key(s.displayKey(canonical)).Value(display).Nx().Build()).Error()
	}
	return nil
}

// TopQueries implements faq.QueryStats.
func (s *ValkeyStore) TopQueries(ctx context.Context, limit int) ([]faq.TrendingQuery, error) {
	if limit <= 0 {
		limit = defaultTopLimit
	}
	resp := s.client.Do(ctx, s.client.B().Zrevrange().Key(s.trendingKey()).Start(0).Stop(int64(limit-1)).Withscores().Build())
	arr, err := resp.ToArray()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return nil, nil
		}
		return nil, err
	}
	scores, err := parseScores(arr)
	if err != nil {
		return nil, err
	}
	out := make([]faq.TrendingQuery, 0, len(scores))
	for _, sc := range scores {
		out = append(out, faq.TrendingQuery{Query: s.fetchDisplay(ctx, sc.member), Count: int64(sc.score)})
	}
	return out, nil
}

type memberScore struct {
	member string
	score  float64
}

// parseScores accepts both reply shapes of ZREVRANGE WITHSCORES.
func parseScores(arr []valkey.ValkeyMessage) ([]memberScore, error) {
	var (
		out []memberScore
		err error
	)
	for i := 0; i < len(arr); {
		var sc memberScore
		if tuple, tupleErr := arr[i].ToArray(); tupleErr == nil && len(tuple) == 2 {
			// RESP3 returns [member, score] per element
			if sc.member, err = tuple[0].ToString(); err != nil {
				return nil, err
			}
			if sc.score, err = tuple[1].AsFloat64(); err != nil {
				return nil, err
			}
			i++
		} else {
			// RESP2 returns a flat alternating array
			if i+1 >= len(arr) {
				break
			}
			if sc.member, err = arr[i].ToString(); err != nil {
				return nil, err
			}
			if sc.score, err = arr[i+1].AsFloat64(); err != nil {
				return nil, err
			}
			i += 2
		}
		out = append(out, sc)
	}
	return out, nil
}

func (s *ValkeyStore) fetchDisplay(ctx context.Context, canonical string) string {
	resp := s.client.Do(ctx, s.client.B().Get().Key(s.displayKey(canonical)).Build())
	display, err := resp.ToString()
	if err != nil || display == "" {
		return canonical
	}
	return display
}

func (s *ValkeyStore) trendingKey() string {
	return fmt.Sprintf("%s:trending", s.prefix)
}

func (s *ValkeyStore) displayKey(canonical string) string {
	return fmt.Sprintf("%s:display:%s", s.prefix, canonical)
}

var _ faq.QueryStats = (*ValkeyStore)(nil)
