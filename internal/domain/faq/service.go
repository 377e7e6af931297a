package faq

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	apperrors "github.com/yanqian/faq-vectorstore/pkg/errors"
	"github.com/yanqian/faq-vectorstore/pkg/util"
)

// Service owns the lifecycle of the persisted FAQ collection.
type Service interface {
	EnsurePopulated(ctx context.Context) (int, error)
	Search(ctx context.Context, query string, k int) ([]Match, error)
	SemanticSearch(ctx context.Context, query string, k int) (string, error)
	AddFAQ(ctx context.Context, question, answer string) (Entry, error)
	Trending(ctx context.Context, limit int) ([]TrendingQuery, error)
}

type service struct {
	cfg      Config
	store    VectorStore
	embedder Embedder
	source   DatasetSource
	locker   Locker
	stats    QueryStats
	ids      *idAllocator
	logger   *slog.Logger
}

// NewService binds the FAQ domain to its store and providers.
func NewService(cfg Config, store VectorStore, embedder Embedder, source DatasetSource, locker Locker, stats QueryStats, logger *slog.Logger) Service {
	svc := &service{
		cfg:      cfg.withDefaults(),
		store:    store,
		embedder: embedder,
		source:   source,
		locker:   locker,
		stats:    stats,
		logger:   logger.With("component", "faq.service"),
	}
	svc.ids = newIDAllocator(store.MaxID)
	return svc
}

func (s *service) EnsurePopulated(ctx context.Context) (int, error) {
	count, err := s.store.Count(ctx)
	if err != nil {
		return 0, apperrors.Wrap(apperrors.CodeFAQ, "count entries failed", err)
	}
	if count > 0 {
		return 0, nil
	}

	release, err := s.locker.Acquire(ctx, "populate:"+s.cfg.Collection)
	if err != nil {
		return 0, apperrors.Wrap(apperrors.CodeFAQ, "acquire population lock failed", err)
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			s.logger.Warn("faq population lock release failed", "error", err)
		}
	}()

	// another populator may have finished while we waited
	count, err = s.store.Count(ctx)
	if err != nil {
		return 0, apperrors.Wrap(apperrors.CodeFAQ, "count entries failed", err)
	}
	if count > 0 {
		return 0, nil
	}

	s.logger.Info("faq dataset loading", "dataset", s.cfg.DatasetName, "split", s.cfg.DatasetSplit)
	records, err := s.source.Load(ctx, s.cfg.DatasetName, s.cfg.DatasetSplit)
	if err != nil {
		return 0, apperrors.Wrap(apperrors.CodeFAQ, "load dataset failed", err)
	}
	if len(records) == 0 {
		s.logger.Warn("faq dataset empty", "dataset", s.cfg.DatasetName)
		return 0, nil
	}

	texts := make([]string, len(records))
	for i, rec := range records {
		text, err := s.recordText(rec)
		if err != nil {
			return 0, apperrors.Wrap(apperrors.CodeFAQ, fmt.Sprintf("dataset record %d", i), err)
		}
		texts[i] = text
	}

	vectors, err := s.embedBatched(ctx, texts)
	if err != nil {
		return 0, apperrors.Wrap(apperrors.CodeFAQ, "embedding failed", err)
	}

	now := util.NowUTC()
	entries := make([]Entry, len(texts))
	for i, text := range texts {
		entries[i] = Entry{
			ID:        strconv.Itoa(i),
			Text:      text,
			Embedding: vectors[i],
			CreatedAt: now,
		}
	}

	inserted, err := s.store.Populate(ctx, entries)
	if err != nil {
		return 0, apperrors.Wrap(apperrors.CodeFAQ, "persist dataset failed", err)
	}
	if !inserted {
		s.logger.Info("faq collection populated concurrently, skipping", "collection", s.cfg.Collection)
		return 0, nil
	}
	s.ids.Observe(int64(len(entries) - 1))
	s.logger.Info("faq dataset persisted", "collection", s.cfg.Collection, "count", len(entries))
	return len(entries), nil
}

func (s *service) Search(ctx context.Context, query string, k int) ([]Match, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperrors.Wrap(apperrors.CodeInvalidInput, "query cannot be empty", nil)
	}
	if k <= 0 {
		k = s.cfg.TopK
	}

	vectors, err := s.embed(ctx, []string{query})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeFAQ, "embedding failed", err)
	}
	matches, err := s.store.Query(ctx, vectors[0], k)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeFAQ, "similarity lookup failed", err)
	}

	if s.stats != nil {
		if err := s.stats.IncrementQuery(ctx, normalizeQuery(query), query); err != nil {
			s.logger.Warn("faq query stats increment failed", "error", err)
		}
	}
	return matches, nil
}

func (s *service) SemanticSearch(ctx context.Context, query string, k int) (string, error) {
	matches, err := s.Search(ctx, query, k)
	if err != nil {
		return "", err
	}
	return formatMatches(matches), nil
}

func (s *service) AddFAQ(ctx context.Context, question, answer string) (Entry, error) {
	if strings.TrimSpace(question) == "" {
		return Entry{}, apperrors.Wrap(apperrors.CodeInvalidInput, "question cannot be empty", nil)
	}
	if strings.TrimSpace(answer) == "" {
		return Entry{}, apperrors.Wrap(apperrors.CodeInvalidInput, "answer cannot be empty", nil)
	}

	text := composeText(question, answer)
	vectors, err := s.embed(ctx, []string{text})
	if err != nil {
		return Entry{}, apperrors.Wrap(apperrors.CodeFAQ, "embedding failed", err)
	}
	id, err := s.ids.Next(ctx)
	if err != nil {
		return Entry{}, apperrors.Wrap(apperrors.CodeFAQ, "allocate id failed", err)
	}

	entry := Entry{
		ID:        id,
		Text:      text,
		Embedding: vectors[0],
		CreatedAt: util.NowUTC(),
	}
	if err := s.store.Add(ctx, []Entry{entry}); err != nil {
		return Entry{}, apperrors.Wrap(apperrors.CodeFAQ, "insert entry failed", err)
	}
	s.logger.Info("faq added", "id", entry.ID, "collection", s.cfg.Collection)
	return entry, nil
}

func (s *service) Trending(ctx context.Context, limit int) ([]TrendingQuery, error) {
	if s.stats == nil {
		return nil, nil
	}
	recs, err := s.stats.TopQueries(ctx, limit)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeFAQ, "failed to load trending queries", err)
	}
	return recs, nil
}

func (s *service) recordText(rec Record) (string, error) {
	question, err := recordField(rec, s.cfg.QuestionField)
	if err != nil {
		return "", err
	}
	answer, err := recordField(rec, s.cfg.AnswerField)
	if err != nil {
		return "", err
	}
	return composeText(question, answer), nil
}

// recordField treats a JSON null like an absent key.
func recordField(rec Record, field string) (string, error) {
	v, ok := rec[field]
	if !ok || v == nil {
		return "", fmt.Errorf("%w: %q", ErrMissingField, field)
	}
	return fmt.Sprint(v), nil
}

func (s *service) embedBatched(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += s.cfg.BatchSize {
		end := start + s.cfg.BatchSize
		if end > len(texts) {
			end = len(texts)
		}
		vectors, err := s.embed(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, vectors...)
	}
	return out, nil
}

func (s *service) embed(ctx context.Context, texts []string) ([][]float32, error) {
	vectors, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("%w: sent %d texts, got %d vectors", ErrEmbeddingCount, len(texts), len(vectors))
	}
	return vectors, nil
}

func composeText(question, answer string) string {
	return question + " " + answer
}

func formatMatches(matches []Match) string {
	if len(matches) == 0 {
		return NoResultsMessage
	}
	texts := make([]string, len(matches))
	for i, m := range matches {
		texts[i] = m.Entry.Text
	}
	return strings.Join(texts, resultSeparator)
}
