package bootstrap

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/faq-vectorstore/internal/domain/faq"
	"github.com/yanqian/faq-vectorstore/internal/infra/config"
)

type stubService struct {
	populateErr error
	populated   int
	lastQuery   string
	lastK       int
	added       [][2]string
	trendLimit  int
}

func (s *stubService) EnsurePopulated(context.Context) (int, error) {
	s.populated++
	return 0, s.populateErr
}

func (s *stubService) Search(context.Context, string, int) ([]faq.Match, error) {
	return nil, nil
}

func (s *stubService) SemanticSearch(_ context.Context, query string, k int) (string, error) {
	s.lastQuery, s.lastK = query, k
	return "How do I reset? Use the link.\n\nWhere is my order? Check tracking.", nil
}

func (s *stubService) AddFAQ(_ context.Context, question, answer string) (faq.Entry, error) {
	s.added = append(s.added, [2]string{question, answer})
	return faq.Entry{ID: "42"}, nil
}

func (s *stubService) Trending(_ context.Context, limit int) ([]faq.TrendingQuery, error) {
	s.trendLimit = limit
	return []faq.TrendingQuery{{Query: "reset password", Count: 3}, {Query: "shipping", Count: 1}}, nil
}

func newTestApp(svc faq.Service) (*App, *bytes.Buffer) {
	cfg := &config.Config{Search: config.SearchConfig{TopK: 2}}
	app := NewApp(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)), svc)
	buf := &bytes.Buffer{}
	app.out = buf
	return app, buf
}

func TestRunWithoutArgsPrintsReady(t *testing.T) {
	svc := &stubService{}
	app, out := newTestApp(svc)
	require.NoError(t, app.Run(context.Background(), nil))
	require.Equal(t, ReadyMessage+"\n", out.String())
	require.Equal(t, 1, svc.populated)
}

func TestRunPropagatesPopulateError(t *testing.T) {
	svc := &stubService{populateErr: errors.New("dataset unreachable")}
	app, out := newTestApp(svc)
	err := app.Run(context.Background(), nil)
	require.ErrorContains(t, err, "dataset unreachable")
	require.Empty(t, out.String())
}

func TestRunSearch(t *testing.T) {
	svc := &stubService{}
	app, out := newTestApp(svc)
	require.NoError(t, app.Run(context.Background(), []string{"search", "-k", "5", "reset", "password"}))
	require.Equal(t, "reset password", svc.lastQuery)
	require.Equal(t, 5, svc.lastK)
	require.Contains(t, out.String(), "Where is my order?")

	require.NoError(t, app.Run(context.Background(), []string{"search", "order"}))
	require.Equal(t, 2, svc.lastK)
}

func TestRunSearchNeedsQuery(t *testing.T) {
	app, _ := newTestApp(&stubService{})
	require.ErrorIs(t, app.Run(context.Background(), []string{"search"}), ErrUsage)
	require.ErrorIs(t, app.Run(context.Background(), []string{"search", "-z"}), ErrUsage)
}

func TestRunAdd(t *testing.T) {
	svc := &stubService{}
	app, out := newTestApp(svc)
	require.NoError(t, app.Run(context.Background(), []string{"add", "Do you ship abroad?", "Yes, worldwide."}))
	require.Equal(t, "Added FAQ #42\n", out.String())
	require.Equal(t, [][2]string{{"Do you ship abroad?", "Yes, worldwide."}}, svc.added)

	require.ErrorIs(t, app.Run(context.Background(), []string{"add", "only question"}), ErrUsage)
}

func TestRunTrending(t *testing.T) {
	svc := &stubService{}
	app, out := newTestApp(svc)
	require.NoError(t, app.Run(context.Background(), []string{"trending", "-n", "2"}))
	require.Equal(t, 2, svc.trendLimit)
	require.Equal(t, "3\treset password\n1\tshipping\n", out.String())
}

func TestRunUnknownCommand(t *testing.T) {
	app, _ := newTestApp(&stubService{})
	require.ErrorIs(t, app.Run(context.Background(), []string{"delete"}), ErrUsage)
}
