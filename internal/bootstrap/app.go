package bootstrap

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/yanqian/faq-vectorstore/internal/domain/faq"
	"github.com/yanqian/faq-vectorstore/internal/infra/config"
)

// ReadyMessage is printed when the store is bound and populated.
const ReadyMessage = "FAQ vector store is ready."

const usage = `usage: faqstore [command]

commands:
  (none)                      populate the store if empty and report readiness
  search [-k N] <query...>    print the FAQ entries closest to query
  add <question> <answer>     append a FAQ entry
  trending [-n N]             print the most frequent search queries`

// ErrUsage reports an unknown command or malformed arguments.
var ErrUsage = errors.New(usage)

// App runs one CLI command against the FAQ store.
type App struct {
	cfg    *config.Config
	logger *slog.Logger
	svc    faq.Service
	out    io.Writer
}

// NewApp is used by Wire to build the runnable app.
func NewApp(cfg *config.Config, logger *slog.Logger, svc faq.Service) *App {
	return &App{cfg: cfg, logger: logger.With("component", "bootstrap"), svc: svc, out: os.Stdout}
}

// Run ensures the collection is populated, then executes the command named by
// args[0]. No arguments only reports readiness.
func (a *App) Run(ctx context.Context, args []string) error {
	inserted, err := a.svc.EnsurePopulated(ctx)
	if err != nil {
		return err
	}
	if inserted > 0 {
		a.logger.Info("faq store populated", "count", inserted)
	}

	if len(args) == 0 {
		_, err := fmt.Fprintln(a.out, ReadyMessage)
		return err
	}
	switch args[0] {
	case "search":
		return a.search(ctx, args[1:])
	case "add":
		return a.add(ctx, args[1:])
	case "trending":
		return a.trending(ctx, args[1:])
	case "help", "-h", "--help":
		_, err := fmt.Fprintln(a.out, usage)
		return err
	default:
		return fmt.Errorf("unknown command %q: %w", args[0], ErrUsage)
	}
}

func (a *App) search(ctx context.Context, args []string) error {
	fs := newFlagSet("search")
	k := fs.Int("k", a.cfg.Search.TopK, "number of entries to return")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%v: %w", err, ErrUsage)
	}
	query := strings.Join(fs.Args(), " ")
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("search needs a query: %w", ErrUsage)
	}
	result, err := a.svc.SemanticSearch(ctx, query, *k)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(a.out, result)
	return err
}

func (a *App) add(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("add needs a question and an answer: %w", ErrUsage)
	}
	entry, err := a.svc.AddFAQ(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(a.out, "Added FAQ #%s\n", entry.ID)
	return err
}

func (a *App) trending(ctx context.Context, args []string) error {
	fs := newFlagSet("trending")
	limit := fs.Int("n", 10, "number of queries to list")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%v: %w", err, ErrUsage)
	}
	items, err := a.svc.Trending(ctx, *limit)
	if err != nil {
		return err
	}
	for _, item := range items {
		if _, err := fmt.Fprintf(a.out, "%d\t%s\n", item.Count, item.Query); err != nil {
			return err
		}
	}
	return nil
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}
