package embedder

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
	"github.com/sashabaranov/go-openai"

	"github.com/yanqian/faq-vectorstore/internal/domain/faq"
)

// stay well below the provider's 300k per-request cap
const defaultMaxBatchTokens = 200_000

// OpenAIEmbedder calls an OpenAI-compatible embeddings API.
type OpenAIEmbedder struct {
	client         *openai.Client
	model          openai.EmbeddingModel
	encoding       *tiktoken.Tiktoken
	maxBatchTokens int
	logger         *slog.Logger
}

// NewOpenAIEmbedder constructs the embedder. baseURL may be empty to use the
// public API.
func NewOpenAIEmbedder(apiKey, baseURL, model string, logger *slog.Logger) *OpenAIEmbedder {
	if logger == nil {
		logger = slog.Default()
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL = strings.TrimSpace(baseURL); baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	model = strings.TrimSpace(model)
	if model == "" {
		model = string(openai.SmallEmbedding3)
	}
	encoding, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		logger.Warn("tiktoken encoding unavailable, estimating tokens", "error", err)
	}
	return &OpenAIEmbedder{
		client:         openai.NewClientWithConfig(cfg),
		model:          openai.EmbeddingModel(model),
		encoding:       encoding,
		maxBatchTokens: defaultMaxBatchTokens,
		logger:         logger.With("component", "embedder.openai"),
	}
}

// Embed requests embeddings for the given texts, splitting requests so no
// single call exceeds the token budget.
func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	var (
		out         [][]float32
		batch       []string
		batchTokens int
	)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		vectors, err := e.embedBatch(ctx, batch)
		if err != nil {
			return err
		}
		out = append(out, vectors...)
		batch = nil
		batchTokens = 0
		return nil
	}

	for _, text := range texts {
		tokens := e.countTokens(text)
		if tokens > e.maxBatchTokens {
			return nil, fmt.Errorf("text too large for embedding request: tokens=%d", tokens)
		}
		if batchTokens+tokens > e.maxBatchTokens && len(batch) > 0 {
			if err := flush(); err != nil {
				return nil, err
			}
		}
		batch = append(batch, text)
		batchTokens += tokens
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return out, nil
}

func (e *OpenAIEmbedder) embedBatch(ctx context.Context, batch []string) ([][]float32, error) {
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: batch,
		Model: e.model,
	})
	if err != nil {
		return nil, fmt.Errorf("create embeddings: %w", err)
	}
	if len(resp.Data) != len(batch) {
		return nil, fmt.Errorf("%w: sent %d texts, got %d vectors", faq.ErrEmbeddingCount, len(batch), len(resp.Data))
	}
	vectors := make([][]float32, len(batch))
	for _, item := range resp.Data {
		if item.Index < 0 || item.Index >= len(batch) {
			return nil, fmt.Errorf("embedding index %d out of range", item.Index)
		}
		vec := make([]float32, len(item.Embedding))
		copy(vec, item.Embedding)
		vectors[item.Index] = vec
	}
	return vectors, nil
}

func (e *OpenAIEmbedder) countTokens(text string) int {
	if e.encoding == nil {
		return estimateTokens(text)
	}
	return len(e.encoding.Encode(text, nil, nil))
}

// estimateTokens provides a rough, upper-biased token count.
func estimateTokens(text string) int {
	if text == "" {
		return 0
	}
	runes := utf8.RuneCountInString(text)
	words := len(strings.Fields(text))
	byRunes := (runes + 1) / 2
	if byRunes < words {
		return words
	}
	return byRunes
}

var _ faq.Embedder = (*OpenAIEmbedder)(nil)
