package embedder

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/require"
)

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func TestDeterministicEmbedderIsStableAndNormalized(t *testing.T) {
	e := NewDeterministicEmbedder(32)
	first, err := e.Embed(context.Background(), []string{"How do I reset my password?"})
	require.NoError(t, err)
	second, err := e.Embed(context.Background(), []string{"how do i reset my PASSWORD"})
	require.NoError(t, err)

	require.Len(t, first[0], 32)
	require.Equal(t, first[0], second[0])
	require.InDelta(t, 1.0, cosine(first[0], first[0]), 1e-6)
}

func TestDeterministicEmbedderRelatesSharedWords(t *testing.T) {
	e := NewDeterministicEmbedder(256)
	vecs, err := e.Embed(context.Background(), []string{
		"reset password account",
		"password reset help",
		"shipping times international delivery",
	})
	require.NoError(t, err)
	require.Greater(t, cosine(vecs[0], vecs[1]), cosine(vecs[0], vecs[2]))
}

func TestDeterministicEmbedderEmptyText(t *testing.T) {
	vecs, err := NewDeterministicEmbedder(0).Embed(context.Background(), []string{"   "})
	require.NoError(t, err)
	require.Len(t, vecs[0], 64)
	for _, v := range vecs[0] {
		require.Zero(t, v)
	}
}

type embeddingServer struct {
	mu     sync.Mutex
	inputs [][]string
}

func (s *embeddingServer) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/embeddings", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		var req struct {
			Input []string `json:"input"`
			Model string   `json:"model"`
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.mu.Lock()
		s.inputs = append(s.inputs, req.Input)
		s.mu.Unlock()

		// answer in reverse order to exercise index handling
		data := make([]map[string]any, 0, len(req.Input))
		for i := len(req.Input) - 1; i >= 0; i-- {
			data = append(data, map[string]any{
				"object":    "embedding",
				"index":     i,
				"embedding": []float32{float32(len(req.Input[i])), 1},
			})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"model":  req.Model,
			"data":   data,
			"usage":  map[string]int{"prompt_tokens": 1, "total_tokens": 1},
		})
	}
}

func newTestOpenAIEmbedder(baseURL string, maxTokens int) *OpenAIEmbedder {
	cfg := openai.DefaultConfig("test-key")
	cfg.BaseURL = baseURL + "/v1"
	return &OpenAIEmbedder{
		client:         openai.NewClientWithConfig(cfg),
		model:          openai.SmallEmbedding3,
		maxBatchTokens: maxTokens,
		logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestOpenAIEmbedderOrdersByIndex(t *testing.T) {
	srv := &embeddingServer{}
	ts := httptest.NewServer(srv.handler(t))
	defer ts.Close()

	e := newTestOpenAIEmbedder(ts.URL, defaultMaxBatchTokens)
	vecs, err := e.Embed(context.Background(), []string{"a", "bbb", "cc"})
	require.NoError(t, err)
	require.Equal(t, [][]float32{{1, 1}, {3, 1}, {2, 1}}, vecs)
	require.Len(t, srv.inputs, 1)
}

func TestOpenAIEmbedderSplitsByTokenBudget(t *testing.T) {
	srv := &embeddingServer{}
	ts := httptest.NewServer(srv.handler(t))
	defer ts.Close()

	// each four-rune text estimates to two tokens
	e := newTestOpenAIEmbedder(ts.URL, 4)
	vecs, err := e.Embed(context.Background(), []string{"aaaa", "bbbb", "cccc"})
	require.NoError(t, err)
	require.Len(t, vecs, 3)
	require.Equal(t, [][]string{{"aaaa", "bbbb"}, {"cccc"}}, srv.inputs)
}

func TestOpenAIEmbedderRejectsOversizedText(t *testing.T) {
	e := newTestOpenAIEmbedder("http://127.0.0.1:0", 2)
	_, err := e.Embed(context.Background(), []string{"this text is far too long"})
	require.Error(t, err)
}

func TestEstimateTokens(t *testing.T) {
	require.Equal(t, 0, estimateTokens(""))
	require.Equal(t, 2, estimateTokens("abcd"))
	require.Equal(t, 3, estimateTokens("a b c"))
}
