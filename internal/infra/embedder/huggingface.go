package embedder

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hupe1980/go-huggingface"

	"github.com/yanqian/faq-vectorstore/internal/domain/faq"
)

// HuggingFaceEmbedder calls the hosted feature-extraction pipeline of a
// sentence-transformers model.
type HuggingFaceEmbedder struct {
	client *huggingface.InferenceClient
	model  string
	logger *slog.Logger
}

// NewHuggingFaceEmbedder binds the inference client to model. An empty token
// works for public models but is rate limited. baseURL replaces the hosted
// inference endpoint when set, e.g. for a dedicated Inference Endpoint.
func NewHuggingFaceEmbedder(token, baseURL, model string, logger *slog.Logger) *HuggingFaceEmbedder {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "embedder.huggingface")
	if token == "" {
		logger.Warn("no huggingface token configured, requests are anonymous", "model", model)
	}
	client := huggingface.NewInferenceClient(token, func(o *huggingface.InferenceClientOptions) {
		o.Model = model
		if baseURL = strings.TrimSpace(baseURL); baseURL != "" {
			o.InferenceEndpoint = strings.TrimRight(baseURL, "/")
		}
	})
	return &HuggingFaceEmbedder{client: client, model: model, logger: logger}
}

// Embed returns one pooled vector per text.
func (e *HuggingFaceEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	req := &huggingface.FeatureExtractionRequest{
		Inputs: texts,
		Options: huggingface.Options{
			WaitForModel: huggingface.PTR(true),
			UseCache:     huggingface.PTR(true),
		},
	}
	resp, err := e.client.FeatureExtractionWithAutomaticReduction(ctx, req)
	if err != nil {
		if isAuthError(err) {
			return nil, fmt.Errorf("huggingface model %s rejected credentials, set HUGGINGFACEHUB_API_TOKEN: %w", e.model, err)
		}
		return nil, fmt.Errorf("feature extraction with %s: %w", e.model, err)
	}
	out := make([][]float32, len(resp))
	for i, vec := range resp {
		out[i] = vec
	}
	if len(out) != len(texts) {
		e.logger.Warn("embedding result count mismatch", "expected", len(texts), "got", len(out))
	}
	return out, nil
}

func isAuthError(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "invalid username or password") ||
		strings.Contains(msg, "unauthorized") ||
		strings.Contains(msg, "authentication")
}

var _ faq.Embedder = (*HuggingFaceEmbedder)(nil)
