package embedder

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

const testHFModel = "sentence-transformers/all-MiniLM-L6-v2"

func TestHuggingFaceEmbedderUsesConfiguredEndpoint(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/pipeline/feature-extraction/"+testHFModel, r.URL.Path)
		require.Equal(t, "Bearer hf_test", r.Header.Get("Authorization"))

		var body struct {
			Inputs  []string       `json:"inputs"`
			Options map[string]any `json:"options"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, []string{"reset password", "track order"}, body.Inputs)
		require.Equal(t, true, body.Options["wait_for_model"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[[0.1,0.2,0.3],[0.4,0.5,0.6]]`))
	}))
	defer ts.Close()

	e := NewHuggingFaceEmbedder("hf_test", ts.URL+"/", testHFModel, slog.New(slog.NewTextHandler(io.Discard, nil)))
	vecs, err := e.Embed(context.Background(), []string{"reset password", "track order"})
	require.NoError(t, err)
	require.Equal(t, [][]float32{{0.1, 0.2, 0.3}, {0.4, 0.5, 0.6}}, vecs)
}

func TestHuggingFaceEmbedderWrapsAuthErrors(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"Invalid username or password."}`))
	}))
	defer ts.Close()

	e := NewHuggingFaceEmbedder("bad", ts.URL, testHFModel, nil)
	_, err := e.Embed(context.Background(), []string{"hello"})
	require.ErrorContains(t, err, "rejected credentials")
	require.ErrorContains(t, err, "HUGGINGFACEHUB_API_TOKEN")
	require.ErrorContains(t, err, "Invalid username or password.")
}

func TestHuggingFaceEmbedderWrapsServerErrors(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":"Model is currently loading"}`))
	}))
	defer ts.Close()

	e := NewHuggingFaceEmbedder("", ts.URL, testHFModel, nil)
	_, err := e.Embed(context.Background(), []string{"hello"})
	require.ErrorContains(t, err, "feature extraction with "+testHFModel)
	require.NotContains(t, err.Error(), "rejected credentials")
}

func TestHuggingFaceEmbedderSkipsEmptyInput(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer ts.Close()

	e := NewHuggingFaceEmbedder("", ts.URL, testHFModel, nil)
	vecs, err := e.Embed(context.Background(), nil)
	require.NoError(t, err)
	require.Nil(t, vecs)
	require.Zero(t, calls.Load())
}
