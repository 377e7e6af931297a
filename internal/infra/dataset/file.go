package dataset

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/yanqian/faq-vectorstore/internal/domain/faq"
)

// FileSource reads datasets from the local filesystem. A directory name is
// resolved to the file named after the split, e.g. data/train.jsonl.
type FileSource struct{}

// NewFileSource constructs the source.
func NewFileSource() *FileSource {
	return &FileSource{}
}

// Load implements faq.DatasetSource.
func (s *FileSource) Load(ctx context.Context, name, split string) ([]faq.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	file, err := resolveFile(name, split)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("read dataset file: %w", err)
	}
	return decodeRecords(file, data)
}

func resolveFile(name, split string) (string, error) {
	info, err := os.Stat(name)
	if err != nil {
		return "", fmt.Errorf("stat dataset: %w", err)
	}
	if !info.IsDir() {
		return name, nil
	}
	for _, ext := range fileFormats {
		candidate := filepath.Join(name, split+ext)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no %s split found in %s", split, name)
}

var _ faq.DatasetSource = (*FileSource)(nil)
