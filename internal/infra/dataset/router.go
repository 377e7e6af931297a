package dataset

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/yanqian/faq-vectorstore/internal/domain/faq"
)

// ErrObjectStoreDisabled is returned for s3:// datasets when no object
// storage endpoint is configured.
var ErrObjectStoreDisabled = errors.New("object storage not configured")

// Router dispatches a dataset name to the source able to read it.
type Router struct {
	hub    faq.DatasetSource
	file   faq.DatasetSource
	object faq.DatasetSource
}

// NewRouter wires the sources. object may be nil.
func NewRouter(hub, file, object faq.DatasetSource) *Router {
	return &Router{hub: hub, file: file, object: object}
}

// Load implements faq.DatasetSource.
func (r *Router) Load(ctx context.Context, name, split string) ([]faq.Record, error) {
	switch {
	case strings.HasPrefix(name, objectScheme):
		if r.object == nil {
			return nil, ErrObjectStoreDisabled
		}
		return r.object.Load(ctx, name, split)
	case isLocal(name):
		return r.file.Load(ctx, name, split)
	default:
		return r.hub.Load(ctx, name, split)
	}
}

func isLocal(name string) bool {
	if hasFileFormat(name) {
		return true
	}
	_, err := os.Stat(name)
	return err == nil
}

var _ faq.DatasetSource = (*Router)(nil)
