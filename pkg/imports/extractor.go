package imports

import (
	"context"
	"fmt"
	"os"

	"github.com/Sumatoshi-tech/depchain/pkg/cache"
	"github.com/Sumatoshi-tech/depchain/pkg/importmodel"
	"github.com/Sumatoshi-tech/depchain/pkg/syntax"
)

// WalkerVersion identifies the reference layout produced by Walk. Bump it
// whenever Walk changes what it records so cached results are not reused.
const WalkerVersion = "2"

// Extractor parses files with a shared host and walks them for references.
type Extractor struct {
	host  *syntax.Host
	store cache.Store[importmodel.File]
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithCache memoizes extraction results by content hash.
func WithCache(store cache.Store[importmodel.File]) Option {
	return func(e *Extractor) {
		e.store = store
	}
}

// NewExtractor creates an Extractor on top of host.
func NewExtractor(host *syntax.Host, opts ...Option) *Extractor {
	e := &Extractor{host: host}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Host returns the parser host.
func (e *Extractor) Host() *syntax.Host {
	return e.host
}

// CacheStats returns the cache counters, or zero stats without a cache.
func (e *Extractor) CacheStats() cache.Stats {
	if e.store == nil {
		return cache.Stats{}
	}

	return e.store.Stats()
}

// ExtractFile reads path and extracts its references.
func (e *Extractor) ExtractFile(ctx context.Context, path string) (importmodel.File, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return importmodel.File{}, fmt.Errorf("read %s: %w", path, err)
	}

	return e.Extract(ctx, path, content)
}

// Extract parses content and returns its references in document order.
// Malformed sources yield a *syntax.ParseError.
func (e *Extractor) Extract(ctx context.Context, path string, content []byte) (importmodel.File, error) {
	lang := e.host.Language(path)

	var key string

	if e.store != nil && lang != "" {
		key = cache.Key(WalkerVersion, lang, content)

		if cached, ok := e.store.Get(key); ok {
			cached.Path = path

			return cached, nil
		}
	}

	tree, err := e.host.Parse(ctx, path, content)
	if err != nil {
		return importmodel.File{}, err
	}
	defer tree.Close()

	file := importmodel.File{
		Path:       path,
		Lang:       tree.Lang,
		References: Walk(tree),
	}

	if key != "" {
		_ = e.store.Put(key, file)
	}

	return file, nil
}
