// Package statement turns uploaded bank and card statements into raw
// transaction tuples and normalizes their amounts and dates.
package statement

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"expense-ingest/internal/models"

	"go.uber.org/zap"
)

// Extractor converts statement bytes of one format into raw transactions.
type Extractor interface {
	Extract(ctx context.Context, fileName string, data []byte) ([]models.RawTransaction, error)
	Format() string
}

// Registry holds extractors by format name.
type Registry struct {
	extractors map[string]Extractor
}

func NewRegistry() *Registry {
	return &Registry{extractors: make(map[string]Extractor)}
}

// Register adds an extractor. Panics on duplicate format.
func (r *Registry) Register(e Extractor) {
	key := strings.ToLower(e.Format())
	if _, ok := r.extractors[key]; ok {
		panic("duplicate extractor format: " + key)
	}
	r.extractors[key] = e
}

// Get returns the extractor for format, or nil.
func (r *Registry) Get(format string) Extractor {
	return r.extractors[strings.ToLower(format)]
}

// Formats lists the registered format names.
func (r *Registry) Formats() []string {
	formats := make([]string, 0, len(r.extractors))
	for f := range r.extractors {
		formats = append(formats, f)
	}
	return formats
}

// Dispatcher routes a file to an extractor by its extension. File contents
// are never sniffed.
type Dispatcher struct {
	registry *Registry
	logger   *zap.Logger
}

func NewDispatcher(registry *Registry, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		logger:   logger,
	}
}

// FormatOf returns the lowercase extension of fileName without the dot.
func FormatOf(fileName string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(fileName)), ".")
}

func (d *Dispatcher) Extract(ctx context.Context, fileName string, data []byte) ([]models.RawTransaction, error) {
	format := FormatOf(fileName)
	extractor := d.registry.Get(format)
	if extractor == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	txs, err := extractor.Extract(ctx, fileName, data)
	if err != nil {
		return nil, err
	}

	d.logger.Info("Statement extracted",
		zap.String("file", fileName),
		zap.String("format", format),
		zap.Int("transactions", len(txs)),
	)

	return txs, nil
}
