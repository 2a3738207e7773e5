// Package coerce converts raw cell strings into typed field values.
//
// Each field kind (text, integer, date, ...) maps to a [Strategy]. Strategies
// are registered explicitly on a [Registry] at startup; [Default] returns a
// registry holding the built-in kinds. Looking up an unregistered kind yields a
// diagnostic strategy that logs the registered kinds and fails with
// [ErrUnknownKind], so misconfigured fields surface as errors instead of
// silently importing nothing.
package coerce

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
)

// Kind identifies a coercion strategy.
type Kind string

const (
	Text      Kind = "text"
	Integer   Kind = "integer"
	Float     Kind = "float"
	Double    Kind = "double"
	Decimal   Kind = "decimal"
	Boolean   Kind = "boolean"
	Date      Kind = "date"
	Timestamp Kind = "timestamp"
)

// ErrUnknownKind is returned for kinds that were never registered.
var ErrUnknownKind = errors.New("unknown field type")

// Strategy converts a trimmed raw value using the field's format pattern.
// A blank value yields (nil, nil). The error's message is shown to the user
// as the field's validation message.
type Strategy func(raw, format string) (any, error)

// ErrorSink collects one message per field title.
type ErrorSink interface {
	Add(title, message string)
}

// Registry maps kinds to strategies. It is safe for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	strategies map[Kind]Strategy
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{strategies: make(map[Kind]Strategy)}
}

var (
	defaultOnce sync.Once
	defaultReg  *Registry
)

// Default returns the shared registry with every built-in kind registered.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultReg = NewRegistry()
		RegisterBuiltins(defaultReg)
	})
	return defaultReg
}

// RegisterBuiltins adds the built-in strategies to r.
func RegisterBuiltins(r *Registry) {
	r.Register(Text, coerceText)
	r.Register(Integer, coerceInteger)
	r.Register(Float, coerceFloat)
	r.Register(Double, coerceDouble)
	r.Register(Decimal, coerceDecimal)
	r.Register(Boolean, coerceBoolean)
	r.Register(Date, coerceDate)
	r.Register(Timestamp, coerceTimestamp)
}

// Register adds a strategy for kind.
// Panics if the kind is already registered.
func (r *Registry) Register(kind Kind, s Strategy) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.strategies[kind]; exists {
		panic(fmt.Sprintf("coercion kind already registered: %s", kind))
	}
	r.strategies[kind] = s
}

// Has reports whether kind is registered.
func (r *Registry) Has(kind Kind) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.strategies[kind]
	return ok
}

// Kinds returns the registered kinds, sorted.
func (r *Registry) Kinds() []Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]Kind, 0, len(r.strategies))
	for k := range r.strategies {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// Lookup returns the strategy for kind, or the diagnostic strategy when the
// kind is not registered.
func (r *Registry) Lookup(kind Kind) Strategy {
	r.mu.RLock()
	s, ok := r.strategies[kind]
	r.mu.RUnlock()

	if ok {
		return s
	}
	return r.diagnostic(kind)
}

// Coerce runs the strategy for kind and records any failure in sink under
// title. A strategy that panics is treated as producing no value.
func (r *Registry) Coerce(title string, kind Kind, raw, format string, sink ErrorSink) (v any) {
	defer func() {
		if p := recover(); p != nil {
			slog.Error("coercion panicked",
				"field", title,
				"kind", kind,
				"panic", p,
			)
			v = nil
		}
	}()

	v, err := r.Lookup(kind)(raw, format)
	if err != nil {
		sink.Add(title, err.Error())
		return nil
	}
	return v
}

// diagnostic returns the strategy used for unregistered kinds.
func (r *Registry) diagnostic(kind Kind) Strategy {
	return func(raw, format string) (any, error) {
		kinds := r.Kinds()
		names := make([]string, len(kinds))
		for i, k := range kinds {
			names[i] = string(k)
		}
		slog.Warn("unregistered field type",
			"kind", kind,
			"registered", strings.Join(names, ", "),
		)
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
}
