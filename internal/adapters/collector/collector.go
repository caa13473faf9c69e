// Package collector fetches raw job postings from external listing sources.
package collector

import (
	"context"

	"github.com/okian/applyflow/internal/domain/model"
)

// Collector produces postings from one source. Returned postings carry empty
// RequiredSkills and a zero RequiredYears; extraction happens downstream.
type Collector interface {
	Name() string
	Fetch(ctx context.Context) ([]model.Posting, error)
}

// Func adapts a plain function to the Collector interface.
type Func struct {
	name string
	fn   func(ctx context.Context) ([]model.Posting, error)
}

// NewFunc returns a Collector named name that delegates to fn.
func NewFunc(name string, fn func(ctx context.Context) ([]model.Posting, error)) Func {
	return Func{name: name, fn: fn}
}

func (f Func) Name() string { return f.name }

func (f Func) Fetch(ctx context.Context) ([]model.Posting, error) {
	return f.fn(ctx)
}

// Static returns a Collector that always yields postings.
func Static(name string, postings ...model.Posting) Func {
	return NewFunc(name, func(context.Context) ([]model.Posting, error) {
		out := make([]model.Posting, len(postings))
		copy(out, postings)
		return out, nil
	})
}
