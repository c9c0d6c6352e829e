// Package ai holds the generative collaborators the document store consults
// for derived fields. Collaborator failures never reach the store: every call
// degrades to a deterministic fallback value instead.
package ai

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Collaborator computes AI-derived document fields. Implementations may be
// slow and may fail; callers must treat both as routine.
type Collaborator interface {
	Summarize(ctx context.Context, text string) (string, error)
	SuggestTags(ctx context.Context, text string, k int) ([]string, error)
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Result is a collaborator value that is either the real thing or its
// degraded fallback. Both satisfy the same downstream contract, so the store
// never branches on collaborator health.
type Result[T any] struct {
	Value    T
	Degraded bool
}

// Derived bundles the three derived fields of one document revision.
type Derived struct {
	Summary   Result[string]
	Tags      Result[[]string]
	Embedding Result[[]float32]
}

// Deriver wraps a collaborator with the degrade-to-fallback policy and a
// per-call timeout.
type Deriver struct {
	collab  Collaborator
	timeout time.Duration
}

func NewDeriver(collab Collaborator, timeout time.Duration) *Deriver {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Deriver{collab: collab, timeout: timeout}
}

// Derive computes summary, tags and embedding concurrently with independent
// failure isolation. It always returns a usable value for all three fields.
func (d *Deriver) Derive(ctx context.Context, title, content string, k int) Derived {
	var derived Derived
	var wg sync.WaitGroup

	wg.Add(3)
	go func() {
		defer wg.Done()
		derived.Summary = d.Summarize(ctx, content)
	}()
	go func() {
		defer wg.Done()
		derived.Tags = d.Tags(ctx, title+" "+content, k)
	}()
	go func() {
		defer wg.Done()
		derived.Embedding = d.Embedding(ctx, title+" "+content)
	}()
	wg.Wait()

	return derived
}

func (d *Deriver) Summarize(ctx context.Context, text string) Result[string] {
	if d.collab != nil {
		ctx, cancel := context.WithTimeout(ctx, d.timeout)
		defer cancel()

		summary, err := d.collab.Summarize(ctx, text)
		if err == nil {
			return Result[string]{Value: summary}
		}
		logrus.Warnf("summarize collaborator failed, using fallback: %v", err)
	}

	return Result[string]{Value: FallbackSummary(text), Degraded: true}
}

func (d *Deriver) Tags(ctx context.Context, text string, k int) Result[[]string] {
	if d.collab != nil {
		ctx, cancel := context.WithTimeout(ctx, d.timeout)
		defer cancel()

		tags, err := d.collab.SuggestTags(ctx, text, k)
		if err == nil {
			return Result[[]string]{Value: tags}
		}
		logrus.Warnf("tag collaborator failed, using fallback: %v", err)
	}

	return Result[[]string]{Value: FallbackTags(text, k), Degraded: true}
}

func (d *Deriver) Embedding(ctx context.Context, text string) Result[[]float32] {
	if d.collab != nil {
		ctx, cancel := context.WithTimeout(ctx, d.timeout)
		defer cancel()

		vector, err := d.collab.Embed(ctx, text)
		if err == nil {
			return Result[[]float32]{Value: vector}
		}
		logrus.Warnf("embedding collaborator failed, using fallback: %v", err)
	}

	return Result[[]float32]{Value: FallbackEmbedding(text), Degraded: true}
}
