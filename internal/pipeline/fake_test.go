package pipeline

import (
	"context"
	"errors"
	"iter"
	"sync"

	"github.com/csheth/paperdraft/internal/llm"
)

type generateResult struct {
	text string
	err  error
}

type fakeClient struct {
	mu       sync.Mutex
	results  []generateResult
	requests []llm.Request

	tokens    []string
	streamErr error
	// cancelAfter cancels the stream context after that many tokens when set.
	cancelAfter int
	cancel      context.CancelFunc
}

func (f *fakeClient) Name() string { return "fake" }

func (f *fakeClient) Generate(ctx context.Context, req llm.Request) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(f.results) == 0 {
		return "", errors.New("no scripted response")
	}
	next := f.results[0]
	f.results = f.results[1:]
	return next.text, next.err
}

func (f *fakeClient) Stream(ctx context.Context, req llm.Request) iter.Seq2[string, error] {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	return func(yield func(string, error) bool) {
		for i, token := range f.tokens {
			if f.cancelAfter > 0 && i == f.cancelAfter && f.cancel != nil {
				f.cancel()
			}
			if err := ctx.Err(); err != nil {
				yield("", err)
				return
			}
			if !yield(token, nil) {
				return
			}
		}
		if f.streamErr != nil {
			yield("", f.streamErr)
		}
	}
}

func (f *fakeClient) lastRequest() llm.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}
