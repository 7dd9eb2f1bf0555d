package ethereum

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// fakeProvider reports selectedAt[n] on the n-th SelectedAddress call.
type fakeProvider struct {
	mu            sync.Mutex
	selectedAt    map[int]string
	selectedCalls int
	handlers      map[string][]func(interface{})
	requests      []RequestArguments
	respond       func(args RequestArguments) (interface{}, error)
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		selectedAt: map[int]string{},
		handlers:   map[string][]func(interface{}){},
	}
}

func (p *fakeProvider) Request(_ context.Context, args RequestArguments) (interface{}, error) {
	p.mu.Lock()
	p.requests = append(p.requests, args)
	respond := p.respond
	p.mu.Unlock()
	if respond == nil {
		return nil, &ProviderError{Code: CodeUnsupportedMethod, Message: args.Method}
	}
	return respond(args)
}

func (p *fakeProvider) On(event string, handler func(interface{})) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handlers[event] = append(p.handlers[event], handler)
}

func (p *fakeProvider) SelectedAddress() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.selectedCalls++
	return p.selectedAt[p.selectedCalls]
}

func (p *fakeProvider) emit(event string, payload interface{}) {
	p.mu.Lock()
	handlers := append([]func(interface{}){}, p.handlers[event]...)
	p.mu.Unlock()
	for _, h := range handlers {
		h(payload)
	}
}

func (p *fakeProvider) calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.selectedCalls
}

func detectorOf(p Provider) Detector {
	return func(context.Context) (Provider, error) {
		return p, nil
	}
}

type recordedSleep struct {
	mu     sync.Mutex
	pauses []time.Duration
}

func (r *recordedSleep) sleep(_ context.Context, d time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pauses = append(r.pauses, d)
	return nil
}

func (r *recordedSleep) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pauses)
}

type recordedWarnings struct {
	mu    sync.Mutex
	lines []string
}

func (r *recordedWarnings) warnf(format string, args ...interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append(r.lines, fmt.Sprintf(format, args...))
}

func (r *recordedWarnings) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.lines...)
}

// replayingProvider hands the current accounts to a listener from inside On.
type replayingProvider struct {
	*fakeProvider
	accounts interface{}
}

func (p *replayingProvider) On(event string, handler func(interface{})) {
	p.fakeProvider.On(event, handler)
	if event == EventAccountsChanged {
		handler(p.accounts)
	}
}

type closableProvider struct {
	*fakeProvider
	closed int
}

func (p *closableProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed++
	return nil
}
