package starter

import (
	"context"
	"moff.io/wallet-connector/pkg/errors"
)

type Startable interface {
	Start(ctx context.Context) error
}

type Stopable interface {
	Stop()
}

// Start starts elems in order. When one fails the already started ones are
// stopped in reverse order.
func Start(ctx context.Context, elems ...Startable) (stop func(), err error) {
	started := make([]Startable, 0, len(elems))
	stop = func() {
		for i := len(started) - 1; i >= 0; i-- {
			if stopable, ok := started[i].(Stopable); ok {
				stopable.Stop()
			}
		}
	}
	for i, ele := range elems {
		if err := ele.Start(ctx); err != nil {
			stop()
			return func() {}, errors.Wrapf(err, "start component %d", i)
		}
		started = append(started, ele)
	}
	return stop, nil
}

type funcs struct {
	start func(context.Context) error
	stop  func()
}

func (f funcs) Start(ctx context.Context) error {
	return f.start(ctx)
}

func (f funcs) Stop() {
	if f.stop != nil {
		f.stop()
	}
}

// Funcs adapts a start and an optional stop function.
func Funcs(start func(context.Context) error, stop func()) Startable {
	return funcs{start: start, stop: stop}
}
