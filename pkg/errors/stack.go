package errors

import (
	"fmt"
	"github.com/pkg/errors"
)

type stackTracer interface {
	StackTrace() errors.StackTrace
}

// stackOf returns the formatted frames of the outermost stack carried by err.
func stackOf(err error) []string {
	var st stackTracer
	if !As(err, &st) {
		return nil
	}
	frames := st.StackTrace()
	stacks := make([]string, 0, len(frames))
	for _, f := range frames {
		stacks = append(stacks, fmt.Sprintf("%+v", f))
	}
	return stacks
}

// origin identifies where err was created, falling back to its message.
// The first frame is always one of the wrappers in errors.go and is skipped.
func origin(err error) string {
	stacks := stackOf(err)
	switch len(stacks) {
	case 0:
		return err.Error()
	case 1:
		return stacks[0]
	default:
		return stacks[1]
	}
}
