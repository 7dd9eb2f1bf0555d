package starter

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartStopOrder(t *testing.T) {
	var trace []string
	component := func(name string, fail bool) Startable {
		return Funcs(func(context.Context) error {
			if fail {
				return errors.New(name + " failed")
			}
			trace = append(trace, "start "+name)
			return nil
		}, func() {
			trace = append(trace, "stop "+name)
		})
	}

	stop, err := Start(context.Background(), component("a", false), component("b", false))
	require.NoError(t, err)
	stop()
	assert.Equal(t, []string{"start a", "start b", "stop b", "stop a"}, trace)

	trace = nil
	_, err = Start(context.Background(), component("a", false), component("b", true), component("c", false))
	assert.EqualError(t, err, "start component 1: b failed")
	assert.Equal(t, []string{"start a", "stop a"}, trace)
}
