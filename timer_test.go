package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountdownTicksDownThenCompletes(t *testing.T) {
	ticks := make(chan int, 8)
	finished := make(chan struct{})

	countdown(5*time.Millisecond, 3,
		func(remaining int) { ticks <- remaining },
		func() { close(finished) },
	)

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("countdown never completed")
	}

	close(ticks)

	var seen []int
	for remaining := range ticks {
		seen = append(seen, remaining)
	}
	assert.Equal(t, []int{3, 2, 1}, seen)
}

func TestCountdownZeroTimesCompletesImmediately(t *testing.T) {
	finished := make(chan struct{})

	countdown(time.Millisecond, 0,
		func(remaining int) { t.Error("tick fired for an empty countdown") },
		func() { close(finished) },
	)

	select {
	case <-finished:
	case <-time.After(time.Second):
		require.Fail(t, "countdown never completed")
	}
}
