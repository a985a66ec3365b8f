package debounce

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDebouncer_LastWriteWins(t *testing.T) {
	d := New(30 * time.Millisecond)
	var got atomic.Value
	var calls atomic.Int32

	for _, term := range []string{"a", "ab", "abc"} {
		d.Trigger(func() {
			calls.Add(1)
			got.Store(term)
		})
		time.Sleep(5 * time.Millisecond)
	}

	assert.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, "abc", got.Load())
}

func TestDebouncer_Stop(t *testing.T) {
	d := New(20 * time.Millisecond)
	var calls atomic.Int32

	d.Trigger(func() { calls.Add(1) })
	assert.True(t, d.Stop())
	assert.False(t, d.Stop())

	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, calls.Load())
}

func TestDebouncer_Flush(t *testing.T) {
	d := New(time.Hour)
	var calls atomic.Int32

	d.Trigger(func() { calls.Add(1) })
	d.Flush()
	assert.Equal(t, int32(1), calls.Load())

	d.Flush()
	assert.Equal(t, int32(1), calls.Load())
}

func TestNew_DefaultDelay(t *testing.T) {
	assert.Equal(t, DefaultDelay, New(0).delay)
}

func TestDebouncer_FlushWaitsForRunningCall(t *testing.T) {
	d := New(time.Millisecond)
	started := make(chan struct{})
	release := make(chan struct{})
	var finished atomic.Bool

	d.Trigger(func() {
		close(started)
		<-release
		finished.Store(true)
	})
	<-started

	flushed := make(chan struct{})
	go func() {
		d.Flush()
		close(flushed)
	}()

	select {
	case <-flushed:
		t.Fatal("Flush returned while the timer call was still running")
	case <-time.After(30 * time.Millisecond):
	}

	close(release)
	select {
	case <-flushed:
	case <-time.After(time.Second):
		t.Fatal("Flush did not return")
	}
	assert.True(t, finished.Load())
}
