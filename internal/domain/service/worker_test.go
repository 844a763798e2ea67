package service

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTokenInterrupt(t *testing.T) {
	tok := NewToken()
	assert.False(t, tok.Interrupted())

	tok.Interrupt()
	tok.Interrupt()
	assert.True(t, tok.Interrupted())

	select {
	case <-tok.Done():
	default:
		t.Fatal("done channel not closed")
	}
}

func TestTokenSleep(t *testing.T) {
	tok := NewToken()
	assert.True(t, tok.Sleep(time.Millisecond))

	go func() {
		time.Sleep(10 * time.Millisecond)
		tok.Interrupt()
	}()
	start := time.Now()
	assert.False(t, tok.Sleep(time.Minute))
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestWorkerStopJoins(t *testing.T) {
	w := NewWorker("poller", nil)

	var runs atomic.Int32
	var exited atomic.Bool
	w.Go("loop", func(tok *Token) {
		defer exited.Store(true)
		for tok.Sleep(time.Millisecond) {
			runs.Add(1)
		}
	})

	time.Sleep(20 * time.Millisecond)
	w.Stop()

	assert.True(t, exited.Load())
	assert.Positive(t, runs.Load())
}

func TestWorkerEvery(t *testing.T) {
	w := NewWorker("poller", nil)
	var runs atomic.Int32
	w.Every("poll", time.Hour, func() { runs.Add(1) })

	assert.Eventually(t, func() bool { return runs.Load() == 1 }, time.Second, time.Millisecond)
	w.Stop()
	assert.Equal(t, int32(1), runs.Load())
}

func TestWorkerSurvivesPanic(t *testing.T) {
	w := NewWorker("poller", nil)
	w.Go("bad", func(*Token) { panic("boom") })

	var ran atomic.Bool
	w.Go("good", func(tok *Token) {
		ran.Store(true)
		<-tok.Done()
	})

	assert.Eventually(t, ran.Load, time.Second, time.Millisecond)
	w.Stop()
}
