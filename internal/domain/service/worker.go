package service

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/tactility/internal/infrastructure/logging"
)

// Token is a cooperative interruption flag shared by a worker and the
// goroutines it runs.
type Token struct {
	once sync.Once
	done chan struct{}
}

// NewToken creates an uninterrupted token
func NewToken() *Token {
	return &Token{done: make(chan struct{})}
}

// Interrupt sets the flag. Safe to call more than once.
func (t *Token) Interrupt() {
	t.once.Do(func() { close(t.done) })
}

// Interrupted reports whether Interrupt was called
func (t *Token) Interrupted() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

// Done is closed on interrupt
func (t *Token) Done() <-chan struct{} {
	return t.done
}

// Sleep waits for d or an interrupt. It returns false if interrupted.
func (t *Token) Sleep(d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-t.done:
		return false
	case <-timer.C:
		return true
	}
}

// Worker runs the background goroutines of a service. Stop interrupts them
// and waits until every one has returned.
type Worker struct {
	name   string
	token  *Token
	wg     sync.WaitGroup
	logger *logging.Logger
}

// NewWorker creates a worker for the service named name
func NewWorker(name string, logger *logging.Logger) *Worker {
	return &Worker{
		name:   name,
		token:  NewToken(),
		logger: logger.Named(name),
	}
}

// Token returns the worker's interruption token
func (w *Worker) Token() *Token {
	return w.token
}

// Go runs fn on a new goroutine. A panic in fn is logged and ends only
// that goroutine.
func (w *Worker) Go(task string, fn func(t *Token)) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer func() {
			if p := recover(); p != nil {
				w.logger.Error("worker task panicked",
					zap.String("task", task),
					zap.Any("panic", p),
				)
			}
		}()
		fn(w.token)
	}()
}

// Every runs fn on a new goroutine every interval until interrupted. The
// first run happens immediately.
func (w *Worker) Every(task string, interval time.Duration, fn func()) {
	w.Go(task, func(t *Token) {
		for !t.Interrupted() {
			fn()
			if !t.Sleep(interval) {
				return
			}
		}
	})
}

// Stop interrupts and joins every goroutine started by the worker
func (w *Worker) Stop() {
	w.token.Interrupt()
	w.wg.Wait()
	w.logger.Debug("worker stopped")
}
