package logger

import (
	"bufio"
	"errors"
	"io"
	"sync"
)

// writeReq is one queued line, or a flush request when line is nil.
type writeReq struct {
	line []byte
	ack  chan error
}

// asyncWriter copies log lines to every sink from a single goroutine so that
// handlers never block on slow outputs. The first write error sticks.
type asyncWriter struct {
	reqs  chan writeReq
	done  chan struct{}
	close sync.Once

	sinks []*bufio.Writer

	mu  sync.Mutex
	err error
}

func newAsyncWriter(writers []io.Writer, bufSize int) *asyncWriter {
	if bufSize <= 0 {
		bufSize = 64 * 1024
	}
	w := &asyncWriter{
		reqs: make(chan writeReq, 256),
		done: make(chan struct{}),
	}
	for _, out := range writers {
		if out != nil {
			w.sinks = append(w.sinks, bufio.NewWriterSize(out, bufSize))
		}
	}
	go w.loop()
	return w
}

func (w *asyncWriter) loop() {
	defer close(w.done)
	for req := range w.reqs {
		if req.line == nil {
			req.ack <- w.flush()
			continue
		}
		for _, s := range w.sinks {
			if _, err := s.Write(req.line); err != nil {
				w.fail(err)
			} else if err := s.Flush(); err != nil {
				w.fail(err)
			}
		}
	}
	w.fail(w.flush())
}

// Write queues a copy of p. It blocks when the queue is full.
func (w *asyncWriter) Write(p []byte) error {
	if err := w.Err(); err != nil {
		return err
	}
	if len(p) == 0 {
		return nil
	}
	w.reqs <- writeReq{line: append([]byte(nil), p...)}
	return nil
}

// Flush waits until every queued line has reached the sinks.
func (w *asyncWriter) Flush() error {
	ack := make(chan error, 1)
	w.reqs <- writeReq{ack: ack}
	if err := <-ack; err != nil {
		return err
	}
	return w.Err()
}

// Close drains the queue and returns the first write error.
func (w *asyncWriter) Close() error {
	w.close.Do(func() { close(w.reqs) })
	<-w.done
	return w.Err()
}

// Err returns the first write error seen.
func (w *asyncWriter) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

func (w *asyncWriter) fail(err error) {
	if err == nil {
		return
	}
	w.mu.Lock()
	if w.err == nil {
		w.err = err
	}
	w.mu.Unlock()
}

func (w *asyncWriter) flush() error {
	var errs []error
	for _, s := range w.sinks {
		if err := s.Flush(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
