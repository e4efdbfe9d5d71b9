package sender

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	tele "gopkg.in/telebot.v4"
)

func TestRunAttemptsEveryJob(t *testing.T) {
	d := NewDispatcher(Options{Workers: 3, QueueSize: 8})
	defer d.Close()

	var calls atomic.Int32
	boom := errors.New("boom")
	jobs := make([]Job, 5)
	for i := range jobs {
		i := i
		jobs[i] = Job{
			Action: "send.photo",
			Run: func(context.Context) error {
				calls.Add(1)
				if i == 1 {
					return boom
				}
				return nil
			},
		}
	}

	errs := d.Run(context.Background(), jobs)
	if calls.Load() != 5 {
		t.Fatalf("expected 5 attempts, got %d", calls.Load())
	}
	for i, err := range errs {
		if i == 1 {
			if !errors.Is(err, boom) {
				t.Fatalf("job 1 err = %v, want boom", err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("job %d unexpected err %v", i, err)
		}
	}
	if d.ErrorCount() != 1 {
		t.Fatalf("error count = %d, want 1", d.ErrorCount())
	}
}

func TestRunFallsBackInlineWhenQueueFull(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, QueueSize: 1})
	defer d.Close()

	release := make(chan struct{})
	var calls atomic.Int32
	jobs := make([]Job, 6)
	for i := range jobs {
		jobs[i] = Job{Action: "send.photo", Run: func(context.Context) error {
			calls.Add(1)
			return nil
		}}
	}
	// occupy the single worker
	_ = d.Enqueue(context.Background(), "block", "", func() error {
		<-release
		return nil
	})
	go func() {
		time.Sleep(20 * time.Millisecond)
		close(release)
	}()

	errs := d.Run(context.Background(), jobs)
	for i, err := range errs {
		if err != nil {
			t.Fatalf("job %d err: %v", i, err)
		}
	}
	if calls.Load() != 6 {
		t.Fatalf("expected 6 calls, got %d", calls.Load())
	}
}

func TestRunAfterCloseRunsInline(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1})
	d.Close()

	if err := d.Enqueue(context.Background(), "x", "", func() error { return nil }); !errors.Is(err, ErrQueueClosed) {
		t.Fatalf("enqueue after close err = %v", err)
	}
	errs := d.Run(context.Background(), []Job{{Run: func(context.Context) error { return nil }}})
	if errs[0] != nil {
		t.Fatalf("inline job failed: %v", errs[0])
	}
}

func TestRunSkipsCancelledContext(t *testing.T) {
	d := NewDispatcher(Options{Workers: 2})
	defer d.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var calls atomic.Int32
	errs := d.Run(ctx, []Job{{Run: func(context.Context) error {
		calls.Add(1)
		return nil
	}}})
	if calls.Load() != 0 {
		t.Fatal("job must not run once the context is cancelled")
	}
	if !errors.Is(errs[0], context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", errs[0])
	}
}

func TestClassifyError(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{context.DeadlineExceeded, "timeout"},
		{fmt.Errorf("wrap: %w", context.Canceled), "cancelled"},
		{&tele.Error{Code: 403, Description: "Forbidden: bot was kicked"}, "http_4xx"},
		{errors.New("telegram: internal error (502)"), "http_5xx"},
		{errors.New("telegram: too many requests (429)"), "flood"},
		{errors.New("mystery"), "unknown"},
	}
	for _, tc := range cases {
		if got := ClassifyError(tc.err); got != tc.want {
			t.Fatalf("ClassifyError(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

func TestSanitizeErrorRedactsToken(t *testing.T) {
	err := errors.New(`Post "https://api.telegram.org/bot123456:AAE-secret_token/sendPhoto": dial tcp`)
	got := SanitizeError(err)
	if got == err.Error() || !strings.Contains(got, "bot<redacted>") {
		t.Fatalf("token not redacted: %s", got)
	}
}
