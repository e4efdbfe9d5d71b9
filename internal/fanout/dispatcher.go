// Package fanout broadcasts a finished submission to the submitter, to the channels
// routed for its category and to the fixed promo channels.
package fanout

import (
	"context"
	"log/slog"
	"time"

	"github.com/m3rciful/postbot/core/logger"
	"github.com/m3rciful/postbot/core/telegram/sender"
	"github.com/m3rciful/postbot/internal/post"
)

// PhotoSender posts an already uploaded image with a Markdown caption.
type PhotoSender interface {
	SendPhoto(ctx context.Context, to post.Destination, image post.ImageRef, caption string) error
}

// Runner executes send jobs and reports each outcome by index.
// *sender.Dispatcher satisfies it.
type Runner interface {
	Run(ctx context.Context, jobs []sender.Job) []error
}

// Recorder receives the report of every dispatch.
type Recorder interface {
	Record(ctx context.Context, r Report) error
}

// Kind tells which step of the fan-out a delivery belongs to.
type Kind string

const (
	KindSelf  Kind = "self"
	KindRoute Kind = "route"
	KindFixed Kind = "fixed"
)

// Delivery is the outcome of one send.
type Delivery struct {
	Destination post.Destination
	Kind        Kind
	Err         error
}

// Report summarises one dispatch.
type Report struct {
	UserID     int64
	Submission post.Submission
	Category   post.Category
	Deliveries []Delivery
	StartedAt  time.Time
	Duration   time.Duration
}

// Count returns the number of deliveries of the given kind.
func (r Report) Count(kind Kind) int {
	n := 0
	for _, d := range r.Deliveries {
		if d.Kind == kind {
			n++
		}
	}
	return n
}

// Failed returns the number of deliveries that returned an error.
func (r Report) Failed() int {
	n := 0
	for _, d := range r.Deliveries {
		if d.Err != nil {
			n++
		}
	}
	return n
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithRunner executes channel sends on r instead of sequentially.
func WithRunner(r Runner) Option {
	return func(d *Dispatcher) {
		if r != nil {
			d.runner = r
		}
	}
}

// WithRecorder hands every report to rec after the sends complete.
func WithRecorder(rec Recorder) Option {
	return func(d *Dispatcher) { d.recorder = rec }
}

// Dispatcher renders and sends finished submissions.
type Dispatcher struct {
	sender   PhotoSender
	routing  RoutingSource
	runner   Runner
	recorder Recorder
}

// New builds a Dispatcher sending through s with destinations from routing.
func New(s PhotoSender, routing RoutingSource, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		sender:  s,
		routing: routing,
		runner:  sequentialRunner{},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch sends the finished submission of userID. Every destination is attempted
// exactly once, and a failed send never stops the remaining ones.
func (d *Dispatcher) Dispatch(ctx context.Context, userID int64, sub post.Submission, category post.Category) Report {
	start := time.Now()
	routing := d.routing.Routing()
	rendered := post.Render(sub, category, routing.Promo)

	report := Report{
		UserID:     userID,
		Submission: sub,
		Category:   category,
		StartedAt:  start,
	}

	self := []target{{dest: post.UserDestination(userID), kind: KindSelf, caption: post.SelfCopyPrefix + rendered.Body}}
	report.Deliveries = append(report.Deliveries, d.send(ctx, sub.Image, category, self)...)

	var channels []target
	for _, dest := range routing.Routes[category] {
		channels = append(channels, target{dest: dest, kind: KindRoute, caption: rendered.Body})
	}
	for _, dest := range routing.Fixed {
		channels = append(channels, target{dest: dest, kind: KindFixed, caption: rendered.Addendum})
	}
	report.Deliveries = append(report.Deliveries, d.send(ctx, sub.Image, category, channels)...)
	report.Duration = time.Since(start)

	logger.Info(ctx, "fanout", "dispatch.done",
		slog.String("status", statusOf(report)),
		slog.String("category", string(category)),
		slog.Int("self", report.Count(KindSelf)),
		slog.Int("routed", report.Count(KindRoute)),
		slog.Int("fixed", report.Count(KindFixed)),
		slog.Int("failed", report.Failed()),
		slog.Duration("duration", report.Duration),
	)

	if d.recorder != nil {
		if err := d.recorder.Record(ctx, report); err != nil {
			logger.Warn(ctx, "fanout", "dispatch.record_failed",
				slog.String("category", string(category)),
				slog.String("err", err.Error()),
			)
		}
	}
	return report
}

type target struct {
	dest    post.Destination
	kind    Kind
	caption string
}

func (d *Dispatcher) send(ctx context.Context, image post.ImageRef, category post.Category, targets []target) []Delivery {
	if len(targets) == 0 {
		return nil
	}
	jobs := make([]sender.Job, len(targets))
	for i, t := range targets {
		t := t
		jobs[i] = sender.Job{
			Action:   "fanout." + string(t.kind),
			Endpoint: "sendPhoto",
			Attrs: []slog.Attr{
				slog.String("destination", string(t.dest)),
				slog.String("category", string(category)),
				slog.String("kind", string(t.kind)),
			},
			Run: func(ctx context.Context) error {
				return d.sender.SendPhoto(ctx, t.dest, image, t.caption)
			},
		}
	}
	errs := d.runner.Run(ctx, jobs)
	out := make([]Delivery, len(targets))
	for i, t := range targets {
		out[i] = Delivery{Destination: t.dest, Kind: t.kind}
		if i < len(errs) {
			out[i].Err = errs[i]
		}
	}
	return out
}

func statusOf(r Report) string {
	if r.Failed() > 0 {
		return "fail"
	}
	return "ok"
}

// sequentialRunner sends one job after another on the calling goroutine.
type sequentialRunner struct{}

func (sequentialRunner) Run(ctx context.Context, jobs []sender.Job) []error {
	errs := make([]error, len(jobs))
	for i, j := range jobs {
		if err := ctx.Err(); err != nil {
			errs[i] = err
			continue
		}
		if err := j.Run(ctx); err != nil {
			errs[i] = err
			attrs := append([]slog.Attr{
				slog.String("action", j.Action),
				slog.String("err", sender.SanitizeError(err)),
				slog.String("error_kind", sender.ClassifyError(err)),
			}, j.Attrs...)
			logger.Error(ctx, "fanout", "send.fail", attrs...)
		}
	}
	return errs
}
