// Package conversation advances a user's submission through the posting flow:
// title, link pair, image, category, then dispatch.
package conversation

import (
	"context"
	"log/slog"

	"github.com/m3rciful/postbot/core/logger"
	"github.com/m3rciful/postbot/core/state"
	"github.com/m3rciful/postbot/internal/fanout"
	"github.com/m3rciful/postbot/internal/post"
)

// EventKind identifies the inbound update that drives a transition.
type EventKind int

const (
	EventCaption EventKind = iota + 1
	EventText
	EventPhoto
	EventCategory
)

func (k EventKind) String() string {
	switch k {
	case EventCaption:
		return "caption"
	case EventText:
		return "text"
	case EventPhoto:
		return "photo"
	case EventCategory:
		return "category"
	default:
		return "unknown"
	}
}

// Event is a transport-neutral inbound update.
type Event struct {
	Kind          EventKind
	Caption       string
	Text          string
	Image         post.ImageRef
	CategoryToken string
}

// ReplyKind selects the message sent back to the user.
type ReplyKind int

const (
	ReplyTitleNotFound ReplyKind = iota + 1
	ReplyTitleExtracted
	ReplyTitleRequired
	ReplyLinkFormat
	ReplyLinksReceived
	ReplyDetailsRequired
	ReplyChooseCategory
	ReplyStepsIncomplete
	ReplyForwarded
)

// Reply describes the answer to an event. Title is set for ReplyTitleExtracted.
type Reply struct {
	Kind  ReplyKind
	Title string
}

// Result is the outcome of handling one event.
type Result struct {
	Reply Reply
	// Report is set when the event finalised the submission.
	Report *fanout.Report
}

// Dispatcher sends a finished submission.
type Dispatcher interface {
	Dispatch(ctx context.Context, userID int64, sub post.Submission, category post.Category) fanout.Report
}

// Machine applies events to the per-user submissions held in a store.
type Machine struct {
	store      state.Store[post.Submission]
	dispatcher Dispatcher
	locks      keyedMutex
}

// NewMachine wires a Machine to its store and dispatcher.
func NewMachine(store state.Store[post.Submission], dispatcher Dispatcher) *Machine {
	return &Machine{store: store, dispatcher: dispatcher}
}

// Handle applies ev to the submission of userID and returns the reply to send.
// Malformed input or a missing prerequisite leaves the submission unchanged.
func (m *Machine) Handle(ctx context.Context, userID int64, ev Event) Result {
	unlock := m.locks.Lock(userID)
	defer unlock()

	sub, _ := m.store.Get(userID)
	var res Result
	switch ev.Kind {
	case EventCaption:
		res = m.onCaption(userID, sub, ev)
	case EventText:
		res = m.onText(userID, sub, ev)
	case EventPhoto:
		res = m.onPhoto(userID, sub, ev)
	case EventCategory:
		res = m.onCategory(ctx, userID, sub, ev)
	default:
		res = Result{Reply: Reply{Kind: ReplyStepsIncomplete}}
	}

	logger.Debug(ctx, "conversation", "transition",
		slog.Int64("user_id", userID),
		slog.String("input", ev.Kind.String()),
		slog.String("from", sub.Stage().String()),
		slog.String("to", m.stage(userID).String()),
		slog.Int("reply", int(res.Reply.Kind)),
	)
	return res
}

func (m *Machine) stage(userID int64) post.Stage {
	sub, _ := m.store.Get(userID)
	return sub.Stage()
}

func (m *Machine) onCaption(userID int64, sub post.Submission, ev Event) Result {
	title := post.ExtractTitle(ev.Caption)
	if title == "" {
		if _, ok := m.store.Get(userID); !ok {
			m.store.Set(userID, post.Submission{})
		}
		return Result{Reply: Reply{Kind: ReplyTitleNotFound}}
	}
	// A new title keeps links and image already collected.
	sub.Title = title
	m.store.Set(userID, sub)
	return Result{Reply: Reply{Kind: ReplyTitleExtracted, Title: title}}
}

func (m *Machine) onText(userID int64, sub post.Submission, ev Event) Result {
	if !sub.HasTitle() {
		return Result{Reply: Reply{Kind: ReplyTitleRequired}}
	}
	link, permanent, err := post.ParseLinks(ev.Text)
	if err != nil {
		return Result{Reply: Reply{Kind: ReplyLinkFormat}}
	}
	sub.Link = link
	sub.PermanentLink = permanent
	m.store.Set(userID, sub)
	return Result{Reply: Reply{Kind: ReplyLinksReceived}}
}

func (m *Machine) onPhoto(userID int64, sub post.Submission, ev Event) Result {
	if !sub.HasLinks() || ev.Image == "" {
		return Result{Reply: Reply{Kind: ReplyDetailsRequired}}
	}
	sub.Image = ev.Image
	m.store.Set(userID, sub)
	return Result{Reply: Reply{Kind: ReplyChooseCategory}}
}

func (m *Machine) onCategory(ctx context.Context, userID int64, sub post.Submission, ev Event) Result {
	if !sub.HasImage() {
		return Result{Reply: Reply{Kind: ReplyStepsIncomplete}}
	}
	category := post.ParseCategory(ev.CategoryToken)
	report := m.dispatcher.Dispatch(ctx, userID, sub, category)
	m.store.Delete(userID)
	return Result{Reply: Reply{Kind: ReplyForwarded}, Report: &report}
}
