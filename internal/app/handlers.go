package app

import (
	"context"

	"github.com/m3rciful/postbot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/postbot/core/telegram/helpers"
	"github.com/m3rciful/postbot/core/telegram/middleware"
	"github.com/m3rciful/postbot/internal/conversation"
	"github.com/m3rciful/postbot/internal/post"

	tele "gopkg.in/telebot.v4"
)

// stepHandler is the part of conversation.Machine the handlers use.
type stepHandler interface {
	Handle(ctx context.Context, userID int64, ev conversation.Event) conversation.Result
}

type handlers struct {
	machine stepHandler
}

func (h *handlers) start(c tele.Context) error {
	return tghelpers.SendMD(c, welcomeText, startKeyboard())
}

func (h *handlers) getStarted(c tele.Context) error {
	return tghelpers.EditMD(c, instructionsText)
}

func (h *handlers) caption(c tele.Context) error {
	return h.step(c, captionEvent(c.Message()), false)
}

func (h *handlers) text(c tele.Context) error {
	return h.step(c, textEvent(c.Message()), false)
}

func (h *handlers) photo(c tele.Context) error {
	return h.step(c, photoEvent(c.Message()), false)
}

func (h *handlers) category(c tele.Context) error {
	return h.step(c, categoryEvent(callbacks.Payload(c)), true)
}

// step feeds ev to the machine and answers with the resulting reply.
// Callback replies replace the keyboard message instead of sending a new one.
func (h *handlers) step(c tele.Context, ev conversation.Event, edit bool) error {
	user := c.Sender()
	if user == nil {
		return nil
	}
	res := h.machine.Handle(tghelpers.BuildContext(c), user.ID, ev)
	text, markup := replyText(res.Reply)
	if edit {
		return tghelpers.EditMD(c, text, markup)
	}
	return tghelpers.SendMD(c, text, markup)
}

// guard reports a panic in a form step back to the user.
func guard(next tele.HandlerFunc) tele.HandlerFunc {
	return middleware.Recover(func(c tele.Context, err error) error {
		return tghelpers.SendMD(c, errorText(err))
	})(next)
}

func captionEvent(m *tele.Message) conversation.Event {
	ev := conversation.Event{Kind: conversation.EventCaption}
	if m != nil {
		ev.Caption = m.Caption
	}
	return ev
}

func textEvent(m *tele.Message) conversation.Event {
	ev := conversation.Event{Kind: conversation.EventText}
	if m != nil {
		ev.Text = m.Text
	}
	return ev
}

// photoEvent references the photo by file ID; telebot keeps the largest size in Message.Photo.
func photoEvent(m *tele.Message) conversation.Event {
	ev := conversation.Event{Kind: conversation.EventPhoto}
	if m != nil && m.Photo != nil {
		ev.Image = post.ImageRef(m.Photo.FileID)
	}
	return ev
}

func categoryEvent(token string) conversation.Event {
	return conversation.Event{Kind: conversation.EventCategory, CategoryToken: token}
}
