package app

import (
	"errors"
	"strings"
	"testing"

	"github.com/m3rciful/postbot/internal/conversation"
	"github.com/m3rciful/postbot/internal/post"

	tele "gopkg.in/telebot.v4"
)

func TestReplyTextCoversEveryKind(t *testing.T) {
	kinds := []conversation.ReplyKind{
		conversation.ReplyTitleNotFound,
		conversation.ReplyTitleExtracted,
		conversation.ReplyTitleRequired,
		conversation.ReplyLinkFormat,
		conversation.ReplyLinksReceived,
		conversation.ReplyDetailsRequired,
		conversation.ReplyChooseCategory,
		conversation.ReplyStepsIncomplete,
		conversation.ReplyForwarded,
	}
	seen := map[string]conversation.ReplyKind{}
	for _, k := range kinds {
		text, _ := replyText(conversation.Reply{Kind: k, Title: "T"})
		if text == "" {
			t.Fatalf("kind %d has no text", k)
		}
		if prev, dup := seen[text]; dup {
			t.Fatalf("kinds %d and %d share a text", prev, k)
		}
		seen[text] = k
	}
}

func TestReplyTextEscapesTitle(t *testing.T) {
	text, markup := replyText(conversation.Reply{Kind: conversation.ReplyTitleExtracted, Title: "Spider_Man *2*"})
	if markup != nil {
		t.Fatal("title reply has no keyboard")
	}
	if !strings.Contains(text, `*Spider\_Man \*2\**`) {
		t.Fatalf("title not escaped: %q", text)
	}
	if !strings.Contains(text, linkFormatHint) {
		t.Fatal("title reply should include the link format")
	}
}

func TestChooseCategoryKeyboard(t *testing.T) {
	_, markup := replyText(conversation.Reply{Kind: conversation.ReplyChooseCategory})
	if markup == nil {
		t.Fatal("expected category keyboard")
	}
	var buttons []tele.InlineButton
	for i, row := range markup.InlineKeyboard {
		if len(row) > 2 {
			t.Fatalf("row %d has %d buttons", i, len(row))
		}
		buttons = append(buttons, row...)
	}
	cats := post.Selectable()
	if len(buttons) != len(cats) {
		t.Fatalf("got %d buttons, want %d", len(buttons), len(cats))
	}
	for i, c := range cats {
		b := buttons[i]
		if b.Text != c.Label() || b.Unique != cbCategory || !strings.HasSuffix(b.Data, c.Token()) {
			t.Fatalf("button %d = %+v, want %s", i, b, c)
		}
	}
}

func TestStartKeyboard(t *testing.T) {
	markup := startKeyboard()
	if len(markup.InlineKeyboard) != 1 || len(markup.InlineKeyboard[0]) != 1 {
		t.Fatalf("unexpected layout %+v", markup.InlineKeyboard)
	}
	if b := markup.InlineKeyboard[0][0]; b.Unique != cbGetStarted {
		t.Fatalf("unique = %q", b.Unique)
	}
}

func TestErrorTextEscapes(t *testing.T) {
	got := errorText(errors.New("bad_input"))
	want := "*Error*: bad\\_input\n" + formatHint
	if got != want {
		t.Fatalf("errorText = %q, want %q", got, want)
	}
}
