package router

import (
	"strings"
	"time"

	tg "github.com/m3rciful/postbot/core/telegram"

	tele "gopkg.in/telebot.v4"
)

// MessageOptions names the handlers for inbound chat messages. Nil handlers skip the update.
type MessageOptions struct {
	// Text receives plain text that is not a command.
	Text tele.HandlerFunc
	// Captioned receives any media message carrying a non-empty caption.
	Captioned tele.HandlerFunc
	// Photo receives photos without a caption.
	Photo tele.HandlerFunc
}

// captionedMedia lists the media endpoints whose caption is routed to Captioned.
var captionedMedia = []string{tele.OnVideo, tele.OnDocument, tele.OnAnimation, tele.OnAudio}

// MessageRoutes builds routes for text and media messages.
// Text that looks like a command is matched against the registry; unknown commands are ignored.
func MessageRoutes(reg *tg.Registry, opts MessageOptions) []tg.Route {
	textHandler := func(c tele.Context) error {
		start := time.Now()
		text := c.Text()

		if strings.HasPrefix(text, "/") {
			if reg != nil {
				if key, cmd, ok := reg.LookupCommand(commandName(text)); ok && cmd.Handler != nil {
					return summary{handler: normalizeHandlerName(key), start: start}.run(c, func() error {
						return cmd.Handler(c)
					})
				}
			}
			summary{handler: "unknown_command", start: start, skipped: true}.log(c, nil)
			return nil
		}
		return route(c, "text", start, opts.Text)
	}

	photoHandler := func(c tele.Context) error {
		start := time.Now()
		if hasCaption(c) {
			return route(c, "caption", start, opts.Captioned)
		}
		return route(c, "photo", start, opts.Photo)
	}

	mediaHandler := func(c tele.Context) error {
		start := time.Now()
		if hasCaption(c) {
			return route(c, "caption", start, opts.Captioned)
		}
		summary{handler: "media", start: start, skipped: true}.log(c, nil)
		return nil
	}

	routes := []tg.Route{
		{Endpoint: tele.OnText, Handler: textHandler},
		{Endpoint: tele.OnPhoto, Handler: photoHandler},
	}
	for _, ep := range captionedMedia {
		routes = append(routes, tg.Route{Endpoint: ep, Handler: mediaHandler})
	}
	return routes
}

func route(c tele.Context, name string, start time.Time, h tele.HandlerFunc) error {
	if h == nil {
		summary{handler: name, start: start, skipped: true}.log(c, nil)
		return nil
	}
	return summary{handler: name, start: start}.run(c, func() error { return h(c) })
}

func hasCaption(c tele.Context) bool {
	m := c.Message()
	return m != nil && strings.TrimSpace(m.Caption) != ""
}

// commandName strips arguments and a "@botname" suffix from a command line.
func commandName(text string) string {
	name, _, _ := strings.Cut(strings.TrimSpace(text), " ")
	name, _, _ = strings.Cut(name, "@")
	return name
}
