package router

import (
	"log/slog"
	"time"

	tg "github.com/m3rciful/postbot/core/telegram"
	"github.com/m3rciful/postbot/core/telegram/callbacks"

	tele "gopkg.in/telebot.v4"
)

// CallbackRoute returns the OnCallback route that dispatches by button unique through the registry.
// The callback is answered before the handler runs so the client stops its spinner.
func CallbackRoute(reg *tg.Registry) tg.Route {
	handler := func(c tele.Context) error {
		start := time.Now()
		if c.Callback() == nil {
			return nil
		}

		key, _ := callbacks.Parse(c.Callback())
		name := "callback." + normalizeHandlerName(key)
		extras := []slog.Attr{slog.String("cb_key", key)}

		h, ok := reg.GetCallback(key)
		if !ok {
			h = reg.CallbackNotFound()
			extras = append(extras, slog.String("reason", "not_found"))
		} else {
			_ = c.Respond()
		}
		return summary{handler: name, start: start, attrs: extras}.run(c, func() error {
			if h == nil {
				return nil
			}
			return h(c)
		})
	}
	return tg.Route{Endpoint: tele.OnCallback, Handler: handler}
}
