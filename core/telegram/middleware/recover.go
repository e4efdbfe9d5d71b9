package middleware

import (
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/m3rciful/postbot/core/logger"
	tghelpers "github.com/m3rciful/postbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// PanicError carries a recovered handler panic as an error value.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// RecoverMiddleware catches panics in handlers and prevents the bot from crashing.
func RecoverMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return Recover(nil)(next)
}

// Recover returns a middleware that converts a handler panic into a *PanicError.
// When onPanic is set it receives the error and its result is returned to telebot;
// otherwise the panic is only logged.
func Recover(onPanic func(tele.Context, error) error) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				perr := &PanicError{Value: r}
				logger.Error(tghelpers.BuildContext(c), "tg", "tg.panic",
					slog.String("err", perr.Error()),
					slog.String("stack", string(debug.Stack())),
				)
				if onPanic != nil {
					err = onPanic(c, perr)
				}
			}()
			return next(c)
		}
	}
}
