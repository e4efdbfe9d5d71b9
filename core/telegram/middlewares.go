package telegram

import (
	"github.com/m3rciful/postbot/core/telegram/middleware"
)

// DefaultMiddlewares builds the shared middleware chain for bots:
// panic recovery, update logging, then reply counters.
func DefaultMiddlewares() []Middleware {
	return []Middleware{
		{Name: "recover", Use: middleware.RecoverMiddleware},
		{Name: "logger", Use: middleware.LoggerMiddleware},
		{Name: "metrics", Use: middleware.MessageMetricsMiddleware},
	}
}
