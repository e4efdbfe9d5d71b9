// Package callbacks decodes telebot inline button payloads.
package callbacks

import (
	"strings"

	tele "gopkg.in/telebot.v4"
)

// Parse splits callback data of the form "\f<unique>|<payload>".
// When telebot has already matched a registered unique, cb.Unique and cb.Data
// hold the two parts and are returned as is.
func Parse(cb *tele.Callback) (unique, payload string) {
	if cb == nil {
		return "", ""
	}
	if cb.Unique != "" {
		return cb.Unique, cb.Data
	}
	raw := strings.TrimPrefix(cb.Data, "\f")
	unique, payload, _ = strings.Cut(raw, "|")
	return strings.TrimSpace(unique), payload
}

// Payload returns the data part of the current callback.
func Payload(c tele.Context) string {
	_, p := Parse(c.Callback())
	return p
}
