// Package commands describes slash commands known to the registry.
package commands

import (
	tele "gopkg.in/telebot.v4"
)

// Command is a slash command entry. Aliases resolve to the same handler.
type Command struct {
	Handler     tele.HandlerFunc
	Description string
	Hidden      bool // kept out of the command menu
	Aliases     []string
}
