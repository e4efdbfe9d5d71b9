// Package state provides a lightweight per-user session store for bots.
// It is domain-agnostic: the session payload is a type parameter.
package state
