package fanout

import (
	"sync/atomic"

	"github.com/m3rciful/postbot/internal/post"
)

// Routing is the destination table used by a dispatch.
type Routing struct {
	// Routes lists the channels that receive the full post per category.
	Routes map[post.Category][]post.Destination
	// Fixed lists the channels that receive the promo addendum for every category.
	Fixed []post.Destination
	// Promo is the promo link table used by the addendum.
	Promo post.PromoLinks
}

// RoutingSource yields the routing snapshot for the next dispatch.
type RoutingSource interface {
	Routing() Routing
}

// StaticRouting serves a fixed table.
type StaticRouting Routing

// Routing implements RoutingSource.
func (r StaticRouting) Routing() Routing { return Routing(r) }

// LiveRouting holds a routing table that can be swapped while dispatches are running.
type LiveRouting struct {
	current atomic.Pointer[Routing]
}

// NewLiveRouting constructs a LiveRouting seeded with r.
func NewLiveRouting(r Routing) *LiveRouting {
	l := &LiveRouting{}
	l.Store(r)
	return l
}

// Routing implements RoutingSource.
func (l *LiveRouting) Routing() Routing {
	if r := l.current.Load(); r != nil {
		return *r
	}
	return Routing{}
}

// Store replaces the table for subsequent dispatches.
func (l *LiveRouting) Store(r Routing) {
	l.current.Store(&r)
}
