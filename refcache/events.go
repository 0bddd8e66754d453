package refcache

import "github.com/willibrandon/hrref/store"

// Observer receives cache events. Implementations must be safe for
// concurrent use.
type Observer interface {
	On(EventData)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(EventData)

// On implements Observer.
func (f ObserverFunc) On(e EventData) { f(e) }

// Event is a cache event type.
type Event int

const (
	// EventHit is emitted when Resolve finds a ready mapping.
	EventHit Event = iota
	// EventMiss is emitted when Resolve starts a new build.
	EventMiss
	// EventDedup is emitted when Resolve attaches to a build in progress.
	EventDedup
	// EventBuildFailed is emitted once per failed build.
	EventBuildFailed
)

func (e Event) String() string {
	switch e {
	case EventHit:
		return "hit"
	case EventMiss:
		return "miss"
	case EventDedup:
		return "dedup"
	case EventBuildFailed:
		return "build_failed"
	default:
		return "unknown"
	}
}

// EventData carries the details of a cache event.
type EventData struct {
	Event    Event
	Category store.Category
	// Err is set for EventBuildFailed.
	Err error
}
