// Package enginelog implements the engine's diagnostics under the same
// memory discipline as the rest of the core: a Logger owns a fixed ring of
// fixed-width entry records allocated once at construction, formats
// messages into them in place, and allocates nothing per call on the
// common path. When the ring wraps, the oldest entries are overwritten and
// counted, the same load-shedding posture the loader takes when its
// staging ring is full. Severity thresholds are tracked per component so a
// platform layer can turn up exactly the subsystem it is debugging.
package enginelog

import (
	"fmt"
	"time"
)

// Level is an entry's severity. Components record entries at or above
// their configured threshold; everything below it is filtered at the call
// site without touching the ring.
type Level uint8

const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError

	// LevelOff as a threshold silences a component entirely.
	LevelOff Level = 0xFF
)

// String returns the level's fixed display name.
func (l Level) String() string {
	switch l {
	case LevelTrace:
		return "TRACE"
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	case LevelOff:
		return "OFF"
	default:
		return "UNKNOWN"
	}
}

// Component identifies which core subsystem recorded an entry. The values
// index the Logger's per-component threshold table, so they are a compact
// enum rather than free-form strings.
type Component uint8

const (
	ComponentArena Component = iota
	ComponentContainer
	ComponentChannel
	ComponentPool
	ComponentScatter
	ComponentResources
	ComponentMixer
	ComponentFrame

	// ComponentCount bounds the threshold table; not a real component.
	ComponentCount
)

// String returns the component's fixed display name.
func (c Component) String() string {
	switch c {
	case ComponentArena:
		return "arena"
	case ComponentContainer:
		return "container"
	case ComponentChannel:
		return "channel"
	case ComponentPool:
		return "pool"
	case ComponentScatter:
		return "scatter"
	case ComponentResources:
		return "resources"
	case ComponentMixer:
		return "mixer"
	case ComponentFrame:
		return "frame"
	default:
		return "unknown"
	}
}

// MessageBytes is the fixed capacity of one entry's message text. Longer
// messages are cut at this length and flagged, the same way asset names
// are bounded on disk rather than stored as variable-length strings.
const MessageBytes = 120

// Entry is one fixed-width log record. Message text lives inline in the
// record so the ring never references heap storage that outlives it.
type Entry struct {
	Seq       uint64
	Time      time.Time
	Component Component
	Level     Level
	Truncated bool

	length uint8
	text   [MessageBytes]byte
}

// Message returns the entry's (possibly truncated) message text.
func (e *Entry) Message() string {
	return string(e.text[:e.length])
}

// Format renders the entry as a single display line.
func (e *Entry) Format() string {
	marker := ""
	if e.Truncated {
		marker = "…"
	}
	return fmt.Sprintf("#%d %s [%s] %s: %s%s",
		e.Seq, e.Time.Format("15:04:05.000"), e.Component, e.Level, e.Message(), marker)
}
