package tracebridge

import (
	"fmt"
	"strings"
)

// Level is the severity the native layer tags spans and events with.
// Levels are ordered; LevelTrace is the most verbose and LevelError
// the most severe.
type Level int8

const (
	// LevelTrace designates very fine-grained information.
	LevelTrace Level = iota
	// LevelDebug designates lower-priority diagnostic information.
	LevelDebug
	// LevelInfo designates useful information. This is the default
	// when a payload carries no level.
	LevelInfo
	// LevelWarn designates hazardous situations.
	LevelWarn
	// LevelError designates serious errors.
	LevelError
)

// String returns the uppercase name of the level, matching the wire
// representation the native layer uses.
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
	}
	return fmt.Sprintf("Level(%d)", int8(l))
}

// ParseLevel parses a level from its wire name, case-insensitively.
func ParseLevel(s string) (Level, error) {
	switch strings.ToUpper(s) {
	case "TRACE":
		return LevelTrace, nil
	case "DEBUG":
		return LevelDebug, nil
	case "INFO":
		return LevelInfo, nil
	case "WARN":
		return LevelWarn, nil
	case "ERROR":
		return LevelError, nil
	}
	return LevelInfo, fmt.Errorf("unrecognized severity level %q", s)
}

// Action classifies what a downstream sink should do with an event of
// a given severity. The classification policy belongs to the sink
// integration, not to the bridge; the bridge only guarantees that
// severity metadata travels with every event so a policy can be
// applied.
type Action int8

const (
	// ActionIgnore drops the event.
	ActionIgnore Action = iota
	// ActionBreadcrumb records the event as low-priority context
	// attached to whatever is reported later.
	ActionBreadcrumb
	// ActionEvent records the event as a standalone report.
	ActionEvent
	// ActionException records the event as an error report.
	ActionException
)

// LevelMapper decides the Action for an event severity. Sinks that
// apply a severity policy take one of these as an option.
type LevelMapper func(Level) Action

// DefaultLevelMapper is the severity policy used by sinks when none is
// configured: errors become exception reports, warnings and plain
// information become breadcrumbs, debug output becomes standalone
// reports, and trace output is dropped.
func DefaultLevelMapper(l Level) Action {
	switch l {
	case LevelError:
		return ActionException
	case LevelWarn, LevelInfo:
		return ActionBreadcrumb
	case LevelDebug:
		return ActionEvent
	case LevelTrace:
		return ActionIgnore
	}
	return ActionIgnore
}
