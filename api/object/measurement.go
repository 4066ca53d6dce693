package object

import (
	"fmt"
	"strings"
)

// Type identifies the kind of collection that was timed
type Type uint32

const (
	// TypeScavenge is a minor collection of a young generation
	TypeScavenge Type = 1 << iota
	// TypeMarkSweepCompact is one full collection cycle
	TypeMarkSweepCompact
	// TypeSweepTermination is the stop-the-world pause opening a Go GC cycle
	TypeSweepTermination
	// TypeMarkTermination is the stop-the-world pause closing a Go GC cycle
	TypeMarkTermination
)

func (t Type) String() string {
	switch t {
	case TypeScavenge:
		return "scavenge"
	case TypeMarkSweepCompact:
		return "mark-sweep-compact"
	case TypeSweepTermination:
		return "sweep-termination"
	case TypeMarkTermination:
		return "mark-termination"
	default:
		return fmt.Sprintf("unknown(%d)", uint32(t))
	}
}

// Flags is a bitmask of collector-reported flags
type Flags uint32

const (
	FlagNone Flags = 0
	// FlagForced is set when the collection was requested explicitly
	FlagForced Flags = 1 << (iota - 1)
	// FlagSynchronous is set when the collection ran to completion on the requesting goroutine
	FlagSynchronous
	// FlagStopTheWorld is set when the measured interval is a stop-the-world pause
	FlagStopTheWorld
	// FlagReplayed is set when the interval was rebuilt from runtime-reported timestamps
	FlagReplayed
)

var flagNames = []struct {
	flag Flags
	name string
}{
	{FlagForced, "forced"},
	{FlagSynchronous, "synchronous"},
	{FlagStopTheWorld, "stop-the-world"},
	{FlagReplayed, "replayed"},
}

func (f Flags) String() string {
	if f == FlagNone {
		return "none"
	}

	names := make([]string, 0, len(flagNames))
	rest := f
	for _, fn := range flagNames {
		if f&fn.flag != 0 {
			names = append(names, fn.name)
			rest &^= fn.flag
		}
	}
	if rest != 0 {
		names = append(names, fmt.Sprintf("0x%x", uint32(rest)))
	}

	return strings.Join(names, "|")
}

// Measurement is one timed collection. It is created when the collection starts, completed when it ends and handed
// over to the callback exactly once
type Measurement struct {
	StartTime      int64   `json:"start_time"`  // Wall-clock time the collection began, seconds past the epoch
	DurationMillis float64 `json:"duration_ms"` // Elapsed time of the collection in milliseconds
	Type           Type    `json:"type"`        // Kind of collection
	Flags          Flags   `json:"flags"`       // Collector-reported flags
}
