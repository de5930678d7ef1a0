// Package control implements the text command plane (spec §6.4): a small
// set of commands that tune per-detector runtime parameters between
// frames. Commands are validated and rejected outright rather than
// clamped; state is untouched on rejection.
package control

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cwsl/wwvsync/internal/bus"
)

// Command is a parsed, not-yet-applied control-plane instruction.
type Command struct {
	Name  string
	Value float64
	Arg   string // channel name for ENABLE_TELEM
}

// ErrKind classifies why a command was rejected, mirroring the bus
// telemetry's own error taxonomy (spec §7) rather than a bare error
// string, so a rejection can itself be reported as a structured record.
type ErrKind int

const (
	ErrNone ErrKind = iota
	ErrUnknownCommand
	ErrBadArgument
	ErrOutOfRange
)

// ParseError reports why a command line was rejected.
type ParseError struct {
	Kind ErrKind
	Line string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("control: rejected %q (%v)", e.Line, e.Kind)
}

// Parse turns one command line into a Command, or a *ParseError.
func Parse(line string) (Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Command{}, &ParseError{Kind: ErrUnknownCommand, Line: line}
	}
	name := strings.ToUpper(fields[0])

	switch name {
	case "SET_TICK_THRESHOLD", "SET_TICK_ADAPT_DOWN":
		if len(fields) != 2 {
			return Command{}, &ParseError{Kind: ErrBadArgument, Line: line}
		}
		v, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return Command{}, &ParseError{Kind: ErrBadArgument, Line: line}
		}
		return Command{Name: name, Value: v}, nil

	case "ENABLE_TELEM":
		if len(fields) != 2 {
			return Command{}, &ParseError{Kind: ErrBadArgument, Line: line}
		}
		return Command{Name: name, Arg: strings.ToUpper(fields[1])}, nil

	default:
		return Command{}, &ParseError{Kind: ErrUnknownCommand, Line: line}
	}
}

// Limits bounds the accepted range for numeric commands (spec §6.4:
// "with range validation").
type Limits struct {
	MinThresholdMultiplier, MaxThresholdMultiplier float64
	MinAlpha, MaxAlpha                             float64
}

func DefaultLimits() Limits {
	return Limits{
		MinThresholdMultiplier: 1.0,
		MaxThresholdMultiplier: 20.0,
		MinAlpha:               0.0001,
		MaxAlpha:               0.9,
	}
}

// Target is the subset of detector state the control plane may mutate.
// Implemented by each detector that exposes tunables.
type Target interface {
	SetThresholdMultiplier(v float64)
	SetAlphaDown(v float64)
}

// ValidTelemetryChannels is the set of bus channels ENABLE_TELEM accepts.
var ValidTelemetryChannels = map[string]bus.Channel{
	string(bus.ChannelTick): bus.ChannelTick,
	string(bus.ChannelMark): bus.ChannelMark,
	string(bus.ChannelSync): bus.ChannelSync,
	string(bus.ChannelCorr): bus.ChannelCorr,
	string(bus.ChannelBCD):  bus.ChannelBCD,
	string(bus.ChannelCarr): bus.ChannelCarr,
}

// Apply validates and applies one command against target, returning a
// rejection error if out of range. ENABLE_TELEM is validated only: a known
// channel name returns nil, and no channel is enabled or disabled by it.
// Commands are applied between frames
// (spec §5), so callers must not invoke Apply concurrently with the
// sample path.
func Apply(cmd Command, limits Limits, target Target) error {
	switch cmd.Name {
	case "SET_TICK_THRESHOLD":
		if cmd.Value < limits.MinThresholdMultiplier || cmd.Value > limits.MaxThresholdMultiplier {
			return &ParseError{Kind: ErrOutOfRange, Line: cmd.Name}
		}
		target.SetThresholdMultiplier(cmd.Value)
		return nil

	case "SET_TICK_ADAPT_DOWN":
		if cmd.Value < limits.MinAlpha || cmd.Value > limits.MaxAlpha {
			return &ParseError{Kind: ErrOutOfRange, Line: cmd.Name}
		}
		target.SetAlphaDown(cmd.Value)
		return nil

	case "ENABLE_TELEM":
		if _, ok := ValidTelemetryChannels[cmd.Arg]; !ok {
			return &ParseError{Kind: ErrBadArgument, Line: cmd.Name}
		}
		return nil

	default:
		return &ParseError{Kind: ErrUnknownCommand, Line: cmd.Name}
	}
}
