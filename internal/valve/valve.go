package valve

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Flag identifies one input signal of a valve.
type Flag int

const (
	FlagConnectionOk Flag = iota
	FlagNotOpened
	FlagNotClosed
	FlagCollision
	FlagUsedByAutoMode
	FlagOpened
	FlagOpenedSmoothly
	FlagClosed
	FlagOpeningClosing
	FlagForceClose
	FlagBlockClosing
	FlagBlockOpening
	FlagSmoothValve
)

var flagNames = [...]string{
	FlagConnectionOk:   "connection_ok",
	FlagNotOpened:      "not_opened",
	FlagNotClosed:      "not_closed",
	FlagCollision:      "collision",
	FlagUsedByAutoMode: "used_by_auto_mode",
	FlagOpened:         "opened",
	FlagOpenedSmoothly: "opened_smoothly",
	FlagClosed:         "closed",
	FlagOpeningClosing: "opening_closing",
	FlagForceClose:     "force_close",
	FlagBlockClosing:   "block_closing",
	FlagBlockOpening:   "block_opening",
	FlagSmoothValve:    "smooth_valve",
}

// Flags lists every input polled on a refresh, status flags first.
func Flags() []Flag {
	flags := make([]Flag, len(flagNames))
	for i := range flags {
		flags[i] = Flag(i)
	}
	return flags
}

func (f Flag) String() string {
	if f < 0 || int(f) >= len(flagNames) {
		return fmt.Sprintf("flag(%d)", int(f))
	}
	return flagNames[f]
}

func ParseFlag(s string) (Flag, error) {
	for i, name := range flagNames {
		if name == strings.ToLower(s) {
			return Flag(i), nil
		}
	}
	return 0, errors.Errorf("%q is not a valve flag", s)
}

// Command identifies one output signal of a valve.
type Command int

const (
	Open Command = iota
	OpenSmoothly
	Close
)

var commandNames = [...]string{
	Open:         "open",
	OpenSmoothly: "open_smoothly",
	Close:        "close",
}

func Commands() []Command {
	return []Command{Open, OpenSmoothly, Close}
}

func (c Command) String() string {
	if !c.Valid() {
		return fmt.Sprintf("command(%d)", int(c))
	}
	return commandNames[c]
}

func (c Command) Valid() bool {
	return c >= Open && c <= Close
}

// Opens reports whether the command moves the valve towards open.
func (c Command) Opens() bool {
	return c == Open || c == OpenSmoothly
}

func ParseCommand(s string) (Command, error) {
	for i, name := range commandNames {
		if name == strings.ToLower(s) {
			return Command(i), nil
		}
	}
	return 0, errors.Errorf("%q is not a valve command", s)
}

// Source is where flags are read from and command signals written to.
type Source interface {
	ReadFlag(id Flag) (bool, error)
	WriteSignal(id Command, value bool) error
}

// Poll reads every flag of src into a status snapshot. smooth is the
// smooth-valve configuration flag which is not part of the status.
func Poll(src Source) (s Status, smooth bool, err error) {
	values := make(map[Flag]bool, len(flagNames))
	for _, f := range Flags() {
		v, err := src.ReadFlag(f)
		if err != nil {
			return Status{}, false, err
		}
		values[f] = v
	}

	s = Status{
		ConnectionOk:   values[FlagConnectionOk],
		NotOpened:      values[FlagNotOpened],
		NotClosed:      values[FlagNotClosed],
		Collision:      values[FlagCollision],
		UsedByAutoMode: values[FlagUsedByAutoMode],
		Opened:         values[FlagOpened],
		OpenedSmoothly: values[FlagOpenedSmoothly],
		Closed:         values[FlagClosed],
		OpeningClosing: values[FlagOpeningClosing],
		ForceClose:     values[FlagForceClose],
		BlockClosing:   values[FlagBlockClosing],
		BlockOpening:   values[FlagBlockOpening],
	}
	return s, values[FlagSmoothValve], nil
}
