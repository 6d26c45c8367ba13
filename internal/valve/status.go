package valve

// State is the normalised position of the valve.
type State int

const (
	Undefined State = iota
	Opened
	Closed
	OpeningClosing
)

func (s State) String() string {
	switch s {
	case Opened:
		return "opened"
	case Closed:
		return "closed"
	case OpeningClosing:
		return "opening_closing"
	default:
		return "undefined"
	}
}

// Status is a snapshot of the hardware flags of one valve. It is a plain
// value: the widget fills a new one on every poll and hands copies to
// renderers.
type Status struct {
	ConnectionOk   bool
	NotOpened      bool
	NotClosed      bool
	Collision      bool
	UsedByAutoMode bool
	Opened         bool
	OpenedSmoothly bool
	Closed         bool
	OpeningClosing bool
	ForceClose     bool
	BlockClosing   bool
	BlockOpening   bool
}

// State derives the position, first matching rule wins.
func (s Status) State() State {
	switch {
	case s.OpeningClosing:
		return OpeningClosing
	case s.Opened:
		return Opened
	case s.Closed:
		return Closed
	default:
		return Undefined
	}
}

// AnyError reports a faulted or inconsistent signal combination.
func (s Status) AnyError() bool {
	if !s.ConnectionOk || s.Collision {
		return true
	}
	if s.OpeningClosing {
		return false
	}
	return (s.NotOpened && s.NotClosed) || (s.Opened && s.Closed)
}

// Suspicious reports contradictory flags that State resolves by rule order.
func (s Status) Suspicious() bool {
	return s.Opened && s.Closed
}

// Blinking reports whether the animation phase has to run.
func (s Status) Blinking() bool {
	return s.OpeningClosing || (s.Collision && !s.OpenedSmoothly)
}

// Rejection explains why a command was not dispatched.
type Rejection int

const (
	Accepted Rejection = iota
	RejectedAutoMode
	RejectedBlocked
	RejectedUnavailable
	RejectedUnknown
)

func (r Rejection) String() string {
	switch r {
	case Accepted:
		return "accepted"
	case RejectedAutoMode:
		return "used by auto mode"
	case RejectedBlocked:
		return "blocked"
	case RejectedUnavailable:
		return "not available"
	default:
		return "unknown command"
	}
}

// Permits checks whether cmd may be dispatched in this status.
func (s Status) Permits(cmd Command) Rejection {
	if !cmd.Valid() {
		return RejectedUnknown
	}
	if s.UsedByAutoMode {
		return RejectedAutoMode
	}
	if cmd.Opens() && s.BlockOpening {
		return RejectedBlocked
	}
	if cmd == Close && s.BlockClosing {
		return RejectedBlocked
	}
	return Accepted
}
