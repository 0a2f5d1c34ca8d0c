package http

// State is the phase of [ResponseDecoder].
type State uint8

const (
	StateInitialization State = iota
	StateStatusLine
	StateHeaders
	StateBody
	StateDone
	StateFailed
)

var stateNames = [...]string{
	StateInitialization: "Initialization",
	StateStatusLine:     "StatusLine",
	StateHeaders:        "Headers",
	StateBody:           "Body",
	StateDone:           "Done",
	StateFailed:         "Failed",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "Unknown"
}

// Terminal reports whether no further transition can happen.
func (s State) Terminal() bool { return s == StateDone || s == StateFailed }
