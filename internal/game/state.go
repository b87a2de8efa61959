package game

// State is a phase of the game loop.
type State int

const (
	StateInitial State = iota
	StateLoading
	StateReady
	StateRecording
	StateEvaluating
	StateSuccess
	StateFailure
	StateError
)

// String returns the upper-case name used in logs and by the CLI.
func (s State) String() string {
	switch s {
	case StateInitial:
		return "INITIAL"
	case StateLoading:
		return "LOADING"
	case StateReady:
		return "READY"
	case StateRecording:
		return "RECORDING"
	case StateEvaluating:
		return "EVALUATING"
	case StateSuccess:
		return "SUCCESS"
	case StateFailure:
		return "FAILURE"
	case StateError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// RoundOver reports whether only advancing is allowed.
func (s State) RoundOver() bool {
	return s == StateSuccess || s == StateFailure
}
