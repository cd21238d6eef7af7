package domain

// State is the lifecycle state of one key in the request ledger.
type State uint8

const (
	StateUnstarted State = iota // no fetch was ever issued, or the key was reset
	StateLoading
	StateSuccess
	StateError
	StateCanceled // superseded or canceled; not an error
)

func (s State) String() string {
	switch s {
	case StateUnstarted:
		return "unstarted"
	case StateLoading:
		return "loading"
	case StateSuccess:
		return "success"
	case StateError:
		return "error"
	case StateCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}
