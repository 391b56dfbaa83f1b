package pipeline

// Status tags the outcome of one intake. Expected conditions (duplicate,
// no subscribers, orphan close) are values here, not errors: the HTTP layer
// switches on the tag instead of unwinding through panics or sentinel
// errors.
type Status int

const (
	StatusAccepted Status = iota
	StatusDuplicate
	StatusUnauthorized
	StatusNoSubscribers
	StatusCorrelationFailed
	StatusFatal
)

func (s Status) String() string {
	switch s {
	case StatusAccepted:
		return "accepted"
	case StatusDuplicate:
		return "duplicate"
	case StatusUnauthorized:
		return "unauthorized"
	case StatusNoSubscribers:
		return "no_subscribers"
	case StatusCorrelationFailed:
		return "correlation_failed"
	case StatusFatal:
		return "fatal"
	}
	return "unknown"
}

// Result is what the caller observes once processing ran to completion.
// SignalID is set for every outcome that persisted the signal, including
// NoSubscribers and CorrelationFailed. Err is set only for StatusFatal.
type Result struct {
	Status     Status
	SignalID   uint64
	Dispatched int
	Failed     int
	Err        error
}

func fatal(err error) Result {
	return Result{Status: StatusFatal, Err: err}
}
