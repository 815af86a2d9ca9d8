package session

// StartError reports that the tracking service refused to begin collection.
// The session is Failed and no laps were recorded.
type StartError struct {
	Cause error
}

func (e *StartError) Error() string {
	return "session start failed: " + e.Cause.Error()
}

func (e *StartError) Unwrap() error { return e.Cause }

// EndError reports that the stop callback failed. A stop failure is soft:
// the session is Failed but the best-effort swim snapshot is still produced.
type EndError struct {
	Cause error
}

func (e *EndError) Error() string {
	return "session end failed: " + e.Cause.Error()
}

func (e *EndError) Unwrap() error { return e.Cause }
