package models

import "encoding/json"

// Progress event types pushed by the agent backend over its event stream.
const (
	EventStart    = "start"
	EventStep     = "step"
	EventComplete = "complete"
	EventError    = "error"
)

// ProgressEvent is one message from the backend's progress stream.
// Raw keeps the original frame so fields beyond the three the state
// machine needs are passed through to the presentation layer untouched.
type ProgressEvent struct {
	Type      string  `json:"type"`
	Message   string  `json:"message"`
	Timestamp float64 `json:"timestamp"` // seconds since epoch

	Raw json.RawMessage `json:"-"`
}

// UnmarshalJSON decodes the known fields and retains the full frame.
func (e *ProgressEvent) UnmarshalJSON(data []byte) error {
	type alias ProgressEvent
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*e = ProgressEvent(a)
	e.Raw = append(json.RawMessage(nil), data...)
	return nil
}

// MarshalJSON re-emits the original frame when one was captured, so
// pass-through fields survive a relay hop.
func (e ProgressEvent) MarshalJSON() ([]byte, error) {
	if len(e.Raw) > 0 {
		return e.Raw, nil
	}
	type alias ProgressEvent
	return json.Marshal(alias(e))
}
