package daemon

import "encoding/json"

// Control methods served on the socket.
const (
	MethodStatus = "status"
	MethodSet    = "set"
	MethodStart  = "start"
	MethodPause  = "pause"
	MethodReset  = "reset"
	MethodStop   = "stop"
)

// Request is one control call. A connection carries exactly one request
// followed by one Response.
type Request struct {
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
	ID     int             `json:"id,omitempty"`
}

// Response carries either a method result or an error message.
type Response struct {
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
	ID     int             `json:"id,omitempty"`
}

// StatusResponse describes the countdown. Running is false when the status
// was read from the state file instead of a live process, in which case Mode,
// Uptime and StartTime are empty.
type StatusResponse struct {
	Running    bool        `json:"running"`
	Mode       string      `json:"mode,omitempty"`
	Phase      string      `json:"phase"`
	Remaining  string      `json:"remaining"`
	Seconds    int         `json:"seconds"`
	Configured int         `json:"configured"`
	Uptime     string      `json:"uptime,omitempty"`
	StartTime  string      `json:"start_time,omitempty"`
	Stats      StatusStats `json:"stats"`
}

// StatusStats contains run statistics for the status response.
type StatusStats struct {
	RunID         string `json:"run_id,omitempty"`
	Runs          int    `json:"runs"`
	Finished      int    `json:"finished"`
	DroppedEvents int64  `json:"dropped_events,omitempty"`
}

// ActionResponse is returned by set, start, pause and reset. Changed is
// false when the countdown ignored the operation in its current phase or,
// for set, because the duration was not positive.
type ActionResponse struct {
	Changed bool           `json:"changed"`
	Status  StatusResponse `json:"status"`
}

// SetParams contains parameters for the set method.
type SetParams struct {
	Seconds int `json:"seconds"`
}

// StopParams contains parameters for the stop method.
type StopParams struct {
	Force bool `json:"force,omitempty"`
}
