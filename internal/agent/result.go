package agent

import (
	"time"

	"github.com/angelmondragon/quickdeals/pkg/enums"
)

// Result is the outcome of one question: an answer, an error description, or
// nothing at all for an empty submission.
type Result struct {
	Status   enums.QueryStatus `json:"status"`
	Question string            `json:"question"`
	Answer   string            `json:"answer,omitempty"`
	Error    string            `json:"error,omitempty"`
	Provider string            `json:"provider,omitempty"`
	Duration time.Duration     `json:"-"`

	// Err keeps the underlying error for classification by transports.
	Err error `json:"-"`
}

// Skipped reports whether no agent call was made.
func (r Result) Skipped() bool { return r.Status == enums.QueryStatusSkipped }

// Failed reports whether the agent call raised an error.
func (r Result) Failed() bool { return r.Status == enums.QueryStatusFailed }

// DurationMS is the wall time of the call in milliseconds.
func (r Result) DurationMS() int64 { return r.Duration.Milliseconds() }
