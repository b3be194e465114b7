package enums

// QueryStatus is the outcome of one submitted question.
type QueryStatus string

const (
	// QueryStatusSkipped means the question was empty and no agent call was made.
	QueryStatusSkipped   QueryStatus = "skipped"
	QueryStatusSucceeded QueryStatus = "succeeded"
	QueryStatusFailed    QueryStatus = "failed"
)

// String implements fmt.Stringer.
func (s QueryStatus) String() string {
	return string(s)
}
