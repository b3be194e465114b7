package enums

// SessionState is the per-session query state machine: idle <-> executing.
type SessionState string

const (
	SessionStateIdle      SessionState = "idle"
	SessionStateExecuting SessionState = "executing"
)

// String implements fmt.Stringer.
func (s SessionState) String() string {
	return string(s)
}
