package jsonrpc

// ConnectionStrategy governs outbound request-id sequencing and
// backpressure for a Conn.
type ConnectionStrategy interface {
	// NextRequestID returns the id for the next outbound request given
	// the previously issued one (0 before the first request).
	NextRequestID(prev int64) int64

	// MaxInflight caps concurrently outstanding requests; zero or
	// negative means unlimited.
	MaxInflight() int
}

// ConnectionOptions configures a Conn.
type ConnectionOptions struct {
	// ConnectionStrategy defaults to sequential ids with no in-flight
	// cap when nil.
	ConnectionStrategy ConnectionStrategy

	// MaxRestartConsecutiveCrashes is carried for callers that manage a
	// crashing peer process. The connection itself never restarts a
	// transport: a closed transport is terminal.
	MaxRestartConsecutiveCrashes int
}

// sequentialStrategy is the default: monotonically increasing ids, no
// in-flight cap.
type sequentialStrategy struct{}

func (sequentialStrategy) NextRequestID(prev int64) int64 { return prev + 1 }
func (sequentialStrategy) MaxInflight() int               { return 0 }

// BoundedStrategy issues sequential ids and limits outstanding requests
// to Limit, blocking further Calls until responses drain.
type BoundedStrategy struct {
	Limit int
}

func (s BoundedStrategy) NextRequestID(prev int64) int64 { return prev + 1 }
func (s BoundedStrategy) MaxInflight() int               { return s.Limit }
