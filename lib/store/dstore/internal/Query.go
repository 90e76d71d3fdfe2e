package internal

// QueryType defines the possible queries for the state machine.
type QueryType uint8

const (
	QueryTGet QueryType = iota // Retrieve an entry by key.
)

func (q QueryType) String() string {
	switch q {
	case QueryTGet:
		return "Get"
	default:
		return "Unknown"
	}
}

// Query defines the structure for lookup requests (read-only) sent via SyncRead
type Query struct {
	Type QueryType // The type of Query to perform.
	Key  string    // The key for the Query.
}

// QueryResult is the result of a QueryTGet operation.
type QueryResult struct {
	Ok    bool
	Value []byte
}
