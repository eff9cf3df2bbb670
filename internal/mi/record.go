package mi

import "fmt"

// RecordKind tags the leading-character-determined shape of one line of the
// machine interface.
type RecordKind int

const (
	Prompt RecordKind = iota
	Result
	AsyncExec
	AsyncStatus
	AsyncNotify
	StreamConsole
	StreamTarget
	StreamLog
)

// ResultClass is the class word of a Result record.
type ResultClass string

const (
	ClassDone      ResultClass = "done"
	ClassRunning   ResultClass = "running"
	ClassConnected ResultClass = "connected"
	ClassError     ResultClass = "error"
	ClassExit      ResultClass = "exit"
)

// Record is one parsed line of the machine interface.
type Record struct {
	Kind RecordKind

	// Result only. Token is -1 if the result was untokened.
	Token       int
	ResultClass ResultClass

	// Result / async-* only.
	AsyncClass string
	Payload    Value // Tuple of name=value pairs; zero value if none present

	// Stream-* only: the decoded text.
	Text string
}

// MalformedRecord is returned by Parse when a line violates the wire
// grammar. Offset is the byte offset into the input line at which the
// violation was detected.
type MalformedRecord struct {
	Reason string
	Offset int
}

func (e *MalformedRecord) Error() string {
	return fmt.Sprintf("malformed-record: %s (at offset %d)", e.Reason, e.Offset)
}
