package log

// Transporter is a destination for entries. The buffer worker is its only
// caller, so implementations need not be safe for concurrent Write.
type Transporter interface {
	Name() string
	Write(entry Entry) error
	// Close flushes and releases the destination; no Write follows it.
	Close() error
}
