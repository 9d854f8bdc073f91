package event

import "time"

// Type identifies the kind of event.
type Type int

const (
	RunStarted Type = iota + 1
	DirScanned
	DirFailed
	FileCopied
	FileSkipped
	FileFailed
	FileVerified
	RunAborted
	RunFinished
)

var typeNames = [...]string{
	RunStarted:   "RunStarted",
	DirScanned:   "DirScanned",
	DirFailed:    "DirFailed",
	FileCopied:   "FileCopied",
	FileSkipped:  "FileSkipped",
	FileFailed:   "FileFailed",
	FileVerified: "FileVerified",
	RunAborted:   "RunAborted",
	RunFinished:  "RunFinished",
}

func (t Type) String() string {
	if t > 0 && int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "Unknown"
}

// Event is a single notification from the engine. Delivery is best effort:
// the engine never blocks a worker to deliver one.
type Event struct {
	Type      Type
	Timestamp time.Time
	Path      string // relative to the source root
	Size      int64
	Error     error
	WorkerID  int
}

// Emit sends e on ch without blocking. A nil channel or a full buffer
// drops the event.
func Emit(ch chan<- Event, e Event) {
	if ch == nil {
		return
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	select {
	case ch <- e:
	default:
	}
}
