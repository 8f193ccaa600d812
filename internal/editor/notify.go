package editor

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
	KindInfo    Kind = "info"
	KindLoading Kind = "loading"
)

// DefaultDuration is how long a notification of kind stays up. Zero means
// it stays until replaced.
func DefaultDuration(kind Kind) time.Duration {
	switch kind {
	case KindSuccess:
		return 5 * time.Second
	case KindInfo:
		return 3 * time.Second
	case KindError:
		return 6 * time.Second
	default:
		return 0
	}
}

// Notification is a user-facing message. When UndoID is set, Undo reverts
// the change it reports; it may be called at most once.
type Notification struct {
	ID         string
	Replaces   string
	Message    string
	Kind       Kind
	Duration   time.Duration
	UndoID     string
	Undo       func() error
	Detail     string
	Persistent bool
	Code       string
}

type Notifier interface {
	Notify(n Notification)
}

type NotifierFunc func(Notification)

func (f NotifierFunc) Notify(n Notification) { f(n) }

func newNotification(kind Kind, msg string) Notification {
	return Notification{
		ID:       uuid.NewString(),
		Message:  msg,
		Kind:     kind,
		Duration: DefaultDuration(kind),
	}
}

// Recorder keeps every notification it receives. Useful for tests and for
// replaying recent messages to a late subscriber.
type Recorder struct {
	mu  sync.Mutex
	all []Notification
}

func (r *Recorder) Notify(n Notification) {
	r.mu.Lock()
	r.all = append(r.all, n)
	r.mu.Unlock()
}

func (r *Recorder) All() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notification, len(r.all))
	copy(out, r.all)
	return out
}

// Last returns the most recent notification, if any.
func (r *Recorder) Last() (Notification, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.all) == 0 {
		return Notification{}, false
	}
	return r.all[len(r.all)-1], true
}
