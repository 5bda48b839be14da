package console

import (
	"errors"
	"log/slog"
	"sync"
)

// Level grades a notification.
type Level string

const (
	LevelInfo  Level = "info"
	LevelError Level = "error"
)

// Notification is a user-visible message.
type Notification struct {
	Level   Level
	Message string
	Err     error
}

// Notifier surfaces outcomes to the operator.
type Notifier interface {
	Notify(n Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notification)

// Notify implements Notifier.
func (f NotifierFunc) Notify(n Notification) { f(n) }

// LogNotifier writes notifications to a structured logger.
type LogNotifier struct {
	Logger *slog.Logger
}

// Notify implements Notifier.
func (l LogNotifier) Notify(n Notification) {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if n.Level == LevelError {
		logger.Error(n.Message, slog.Any("error", n.Err))
		return
	}
	logger.Info(n.Message)
}

// Recorder keeps every notification in memory.
type Recorder struct {
	mu   sync.Mutex
	list []Notification
}

// Notify implements Notifier.
func (r *Recorder) Notify(n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.list = append(r.list, n)
}

// All returns a copy of the recorded notifications.
func (r *Recorder) All() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notification, len(r.list))
	copy(out, r.list)
	return out
}

// Errors returns only error notifications.
func (r *Recorder) Errors() []Notification {
	var out []Notification
	for _, n := range r.All() {
		if n.Level == LevelError {
			out = append(out, n)
		}
	}
	return out
}

// failureMessage picks the operator-facing text for err.
func failureMessage(err error) string {
	var (
		fetchErr      *FetchError
		validationErr *ValidationError
		mutationErr   *MutationError
		exportErr     *ExportError
	)
	switch {
	case errors.Is(err, ErrCommitInFlight):
		return "Please wait for the current update to finish"
	case errors.As(err, &validationErr):
		return validationErr.Error()
	case errors.As(err, &fetchErr):
		return "Failed to load " + fetchErr.Op
	case errors.As(err, &mutationErr):
		return "Failed to " + mutationErr.Op
	case errors.As(err, &exportErr):
		return "Failed to export " + exportErr.Kind
	}
	return err.Error()
}
