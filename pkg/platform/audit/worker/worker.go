package worker

import (
	"context"

	audit "counsel/pkg/platform/audit"
)

// Worker drains an entry channel into an appender until the channel closes.
// Append failures go to onError and do not stop the worker.
type Worker struct {
	sink    audit.Appender
	inbox   <-chan audit.Entry
	onError func(audit.Entry, error)
}

func NewWorker(sink audit.Appender, inbox <-chan audit.Entry, onError func(audit.Entry, error)) *Worker {
	if onError == nil {
		onError = func(audit.Entry, error) {}
	}
	return &Worker{sink: sink, inbox: inbox, onError: onError}
}

// Run returns when the inbox is closed and drained.
func (w *Worker) Run(ctx context.Context) {
	for entry := range w.inbox {
		if err := w.sink.Append(ctx, entry); err != nil {
			w.onError(entry, err)
		}
	}
}
