package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	audit "counsel/pkg/platform/audit"
	"counsel/pkg/platform/audit/store/memory"
)

type failing struct{}

func (failing) Append(context.Context, audit.Entry) error { return errors.New("disk full") }

func TestWorkerDrainsUntilClosed(t *testing.T) {
	store := memory.NewInMemoryStore()
	inbox := make(chan audit.Entry, 3)
	for _, id := range []string{"a", "b", "c"} {
		inbox <- audit.Entry{GuildID: "g1", EntityID: id}
	}
	close(inbox)

	NewWorker(store, inbox, nil).Run(context.Background())

	entries, err := store.ListByGuild(context.Background(), "g1")
	assert.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestWorkerReportsFailuresAndContinues(t *testing.T) {
	inbox := make(chan audit.Entry, 2)
	inbox <- audit.Entry{EntityID: "a"}
	inbox <- audit.Entry{EntityID: "b"}
	close(inbox)

	var failed []string
	NewWorker(failing{}, inbox, func(e audit.Entry, _ error) {
		failed = append(failed, e.EntityID)
	}).Run(context.Background())

	assert.Equal(t, []string{"a", "b"}, failed)
}
