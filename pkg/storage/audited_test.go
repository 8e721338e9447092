package storage_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/agubarev/perimeter/pkg/audit"
	"github.com/agubarev/perimeter/pkg/storage"
)

func TestAuditedStoreEmitsEvents(t *testing.T) {
	a := assert.New(t)

	ctx := storage.WithActor(context.Background(), "alice")
	sink := audit.NewMemorySink()

	s, err := storage.NewAuditedStore[testDoc](storage.NewMemoryStore[testDoc](), sink, "test_doc", nil)
	a.NoError(err)
	a.NotNil(s)

	d, err := s.Add(ctx, "doc1", testDoc{Name: "first", Payload: "v1"})
	a.NoError(err)

	d.Payload = "v2"

	_, err = s.Update(ctx, "doc1", d)
	a.NoError(err)

	a.NoError(s.Delete(ctx, "doc1"))

	es := sink.Events()
	a.Len(es, 3)

	a.Equal(audit.EventCreated, es[0].Name)
	a.Equal(audit.EventUpdated, es[1].Name)
	a.Equal(audit.EventDeleted, es[2].Name)

	for _, e := range es {
		a.Equal("test_doc", e.EntityKind)
		a.Equal("doc1", e.EntityID)
		a.Equal("alice", e.Actor)
		a.NotZero(e.ID)
		a.NotZero(e.CreatedAt)
	}

	// creation carries no pre-write state
	a.Empty(es[0].Before)
	a.NotEmpty(es[0].After)

	// the update event carries both states and a field-level changelog
	a.NotEmpty(es[1].Before)
	a.NotEmpty(es[1].After)
	a.NotEmpty(es[1].Changelog)
}

func TestAuditedStoreSkipsFailedWrites(t *testing.T) {
	a := assert.New(t)

	ctx := context.Background()
	sink := audit.NewMemorySink()

	s, err := storage.NewAuditedStore[testDoc](storage.NewMemoryStore[testDoc](), sink, "test_doc", nil)
	a.NoError(err)

	_, err = s.Add(ctx, "doc1", testDoc{Name: "first"})
	a.NoError(err)

	_, err = s.Add(ctx, "doc1", testDoc{Name: "dupe"})
	a.True(storage.IsAlreadyExists(err))

	_, err = s.Update(ctx, "missing", testDoc{Name: "phantom"})
	a.True(storage.IsNotFound(err))

	a.Error(s.Delete(ctx, "missing"))

	// only the single confirmed write left a trace
	a.Len(sink.Events(), 1)
}
