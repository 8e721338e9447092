package storage_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/agubarev/perimeter/pkg/storage"
	"github.com/agubarev/perimeter/pkg/util/timestamp"
)

// testDoc carries the full set of audit stamps
type testDoc struct {
	Name       string              `json:"name"`
	Payload    string              `json:"payload"`
	CreatedAt  timestamp.Timestamp `json:"t_cr"`
	CreatedBy  string              `json:"t_cr_by"`
	ModifiedAt timestamp.Timestamp `json:"t_up"`
	ModifiedBy string              `json:"t_up_by"`
	IsDeleted  bool                `json:"is_deleted"`
	DeletedAt  timestamp.Timestamp `json:"t_del"`
	DeletedBy  string              `json:"t_del_by"`
}

func (d *testDoc) StampCreated(actor string, ts timestamp.Timestamp) {
	d.CreatedAt = ts
	d.CreatedBy = actor
}

func (d *testDoc) StampModified(actor string, ts timestamp.Timestamp) {
	d.ModifiedAt = ts
	d.ModifiedBy = actor
}

func (d *testDoc) Deleted() bool { return d.IsDeleted }

func (d *testDoc) MarkDeleted(actor string, ts timestamp.Timestamp) {
	d.IsDeleted = true
	d.DeletedAt = ts
	d.DeletedBy = actor
}

// plainDoc carries no audit capabilities and is removed physically
type plainDoc struct {
	Note string `json:"note"`
}

func TestMemoryStoreAdd(t *testing.T) {
	a := assert.New(t)

	ctx := context.Background()
	s := storage.NewMemoryStore[testDoc]()

	_, err := s.Add(ctx, "", testDoc{Name: "noname"})
	a.ErrorIs(err, storage.ErrEmptyKey)

	d, err := s.Add(ctx, "doc1", testDoc{Name: "first"})
	a.NoError(err)
	a.Equal("first", d.Name)
	a.Equal("system", d.CreatedBy)
	a.NotZero(d.CreatedAt)

	_, err = s.Add(ctx, "doc1", testDoc{Name: "dupe"})
	a.True(storage.IsAlreadyExists(err))

	d, err = s.Add(storage.WithActor(ctx, "alice"), "doc2", testDoc{Name: "second"})
	a.NoError(err)
	a.Equal("alice", d.CreatedBy)
}

func TestMemoryStoreGetUpdate(t *testing.T) {
	a := assert.New(t)

	ctx := context.Background()
	s := storage.NewMemoryStore[testDoc]()

	_, err := s.Get(ctx, "missing")
	a.True(storage.IsNotFound(err))

	_, err = s.Update(ctx, "missing", testDoc{Name: "phantom"})
	a.True(storage.IsNotFound(err))

	d, err := s.Add(ctx, "doc1", testDoc{Name: "first", Payload: "v1"})
	a.NoError(err)

	d.Payload = "v2"

	d, err = s.Update(storage.WithActor(ctx, "bob"), "doc1", d)
	a.NoError(err)
	a.Equal("bob", d.ModifiedBy)
	a.NotZero(d.ModifiedAt)

	fetched, err := s.Get(ctx, "doc1")
	a.NoError(err)
	a.Equal("v2", fetched.Payload)
}

func TestMemoryStoreSoftDelete(t *testing.T) {
	a := assert.New(t)

	ctx := context.Background()
	s := storage.NewMemoryStore[testDoc]()

	_, err := s.Add(ctx, "doc1", testDoc{Name: "first"})
	a.NoError(err)

	a.NoError(s.Delete(storage.WithActor(ctx, "carol"), "doc1"))

	// retired records are invisible to reads
	_, err = s.Get(ctx, "doc1")
	a.True(storage.IsNotFound(err))

	ok, err := s.Exists(ctx, "doc1")
	a.NoError(err)
	a.False(ok)

	// deleting twice fails the second time
	a.True(storage.IsNotFound(s.Delete(ctx, "doc1")))

	// the physical record survives retirement and is scannable
	scanner, ok := s.(storage.KeyScanner[testDoc])
	a.True(ok)

	found := false
	for key, d := range scanner.ScanPrefix(ctx, "doc") {
		a.Equal("doc1", key)
		a.True(d.IsDeleted)
		a.Equal("carol", d.DeletedBy)
		found = true
	}
	a.True(found)

	// the key is free for a fresh record again
	d, err := s.Add(ctx, "doc1", testDoc{Name: "reborn"})
	a.NoError(err)
	a.False(d.IsDeleted)

	fetched, err := s.Get(ctx, "doc1")
	a.NoError(err)
	a.Equal("reborn", fetched.Name)
}

func TestMemoryStorePhysicalDelete(t *testing.T) {
	a := assert.New(t)

	ctx := context.Background()
	s := storage.NewMemoryStore[plainDoc]()

	_, err := s.Add(ctx, "doc1", plainDoc{Note: "ephemeral"})
	a.NoError(err)

	a.NoError(s.Delete(ctx, "doc1"))

	scanner, ok := s.(storage.KeyScanner[plainDoc])
	a.True(ok)

	for key := range scanner.ScanPrefix(ctx, "doc") {
		a.Failf("unexpected physical record", "key: %s", key)
	}
}

func TestMemoryStoreGetAll(t *testing.T) {
	a := assert.New(t)

	ctx := context.Background()
	s := storage.NewMemoryStore[testDoc]()

	for _, name := range []string{"one", "two", "three"} {
		_, err := s.Add(ctx, name, testDoc{Name: name})
		a.NoError(err)
	}

	a.NoError(s.Delete(ctx, "two"))

	names := make(map[string]bool)
	for d, err := range s.GetAll(ctx) {
		a.NoError(err)
		names[d.Name] = true
	}

	a.Len(names, 2)
	a.True(names["one"])
	a.True(names["three"])
}

func TestMemoryStoreLastWriteWins(t *testing.T) {
	a := assert.New(t)

	ctx := context.Background()
	s := storage.NewMemoryStore[testDoc]()

	_, err := s.Add(ctx, "doc1", testDoc{Name: "first", Payload: "v0"})
	a.NoError(err)

	first, err := s.Get(ctx, "doc1")
	a.NoError(err)

	second, err := s.Get(ctx, "doc1")
	a.NoError(err)

	first.Payload = "from-first"
	_, err = s.Update(ctx, "doc1", first)
	a.NoError(err)

	// updates replace the whole record regardless of the base the
	// caller read from; the later write wins
	second.Payload = "from-second"
	_, err = s.Update(ctx, "doc1", second)
	a.NoError(err)

	fetched, err := s.Get(ctx, "doc1")
	a.NoError(err)
	a.Equal("from-second", fetched.Payload)
}

func TestMemoryStoreConcurrentWriters(t *testing.T) {
	a := assert.New(t)

	ctx := context.Background()
	s := storage.NewMemoryStore[testDoc]()

	_, err := s.Add(ctx, "shared", testDoc{Name: "shared"})
	a.NoError(err)

	var wg sync.WaitGroup

	for i := 0; i < 16; i++ {
		wg.Add(1)

		go func(n int) {
			defer wg.Done()

			key := fmt.Sprintf("doc%d", n)

			_, err := s.Add(ctx, key, testDoc{Name: key})
			assert.NoError(t, err)

			_, err = s.Update(ctx, "shared", testDoc{Name: "shared", Payload: key})
			assert.NoError(t, err)
		}(i)
	}

	wg.Wait()

	count := 0
	for range s.GetAll(ctx) {
		count++
	}
	a.Equal(17, count)

	// the shared record holds exactly one of the written payloads
	d, err := s.Get(ctx, "shared")
	a.NoError(err)
	a.Regexp("^doc[0-9]+$", d.Payload)
}

func TestActorContext(t *testing.T) {
	a := assert.New(t)

	a.Equal("system", storage.Actor(context.Background()))
	a.Equal("alice", storage.Actor(storage.WithActor(context.Background(), "alice")))
}
