package audit

import (
	jsoniter "github.com/json-iterator/go"
	"github.com/oklog/ulid"
	"github.com/pkg/errors"
	"github.com/r3labs/diff"

	"github.com/agubarev/perimeter/pkg/util/timestamp"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// event names
const (
	EventCreated = "entity_created"
	EventUpdated = "entity_updated"
	EventDeleted = "entity_deleted"
)

// Event describes a single confirmed mutation of a stored entity.
// Before and After hold the entity payloads as they were around
// the write; Changelog lists individual field changes between them.
type Event struct {
	ID         ulid.ULID           `json:"id"`
	Name       string              `json:"name"`
	EntityKind string              `json:"entity_kind"`
	EntityID   string              `json:"entity_id"`
	Actor      string              `json:"actor"`
	Before     []byte              `json:"before,omitempty"`
	After      []byte              `json:"after,omitempty"`
	Changelog  diff.Changelog      `json:"changelog,omitempty"`
	CreatedAt  timestamp.Timestamp `json:"created_at"`
}

// NewEvent assembles an audit event from the before/after states of an entity
// NOTE: either state can be nil (i.e. before on creation, after on hard deletion)
func NewEvent(name, entityKind, entityID, actor string, before, after interface{}) (e Event, err error) {
	e = Event{
		ID:         NewULID(),
		Name:       name,
		EntityKind: entityKind,
		EntityID:   entityID,
		Actor:      actor,
		CreatedAt:  timestamp.Now(),
	}

	if before != nil {
		if e.Before, err = json.Marshal(before); err != nil {
			return e, errors.Wrap(err, "failed to marshal pre-write payload")
		}
	}

	if after != nil {
		if e.After, err = json.Marshal(after); err != nil {
			return e, errors.Wrap(err, "failed to marshal post-write payload")
		}
	}

	// computing a field-level changelog whenever both states are present
	if before != nil && after != nil {
		changelog, err := diff.Diff(before, after)
		if err != nil {
			return e, errors.Wrap(err, "failed to compute change log")
		}

		e.Changelog = changelog
	}

	return e, nil
}
