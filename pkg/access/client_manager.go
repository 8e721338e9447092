package access

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/agubarev/perimeter/pkg/storage"
)

// ClientManager owns the API consumer registry; each client
// administers exactly one top-level securable item subtree
type ClientManager struct {
	store     storage.Store[Client]
	validator *ClientValidator
	items     *ItemManager
	logger    *zap.Logger
}

func NewClientManager(s storage.Store[Client], v *ClientValidator, items *ItemManager) (*ClientManager, error) {
	if s == nil {
		return nil, ErrNilStore
	}

	if v == nil {
		return nil, ErrNilValidator
	}

	if items == nil {
		return nil, ErrNilItemManager
	}

	m := &ClientManager{
		store:     s,
		validator: v,
		items:     items,
	}

	return m, nil
}

// SetLogger assigns a logger for this manager
func (m *ClientManager) SetLogger(logger *zap.Logger) error {
	if logger != nil {
		logger = logger.Named("[client]")
	}

	m.logger = logger

	return nil
}

// AddClient registers a new API consumer and roots its top-level
// securable item subtree under a given grain
func (m *ClientManager) AddClient(ctx context.Context, c Client, grain string) (Client, error) {
	c.UID = uuid.New()

	if err := m.validator.ValidateNew(ctx, c); err != nil {
		return c, err
	}

	top, err := m.items.AddTopLevelItem(ctx, NewSecurableItem(grain, c.ClientID, c.ClientID))
	if err != nil {
		return c, errors.Wrap(err, "failed to root client item subtree")
	}

	c.TopLevelItem = top.Key()

	stored, err := m.store.Add(ctx, c.Key(), c)
	if err != nil {
		return c, errors.Wrap(err, "failed to store client")
	}

	return stored, nil
}

// ClientByID returns an active client by its id
func (m *ClientManager) ClientByID(ctx context.Context, clientID string) (Client, error) {
	c, err := m.store.Get(ctx, strings.ToLower(strings.TrimSpace(clientID)))
	if err != nil {
		if storage.IsNotFound(err) {
			return c, ErrClientNotFound
		}

		return c, err
	}

	return c, nil
}

// DeleteClient retires a client registration
func (m *ClientManager) DeleteClient(ctx context.Context, clientID string) error {
	return m.store.Delete(ctx, strings.ToLower(strings.TrimSpace(clientID)))
}

// VerifyOwnership fails with ErrItemNotOwnedByClient when a securable
// item does not fall under the client's top-level subtree
func (m *ClientManager) VerifyOwnership(ctx context.Context, clientID, itemKey string) error {
	c, err := m.ClientByID(ctx, clientID)
	if err != nil {
		return err
	}

	if !c.Owns(itemKey) {
		return ErrItemNotOwnedByClient
	}

	return nil
}
