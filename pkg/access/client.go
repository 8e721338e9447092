package access

import (
	"strings"

	"github.com/google/uuid"
)

// Client is an API consumer; it owns exactly one top-level securable
// item subtree which scopes what the calling application may administer
type Client struct {
	ClientID     string    `db:"client_id" json:"client_id" valid:"required,ascii"`
	Name         string    `db:"name" json:"name" valid:"required"`
	UID          uuid.UUID `db:"uid" json:"uid"`
	TopLevelItem string    `db:"top_level_item" json:"top_level_item"`

	Track
}

func NewClient(clientID, name string) Client {
	return Client{
		ClientID: strings.TrimSpace(clientID),
		Name:     strings.TrimSpace(name),
	}
}

// Key returns the case-folded client id used as its storage key
func (c Client) Key() string {
	return strings.ToLower(c.ClientID)
}

// Owns reports whether a given securable item key falls under the
// client's top-level subtree
func (c Client) Owns(itemKey string) bool {
	if c.TopLevelItem == "" {
		return false
	}

	top := strings.ToLower(c.TopLevelItem)
	itemKey = strings.ToLower(itemKey)

	return itemKey == top || strings.HasPrefix(itemKey, top+"/")
}
