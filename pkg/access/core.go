package access

import (
	"strings"
	"time"

	"github.com/allegro/bigcache"
	"go.uber.org/zap"

	"github.com/agubarev/perimeter/pkg/audit"
	"github.com/agubarev/perimeter/pkg/storage"
)

// entity kind names carried on audit events and cache keys
const (
	KindGrain    = "grain"
	KindItem     = "securable_item"
	KindRole     = "role"
	KindPerm     = "permission"
	KindGranular = "granular_permission"
	KindGroup    = "group"
	KindUser     = "user"
	KindClient   = "client"
)

// Config wires the authorization core together
type Config struct {
	// Sink receives audit events; defaults to a zap-backed sink
	Sink audit.Sink

	Logger *zap.Logger

	// Cache configures the bigcache backend behind every store
	Cache bigcache.Config

	// Retry bounds the backoff applied to store mutations
	Retry storage.RetryPolicy

	// SubjectKeyFormatter normalizes "{subjectId}:{identityProvider}"
	// keys; defaults to case folding
	SubjectKeyFormatter storage.Formatter
}

func DefaultConfig() Config {
	return Config{
		Cache: bigcache.DefaultConfig(10 * time.Minute),
		Retry: storage.DefaultRetryPolicy(),
	}
}

// Core is the authorization decision service: per-entity managers for
// mutations and the resolution engine for decisions. All stores share
// one fixed decorator order: caching wraps auditing wraps retrying
// wraps the raw backend, so every confirmed write is audited and
// reflected by cache invalidation.
type Core struct {
	Grains      *GrainManager
	Items       *ItemManager
	Permissions *PermissionManager
	Roles       *RoleManager
	Groups      *GroupManager
	Users       *UserManager
	Granular    *GranularManager
	Clients     *ClientManager

	Hierarchy *GroupHierarchy
	Engine    *Engine
}

// composeStore assembles the fixed decorator chain over a raw backend
func composeStore[T any](raw storage.Store[T], kind string, cfg Config) (storage.Store[T], error) {
	retrying, err := storage.NewRetryingStore(raw, cfg.Retry)
	if err != nil {
		return nil, err
	}

	audited, err := storage.NewAuditedStore(retrying, cfg.Sink, kind, cfg.Logger)
	if err != nil {
		return nil, err
	}

	return storage.NewCachedStore(audited, kind, cfg.Cache)
}

// NewCore builds a fully wired in-memory authorization core
func NewCore(cfg Config) (c *Core, err error) {
	if cfg.Sink == nil {
		if cfg.Sink, err = audit.NewZapSink(cfg.Logger); err != nil {
			return nil, err
		}
	}

	if cfg.SubjectKeyFormatter == nil {
		cfg.SubjectKeyFormatter = storage.FormatterFunc(strings.ToLower)
	}

	grainStore, err := composeStore(storage.NewMemoryStore[Grain](), KindGrain, cfg)
	if err != nil {
		return nil, err
	}

	itemStore, err := composeStore(storage.NewMemoryStore[SecurableItem](), KindItem, cfg)
	if err != nil {
		return nil, err
	}

	permStore, err := composeStore(storage.NewMemoryStore[Permission](), KindPerm, cfg)
	if err != nil {
		return nil, err
	}

	roleStore, err := composeStore(storage.NewMemoryStore[Role](), KindRole, cfg)
	if err != nil {
		return nil, err
	}

	rawGroupStore := storage.NewMemoryStore[Group]()

	groupStore, err := composeStore(rawGroupStore, KindGroup, cfg)
	if err != nil {
		return nil, err
	}

	userStore, err := composeStore(storage.NewMemoryStore[User](), KindUser, cfg)
	if err != nil {
		return nil, err
	}

	// user and override records are looked up by identity-provider
	// qualified subject keys, which must normalize consistently
	formattedUserStore, err := storage.NewFormattedStore(userStore, cfg.SubjectKeyFormatter)
	if err != nil {
		return nil, err
	}

	granularStore, err := composeStore(storage.NewMemoryStore[GranularPermission](), KindGranular, cfg)
	if err != nil {
		return nil, err
	}

	formattedGranularStore, err := storage.NewFormattedStore(granularStore, cfg.SubjectKeyFormatter)
	if err != nil {
		return nil, err
	}

	clientStore, err := composeStore(storage.NewMemoryStore[Client](), KindClient, cfg)
	if err != nil {
		return nil, err
	}

	return assembleCore(cfg, coreStores{
		grains:       grainStore,
		items:        itemStore,
		permissions:  permStore,
		roles:        roleStore,
		groups:       groupStore,
		groupScanner: rawGroupStore.(storage.KeyScanner[Group]),
		users:        formattedUserStore,
		granular:     formattedGranularStore,
		clients:      clientStore,
	})
}

// coreStores carries the decorated stores into assembly
type coreStores struct {
	grains       storage.Store[Grain]
	items        storage.Store[SecurableItem]
	permissions  storage.Store[Permission]
	roles        storage.Store[Role]
	groups       storage.Store[Group]
	groupScanner storage.KeyScanner[Group]
	users        storage.Store[User]
	granular     storage.Store[GranularPermission]
	clients      storage.Store[Client]
}

func assembleCore(cfg Config, stores coreStores) (*Core, error) {
	grainValidator, err := NewGrainValidator(stores.grains)
	if err != nil {
		return nil, err
	}

	itemValidator, err := NewItemValidator(stores.items)
	if err != nil {
		return nil, err
	}

	permValidator, err := NewPermissionValidator(stores.permissions)
	if err != nil {
		return nil, err
	}

	roleValidator, err := NewRoleValidator(stores.roles)
	if err != nil {
		return nil, err
	}

	groupValidator, err := NewGroupValidator()
	if err != nil {
		return nil, err
	}

	userValidator, err := NewUserValidator(stores.users)
	if err != nil {
		return nil, err
	}

	granularValidator, err := NewGranularValidator()
	if err != nil {
		return nil, err
	}

	clientValidator, err := NewClientValidator(stores.clients)
	if err != nil {
		return nil, err
	}

	grains, err := NewGrainManager(stores.grains, grainValidator)
	if err != nil {
		return nil, err
	}

	items, err := NewItemManager(stores.items, itemValidator)
	if err != nil {
		return nil, err
	}

	permissions, err := NewPermissionManager(stores.permissions, permValidator)
	if err != nil {
		return nil, err
	}

	roles, err := NewRoleManager(stores.roles, roleValidator)
	if err != nil {
		return nil, err
	}

	groups, err := NewGroupManager(stores.groups, stores.groupScanner, groupValidator)
	if err != nil {
		return nil, err
	}

	users, err := NewUserManager(stores.users, userValidator)
	if err != nil {
		return nil, err
	}

	granular, err := NewGranularManager(stores.granular, granularValidator)
	if err != nil {
		return nil, err
	}

	clients, err := NewClientManager(stores.clients, clientValidator, items)
	if err != nil {
		return nil, err
	}

	hierarchy, err := NewGroupHierarchy(groups, cfg.Logger)
	if err != nil {
		return nil, err
	}

	roleResolver, err := NewRoleResolver(stores.roles, stores.grains, stores.users, hierarchy, cfg.Logger)
	if err != nil {
		return nil, err
	}

	granularResolver, err := NewGranularResolver(stores.granular, cfg.Logger)
	if err != nil {
		return nil, err
	}

	engine, err := NewEngine(cfg.Logger, roleResolver, granularResolver)
	if err != nil {
		return nil, err
	}

	c := &Core{
		Grains:      grains,
		Items:       items,
		Permissions: permissions,
		Roles:       roles,
		Groups:      groups,
		Users:       users,
		Granular:    granular,
		Clients:     clients,
		Hierarchy:   hierarchy,
		Engine:      engine,
	}

	if cfg.Logger != nil {
		for _, sl := range []interface{ SetLogger(*zap.Logger) error }{
			grains, items, permissions, roles, groups, users, granular, clients,
		} {
			if err = sl.SetLogger(cfg.Logger); err != nil {
				return nil, err
			}
		}
	}

	return c, nil
}
