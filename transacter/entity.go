package transacter

import "github.com/google/uuid"

// ID is the identifier of a persisted entity. Root and unsharded entities get
// a freshly generated id; child entities get a parent-scoped composite id so
// they are routed to the same shard as their root.
type ID string

func (id ID) String() string {
	return string(id)
}

// NewID generates a time-ordered identifier for a root or unsharded entity.
func NewID() (ID, error) {
	raw, err := uuid.NewV7()
	if err != nil {
		return "", err
	}

	return ID(raw.String()), nil
}

// NewChildID generates a parent-scoped composite identifier for a child entity.
func NewChildID(parent ID) (ID, error) {
	if parent == "" {
		return "", ErrMissingParentID
	}

	local, err := NewID()
	if err != nil {
		return "", err
	}

	return parent + "/" + local, nil
}

// EntityKind is the closed taxonomy of persistable entities. Exactly one kind
// must apply to an entity or Save fails with an argument fault; a new kind
// cannot silently fall through the dispatch.
type EntityKind int

const (
	// KindRoot is a sharded root-level entity; its id selects the shard.
	KindRoot EntityKind = iota + 1

	// KindUnsharded lives in an unsharded keyspace.
	KindUnsharded

	// KindChild is a child or derived entity scoped to a root's shard via a
	// parent-scoped composite id.
	KindChild
)

func (k EntityKind) String() string {
	switch k {
	case KindRoot:
		return "root"
	case KindUnsharded:
		return "unsharded"
	case KindChild:
		return "child"
	default:
		return "unknown"
	}
}

// Entity is a persistable value. Entities are stored by id with their fields
// serialized into a payload column; the engine does not interpret the payload.
type Entity interface {
	TableName() string
	EntityKind() EntityKind
}

// ChildEntity must be implemented by entities of KindChild; ParentID supplies
// the root id that scopes the child's composite id.
type ChildEntity interface {
	Entity
	ParentID() ID
}
