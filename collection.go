package unitwork

import (
	"github.com/autom8ter/unitwork/errors"
	"github.com/autom8ter/unitwork/util"
	"github.com/samber/lo"
)

// RelationKind is the persistence shape of a to-many relation
type RelationKind string

const (
	// OneToMany persists membership through a foreign key on the target
	OneToMany RelationKind = "one_to_many"
	// ManyToMany persists membership through an explicit join table
	ManyToMany RelationKind = "many_to_many"
)

// Relation describes how a to-many collection is persisted
type Relation struct {
	Kind RelationKind `json:"kind" validate:"required,oneof=one_to_many many_to_many"`
	// Owner is the entity name owning the collection
	Owner string `json:"owner" validate:"required"`
	// Target is the entity name of the collection members
	Target string `json:"target" validate:"required"`
	// ForeignKey is the target property referencing the owner (one to many)
	ForeignKey string `json:"foreignKey,omitempty" validate:"required_if=Kind one_to_many"`
	// JoinTable is the join representation name (many to many)
	JoinTable string `json:"joinTable,omitempty" validate:"required_if=Kind many_to_many"`
}

// Collection tracks membership changes of a to-many relation between flushes.
// It records which entities were added to and removed from the initial
// snapshot by object identity; adding then removing a not originally present
// entity cancels to no recorded change.
type Collection struct {
	relation Relation
	initial  []any
	members  map[any]struct{}
	items    []any
}

// NewCollection creates a collection over the given initial backing sequence.
// It fails with a validation error if the relation descriptor cannot resolve
// an owning entity.
func NewCollection(initial []any, relation Relation) (*Collection, error) {
	if err := util.ValidateStruct(&relation); err != nil {
		return nil, errors.Wrap(err, errors.Validation, "collection: unresolvable relation descriptor")
	}
	c := &Collection{
		relation: relation,
		members:  map[any]struct{}{},
	}
	for _, entity := range initial {
		if _, ok := c.members[entity]; ok {
			continue
		}
		c.members[entity] = struct{}{}
		c.initial = append(c.initial, entity)
		c.items = append(c.items, entity)
	}
	return c, nil
}

// Relation returns the collection's relation descriptor
func (c *Collection) Relation() Relation {
	return c.relation
}

// Items returns the live view of the collection in order
func (c *Collection) Items() []any {
	out := make([]any, len(c.items))
	copy(out, c.items)
	return out
}

// Len returns the number of entities in the live view
func (c *Collection) Len() int {
	return len(c.items)
}

// Contains returns true if the entity is in the live view
func (c *Collection) Contains(entity any) bool {
	return lo.ContainsBy(c.items, func(item any) bool {
		return item == entity
	})
}

// Push appends the entity to the live view. Membership is identity keyed, so
// pushing an already present entity is a no-op.
func (c *Collection) Push(entity any) {
	if c.Contains(entity) {
		return
	}
	c.items = append(c.items, entity)
}

// RemoveItem removes the entity from the live view - a no-op if absent
func (c *Collection) RemoveItem(entity any) {
	c.items = lo.Filter(c.items, func(item any, _ int) bool {
		return item != entity
	})
}

// AddedEntities returns the entities present in the live view but not in the
// initial snapshot
func (c *Collection) AddedEntities() []any {
	return lo.Filter(c.items, func(item any, _ int) bool {
		_, ok := c.members[item]
		return !ok
	})
}

// RemovedEntities returns the entities present in the initial snapshot but no
// longer in the live view
func (c *Collection) RemovedEntities() []any {
	return lo.Filter(c.initial, func(item any, _ int) bool {
		return !c.Contains(item)
	})
}

// HasChanges returns true if any entity was added or removed since the last
// snapshot
func (c *Collection) HasChanges() bool {
	return len(c.AddedEntities()) > 0 || len(c.RemovedEntities()) > 0
}

// Snapshot re-baselines the initial snapshot to the live view. The executor
// calls this after applying the diff to the join representation.
func (c *Collection) Snapshot() {
	c.initial = c.Items()
	c.members = map[any]struct{}{}
	for _, entity := range c.initial {
		c.members[entity] = struct{}{}
	}
}
