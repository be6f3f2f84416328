package unitwork

import (
	"fmt"

	"github.com/autom8ter/unitwork/errors"
	"github.com/samber/lo"
	"github.com/spf13/cast"
)

// IdentityMap enforces at most one live tracked instance per (entity name,
// identifier) and owns the lifecycle metadata of every tracked entity.
// Entities without an assigned identifier are tracked by object identity alone
// and are not reachable through Contains or Get.
//
// Go exposes no weak map over heterogeneous values, so slots use explicit
// release: Release drops the strong reference and marks the slot dead, Contains
// and Get prune dead slots lazily, and Cleanup sweeps them eagerly.
type IdentityMap struct {
	registry *Registry
	entries  map[string]*slot
	meta     map[any]*Meta
	keys     map[any]string
}

type slot struct {
	ref  any
	dead bool
}

// NewIdentityMap creates an identity map bound to the given schema registry
func NewIdentityMap(registry *Registry) *IdentityMap {
	return &IdentityMap{
		registry: registry,
		entries:  map[string]*slot{},
		meta:     map[any]*Meta{},
		keys:     map[any]string{},
	}
}

// Add registers the entity in the given lifecycle state. The identifier is
// read through the entity's accessor table and may be nil for not yet
// persisted entities. Re-adding an existing (entity, id) key is last write
// wins; re-adding a tracked entity keeps its metadata and updates its state.
func (im *IdentityMap) Add(entity any, state State) error {
	schema := im.registry.SchemaOf(entity)
	if schema == nil {
		return errors.New(errors.Validation, "identity map: no schema registered for %T", entity)
	}
	meta, ok := im.meta[entity]
	if !ok {
		meta = &Meta{EntityName: schema.Name(), State: state}
		im.meta[entity] = meta
	} else {
		meta.State = state
	}
	meta.touch()
	if id := schema.ID(entity); id != nil {
		key := entityKey(schema.Name(), id)
		if prev, ok := im.keys[entity]; ok && prev != key {
			delete(im.entries, prev)
		}
		im.entries[key] = &slot{ref: entity}
		im.keys[entity] = key
	}
	return nil
}

// Contains returns true if a live instance is registered under (name, id).
// Dead slots are pruned before answering.
func (im *IdentityMap) Contains(name string, id any) bool {
	return im.Get(name, id) != nil
}

// Get returns the live instance registered under (name, id), or nil. A
// released slot is pruned and never revived.
func (im *IdentityMap) Get(name string, id any) any {
	key := entityKey(name, id)
	s, ok := im.entries[key]
	if !ok {
		return nil
	}
	if s.dead || s.ref == nil {
		delete(im.entries, key)
		return nil
	}
	return s.ref
}

// MetaOf returns the entity's lifecycle metadata, or nil if untracked
func (im *IdentityMap) MetaOf(entity any) *Meta {
	return im.meta[entity]
}

// UpdateState transitions the entity's lifecycle state. It fails with
// InvalidOperation if the entity has no existing entry.
func (im *IdentityMap) UpdateState(entity any, state State) error {
	meta, ok := im.meta[entity]
	if !ok {
		return errors.New(errors.InvalidOperation, "identity map: cannot update state of untracked entity %T", entity)
	}
	meta.State = state
	meta.touch()
	return nil
}

// Remove unregisters the entity entirely - a no-op if absent
func (im *IdentityMap) Remove(entity any) {
	if key, ok := im.keys[entity]; ok {
		if s, found := im.entries[key]; found && s.ref == entity {
			delete(im.entries, key)
		}
		delete(im.keys, entity)
	}
	delete(im.meta, entity)
}

// Release drops the strong reference to the entity while keeping its slot
// reserved as dead, modeling the host runtime reclaiming an object that is no
// longer referenced elsewhere. Dead slots are pruned by Get and Cleanup and
// are never revived.
func (im *IdentityMap) Release(entity any) {
	if key, ok := im.keys[entity]; ok {
		if s, found := im.entries[key]; found && s.ref == entity {
			s.ref = nil
			s.dead = true
		}
		delete(im.keys, entity)
	}
	delete(im.meta, entity)
}

// Cleanup eagerly prunes every dead slot - a maintenance hook for long
// running sessions
func (im *IdentityMap) Cleanup() {
	for key, s := range im.entries {
		if s.dead || s.ref == nil {
			delete(im.entries, key)
		}
	}
}

// IsManaged returns true if the entity is tracked in the managed state
func (im *IdentityMap) IsManaged(entity any) bool {
	meta := im.MetaOf(entity)
	return meta != nil && meta.State == StateManaged
}

// EntitiesByState returns every tracked entity in the given lifecycle state
func (im *IdentityMap) EntitiesByState(state State) []any {
	var out []any
	for entity, meta := range im.meta {
		if meta.State == state {
			out = append(out, entity)
		}
	}
	return out
}

// ByEntity returns every tracked instance of the given entity name
func (im *IdentityMap) ByEntity(name string) []any {
	return lo.Filter(im.All(), func(entity any, _ int) bool {
		return im.meta[entity].EntityName == name
	})
}

// All returns every tracked entity
func (im *IdentityMap) All() []any {
	return lo.Keys(im.meta)
}

// Clear wipes every entry
func (im *IdentityMap) Clear() {
	im.entries = map[string]*slot{}
	im.meta = map[any]*Meta{}
	im.keys = map[any]string{}
}

// ClearEntity wipes every entry of the given entity name
func (im *IdentityMap) ClearEntity(name string) {
	for entity, meta := range im.meta {
		if meta.EntityName != name {
			continue
		}
		if key, ok := im.keys[entity]; ok {
			delete(im.entries, key)
			delete(im.keys, entity)
		}
		delete(im.meta, entity)
	}
}

func entityKey(name string, id any) string {
	return fmt.Sprintf("%s/%s", name, cast.ToString(id))
}
