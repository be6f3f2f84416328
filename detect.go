package unitwork

import (
	"reflect"
	"time"

	"github.com/autom8ter/unitwork/errors"
	"github.com/autom8ter/unitwork/util"
)

// Detector extracts comparable snapshots from entities and diffs them against
// stored snapshots
type Detector struct {
	registry   *Registry
	comparator *Comparator
}

// NewDetector creates a change detector bound to the given schema registry
func NewDetector(registry *Registry) *Detector {
	return &Detector{
		registry:   registry,
		comparator: NewComparator(),
	}
}

// CurrentData extracts the entity's current token snapshot, one token per
// persistable property. An uninitialized property yields nil, not an error.
func (d *Detector) CurrentData(entity any) (map[string]any, error) {
	schema := d.registry.SchemaOf(entity)
	if schema == nil {
		return nil, errors.New(errors.Validation, "change detector: no schema registered for %T", entity)
	}
	data := make(map[string]any, len(schema.Properties()))
	for _, prop := range schema.Properties() {
		data[prop] = d.normalize(schema.Get(entity, prop))
	}
	return data, nil
}

// ComputeChangeSet diffs the entity's current snapshot against the given
// original snapshot. A property missing from the original defaults to nil; a
// property present in the original but gone from the current extraction
// produces an explicit old -> nil change.
func (d *Detector) ComputeChangeSet(entity any, original map[string]any) (*ChangeSet, error) {
	schema := d.registry.SchemaOf(entity)
	if schema == nil {
		return nil, errors.New(errors.Validation, "change detector: no schema registered for %T", entity)
	}
	current, err := d.CurrentData(entity)
	if err != nil {
		return nil, err
	}
	changeSet := &ChangeSet{
		Entity:  schema.Name(),
		Changes: map[string]PropertyChange{},
	}
	for _, prop := range schema.Properties() {
		oldValue := original[prop]
		newValue := current[prop]
		if d.comparator.Equal(oldValue, newValue) {
			continue
		}
		changeSet.Changes[prop] = PropertyChange{
			Property: prop,
			OldValue: oldValue,
			NewValue: newValue,
		}
	}
	for prop, oldValue := range original {
		if _, ok := current[prop]; ok {
			continue
		}
		if oldValue == nil {
			continue
		}
		changeSet.Changes[prop] = PropertyChange{
			Property: prop,
			OldValue: oldValue,
			NewValue: nil,
		}
	}
	return changeSet, nil
}

// normalize converts a live property value into a comparable snapshot token
func (d *Detector) normalize(value any) any {
	if value == nil {
		return nil
	}
	switch v := value.(type) {
	case time.Time:
		return v
	case *time.Time:
		if v == nil {
			return nil
		}
		return *v
	case *Collection:
		if v == nil {
			return nil
		}
		return d.refSet(v.Items())
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Pointer:
		if rv.IsNil() {
			return nil
		}
		if schema := d.registry.SchemaOf(value); schema != nil {
			return d.entityRef(schema, value)
		}
		if rv.Elem().Kind() == reflect.Struct {
			return ObjectRef{
				Class: rv.Elem().Type().String(),
				Hash:  identityHash(value),
			}
		}
		return d.normalize(rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		elem := rv.Type().Elem()
		if elem.Kind() == reflect.Pointer {
			elem = elem.Elem()
		}
		entityElems := d.registry.byType[elem] != nil
		if !entityElems && rv.Len() > 0 {
			entityElems = d.registry.SchemaOf(rv.Index(0).Interface()) != nil
		}
		if entityElems {
			items := make([]any, 0, rv.Len())
			for i := 0; i < rv.Len(); i++ {
				items = append(items, rv.Index(i).Interface())
			}
			return d.refSet(items)
		}
		return ObjectRef{
			Class: rv.Type().String(),
			Hash:  util.JSONString(value),
		}
	case reflect.Struct:
		return ObjectRef{
			Class: rv.Type().String(),
			Hash:  util.JSONString(value),
		}
	case reflect.Map:
		return ObjectRef{
			Class: rv.Type().String(),
			Hash:  util.JSONString(value),
		}
	}
	return value
}

// refSet normalizes a to-many relation value into an unordered reference set.
// Items without a registered schema are skipped.
func (d *Detector) refSet(items []any) RefSet {
	set := make(RefSet, 0, len(items))
	for _, item := range items {
		schema := d.registry.SchemaOf(item)
		if schema == nil {
			continue
		}
		set = append(set, d.entityRef(schema, item))
	}
	return set
}

func (d *Detector) entityRef(schema *Schema, entity any) EntityRef {
	ref := EntityRef{
		Entity: schema.Name(),
		Hash:   identityHash(entity),
	}
	if id := schema.ID(entity); id != nil {
		ref.ID = id
	}
	return ref
}
