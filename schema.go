package unitwork

import (
	"reflect"
	"strconv"
	"strings"

	"github.com/autom8ter/unitwork/errors"
)

// Getter reads a property value from an entity instance
type Getter func(entity any) any

// Setter writes a property value on an entity instance
type Setter func(entity any, value any)

// Schema is a per-entity accessor table: the metadata surface the tracker
// consumes. Accessors are resolved once at registration time - property access
// never re-derives them.
type Schema struct {
	name       string
	idProperty string
	entityType reflect.Type
	props      []string
	getters    map[string]Getter
	setters    map[string]Setter
}

// SchemaOpt is an option for configuring a schema
type SchemaOpt func(s *Schema)

// WithProperty adds a persistable property with explicit accessors
func WithProperty(name string, get Getter, set Setter) SchemaOpt {
	return func(s *Schema) {
		if _, ok := s.getters[name]; !ok {
			s.props = append(s.props, name)
		}
		s.getters[name] = get
		s.setters[name] = set
	}
}

// WithPrototype binds the schema to the concrete entity type of the given
// instance so the registry can resolve entities to their schema
func WithPrototype(entity any) SchemaOpt {
	return func(s *Schema) {
		s.entityType = baseType(entity)
	}
}

// NewSchema creates a new schema from the given options. The identifier
// property must be one of the registered properties.
func NewSchema(name string, idProperty string, opts ...SchemaOpt) *Schema {
	s := &Schema{
		name:       name,
		idProperty: idProperty,
		getters:    map[string]Getter{},
		setters:    map[string]Setter{},
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Name returns the schema's entity name
func (s *Schema) Name() string {
	return s.name
}

// IDProperty returns the name of the identifier property
func (s *Schema) IDProperty() string {
	return s.idProperty
}

// Properties returns the ordered persistable property names
func (s *Schema) Properties() []string {
	return s.props
}

// Get reads the given property from the entity. Unknown properties yield nil,
// not an error.
func (s *Schema) Get(entity any, property string) any {
	get, ok := s.getters[property]
	if !ok {
		return nil
	}
	return get(entity)
}

// Set writes the given property on the entity. Unknown properties are ignored.
func (s *Schema) Set(entity any, property string, value any) {
	set, ok := s.setters[property]
	if !ok {
		return
	}
	set(entity, value)
}

// ID returns the entity's identifier value, or nil if it has not been assigned
func (s *Schema) ID(entity any) any {
	return s.Get(entity, s.idProperty)
}

// SetID assigns the entity's identifier value
func (s *Schema) SetID(entity any, id any) {
	s.Set(entity, s.idProperty, id)
}

// InferSchema builds a schema for T by walking its exported struct fields once.
// Property names come from json tags when present, field names otherwise;
// fields tagged `json:"-"` are skipped. The identifier property reads as nil
// while the underlying field holds its zero value.
func InferSchema[T any](name string, idProperty string) (*Schema, error) {
	rt := reflect.TypeOf((*T)(nil)).Elem()
	if rt.Kind() != reflect.Struct {
		return nil, errors.New(errors.Validation, "schema %s: %s is not a struct type", name, rt.String())
	}
	s := NewSchema(name, idProperty)
	s.entityType = rt
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}
		prop := propertyName(field)
		if prop == "" {
			continue
		}
		isID := prop == idProperty
		index := field.Index
		WithProperty(prop, func(entity any) any {
			fv := fieldValue(entity, index)
			if !fv.IsValid() {
				return nil
			}
			if isID && fv.IsZero() {
				return nil
			}
			return fv.Interface()
		}, func(entity any, value any) {
			fv := fieldValue(entity, index)
			if !fv.IsValid() || !fv.CanSet() {
				return
			}
			if value == nil {
				fv.Set(reflect.Zero(fv.Type()))
				return
			}
			rv := reflect.ValueOf(value)
			if rv.Type() != fv.Type() {
				if !rv.CanConvert(fv.Type()) {
					return
				}
				rv = rv.Convert(fv.Type())
			}
			fv.Set(rv)
		})(s)
	}
	if _, ok := s.getters[idProperty]; !ok {
		return nil, errors.New(errors.Validation, "schema %s: identifier property %s not found", name, idProperty)
	}
	return s, nil
}

func propertyName(field reflect.StructField) string {
	tag, ok := field.Tag.Lookup("json")
	if !ok {
		return strings.ToLower(field.Name[:1]) + field.Name[1:]
	}
	name := strings.Split(tag, ",")[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return strings.ToLower(field.Name[:1]) + field.Name[1:]
	}
	return name
}

func fieldValue(entity any, index []int) reflect.Value {
	rv := reflect.ValueOf(entity)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return reflect.Value{}
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return reflect.Value{}
	}
	return rv.FieldByIndex(index)
}

// Registry resolves entities and entity names to their schemas
type Registry struct {
	byName map[string]*Schema
	byType map[reflect.Type]*Schema
}

// NewRegistry creates an empty schema registry
func NewRegistry() *Registry {
	return &Registry{
		byName: map[string]*Schema{},
		byType: map[reflect.Type]*Schema{},
	}
}

// Register adds the given schemas to the registry. Re-registering a name or
// type overwrites the previous schema.
func (r *Registry) Register(schemas ...*Schema) {
	for _, s := range schemas {
		r.byName[s.name] = s
		if s.entityType != nil {
			r.byType[s.entityType] = s
		}
	}
}

// Schema returns the schema registered under the given entity name, or nil
func (r *Registry) Schema(name string) *Schema {
	return r.byName[name]
}

// SchemaOf returns the schema for the entity's concrete type, or nil if the
// type is not registered
func (r *Registry) SchemaOf(entity any) *Schema {
	if entity == nil {
		return nil
	}
	return r.byType[baseType(entity)]
}

// ID returns the entity's identifier value, or nil if the entity has no schema
// or no assigned identifier
func (r *Registry) ID(entity any) any {
	s := r.SchemaOf(entity)
	if s == nil {
		return nil
	}
	return s.ID(entity)
}

func baseType(entity any) reflect.Type {
	t := reflect.TypeOf(entity)
	if t == nil {
		return nil
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

// identityHash renders a stable per-object identity for references that have
// no persisted identifier yet. Entities are pointers, so the pointer value is
// stable for the life of the object.
func identityHash(entity any) string {
	rv := reflect.ValueOf(entity)
	if rv.Kind() == reflect.Pointer {
		return strconv.FormatUint(uint64(rv.Pointer()), 16)
	}
	return ""
}
