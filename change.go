package unitwork

// EntityRef is a comparable stand-in for an entity-valued property. Once an
// entity is persisted its identifier takes precedence over the identity hash.
type EntityRef struct {
	Entity string `json:"entity"`
	ID     any    `json:"id,omitempty"`
	Hash   string `json:"hash,omitempty"`
}

// ObjectRef is a comparable stand-in for an opaque (non-entity) object value.
// Equality is substitution based - same class and hash, no field level comparison.
type ObjectRef struct {
	Class string `json:"class"`
	Hash  string `json:"hash"`
}

// RefSet is an unordered multiset of entity references standing in for a
// to-many relation value. Relation collections carry no storage order
// guarantee, so two sets with the same members are equal regardless of order.
type RefSet []EntityRef

// PropertyChange is a single observed property mutation. Values are snapshot
// tokens, never live references.
type PropertyChange struct {
	Property string `json:"property"`
	OldValue any    `json:"oldValue,omitempty"`
	NewValue any    `json:"newValue,omitempty"`
}

// ChangeSet is the minimal diff between an entity's current values and its
// last known persisted snapshot
type ChangeSet struct {
	Entity  string                    `json:"entity"`
	Changes map[string]PropertyChange `json:"changes"`
}

// IsEmpty returns true if the change set records no property changes
func (c *ChangeSet) IsEmpty() bool {
	return c == nil || len(c.Changes) == 0
}

// FieldOp is the type of change made to a field
type FieldOp string

const (
	// Replace indicates that a field value was replaced
	Replace FieldOp = "replace"
	// Add indicates that a field value was added
	Add FieldOp = "add"
	// Remove indicates that a field value was removed
	Remove FieldOp = "remove"
)

// FieldChange is a change to a single field, suitable for audit logs and
// change data capture streams
type FieldChange struct {
	Op          FieldOp `json:"op"`
	Property    string  `json:"property"`
	Value       any     `json:"value,omitempty"`
	ValueBefore any     `json:"valueBefore,omitempty"`
}

// FieldChanges returns the change set as a list of field operations
func (c *ChangeSet) FieldChanges() []FieldChange {
	if c.IsEmpty() {
		return nil
	}
	changes := make([]FieldChange, 0, len(c.Changes))
	for _, change := range c.Changes {
		fc := FieldChange{
			Property:    change.Property,
			Value:       change.NewValue,
			ValueBefore: change.OldValue,
		}
		switch {
		case change.OldValue == nil:
			fc.Op = Add
		case change.NewValue == nil:
			fc.Op = Remove
		default:
			fc.Op = Replace
		}
		changes = append(changes, fc)
	}
	return changes
}
