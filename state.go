package unitwork

import "time"

// State is the lifecycle state of a tracked entity
type State string

const (
	// StateNew is an entity that has been created but never registered
	StateNew State = "new"
	// StateManaged is an entity tracked by the identity map - only managed
	// entities may be scheduled for update or deletion
	StateManaged State = "managed"
	// StateRemoved is an entity whose deletion intent has been recorded
	StateRemoved State = "removed"
	// StateDetached is an entity whose bookkeeping has been cleared
	StateDetached State = "detached"
)

// Meta is the lifecycle bookkeeping attached to a tracked entity
type Meta struct {
	// EntityName is the registered schema name of the entity
	EntityName string `json:"entityName"`
	// State is the entity's current lifecycle state
	State State `json:"state"`
	// OriginalData is the token snapshot the entity is diffed against at flush time
	OriginalData map[string]any `json:"originalData,omitempty"`
	// LastModified is when the bookkeeping last changed
	LastModified time.Time `json:"lastModified"`
}

func (m *Meta) touch() {
	m.LastModified = time.Now()
}
