package unitwork

import (
	"context"

	"github.com/autom8ter/unitwork/errors"
	"github.com/autom8ter/unitwork/util"
)

// Manager is the unit of work façade: it tracks entities, applies scheduling
// requests and computes change sets for the persistence executor. One Manager
// serves one logical transaction on a single thread of control - it performs
// no I/O and holds no locks.
type Manager struct {
	registry   *Registry
	identity   *IdentityMap
	scheduler  *Scheduler
	detector   *Detector
	validator  *Validator
	handler    *operationHandler
	changeSets map[any]*ChangeSet
	logger     Logger
}

// ManagerOpt is an option for configuring a manager
type ManagerOpt func(m *Manager)

// WithLogger sets the manager's logger
func WithLogger(logger Logger) ManagerOpt {
	return func(m *Manager) {
		m.logger = logger
	}
}

// New creates a unit of work manager bound to the given schema registry
func New(registry *Registry, opts ...ManagerOpt) *Manager {
	m := &Manager{
		registry:   registry,
		identity:   NewIdentityMap(registry),
		scheduler:  NewScheduler(),
		detector:   NewDetector(registry),
		validator:  NewValidator(),
		changeSets: map[any]*ChangeSet{},
		logger:     noOpLogger{},
	}
	for _, o := range opts {
		o(m)
	}
	m.handler = &operationHandler{
		registry:  registry,
		identity:  m.identity,
		scheduler: m.scheduler,
		validator: m.validator,
		logger:    m.logger,
	}
	return m
}

// Registry returns the schema registry the manager consumes
func (m *Manager) Registry() *Registry {
	return m.registry
}

// IdentityMap returns the manager's identity map
func (m *Manager) IdentityMap() *IdentityMap {
	return m.identity
}

// ScheduleInsert records an insertion intent for the entity. Entities that
// already carry an identifier or are already tracked are silently skipped.
func (m *Manager) ScheduleInsert(ctx context.Context, entity any) error {
	return m.handler.handleInsertion(ctx, entity)
}

// ScheduleUpdate records an update intent for a managed entity. Requests on
// non-managed or already queued entities are silently skipped.
func (m *Manager) ScheduleUpdate(ctx context.Context, entity any) error {
	return m.handler.handleUpdate(ctx, entity)
}

// ScheduleDelete records a deletion intent and immediately marks the entity
// removed. Requests on non-managed entities are silently skipped.
func (m *Manager) ScheduleDelete(ctx context.Context, entity any) error {
	return m.handler.handleDeletion(ctx, entity)
}

// Detach clears all bookkeeping for the entity and marks it detached
func (m *Manager) Detach(ctx context.Context, entity any) error {
	delete(m.changeSets, entity)
	return m.handler.handleDetachment(ctx, entity)
}

// RegisterManaged registers a freshly loaded entity as managed: the external
// executor materializes a stored record, assigns its identifier and hands it
// over with a clean snapshot to diff against at flush time. A nil id keeps the
// identifier already present on the entity.
func (m *Manager) RegisterManaged(ctx context.Context, entity any, id any) error {
	schema := m.registry.SchemaOf(entity)
	if schema == nil {
		return errNoSchema(entity)
	}
	if id != nil {
		schema.SetID(entity, id)
	}
	if err := m.identity.Add(entity, StateManaged); err != nil {
		return err
	}
	return m.snapshot(entity)
}

// RefreshSnapshot re-baselines the entity's original data from its current
// values. The executor calls this after physical insertion, once the generated
// identifier has been assigned, so the next flush starts from the persisted
// image.
func (m *Manager) RefreshSnapshot(ctx context.Context, entity any) error {
	meta := m.identity.MetaOf(entity)
	if meta == nil {
		return errors.New(errors.InvalidOperation, "cannot refresh snapshot of untracked entity %T", entity)
	}
	// re-adding registers the entity under its newly assigned identifier
	if err := m.identity.Add(entity, meta.State); err != nil {
		return err
	}
	return m.snapshot(entity)
}

func (m *Manager) snapshot(entity any) error {
	data, err := m.detector.CurrentData(entity)
	if err != nil {
		return err
	}
	m.identity.MetaOf(entity).OriginalData = data
	return nil
}

// Merge folds the given entity into the unit of work. If a managed instance
// with the same identity exists, the incoming values are copied onto it and an
// update is scheduled - identity is preserved and the managed instance is
// returned. Otherwise the incoming instance itself is registered as freshly
// managed. Merging without an identifier fails with InvalidOperation.
func (m *Manager) Merge(ctx context.Context, entity any) (any, error) {
	schema := m.registry.SchemaOf(entity)
	if schema == nil {
		return nil, errNoSchema(entity)
	}
	id := schema.ID(entity)
	if id == nil {
		return nil, errors.New(errors.InvalidOperation, "cannot merge %s without identifier", schema.Name())
	}
	managed := m.identity.Get(schema.Name(), id)
	if managed != nil && managed != entity {
		for _, prop := range schema.Properties() {
			schema.Set(managed, prop, schema.Get(entity, prop))
		}
		if err := m.handler.handleUpdate(ctx, managed); err != nil {
			return nil, err
		}
		return managed, nil
	}
	if managed == entity {
		return managed, nil
	}
	if err := m.identity.Add(entity, StateManaged); err != nil {
		return nil, err
	}
	if err := m.snapshot(entity); err != nil {
		return nil, err
	}
	return entity, nil
}

// MergeMap folds a weakly typed field map into the managed instance registered
// under (name, id) and schedules an update. It fails with NotFound if no such
// instance is tracked.
func (m *Manager) MergeMap(ctx context.Context, name string, id any, fields map[string]any) (any, error) {
	managed := m.identity.Get(name, id)
	if managed == nil {
		return nil, errors.New(errors.NotFound, "no managed %s with id %v", name, id)
	}
	if err := util.Decode(fields, managed); err != nil {
		return nil, errors.Wrap(err, errors.Validation, "failed to merge fields into %s", name)
	}
	if err := m.handler.handleUpdate(ctx, managed); err != nil {
		return nil, err
	}
	return managed, nil
}

// ComputeChangeSets diffs every managed entity against its original snapshot
// and stores the resulting change sets. Removed and detached entities are
// skipped and never acquire a change set.
func (m *Manager) ComputeChangeSets(ctx context.Context) error {
	for _, entity := range m.identity.EntitiesByState(StateManaged) {
		meta := m.identity.MetaOf(entity)
		changeSet, err := m.detector.ComputeChangeSet(entity, meta.OriginalData)
		if err != nil {
			return err
		}
		if !m.validator.ValidateChangeSet(changeSet) {
			delete(m.changeSets, entity)
			continue
		}
		m.changeSets[entity] = changeSet
		m.logger.Debug(ctx, "change set computed", map[string]any{
			"entity":  changeSet.Entity,
			"changes": len(changeSet.Changes),
		})
	}
	return nil
}

// ChangeSet returns the stored change set for the entity, or nil
func (m *Manager) ChangeSet(entity any) *ChangeSet {
	return m.changeSets[entity]
}

// HasChanges returns true if a non-empty change set is stored for the entity
func (m *Manager) HasChanges(entity any) bool {
	return !m.changeSets[entity].IsEmpty()
}

// ScheduledInsertions returns the entities queued for insertion
func (m *Manager) ScheduledInsertions() []any {
	return m.scheduler.ScheduledInsertions()
}

// ScheduledUpdates returns the entities queued for update
func (m *Manager) ScheduledUpdates() []any {
	return m.scheduler.ScheduledUpdates()
}

// ScheduledDeletions returns the entities queued for deletion
func (m *Manager) ScheduledDeletions() []any {
	return m.scheduler.ScheduledDeletions()
}

// Contains returns true if a live instance is tracked under (name, id)
func (m *Manager) Contains(name string, id any) bool {
	return m.identity.Contains(name, id)
}

// Get returns the live instance tracked under (name, id), or nil
func (m *Manager) Get(name string, id any) any {
	return m.identity.Get(name, id)
}

// Managed returns every entity currently in the managed state
func (m *Manager) Managed() []any {
	return m.identity.EntitiesByState(StateManaged)
}

// EntitiesByState returns every tracked entity in the given lifecycle state
func (m *Manager) EntitiesByState(state State) []any {
	return m.identity.EntitiesByState(state)
}

// ClearProcessedChanges drops the computed change sets and every scheduler
// queue while keeping the identity map intact. The executor calls this after a
// successful flush commit.
func (m *Manager) ClearProcessedChanges() {
	m.changeSets = map[any]*ChangeSet{}
	m.scheduler.Clear()
}

// Clear fully resets the unit of work: scheduler queues, change sets and the
// identity map. Used on rollback or session teardown.
func (m *Manager) Clear() {
	m.changeSets = map[any]*ChangeSet{}
	m.scheduler.Clear()
	m.identity.Clear()
}
