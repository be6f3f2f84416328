package unitwork

import (
	"context"

	"github.com/autom8ter/unitwork/errors"
)

func errNoSchema(entity any) error {
	return errors.New(errors.Validation, "no schema registered for %T", entity)
}

// operationHandler applies a single scheduling request by running it through
// the validator, the scheduler and the identity map. Illegal requests that the
// error taxonomy classifies as silent skips are absorbed here and logged at
// debug level so speculative scheduling stays observable.
type operationHandler struct {
	registry  *Registry
	identity  *IdentityMap
	scheduler *Scheduler
	validator *Validator
	logger    Logger
}

// handleInsertion schedules the entity for insertion and registers managed
// pending-insert metadata, even without a storage identifier, so relation
// cascades can see the entity before physical insertion. Entities with an
// identifier or existing metadata are skipped.
func (h *operationHandler) handleInsertion(ctx context.Context, entity any) error {
	schema := h.registry.SchemaOf(entity)
	if schema == nil {
		return errNoSchema(entity)
	}
	id := schema.ID(entity)
	meta := h.identity.MetaOf(entity)
	if h.validator.ShouldSkipInsertion(id, meta) {
		h.logger.Debug(ctx, "insertion scheduling skipped", map[string]any{
			"entity":  schema.Name(),
			"id":      id,
			"tracked": meta != nil,
		})
		return nil
	}
	h.scheduler.ScheduleInsertion(entity)
	return h.identity.Add(entity, StateManaged)
}

// handleUpdate schedules the entity for update if it is managed and not
// already queued anywhere; otherwise the request is silently ignored
func (h *operationHandler) handleUpdate(ctx context.Context, entity any) error {
	schema := h.registry.SchemaOf(entity)
	if schema == nil {
		return errNoSchema(entity)
	}
	meta := h.identity.MetaOf(entity)
	if !h.validator.CanScheduleUpdate(entity, meta, h.scheduler) {
		h.logger.Debug(ctx, "update scheduling skipped", map[string]any{
			"entity": schema.Name(),
			"id":     schema.ID(entity),
		})
		return nil
	}
	h.scheduler.ScheduleUpdate(entity)
	meta.touch()
	return nil
}

// handleDeletion records the deletion intent and immediately marks the entity
// removed - before physical execution, not after. Deleting an entity still
// pending insertion cancels the insertion instead of queueing a delete for a
// row that never existed.
func (h *operationHandler) handleDeletion(ctx context.Context, entity any) error {
	schema := h.registry.SchemaOf(entity)
	if schema == nil {
		return errNoSchema(entity)
	}
	meta := h.identity.MetaOf(entity)
	if !h.validator.CanScheduleDeletion(entity, meta, h.scheduler) {
		h.logger.Debug(ctx, "deletion scheduling skipped", map[string]any{
			"entity": schema.Name(),
			"id":     schema.ID(entity),
		})
		return nil
	}
	if h.scheduler.IsScheduledForInsertion(entity) {
		h.scheduler.Unschedule(entity)
		if err := h.identity.UpdateState(entity, StateRemoved); err != nil {
			return err
		}
		h.identity.Remove(entity)
		return nil
	}
	h.scheduler.Unschedule(entity)
	h.scheduler.ScheduleDeletion(entity)
	return h.identity.UpdateState(entity, StateRemoved)
}

// handleDetachment removes the entity from every queue, unregisters it and
// marks it detached
func (h *operationHandler) handleDetachment(ctx context.Context, entity any) error {
	schema := h.registry.SchemaOf(entity)
	if schema == nil {
		return errNoSchema(entity)
	}
	h.scheduler.Unschedule(entity)
	if meta := h.identity.MetaOf(entity); meta != nil {
		meta.State = StateDetached
		meta.OriginalData = nil
		meta.touch()
	}
	h.identity.Remove(entity)
	return nil
}
