package unitwork

// Validator encodes the lifecycle legality of scheduling requests as pure
// predicates. Callers decide what an illegal request means - predicates never
// mutate state or raise.
type Validator struct{}

// NewValidator creates a new validator
func NewValidator() *Validator {
	return &Validator{}
}

// ShouldSkipInsertion reports whether an insertion request must be absorbed.
// Insertion is only legal for a brand new, untracked, identifier-less entity:
// a non-nil identifier or existing metadata in any lifecycle state skips it.
// Metadata in the removed or detached state also skips - a removed entity
// cannot be resurrected through insert.
func (v *Validator) ShouldSkipInsertion(id any, meta *Meta) bool {
	return id != nil || meta != nil
}

// CanScheduleUpdate reports whether the entity may be queued for update: it
// must be managed and not already queued for insertion, update or deletion
func (v *Validator) CanScheduleUpdate(entity any, meta *Meta, scheduler *Scheduler) bool {
	if meta == nil || meta.State != StateManaged {
		return false
	}
	if scheduler.IsScheduledForInsertion(entity) {
		return false
	}
	if scheduler.IsScheduledForUpdate(entity) {
		return false
	}
	return !scheduler.IsScheduledForDeletion(entity)
}

// CanScheduleDeletion reports whether the entity may be queued for deletion:
// it must be managed and not already queued for deletion
func (v *Validator) CanScheduleDeletion(entity any, meta *Meta, scheduler *Scheduler) bool {
	if meta == nil || meta.State != StateManaged {
		return false
	}
	return !scheduler.IsScheduledForDeletion(entity)
}

// ValidateChangeSet reports whether a change set records anything worth
// persisting
func (v *Validator) ValidateChangeSet(changeSet *ChangeSet) bool {
	return !changeSet.IsEmpty()
}
