package unitwork

import "github.com/samber/lo"

// Scheduler holds the three persistence intent queues of a unit of work.
// Queues are keyed by object identity, preserve scheduling order, and never
// hold duplicate entries.
type Scheduler struct {
	insertions *queue
	updates    *queue
	deletions  *queue
}

// NewScheduler creates an empty scheduler
func NewScheduler() *Scheduler {
	return &Scheduler{
		insertions: newQueue(),
		updates:    newQueue(),
		deletions:  newQueue(),
	}
}

// ScheduleInsertion queues the entity for insertion - idempotent
func (s *Scheduler) ScheduleInsertion(entity any) {
	s.insertions.add(entity)
}

// ScheduleUpdate queues the entity for update - idempotent
func (s *Scheduler) ScheduleUpdate(entity any) {
	s.updates.add(entity)
}

// ScheduleDeletion queues the entity for deletion - idempotent
func (s *Scheduler) ScheduleDeletion(entity any) {
	s.deletions.add(entity)
}

// IsScheduledForInsertion returns true if the entity is queued for insertion
func (s *Scheduler) IsScheduledForInsertion(entity any) bool {
	return s.insertions.has(entity)
}

// IsScheduledForUpdate returns true if the entity is queued for update
func (s *Scheduler) IsScheduledForUpdate(entity any) bool {
	return s.updates.has(entity)
}

// IsScheduledForDeletion returns true if the entity is queued for deletion
func (s *Scheduler) IsScheduledForDeletion(entity any) bool {
	return s.deletions.has(entity)
}

// ScheduledInsertions returns the queued insertions in scheduling order
func (s *Scheduler) ScheduledInsertions() []any {
	return s.insertions.list()
}

// ScheduledUpdates returns the queued updates in scheduling order
func (s *Scheduler) ScheduledUpdates() []any {
	return s.updates.list()
}

// ScheduledDeletions returns the queued deletions in scheduling order
func (s *Scheduler) ScheduledDeletions() []any {
	return s.deletions.list()
}

// Unschedule removes the entity from every queue
func (s *Scheduler) Unschedule(entity any) {
	s.insertions.remove(entity)
	s.updates.remove(entity)
	s.deletions.remove(entity)
}

// Clear drops every queued intent
func (s *Scheduler) Clear() {
	s.insertions = newQueue()
	s.updates = newQueue()
	s.deletions = newQueue()
}

type queue struct {
	members map[any]struct{}
	order   []any
}

func newQueue() *queue {
	return &queue{members: map[any]struct{}{}}
}

func (q *queue) add(entity any) {
	if _, ok := q.members[entity]; ok {
		return
	}
	q.members[entity] = struct{}{}
	q.order = append(q.order, entity)
}

func (q *queue) remove(entity any) {
	if _, ok := q.members[entity]; !ok {
		return
	}
	delete(q.members, entity)
	q.order = lo.Filter(q.order, func(item any, _ int) bool {
		return item != entity
	})
}

func (q *queue) has(entity any) bool {
	_, ok := q.members[entity]
	return ok
}

func (q *queue) list() []any {
	out := make([]any, len(q.order))
	copy(out, q.order)
	return out
}
