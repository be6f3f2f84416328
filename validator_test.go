package unitwork_test

import (
	"testing"
	"time"

	"github.com/autom8ter/unitwork"
	"github.com/autom8ter/unitwork/testutil"
	"github.com/stretchr/testify/assert"
)

func TestShouldSkipInsertion(t *testing.T) {
	v := unitwork.NewValidator()
	t.Run("identifier skips", func(t *testing.T) {
		assert.True(t, v.ShouldSkipInsertion(5, nil))
	})
	t.Run("untracked without identifier does not skip", func(t *testing.T) {
		assert.False(t, v.ShouldSkipInsertion(nil, nil))
	})
	t.Run("managed metadata skips", func(t *testing.T) {
		assert.True(t, v.ShouldSkipInsertion(nil, &unitwork.Meta{State: unitwork.StateManaged}))
	})
	t.Run("removed entity stays skipped", func(t *testing.T) {
		assert.True(t, v.ShouldSkipInsertion(nil, &unitwork.Meta{State: unitwork.StateRemoved}))
	})
	t.Run("detached entity stays skipped", func(t *testing.T) {
		assert.True(t, v.ShouldSkipInsertion(nil, &unitwork.Meta{State: unitwork.StateDetached}))
	})
}

func TestCanScheduleUpdate(t *testing.T) {
	v := unitwork.NewValidator()
	managed := &unitwork.Meta{State: unitwork.StateManaged, LastModified: time.Now()}
	t.Run("managed and unqueued", func(t *testing.T) {
		s := unitwork.NewScheduler()
		assert.True(t, v.CanScheduleUpdate(testutil.NewUser(), managed, s))
	})
	t.Run("no metadata", func(t *testing.T) {
		s := unitwork.NewScheduler()
		assert.False(t, v.CanScheduleUpdate(testutil.NewUser(), nil, s))
	})
	t.Run("not managed", func(t *testing.T) {
		s := unitwork.NewScheduler()
		meta := &unitwork.Meta{State: unitwork.StateRemoved}
		assert.False(t, v.CanScheduleUpdate(testutil.NewUser(), meta, s))
	})
	t.Run("already queued", func(t *testing.T) {
		for _, queue := range []func(s *unitwork.Scheduler, e any){
			func(s *unitwork.Scheduler, e any) { s.ScheduleInsertion(e) },
			func(s *unitwork.Scheduler, e any) { s.ScheduleUpdate(e) },
			func(s *unitwork.Scheduler, e any) { s.ScheduleDeletion(e) },
		} {
			s := unitwork.NewScheduler()
			user := testutil.NewUser()
			queue(s, user)
			assert.False(t, v.CanScheduleUpdate(user, managed, s))
		}
	})
}

func TestCanScheduleDeletion(t *testing.T) {
	v := unitwork.NewValidator()
	managed := &unitwork.Meta{State: unitwork.StateManaged}
	t.Run("managed", func(t *testing.T) {
		s := unitwork.NewScheduler()
		assert.True(t, v.CanScheduleDeletion(testutil.NewUser(), managed, s))
	})
	t.Run("update queued is still deletable", func(t *testing.T) {
		s := unitwork.NewScheduler()
		user := testutil.NewUser()
		s.ScheduleUpdate(user)
		assert.True(t, v.CanScheduleDeletion(user, managed, s))
	})
	t.Run("already queued for deletion", func(t *testing.T) {
		s := unitwork.NewScheduler()
		user := testutil.NewUser()
		s.ScheduleDeletion(user)
		assert.False(t, v.CanScheduleDeletion(user, managed, s))
	})
	t.Run("not managed", func(t *testing.T) {
		s := unitwork.NewScheduler()
		assert.False(t, v.CanScheduleDeletion(testutil.NewUser(), nil, s))
		assert.False(t, v.CanScheduleDeletion(testutil.NewUser(), &unitwork.Meta{State: unitwork.StateDetached}, s))
	})
}

func TestValidateChangeSet(t *testing.T) {
	v := unitwork.NewValidator()
	assert.False(t, v.ValidateChangeSet(nil))
	assert.False(t, v.ValidateChangeSet(&unitwork.ChangeSet{Entity: "user"}))
	assert.True(t, v.ValidateChangeSet(&unitwork.ChangeSet{
		Entity: "user",
		Changes: map[string]unitwork.PropertyChange{
			"name": {Property: "name", OldValue: "John", NewValue: "Jane"},
		},
	}))
}
