package unitwork_test

import (
	"testing"

	"github.com/autom8ter/unitwork"
	"github.com/autom8ter/unitwork/errors"
	"github.com/autom8ter/unitwork/testutil"
	"github.com/stretchr/testify/assert"
)

func userTasksRelation() unitwork.Relation {
	return unitwork.Relation{
		Kind:       unitwork.OneToMany,
		Owner:      "user",
		Target:     "task",
		ForeignKey: "user",
	}
}

func TestCollection(t *testing.T) {
	t.Run("descriptor without owner is rejected", func(t *testing.T) {
		_, err := unitwork.NewCollection(nil, unitwork.Relation{
			Kind:   unitwork.OneToMany,
			Target: "task",
		})
		assert.True(t, errors.HasCode(err, errors.Validation))
	})
	t.Run("one to many requires a foreign key", func(t *testing.T) {
		_, err := unitwork.NewCollection(nil, unitwork.Relation{
			Kind:   unitwork.OneToMany,
			Owner:  "user",
			Target: "task",
		})
		assert.Error(t, err)
	})
	t.Run("many to many requires a join table", func(t *testing.T) {
		_, err := unitwork.NewCollection(nil, unitwork.Relation{
			Kind:   unitwork.ManyToMany,
			Owner:  "user",
			Target: "group",
		})
		assert.Error(t, err)
		c, err := unitwork.NewCollection(nil, unitwork.Relation{
			Kind:      unitwork.ManyToMany,
			Owner:     "user",
			Target:    "group",
			JoinTable: "user_groups",
		})
		assert.NoError(t, err)
		assert.NotNil(t, c)
	})
	t.Run("push marks added only when not in the initial snapshot", func(t *testing.T) {
		user := testutil.NewSavedUser()
		initial := testutil.NewSavedTask(user)
		c, err := unitwork.NewCollection([]any{initial}, userTasksRelation())
		assert.NoError(t, err)
		assert.False(t, c.HasChanges())
		c.Push(initial)
		assert.False(t, c.HasChanges())
		added := testutil.NewSavedTask(user)
		c.Push(added)
		assert.Equal(t, []any{added}, c.AddedEntities())
		assert.Empty(t, c.RemovedEntities())
		assert.True(t, c.HasChanges())
		assert.Equal(t, 2, c.Len())
	})
	t.Run("remove marks removed only when in the initial snapshot", func(t *testing.T) {
		user := testutil.NewSavedUser()
		initial := testutil.NewSavedTask(user)
		c, err := unitwork.NewCollection([]any{initial}, userTasksRelation())
		assert.NoError(t, err)
		c.RemoveItem(initial)
		assert.Equal(t, []any{initial}, c.RemovedEntities())
		assert.Empty(t, c.AddedEntities())
		assert.False(t, c.Contains(initial))
	})
	t.Run("push then remove cancels", func(t *testing.T) {
		user := testutil.NewSavedUser()
		c, err := unitwork.NewCollection(nil, userTasksRelation())
		assert.NoError(t, err)
		task := testutil.NewSavedTask(user)
		c.Push(task)
		c.RemoveItem(task)
		assert.Empty(t, c.AddedEntities())
		assert.Empty(t, c.RemovedEntities())
		assert.False(t, c.HasChanges())
	})
	t.Run("diff is independent of initial order", func(t *testing.T) {
		user := testutil.NewSavedUser()
		a := testutil.NewSavedTask(user)
		b := testutil.NewSavedTask(user)
		added := testutil.NewSavedTask(user)
		for _, initial := range [][]any{{a, b}, {b, a}} {
			c, err := unitwork.NewCollection(initial, userTasksRelation())
			assert.NoError(t, err)
			c.Push(added)
			c.RemoveItem(a)
			assert.Equal(t, []any{added}, c.AddedEntities())
			assert.Equal(t, []any{a}, c.RemovedEntities())
		}
	})
	t.Run("snapshot re-baselines", func(t *testing.T) {
		user := testutil.NewSavedUser()
		initial := testutil.NewSavedTask(user)
		c, err := unitwork.NewCollection([]any{initial}, userTasksRelation())
		assert.NoError(t, err)
		added := testutil.NewSavedTask(user)
		c.Push(added)
		c.RemoveItem(initial)
		assert.True(t, c.HasChanges())
		c.Snapshot()
		assert.False(t, c.HasChanges())
		assert.Empty(t, c.AddedEntities())
		assert.Empty(t, c.RemovedEntities())
		assert.Equal(t, []any{added}, c.Items())
	})
	t.Run("initial snapshot dedupes by identity", func(t *testing.T) {
		user := testutil.NewSavedUser()
		task := testutil.NewSavedTask(user)
		c, err := unitwork.NewCollection([]any{task, task}, userTasksRelation())
		assert.NoError(t, err)
		assert.Equal(t, 1, c.Len())
	})
}
