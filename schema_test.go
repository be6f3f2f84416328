package unitwork_test

import (
	"testing"

	"github.com/autom8ter/unitwork"
	"github.com/autom8ter/unitwork/testutil"
	"github.com/stretchr/testify/assert"
)

func TestInferSchema(t *testing.T) {
	t.Run("properties from json tags", func(t *testing.T) {
		schema := testutil.UserSchema()
		assert.Equal(t, "user", schema.Name())
		assert.Equal(t, "_id", schema.IDProperty())
		assert.Contains(t, schema.Properties(), "name")
		assert.Contains(t, schema.Properties(), "_id")
		assert.Contains(t, schema.Properties(), "tasks")
	})
	t.Run("missing identifier property fails", func(t *testing.T) {
		type widget struct {
			Name string `json:"name"`
		}
		_, err := unitwork.InferSchema[widget]("widget", "_id")
		assert.Error(t, err)
	})
	t.Run("non struct fails", func(t *testing.T) {
		_, err := unitwork.InferSchema[int]("number", "_id")
		assert.Error(t, err)
	})
	t.Run("skipped and untagged fields", func(t *testing.T) {
		type widget struct {
			ID     string `json:"_id"`
			Secret string `json:"-"`
			Plain  string
		}
		schema, err := unitwork.InferSchema[widget]("widget", "_id")
		assert.NoError(t, err)
		assert.NotContains(t, schema.Properties(), "Secret")
		assert.Contains(t, schema.Properties(), "plain")
	})
	t.Run("get and set", func(t *testing.T) {
		schema := testutil.UserSchema()
		user := testutil.NewUser()
		schema.Set(user, "name", "Jane")
		assert.Equal(t, "Jane", user.Name)
		assert.Equal(t, "Jane", schema.Get(user, "name"))
		assert.Nil(t, schema.Get(user, "unknown"))
	})
	t.Run("zero identifier reads as nil", func(t *testing.T) {
		schema := testutil.UserSchema()
		user := testutil.NewUser()
		assert.Nil(t, schema.ID(user))
		schema.SetID(user, "abc")
		assert.Equal(t, "abc", schema.ID(user))
	})
	t.Run("set nil zeroes the field", func(t *testing.T) {
		schema := testutil.UserSchema()
		user := testutil.NewSavedUser()
		schema.Set(user, "name", nil)
		assert.Equal(t, "", user.Name)
	})
}

func TestExplicitSchema(t *testing.T) {
	type account struct {
		number  string
		balance float64
	}
	schema := unitwork.NewSchema("account", "number",
		unitwork.WithPrototype(&account{}),
		unitwork.WithProperty("number",
			func(e any) any {
				if e.(*account).number == "" {
					return nil
				}
				return e.(*account).number
			},
			func(e any, v any) { e.(*account).number, _ = v.(string) },
		),
		unitwork.WithProperty("balance",
			func(e any) any { return e.(*account).balance },
			func(e any, v any) { e.(*account).balance, _ = v.(float64) },
		),
	)
	t.Run("accessor table", func(t *testing.T) {
		a := &account{number: "123", balance: 4.5}
		assert.Equal(t, "123", schema.ID(a))
		assert.Equal(t, 4.5, schema.Get(a, "balance"))
		schema.Set(a, "balance", 9.9)
		assert.Equal(t, 9.9, a.balance)
	})
	t.Run("registry resolves by prototype type", func(t *testing.T) {
		registry := unitwork.NewRegistry()
		registry.Register(schema)
		assert.Equal(t, schema, registry.SchemaOf(&account{}))
		assert.Equal(t, schema, registry.Schema("account"))
		assert.Nil(t, registry.SchemaOf("not an entity"))
	})
	t.Run("registry id helper", func(t *testing.T) {
		registry := unitwork.NewRegistry()
		registry.Register(schema)
		assert.Equal(t, "42", registry.ID(&account{number: "42"}))
		assert.Nil(t, registry.ID(&account{}))
		assert.Nil(t, registry.ID(nil))
	})
}
