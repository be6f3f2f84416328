package testutil

import (
	"github.com/autom8ter/unitwork"
	"github.com/brianvoe/gofakeit/v6"
	"github.com/segmentio/ksuid"
)

// User is a fixture entity with a to-many relation to tasks
type User struct {
	ID       string  `json:"_id"`
	Name     string  `json:"name"`
	Email    string  `json:"email"`
	Age      int     `json:"age"`
	Balance  float64 `json:"balance"`
	Language string  `json:"language"`
	Tasks    []*Task `json:"tasks"`
}

// Task is a fixture entity with a to-one relation to its user
type Task struct {
	ID      string `json:"_id"`
	User    *User  `json:"user"`
	Content string `json:"content"`
	Done    bool   `json:"done"`
}

// NewRegistry returns a schema registry with the user and task fixtures
// registered
func NewRegistry() *unitwork.Registry {
	registry := unitwork.NewRegistry()
	registry.Register(UserSchema(), TaskSchema())
	return registry
}

// UserSchema returns the inferred user schema
func UserSchema() *unitwork.Schema {
	schema, err := unitwork.InferSchema[User]("user", "_id")
	if err != nil {
		panic(err)
	}
	return schema
}

// TaskSchema returns the inferred task schema
func TaskSchema() *unitwork.Schema {
	schema, err := unitwork.InferSchema[Task]("task", "_id")
	if err != nil {
		panic(err)
	}
	return schema
}

// NewManager returns a unit of work manager over the fixture registry
func NewManager() *unitwork.Manager {
	return unitwork.New(NewRegistry())
}

// NewUser returns a not yet persisted user with fake data
func NewUser() *User {
	return &User{
		Name:     gofakeit.Name(),
		Email:    gofakeit.Email(),
		Age:      gofakeit.IntRange(18, 100),
		Balance:  gofakeit.Float64Range(0, 10000),
		Language: gofakeit.Language(),
	}
}

// NewSavedUser returns a user carrying a generated identifier, as if loaded
// from storage
func NewSavedUser() *User {
	u := NewUser()
	u.ID = ksuid.New().String()
	return u
}

// NewTask returns a not yet persisted task owned by the given user
func NewTask(user *User) *Task {
	return &Task{
		User:    user,
		Content: gofakeit.Sentence(6),
	}
}

// NewSavedTask returns a task carrying a generated identifier
func NewSavedTask(user *User) *Task {
	t := NewTask(user)
	t.ID = ksuid.New().String()
	return t
}
