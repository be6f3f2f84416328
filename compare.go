package unitwork

import (
	"math"
	"reflect"
	"time"

	"github.com/spf13/cast"
)

// floatEpsilon is the tolerance used when comparing floating point tokens
const floatEpsilon = 1e-9

// Comparator implements the deep equality rules change detection relies on.
// It only ever sees snapshot tokens, never live references.
type Comparator struct{}

// NewComparator creates a new comparator
func NewComparator() *Comparator {
	return &Comparator{}
}

// Equal reports whether two snapshot tokens are equal
func (c *Comparator) Equal(a, b any) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	switch av := a.(type) {
	case EntityRef:
		bv, ok := b.(EntityRef)
		if !ok {
			return false
		}
		return c.equalEntityRef(av, bv)
	case ObjectRef:
		bv, ok := b.(ObjectRef)
		if !ok {
			return false
		}
		return av.Class == bv.Class && av.Hash == bv.Hash
	case RefSet:
		bv, ok := b.(RefSet)
		if !ok {
			return false
		}
		return c.equalRefSet(av, bv)
	case time.Time:
		bv, ok := b.(time.Time)
		if !ok {
			return false
		}
		return av.Equal(bv)
	}
	if isFloat(a) || isFloat(b) {
		return c.equalFloat(a, b)
	}
	if !reflect.TypeOf(a).Comparable() || !reflect.TypeOf(b).Comparable() {
		return reflect.DeepEqual(a, b)
	}
	return a == b
}

func (c *Comparator) equalFloat(a, b any) bool {
	af, err := cast.ToFloat64E(a)
	if err != nil {
		return false
	}
	bf, err := cast.ToFloat64E(b)
	if err != nil {
		return false
	}
	return math.Abs(af-bf) <= floatEpsilon
}

// equalEntityRef compares entity references: same entity name and either both
// identifiers present and equal, or both absent with the same identity hash.
// Identifier equality takes precedence once an entity is persisted.
func (c *Comparator) equalEntityRef(a, b EntityRef) bool {
	if a.Entity != b.Entity {
		return false
	}
	if a.ID != nil && b.ID != nil {
		return c.Equal(a.ID, b.ID)
	}
	if a.ID == nil && b.ID == nil {
		return a.Hash == b.Hash
	}
	return false
}

// equalRefSet compares reference sets as multisets - order independent
func (c *Comparator) equalRefSet(a, b RefSet) bool {
	if len(a) != len(b) {
		return false
	}
	used := make([]bool, len(b))
	for _, ar := range a {
		matched := false
		for i, br := range b {
			if used[i] {
				continue
			}
			if c.equalEntityRef(ar, br) {
				used[i] = true
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}

func isFloat(v any) bool {
	switch v.(type) {
	case float32, float64:
		return true
	default:
		return false
	}
}
