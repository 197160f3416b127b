package workflow

import (
	"strconv"

	"github.com/pipewise/maestro/pkg/resilience"
)

// RefKind identifies the form of a dependency reference
type RefKind int

const (
	// RefByIndex points at a predecessor step by absolute position
	RefByIndex RefKind = iota

	// RefPrevious points at the step immediately preceding the referencing
	// step; on the first step it resolves to no predecessor at all
	RefPrevious

	// RefByName points at a predecessor step by its declared name
	RefByName
)

// DependencyRef is a closed tagged variant identifying a predecessor step.
// Raw tokens (integers, numeric strings, the literal "prev", or step names)
// are parsed into this form once, at workflow construction time, before any
// resolution logic runs.
type DependencyRef struct {
	Kind  RefKind
	Index int
	Name  string
}

// ByIndex references the step at the given absolute position
func ByIndex(index int) DependencyRef {
	return DependencyRef{Kind: RefByIndex, Index: index}
}

// Previous references the immediately preceding step
func Previous() DependencyRef {
	return DependencyRef{Kind: RefPrevious}
}

// ByName references the step with the given declared name
func ByName(name string) DependencyRef {
	return DependencyRef{Kind: RefByName, Name: name}
}

// String renders the reference in its token form
func (r DependencyRef) String() string {
	switch r.Kind {
	case RefPrevious:
		return "prev"
	case RefByName:
		return r.Name
	default:
		return strconv.Itoa(r.Index)
	}
}

// ParseDependencyToken converts a raw dependency token into a DependencyRef.
// Accepted tokens: a non-negative integer, the string form of a non-negative
// integer, the literal "prev", or any other string, which is treated as a
// named-step lookup.
func ParseDependencyToken(token interface{}) (DependencyRef, error) {
	switch v := token.(type) {
	case int:
		if v < 0 {
			return DependencyRef{}, resilience.Newf(resilience.KindValidation, resilience.SeverityMedium,
				"negative dependency index %d", v).WithContext("token", v)
		}
		return ByIndex(v), nil
	case string:
		if v == "prev" {
			return Previous(), nil
		}
		if index, err := strconv.Atoi(v); err == nil {
			if index < 0 {
				return DependencyRef{}, resilience.Newf(resilience.KindValidation, resilience.SeverityMedium,
					"negative dependency index %q", v).WithContext("token", v)
			}
			return ByIndex(index), nil
		}
		if v == "" {
			return DependencyRef{}, resilience.New(resilience.KindValidation, resilience.SeverityMedium,
				"empty dependency token")
		}
		return ByName(v), nil
	default:
		return DependencyRef{}, resilience.Newf(resilience.KindValidation, resilience.SeverityMedium,
			"unsupported dependency token type %T", token).WithContext("token", token)
	}
}

// resolve converts the reference into concrete predecessor indices for the
// step at ownIndex. It is a pure function over the step list. Every resolved
// index is strictly less than ownIndex, so a resolved workflow is acyclic by
// construction.
func (r DependencyRef) resolve(steps []Step, ownIndex int) ([]int, error) {
	switch r.Kind {
	case RefPrevious:
		if ownIndex == 0 {
			return nil, nil
		}
		return []int{ownIndex - 1}, nil

	case RefByName:
		for i := range steps {
			if steps[i].Name == r.Name {
				if i >= ownIndex {
					return nil, resilience.Newf(resilience.KindDependencyResolution, resilience.SeverityHigh,
						"step %d references %q at position %d: dependencies must point backward", ownIndex, r.Name, i).
						WithContext("step", ownIndex).WithContext("name", r.Name)
				}
				return []int{i}, nil
			}
		}
		return nil, resilience.Newf(resilience.KindDependencyResolution, resilience.SeverityHigh,
			"step %d references unknown step %q", ownIndex, r.Name).
			WithContext("step", ownIndex).WithContext("name", r.Name)

	default:
		if r.Index >= ownIndex {
			return nil, resilience.Newf(resilience.KindDependencyResolution, resilience.SeverityHigh,
				"step %d references index %d: dependencies must point backward", ownIndex, r.Index).
				WithContext("step", ownIndex).WithContext("index", r.Index)
		}
		return []int{r.Index}, nil
	}
}
