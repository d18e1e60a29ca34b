package scene

import "fmt"

// Ref is an optional index into one of the document tables.
// The zero value refers to nothing.
type Ref struct {
	index int
	valid bool
}

// None is the empty reference.
var None = Ref{}

// Some returns a reference to index i.
func Some(i int) Ref {
	return Ref{index: i, valid: true}
}

// Get returns the referenced index and whether it is set.
func (r Ref) Get() (int, bool) {
	return r.index, r.valid
}

// Valid reports whether the reference is set.
func (r Ref) Valid() bool {
	return r.valid
}

// Or returns the index, or def when unset.
func (r Ref) Or(def int) int {
	if !r.valid {
		return def
	}
	return r.index
}

func (r Ref) String() string {
	if !r.valid {
		return "none"
	}
	return fmt.Sprintf("%d", r.index)
}

// optional converts the optional index fields of the glTF object model.
// Depending on the field they decode as int, *int, uint32 or *uint32.
func optional(v any) Ref {
	switch i := v.(type) {
	case int:
		return Some(i)
	case *int:
		if i != nil {
			return Some(*i)
		}
	case uint32:
		return Some(int(i))
	case *uint32:
		if i != nil {
			return Some(int(*i))
		}
	}
	return None
}
