package db

import "fmt"

// DistanceMetric used by FT.SEARCH vector similarity queries.
type DistanceMetric string

const (
	// DistanceCosine is cosine distance: 0 for identical direction, 2 for opposite.
	DistanceCosine DistanceMetric = "COSINE"
	// DistanceL2 is Euclidean distance.
	DistanceL2 DistanceMetric = "L2"
	// DistanceIP is inner product distance.
	DistanceIP DistanceMetric = "IP"
)

// FieldKind is the schema type of an indexed hash field.
type FieldKind int

const (
	// FieldTag is an exact-match TAG field.
	FieldTag FieldKind = iota + 1
	// FieldVector is a FLOAT32 HNSW vector field.
	FieldVector
)

// VectorSpec configures a vector field. Zero M or EFConstruct leaves the server default.
type VectorSpec struct {
	Dim         int
	Distance    DistanceMetric
	M           int
	EFConstruct int
}

// IndexField is one field of an index schema.
type IndexField struct {
	Name  string
	Alias string // AS alias, used by queries instead of Name
	Kind  FieldKind

	CaseSensitive bool       // tag only
	Vector        VectorSpec // vector only
}

// QueryName is the name queries address the field by.
func (f *IndexField) QueryName() string {
	if f.Alias != "" {
		return f.Alias
	}
	return f.Name
}

// IndexDefinition describes an FT index over the hashes stored under Prefixes.
type IndexDefinition struct {
	Name     string
	Prefixes []string
	Fields   []IndexField
}

// Validate checks that the definition can be turned into FT.CREATE.
func (idx *IndexDefinition) Validate() error {
	if !validName(idx.Name) {
		return fmt.Errorf("%w: bad index name %q", ErrInvalidIndex, idx.Name)
	}
	if len(idx.Fields) == 0 {
		return fmt.Errorf("%w: no fields", ErrInvalidIndex)
	}

	seen := make(map[string]struct{}, len(idx.Fields))
	for i := range idx.Fields {
		f := &idx.Fields[i]
		if f.Name == "" {
			return fmt.Errorf("%w: field %d has no name", ErrInvalidIndex, i)
		}
		qn := f.QueryName()
		if _, dup := seen[qn]; dup {
			return fmt.Errorf("%w: duplicate field %q", ErrInvalidIndex, qn)
		}
		seen[qn] = struct{}{}

		switch f.Kind {
		case FieldTag:
		case FieldVector:
			if f.Vector.Dim <= 0 {
				return fmt.Errorf("%w: vector field %q needs a positive dimension", ErrInvalidIndex, f.Name)
			}
		default:
			return fmt.Errorf("%w: field %q has unknown kind %d", ErrInvalidIndex, f.Name, f.Kind)
		}
	}
	return nil
}

// validName accepts [a-zA-Z0-9_:-]+, which needs no quoting in FT commands.
func validName(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '_', r == ':', r == '-':
		default:
			return false
		}
	}
	return true
}
