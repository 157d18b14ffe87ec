package db

import (
	"fmt"
	"strings"
)

// DistanceMetric used by vector fields.
type DistanceMetric string

const (
	DistanceL2     DistanceMetric = "L2"
	DistanceIP     DistanceMetric = "IP"
	DistanceCosine DistanceMetric = "COSINE"
)

// FieldKind is the query engine type of an indexed attribute.
type FieldKind int

const (
	KindNumeric FieldKind = iota
	KindTag
	KindText
	KindVector
)

func (k FieldKind) String() string {
	switch k {
	case KindNumeric:
		return "NUMERIC"
	case KindTag:
		return "TAG"
	case KindText:
		return "TEXT"
	case KindVector:
		return "VECTOR"
	default:
		return fmt.Sprintf("FieldKind(%d)", int(k))
	}
}

// VectorSpec configures an HNSW FLOAT32 vector attribute.
// Zero M or EFConstruct leave the server defaults.
type VectorSpec struct {
	Dim         int
	Distance    DistanceMetric
	M           int
	EFConstruct int
}

// IndexField maps a JSONPath in the stored document to a queryable attribute.
type IndexField struct {
	Path string
	Attr string
	Kind FieldKind

	Weight        float64 // TEXT; 0 keeps the server default of 1
	Separator     string  // TAG
	CaseSensitive bool    // TAG
	Vector        *VectorSpec
}

// IndexDefinition is an index over JSON documents sharing a key prefix.
type IndexDefinition struct {
	Name     string
	Prefixes []string
	// NoStopwords disables the built-in English stopword list, so every token is searchable.
	NoStopwords bool
	Fields      []IndexField
}

// Validate reports the first structural problem with the definition, wrapped in ErrInvalidIndex.
func (d *IndexDefinition) Validate() error {
	if err := d.validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidIndex, err)
	}
	return nil
}

func (d *IndexDefinition) validate() error {
	switch {
	case d.Name == "":
		return fmt.Errorf("index name is required")
	case !validName(d.Name):
		return fmt.Errorf("index name %q contains invalid characters", d.Name)
	case len(d.Fields) == 0:
		return fmt.Errorf("at least one field is required")
	}

	attrs := make(map[string]struct{}, len(d.Fields))
	for i, f := range d.Fields {
		if !strings.HasPrefix(f.Path, "$") {
			return fmt.Errorf("field %d: path %q is not a JSONPath", i, f.Path)
		}
		if f.Attr == "" {
			return fmt.Errorf("field %d: attribute is required for %s", i, f.Path)
		}
		if _, dup := attrs[f.Attr]; dup {
			return fmt.Errorf("duplicate attribute %q", f.Attr)
		}
		attrs[f.Attr] = struct{}{}

		if f.Kind == KindVector && (f.Vector == nil || f.Vector.Dim <= 0) {
			return fmt.Errorf("vector attribute %q needs a positive dimension", f.Attr)
		}
	}
	return nil
}

// Field returns the field exposed under attr.
func (d *IndexDefinition) Field(attr string) (IndexField, bool) {
	for _, f := range d.Fields {
		if f.Attr == attr {
			return f, true
		}
	}
	return IndexField{}, false
}

// IndexStats is a snapshot of an index as reported by the server.
type IndexStats struct {
	Name             string
	Docs             int64
	PercentIndexed   float64
	Indexing         bool
	IndexingFailures int64
}

// Ready reports whether the background scan has covered every matching key.
func (s IndexStats) Ready() bool {
	return !s.Indexing && s.PercentIndexed >= 1
}

// validName accepts [a-zA-Z0-9_:-]+.
func validName(s string) bool {
	return s != "" && strings.IndexFunc(s, func(r rune) bool {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return false
		case r == '_', r == ':', r == '-':
			return false
		}
		return true
	}) < 0
}
