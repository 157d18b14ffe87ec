package db

// IndexBuilder assembles an IndexDefinition field by field.
type IndexBuilder struct {
	def IndexDefinition
}

// NewIndex starts a definition for the named index.
func NewIndex(name string) *IndexBuilder {
	return &IndexBuilder{def: IndexDefinition{Name: name}}
}

// Prefix restricts the index to keys under the given prefixes.
func (b *IndexBuilder) Prefix(prefixes ...string) *IndexBuilder {
	b.def.Prefixes = append(b.def.Prefixes, prefixes...)
	return b
}

// NoStopwords makes every token searchable, including "the" and "of".
func (b *IndexBuilder) NoStopwords() *IndexBuilder {
	b.def.NoStopwords = true
	return b
}

func (b *IndexBuilder) add(f IndexField) *IndexBuilder {
	b.def.Fields = append(b.def.Fields, f)
	return b
}

// Text indexes path as full text under attr.
func (b *IndexBuilder) Text(path, attr string) *IndexBuilder {
	return b.add(IndexField{Path: path, Attr: attr, Kind: KindText})
}

// WeightedText is Text with a static relevance weight.
func (b *IndexBuilder) WeightedText(path, attr string, weight float64) *IndexBuilder {
	return b.add(IndexField{Path: path, Attr: attr, Kind: KindText, Weight: weight})
}

// Tag indexes path for exact, case-insensitive matching.
func (b *IndexBuilder) Tag(path, attr string) *IndexBuilder {
	return b.add(IndexField{Path: path, Attr: attr, Kind: KindTag})
}

// Numeric indexes path for range filters.
func (b *IndexBuilder) Numeric(path, attr string) *IndexBuilder {
	return b.add(IndexField{Path: path, Attr: attr, Kind: KindNumeric})
}

// Vector indexes path as an HNSW vector.
func (b *IndexBuilder) Vector(path, attr string, spec VectorSpec) *IndexBuilder {
	return b.add(IndexField{Path: path, Attr: attr, Kind: KindVector, Vector: &spec})
}

// Build validates and returns the definition.
func (b *IndexBuilder) Build() (*IndexDefinition, error) {
	if err := b.def.Validate(); err != nil {
		return nil, err
	}
	def := b.def
	return &def, nil
}
