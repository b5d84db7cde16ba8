package query

// Kind is the value type of a queryable field.
type Kind int

const (
	String Kind = iota
	Number
	Time
	Bool
)

// Field maps a JSON field name to its column.
type Field struct {
	Name   string
	Column string
	Kind   Kind
}

// Schema is the allow-list of fields a resource can be filtered, sorted and projected on.
type Schema struct {
	fields      map[string]Field
	defaultSort string
}

// NewSchema builds a schema. defaultSort uses the same syntax as the sort parameter.
func NewSchema(defaultSort string, fields ...Field) Schema {
	s := Schema{fields: make(map[string]Field, len(fields)), defaultSort: defaultSort}
	for _, f := range fields {
		s.fields[f.Name] = f
	}
	return s
}

func (s Schema) lookup(name string) (Field, bool) {
	f, ok := s.fields[name]
	return f, ok
}
