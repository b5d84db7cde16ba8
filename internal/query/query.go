// Package query turns list-endpoint query strings into typed, allow-listed store queries.
package query

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"sort"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrInvalid is wrapped by every parse failure.
var ErrInvalid = errors.New("invalid query")

const (
	DefaultPage  = 1
	DefaultLimit = 10

	// MaxLimit and MaxPage bound a list request so offsets never overflow.
	MaxLimit = 100
	MaxPage  = 1_000_000
)

// Reserved keys control the query shape and are never treated as filters.
var Reserved = []string{"select", "sort", "page", "limit"}

type Op string

const (
	Eq  Op = "eq"
	Gt  Op = "gt"
	Gte Op = "gte"
	Lt  Op = "lt"
	Lte Op = "lte"
	In  Op = "in"
)

var operators = map[string]Op{"gt": Gt, "gte": Gte, "lt": Lt, "lte": Lte, "in": In}

// Predicate is one typed comparison against an allow-listed field.
type Predicate struct {
	Field  Field
	Op     Op
	Values []any
}

// Expression renders the predicate as a gorm clause expression.
func (p Predicate) Expression() clause.Expression {
	col := clause.Column{Name: p.Field.Column}
	switch p.Op {
	case Gt:
		return clause.Gt{Column: col, Value: p.Values[0]}
	case Gte:
		return clause.Gte{Column: col, Value: p.Values[0]}
	case Lt:
		return clause.Lt{Column: col, Value: p.Values[0]}
	case Lte:
		return clause.Lte{Column: col, Value: p.Values[0]}
	case In:
		return clause.IN{Column: col, Values: p.Values}
	default:
		return clause.Eq{Column: col, Value: p.Values[0]}
	}
}

type SortKey struct {
	Field Field
	Desc  bool
}

// Query is the parsed form of a list request.
type Query struct {
	Predicates []Predicate
	Fields     []Field
	Sort       []SortKey
	Page       int
	Limit      int
}

// Parse validates values against schema. Unknown fields, unknown operators and
// values that do not parse as the field's kind are rejected with ErrInvalid.
func Parse(values url.Values, schema Schema) (*Query, error) {
	q := &Query{
		Page:  min(positiveInt(values.Get("page"), DefaultPage), MaxPage),
		Limit: min(positiveInt(values.Get("limit"), DefaultLimit), MaxLimit),
	}

	keys := make([]string, 0, len(values))
	for key := range values {
		if !slices.Contains(Reserved, key) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	for _, key := range keys {
		p, err := parsePredicate(key, values[key], schema)
		if err != nil {
			return nil, err
		}
		q.Predicates = append(q.Predicates, p)
	}

	if sel := values.Get("select"); sel != "" {
		for _, name := range splitList(sel) {
			f, ok := schema.lookup(name)
			if !ok {
				return nil, fmt.Errorf("%w: cannot select unknown field %q", ErrInvalid, name)
			}
			q.Fields = append(q.Fields, f)
		}
	}

	sortParam := values.Get("sort")
	if sortParam == "" {
		sortParam = schema.defaultSort
	}
	for _, name := range splitList(sortParam) {
		desc := strings.HasPrefix(name, "-")
		name = strings.TrimPrefix(name, "-")
		f, ok := schema.lookup(name)
		if !ok {
			return nil, fmt.Errorf("%w: cannot sort by unknown field %q", ErrInvalid, name)
		}
		q.Sort = append(q.Sort, SortKey{Field: f, Desc: desc})
	}

	return q, nil
}

func parsePredicate(key string, raw []string, schema Schema) (Predicate, error) {
	name, op := key, Eq
	if i := strings.IndexByte(key, '['); i >= 0 {
		if !strings.HasSuffix(key, "]") {
			return Predicate{}, fmt.Errorf("%w: malformed filter %q", ErrInvalid, key)
		}
		name = key[:i]
		token := key[i+1 : len(key)-1]
		var ok bool
		if op, ok = operators[token]; !ok {
			return Predicate{}, fmt.Errorf("%w: unsupported operator %q", ErrInvalid, token)
		}
	}

	f, ok := schema.lookup(name)
	if !ok {
		return Predicate{}, fmt.Errorf("%w: cannot filter on unknown field %q", ErrInvalid, name)
	}

	var rawValues []string
	switch op {
	case In:
		for _, r := range raw {
			rawValues = append(rawValues, splitList(r)...)
		}
	case Eq:
		rawValues = raw
		if len(raw) > 1 {
			op = In
		}
	default:
		rawValues = raw[len(raw)-1:]
	}
	if len(rawValues) == 0 {
		return Predicate{}, fmt.Errorf("%w: no value for %q", ErrInvalid, key)
	}

	p := Predicate{Field: f, Op: op, Values: make([]any, 0, len(rawValues))}
	for _, r := range rawValues {
		v, err := convert(f, r)
		if err != nil {
			return Predicate{}, err
		}
		p.Values = append(p.Values, v)
	}
	return p, nil
}

var timeLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02T15:04", "2006-01-02"}

func convert(f Field, raw string) (any, error) {
	switch f.Kind {
	case Number:
		n, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s must be a number, got %q", ErrInvalid, f.Name, raw)
		}
		return n, nil
	case Time:
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, raw); err == nil {
				return t.UTC(), nil
			}
		}
		return nil, fmt.Errorf("%w: %s must be a date, got %q", ErrInvalid, f.Name, raw)
	case Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %s must be true or false, got %q", ErrInvalid, f.Name, raw)
		}
		return b, nil
	default:
		return raw, nil
	}
}

// Filter applies the predicates. Use it for both the count and the page query.
func (q *Query) Filter(db *gorm.DB) *gorm.DB {
	if len(q.Predicates) == 0 {
		return db
	}
	exprs := make([]clause.Expression, 0, len(q.Predicates))
	for _, p := range q.Predicates {
		exprs = append(exprs, p.Expression())
	}
	return db.Clauses(clause.Where{Exprs: exprs})
}

// Order applies the sort keys, then id so pages are stable across equal keys.
func (q *Query) Order(db *gorm.DB) *gorm.DB {
	for _, k := range q.Sort {
		db = db.Order(clause.OrderByColumn{Column: clause.Column{Name: k.Field.Column}, Desc: k.Desc})
	}
	return db.Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}})
}

func (q *Query) Paginate(db *gorm.DB) *gorm.DB {
	return db.Offset((q.Page - 1) * q.Limit).Limit(q.Limit)
}

// Project restricts the selected columns. The id column is always kept.
func (q *Query) Project(db *gorm.DB) *gorm.DB {
	if len(q.Fields) == 0 {
		return db
	}
	return db.Select(q.columns())
}

func (q *Query) columns() []string {
	cols := []string{"id"}
	for _, f := range q.Fields {
		if !slices.Contains(cols, f.Column) {
			cols = append(cols, f.Column)
		}
	}
	return cols
}

// PageRef points at a neighbouring page.
type PageRef struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// Pagination carries next and prev only when those pages exist.
type Pagination struct {
	Next *PageRef `json:"next,omitempty"`
	Prev *PageRef `json:"prev,omitempty"`
}

func (q *Query) Pagination(total int64) Pagination {
	var p Pagination
	if int64(q.Page)*int64(q.Limit) < total {
		p.Next = &PageRef{Page: q.Page + 1, Limit: q.Limit}
	}
	if q.Page > 1 {
		p.Prev = &PageRef{Page: q.Page - 1, Limit: q.Limit}
	}
	return p
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func positiveInt(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}
