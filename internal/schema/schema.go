package schema

import (
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/JonMunkholm/sheetimport/internal/coerce"
	"github.com/JonMunkholm/sheetimport/internal/sheet"
)

// ErrConstruct is returned by Bind when the record itself cannot be created.
// The row is dropped; it is neither a valid nor an invalid row.
var ErrConstruct = errors.New("construct record")

// Binder is the type-erased view of a Schema used by the importer, the
// exporter and the store, which handle several record types in one workbook.
type Binder interface {
	// Name identifies the record type; it keys the import result.
	Name() string
	// Specs returns the field metadata ordered by column.
	Specs() []FieldSpec
	// Validate checks the binding table once at registration time.
	Validate() error
	// Bind converts a row into a record (a *T) or a set of field errors.
	Bind(row sheet.Row) (any, FieldErrors, error)
	// Values returns a record's field values ordered by column.
	Values(rec any) ([]any, error)
}

// Binding ties one FieldSpec to accessors on record type T.
type Binding[T any] struct {
	Spec FieldSpec
	set  func(*T, any) error
	get  func(*T) any
}

// Field binds spec to the field returned by ref. A coerced value must have
// type V; a missing value stores V's zero value.
func Field[T, V any](spec FieldSpec, ref func(*T) *V) Binding[T] {
	return Binding[T]{
		Spec: spec,
		set: func(rec *T, v any) error {
			p := ref(rec)
			if v == nil {
				var zero V
				*p = zero
				return nil
			}
			tv, ok := v.(V)
			if !ok {
				return fmt.Errorf("cannot assign %T to %T", v, *p)
			}
			*p = tv
			return nil
		},
		get: func(rec *T) any { return *ref(rec) },
	}
}

// Nullable binds spec to a pointer field; a missing value stores nil.
func Nullable[T, V any](spec FieldSpec, ref func(*T) **V) Binding[T] {
	return Binding[T]{
		Spec: spec,
		set: func(rec *T, v any) error {
			p := ref(rec)
			if v == nil {
				*p = nil
				return nil
			}
			tv, ok := v.(V)
			if !ok {
				return fmt.Errorf("cannot assign %T to *%T", v, tv)
			}
			*p = &tv
			return nil
		},
		get: func(rec *T) any {
			if p := *ref(rec); p != nil {
				return *p
			}
			return nil
		},
	}
}

// Schema is the binding table of record type T.
type Schema[T any] struct {
	name     string
	fields   []Binding[T]
	newFn    func() (*T, error)
	registry *coerce.Registry
	patterns []*regexp.Regexp // per field, nil when no pattern applies
	patErrs  []error
}

// New builds a schema named name from field bindings. Fields are kept sorted
// by Order.
func New[T any](name string, fields ...Binding[T]) *Schema[T] {
	sorted := append([]Binding[T](nil), fields...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Spec.Order < sorted[j].Spec.Order
	})

	s := &Schema[T]{
		name:     name,
		fields:   sorted,
		registry: coerce.Default(),
		patterns: make([]*regexp.Regexp, len(sorted)),
		patErrs:  make([]error, len(sorted)),
	}
	for i, f := range sorted {
		s.patterns[i], s.patErrs[i] = compilePattern(f.Spec)
	}
	return s
}

// WithConstructor sets the function that creates empty records.
func (s *Schema[T]) WithConstructor(fn func() (*T, error)) *Schema[T] {
	s.newFn = fn
	return s
}

// WithRegistry replaces the coercion registry (the default is coerce.Default).
func (s *Schema[T]) WithRegistry(r *coerce.Registry) *Schema[T] {
	s.registry = r
	return s
}

// Name returns the schema name.
func (s *Schema[T]) Name() string { return s.name }

// Specs returns the field metadata ordered by column.
func (s *Schema[T]) Specs() []FieldSpec {
	specs := make([]FieldSpec, len(s.fields))
	for i, f := range s.fields {
		specs[i] = f.Spec
	}
	return specs
}

// Validate reports every problem in the binding table: empty titles, negative
// or duplicate orders, unregistered types and patterns that do not compile.
func (s *Schema[T]) Validate() error {
	var errs []string

	if s.name == "" {
		errs = append(errs, "schema name is empty")
	}
	if len(s.fields) == 0 {
		errs = append(errs, "no fields")
	}

	seen := make(map[int]string)
	for i, f := range s.fields {
		spec := f.Spec
		if spec.Title == "" {
			errs = append(errs, fmt.Sprintf("field at order %d has no title", spec.Order))
		}
		if spec.Order < 0 {
			errs = append(errs, fmt.Sprintf("%q: negative order %d", spec.Title, spec.Order))
		}
		if other, dup := seen[spec.Order]; dup {
			errs = append(errs, fmt.Sprintf("%q and %q share order %d", other, spec.Title, spec.Order))
		}
		seen[spec.Order] = spec.Title
		if !s.registry.Has(spec.Type) {
			errs = append(errs, fmt.Sprintf("%q: %v %q", spec.Title, coerce.ErrUnknownKind, spec.Type))
		}
		if s.patErrs[i] != nil {
			errs = append(errs, fmt.Sprintf("%q: invalid pattern: %v", spec.Title, s.patErrs[i]))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("schema %q:\n  - %s", s.name, strings.Join(errs, "\n  - "))
	}
	return nil
}

// BindRecord converts row into a record. When any field fails, the record is
// nil and errs lists one message per failed field. A non-nil error means the
// record could not be constructed at all.
func (s *Schema[T]) BindRecord(row sheet.Row) (*T, FieldErrors, error) {
	var errs FieldErrors

	rec, err := s.construct()
	if err != nil {
		return nil, errs, fmt.Errorf("%w %s: %v", ErrConstruct, s.name, err)
	}

	for i, f := range s.fields {
		spec := f.Spec
		raw, _ := row.Get(spec.Order)
		raw = strings.TrimSpace(raw)

		if msg := s.check(i, raw); msg != "" {
			errs.Add(spec.Title, msg)
			continue
		}

		before := errs.Len()
		v := s.registry.Coerce(spec.Title, spec.Type, raw, spec.EffectiveFormat(), &errs)
		if errs.Len() > before {
			continue
		}

		if err := f.set(rec, v); err != nil {
			slog.Warn("field value not assignable, leaving empty",
				"schema", s.name,
				"field", spec.Title,
				"row", row.Index,
				"error", err,
			)
			_ = f.set(rec, nil)
		}
	}

	if errs.Len() > 0 {
		return nil, errs, nil
	}
	return rec, errs, nil
}

// Bind implements Binder.
func (s *Schema[T]) Bind(row sheet.Row) (any, FieldErrors, error) {
	rec, errs, err := s.BindRecord(row)
	if rec == nil {
		return nil, errs, err
	}
	return rec, errs, err
}

// RecordValues returns rec's field values ordered by column.
func (s *Schema[T]) RecordValues(rec *T) []any {
	out := make([]any, len(s.fields))
	for i, f := range s.fields {
		out[i] = f.get(rec)
	}
	return out
}

// Values implements Binder. rec must be a *T.
func (s *Schema[T]) Values(rec any) ([]any, error) {
	r, ok := rec.(*T)
	if !ok {
		return nil, fmt.Errorf("schema %s: record has type %T", s.name, rec)
	}
	return s.RecordValues(r), nil
}

func (s *Schema[T]) construct() (rec *T, err error) {
	if s.newFn == nil {
		return new(T), nil
	}
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	rec, err = s.newFn()
	if err == nil && rec == nil {
		err = errors.New("constructor returned nil")
	}
	return rec, err
}

// check applies the metadata rules for field i and returns the first failure.
func (s *Schema[T]) check(i int, value string) string {
	spec := s.fields[i].Spec

	if spec.Required && value == "" {
		return msgBlank
	}
	if spec.Required && s.patterns[i] != nil && !s.patterns[i].MatchString(value) {
		return msgInvalidFormat + checkedPattern(spec)
	}
	if spec.MaxLength > 0 && utf8.RuneCountInString(value) > spec.MaxLength {
		return msgInvalidLength + value
	}
	if value != "" && len(spec.Enums) > 0 && !contains(spec.Enums, value) {
		return msgInvalidValue + value
	}
	return ""
}

func contains(values []string, v string) bool {
	for _, e := range values {
		if e == v {
			return true
		}
	}
	return false
}
