package sql

import (
	"strings"
)

// PredicateFunc is a constraint type for predicate functions.
// It allows generic field types to work with any predicate type that is
// based on func(*Selector).
type PredicateFunc interface {
	~func(*Selector)
}

// StringField is a generic string column that provides type-safe predicate methods.
//
// Usage:
//
//	type OrderPredicate func(*sql.Selector)
//	var Status = sql.StringField[OrderPredicate]("status")
//	q.WhereP(Status.EQ("paid"), Status.HasPrefix("refund"))
type StringField[P PredicateFunc] string

// Name returns the field name.
func (f StringField[P]) Name() string { return string(f) }

// EQ returns a predicate that checks if the field equals the given value.
func (f StringField[P]) EQ(v string) P { return P(FieldEQ(string(f), v)) }

// NEQ returns a predicate that checks if the field does not equal the given value.
func (f StringField[P]) NEQ(v string) P { return P(FieldNEQ(string(f), v)) }

// In returns a predicate that checks if the field value is in the given list.
func (f StringField[P]) In(vs ...string) P { return P(FieldIn(string(f), vs...)) }

// NotIn returns a predicate that checks if the field value is not in the given list.
func (f StringField[P]) NotIn(vs ...string) P { return P(FieldNotIn(string(f), vs...)) }

// Contains returns a predicate that checks if the field contains the given substring.
func (f StringField[P]) Contains(v string) P { return P(FieldContains(string(f), v)) }

// HasPrefix returns a predicate that checks if the field has the given prefix.
func (f StringField[P]) HasPrefix(v string) P { return P(FieldHasPrefix(string(f), v)) }

// HasSuffix returns a predicate that checks if the field has the given suffix.
func (f StringField[P]) HasSuffix(v string) P { return P(FieldHasSuffix(string(f), v)) }

// IsNull returns a predicate that checks if the field is NULL.
func (f StringField[P]) IsNull() P { return P(FieldIsNull(string(f))) }

// NotNull returns a predicate that checks if the field is not NULL.
func (f StringField[P]) NotNull() P { return P(FieldNotNull(string(f))) }

// NumberField is a generic numeric column that provides type-safe predicate methods.
type NumberField[P PredicateFunc, T ~int | ~int64 | ~float64] string

// Name returns the field name.
func (f NumberField[P, T]) Name() string { return string(f) }

// EQ returns a predicate that checks if the field equals the given value.
func (f NumberField[P, T]) EQ(v T) P { return P(FieldEQ(string(f), v)) }

// NEQ returns a predicate that checks if the field does not equal the given value.
func (f NumberField[P, T]) NEQ(v T) P { return P(FieldNEQ(string(f), v)) }

// In returns a predicate that checks if the field value is in the given list.
func (f NumberField[P, T]) In(vs ...T) P { return P(FieldIn(string(f), vs...)) }

// NotIn returns a predicate that checks if the field value is not in the given list.
func (f NumberField[P, T]) NotIn(vs ...T) P { return P(FieldNotIn(string(f), vs...)) }

// GT returns a predicate that checks if the field is greater than the given value.
func (f NumberField[P, T]) GT(v T) P { return P(FieldGT(string(f), v)) }

// GTE returns a predicate that checks if the field is greater than or equal to the given value.
func (f NumberField[P, T]) GTE(v T) P { return P(FieldGTE(string(f), v)) }

// LT returns a predicate that checks if the field is less than the given value.
func (f NumberField[P, T]) LT(v T) P { return P(FieldLT(string(f), v)) }

// LTE returns a predicate that checks if the field is less than or equal to the given value.
func (f NumberField[P, T]) LTE(v T) P { return P(FieldLTE(string(f), v)) }

// Between returns a predicate that checks if the field is within [low, high].
func (f NumberField[P, T]) Between(low, high T) P { return P(FieldBetween(string(f), low, high)) }

// TimeField is a generic time column that provides type-safe predicate methods.
type TimeField[P PredicateFunc, T any] string

// Name returns the field name.
func (f TimeField[P, T]) Name() string { return string(f) }

// EQ returns a predicate that checks if the field equals the given value.
func (f TimeField[P, T]) EQ(v T) P { return P(FieldEQ(string(f), v)) }

// GT returns a predicate that checks if the field is after the given value.
func (f TimeField[P, T]) GT(v T) P { return P(FieldGT(string(f), v)) }

// GTE returns a predicate that checks if the field is at or after the given value.
func (f TimeField[P, T]) GTE(v T) P { return P(FieldGTE(string(f), v)) }

// LT returns a predicate that checks if the field is before the given value.
func (f TimeField[P, T]) LT(v T) P { return P(FieldLT(string(f), v)) }

// LTE returns a predicate that checks if the field is at or before the given value.
func (f TimeField[P, T]) LTE(v T) P { return P(FieldLTE(string(f), v)) }

// Between returns a predicate that checks if the field is within [low, high].
func (f TimeField[P, T]) Between(low, high T) P { return P(FieldBetween(string(f), low, high)) }

// IsNull returns a predicate that checks if the field is NULL.
func (f TimeField[P, T]) IsNull() P { return P(FieldIsNull(string(f))) }

// NotNull returns a predicate that checks if the field is not NULL.
func (f TimeField[P, T]) NotNull() P { return P(FieldNotNull(string(f))) }

// FieldEQ returns a raw predicate to check if the given field equals to the given value.
func FieldEQ(name string, v any) func(*Selector) {
	return func(s *Selector) { s.Where(EQ(name, v)) }
}

// FieldNEQ returns a raw predicate to check if the given field does not equal to the given value.
func FieldNEQ(name string, v any) func(*Selector) {
	return func(s *Selector) { s.Where(NEQ(name, v)) }
}

// FieldGT returns a raw predicate to check if the given field is greater than the given value.
func FieldGT(name string, v any) func(*Selector) {
	return func(s *Selector) { s.Where(GT(name, v)) }
}

// FieldGTE returns a raw predicate to check if the given field is greater than or equal the given value.
func FieldGTE(name string, v any) func(*Selector) {
	return func(s *Selector) { s.Where(GTE(name, v)) }
}

// FieldLT returns a raw predicate to check if the given field is less than the given value.
func FieldLT(name string, v any) func(*Selector) {
	return func(s *Selector) { s.Where(LT(name, v)) }
}

// FieldLTE returns a raw predicate to check if the given field is less than or equal the given value.
func FieldLTE(name string, v any) func(*Selector) {
	return func(s *Selector) { s.Where(LTE(name, v)) }
}

// FieldBetween returns a raw predicate to check if the given field is within [low, high].
func FieldBetween(name string, low, high any) func(*Selector) {
	return func(s *Selector) { s.Where(Between(name, low, high)) }
}

// FieldIsNull returns a raw predicate to check if the given field is null.
func FieldIsNull(name string) func(*Selector) {
	return func(s *Selector) { s.Where(IsNull(name)) }
}

// FieldNotNull returns a raw predicate to check if the given field is not null.
func FieldNotNull(name string) func(*Selector) {
	return func(s *Selector) { s.Where(NotNull(name)) }
}

// FieldIn returns a raw predicate to check if the value of the field is IN the given values.
func FieldIn[T any](name string, vs ...T) func(*Selector) {
	return func(s *Selector) { s.Where(In(name, anys(vs)...)) }
}

// FieldNotIn returns a raw predicate to check if the value of the field is NOT IN the given values.
func FieldNotIn[T any](name string, vs ...T) func(*Selector) {
	return func(s *Selector) { s.Where(NotIn(name, anys(vs)...)) }
}

// FieldContains returns a raw predicate to check if the field contains the given substring.
func FieldContains(name, substr string) func(*Selector) {
	return func(s *Selector) { s.Where(Like(name, "%"+escapeLike(substr)+"%")) }
}

// FieldHasPrefix returns a raw predicate to check if the field starts with the given prefix.
func FieldHasPrefix(name, prefix string) func(*Selector) {
	return func(s *Selector) { s.Where(Like(name, escapeLike(prefix)+"%")) }
}

// FieldHasSuffix returns a raw predicate to check if the field ends with the given suffix.
func FieldHasSuffix(name, suffix string) func(*Selector) {
	return func(s *Selector) { s.Where(Like(name, "%"+escapeLike(suffix))) }
}

func anys[T any](vs []T) []any {
	v := make([]any, len(vs))
	for i := range vs {
		v[i] = vs[i]
	}
	return v
}

// escapeLike escapes the LIKE wildcards of a literal pattern part.
func escapeLike(s string) string {
	if !strings.ContainsAny(s, `%_\`) {
		return s
	}
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	return strings.ReplaceAll(s, "_", `\_`)
}
