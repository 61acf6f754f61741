package rowkit

import (
	"encoding/hex"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/rowkit/rowkit/internal/ident"
)

// CmpOp is a leaf comparison operator.
type CmpOp string

const (
	OpEq  CmpOp = "="
	OpNe  CmpOp = "!="
	OpGt  CmpOp = ">"
	OpGte CmpOp = ">="
	OpLt  CmpOp = "<"
	OpLte CmpOp = "<="
	OpIn  CmpOp = " IN "
)

// JoinOp joins the children of a filter group.
type JoinOp string

const (
	JoinAnd JoinOp = " AND "
	JoinOr  JoinOp = " OR "
)

// Filter is one node of a predicate tree: either a single comparison or a
// boolean group of child filters. Field names are trusted input; only
// literal values are quote-escaped.
type Filter struct {
	field string
	op    CmpOp
	value any

	join  JoinOp
	parts []*Filter
}

func compare(field string, op CmpOp, value any) *Filter {
	return &Filter{field: field, op: op, value: value}
}

// Eq matches rows whose column equals value.
func Eq(field string, value any) *Filter { return compare(field, OpEq, value) }

// Ne matches rows whose column differs from value.
func Ne(field string, value any) *Filter { return compare(field, OpNe, value) }

// Gt matches rows whose column is greater than value.
func Gt(field string, value any) *Filter { return compare(field, OpGt, value) }

// Gte matches rows whose column is greater than or equal to value.
func Gte(field string, value any) *Filter { return compare(field, OpGte, value) }

// Lt matches rows whose column is less than value.
func Lt(field string, value any) *Filter { return compare(field, OpLt, value) }

// Lte matches rows whose column is less than or equal to value.
func Lte(field string, value any) *Filter { return compare(field, OpLte, value) }

// In matches rows whose column equals one of the listed values. The value
// must be a slice or array; anything else fails the compile.
func In(field string, list any) *Filter { return compare(field, OpIn, list) }

// And groups filters so every one must match.
func And(parts ...*Filter) *Filter { return &Filter{join: JoinAnd, parts: parts} }

// Or groups filters so at least one must match.
func Or(parts ...*Filter) *Filter { return &Filter{join: JoinOr, parts: parts} }

// SQL compiles the filter tree to its SQL text form.
func (f *Filter) SQL() (string, error) {
	if f == nil {
		return "", newError(CodeParameterFormat, "nil filter")
	}
	if f.join != "" {
		if len(f.parts) == 0 {
			return "", newError(CodeParameterFormat, "empty filter group")
		}
		compiled := make([]string, len(f.parts))
		for i, p := range f.parts {
			s, err := p.SQL()
			if err != nil {
				return "", err
			}
			compiled[i] = "(" + s + ")"
		}
		return "(" + strings.Join(compiled, string(f.join)) + ")", nil
	}
	if f.op == OpIn {
		list, err := literalList(f.field, f.value)
		if err != nil {
			return "", err
		}
		return f.field + string(OpIn) + "(" + list + ")", nil
	}
	return f.field + string(f.op) + literal(f.value), nil
}

// literal renders a scalar as quoted SQL text. Booleans collapse to 0/1 and
// byte slices to hex, matching their stored forms; numbers are quoted like
// every other scalar.
func literal(v any) string {
	switch t := v.(type) {
	case nil:
		return "NULL"
	case bool:
		if t {
			return "'1'"
		}
		return "'0'"
	case string:
		return ident.Literal(t)
	case []byte:
		return ident.Literal(hex.EncodeToString(t))
	case time.Time:
		return ident.Literal(formatTime(t))
	case float64:
		return ident.Literal(trimFloat(t))
	case float32:
		return ident.Literal(trimFloat(float64(t)))
	default:
		return ident.Literal(fmt.Sprintf("%v", t))
	}
}

// literalList renders the elements of an IN list: textual values quoted,
// numeric and boolean values bare.
func literalList(field string, v any) (string, error) {
	if v == nil {
		return "", newError(CodeParameterFormat, "filter %q: IN requires a list, got nil", field)
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return "", newError(CodeParameterFormat, "filter %q: IN requires a list, got %T", field, v)
	}
	// A byte slice is a single raw value, not a list of numbers.
	if rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() == reflect.Uint8 {
		return "", newError(CodeParameterFormat, "filter %q: IN requires a list, got %T", field, v)
	}
	if rv.Len() == 0 {
		return "", newError(CodeParameterFormat, "filter %q: IN requires a non-empty list", field)
	}
	out := make([]string, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		out[i] = listElem(rv.Index(i).Interface())
	}
	return strings.Join(out, ","), nil
}

func listElem(v any) string {
	switch t := v.(type) {
	case nil:
		return "NULL"
	case bool:
		if t {
			return "1"
		}
		return "0"
	case string:
		return ident.Literal(t)
	case []byte:
		return ident.Literal(hex.EncodeToString(t))
	case time.Time:
		return ident.Literal(formatTime(t))
	case float64:
		return trimFloat(t)
	case float32:
		return trimFloat(float64(t))
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", t)
	default:
		return ident.Literal(fmt.Sprintf("%v", t))
	}
}

// trimFloat renders a float without exponent notation or trailing zeros.
func trimFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
