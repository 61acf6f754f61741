package rowkit

import (
	"context"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"strconv"
	"time"
	"unicode/utf8"
)

// Kind identifies the storage representation of a declared field.
type Kind int

const (
	KindText Kind = iota
	KindNumber
	KindBool
	KindArray
	KindObject
	KindBytes
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	case KindBytes:
		return "bytes"
	}
	return "unknown"
}

// Field describes one declared column of a record type: the column name, its
// value kind, and a pointer into the record instance. Supported refs are
// *string, *float64, *bool (plus their sql.Null forms), *[]any,
// *map[string]any, and *[]byte; a nil slice/map/bytes value or an invalid
// Null is treated as unset.
type Field struct {
	Name string
	Kind Kind
	Ref  any
}

// Row is the flat storage representation of a record. Structured and byte
// values appear only as hex strings; nil marks SQL NULL.
type Row map[string]any

// Reserved column names every mapped table carries.
const (
	ColumnID        = "id"
	ColumnCreatedAt = "createdAt"
	ColumnUpdatedAt = "updatedAt"
)

// Encode converts the record into a Row: the id and timestamps when set,
// then every declared field by its value kind. The record's encoding
// override runs on the assembled row, and OnEncoded is raised last.
func Encode(ctx context.Context, m Model) (Row, error) {
	rec := m.record()
	row := Row{}
	if rec.ID != "" {
		row[ColumnID] = rec.ID
	}
	if !rec.CreatedAt.IsZero() {
		row[ColumnCreatedAt] = formatTime(rec.CreatedAt)
	}
	if !rec.UpdatedAt.IsZero() {
		row[ColumnUpdatedAt] = formatTime(rec.UpdatedAt)
	}
	for _, f := range m.Fields() {
		v, ok, err := encodeField(f)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		row[f.Name] = v
	}
	row, err := m.OverrideEncoding(row)
	if err != nil {
		return nil, err
	}
	if err := m.OnEncoded(ctx); err != nil {
		return nil, err
	}
	return row, nil
}

// Decode populates the record from row: id and timestamps first, then every
// declared field. SQL NULL and absent columns clear the target field rather
// than leaving a driver null marker behind. The record's decoding override
// runs on the row afterwards, and OnDecoded is raised last.
func Decode(ctx context.Context, m Model, row Row) error {
	rec := m.record()
	if v, ok := row[ColumnID]; ok && v != nil {
		s, err := decodeText(ColumnID, v)
		if err != nil {
			return err
		}
		rec.ID = s
	}
	created, err := decodeTime(ColumnCreatedAt, row[ColumnCreatedAt])
	if err != nil {
		return err
	}
	rec.CreatedAt = created
	updated, err := decodeTime(ColumnUpdatedAt, row[ColumnUpdatedAt])
	if err != nil {
		return err
	}
	rec.UpdatedAt = updated
	for _, f := range m.Fields() {
		if err := decodeField(f, row[f.Name]); err != nil {
			return err
		}
	}
	if err := m.OverrideDecoding(row); err != nil {
		return err
	}
	return m.OnDecoded(ctx)
}

func encodeField(f Field) (any, bool, error) {
	switch f.Kind {
	case KindText:
		switch p := f.Ref.(type) {
		case *string:
			return *p, true, nil
		case *sql.Null[string]:
			if !p.Valid {
				return nil, false, nil
			}
			return p.V, true, nil
		}
	case KindNumber:
		switch p := f.Ref.(type) {
		case *float64:
			return *p, true, nil
		case *sql.Null[float64]:
			if !p.Valid {
				return nil, false, nil
			}
			return p.V, true, nil
		}
	case KindBool:
		switch p := f.Ref.(type) {
		case *bool:
			return boolToNumber(*p), true, nil
		case *sql.Null[bool]:
			if !p.Valid {
				return nil, false, nil
			}
			return boolToNumber(p.V), true, nil
		}
	case KindArray:
		if p, ok := f.Ref.(*[]any); ok {
			if *p == nil {
				return nil, false, nil
			}
			return encodeJSON(f, *p)
		}
	case KindObject:
		if p, ok := f.Ref.(*map[string]any); ok {
			if *p == nil {
				return nil, false, nil
			}
			return encodeJSON(f, *p)
		}
	case KindBytes:
		if p, ok := f.Ref.(*[]byte); ok {
			if *p == nil {
				return nil, false, nil
			}
			return hex.EncodeToString(*p), true, nil
		}
	}
	return nil, false, refMismatch(f)
}

// encodeJSON serializes a structured value and hex-encodes its UTF-8 JSON
// text, the only form structured values take in a Row.
func encodeJSON(f Field, v any) (any, bool, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, false, wrapError(CodeEncoding, err, "field %q: marshal %s", f.Name, f.Kind)
	}
	return hex.EncodeToString(b), true, nil
}

func decodeField(f Field, v any) error {
	if v == nil {
		return clearField(f)
	}
	switch f.Kind {
	case KindText:
		s, err := decodeText(f.Name, v)
		if err != nil {
			return err
		}
		switch p := f.Ref.(type) {
		case *string:
			*p = s
		case *sql.Null[string]:
			*p = sql.Null[string]{V: s, Valid: true}
		default:
			return refMismatch(f)
		}
	case KindNumber:
		n, err := decodeNumber(f.Name, v)
		if err != nil {
			return err
		}
		switch p := f.Ref.(type) {
		case *float64:
			*p = n
		case *sql.Null[float64]:
			*p = sql.Null[float64]{V: n, Valid: true}
		default:
			return refMismatch(f)
		}
	case KindBool:
		b, err := decodeBool(f.Name, v)
		if err != nil {
			return err
		}
		switch p := f.Ref.(type) {
		case *bool:
			*p = b
		case *sql.Null[bool]:
			*p = sql.Null[bool]{V: b, Valid: true}
		default:
			return refMismatch(f)
		}
	case KindArray:
		p, ok := f.Ref.(*[]any)
		if !ok {
			return refMismatch(f)
		}
		raw, err := decodeJSONPayload(f.Name, v)
		if err != nil {
			return err
		}
		var out []any
		if err := json.Unmarshal(raw, &out); err != nil {
			return wrapError(CodeEncoding, err, "field %q: unmarshal array", f.Name)
		}
		*p = out
	case KindObject:
		p, ok := f.Ref.(*map[string]any)
		if !ok {
			return refMismatch(f)
		}
		raw, err := decodeJSONPayload(f.Name, v)
		if err != nil {
			return err
		}
		var out map[string]any
		if err := json.Unmarshal(raw, &out); err != nil {
			return wrapError(CodeEncoding, err, "field %q: unmarshal object", f.Name)
		}
		*p = out
	case KindBytes:
		p, ok := f.Ref.(*[]byte)
		if !ok {
			return refMismatch(f)
		}
		s, err := decodeText(f.Name, v)
		if err != nil {
			return err
		}
		raw, err := hex.DecodeString(s)
		if err != nil {
			return wrapError(CodeEncoding, err, "field %q: decode hex", f.Name)
		}
		*p = raw
	default:
		return refMismatch(f)
	}
	return nil
}

// decodeJSONPayload unwraps a hex column value into JSON text, enforcing
// that the payload is valid UTF-8.
func decodeJSONPayload(name string, v any) ([]byte, error) {
	s, err := decodeText(name, v)
	if err != nil {
		return nil, err
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return nil, wrapError(CodeEncoding, err, "field %q: decode hex", name)
	}
	if !utf8.Valid(raw) {
		return nil, newError(CodeEncoding, "field %q: payload is not valid UTF-8", name)
	}
	return raw, nil
}

// clearField resets a field to its unset state.
func clearField(f Field) error {
	switch p := f.Ref.(type) {
	case *string:
		*p = ""
	case *sql.Null[string]:
		*p = sql.Null[string]{}
	case *float64:
		*p = 0
	case *sql.Null[float64]:
		*p = sql.Null[float64]{}
	case *bool:
		*p = false
	case *sql.Null[bool]:
		*p = sql.Null[bool]{}
	case *[]any:
		*p = nil
	case *map[string]any:
		*p = nil
	case *[]byte:
		*p = nil
	default:
		return refMismatch(f)
	}
	return nil
}

func decodeText(name string, v any) (string, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case []byte:
		return string(t), nil
	}
	return "", newError(CodeEncoding, "field %q: unexpected %T for text", name, v)
}

func decodeNumber(name string, v any) (float64, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case float32:
		return float64(t), nil
	case int:
		return float64(t), nil
	case int32:
		return float64(t), nil
	case int64:
		return float64(t), nil
	case string:
		n, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return 0, wrapError(CodeEncoding, err, "field %q: parse number", name)
		}
		return n, nil
	case []byte:
		n, err := strconv.ParseFloat(string(t), 64)
		if err != nil {
			return 0, wrapError(CodeEncoding, err, "field %q: parse number", name)
		}
		return n, nil
	}
	return 0, newError(CodeEncoding, "field %q: unexpected %T for number", name, v)
}

func decodeBool(name string, v any) (bool, error) {
	switch t := v.(type) {
	case bool:
		return t, nil
	case int:
		return t != 0, nil
	case int64:
		return t != 0, nil
	case float64:
		return t != 0, nil
	case string:
		return parseBoolText(name, t)
	case []byte:
		return parseBoolText(name, string(t))
	}
	return false, newError(CodeEncoding, "field %q: unexpected %T for bool", name, v)
}

func parseBoolText(name, s string) (bool, error) {
	if n, err := strconv.ParseFloat(s, 64); err == nil {
		return n != 0, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, wrapError(CodeEncoding, err, "field %q: parse bool", name)
	}
	return b, nil
}

func decodeTime(name string, v any) (time.Time, error) {
	switch t := v.(type) {
	case nil:
		return time.Time{}, nil
	case time.Time:
		return t, nil
	case string:
		return parseTimeText(name, t)
	case []byte:
		return parseTimeText(name, string(t))
	}
	return time.Time{}, newError(CodeEncoding, "field %q: unexpected %T for timestamp", name, v)
}

func parseTimeText(name, s string) (time.Time, error) {
	ts, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, wrapError(CodeEncoding, err, "field %q: parse timestamp", name)
	}
	return ts, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func boolToNumber(v bool) float64 {
	if v {
		return 1
	}
	return 0
}

func refMismatch(f Field) error {
	return newError(CodeEncoding, "field %q: ref %T does not match kind %s", f.Name, f.Ref, f.Kind)
}
