package rowkit

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/jinzhu/inflection"
)

// TableNamer provides a custom table name for a record type.
type TableNamer interface {
	TableName() string
}

var tableNamerType = reflect.TypeOf((*TableNamer)(nil)).Elem()

// resolveTable derives the table identifier for a target: an explicit
// string, a TableNamer implementation, or the pluralized snake_case name of
// the record's struct type.
func resolveTable(target any) (string, error) {
	switch v := target.(type) {
	case nil:
		return "", errors.New("rowkit: nil table target")
	case string:
		name := strings.TrimSpace(v)
		if name == "" {
			return "", errors.New("rowkit: empty table name")
		}
		return name, nil
	}

	val := reflect.ValueOf(target)
	typ := val.Type()

	if typ.Kind() == reflect.Pointer {
		if val.IsNil() {
			return "", fmt.Errorf("rowkit: nil pointer target %T", target)
		}
		if namer, ok := val.Interface().(TableNamer); ok {
			name := strings.TrimSpace(namer.TableName())
			if name == "" {
				return "", fmt.Errorf("rowkit: TableName returned empty string. %T", target)
			}
			return name, nil
		}
		typ = typ.Elem()
		val = val.Elem()
	}

	if namer, ok := val.Interface().(TableNamer); ok {
		name := strings.TrimSpace(namer.TableName())
		if name == "" {
			return "", fmt.Errorf("rowkit: TableName returned empty string. %T", target)
		}
		return name, nil
	}

	if typ.Kind() == reflect.Struct {
		if reflect.PointerTo(typ).Implements(tableNamerType) {
			inst := reflect.New(typ)
			if namer, ok := inst.Interface().(TableNamer); ok {
				name := strings.TrimSpace(namer.TableName())
				if name == "" {
					return "", fmt.Errorf("rowkit: TableName returned empty string. %T", target)
				}
				return name, nil
			}
		}
		if typ.Name() == "" {
			return "", fmt.Errorf("rowkit: cannot derive table name for anonymous struct of type %v", typ)
		}
		return inflection.Plural(toSnakeCase(typ.Name())), nil
	}

	return "", fmt.Errorf("rowkit: unsupported table target %T", target)
}

func toSnakeCase(s string) string {
	runes := []rune(s)
	var b strings.Builder
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 && (unicode.IsLower(runes[i-1]) || (i+1 < len(runes) && unicode.IsLower(runes[i+1]))) {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}
