package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"unicode"
)

var (
	ctxType = reflect.TypeOf((*context.Context)(nil)).Elem()
	errType = reflect.TypeOf((*error)(nil)).Elem()
	anyType = reflect.TypeOf((*any)(nil)).Elem()
)

// inferDescriptor builds the parameter schema and the invoker for a typed
// callable of shape func(context.Context, T) (R, error) where T is a
// struct. All reflection happens here, once, at registration time; the
// returned invoker carries only prebuilt state.
func inferDescriptor(name string, fn any) ([]Param, Invoker, error) {
	v := reflect.ValueOf(fn)
	t := v.Type()
	if t.Kind() != reflect.Func {
		return nil, nil, &SchemaInferenceError{Operation: name, Reason: "callable is not a function"}
	}
	if t.NumIn() != 2 || t.In(0) != ctxType {
		return nil, nil, &SchemaInferenceError{Operation: name, Reason: "callable must be func(context.Context, T) (R, error)"}
	}
	if t.NumOut() != 2 || t.Out(1) != errType {
		return nil, nil, &SchemaInferenceError{Operation: name, Reason: "callable must return (R, error)"}
	}

	argType := t.In(1)
	if argType.Kind() != reflect.Struct {
		return nil, nil, &SchemaInferenceError{Operation: name, Reason: "argument type must be a struct"}
	}

	params, err := paramsFromStruct(name, argType)
	if err != nil {
		return nil, nil, err
	}

	invoke := func(ctx context.Context, args map[string]any) (any, error) {
		raw, err := json.Marshal(args)
		if err != nil {
			return nil, fmt.Errorf("encode arguments: %w", err)
		}
		argVal := reflect.New(argType)
		if err := json.Unmarshal(raw, argVal.Interface()); err != nil {
			return nil, fmt.Errorf("decode arguments: %w", err)
		}
		out := v.Call([]reflect.Value{reflect.ValueOf(ctx), argVal.Elem()})
		if errV := out[1].Interface(); errV != nil {
			return nil, errV.(error)
		}
		return out[0].Interface(), nil
	}
	return params, invoke, nil
}

func paramsFromStruct(op string, t reflect.Type) ([]Param, error) {
	params := make([]Param, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		jsonName := strings.Split(f.Tag.Get("json"), ",")[0]
		if jsonName == "-" {
			continue
		}
		if jsonName == "" {
			jsonName = snakeCase(f.Name)
		}

		ft := f.Type
		nullable := false
		if ft.Kind() == reflect.Pointer {
			nullable = true
			ft = ft.Elem()
		}

		typ, err := schemaType(ft)
		if err != nil {
			return nil, &SchemaInferenceError{Operation: op, Field: jsonName, Reason: err.Error()}
		}

		p := Param{
			Name:        jsonName,
			Type:        typ,
			Description: f.Tag.Get("desc"),
			Required:    !nullable,
			Nullable:    nullable,
		}

		if enum := f.Tag.Get("enum"); enum != "" {
			if typ != TypeString {
				return nil, &SchemaInferenceError{Operation: op, Field: jsonName, Reason: "enum tag is only valid on string fields"}
			}
			p.Enum = strings.Split(enum, ",")
		}

		if def, ok := f.Tag.Lookup("default"); ok {
			dv, err := parseDefault(def, typ)
			if err != nil {
				return nil, &SchemaInferenceError{Operation: op, Field: jsonName, Reason: err.Error()}
			}
			p.Default = dv
			p.Required = false
		}

		params = append(params, p)
	}
	return params, nil
}

func schemaType(t reflect.Type) (string, error) {
	switch t.Kind() {
	case reflect.String:
		return TypeString, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return TypeInteger, nil
	case reflect.Float32, reflect.Float64:
		return TypeNumber, nil
	case reflect.Bool:
		return TypeBoolean, nil
	case reflect.Struct:
		return TypeObject, nil
	case reflect.Map:
		if t.Key().Kind() != reflect.String {
			return "", fmt.Errorf("map keys must be strings, got %s", t.Key())
		}
		return TypeObject, nil
	case reflect.Slice, reflect.Array:
		return TypeArray, nil
	case reflect.Interface:
		if t == anyType {
			return TypeObject, nil
		}
		return "", fmt.Errorf("unsupported interface type %s", t)
	default:
		return "", fmt.Errorf("unsupported type %s", t)
	}
}

func parseDefault(raw, typ string) (any, error) {
	switch typ {
	case TypeString:
		return raw, nil
	case TypeInteger:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid integer default %q", raw)
		}
		return n, nil
	case TypeNumber:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number default %q", raw)
		}
		return f, nil
	case TypeBoolean:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid boolean default %q", raw)
		}
		return b, nil
	default:
		return nil, fmt.Errorf("default tag is not supported for %s parameters", typ)
	}
}

func snakeCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
