package planogram

import (
	"fmt"

	"github.com/dmatiushkin73/my-kiosk-backend/internal/domain/shared"
)

// The cloud's product/collection/planogram GET responses are loosely-typed JSON documents
// (decoded into map[string]any by ports.CloudClient.Get). These helpers replicate the source's
// dict-indexing-with-KeyError pattern as explicit, typed accessors that return ErrValidation on
// a missing/mistyped field instead of panicking.

func reqMap(m map[string]any, key string) (map[string]any, error) {
	v, ok := m[key]
	if !ok {
		return nil, shared.WrapValidation("reqMap", fmt.Errorf("missing field %q", key))
	}
	out, ok := v.(map[string]any)
	if !ok {
		return nil, shared.WrapValidation("reqMap", fmt.Errorf("field %q is not an object", key))
	}
	return out, nil
}

func reqSlice(m map[string]any, key string) ([]any, error) {
	v, ok := m[key]
	if !ok {
		return nil, shared.WrapValidation("reqSlice", fmt.Errorf("missing field %q", key))
	}
	out, ok := v.([]any)
	if !ok {
		return nil, shared.WrapValidation("reqSlice", fmt.Errorf("field %q is not an array", key))
	}
	return out, nil
}

func reqString(m map[string]any, key string) (string, error) {
	v, ok := m[key]
	if !ok {
		return "", shared.WrapValidation("reqString", fmt.Errorf("missing field %q", key))
	}
	s, ok := v.(string)
	if !ok {
		return "", shared.WrapValidation("reqString", fmt.Errorf("field %q is not a string", key))
	}
	return s, nil
}

func reqInt(m map[string]any, key string) (int, error) {
	v, ok := m[key]
	if !ok {
		return 0, shared.WrapValidation("reqInt", fmt.Errorf("missing field %q", key))
	}
	f, ok := v.(float64)
	if !ok {
		return 0, shared.WrapValidation("reqInt", fmt.Errorf("field %q is not a number", key))
	}
	return int(f), nil
}

func reqFloat(m map[string]any, key string) (float64, error) {
	v, ok := m[key]
	if !ok {
		return 0, shared.WrapValidation("reqFloat", fmt.Errorf("missing field %q", key))
	}
	f, ok := v.(float64)
	if !ok {
		return 0, shared.WrapValidation("reqFloat", fmt.Errorf("field %q is not a number", key))
	}
	return f, nil
}

func reqBool(m map[string]any, key string) (bool, error) {
	v, ok := m[key]
	if !ok {
		return false, shared.WrapValidation("reqBool", fmt.Errorf("missing field %q", key))
	}
	b, ok := v.(bool)
	if !ok {
		return false, shared.WrapValidation("reqBool", fmt.Errorf("field %q is not a bool", key))
	}
	return b, nil
}

func optInt64(m map[string]any, key string, def int64) int64 {
	v, ok := m[key]
	if !ok {
		return def
	}
	f, ok := v.(float64)
	if !ok {
		return def
	}
	return int64(f)
}
