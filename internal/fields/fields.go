// Package fields decodes loosely typed remote field maps into structs.
//
// Remote services do not always answer with the expected scalar for a field: a missing value may
// come back as a structured placeholder holding attributes only. Such values are decoded as absent,
// that is the zero value of the field, and never surfaced with the wrong type.
package fields

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-viper/mapstructure/v2"
)

// Decode decodes input, usually a map[string]any, into the struct pointed to by target.
//
// Target fields are matched on their mapstructure tag. Per field kind:
//   - string fields only accept strings;
//   - integer fields accept numbers and strings holding an integer;
//   - boolean fields accept booleans and strings holding a boolean.
//
// Any other value leaves the field to its zero value.
func Decode(input any, target any) error {
	decoder, err := mapstructure.NewDecoder(decoderConfig(target))
	if err != nil {
		return fmt.Errorf("failed to create decoder: %v", err)
	}

	if err := decoder.Decode(input); err != nil {
		return fmt.Errorf("data does not match expected structure: %w", err)
	}
	return nil
}

func decoderConfig(target any) *mapstructure.DecoderConfig {
	return &mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.ComposeDecodeHookFunc(absentOnMismatch),
		WeaklyTypedInput: true,
		Result:           target,
	}
}

// absentOnMismatch replaces values which do not have the expected scalar shape by the zero value of the target.
func absentOnMismatch(from reflect.Type, to reflect.Type, data any) (any, error) {
	switch to.Kind() {
	case reflect.String:
		if from.Kind() != reflect.String {
			return reflect.Zero(to).Interface(), nil
		}
		return data, nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		switch from.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
			reflect.Float32, reflect.Float64:
			return data, nil
		case reflect.String:
			v, err := strconv.ParseInt(strings.TrimSpace(reflect.ValueOf(data).String()), 10, 64)
			if err != nil {
				return reflect.Zero(to).Interface(), nil
			}
			return v, nil
		default:
			return reflect.Zero(to).Interface(), nil
		}

	case reflect.Bool:
		switch from.Kind() {
		case reflect.Bool:
			return data, nil
		case reflect.String:
			v, err := strconv.ParseBool(strings.TrimSpace(reflect.ValueOf(data).String()))
			if err != nil {
				return false, nil
			}
			return v, nil
		default:
			return false, nil
		}

	default:
		return data, nil
	}
}
