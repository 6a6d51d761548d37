package conf

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
)

const (
	tagKey     = "conf"
	defaultKey = "conf_default"
)

// Checkout populates the struct pointed to by v. Each exported field is looked
// up by its `conf` tag (or its field name when the tag is absent) and decoded
// into the field's type. `conf:"-"` skips a field, `conf_default` supplies a
// value when the key is not configured anywhere. Embedded and nested structs
// are traversed.
//
// A slice of strings may also be passed; every element naming a key is
// replaced by that key's value.
func Checkout(v interface{}) error {
	rv := reflect.ValueOf(v)

	switch {
	case rv.Kind() == reflect.Ptr && !rv.IsNil() && rv.Elem().Kind() == reflect.Struct:
		return checkoutStruct(rv.Elem())
	case rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() == reflect.String:
		for i := 0; i < rv.Len(); i++ {
			rv.Index(i).SetString(GetEnv(rv.Index(i).String()))
		}
		return nil
	default:
		return fmt.Errorf("conf: Checkout requires a pointer to a struct or a string slice, got %T", v)
	}
}

func checkoutStruct(rv reflect.Value) error {
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		fv := rv.Field(i)

		tag := field.Tag.Get(tagKey)
		if tag == "-" {
			continue
		}

		if field.Type.Kind() == reflect.Struct && (field.Anonymous || tag == "") {
			if err := checkoutStruct(fv); err != nil {
				return err
			}
			continue
		}

		if !fv.CanSet() {
			continue
		}

		key := strings.Split(tag, ",")[0]
		if key == "" {
			key = field.Name
		}

		value, ok := LookupEnv(key)
		if !ok || value == "" {
			value, ok = field.Tag.Lookup(defaultKey)
		}
		if !ok {
			continue
		}

		if err := decode(value, fv.Addr().Interface()); err != nil {
			return errors.Wrapf(err, "conf: failed to decode %s into %s", key, field.Name)
		}
	}
	return nil
}

func decode(value string, target interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           target,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return err
	}
	return decoder.Decode(value)
}
