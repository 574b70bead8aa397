package config

import (
	"fmt"
	"reflect"
	"strings"

	"go.yaml.in/yaml/v3"
)

// Redacted replaces non-empty credential values in the output of String.
const Redacted = "REDACTED"

// String renders the configuration as YAML keyed by mapstructure tags.
// Credentials and connection URLs are replaced with Redacted.
func (c *Config) String() string {
	out, err := yaml.Marshal(redactedTree(reflect.ValueOf(c).Elem()))
	if err != nil {
		return fmt.Sprintf("<unprintable configuration: %v>", err)
	}
	return string(out)
}

func redactedTree(v reflect.Value) map[string]any {
	tree := make(map[string]any, v.NumField())
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		key := field.Name
		if tag := field.Tag.Get("mapstructure"); tag != "" && tag != "-" {
			key = tag
		}
		tree[key] = redactedValue(key, v.Field(i))
	}
	return tree
}

func redactedValue(key string, value reflect.Value) any {
	switch {
	case value.Kind() == reflect.Struct:
		return redactedTree(value)
	case isSecret(key) && !value.IsZero():
		return Redacted
	}
	if s, ok := value.Interface().(fmt.Stringer); ok {
		return s.String()
	}
	if value.Kind() == reflect.Slice && value.IsNil() {
		return []any{}
	}
	return value.Interface()
}

func isSecret(key string) bool {
	key = strings.ToLower(key)
	return strings.Contains(key, "secret") || strings.Contains(key, "access_key") ||
		strings.Contains(key, "password") || key == "url"
}
