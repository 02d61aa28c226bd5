package resolve

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// BoolOrString models the shorthand fields that accept `null | bool | string`
// (e.g. environment.region, environment.node). The zero value is Unset, which
// means "inherit from the global defaults". An explicit `false` or `null` is
// Off and must stay distinguishable from Unset, otherwise entity-level
// disabling of an inherited toggle is impossible.
type BoolOrString struct {
	state bosState
	str   string
}

type bosState int

const (
	bosUnset bosState = iota
	bosOff
	bosOn
	bosString
)

// BoolValue returns a BoolOrString holding an explicit boolean.
func BoolValue(v bool) BoolOrString {
	if v {
		return BoolOrString{state: bosOn}
	}
	return BoolOrString{state: bosOff}
}

// StringValue returns a BoolOrString holding an explicit string.
func StringValue(s string) BoolOrString {
	return BoolOrString{state: bosString, str: s}
}

// IsUnset reports whether the field was absent from the input.
func (b BoolOrString) IsUnset() bool { return b.state == bosUnset }

// Enabled reports whether the field is `true` or carries a string value.
func (b BoolOrString) Enabled() bool { return b.state == bosOn || b.state == bosString }

// StringOr returns the carried string, or def when the field is boolean `true`.
func (b BoolOrString) StringOr(def string) string {
	if b.state == bosString {
		return b.str
	}
	return def
}

// Inherit returns b unless it is unset, in which case it returns the global value.
func (b BoolOrString) Inherit(global BoolOrString) BoolOrString {
	if b.IsUnset() {
		return global
	}
	return b
}

func (b BoolOrString) String() string {
	switch b.state {
	case bosUnset:
		return "<unset>"
	case bosOff:
		return "false"
	case bosOn:
		return "true"
	default:
		return b.str
	}
}

// UnmarshalYAML accepts booleans and strings. An explicit `key: null` never
// reaches this method: yaml.v3 zeroes the field for null nodes instead of
// calling the unmarshaler, so the enclosing mapping's unmarshaler observes
// the null and sets the Off state (see EnvSpec.UnmarshalYAML).
func (b *BoolOrString) UnmarshalYAML(node *yaml.Node) error {
	var asBool bool
	if err := node.Decode(&asBool); err == nil {
		*b = BoolValue(asBool)
		return nil
	}
	var asString string
	if err := node.Decode(&asString); err == nil {
		*b = StringValue(asString)
		return nil
	}
	return fmt.Errorf("line %d: expected bool or string", node.Line)
}

// UnmarshalTOML accepts booleans and strings. TOML has no null literal, so
// absent keys are the only way to express "inherit" there.
func (b *BoolOrString) UnmarshalTOML(v any) error {
	switch t := v.(type) {
	case bool:
		*b = BoolValue(t)
	case string:
		*b = StringValue(t)
	default:
		return fmt.Errorf("expected bool or string, got %T", v)
	}
	return nil
}
