package resolve

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// DefaultDatabaseEnvName is the canonical environment variable a database
// declaration resolves to when no explicit name is given.
const DefaultDatabaseEnvName = "DATABASE_URL"

// RawConfig is the operator-authored configuration tree before any
// resolution. All optional fields default to their "unset" state so the
// pipeline never has to probe for missing keys.
type RawConfig struct {
	Project   ProjectSpec              `yaml:"project" toml:"project"`
	Defaults  GlobalDefaults           `yaml:"defaults" toml:"defaults"`
	Services  map[string]*ServiceSpec  `yaml:"services" toml:"services"`
	Functions map[string]*FunctionSpec `yaml:"functions" toml:"functions"`
}

// ProjectSpec identifies the deployment and carries the values shorthand
// environment toggles expand into.
type ProjectSpec struct {
	Name        string `yaml:"name" toml:"name"`
	Region      string `yaml:"region" toml:"region"`
	Environment string `yaml:"environment" toml:"environment"`
	Domain      string `yaml:"domain" toml:"domain"`
}

// GlobalDefaults is the project-wide baseline every entity inherits from.
// Per-entity overrides are applied field by field, never wholesale.
type GlobalDefaults struct {
	Runtime       string            `yaml:"runtime" toml:"runtime"`
	Timeout       int               `yaml:"timeout" toml:"timeout"`
	MemorySize    int               `yaml:"memory_size" toml:"memory_size"`
	Layers        []string          `yaml:"layers" toml:"layers"`
	KMS           BoolOrString      `yaml:"kms" toml:"kms"`
	Env           EnvSpec           `yaml:"environment" toml:"environment"`
	Secrets       map[string]string `yaml:"secrets" toml:"secrets"`
	Permissions   PermissionSpec    `yaml:"permissions" toml:"permissions"`
	NetworkAccess NetworkAccessSpec `yaml:"network_access" toml:"network_access"`
}

// EnvSpec groups the shorthand environment toggles and the free-form
// variables map.
type EnvSpec struct {
	Region    BoolOrString      `yaml:"region" toml:"region"`
	Node      BoolOrString      `yaml:"node" toml:"node"`
	S3        BoolOrString      `yaml:"s3" toml:"s3"`
	Database  DatabaseSpec      `yaml:"database" toml:"database"`
	Variables map[string]string `yaml:"variables" toml:"variables"`
}

// UnmarshalYAML decodes the mapping, then re-walks it for explicit null
// values. yaml.v3 zeroes a field for a `!!null` node without ever calling
// its unmarshaler, which would collapse `node: null` into an absent key and
// make the entity inherit the very default it opted out of. Observing the
// null at the mapping level keeps Off distinguishable from Unset.
func (e *EnvSpec) UnmarshalYAML(node *yaml.Node) error {
	type plain EnvSpec
	if err := node.Decode((*plain)(e)); err != nil {
		return err
	}
	for _, key := range yamlNullKeys(node) {
		switch key {
		case "region":
			e.Region = BoolValue(false)
		case "node":
			e.Node = BoolValue(false)
		case "s3":
			e.S3 = BoolValue(false)
		case "database":
			e.Database = DatabaseDisabled()
		}
	}
	return nil
}

// yamlNullKeys returns the keys of node whose value is an explicit null.
func yamlNullKeys(node *yaml.Node) []string {
	if node.Kind != yaml.MappingNode {
		return nil
	}
	var keys []string
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i+1].Tag == "!!null" {
			keys = append(keys, node.Content[i].Value)
		}
	}
	return keys
}

// PermissionSpec holds the IAM toggles and extra policy statements. On an
// entity it is used behind a pointer: nil means "inherit the global spec
// wholesale"; non-nil means field-by-field override with statements appended.
type PermissionSpec struct {
	S3         *bool       `yaml:"s3" toml:"s3"`
	SES        *bool       `yaml:"ses" toml:"ses"`
	Fargate    *bool       `yaml:"fargate" toml:"fargate"`
	Statements []Statement `yaml:"statements" toml:"statements"`
}

// Statement is one IAM policy statement in resolved order. Policy document
// assembly is the provisioning layer's job; the resolver only orders these.
type Statement struct {
	Effect    string   `yaml:"effect" toml:"effect"`
	Actions   []string `yaml:"actions" toml:"actions"`
	Resources []string `yaml:"resources" toml:"resources"`
}

// NetworkRule is one explicit egress rule. Multiple ports are provisioned as
// the contiguous range [min, max]; see the sparse-ports warning in network.go.
type NetworkRule struct {
	Protocol string   `yaml:"protocol" toml:"protocol"`
	Ports    []uint16 `yaml:"ports" toml:"ports"`
	CIDRs    []string `yaml:"cidrs" toml:"cidrs"`
}

// HTTPSpec declares how an entity is exposed over HTTP. Subdomain and
// PathPattern are mutually exclusive; with neither set the entity receives
// catch-all routing.
type HTTPSpec struct {
	Port        int    `yaml:"port" toml:"port"`
	Subdomain   string `yaml:"subdomain" toml:"subdomain"`
	PathPattern string `yaml:"path_pattern" toml:"path_pattern"`
	CORS        bool   `yaml:"cors" toml:"cors"`
}

// TriggerSpec declares what invokes a function. Each trigger is independently
// optional; a function may carry several.
type TriggerSpec struct {
	Schedule string      `yaml:"schedule" toml:"schedule"`
	SQS      *SQSTrigger `yaml:"sqs" toml:"sqs"`
	S3       *S3Trigger  `yaml:"s3" toml:"s3"`
	HTTP     *HTTPSpec   `yaml:"http" toml:"http"`
}

// SQSTrigger subscribes a function to a queue.
type SQSTrigger struct {
	Queue     string `yaml:"queue" toml:"queue"`
	BatchSize int    `yaml:"batch_size" toml:"batch_size"`
}

// S3Trigger subscribes a function to bucket notifications.
type S3Trigger struct {
	Events []string `yaml:"events" toml:"events"`
	Prefix string   `yaml:"prefix" toml:"prefix"`
}

// EntityOverrides are the fields shared by services and functions where an
// absent value means "inherit from GlobalDefaults".
type EntityOverrides struct {
	Env           EnvSpec           `yaml:"environment" toml:"environment"`
	Secrets       map[string]string `yaml:"secrets" toml:"secrets"`
	Permissions   *PermissionSpec   `yaml:"permissions" toml:"permissions"`
	NetworkAccess NetworkAccessSpec `yaml:"network_access" toml:"network_access"`
	KMS           BoolOrString      `yaml:"kms" toml:"kms"`
}

// applyExplicitNulls distinguishes `key: null` from an absent key for the
// override fields whose null form carries meaning; see EnvSpec.UnmarshalYAML
// for why the enclosing mapping has to do this.
func (o *EntityOverrides) applyExplicitNulls(node *yaml.Node) {
	for _, key := range yamlNullKeys(node) {
		switch key {
		case "network_access":
			o.NetworkAccess = NetworkBlockedSpec()
		case "kms":
			o.KMS = BoolValue(false)
		}
	}
}

// ServiceSpec is one long-running container service. Exactly one of Image
// (pre-built) or Source (built from a local context) must be set.
type ServiceSpec struct {
	EntityOverrides `yaml:",inline"`

	Image  string    `yaml:"image" toml:"image"`
	Source string    `yaml:"source" toml:"source"`
	HTTP   *HTTPSpec `yaml:"http" toml:"http"`
}

func (s *ServiceSpec) UnmarshalYAML(node *yaml.Node) error {
	type plain ServiceSpec
	if err := node.Decode((*plain)(s)); err != nil {
		return err
	}
	s.applyExplicitNulls(node)
	return nil
}

// FunctionSpec is one Lambda function. Runtime, Timeout, MemorySize, and
// Layers inherit from GlobalDefaults when nil.
type FunctionSpec struct {
	EntityOverrides `yaml:",inline"`

	Runtime    *string     `yaml:"runtime" toml:"runtime"`
	Timeout    *int        `yaml:"timeout" toml:"timeout"`
	MemorySize *int        `yaml:"memory_size" toml:"memory_size"`
	Layers     []string    `yaml:"layers" toml:"layers"`
	Triggers   TriggerSpec `yaml:"triggers" toml:"triggers"`
}

func (f *FunctionSpec) UnmarshalYAML(node *yaml.Node) error {
	type plain FunctionSpec
	if err := node.Decode((*plain)(f)); err != nil {
		return err
	}
	f.applyExplicitNulls(node)
	return nil
}

// ---------------------------------------------------------------------------
// DatabaseSpec
// ---------------------------------------------------------------------------

// DatabaseSpec is the `null | true | "<env name>" | {name, secret}` shorthand
// for wiring a database connection string into an entity. The zero value is
// unset (inherit); an explicit null disables the connection even when the
// global default enables it.
type DatabaseSpec struct {
	state  dbState
	name   string
	secret string
}

type dbState int

const (
	dbUnset dbState = iota
	dbOff
	dbDefault
	dbNamed
	dbObject
)

// DatabaseEnabled returns a DatabaseSpec equivalent to `database: true`.
func DatabaseEnabled() DatabaseSpec { return DatabaseSpec{state: dbDefault} }

// DatabaseNamed returns a DatabaseSpec equivalent to `database: "<name>"`.
func DatabaseNamed(name string) DatabaseSpec { return DatabaseSpec{state: dbNamed, name: name} }

// DatabaseObject returns the fully-specified form `{name, secret}`.
func DatabaseObject(name, secret string) DatabaseSpec {
	return DatabaseSpec{state: dbObject, name: name, secret: secret}
}

// DatabaseDisabled returns a DatabaseSpec equivalent to `database: null`.
func DatabaseDisabled() DatabaseSpec { return DatabaseSpec{state: dbOff} }

// IsUnset reports whether the field was absent from the input.
func (d DatabaseSpec) IsUnset() bool { return d.state == dbUnset }

// Enabled reports whether a database connection is requested.
func (d DatabaseSpec) Enabled() bool { return d.state >= dbDefault }

// EnvName returns the environment variable the connection string binds to.
// All shorthand forms collapse to DefaultDatabaseEnvName unless an explicit
// name was given.
func (d DatabaseSpec) EnvName() string {
	if d.name != "" {
		return d.name
	}
	return DefaultDatabaseEnvName
}

// SecretRef returns the secret identifier to resolve, or empty for the
// project's default database secret.
func (d DatabaseSpec) SecretRef() string { return d.secret }

// Inherit returns d unless it is unset, in which case it returns the global value.
func (d DatabaseSpec) Inherit(global DatabaseSpec) DatabaseSpec {
	if d.IsUnset() {
		return global
	}
	return d
}

type dbObjectForm struct {
	Name   string `yaml:"name" toml:"name"`
	Secret string `yaml:"secret" toml:"secret"`
}

// UnmarshalYAML accepts true/false, a string env-var name, or the
// {name, secret} object form. The explicit-null form is observed by the
// enclosing mapping's unmarshaler; yaml.v3 never hands null nodes to this
// method.
func (d *DatabaseSpec) UnmarshalYAML(node *yaml.Node) error {
	var asBool bool
	if err := node.Decode(&asBool); err == nil {
		if asBool {
			*d = DatabaseEnabled()
		} else {
			*d = DatabaseDisabled()
		}
		return nil
	}
	var asString string
	if err := node.Decode(&asString); err == nil {
		*d = DatabaseNamed(asString)
		return nil
	}
	var obj dbObjectForm
	if err := node.Decode(&obj); err == nil {
		*d = DatabaseObject(obj.Name, obj.Secret)
		return nil
	}
	return fmt.Errorf("line %d: expected bool, string, or {name, secret}", node.Line)
}

// UnmarshalTOML accepts booleans, strings, and the table form.
func (d *DatabaseSpec) UnmarshalTOML(v any) error {
	switch t := v.(type) {
	case bool:
		if t {
			*d = DatabaseEnabled()
		} else {
			*d = DatabaseDisabled()
		}
	case string:
		*d = DatabaseNamed(t)
	case map[string]any:
		var obj dbObjectForm
		if s, ok := t["name"].(string); ok {
			obj.Name = s
		}
		if s, ok := t["secret"].(string); ok {
			obj.Secret = s
		}
		*d = DatabaseObject(obj.Name, obj.Secret)
	default:
		return fmt.Errorf("expected bool, string, or table, got %T", v)
	}
	return nil
}

// ---------------------------------------------------------------------------
// NetworkAccessSpec
// ---------------------------------------------------------------------------

// NetworkAccessSpec is the `null | true | [rules]` shorthand for entity
// egress. The zero value is unset (inherit); explicit null blocks everything
// beyond the entity's own enabled integrations.
type NetworkAccessSpec struct {
	state netState
	rules []NetworkRule
}

type netState int

const (
	netUnset netState = iota
	netBlocked
	netAllowAll
	netExplicit
)

// NetworkBlockedSpec returns the explicit-null form.
func NetworkBlockedSpec() NetworkAccessSpec { return NetworkAccessSpec{state: netBlocked} }

// NetworkAllowAllSpec returns the `true` form.
func NetworkAllowAllSpec() NetworkAccessSpec { return NetworkAccessSpec{state: netAllowAll} }

// NetworkRulesSpec returns the explicit rule-list form.
func NetworkRulesSpec(rules []NetworkRule) NetworkAccessSpec {
	return NetworkAccessSpec{state: netExplicit, rules: rules}
}

// IsUnset reports whether the field was absent from the input.
func (n NetworkAccessSpec) IsUnset() bool { return n.state == netUnset }

// Rules returns the explicit rules, nil for the other forms.
func (n NetworkAccessSpec) Rules() []NetworkRule { return n.rules }

// Inherit returns n unless it is unset, in which case it returns the global value.
func (n NetworkAccessSpec) Inherit(global NetworkAccessSpec) NetworkAccessSpec {
	if n.IsUnset() {
		return global
	}
	return n
}

// UnmarshalYAML accepts true/false or a list of rules. The explicit-null
// form is observed by the enclosing mapping's unmarshaler; yaml.v3 never
// hands null nodes to this method.
func (n *NetworkAccessSpec) UnmarshalYAML(node *yaml.Node) error {
	var asBool bool
	if err := node.Decode(&asBool); err == nil {
		if asBool {
			*n = NetworkAllowAllSpec()
		} else {
			*n = NetworkBlockedSpec()
		}
		return nil
	}
	var rules []NetworkRule
	if err := node.Decode(&rules); err == nil {
		*n = NetworkRulesSpec(rules)
		return nil
	}
	return fmt.Errorf("line %d: expected bool or a rule list", node.Line)
}

// UnmarshalTOML accepts booleans or an array of rule tables.
func (n *NetworkAccessSpec) UnmarshalTOML(v any) error {
	switch t := v.(type) {
	case bool:
		if t {
			*n = NetworkAllowAllSpec()
		} else {
			*n = NetworkBlockedSpec()
		}
	case []map[string]any:
		rules := make([]NetworkRule, 0, len(t))
		for _, raw := range t {
			rules = append(rules, networkRuleFromTable(raw))
		}
		*n = NetworkRulesSpec(rules)
	case []any:
		rules := make([]NetworkRule, 0, len(t))
		for _, item := range t {
			table, ok := item.(map[string]any)
			if !ok {
				return fmt.Errorf("expected rule table, got %T", item)
			}
			rules = append(rules, networkRuleFromTable(table))
		}
		*n = NetworkRulesSpec(rules)
	default:
		return fmt.Errorf("expected bool or rule array, got %T", v)
	}
	return nil
}

func networkRuleFromTable(t map[string]any) NetworkRule {
	var r NetworkRule
	if s, ok := t["protocol"].(string); ok {
		r.Protocol = s
	}
	if ports, ok := t["ports"].([]any); ok {
		for _, p := range ports {
			if i, ok := p.(int64); ok {
				r.Ports = append(r.Ports, uint16(i))
			}
		}
	}
	if cidrs, ok := t["cidrs"].([]any); ok {
		for _, c := range cidrs {
			if s, ok := c.(string); ok {
				r.CIDRs = append(r.CIDRs, s)
			}
		}
	}
	return r
}
