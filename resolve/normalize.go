package resolve

import (
	"sort"
)

// Entity is the normalized view of one service or function: every inheritable
// field has been replaced by its effective value, but nothing has been
// expanded or validated yet. Normalization is total over any well-formed raw
// tree.
type Entity struct {
	Name string
	Kind EntityKind

	// Service-only
	Image  string
	Source string

	// Function-only
	Runtime    string
	Timeout    int
	MemorySize int
	Layers     []string
	Triggers   TriggerSpec

	HTTP *HTTPSpec

	Env           EnvSpec
	Secrets       map[string]string
	Permissions   *PermissionSpec
	NetworkAccess NetworkAccessSpec
	KMS           BoolOrString
}

// httpSpec returns the HTTP exposure of the entity regardless of kind:
// services declare it directly, functions via the http trigger.
func (e *Entity) httpSpec() *HTTPSpec {
	if e.Kind == KindService {
		return e.HTTP
	}
	return e.Triggers.HTTP
}

// Normalize applies GlobalDefaults to every entity field-by-field and returns
// the entities sorted by kind (services first) then name. An unset field
// inherits the global value; an explicitly-set field (including explicit
// null/false) is kept verbatim.
func Normalize(raw *RawConfig) []*Entity {
	out := make([]*Entity, 0, len(raw.Services)+len(raw.Functions))

	for _, name := range sortedKeys(raw.Services) {
		out = append(out, normalizeService(name, raw.Services[name], &raw.Defaults))
	}
	for _, name := range sortedKeys(raw.Functions) {
		out = append(out, normalizeFunction(name, raw.Functions[name], &raw.Defaults))
	}
	return out
}

func normalizeService(name string, s *ServiceSpec, g *GlobalDefaults) *Entity {
	return &Entity{
		Name:          name,
		Kind:          KindService,
		Image:         s.Image,
		Source:        s.Source,
		HTTP:          s.HTTP,
		Env:           normalizeEnv(s.Env, g.Env),
		Secrets:       s.Secrets,
		Permissions:   s.Permissions,
		NetworkAccess: s.NetworkAccess.Inherit(g.NetworkAccess),
		KMS:           s.KMS.Inherit(g.KMS),
	}
}

func normalizeFunction(name string, f *FunctionSpec, g *GlobalDefaults) *Entity {
	e := &Entity{
		Name:          name,
		Kind:          KindFunction,
		Runtime:       inheritString(f.Runtime, g.Runtime),
		Timeout:       inheritInt(f.Timeout, g.Timeout),
		MemorySize:    inheritInt(f.MemorySize, g.MemorySize),
		Triggers:      f.Triggers,
		Env:           normalizeEnv(f.Env, g.Env),
		Secrets:       f.Secrets,
		Permissions:   f.Permissions,
		NetworkAccess: f.NetworkAccess.Inherit(g.NetworkAccess),
		KMS:           f.KMS.Inherit(g.KMS),
	}
	e.Layers = f.Layers
	if e.Layers == nil {
		e.Layers = g.Layers
	}
	return e
}

// normalizeEnv inherits each shorthand toggle independently. The variables
// maps are kept separate here; the env resolver merges them with entity keys
// winning.
func normalizeEnv(e, g EnvSpec) EnvSpec {
	return EnvSpec{
		Region:    e.Region.Inherit(g.Region),
		Node:      e.Node.Inherit(g.Node),
		S3:        e.S3.Inherit(g.S3),
		Database:  e.Database.Inherit(g.Database),
		Variables: e.Variables,
	}
}

func inheritString(v *string, def string) string {
	if v == nil {
		return def
	}
	return *v
}

func inheritInt(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
