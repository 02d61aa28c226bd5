// Package resolve implements the configuration resolution and merge engine:
// a pure function from the operator-authored configuration tree (plus a set
// of read-only resource lookups) to the fully-merged, validated model the
// provisioning layer consumes.
//
// The pipeline is one direction only: raw config -> normalized entities ->
// feature flags -> per-entity bundles (env, secrets, permissions, network)
// -> routing decisions -> global rule dedup. Nothing loops back, nothing is
// cached between passes, and no I/O happens inside the package.
package resolve

import (
	"fmt"

	"go.uber.org/zap"
)

// Options tunes resolution behavior that the configuration format leaves
// ambiguous on purpose.
type Options struct {
	// AllowDatabaseKeyOverride keeps a user-declared secret mapping that
	// collides with the database-derived env var instead of failing. Off by
	// default: silent overwrites hide typos.
	AllowDatabaseKeyOverride bool

	// Logger receives debug output during resolution. Nil disables logging.
	Logger *zap.Logger
}

func (o *Options) logger() *zap.Logger {
	if o == nil || o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

// Resolve runs the full pipeline over raw. It either returns a complete
// ResolvedConfig or an *IssueList carrying every validation failure at once;
// it never produces partial output. Repeated calls on identical input yield
// identical output, including list ordering.
func Resolve(raw *RawConfig, lookups Lookups, opts *Options) (*ResolvedConfig, error) {
	var o Options
	if opts != nil {
		o = *opts
	}
	log := o.logger().Named("resolve")

	entities := Normalize(raw)
	log.Debug("normalized entities", zap.Int("count", len(entities)))

	if issues := validate(raw, entities, lookups, o); issues != nil {
		log.Debug("validation failed", zap.Int("issues", len(issues.Issues)))
		return nil, issues
	}

	cfg := &ResolvedConfig{
		Project:  raw.Project,
		Features: DetectFeatures(entities, &raw.Defaults, lookups),
	}

	var all []*ResolvedEntity
	for _, e := range entities {
		resolved := resolveEntity(e, raw, lookups, o, cfg)
		all = append(all, resolved)
		if e.Kind == KindService {
			cfg.Services = append(cfg.Services, resolved)
		} else {
			cfg.Functions = append(cfg.Functions, resolved)
		}
	}

	// Barrier: every entity has produced its local rule set before the
	// shared dedup pass runs.
	assignPriorities(all)
	cfg.SharedNetworkRules = DedupNetworkRules(all)

	log.Debug("resolution complete",
		zap.Int("services", len(cfg.Services)),
		zap.Int("functions", len(cfg.Functions)),
		zap.Int("sharedRules", len(cfg.SharedNetworkRules)),
		zap.Int("warnings", len(cfg.Warnings)))
	return cfg, nil
}

func resolveEntity(e *Entity, raw *RawConfig, lookups Lookups, opts Options, cfg *ResolvedConfig) *ResolvedEntity {
	kms, err := ParseKmsMode(e.KMS)
	if err != nil {
		// Rejected during validation; unreachable here.
		panic(err)
	}

	resolved := &ResolvedEntity{
		Name:        e.Name,
		Kind:        e.Kind,
		Image:       e.Image,
		Source:      e.Source,
		Runtime:     e.Runtime,
		Timeout:     e.Timeout,
		MemorySize:  e.MemorySize,
		Layers:      append([]string(nil), e.Layers...),
		Triggers:    e.Triggers,
		KMS:         kms,
		Env:         resolveEnv(e, &raw.Defaults, raw.Project, lookups),
		Secrets:     resolveSecrets(e, &raw.Defaults, lookups, opts),
		Permissions: MergePermissions(raw.Defaults.Permissions, e.Permissions),
		Network:     normalizeNetwork(e.NetworkAccess),
		Routing:     classifyRouting(e),
	}

	if redundantOverride(raw.Defaults.Permissions, e.Permissions) {
		cfg.warn(e.Name, "permissions",
			"override is identical to the global defaults but still provisions a custom role; drop it to reuse the shared role")
	}
	for i, r := range resolved.Network.Rules {
		if sparsePorts(r.Ports) {
			from, to := r.PortRange()
			cfg.warn(e.Name, fmt.Sprintf("network_access[%d].ports", i),
				fmt.Sprintf("sparse port set is provisioned as the contiguous range %d-%d", from, to))
		}
	}
	if opts.AllowDatabaseKeyOverride && e.Env.Database.Enabled() {
		if secretDeclared(e.Env.Database.EnvName(), &raw.Defaults, e) {
			cfg.warn(e.Name, "secrets."+e.Env.Database.EnvName(),
				"user-declared mapping overrides the database-derived secret entry")
		}
	}

	return resolved
}

func (c *ResolvedConfig) warn(entity, field, message string) {
	c.Warnings = append(c.Warnings, Warning{Entity: entity, Field: field, Message: message})
}
