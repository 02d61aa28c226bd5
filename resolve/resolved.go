package resolve

import "strings"

// EntityKind distinguishes services from functions in the resolved model.
type EntityKind string

const (
	KindService  EntityKind = "service"
	KindFunction EntityKind = "function"
)

// EnvVar is one resolved environment variable.
type EnvVar struct {
	Name  string
	Value string
}

// SecretRef is one resolved secret injection. ValueFrom is a fully-qualified
// Secrets Manager ARN, suffixed with ":<jsonKey>::" when a single JSON field
// inside the secret is selected.
type SecretRef struct {
	Name      string
	ValueFrom string
}

// Components decomposes ValueFrom back into the secret ARN and the optional
// JSON key, for consumers that address the secret and the field separately.
func (r SecretRef) Components() (arn, jsonKey string) {
	v := strings.TrimSuffix(r.ValueFrom, "::")
	if v == r.ValueFrom {
		return v, ""
	}
	i := strings.LastIndex(v, ":")
	return v[:i], v[i+1:]
}

// ResolvedPermissions is the merged IAM surface for one entity. SharedRole is
// true when the entity declared no permission override and can reuse the
// project-wide role; it is determined by override presence, not by value
// equality (a value-equal override still gets a custom role, with a warning).
type ResolvedPermissions struct {
	S3         bool
	SES        bool
	Fargate    bool
	Statements []Statement
	SharedRole bool
}

// NetworkMode classifies the canonical egress posture of an entity.
type NetworkMode string

const (
	// NetworkBlocked permits only the entity's own enabled integrations.
	NetworkBlocked NetworkMode = "blocked"
	// NetworkAllowAll permits unrestricted egress.
	NetworkAllowAll NetworkMode = "allow-all"
	// NetworkExplicit permits exactly the listed rules.
	NetworkExplicit NetworkMode = "explicit"
)

// ResolvedNetwork is the per-entity canonical view of network access. Rules
// is populated only for NetworkExplicit.
type ResolvedNetwork struct {
	Mode  NetworkMode
	Rules []NetworkRule
}

// RoutingKind is the placement an HTTP-exposing entity resolved to.
type RoutingKind string

const (
	RoutingNone           RoutingKind = "none"
	RoutingAlbPath        RoutingKind = "alb-path"
	RoutingAlbHost        RoutingKind = "alb-host"
	RoutingApigwSubdomain RoutingKind = "apigw-subdomain"
	RoutingApigwPath      RoutingKind = "apigw-path"
	RoutingCloudfrontPath RoutingKind = "cloudfront-path"
)

// RoutingDecision carries everything the provisioning layer needs to place
// one entity behind an edge: the kind, the selector (host or path), the
// backend port, and a deterministic rule priority.
type RoutingDecision struct {
	Kind        RoutingKind
	Subdomain   string
	PathPattern string
	Port        int
	Priority    int
	// CatchAll marks a synthesized selector for an http block that named
	// neither a subdomain nor a path pattern.
	CatchAll bool
	CORS     bool
}

// FeatureFlags are the cross-cutting booleans derived from the whole entity
// set. Each flag is an order-independent existential reduction.
type FeatureFlags struct {
	EcrNeeded        bool
	AlbNeeded        bool
	ApiGatewayNeeded bool
	CloudFrontNeeded bool
	RdsNeeded        bool
	LambdaVpcNeeded  bool
	S3Needed         bool
	SesNeeded        bool
}

// Warning is an operator-facing advisory about an accepted-but-ambiguous
// configuration. Warnings never abort resolution.
type Warning struct {
	Entity  string
	Field   string
	Message string
}

// ResolvedEntity is the fully-merged bundle for one service or function,
// ready for provisioning. All list fields are deterministically ordered.
type ResolvedEntity struct {
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

	KMS         KmsMode
	Env         []EnvVar
	Secrets     []SecretRef
	Permissions ResolvedPermissions
	Network     ResolvedNetwork
	Routing     RoutingDecision
}

// ResolvedConfig is the output of one resolution pass: the immutable model
// every downstream consumer receives. It is rebuilt from scratch on every
// evaluation.
type ResolvedConfig struct {
	Project  ProjectSpec
	Features FeatureFlags

	// Services and Functions are sorted by name.
	Services  []*ResolvedEntity
	Functions []*ResolvedEntity

	// SharedNetworkRules is the deduplicated global rule view for shared
	// security-group provisioning. Per-entity rules stay available on each
	// entity's Network field.
	SharedNetworkRules []NetworkRule

	Warnings []Warning
}

// Entity returns the resolved entity with the given name, or nil.
func (c *ResolvedConfig) Entity(name string) *ResolvedEntity {
	for _, e := range c.Services {
		if e.Name == name {
			return e
		}
	}
	for _, e := range c.Functions {
		if e.Name == name {
			return e
		}
	}
	return nil
}

// DefaultDatabaseJSONKey is the JSON field inside the database secret holding
// the active connection string.
const DefaultDatabaseJSONKey = "DATABASE_URL_ACTIVE"

// Lookups are the externally-supplied read-only inputs: identifiers of
// already-provisioned resources the resolver must plumb through. The resolver
// never performs live calls; everything it needs is handed in up front.
type Lookups struct {
	// SecretArns maps short secret identifiers to fully-qualified ARNs.
	SecretArns map[string]string
	// DatabaseSecretArn is the project's database-URL secret.
	DatabaseSecretArn string
	// DatabaseJSONKey overrides DefaultDatabaseJSONKey when non-empty.
	DatabaseJSONKey string
	// S3Enabled gates the s3 environment toggle; BucketName is its value.
	S3Enabled  bool
	BucketName string
}

func (l Lookups) databaseJSONKey() string {
	if l.DatabaseJSONKey != "" {
		return l.DatabaseJSONKey
	}
	return DefaultDatabaseJSONKey
}
