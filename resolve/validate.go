package resolve

import (
	"fmt"
	"net"
	"sort"
	"strings"
)

// Rule identifiers attached to validation issues so operators can grep for
// the exact check that fired.
const (
	RuleImageSource       = "image-xor-source"
	RuleRoutingExclusive  = "subdomain-xor-path"
	RuleSubdomainDepth    = "subdomain-depth"
	RuleUnknownSecret     = "unknown-secret"
	RuleMissingDbSecret   = "missing-database-secret"
	RuleSecretCollision   = "database-key-collision"
	RuleBadNetworkRule    = "bad-network-rule"
	RuleBadKms            = "bad-kms"
	RuleProjectIncomplete = "project-incomplete"
)

// Issue is one validation failure, precise enough for an operator managing
// dozens of entities: which entity, which field, which rule.
type Issue struct {
	Entity  string
	Field   string
	Rule    string
	Message string
}

func (i Issue) String() string {
	scope := i.Entity
	if scope == "" {
		scope = "project"
	}
	return fmt.Sprintf("%s: %s: %s (%s)", scope, i.Field, i.Message, i.Rule)
}

// IssueList is the batch error returned when validation fails. Resolution is
// all-or-nothing: every detected issue is reported together and no partial
// output is produced.
type IssueList struct {
	Issues []Issue
}

func (l *IssueList) Error() string {
	if len(l.Issues) == 1 {
		return "invalid configuration: " + l.Issues[0].String()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "invalid configuration (%d issues):", len(l.Issues))
	for _, i := range l.Issues {
		b.WriteString("\n  - ")
		b.WriteString(i.String())
	}
	return b.String()
}

func (l *IssueList) add(entity, field, rule, format string, args ...any) {
	l.Issues = append(l.Issues, Issue{
		Entity:  entity,
		Field:   field,
		Rule:    rule,
		Message: fmt.Sprintf(format, args...),
	})
}

func (l *IssueList) empty() bool { return len(l.Issues) == 0 }

// maxRoutableDomainLabels is the deepest project domain that still admits
// subdomain routing: an apex like "example.com". A project domain that is
// itself a subdomain ("tenant.example.com") would push host-routed entities
// two levels below the apex, which the wildcard certificate cannot cover, so
// it is rejected outright rather than silently degraded to path routing.
const maxRoutableDomainLabels = 2

func subdomainRoutingAllowed(domain string) bool {
	return len(strings.Split(domain, ".")) <= maxRoutableDomainLabels
}

// validate runs every schema, mutual-exclusion, and cross-reference check
// over the normalized entities. It returns nil when the configuration is
// clean.
func validate(raw *RawConfig, entities []*Entity, lookups Lookups, opts Options) *IssueList {
	issues := &IssueList{}

	if raw.Project.Name == "" {
		issues.add("", "project.name", RuleProjectIncomplete, "project name is required")
	}
	if raw.Project.Region == "" {
		issues.add("", "project.region", RuleProjectIncomplete, "project region is required")
	}

	for _, e := range entities {
		validateEntity(e, raw, lookups, opts, issues)
	}

	// Global defaults carry secrets and rules too; check them once under the
	// project scope so a bad default is reported even with zero entities.
	validateSecretRefs("", raw.Defaults.Secrets, lookups, issues)
	validateRules("", "defaults.network_access", raw.Defaults.NetworkAccess.Rules(), issues)
	if _, err := ParseKmsMode(raw.Defaults.KMS); err != nil {
		issues.add("", "defaults.kms", RuleBadKms, "%v", err)
	}

	if issues.empty() {
		return nil
	}
	return issues
}

func validateEntity(e *Entity, raw *RawConfig, lookups Lookups, opts Options, issues *IssueList) {
	project := raw.Project
	if e.Kind == KindService {
		switch {
		case e.Image == "" && e.Source == "":
			issues.add(e.Name, "image/source", RuleImageSource, "one of image or source must be set")
		case e.Image != "" && e.Source != "":
			issues.add(e.Name, "image/source", RuleImageSource, "image and source are mutually exclusive")
		}
	}

	if http := e.httpSpec(); http != nil {
		if http.Subdomain != "" && http.PathPattern != "" {
			issues.add(e.Name, "http", RuleRoutingExclusive,
				"subdomain %q and path_pattern %q are mutually exclusive", http.Subdomain, http.PathPattern)
		}
		if http.Subdomain != "" && !subdomainRoutingAllowed(project.Domain) {
			issues.add(e.Name, "http.subdomain", RuleSubdomainDepth,
				"subdomain routing requires an apex project domain; %q is already a subdomain", project.Domain)
		}
	}

	validateSecretRefs(e.Name, e.Secrets, lookups, issues)

	if e.Env.Database.Enabled() {
		ref := e.Env.Database.SecretRef()
		switch {
		case ref == "" && lookups.DatabaseSecretArn == "":
			issues.add(e.Name, "environment.database", RuleMissingDbSecret,
				"database enabled but no database secret is provisioned")
		case ref != "" && !strings.HasPrefix(ref, arnPrefix):
			if _, ok := lookups.SecretArns[ref]; !ok {
				issues.add(e.Name, "environment.database", RuleUnknownSecret,
					"database secret %q not found in the secret lookup", ref)
			}
		}

		// A user-declared secret under the database env name would collide
		// with the derived entry. The check runs against the same merged
		// defaults+entity view resolveSecrets builds, so a colliding global
		// default is caught too. Silent overwriting hides typos, so this is
		// an error unless the operator opted into the override explicitly.
		if secretDeclared(e.Env.Database.EnvName(), &raw.Defaults, e) && !opts.AllowDatabaseKeyOverride {
			issues.add(e.Name, "secrets."+e.Env.Database.EnvName(), RuleSecretCollision,
				"secret key collides with the database-derived variable; set AllowDatabaseKeyOverride to keep the user value")
		}
	}

	validateRules(e.Name, "network_access", e.NetworkAccess.Rules(), issues)

	if _, err := ParseKmsMode(e.KMS); err != nil {
		issues.add(e.Name, "kms", RuleBadKms, "%v", err)
	}
}

func validateSecretRefs(entity string, secrets map[string]string, lookups Lookups, issues *IssueList) {
	for _, key := range sortedKeys(secrets) {
		ref := secrets[key]
		id, _ := splitSecretRef(ref)
		if strings.HasPrefix(id, arnPrefix) {
			continue
		}
		if _, ok := lookups.SecretArns[id]; !ok {
			field := "secrets." + key
			if entity == "" {
				field = "defaults." + field
			}
			issues.add(entity, field, RuleUnknownSecret, "secret %q not found in the secret lookup", id)
		}
	}
}

func validateRules(entity, field string, rules []NetworkRule, issues *IssueList) {
	for idx, r := range rules {
		at := fmt.Sprintf("%s[%d]", field, idx)
		switch r.Protocol {
		case "tcp", "udp":
		case "":
			issues.add(entity, at, RuleBadNetworkRule, "protocol is required")
		default:
			issues.add(entity, at, RuleBadNetworkRule, "unsupported protocol %q", r.Protocol)
		}
		if len(r.Ports) == 0 {
			issues.add(entity, at, RuleBadNetworkRule, "at least one port is required")
		}
		if len(r.CIDRs) == 0 {
			issues.add(entity, at, RuleBadNetworkRule, "at least one CIDR is required")
		}
		for _, c := range r.CIDRs {
			if _, _, err := net.ParseCIDR(c); err != nil {
				issues.add(entity, at, RuleBadNetworkRule, "invalid CIDR %q", c)
			}
		}
	}
}

// sparsePorts reports whether the rule's port set is sparse, i.e. the
// provisioned [min, max] range would admit ports the operator never listed.
func sparsePorts(ports []uint16) bool {
	if len(ports) < 2 {
		return false
	}
	uniq := append([]uint16(nil), ports...)
	sort.Slice(uniq, func(i, j int) bool { return uniq[i] < uniq[j] })
	n := 1
	for i := 1; i < len(uniq); i++ {
		if uniq[i] != uniq[i-1] {
			uniq[n] = uniq[i]
			n++
		}
	}
	uniq = uniq[:n]
	return int(uniq[len(uniq)-1]-uniq[0])+1 != len(uniq)
}
