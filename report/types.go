package report

import (
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/appfabrichq/appfabric/infra/resolve"
)

// TemplateName represents a known template filename.
type TemplateName string

// Constants for known template filenames.
const (
	TplResolutionReport TemplateName = "resolution_report.md.tmpl"
)

// EntityRow is one service or function flattened for the report table.
type EntityRow struct {
	Name    string
	Routing string
	Role    string
	Network string
	EnvVars []string
	Secrets []string
}

// Data is everything the resolution report template consumes. Slices keep
// the resolver's deterministic ordering so reports diff cleanly.
type Data struct {
	Project  resolve.ProjectSpec
	Features []string

	Services  []EntityRow
	Functions []EntityRow

	SharedRules []string
	Warnings    []string
}

// Build flattens a resolved configuration into template-friendly rows.
func Build(cfg *resolve.ResolvedConfig) Data {
	return Data{
		Project:   cfg.Project,
		Features:  featureList(cfg.Features),
		Services:  lo.Map(cfg.Services, func(e *resolve.ResolvedEntity, _ int) EntityRow { return entityRow(e) }),
		Functions: lo.Map(cfg.Functions, func(e *resolve.ResolvedEntity, _ int) EntityRow { return entityRow(e) }),
		SharedRules: lo.Map(cfg.SharedNetworkRules, func(r resolve.NetworkRule, _ int) string {
			return ruleString(r)
		}),
		Warnings: lo.Map(cfg.Warnings, func(w resolve.Warning, _ int) string {
			return fmt.Sprintf("%s/%s: %s", w.Entity, w.Field, w.Message)
		}),
	}
}

func entityRow(e *resolve.ResolvedEntity) EntityRow {
	role := "shared"
	if !e.Permissions.SharedRole {
		role = "custom"
	}
	return EntityRow{
		Name:    e.Name,
		Routing: routingString(e.Routing),
		Role:    role,
		Network: networkString(e.Network),
		EnvVars: lo.Map(e.Env, func(v resolve.EnvVar, _ int) string { return v.Name }),
		Secrets: lo.Map(e.Secrets, func(s resolve.SecretRef, _ int) string { return s.Name }),
	}
}

func routingString(d resolve.RoutingDecision) string {
	if d.Kind == resolve.RoutingNone {
		return "none"
	}
	target := d.PathPattern
	if d.Subdomain != "" {
		target = d.Subdomain + "."
	}
	s := fmt.Sprintf("%s %s (priority %d)", d.Kind, target, d.Priority)
	if d.CatchAll {
		s += " [catch-all]"
	}
	return s
}

func networkString(n resolve.ResolvedNetwork) string {
	if n.Mode != resolve.NetworkExplicit {
		return string(n.Mode)
	}
	rules := lo.Map(n.Rules, func(r resolve.NetworkRule, _ int) string { return ruleString(r) })
	return strings.Join(rules, "; ")
}

func ruleString(r resolve.NetworkRule) string {
	from, to := r.PortRange()
	ports := fmt.Sprintf("%d", from)
	if to != from {
		ports = fmt.Sprintf("%d-%d", from, to)
	}
	return fmt.Sprintf("%s %s to %s", strings.ToLower(r.Protocol), ports, strings.Join(r.CIDRs, ","))
}

func featureList(f resolve.FeatureFlags) []string {
	var out []string
	for _, flag := range []struct {
		name string
		on   bool
	}{
		{"ecr", f.EcrNeeded},
		{"alb", f.AlbNeeded},
		{"api-gateway", f.ApiGatewayNeeded},
		{"cloudfront", f.CloudFrontNeeded},
		{"rds", f.RdsNeeded},
		{"lambda-vpc", f.LambdaVpcNeeded},
		{"s3", f.S3Needed},
		{"ses", f.SesNeeded},
	} {
		if flag.on {
			out = append(out, flag.name)
		}
	}
	return out
}
