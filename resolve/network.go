package resolve

import (
	"fmt"
	"sort"
	"strings"

	"github.com/samber/lo"
)

// normalizeNetwork converts the (already inherited) shorthand into the
// canonical per-entity view. Unset means the global default was also unset,
// which blocks everything beyond the entity's own integrations.
func normalizeNetwork(spec NetworkAccessSpec) ResolvedNetwork {
	switch spec.state {
	case netAllowAll:
		return ResolvedNetwork{Mode: NetworkAllowAll}
	case netExplicit:
		rules := make([]NetworkRule, len(spec.rules))
		for i, r := range spec.rules {
			rules[i] = canonicalRule(r)
		}
		sort.Slice(rules, func(i, j int) bool { return ruleKey(rules[i]) < ruleKey(rules[j]) })
		return ResolvedNetwork{Mode: NetworkExplicit, Rules: rules}
	default:
		return ResolvedNetwork{Mode: NetworkBlocked}
	}
}

// canonicalRule sorts and deduplicates the ports and CIDRs so identical
// rules written in different orders compare equal.
func canonicalRule(r NetworkRule) NetworkRule {
	ports := lo.Uniq(r.Ports)
	sort.Slice(ports, func(i, j int) bool { return ports[i] < ports[j] })
	cidrs := lo.Uniq(r.CIDRs)
	sort.Strings(cidrs)
	return NetworkRule{Protocol: r.Protocol, Ports: ports, CIDRs: cidrs}
}

// ruleKey is the dedup identity: (protocol, sorted ports, sorted cidrs).
// Callers must pass canonical rules.
func ruleKey(r NetworkRule) string {
	var b strings.Builder
	b.WriteString(r.Protocol)
	for _, p := range r.Ports {
		fmt.Fprintf(&b, "|%d", p)
	}
	for _, c := range r.CIDRs {
		b.WriteString("|")
		b.WriteString(c)
	}
	return b.String()
}

// DedupNetworkRules collapses identical explicit rules across all entities
// into the shared global view used for security-group provisioning. The
// per-entity views are left untouched. The result is sorted by rule key so
// repeated runs emit identical output.
func DedupNetworkRules(entities []*ResolvedEntity) []NetworkRule {
	var all []NetworkRule
	for _, e := range entities {
		if e.Network.Mode == NetworkExplicit {
			all = append(all, e.Network.Rules...)
		}
	}
	deduped := lo.UniqBy(all, ruleKey)
	sort.Slice(deduped, func(i, j int) bool { return ruleKey(deduped[i]) < ruleKey(deduped[j]) })
	return deduped
}

// PortRange returns the contiguous [from, to] range the provisioning layer
// opens for a rule. Sparse port sets widen to the full span; resolution
// attaches a warning when that happens so the operator is not surprised.
func (r NetworkRule) PortRange() (from, to uint16) {
	if len(r.Ports) == 0 {
		return 0, 0
	}
	from, to = r.Ports[0], r.Ports[0]
	for _, p := range r.Ports[1:] {
		if p < from {
			from = p
		}
		if p > to {
			to = p
		}
	}
	return from, to
}
