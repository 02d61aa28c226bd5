package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeNetwork_Canonical(t *testing.T) {
	for _, tc := range []struct {
		name string
		spec NetworkAccessSpec
		want NetworkMode
	}{
		{"unset blocks", NetworkAccessSpec{}, NetworkBlocked},
		{"explicit null blocks", NetworkBlockedSpec(), NetworkBlocked},
		{"true allows all", NetworkAllowAllSpec(), NetworkAllowAll},
		{"rules are explicit", NetworkRulesSpec([]NetworkRule{{Protocol: "tcp", Ports: []uint16{443}, CIDRs: []string{"0.0.0.0/0"}}}), NetworkExplicit},
	} {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, normalizeNetwork(tc.spec).Mode)
		})
	}
}

func TestNormalizeNetwork_SortsPortsAndCIDRs(t *testing.T) {
	net := normalizeNetwork(NetworkRulesSpec([]NetworkRule{
		{Protocol: "tcp", Ports: []uint16{8080, 443, 443}, CIDRs: []string{"10.0.0.0/8", "0.0.0.0/0"}},
	}))
	require.Len(t, net.Rules, 1)
	assert.Equal(t, []uint16{443, 8080}, net.Rules[0].Ports)
	assert.Equal(t, []string{"0.0.0.0/0", "10.0.0.0/8"}, net.Rules[0].CIDRs)
}

// TestDedupNetworkRules verifies that identical rules declared by different
// entities collapse to a single shared rule while each entity keeps its own
// view.
func TestDedupNetworkRules(t *testing.T) {
	rule := NetworkRule{Protocol: "tcp", Ports: []uint16{443}, CIDRs: []string{"0.0.0.0/0"}}
	a := &ResolvedEntity{Name: "a", Network: normalizeNetwork(NetworkRulesSpec([]NetworkRule{rule}))}
	b := &ResolvedEntity{Name: "b", Network: normalizeNetwork(NetworkRulesSpec([]NetworkRule{rule}))}

	shared := DedupNetworkRules([]*ResolvedEntity{a, b})
	assert.Len(t, shared, 1, "identical rules collapse in the global view")
	assert.Len(t, a.Network.Rules, 1)
	assert.Len(t, b.Network.Rules, 1)
}

func TestDedupNetworkRules_OrderInsensitiveDeclarations(t *testing.T) {
	a := &ResolvedEntity{Name: "a", Network: normalizeNetwork(NetworkRulesSpec([]NetworkRule{
		{Protocol: "tcp", Ports: []uint16{80, 443}, CIDRs: []string{"0.0.0.0/0", "10.0.0.0/8"}},
	}))}
	b := &ResolvedEntity{Name: "b", Network: normalizeNetwork(NetworkRulesSpec([]NetworkRule{
		{Protocol: "tcp", Ports: []uint16{443, 80}, CIDRs: []string{"10.0.0.0/8", "0.0.0.0/0"}},
	}))}

	assert.Len(t, DedupNetworkRules([]*ResolvedEntity{a, b}), 1,
		"rule identity ignores declaration order of ports and CIDRs")
}

func TestDedupNetworkRules_DistinctRulesKept(t *testing.T) {
	a := &ResolvedEntity{Name: "a", Network: normalizeNetwork(NetworkRulesSpec([]NetworkRule{
		{Protocol: "tcp", Ports: []uint16{443}, CIDRs: []string{"0.0.0.0/0"}},
	}))}
	b := &ResolvedEntity{Name: "b", Network: normalizeNetwork(NetworkRulesSpec([]NetworkRule{
		{Protocol: "udp", Ports: []uint16{443}, CIDRs: []string{"0.0.0.0/0"}},
	}))}

	assert.Len(t, DedupNetworkRules([]*ResolvedEntity{a, b}), 2)
}

func TestPortRange(t *testing.T) {
	r := NetworkRule{Ports: []uint16{9000, 443, 8080}}
	from, to := r.PortRange()
	assert.Equal(t, uint16(443), from)
	assert.Equal(t, uint16(9000), to)
}

func TestSparsePorts(t *testing.T) {
	assert.False(t, sparsePorts([]uint16{443}))
	assert.False(t, sparsePorts([]uint16{443, 444, 445}))
	assert.False(t, sparsePorts([]uint16{444, 443}), "contiguity check sorts first")
	assert.False(t, sparsePorts([]uint16{443, 443, 444}), "duplicates do not count as gaps")
	assert.True(t, sparsePorts([]uint16{443, 8080}))
}
