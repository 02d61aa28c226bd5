package fronting

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/appfabrichq/appfabric/infra/resolve"
)

// TestParseKind_Invalid ensures that an unrecognized kind returns an error.
func TestParseKind_Invalid(t *testing.T) {
	_, err := ParseKind("typo")
	require.Error(t, err)
	require.ErrorContains(t, err, "invalid fronting type")
}

// TestParseKind_Valid ensures that valid kinds are parsed correctly.
func TestParseKind_Valid(t *testing.T) {
	for _, tc := range []struct {
		input string
		want  Kind
	}{
		{string(KindAPI), KindAPI},
		{"api", KindAPI},
		{string(KindCloudFront), KindCloudFront},
		{string(KindALB), KindALB},
	} {
		k, err := ParseKind(tc.input)
		require.NoError(t, err)
		require.Equal(t, tc.want, k, "Input: %s", tc.input)
	}
}

// TestKindForRouting covers the routing-placement to implementation mapping.
func TestKindForRouting(t *testing.T) {
	for _, tc := range []struct {
		routing resolve.RoutingKind
		want    Kind
		ok      bool
	}{
		{resolve.RoutingAlbHost, KindALB, true},
		{resolve.RoutingAlbPath, KindALB, true},
		{resolve.RoutingApigwSubdomain, KindAPI, true},
		{resolve.RoutingApigwPath, KindAPI, true},
		{resolve.RoutingCloudfrontPath, KindCloudFront, true},
		{resolve.RoutingNone, "", false},
	} {
		k, ok := KindForRouting(tc.routing)
		require.Equal(t, tc.ok, ok, "routing %q", tc.routing)
		require.Equal(t, tc.want, k, "routing %q", tc.routing)
	}
}

// TestIngressRules_PerKind pins the backend openings each fronting demands;
// the stacks apply these verbatim to backend security groups.
func TestIngressRules_PerKind(t *testing.T) {
	for _, kind := range []Kind{KindAPI, KindCloudFront, KindALB} {
		rules := New(kind).IngressRules()
		require.NotEmpty(t, rules, "kind %q", kind)
		for _, r := range rules {
			require.NotEmpty(t, r.Source, "kind %q", kind)
			require.NotZero(t, r.FromPort, "kind %q", kind)
		}
	}

	// CloudFront backends must only admit the managed edge prefix list, not
	// the open internet.
	for _, r := range New(KindCloudFront).IngressRules() {
		require.Equal(t, "pl-68a54001", r.Source)
	}
	for _, r := range New(KindALB).IngressRules() {
		require.Equal(t, "0.0.0.0/0", r.Source)
	}
}
