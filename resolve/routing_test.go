package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyRouting_DecisionTable(t *testing.T) {
	for _, tc := range []struct {
		name string
		e    *Entity
		want RoutingKind
	}{
		{"background service", &Entity{Kind: KindService}, RoutingNone},
		{"background function", &Entity{Kind: KindFunction}, RoutingNone},
		{"service subdomain", &Entity{Kind: KindService, HTTP: &HTTPSpec{Subdomain: "api"}}, RoutingAlbHost},
		{"service path", &Entity{Kind: KindService, HTTP: &HTTPSpec{PathPattern: "/api/*"}}, RoutingAlbPath},
		{"function subdomain", &Entity{Kind: KindFunction, Triggers: TriggerSpec{HTTP: &HTTPSpec{Subdomain: "hooks"}}}, RoutingApigwSubdomain},
		{"function path", &Entity{Kind: KindFunction, Triggers: TriggerSpec{HTTP: &HTTPSpec{PathPattern: "/hooks/*"}}}, RoutingCloudfrontPath},
	} {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, classifyRouting(tc.e).Kind)
		})
	}
}

func TestClassifyRouting_CatchAll(t *testing.T) {
	svc := classifyRouting(&Entity{Name: "web", Kind: KindService, HTTP: &HTTPSpec{Port: 3000}})
	assert.Equal(t, RoutingAlbPath, svc.Kind)
	assert.True(t, svc.CatchAll)
	assert.Equal(t, "/*", svc.PathPattern)
	assert.Equal(t, 3000, svc.Port)

	fn := classifyRouting(&Entity{Name: "hook", Kind: KindFunction, Triggers: TriggerSpec{HTTP: &HTTPSpec{}}})
	assert.Equal(t, RoutingApigwPath, fn.Kind)
	assert.True(t, fn.CatchAll)
	assert.Equal(t, "/hook/*", fn.PathPattern)
}

func TestAssignPriorities_DisjointRanges(t *testing.T) {
	entities := []*ResolvedEntity{
		{Name: "zeta", Kind: KindService, Routing: RoutingDecision{Kind: RoutingAlbPath}},
		{Name: "alpha", Kind: KindService, Routing: RoutingDecision{Kind: RoutingAlbHost}},
		{Name: "worker", Kind: KindService, Routing: RoutingDecision{Kind: RoutingNone}},
		{Name: "hook", Kind: KindFunction, Routing: RoutingDecision{Kind: RoutingApigwPath}},
		{Name: "cron", Kind: KindFunction, Routing: RoutingDecision{Kind: RoutingCloudfrontPath}},
	}

	assignPriorities(entities)

	byName := map[string]*ResolvedEntity{}
	for _, e := range entities {
		byName[e.Name] = e
	}

	assert.Equal(t, 100, byName["alpha"].Routing.Priority, "services numbered in name order")
	assert.Equal(t, 101, byName["zeta"].Routing.Priority)
	assert.Equal(t, 0, byName["worker"].Routing.Priority, "unrouted entities get no priority")
	assert.Equal(t, 1000, byName["cron"].Routing.Priority, "functions start in their own range")
	assert.Equal(t, 1001, byName["hook"].Routing.Priority)
}

func TestSubdomainRoutingAllowed(t *testing.T) {
	assert.True(t, subdomainRoutingAllowed("example.com"))
	assert.False(t, subdomainRoutingAllowed("tenant.example.com"))
}

// TestRouting_SubdomainDepthValidation is scenario D: a subdomain on an apex
// domain routes host-based; the same entity under an already-deep project
// domain is a hard validation error.
func TestRouting_SubdomainDepthValidation(t *testing.T) {
	raw := func(domain string) *RawConfig {
		return &RawConfig{
			Project: ProjectSpec{Name: "acme", Region: "us-west-2", Domain: domain},
			Services: map[string]*ServiceSpec{
				"api": {Image: "img", HTTP: &HTTPSpec{Subdomain: "api"}},
			},
		}
	}

	cfg, err := Resolve(raw("example.com"), Lookups{}, nil)
	require.NoError(t, err)
	assert.Equal(t, RoutingAlbHost, cfg.Services[0].Routing.Kind)

	_, err = Resolve(raw("tenant.example.com"), Lookups{}, nil)
	require.Error(t, err)
	var issues *IssueList
	require.ErrorAs(t, err, &issues)
	require.Len(t, issues.Issues, 1)
	assert.Equal(t, RuleSubdomainDepth, issues.Issues[0].Rule)
	assert.Equal(t, "api", issues.Issues[0].Entity)
}
