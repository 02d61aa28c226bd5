package report_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/appfabrichq/appfabric/infra/report"
	"github.com/appfabrichq/appfabric/infra/resolve"
)

func resolvedFixture(t *testing.T) *resolve.ResolvedConfig {
	t.Helper()
	raw := &resolve.RawConfig{
		Project: resolve.ProjectSpec{
			Name:        "shop",
			Region:      "us-west-2",
			Environment: "prod",
			Domain:      "example.com",
		},
		Defaults: resolve.GlobalDefaults{
			Runtime:    "go1.x",
			Timeout:    30,
			MemorySize: 128,
		},
		Services: map[string]*resolve.ServiceSpec{
			"api": {
				Image: "registry.example.com/api:v3",
				HTTP:  &resolve.HTTPSpec{Subdomain: "api", Port: 8080},
			},
		},
		Functions: map[string]*resolve.FunctionSpec{
			"webhook": {
				Triggers: resolve.TriggerSpec{HTTP: &resolve.HTTPSpec{}},
			},
		},
	}
	resolved, err := resolve.Resolve(raw, resolve.Lookups{}, nil)
	require.NoError(t, err)
	return resolved
}

func TestRenderResolutionReport(t *testing.T) {
	md, err := report.Render(report.TplResolutionReport, report.Build(resolvedFixture(t)))
	require.NoError(t, err)

	assert.Contains(t, md, "# Resolution report: shop (prod)")
	assert.Contains(t, md, "- Region: `us-west-2`")
	assert.Contains(t, md, "alb-host api. (priority 100)")
	assert.Contains(t, md, "apigw-path /webhook/* (priority 1000) [catch-all]")
	assert.Contains(t, md, "## Shared network rules")
}

func TestRenderResolutionReport_EmptySections(t *testing.T) {
	data := report.Data{Project: resolve.ProjectSpec{Name: "bare", Environment: "dev"}}
	md, err := report.Render(report.TplResolutionReport, data)
	require.NoError(t, err)

	assert.Contains(t, md, "Features: none")
	assert.Contains(t, md, "_none_")
}

func TestRender_UnknownTemplate(t *testing.T) {
	_, err := report.Render("missing.md.tmpl", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing template")
}

func TestBuild_FlattensEntities(t *testing.T) {
	data := report.Build(resolvedFixture(t))

	require.Len(t, data.Services, 1)
	require.Len(t, data.Functions, 1)
	assert.Equal(t, "api", data.Services[0].Name)
	assert.Equal(t, "shared", data.Services[0].Role)
	assert.Contains(t, data.Features, "alb")
	assert.Contains(t, data.Features, "api-gateway")
}
