package config

import (
	"testing"

	"github.com/caarlos0/env/v11"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppStackEnvironmentVariables_ReportPathDefault(t *testing.T) {
	var v AppStackEnvironmentVariables
	require.NoError(t, env.Parse(&v))
	assert.Equal(t, "resolution-report.md", v.ReportPath)
}

func TestAppStackEnvironmentVariables_ReportPathOverride(t *testing.T) {
	t.Setenv("RESOLUTION_REPORT_PATH", "out/report.md")
	var v AppStackEnvironmentVariables
	require.NoError(t, env.Parse(&v))
	assert.Equal(t, "out/report.md", v.ReportPath)
}
