package resolve

import (
	"testing"

	"github.com/BurntSushi/toml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestRawConfig_YAMLShorthands(t *testing.T) {
	doc := `
project:
  name: acme
  region: us-west-2
  environment: production
  domain: example.com
defaults:
  runtime: nodejs22.x
  timeout: 30
  environment:
    node: true
services:
  api:
    image: acme/api:latest
    http:
      port: 3000
      subdomain: api
    environment:
      region: AWS_DEFAULT_REGION
      node: null
      database: true
    secrets:
      API_KEY: my-secret:apiKey
    network_access: true
  worker:
    source: ./worker
    environment:
      database: WORKER_DB_URL
    network_access:
      - protocol: tcp
        ports: [443]
        cidrs: ["0.0.0.0/0"]
functions:
  cron:
    timeout: 300
    triggers:
      schedule: rate(5 minutes)
    environment:
      database:
        name: DB_DSN
        secret: my-secret
    network_access: null
`
	var raw RawConfig
	require.NoError(t, yaml.Unmarshal([]byte(doc), &raw))

	api := raw.Services["api"]
	require.NotNil(t, api)
	assert.Equal(t, "AWS_DEFAULT_REGION", api.Env.Region.StringOr(""))
	assert.False(t, api.Env.Node.IsUnset(), "explicit null is not unset")
	assert.False(t, api.Env.Node.Enabled())
	assert.True(t, api.Env.Database.Enabled())
	assert.Equal(t, "DATABASE_URL", api.Env.Database.EnvName())
	assert.False(t, api.NetworkAccess.IsUnset())

	worker := raw.Services["worker"]
	require.NotNil(t, worker)
	assert.True(t, worker.Env.Node.IsUnset(), "absent key stays unset")
	assert.Equal(t, "WORKER_DB_URL", worker.Env.Database.EnvName())
	require.Len(t, worker.NetworkAccess.Rules(), 1)
	assert.Equal(t, []uint16{443}, worker.NetworkAccess.Rules()[0].Ports)

	cron := raw.Functions["cron"]
	require.NotNil(t, cron)
	require.NotNil(t, cron.Timeout)
	assert.Equal(t, 300, *cron.Timeout)
	assert.Equal(t, "DB_DSN", cron.Env.Database.EnvName())
	assert.Equal(t, "my-secret", cron.Env.Database.SecretRef())
	assert.Equal(t, normalizeNetwork(cron.NetworkAccess).Mode, NetworkBlocked)

	// The whole document round-trips into a resolvable tree.
	_, err := Resolve(&raw, testLookups(), nil)
	require.NoError(t, err)
}

func TestRawConfig_ExplicitNullOverridesDefaults(t *testing.T) {
	doc := `
project:
  name: acme
  region: us-west-2
defaults:
  environment:
    node: true
    database: true
  network_access: true
functions:
  cleanup:
    environment:
      node: null
      database: null
    network_access: null
`
	var raw RawConfig
	require.NoError(t, yaml.Unmarshal([]byte(doc), &raw))

	cleanup := raw.Functions["cleanup"]
	require.NotNil(t, cleanup)
	assert.False(t, cleanup.Env.Node.IsUnset(), "explicit null must not read as absent")
	assert.False(t, cleanup.Env.Node.Enabled())
	assert.False(t, cleanup.Env.Database.IsUnset())
	assert.False(t, cleanup.Env.Database.Enabled())
	assert.False(t, cleanup.NetworkAccess.IsUnset())

	cfg, err := Resolve(&raw, testLookups(), nil)
	require.NoError(t, err)
	require.Len(t, cfg.Functions, 1)
	fn := cfg.Functions[0]
	assert.Equal(t, NetworkBlocked, fn.Network.Mode, "explicit null must not inherit allow-all")
	for _, s := range fn.Secrets {
		assert.NotEqual(t, DefaultDatabaseEnvName, s.Name,
			"explicit database: null must disable the inherited database secret")
	}
	for _, v := range fn.Env {
		assert.NotEqual(t, "NODE_ENV", v.Name)
	}
}

func TestRawConfig_TOMLShorthands(t *testing.T) {
	doc := `
[project]
name = "acme"
region = "us-west-2"

[defaults]
runtime = "nodejs22.x"

[services.api]
image = "acme/api:latest"

[services.api.environment]
node = true
database = "API_DB_URL"

[[services.api.network_access]]
protocol = "tcp"
ports = [443, 8080]
cidrs = ["0.0.0.0/0"]

[functions.cron]
timeout = 300

[functions.cron.environment]
database = { name = "DB_DSN", secret = "my-secret" }
`
	var raw RawConfig
	require.NoError(t, toml.Unmarshal([]byte(doc), &raw))

	api := raw.Services["api"]
	require.NotNil(t, api)
	assert.True(t, api.Env.Node.Enabled())
	assert.Equal(t, "API_DB_URL", api.Env.Database.EnvName())
	require.Len(t, api.NetworkAccess.Rules(), 1)
	assert.Equal(t, []uint16{443, 8080}, api.NetworkAccess.Rules()[0].Ports)

	cron := raw.Functions["cron"]
	require.NotNil(t, cron)
	require.NotNil(t, cron.Timeout)
	assert.Equal(t, 300, *cron.Timeout)
	assert.Equal(t, "DB_DSN", cron.Env.Database.EnvName())
}
