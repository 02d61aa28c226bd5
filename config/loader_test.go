package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFixture(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadStackConfig_YAML(t *testing.T) {
	path := writeFixture(t, "stack.yaml", `
project:
  name: acme
  region: us-west-2
services:
  api:
    image: acme/api:latest
`)
	raw, err := LoadStackConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "acme", raw.Project.Name)
	require.Contains(t, raw.Services, "api")
	assert.Equal(t, "acme/api:latest", raw.Services["api"].Image)
}

func TestLoadStackConfig_TOML(t *testing.T) {
	path := writeFixture(t, "stack.toml", `
[project]
name = "acme"
region = "us-west-2"

[functions.cron]
timeout = 300
`)
	raw, err := LoadStackConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "us-west-2", raw.Project.Region)
	require.Contains(t, raw.Functions, "cron")
}

func TestLoadStackConfig_UnsupportedExtension(t *testing.T) {
	path := writeFixture(t, "stack.json", `{}`)
	_, err := LoadStackConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported extension")
}

func TestLoadSecretLookup(t *testing.T) {
	path := writeFixture(t, "secrets.yaml", `
my-secret: arn:aws:secretsmanager:us-west-2:111:secret:my-secret-AbCdEf
`)
	lookup, err := LoadSecretLookup(path)
	require.NoError(t, err)
	assert.Equal(t, "arn:aws:secretsmanager:us-west-2:111:secret:my-secret-AbCdEf", lookup["my-secret"])
}

func TestLoadSecretLookup_MissingFileIsNil(t *testing.T) {
	lookup, err := LoadSecretLookup(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Nil(t, lookup)

	lookup, err = LoadSecretLookup("")
	require.NoError(t, err)
	assert.Nil(t, lookup)
}
