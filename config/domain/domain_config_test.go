package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/appfabrichq/appfabric/infra/config"
)

func TestProd_Defaults(t *testing.T) {
	got := Spec{Root: "example.com", Stage: config.StageProd}.FQDN()
	assert.Equal(t, "example.com", *got)
}

func TestDev_MustPrefix(t *testing.T) {
	// Panic if no DevPrefix for dev
	assert.Panics(t, func() { _ = Spec{Root: "example.com", Stage: config.StageDev}.FQDN() })
	// OK when DevPrefix provided
	got := Spec{Root: "example.com", Stage: config.StageDev, DevPrefix: "dev1"}.FQDN()
	assert.Equal(t, "dev1.example.com", *got)
}

func TestProd_RejectsPrefix(t *testing.T) {
	assert.Panics(t, func() {
		_ = Spec{Root: "example.com", Stage: config.StageProd, DevPrefix: "dev1"}.FQDN()
	})
}

func TestSubdomainCombos(t *testing.T) {
	// Sub before prefix
	got := Spec{Root: "example.com", Stage: config.StageDev, DevPrefix: "qa", Sub: "api"}.FQDN()
	assert.Equal(t, "api.qa.example.com", *got)

	// Label prepends to the full FQDN
	got = Spec{Root: "example.com", Stage: config.StageProd}.Subdomain("api")
	assert.Equal(t, "api.example.com", *got)
}
