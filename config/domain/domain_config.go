package domain

import (
	"strings"

	jsii "github.com/aws/jsii-runtime-go"

	"github.com/appfabrichq/appfabric/infra/config"
)

// Spec encapsulates the project root domain, the stage, an optional leaf
// subdomain, and (for dev) a mandatory DevPrefix. It builds FQDNs by
// prepending labels before the root.
type Spec struct {
	Root      string // project root domain, e.g. "example.com"
	Stage     config.StageType
	Sub       string // optional leaf subdomain
	DevPrefix string // required when Stage==StageDev
}

// fqdnParts returns labels in order: Sub (if any), DevPrefix (dev only), root
func (s Spec) fqdnParts() []string {
	// Ensure prod does not carry a DevPrefix
	if s.Stage == config.StageProd && s.DevPrefix != "" {
		panic("DevPrefix must be empty for prod stages")
	}
	parts := []string{}
	if s.Sub != "" {
		parts = append(parts, s.Sub)
	}
	if s.Stage == config.StageDev {
		// Dev requires a DevPrefix label
		if s.DevPrefix == "" {
			panic("dev deployments must set Spec.DevPrefix")
		}
		parts = append(parts, s.DevPrefix)
	}
	parts = append(parts, s.Root)
	return parts
}

// FQDN returns the fully-qualified domain by joining fqdnParts with a dot.
func (s Spec) FQDN() *string {
	return jsii.String(strings.Join(s.fqdnParts(), "."))
}

// Subdomain returns a fully-qualified subdomain for the given label,
// e.g. "api.dev1.example.com".
func (s Spec) Subdomain(label string) *string {
	parts := append([]string{label}, s.fqdnParts()...)
	return jsii.String(strings.Join(parts, "."))
}
