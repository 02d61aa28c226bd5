package fronting

import (
	"fmt"

	"github.com/appfabrichq/appfabric/infra/resolve"
)

// Kind represents the type of fronting implementation.
type Kind string

const (
	KindAPI        Kind = "api"
	KindCloudFront Kind = "cloudfront"
	KindALB        Kind = "alb"
)

// ParseKind converts a raw string into a Kind, returning an error for invalid values.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindAPI, KindCloudFront, KindALB:
		return Kind(s), nil
	default:
		return "", fmt.Errorf("invalid fronting type %q", s)
	}
}

// KindForRouting maps a resolved routing placement onto the fronting
// implementation that realizes it. The second return is false for
// RoutingNone, which needs no fronting at all.
func KindForRouting(rk resolve.RoutingKind) (Kind, bool) {
	switch rk {
	case resolve.RoutingAlbHost, resolve.RoutingAlbPath:
		return KindALB, true
	case resolve.RoutingApigwSubdomain, resolve.RoutingApigwPath:
		return KindAPI, true
	case resolve.RoutingCloudfrontPath:
		return KindCloudFront, true
	default:
		return "", false
	}
}

// New returns a Fronting implementation for the given Kind.
func New(kind Kind) Fronting {
	switch kind {
	case KindAPI:
		return NewApiGatewayFronting()
	case KindCloudFront:
		return NewCloudFrontFronting()
	case KindALB:
		return NewAlbFronting()
	default:
		// ParseKind should prevent this, but panic as a safeguard
		panic(fmt.Sprintf("unsupported fronting kind %q", kind))
	}
}
