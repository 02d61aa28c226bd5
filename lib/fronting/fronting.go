package fronting

import (
	"github.com/aws/aws-cdk-go/awscdk/v2/awscertificatemanager"
	"github.com/aws/aws-cdk-go/awscdk/v2/awselasticloadbalancingv2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsroute53"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/go-playground/validator/v10"

	"github.com/appfabrichq/appfabric/infra/resolve"
)

// FrontingResult bundles the public FQDN and the ACM certificate used.
// This allows stacks to export both the domain name and the certificate ARN.
// FQDN: full custom domain (e.g., "api.example.com"), or the provider-issued
// endpoint when the placement has no custom domain.
// Certificate: the ACM certificate resource for TLS termination, nil when
// the provider terminates TLS on its own domain.
type FrontingResult struct {
	FQDN        *string
	Certificate awscertificatemanager.ICertificate
}

// FrontingProps holds the inputs needed to wire up an edge placement.
type FrontingProps struct {
	// Decision is the routing placement resolved for the entity; it selects
	// host vs path conditions, the rule priority, and CORS behavior.
	Decision resolve.RoutingDecision
	// HostedZone is the Route53 hosted zone for record creation.
	HostedZone awsroute53.IHostedZone `validate:"required"`
	// Optional imported ACM certificate; if nil, a new cert is issued.
	ImportedCertificate awscertificatemanager.ICertificate
	// AdditionalSANs allows passing extra SubjectAlternativeNames when creating a new certificate.
	AdditionalSANs []*string
	// Endpoint is the public DNS name of the backend origin (the api kind
	// also accepts a full URL). Required by the api and cloudfront kinds,
	// ignored by alb (the target group carries the backend there).
	Endpoint *string
	// CorsAllowOrigins overrides the allowed origins when Decision.CORS is
	// set. Nil falls back to "*".
	CorsAllowOrigins *string

	// ALB wiring, required by KindALB only.
	Listener     awselasticloadbalancingv2.IApplicationListener
	TargetGroup  awselasticloadbalancingv2.IApplicationTargetGroup
	LoadBalancer awselasticloadbalancingv2.IApplicationLoadBalancer
}

// Fronting abstracts TLS termination + request routing for one entity.
// AttachRoutes returns a FrontingResult, giving both domain and certificate.
// IngressRules defines the security-group openings required for this fronting.
type Fronting interface {
	// AttachRoutes provisions the placement described by props.Decision and
	// returns the public domain it answers on.
	AttachRoutes(scope constructs.Construct, id string, props *FrontingProps) FrontingResult
	// IngressRules returns the set of security-group ingress rules required by this fronting implementation.
	IngressRules() []IngressSpec
}

// NewApiGatewayFronting returns a Fronting implemented via HTTP API.
func NewApiGatewayFronting() Fronting {
	return &apiGateway{}
}

// mustValidate checks the struct-level prop constraints; per-kind
// requirements (Endpoint, Listener, TargetGroup) stay with the
// implementations that need them.
func mustValidate(props *FrontingProps) {
	if err := validator.New().Struct(props); err != nil {
		panic(err)
	}
}
