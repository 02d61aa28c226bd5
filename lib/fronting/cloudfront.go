package fronting

import (
	"fmt"

	"github.com/aws/aws-cdk-go/awscdk/v2/awscloudfront"
	"github.com/aws/aws-cdk-go/awscdk/v2/awscloudfrontorigins"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsec2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsroute53"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsroute53targets"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"

	"github.com/appfabrichq/appfabric/infra/resolve"
)

// ──────────────────────────────────────────────────────────────────────────────
// When is **CloudFront** the right front-end for a function?
//
//   - **Global audience / low RTT world-wide**
//     – Requests terminate at ~450 edge POPs; TLS handshake + first byte can be
//     50-150 ms faster for users far from your AWS Region.
//
//   - **Edge caching** for READ-heavy paths
//     – Static JSON responses or rendered snapshots can be cached for minutes
//     to hours, shrinking backend load.
//
//   - **Shield + WAF at the edge**
//     – Built-in DDoS protection (AWS Shield Standard) and cheaper per-request
//     WAF pricing compared with ALB.
//
// Caveats:
//
//   - **Cost floor** – you pay data-transfer-out from edge plus request fees.
//     For low-traffic, region-local paths, HTTP API is much cheaper.
//
//   - **Deployment time** – distributing takes 10–15 minutes.
//
//   - **Custom domains need an ACM certificate in us-east-1** – when the
//     deployment supplies one (ImportedCertificate), the distribution mounts
//     on the project domain with an alias record; otherwise path-routed
//     functions answer on the distribution's own *.cloudfront.net name.
//
// TL;DR – functions that declare an explicit path pattern get a CloudFront
// behavior for that pattern in front of their backend; everything else stays
// on HTTP API.
// ──────────────────────────────────────────────────────────────────────────────
type cloudFront struct{}

// NewCloudFrontFronting returns a Fronting implemented via a CloudFront distribution.
func NewCloudFrontFronting() Fronting {
	return &cloudFront{}
}

func (c *cloudFront) AttachRoutes(scope constructs.Construct, id string, props *FrontingProps) FrontingResult {
	mustValidate(props)
	if props.Endpoint == nil || *props.Endpoint == "" {
		panic(fmt.Sprintf("Endpoint is required for cloudFront construct %s", id))
	}

	// The endpoint is a bare hostname; function URLs terminate TLS themselves.
	origin := awscloudfrontorigins.NewHttpOrigin(props.Endpoint, &awscloudfrontorigins.HttpOriginProps{
		ProtocolPolicy: awscloudfront.OriginProtocolPolicy_HTTPS_ONLY,
	})

	// API traffic: pass everything through, cache nothing by default.
	distProps := &awscloudfront.DistributionProps{
		Comment: jsii.String(id + " fronting"),
		DefaultBehavior: &awscloudfront.BehaviorOptions{
			Origin:                origin,
			CachePolicy:           awscloudfront.CachePolicy_CACHING_DISABLED(),
			OriginRequestPolicy:   awscloudfront.OriginRequestPolicy_ALL_VIEWER_EXCEPT_HOST_HEADER(),
			AllowedMethods:        awscloudfront.AllowedMethods_ALLOW_ALL(),
			ViewerProtocolPolicy:  awscloudfront.ViewerProtocolPolicy_REDIRECT_TO_HTTPS,
			ResponseHeadersPolicy: responseHeadersPolicy(props.Decision),
		},
	}

	// Path placements mount on the project domain when the us-east-1
	// certificate is available; CloudFront refuses regional certificates.
	var fqdn *string
	if props.ImportedCertificate != nil {
		fqdn = props.HostedZone.ZoneName()
		distProps.DomainNames = &[]*string{fqdn}
		distProps.Certificate = props.ImportedCertificate
	}

	dist := awscloudfront.NewDistribution(scope, jsii.String(id+"Distribution"), distProps)

	// A non-catch-all pattern keeps the mount point visible in the
	// distribution so additional origins can join it later.
	if p := props.Decision.PathPattern; p != "" && p != "/*" {
		dist.AddBehavior(jsii.String(p), origin, &awscloudfront.AddBehaviorOptions{
			CachePolicy:           awscloudfront.CachePolicy_CACHING_DISABLED(),
			OriginRequestPolicy:   awscloudfront.OriginRequestPolicy_ALL_VIEWER_EXCEPT_HOST_HEADER(),
			AllowedMethods:        awscloudfront.AllowedMethods_ALLOW_ALL(),
			ViewerProtocolPolicy:  awscloudfront.ViewerProtocolPolicy_REDIRECT_TO_HTTPS,
			ResponseHeadersPolicy: responseHeadersPolicy(props.Decision),
		})
	}

	if fqdn == nil {
		return FrontingResult{FQDN: dist.DistributionDomainName()}
	}

	awsroute53.NewARecord(scope, jsii.String(id+"ARecord"), &awsroute53.ARecordProps{
		Zone:   props.HostedZone,
		Target: awsroute53.RecordTarget_FromAlias(awsroute53targets.NewCloudFrontTarget(dist)),
	})

	return FrontingResult{
		FQDN:        fqdn,
		Certificate: props.ImportedCertificate,
	}
}

func responseHeadersPolicy(d resolve.RoutingDecision) awscloudfront.IResponseHeadersPolicy {
	if d.CORS {
		return awscloudfront.ResponseHeadersPolicy_CORS_ALLOW_ALL_ORIGINS()
	}
	return nil
}

// IngressRules declares the security-group ingress rules for CloudFront origin access.
func (c *cloudFront) IngressRules() []IngressSpec {
	// AWS-managed prefix list ID for CloudFront origins
	const cfPrefixList = "pl-68a54001"
	return []IngressSpec{
		{
			Protocol:    awsec2.Protocol_TCP,
			FromPort:    80,
			ToPort:      80,
			Source:      cfPrefixList,
			Description: "HTTP from CloudFront edge",
		},
		{
			Protocol:    awsec2.Protocol_TCP,
			FromPort:    443,
			ToPort:      443,
			Source:      cfPrefixList,
			Description: "TLS from CloudFront edge",
		},
	}
}
