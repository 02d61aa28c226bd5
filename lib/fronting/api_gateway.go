package fronting

import (
	"fmt"
	"strings"

	"github.com/aws/aws-cdk-go/awscdk/v2/awsapigatewayv2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsapigatewayv2integrations"
	"github.com/aws/aws-cdk-go/awscdk/v2/awscertificatemanager"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsec2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsroute53"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsroute53targets"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"

	"github.com/appfabrichq/appfabric/infra/resolve"
)

// ──────────────────────────────────────────────────────────────────────────────
// Why front functions with an **HTTP API Gateway**?
//
//   - **Burst-friendly, pay-per-request pricing** – no hourly or per-LCU
//     charge. A dev stack whose functions sleep 95 % of the time costs only a
//     few US-cents per month, while still handling sudden traffic spikes.
//
//   - **Built-in features** you'd otherwise glue together:
//     – JWT / Cognito / Lambda authorizers out-of-the-box.
//     – Per-method throttling & quotas.
//     – Request validation, mapping, CORS, stage variables.
//
//   - **Automatic TLS** – uploads the ACM cert, handles renewals, SNI, ALPN.
//     No need for an HTTPS listener and security-group port 443 like on ALB.
//
// When **not** to use it:
//
//   - **Hot production workloads with sustained 1000+ RPS** – at that point the
//     per-request price overtakes ALB's hourly + LCU model; those run as
//     services behind the ALB instead.
//
//   - **Long-lived or very large payloads** – body limit is 10 MB and idle
//     timeout 29 seconds. ALB goes to 100 MB / 4000 s.
//
// TL;DR – HTTP API is the default front-end for functions: subdomain-routed
// ones get a custom domain and A record here, path-routed ones mount on a
// stage path.
// ──────────────────────────────────────────────────────────────────────────────
type apiGateway struct{}

func (a *apiGateway) AttachRoutes(scope constructs.Construct, id string, props *FrontingProps) FrontingResult {
	mustValidate(props)

	apiProps := &awsapigatewayv2.HttpApiProps{
		ApiName: jsii.String(id + "HttpApi"),
	}
	if props.Decision.CORS {
		origins := jsii.Strings("*")
		if props.CorsAllowOrigins != nil {
			origins = &[]*string{props.CorsAllowOrigins}
		}
		apiProps.CorsPreflight = &awsapigatewayv2.CorsPreflightOptions{
			AllowOrigins: origins,
			AllowMethods: &[]awsapigatewayv2.CorsHttpMethod{awsapigatewayv2.CorsHttpMethod_ANY},
			AllowHeaders: jsii.Strings("*"),
		}
	}
	httpApi := awsapigatewayv2.NewHttpApi(scope, jsii.String(id+"HttpApi"), apiProps)

	// Validate and use the provided endpoint
	if props.Endpoint == nil || *props.Endpoint == "" {
		panic(fmt.Sprintf("Endpoint is required for apiGateway construct %s", id))
	}
	endpointUrl := *props.Endpoint
	if !strings.Contains(endpointUrl, "://") {
		endpointUrl = "http://" + endpointUrl
	}
	integration := awsapigatewayv2integrations.NewHttpUrlIntegration(
		jsii.String(id+"Integration"),
		jsii.String(endpointUrl),
		&awsapigatewayv2integrations.HttpUrlIntegrationProps{
			Method: awsapigatewayv2.HttpMethod_ANY,
			ParameterMapping: awsapigatewayv2.NewParameterMapping().
				AppendHeader(jsii.String("path"), awsapigatewayv2.MappingValue_ContextVariable(jsii.String("request.path"))),
		},
	)

	httpApi.AddRoutes(&awsapigatewayv2.AddRoutesOptions{
		Path:        jsii.String(routePath(props.Decision)),
		Methods:     &[]awsapigatewayv2.HttpMethod{awsapigatewayv2.HttpMethod_ANY},
		Integration: integration,
	})

	// Path placements live on the shared execute-api endpoint; only
	// subdomain placements get a custom domain and DNS record.
	if props.Decision.Kind != resolve.RoutingApigwSubdomain {
		return FrontingResult{FQDN: httpApi.ApiEndpoint()}
	}

	if props.Decision.Subdomain == "" {
		panic(fmt.Sprintf("subdomain is required for apiGateway construct %s", id))
	}
	zoneName := props.HostedZone.ZoneName()
	fqdn := props.Decision.Subdomain + "." + *zoneName

	var cert awscertificatemanager.ICertificate
	if props.ImportedCertificate != nil {
		cert = props.ImportedCertificate
	} else {
		// Issue new certificate for this domain
		cert = NewCertManager().GetRegional(scope, id+"Cert", props.HostedZone, fqdn, props.AdditionalSANs)
	}

	domainName := awsapigatewayv2.NewDomainName(scope, jsii.String(id+"DomainName"), &awsapigatewayv2.DomainNameProps{
		DomainName:  jsii.String(fqdn),
		Certificate: cert,
	})

	awsapigatewayv2.NewApiMapping(scope, jsii.String(id+"ApiMapping"), &awsapigatewayv2.ApiMappingProps{
		Api:        httpApi,
		DomainName: domainName,
	})

	awsroute53.NewARecord(scope, jsii.String(id+"ARecord"), &awsroute53.ARecordProps{
		Zone:       props.HostedZone,
		RecordName: jsii.String(props.Decision.Subdomain),
		Target: awsroute53.RecordTarget_FromAlias(
			awsroute53targets.NewApiGatewayv2DomainProperties(
				domainName.RegionalDomainName(),
				domainName.RegionalHostedZoneId(),
			),
		),
	})

	return FrontingResult{
		FQDN:        jsii.String(fqdn),
		Certificate: cert,
	}
}

// routePath converts a resolved path pattern ("/hooks/*") into the HTTP API
// greedy-proxy form ("/hooks/{proxy+}"). Subdomain placements proxy the
// whole domain.
func routePath(d resolve.RoutingDecision) string {
	if d.Kind == resolve.RoutingApigwSubdomain || d.PathPattern == "" || d.PathPattern == "/*" {
		return "/{proxy+}"
	}
	return strings.TrimSuffix(d.PathPattern, "/*") + "/{proxy+}"
}

// IngressRules returns the security-group ingress rules needed by the API Gateway fronting.
func (a *apiGateway) IngressRules() []IngressSpec {
	return []IngressSpec{
		{
			Protocol:    awsec2.Protocol_TCP,
			FromPort:    80,
			ToPort:      80,
			Source:      "0.0.0.0/0",
			Description: "Allow HTTP from API Gateway",
		},
	}
}
