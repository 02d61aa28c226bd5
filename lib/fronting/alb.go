package fronting

import (
	"fmt"

	"github.com/aws/aws-cdk-go/awscdk/v2/awscertificatemanager"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsec2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awselasticloadbalancingv2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsroute53"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsroute53targets"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"

	"github.com/appfabrichq/appfabric/infra/resolve"
)

// ──────────────────────────────────────────────────────────────────────────────
// Why do services front through the **ALB**?
//
//   - High, steady throughput – ALB is priced per-hour + per-LCU; once traffic
//     is above a few hundred RPS it is cheaper than API Gateway's purely
//     per-request model, and long-running containers are always hot anyway.
//
//   - Layer-7 routing features you can't (easily) get elsewhere:
//     – Native WebSockets / HTTP/2 (including gRPC pass-through).
//     – Host- and path-based listener rules with explicit priorities, which
//     is exactly the shape the routing classifier emits.
//     – Sticky sessions if a service later needs them.
//
//   - VPC-local back-ends – ALB sends traffic straight to private IP targets
//     (ECS tasks here) without the public exposure that HTTP API needs.
//
//   - Large payloads / long-lived connections – no 10 MB body limit; idle
//     timeout is 4000 s vs. 29 s on API GW.
//
// When **not** to use it:
//
//   - Low-traffic, scale-to-zero workloads – those are functions, and they go
//     through API Gateway or CloudFront instead.
//
// TL;DR – every container service hangs off the one shared ALB; this
// implementation only adds a listener rule (and, for host routing, a DNS
// record + certificate) at the priority the resolver assigned.
// ──────────────────────────────────────────────────────────────────────────────
type albFronting struct{}

// NewAlbFronting returns a Fronting that attaches listener rules to a shared ALB.
func NewAlbFronting() Fronting {
	return &albFronting{}
}

func (a *albFronting) AttachRoutes(scope constructs.Construct, id string, props *FrontingProps) FrontingResult {
	mustValidate(props)
	if props.Listener == nil || props.TargetGroup == nil {
		panic(fmt.Sprintf("Listener and TargetGroup are required for alb construct %s", id))
	}
	if props.Decision.Priority == 0 {
		panic(fmt.Sprintf("listener rule for %s has no priority assigned", id))
	}

	var (
		conditions []awselasticloadbalancingv2.ListenerCondition
		fqdn       *string
		cert       awscertificatemanager.ICertificate
	)

	switch props.Decision.Kind {
	case resolve.RoutingAlbHost:
		zoneName := props.HostedZone.ZoneName()
		host := props.Decision.Subdomain + "." + *zoneName
		fqdn = jsii.String(host)
		conditions = append(conditions,
			awselasticloadbalancingv2.ListenerCondition_HostHeaders(jsii.Strings(host)))

		if props.ImportedCertificate != nil {
			cert = props.ImportedCertificate
		} else {
			cert = NewCertManager().GetRegional(scope, id+"Cert", props.HostedZone, host, props.AdditionalSANs)
		}
		// The shared listener terminates TLS for every hosted name; SNI
		// picks the right certificate.
		props.Listener.AddCertificates(jsii.String(id+"ListenerCert"),
			&[]awselasticloadbalancingv2.IListenerCertificate{
				awselasticloadbalancingv2.ListenerCertificate_FromCertificateManager(cert),
			})

		if props.LoadBalancer != nil {
			awsroute53.NewARecord(scope, jsii.String(id+"ARecord"), &awsroute53.ARecordProps{
				Zone:       props.HostedZone,
				RecordName: jsii.String(props.Decision.Subdomain),
				Target: awsroute53.RecordTarget_FromAlias(
					awsroute53targets.NewLoadBalancerTarget(props.LoadBalancer, nil)),
			})
		}
	case resolve.RoutingAlbPath:
		conditions = append(conditions,
			awselasticloadbalancingv2.ListenerCondition_PathPatterns(jsii.Strings(props.Decision.PathPattern)))
		if props.LoadBalancer != nil {
			fqdn = props.LoadBalancer.LoadBalancerDnsName()
		}
	default:
		panic(fmt.Sprintf("alb fronting cannot place routing kind %q", props.Decision.Kind))
	}

	awselasticloadbalancingv2.NewApplicationListenerRule(scope, jsii.String(id+"Rule"),
		&awselasticloadbalancingv2.ApplicationListenerRuleProps{
			Listener:     props.Listener,
			Priority:     jsii.Number(float64(props.Decision.Priority)),
			Conditions:   &conditions,
			TargetGroups: &[]awselasticloadbalancingv2.IApplicationTargetGroup{props.TargetGroup},
		})

	return FrontingResult{FQDN: fqdn, Certificate: cert}
}

// IngressRules declares the security-group ingress rules for ALB-fronted backends.
func (a *albFronting) IngressRules() []IngressSpec {
	// ALB exposes standard HTTP and HTTPS ports publicly.
	return []IngressSpec{
		{
			Protocol:    awsec2.Protocol_TCP,
			FromPort:    80,
			ToPort:      80,
			Source:      "0.0.0.0/0",
			Description: "HTTP from clients via ALB",
		},
		{
			Protocol:    awsec2.Protocol_TCP,
			FromPort:    443,
			ToPort:      443,
			Source:      "0.0.0.0/0",
			Description: "HTTPS from clients via ALB",
		},
	}
}
