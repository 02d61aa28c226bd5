package utils

import (
	"strings"

	"github.com/aws/aws-cdk-go/awscdk/v2/awsec2"
	"github.com/aws/jsii-runtime-go"

	"github.com/appfabrichq/appfabric/infra/lib/fronting"
	"github.com/appfabrichq/appfabric/infra/resolve"
)

// peerFor classifies a source string into the right kind of SG peer:
// a managed prefix list ("pl-..."), an IPv6 CIDR, or an IPv4 CIDR.
func peerFor(source string) awsec2.IPeer {
	switch {
	case strings.HasPrefix(source, "pl-"):
		return awsec2.Peer_PrefixList(jsii.String(source))
	case strings.Contains(source, ":"):
		return awsec2.Peer_Ipv6(jsii.String(source))
	default:
		return awsec2.Peer_Ipv4(jsii.String(source))
	}
}

// ApplyIngressRules adds the ingress openings a fronting implementation
// requires to a backend security group.
func ApplyIngressRules(sg awsec2.ISecurityGroup, rules []fronting.IngressSpec) {
	for _, spec := range rules {
		sg.AddIngressRule(
			peerFor(spec.Source),
			awsec2.Port_Tcp(jsii.Number(spec.FromPort)), // Assumes TCP
			jsii.String(spec.Description),
			jsii.Bool(false),
		)
	}
}

// ApplyEgressRules adds resolved network-access rules to a security group as
// egress openings. Sparse port lists have already been collapsed to their
// envelope by PortRange.
func ApplyEgressRules(sg awsec2.ISecurityGroup, rules []resolve.NetworkRule, description string) {
	for _, rule := range rules {
		from, to := rule.PortRange()
		port := awsec2.Port_TcpRange(jsii.Number(float64(from)), jsii.Number(float64(to)))
		if strings.EqualFold(rule.Protocol, "udp") {
			port = awsec2.Port_UdpRange(jsii.Number(float64(from)), jsii.Number(float64(to)))
		}
		for _, cidr := range rule.CIDRs {
			sg.AddEgressRule(
				peerFor(cidr),
				port,
				jsii.String(description),
				jsii.Bool(false),
			)
		}
	}
}
