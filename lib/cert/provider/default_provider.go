package provider

import (
	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awscertificatemanager"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsroute53"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"
)

// defaultProvider is the standard implementation of CertProvider.
type defaultProvider struct{}

// New returns a CertProvider that issues DNS-validated certificates for edge
// or regional scopes.
func New() CertProvider {
	return &defaultProvider{}
}

// Get returns an ACM certificate for the given fqdn in the hosted zone under
// the specified scope. Edge certificates are issued from a nested stack
// pinned to us-east-1, which CloudFront requires.
func (p *defaultProvider) Get(
	scope constructs.Construct,
	id string,
	zone awsroute53.IHostedZone,
	fqdn string,
	sScope CertScope,
	additionalSANs []*string,
) awscertificatemanager.ICertificate {
	var certScope constructs.Construct = scope
	if sScope == ScopeEdge {
		edgeStack := awscdk.NewStack(scope, jsii.String(id+"EdgeCertStack"), &awscdk.StackProps{
			Env: &awscdk.Environment{Region: jsii.String("us-east-1")},
		})
		certScope = edgeStack
	}

	certProps := &awscertificatemanager.CertificateProps{
		DomainName: jsii.String(fqdn),
		Validation: awscertificatemanager.CertificateValidation_FromDns(zone),
	}
	if len(additionalSANs) > 0 {
		certProps.SubjectAlternativeNames = &additionalSANs
	}

	return awscertificatemanager.NewCertificate(certScope, jsii.String(id), certProps)
}
