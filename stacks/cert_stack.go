package stacks

import (
	"strings"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awscertificatemanager"
	"github.com/aws/jsii-runtime-go"

	"github.com/appfabrichq/appfabric/infra/config"
	domaincfg "github.com/appfabrichq/appfabric/infra/config/domain"
	"github.com/appfabrichq/appfabric/infra/lib/utils"
)

type CertStackExports struct {
	DomainCert awscertificatemanager.Certificate
}

// CertStack creates a stack with an ACM certificate for the project domain,
// fixed at us-east-1. This is necessary because CloudFront requires the
// certificate to be in that region.
func CertStack(app awscdk.App, domainRoot string) CertStackExports {
	env := utils.CdkEnv()
	env.Region = jsii.String("us-east-1")
	stackName := config.WithStackSuffix(app, "AppFabric-Cert")
	stack := awscdk.NewStack(app, jsii.String(stackName), &awscdk.StackProps{
		Env:                   env,
		CrossRegionReferences: jsii.Bool(true),
	})

	envVars := config.GetEnvironmentVariables[config.CertStackEnvironmentVariables](stack)
	var extraSANs []string
	for _, san := range strings.Split(envVars.ExtraSANs, ",") {
		if san = strings.TrimSpace(san); san != "" {
			extraSANs = append(extraSANs, san)
		}
	}

	stage := config.GetStage(stack)
	devPrefix := config.GetDevPrefix(stack)
	hd := domaincfg.NewHostedDomain(stack, "Domain", &domaincfg.HostedDomainProps{
		Spec: domaincfg.Spec{
			Root:      domainRoot,
			Stage:     stage,
			DevPrefix: devPrefix,
		},
		EdgeCertificate: true,
		AdditionalNames: extraSANs,
	})

	return CertStackExports{
		DomainCert: hd.Cert,
	}
}
