package stacks

import (
	"errors"
	"fmt"
	"os"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awscertificatemanager"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsec2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsecs"
	"github.com/aws/aws-cdk-go/awscdk/v2/awselasticloadbalancingv2"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"

	"github.com/appfabrichq/appfabric/infra/config"
	domaincfg "github.com/appfabrichq/appfabric/infra/config/domain"
	"github.com/appfabrichq/appfabric/infra/lib/cdklogger"
	"github.com/appfabrichq/appfabric/infra/lib/fronting"
	"github.com/appfabrichq/appfabric/infra/lib/utils"
	"github.com/appfabrichq/appfabric/infra/report"
	"github.com/appfabrichq/appfabric/infra/resolve"
)

type AppStackProps struct {
	awscdk.StackProps
	CertStackExports *CertStackExports `json:",omitempty"` // only needed when CloudFront placements exist
}

// appEnv is the shared provisioning context threaded through the per-entity
// builders: everything feature-gated shared infrastructure produced, plus the
// resolved model itself.
type appEnv struct {
	Stack       awscdk.Stack
	Resolved    *resolve.ResolvedConfig
	Params      config.CDKParams
	EnvVars     config.AppStackEnvironmentVariables
	CertExports *CertStackExports

	Vpc          awsec2.IVpc
	HostedDomain *domaincfg.HostedDomain

	// AlbNeeded
	Alb      awselasticloadbalancingv2.ApplicationLoadBalancer
	Listener awselasticloadbalancingv2.ApplicationListener

	// Any services at all
	Cluster awsecs.Cluster

	// LambdaVpcNeeded
	LambdaSG awsec2.ISecurityGroup
}

// AppStack provisions every resolved service and function: shared
// infrastructure is created only when the feature detector says something
// needs it, then each entity gets its runtime, wiring, and edge placement.
func AppStack(
	scope constructs.Construct,
	id string,
	props *AppStackProps,
) awscdk.Stack {
	var sprops awscdk.StackProps
	if props != nil {
		sprops = props.StackProps
	}
	stack := awscdk.NewStack(scope, jsii.String(id), &sprops)
	if !config.IsStackInSynthesis(stack) {
		return stack
	}

	envVars := config.GetEnvironmentVariables[config.AppStackEnvironmentVariables](stack)
	cdkParams := config.NewCDKParams(stack)
	stage := config.GetStage(stack)
	devPrefix := config.GetDevPrefix(stack)

	resolved := mustResolve(stack, envVars)

	env := &appEnv{
		Stack:    stack,
		Resolved: resolved,
		Params:   cdkParams,
		EnvVars:  envVars,
	}
	if props != nil {
		env.CertExports = props.CertStackExports
	}

	env.Vpc = awsec2.Vpc_FromLookup(stack, jsii.String("VPC"), &awsec2.VpcLookupOptions{IsDefault: jsii.Bool(true)})
	env.HostedDomain = domaincfg.NewHostedDomain(stack, "HostedDomain", &domaincfg.HostedDomainProps{
		Spec: domaincfg.Spec{
			Root:      resolved.Project.Domain,
			Stage:     stage,
			DevPrefix: devPrefix,
		},
		EdgeCertificate: false,
	})

	features := resolved.Features
	cdklogger.LogInfo(stack, "", "Provisioning %d services and %d functions (alb=%t apigw=%t cloudfront=%t rds=%t)",
		len(resolved.Services), len(resolved.Functions),
		features.AlbNeeded, features.ApiGatewayNeeded, features.CloudFrontNeeded, features.RdsNeeded)

	if len(resolved.Services) > 0 {
		env.Cluster = awsecs.NewCluster(stack, jsii.String("Cluster"), &awsecs.ClusterProps{
			Vpc:         env.Vpc,
			ClusterName: jsii.String(resolved.Project.Name + "-" + resolved.Project.Environment),
		})
	}
	if features.AlbNeeded {
		env.Alb, env.Listener = newSharedAlb(env)
	}
	if features.LambdaVpcNeeded {
		env.LambdaSG = newSharedLambdaSG(env)
	}

	roles := newRoleFactory(env)

	for _, svc := range resolved.Services {
		newServiceRuntime(env, svc, roles)
	}
	for _, fn := range resolved.Functions {
		newFunctionRuntime(env, fn, roles)
	}

	return stack
}

// edgeCertificate returns the us-east-1 certificate for placements that
// terminate TLS at the edge; CloudFront refuses regional certificates, and
// the other kinds issue their own in-region.
func (e *appEnv) edgeCertificate(kind fronting.Kind) awscertificatemanager.ICertificate {
	if kind != fronting.KindCloudFront || e.CertExports == nil {
		return nil
	}
	return e.CertExports.DomainCert
}

// mustResolve loads the operator configuration, runs the resolution pipeline,
// and surfaces the outcome through CDK annotations. Validation failures abort
// the synth with the full batch of issues.
func mustResolve(stack awscdk.Stack, envVars config.AppStackEnvironmentVariables) *resolve.ResolvedConfig {
	raw, err := config.LoadStackConfig(config.ConfigFilePath(stack))
	if err != nil {
		panic(err)
	}
	secretArns, err := config.LoadSecretLookup(envVars.SecretsFile)
	if err != nil {
		panic(err)
	}

	lookups := resolve.Lookups{
		SecretArns:        secretArns,
		DatabaseSecretArn: envVars.DatabaseSecretArn,
		S3Enabled:         envVars.AssetsBucket != "",
		BucketName:        envVars.AssetsBucket,
	}

	resolved, err := resolve.Resolve(raw, lookups, nil)
	if err != nil {
		var issues *resolve.IssueList
		if errors.As(err, &issues) {
			for _, issue := range issues.Issues {
				cdklogger.LogError(stack, "", "%s", issue)
			}
		}
		panic(fmt.Sprintf("stack configuration is invalid: %v", err))
	}

	for _, w := range resolved.Warnings {
		cdklogger.LogWarning(stack, "", "%s/%s: %s", w.Entity, w.Field, w.Message)
	}

	writeResolutionReport(stack, envVars.ReportPath, resolved)
	return resolved
}

// writeResolutionReport renders the operator-facing markdown summary of the
// resolved model next to the synth output. Reporting is best-effort: a
// failure becomes an annotation, never a failed synth.
func writeResolutionReport(stack awscdk.Stack, path string, resolved *resolve.ResolvedConfig) {
	if path == "" {
		return
	}
	md, err := report.Render(report.TplResolutionReport, report.Build(resolved))
	if err != nil {
		cdklogger.LogWarning(stack, "", "Resolution report not rendered: %v", err)
		return
	}
	if err := os.WriteFile(path, []byte(md), 0o644); err != nil {
		cdklogger.LogWarning(stack, "", "Resolution report not written to %s: %v", path, err)
		return
	}
	cdklogger.LogInfo(stack, "", "Resolution report written to %s", path)
}

// newSharedAlb creates the one internet-facing ALB all services share. The
// HTTPS listener starts with a fixed 404 default action; every service adds
// its own rule at the priority the resolver assigned.
func newSharedAlb(env *appEnv) (awselasticloadbalancingv2.ApplicationLoadBalancer, awselasticloadbalancingv2.ApplicationListener) {
	alb := awselasticloadbalancingv2.NewApplicationLoadBalancer(env.Stack, jsii.String("Alb"),
		&awselasticloadbalancingv2.ApplicationLoadBalancerProps{
			Vpc:            env.Vpc,
			InternetFacing: jsii.Bool(true),
		})

	// Listeners don't open the world by themselves; the ingress spec of the
	// fronting that places each service is applied in attachServiceRouting.
	listener := alb.AddListener(jsii.String("Https"), &awselasticloadbalancingv2.BaseApplicationListenerProps{
		Port: jsii.Number(443),
		Open: jsii.Bool(false),
		Certificates: &[]awselasticloadbalancingv2.IListenerCertificate{
			awselasticloadbalancingv2.ListenerCertificate_FromCertificateManager(env.HostedDomain.Cert),
		},
		DefaultAction: awselasticloadbalancingv2.ListenerAction_FixedResponse(jsii.Number(404), nil),
	})

	// Plain HTTP only redirects.
	alb.AddListener(jsii.String("Http"), &awselasticloadbalancingv2.BaseApplicationListenerProps{
		Port: jsii.Number(80),
		Open: jsii.Bool(false),
		DefaultAction: awselasticloadbalancingv2.ListenerAction_Redirect(&awselasticloadbalancingv2.RedirectOptions{
			Protocol:  jsii.String("HTTPS"),
			Port:      jsii.String("443"),
			Permanent: jsii.Bool(true),
		}),
	})

	return alb, listener
}

// newSharedLambdaSG builds the security group VPC-attached functions share.
// Outbound traffic is restricted to the deduplicated rule view; per-entity
// differences beyond that view get their own groups in newFunctionRuntime.
func newSharedLambdaSG(env *appEnv) awsec2.ISecurityGroup {
	sg := awsec2.NewSecurityGroup(env.Stack, jsii.String("LambdaSG"), &awsec2.SecurityGroupProps{
		Vpc:              env.Vpc,
		Description:      jsii.String("Shared egress rules for VPC-attached functions"),
		AllowAllOutbound: jsii.Bool(false),
	})
	utils.ApplyEgressRules(sg, env.Resolved.SharedNetworkRules, "resolved network access")
	return sg
}
