package stacks

import (
	"fmt"
	"strings"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsec2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsevents"
	"github.com/aws/aws-cdk-go/awscdk/v2/awseventstargets"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsiam"
	"github.com/aws/aws-cdk-go/awscdk/v2/awskms"
	"github.com/aws/aws-cdk-go/awscdk/v2/awslambda"
	"github.com/aws/aws-cdk-go/awscdk/v2/awslambdaeventsources"
	"github.com/aws/aws-cdk-go/awscdk/v2/awss3"
	"github.com/aws/aws-cdk-go/awscdk/v2/awssqs"
	"github.com/aws/aws-cdk-go/awscdklambdagoalpha/v2"
	"github.com/aws/jsii-runtime-go"

	"github.com/appfabrichq/appfabric/infra/lib/cdklogger"
	"github.com/appfabrichq/appfabric/infra/lib/fronting"
	"github.com/appfabrichq/appfabric/infra/lib/utils"
	"github.com/appfabrichq/appfabric/infra/resolve"
)

// newFunctionRuntime provisions one resolved function: the Lambda itself with
// the merged env/secret bundles, every declared trigger, and, for an http
// trigger, the edge placement the routing classifier selected.
func newFunctionRuntime(env *appEnv, fn *resolve.ResolvedEntity, roles *roleFactory) {
	role := roles.RoleFor(fn)
	grantSecrets(role, fn.Secrets)

	environment := envMap(fn.Env)
	// Functions read their secrets at runtime; the reference keeps the
	// same "<arn>:<jsonKey>::" wire format the resolver emits for ECS.
	for _, ref := range fn.Secrets {
		(*environment)[ref.Name] = jsii.String(ref.ValueFrom)
	}

	sg := functionSecurityGroup(env, fn)
	var vpcProps struct {
		vpc awsec2.IVpc
		sgs *[]awsec2.ISecurityGroup
	}
	if sg != nil {
		vpcProps.vpc = env.Vpc
		vpcProps.sgs = &[]awsec2.ISecurityGroup{sg}
	}

	var encryption awskms.IKey
	if fn.KMS.Kind() == resolve.KmsCustomerManaged {
		encryption = awskms.Key_FromKeyArn(env.Stack, jsii.String(fn.Name+"Key"), jsii.String(fn.KMS.KeyArn()))
	}

	function := newLambda(env, fn, role, environment, vpcProps.vpc, vpcProps.sgs, encryption)

	attachTriggers(env, fn, function, sg)
}

// newLambda builds the function resource. Go runtimes compile from the local
// functions/<name> entry point; anything else ships the directory as-is with
// the declared managed runtime.
func newLambda(
	env *appEnv,
	fn *resolve.ResolvedEntity,
	role awsiam.Role,
	environment *map[string]*string,
	vpc awsec2.IVpc,
	sgs *[]awsec2.ISecurityGroup,
	encryption awskms.IKey,
) awslambda.IFunction {
	entry := "functions/" + fn.Name

	if isGoRuntime(fn.Runtime) {
		return awscdklambdagoalpha.NewGoFunction(env.Stack, jsii.String(fn.Name+"Fn"), &awscdklambdagoalpha.GoFunctionProps{
			FunctionName: jsii.String(env.Resolved.Project.Name + "-" + fn.Name),
			Entry:        jsii.String(entry),
			Timeout:      awscdk.Duration_Seconds(jsii.Number(float64(fn.Timeout))),
			MemorySize:   jsii.Number(float64(fn.MemorySize)),
			Role:         role,
			Environment:  environment,
			Bundling: &awscdklambdagoalpha.BundlingOptions{
				GoBuildFlags: &[]*string{jsii.String(`-ldflags "-s -w"`)},
			},
			Vpc:                   vpc,
			SecurityGroups:        sgs,
			EnvironmentEncryption: encryption,
			Layers:                layerRefs(env, fn),
		})
	}

	return awslambda.NewFunction(env.Stack, jsii.String(fn.Name+"Fn"), &awslambda.FunctionProps{
		FunctionName:          jsii.String(env.Resolved.Project.Name + "-" + fn.Name),
		Runtime:               awslambda.NewRuntime(jsii.String(fn.Runtime), awslambda.RuntimeFamily_OTHER, nil),
		Handler:               jsii.String("index.handler"),
		Code:                  awslambda.Code_FromAsset(jsii.String(entry), nil),
		Timeout:               awscdk.Duration_Seconds(jsii.Number(float64(fn.Timeout))),
		MemorySize:            jsii.Number(float64(fn.MemorySize)),
		Role:                  role,
		Environment:           environment,
		Vpc:                   vpc,
		SecurityGroups:        sgs,
		EnvironmentEncryption: encryption,
		Layers:                layerRefs(env, fn),
	})
}

func isGoRuntime(runtime string) bool {
	return runtime == "" || strings.HasPrefix(runtime, "go") || strings.HasPrefix(runtime, "provided.")
}

func layerRefs(env *appEnv, fn *resolve.ResolvedEntity) *[]awslambda.ILayerVersion {
	if len(fn.Layers) == 0 {
		return nil
	}
	layers := make([]awslambda.ILayerVersion, 0, len(fn.Layers))
	for i, arn := range fn.Layers {
		layers = append(layers, awslambda.LayerVersion_FromLayerVersionArn(env.Stack,
			jsii.String(fmt.Sprintf("%sLayer%d", fn.Name, i)), jsii.String(arn)))
	}
	return &layers
}

// functionSecurityGroup returns nil when the function does not need VPC
// attachment at all. Explicit per-entity rules get a dedicated group; the
// default is the shared group built from the deduplicated rule view.
func functionSecurityGroup(env *appEnv, fn *resolve.ResolvedEntity) awsec2.ISecurityGroup {
	if env.LambdaSG == nil {
		return nil
	}
	if fn.Network.Mode == resolve.NetworkExplicit {
		sg := awsec2.NewSecurityGroup(env.Stack, jsii.String(fn.Name+"SG"), &awsec2.SecurityGroupProps{
			Vpc:              env.Vpc,
			Description:      jsii.String("Egress posture for " + fn.Name),
			AllowAllOutbound: jsii.Bool(false),
		})
		utils.ApplyEgressRules(sg, fn.Network.Rules, fn.Name+" network access")
		return sg
	}
	if fn.Network.Mode == resolve.NetworkAllowAll {
		sg := awsec2.NewSecurityGroup(env.Stack, jsii.String(fn.Name+"SG"), &awsec2.SecurityGroupProps{
			Vpc:              env.Vpc,
			Description:      jsii.String("Unrestricted egress for " + fn.Name),
			AllowAllOutbound: jsii.Bool(true),
		})
		return sg
	}
	return env.LambdaSG
}

// attachTriggers wires every declared trigger to the function.
func attachTriggers(env *appEnv, fn *resolve.ResolvedEntity, function awslambda.IFunction, sg awsec2.ISecurityGroup) {
	t := fn.Triggers

	if t.Schedule != "" {
		rule := awsevents.NewRule(env.Stack, jsii.String(fn.Name+"Schedule"), &awsevents.RuleProps{
			Schedule: awsevents.Schedule_Expression(jsii.String(t.Schedule)),
		})
		rule.AddTarget(awseventstargets.NewLambdaFunction(function, nil))
	}

	if t.SQS != nil {
		queue := importQueue(env, fn, t.SQS.Queue)
		props := &awslambdaeventsources.SqsEventSourceProps{}
		if t.SQS.BatchSize > 0 {
			props.BatchSize = jsii.Number(float64(t.SQS.BatchSize))
		}
		function.AddEventSource(awslambdaeventsources.NewSqsEventSource(queue, props))
	}

	if t.S3 != nil {
		bucket := awss3.Bucket_FromBucketName(env.Stack, jsii.String(fn.Name+"TriggerBucket"),
			jsii.String(env.EnvVars.AssetsBucket))
		function.AddEventSource(awslambdaeventsources.NewS3EventSourceV2(bucket, &awslambdaeventsources.S3EventSourceProps{
			Events:  s3Events(fn, t.S3.Events),
			Filters: s3Filters(t.S3.Prefix),
		}))
	}

	if t.HTTP != nil && fn.Routing.Kind != resolve.RoutingNone {
		attachFunctionRouting(env, fn, function, sg)
	}
}

// importQueue accepts either a full queue ARN or a bare queue name in the
// stack's own account and region.
func importQueue(env *appEnv, fn *resolve.ResolvedEntity, queue string) awssqs.IQueue {
	id := jsii.String(fn.Name + "Queue")
	arn := queue
	if !strings.HasPrefix(queue, "arn:") {
		arn = *env.Stack.FormatArn(&awscdk.ArnComponents{
			Service:  jsii.String("sqs"),
			Resource: jsii.String(queue),
		})
	}
	return awssqs.Queue_FromQueueArn(env.Stack, id, jsii.String(arn))
}

func s3Events(fn *resolve.ResolvedEntity, events []string) *[]awss3.EventType {
	out := make([]awss3.EventType, 0, len(events))
	for _, ev := range events {
		switch strings.ToLower(ev) {
		case "created", "create", "put":
			out = append(out, awss3.EventType_OBJECT_CREATED)
		case "removed", "remove", "delete":
			out = append(out, awss3.EventType_OBJECT_REMOVED)
		default:
			panic(fmt.Sprintf("function %s: unsupported s3 trigger event %q", fn.Name, ev))
		}
	}
	return &out
}

func s3Filters(prefix string) *[]*awss3.NotificationKeyFilter {
	if prefix == "" {
		return nil
	}
	return &[]*awss3.NotificationKeyFilter{{Prefix: jsii.String(prefix)}}
}

// attachFunctionRouting exposes the function through the placement the
// resolver picked: a function URL feeds API Gateway or CloudFront.
func attachFunctionRouting(env *appEnv, fn *resolve.ResolvedEntity, function awslambda.IFunction, sg awsec2.ISecurityGroup) {
	kind, ok := fronting.KindForRouting(fn.Routing.Kind)
	if !ok {
		return
	}
	if kind == fronting.KindALB {
		panic(fmt.Sprintf("function %s resolved to ALB routing kind %q", fn.Name, fn.Routing.Kind))
	}

	furl := function.AddFunctionUrl(&awslambda.FunctionUrlOptions{
		AuthType: awslambda.FunctionUrlAuthType_NONE,
	})
	// Url() is "https://<id>.lambda-url.<region>.on.aws/"; the fronting
	// implementations want the bare hostname.
	host := awscdk.Fn_Select(jsii.Number(2), awscdk.Fn_Split(jsii.String("/"), furl.Url(), nil))

	front := fronting.New(kind)

	// VPC-attached backends only admit the edge that fronts them, e.g. the
	// CloudFront origin prefix list.
	if sg != nil {
		utils.ApplyIngressRules(sg, front.IngressRules())
	}

	result := front.AttachRoutes(env.Stack, fn.Name, &fronting.FrontingProps{
		Decision:            fn.Routing,
		HostedZone:          env.HostedDomain.Zone,
		Endpoint:            host,
		CorsAllowOrigins:    env.Params.CorsAllowOrigins.ValueAsString(),
		ImportedCertificate: env.edgeCertificate(kind),
	})

	if result.FQDN != nil {
		awscdk.NewCfnOutput(env.Stack, jsii.String(fn.Name+"Url"), &awscdk.CfnOutputProps{
			Value: result.FQDN,
		})
	}
	cdklogger.LogInfo(env.Stack, "", "Function %s routed (%s, priority %d)", fn.Name, fn.Routing.Kind, fn.Routing.Priority)
}
