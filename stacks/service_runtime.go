package stacks

import (
	"fmt"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsec2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsecs"
	"github.com/aws/aws-cdk-go/awscdk/v2/awselasticloadbalancingv2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awslogs"
	"github.com/aws/aws-cdk-go/awscdk/v2/awssecretsmanager"
	"github.com/aws/jsii-runtime-go"

	"github.com/appfabrichq/appfabric/infra/lib/cdklogger"
	"github.com/appfabrichq/appfabric/infra/lib/fronting"
	"github.com/appfabrichq/appfabric/infra/lib/utils"
	"github.com/appfabrichq/appfabric/infra/resolve"
)

const defaultServicePort = 80

// newServiceRuntime provisions one resolved service: a Fargate task with the
// merged env/secret bundles, a service in the shared cluster, and, when the
// service is HTTP-exposed, a target group plus listener rule at the resolved
// priority.
func newServiceRuntime(env *appEnv, svc *resolve.ResolvedEntity, roles *roleFactory) {
	taskRole := roles.RoleFor(svc)
	grantSecrets(taskRole, svc.Secrets)

	taskDef := awsecs.NewFargateTaskDefinition(env.Stack, jsii.String(svc.Name+"Task"),
		&awsecs.FargateTaskDefinitionProps{
			Cpu:            jsii.Number(256),
			MemoryLimitMiB: jsii.Number(512),
			TaskRole:       taskRole,
		})

	port := svc.Routing.Port
	if port == 0 {
		port = defaultServicePort
	}

	taskDef.AddContainer(jsii.String("app"), &awsecs.ContainerDefinitionOptions{
		Image:       containerImage(svc),
		Environment: envMap(svc.Env),
		Secrets:     containerSecrets(env, svc),
		Logging: awsecs.LogDriver_AwsLogs(&awsecs.AwsLogDriverProps{
			StreamPrefix: jsii.String(svc.Name),
			LogRetention: awslogs.RetentionDays_ONE_MONTH,
		}),
		PortMappings: &[]*awsecs.PortMapping{{ContainerPort: jsii.Number(float64(port))}},
	})

	sg := serviceSecurityGroup(env, svc)

	service := awsecs.NewFargateService(env.Stack, jsii.String(svc.Name+"Service"), &awsecs.FargateServiceProps{
		Cluster:        env.Cluster,
		TaskDefinition: taskDef,
		ServiceName:    jsii.String(svc.Name),
		SecurityGroups: &[]awsec2.ISecurityGroup{sg},
	})

	if svc.Routing.Kind == resolve.RoutingNone {
		return
	}
	attachServiceRouting(env, svc, service, sg, port)
}

// attachServiceRouting places the service behind the shared ALB via the
// fronting abstraction: a target group is registered and the listener rule is
// attached at the priority the resolver assigned.
func attachServiceRouting(env *appEnv, svc *resolve.ResolvedEntity, service awsecs.FargateService, sg awsec2.ISecurityGroup, port int) {
	kind, ok := fronting.KindForRouting(svc.Routing.Kind)
	if !ok || kind != fronting.KindALB {
		panic(fmt.Sprintf("service %s resolved to non-ALB routing kind %q", svc.Name, svc.Routing.Kind))
	}

	targetGroup := awselasticloadbalancingv2.NewApplicationTargetGroup(env.Stack,
		jsii.String(svc.Name+"TargetGroup"),
		&awselasticloadbalancingv2.ApplicationTargetGroupProps{
			Vpc:        env.Vpc,
			Port:       jsii.Number(float64(port)),
			Protocol:   awselasticloadbalancingv2.ApplicationProtocol_HTTP,
			TargetType: awselasticloadbalancingv2.TargetType_IP,
			Targets:    &[]awselasticloadbalancingv2.IApplicationLoadBalancerTarget{service},
		})

	front := fronting.New(kind)
	result := front.AttachRoutes(env.Stack, svc.Name, &fronting.FrontingProps{
		Decision:     svc.Routing,
		HostedZone:   env.HostedDomain.Zone,
		Listener:     env.Listener,
		TargetGroup:  targetGroup,
		LoadBalancer: env.Alb,
	})

	// The edge opens the ALB, the ALB opens the container port; everything
	// else stays shut. Identical openings from sibling services collapse to
	// one rule inside the security group.
	albSGs := *env.Alb.Connections().SecurityGroups()
	utils.ApplyIngressRules(albSGs[0], front.IngressRules())
	sg.AddIngressRule(
		awsec2.Peer_SecurityGroupId(albSGs[0].SecurityGroupId(), nil),
		awsec2.Port_Tcp(jsii.Number(float64(port))),
		jsii.String("ALB to "+svc.Name),
		jsii.Bool(false),
	)

	if result.FQDN != nil {
		awscdk.NewCfnOutput(env.Stack, jsii.String(svc.Name+"Url"), &awscdk.CfnOutputProps{
			Value: jsii.String("https://" + *result.FQDN),
		})
	}
	cdklogger.LogInfo(env.Stack, "", "Service %s routed (%s, priority %d)", svc.Name, svc.Routing.Kind, svc.Routing.Priority)
}

// serviceSecurityGroup builds the task security group from the resolved
// network posture.
func serviceSecurityGroup(env *appEnv, svc *resolve.ResolvedEntity) awsec2.ISecurityGroup {
	allowAll := svc.Network.Mode == resolve.NetworkAllowAll
	sg := awsec2.NewSecurityGroup(env.Stack, jsii.String(svc.Name+"SG"), &awsec2.SecurityGroupProps{
		Vpc:              env.Vpc,
		Description:      jsii.String("Egress posture for " + svc.Name),
		AllowAllOutbound: jsii.Bool(allowAll),
	})
	if svc.Network.Mode == resolve.NetworkExplicit {
		utils.ApplyEgressRules(sg, svc.Network.Rules, svc.Name+" network access")
	}
	return sg
}

// containerImage picks between a pre-built registry image and a local build
// context; the resolver guarantees exactly one is set.
func containerImage(svc *resolve.ResolvedEntity) awsecs.ContainerImage {
	if svc.Image != "" {
		return awsecs.ContainerImage_FromRegistry(jsii.String(svc.Image), nil)
	}
	return awsecs.ContainerImage_FromAsset(jsii.String(svc.Source), nil)
}

func envMap(vars []resolve.EnvVar) *map[string]*string {
	out := map[string]*string{}
	for _, v := range vars {
		out[v.Name] = jsii.String(v.Value)
	}
	return &out
}

// containerSecrets converts resolved secret references into ECS secrets,
// importing each distinct ARN once per entity.
func containerSecrets(env *appEnv, svc *resolve.ResolvedEntity) *map[string]awsecs.Secret {
	out := map[string]awsecs.Secret{}
	imported := map[string]awssecretsmanager.ISecret{}
	for i, ref := range svc.Secrets {
		arn, jsonKey := ref.Components()
		secret, ok := imported[arn]
		if !ok {
			secret = awssecretsmanager.Secret_FromSecretCompleteArn(env.Stack,
				jsii.String(fmt.Sprintf("%sSecret%d", svc.Name, i)), jsii.String(arn))
			imported[arn] = secret
		}
		if jsonKey != "" {
			out[ref.Name] = awsecs.Secret_FromSecretsManager(secret, jsii.String(jsonKey))
		} else {
			out[ref.Name] = awsecs.Secret_FromSecretsManager(secret, nil)
		}
	}
	return &out
}
