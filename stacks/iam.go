package stacks

import (
	"github.com/aws/aws-cdk-go/awscdk/v2/awsiam"
	"github.com/aws/jsii-runtime-go"
	"github.com/samber/lo"

	"github.com/appfabrichq/appfabric/infra/resolve"
)

// roleFactory hands out IAM roles for resolved entities. Entities whose
// permission surface says SharedRole reuse one project-wide role per entity
// kind (the service principals differ); everything else gets a custom role
// named after the entity.
type roleFactory struct {
	env *appEnv

	shared map[resolve.EntityKind]awsiam.Role
}

func newRoleFactory(env *appEnv) *roleFactory {
	return &roleFactory{
		env:    env,
		shared: map[resolve.EntityKind]awsiam.Role{},
	}
}

func principalFor(kind resolve.EntityKind) awsiam.IPrincipal {
	if kind == resolve.KindService {
		return awsiam.NewServicePrincipal(jsii.String("ecs-tasks.amazonaws.com"), nil)
	}
	return awsiam.NewServicePrincipal(jsii.String("lambda.amazonaws.com"), nil)
}

// RoleFor returns the execution/task role for one entity, creating it (or the
// kind's shared role) on first use.
func (f *roleFactory) RoleFor(e *resolve.ResolvedEntity) awsiam.Role {
	if e.Permissions.SharedRole {
		if role, ok := f.shared[e.Kind]; ok {
			return role
		}
		role := f.newRole(string(e.Kind)+"SharedRole", e)
		f.shared[e.Kind] = role
		return role
	}
	return f.newRole(e.Name+"Role", e)
}

func (f *roleFactory) newRole(id string, e *resolve.ResolvedEntity) awsiam.Role {
	role := awsiam.NewRole(f.env.Stack, jsii.String(id), &awsiam.RoleProps{
		AssumedBy: principalFor(e.Kind),
	})

	if e.Kind == resolve.KindFunction {
		role.AddManagedPolicy(awsiam.ManagedPolicy_FromAwsManagedPolicyName(
			jsii.String("service-role/AWSLambdaBasicExecutionRole")))
		if f.env.Resolved.Features.LambdaVpcNeeded {
			role.AddManagedPolicy(awsiam.ManagedPolicy_FromAwsManagedPolicyName(
				jsii.String("service-role/AWSLambdaVPCAccessExecutionRole")))
		}
	}

	f.applyToggles(role, e.Permissions)
	for _, stmt := range e.Permissions.Statements {
		role.AddToPolicy(policyStatement(stmt))
	}
	return role
}

// applyToggles expands the coarse permission booleans into policy statements.
func (f *roleFactory) applyToggles(role awsiam.Role, p resolve.ResolvedPermissions) {
	bucket := f.env.EnvVars.AssetsBucket
	if p.S3 && bucket != "" {
		role.AddToPolicy(awsiam.NewPolicyStatement(&awsiam.PolicyStatementProps{
			Actions: jsii.Strings("s3:GetObject", "s3:PutObject", "s3:DeleteObject", "s3:ListBucket"),
			Resources: jsii.Strings(
				"arn:aws:s3:::"+bucket,
				"arn:aws:s3:::"+bucket+"/*",
			),
		}))
	}
	if p.SES {
		role.AddToPolicy(awsiam.NewPolicyStatement(&awsiam.PolicyStatementProps{
			Actions:   jsii.Strings("ses:SendEmail", "ses:SendRawEmail"),
			Resources: jsii.Strings("*"),
		}))
	}
	if p.Fargate {
		role.AddToPolicy(awsiam.NewPolicyStatement(&awsiam.PolicyStatementProps{
			Actions:   jsii.Strings("ecs:RunTask", "ecs:StopTask", "ecs:DescribeTasks", "iam:PassRole"),
			Resources: jsii.Strings("*"),
		}))
	}
}

func policyStatement(stmt resolve.Statement) awsiam.PolicyStatement {
	effect := awsiam.Effect_ALLOW
	if stmt.Effect == "deny" {
		effect = awsiam.Effect_DENY
	}
	return awsiam.NewPolicyStatement(&awsiam.PolicyStatementProps{
		Effect:    effect,
		Actions:   jsii.Strings(stmt.Actions...),
		Resources: jsii.Strings(stmt.Resources...),
	})
}

// grantSecrets lets the role read every secret the entity references.
func grantSecrets(role awsiam.Role, secrets []resolve.SecretRef) {
	arns := lo.Uniq(lo.Map(secrets, func(s resolve.SecretRef, _ int) string {
		arn, _ := s.Components()
		return arn
	}))
	if len(arns) == 0 {
		return
	}
	role.AddToPolicy(awsiam.NewPolicyStatement(&awsiam.PolicyStatementProps{
		Actions:   jsii.Strings("secretsmanager:GetSecretValue"),
		Resources: jsii.Strings(arns...),
	}))
}
