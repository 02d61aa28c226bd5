package config

import (
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"
)

// StageType defines allowed deployment stages.
type StageType string

const (
	StageProd StageType = "prod"
	StageDev  StageType = "dev"
)

// GetStage reads "stage" from CDK context at synth time, defaulting to prod.
func GetStage(scope constructs.Construct) StageType {
	ctxValue := scope.Node().TryGetContext(jsii.String("stage"))
	if v, ok := ctxValue.(string); ok && v != "" {
		return StageType(v)
	}
	return StageProd
}

// GetDevPrefix reads "devPrefix" from CDK context. Dev stacks use it to keep
// several developer deployments apart under the same hosted zone.
func GetDevPrefix(scope constructs.Construct) string {
	ctxValue := scope.Node().TryGetContext(jsii.String("devPrefix"))
	if v, ok := ctxValue.(string); ok {
		return v
	}
	return ""
}

// StackSuffix reads "stackSuffix" from CDK context; empty means no suffix.
func StackSuffix(scope constructs.Construct) string {
	ctxValue := scope.Node().TryGetContext(jsii.String("stackSuffix"))
	if v, ok := ctxValue.(string); ok {
		return v
	}
	return ""
}

// WithStackSuffix appends the context stack suffix to a base stack name.
func WithStackSuffix(scope constructs.Construct, name string) string {
	if suffix := StackSuffix(scope); suffix != "" {
		return name + "-" + suffix
	}
	return name
}

// ConfigFilePath reads "configFile" from CDK context, defaulting to the
// conventional file at the repository root.
func ConfigFilePath(scope constructs.Construct) string {
	ctxValue := scope.Node().TryGetContext(jsii.String("configFile"))
	if v, ok := ctxValue.(string); ok && v != "" {
		return v
	}
	return "appfabric.yaml"
}
