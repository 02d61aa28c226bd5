// Package cdklogger attaches operator-facing messages to the CDK construct
// tree as synth-time annotations.
package cdklogger

import (
	"fmt"
	"strings"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"
)

// format prefixes the message with the construct ID unless the scope's path
// already ends in it, which would just repeat the same label.
func format(scope constructs.Construct, constructID, msgFormat string, args ...interface{}) *string {
	message := fmt.Sprintf(msgFormat, args...)
	if constructID != "" {
		cdkPath := *scope.Node().Path()
		if !strings.HasSuffix(cdkPath, "/"+constructID) && cdkPath != "/"+constructID {
			message = fmt.Sprintf("[%s] %s", constructID, message)
		}
	}
	return jsii.String(message)
}

// LogInfo adds an INFO level message to the construct's metadata; it is
// printed during `cdk synth`.
func LogInfo(scope constructs.Construct, constructID string, msgFormat string, args ...interface{}) {
	awscdk.Annotations_Of(scope).AddInfo(format(scope, constructID, msgFormat, args...))
}

// LogWarning adds a WARNING level message to the construct's metadata.
func LogWarning(scope constructs.Construct, constructID string, msgFormat string, args ...interface{}) {
	awscdk.Annotations_Of(scope).AddWarning(format(scope, constructID, msgFormat, args...))
}

// LogError adds an ERROR level message to the construct's metadata.
func LogError(scope constructs.Construct, constructID string, msgFormat string, args ...interface{}) {
	awscdk.Annotations_Of(scope).AddError(format(scope, constructID, msgFormat, args...))
}
