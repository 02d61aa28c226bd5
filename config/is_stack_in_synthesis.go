package config

import (
	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/constructs-go/constructs/v10"
)

// IsStackInSynthesis reports whether the scope's stack is actually being
// synthesized. Guarding on it keeps env-var parsing and file loading out of
// list/diff operations that only walk the construct tree.
func IsStackInSynthesis(scope constructs.Construct) bool {
	stack := awscdk.Stack_Of(scope)
	if stack == nil {
		return false
	}
	return *stack.BundlingRequired()
}
