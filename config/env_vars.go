package config

import (
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/caarlos0/env/v11"
)

// AppStackEnvironmentVariables carry the identifiers of already-provisioned
// resources the resolver consumes as read-only lookups.
type AppStackEnvironmentVariables struct {
	// DatabaseSecretArn is the Secrets Manager ARN of the database-URL secret.
	DatabaseSecretArn string `env:"DATABASE_SECRET_ARN"`
	// AssetsBucket is the name of the project S3 bucket, when one exists.
	AssetsBucket string `env:"ASSETS_BUCKET"`
	// SecretsFile points at a YAML map of secret identifiers to ARNs.
	SecretsFile string `env:"SECRETS_FILE"`
	// ReportPath is where the markdown resolution report is written during
	// synthesis. Empty disables the report.
	ReportPath string `env:"RESOLUTION_REPORT_PATH" envDefault:"resolution-report.md"`
}

// CertStackEnvironmentVariables configure the edge certificate stack.
type CertStackEnvironmentVariables struct {
	// ExtraSANs is a comma separated list of additional certificate names.
	ExtraSANs string `env:"CERT_EXTRA_SANS"`
}

func GetEnvironmentVariables[T any](scope constructs.Construct) T {
	var envObj T

	// only run if we are synthesizing the stack
	if !IsStackInSynthesis(scope) {
		return envObj
	}

	err := env.Parse(&envObj)
	if err != nil {
		panic(err)
	}

	return envObj
}
