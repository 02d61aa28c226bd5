package main

import (
	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/jsii-runtime-go"

	"github.com/appfabrichq/appfabric/infra/config"
	"github.com/appfabrichq/appfabric/infra/lib/utils"
	"github.com/appfabrichq/appfabric/infra/stacks"
)

func main() {
	defer jsii.Close()

	app := awscdk.NewApp(nil)

	// The stack config is loaded once here for the project identity; the app
	// stack re-reads and fully resolves it during its own synthesis.
	raw, err := config.LoadStackConfig(config.ConfigFilePath(app))
	if err != nil {
		panic(err)
	}

	certExports := stacks.CertStack(app, raw.Project.Domain)

	stacks.AppStack(
		app,
		config.WithStackSuffix(app, "AppFabric-"+raw.Project.Name),
		&stacks.AppStackProps{
			StackProps: awscdk.StackProps{
				Env:                   utils.CdkEnv(),
				CrossRegionReferences: jsii.Bool(true),
				Description:           jsii.String("Application stack for " + raw.Project.Name + " resolved from the declarative stack config"),
			},
			CertStackExports: &certExports,
		},
	)

	app.Synth(nil)
}
