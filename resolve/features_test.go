package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectFeatures_EmptyConfig(t *testing.T) {
	flags := DetectFeatures(nil, &GlobalDefaults{}, Lookups{})
	assert.Equal(t, FeatureFlags{}, flags)
}

func TestDetectFeatures_ServiceExposure(t *testing.T) {
	entities := []*Entity{
		{Name: "api", Kind: KindService, Source: "./services/api", HTTP: &HTTPSpec{Subdomain: "api"}},
		{Name: "worker", Kind: KindService, Image: "repo/worker:1"},
	}

	flags := DetectFeatures(entities, &GlobalDefaults{}, Lookups{})
	assert.True(t, flags.EcrNeeded, "source build needs a registry")
	assert.True(t, flags.AlbNeeded)
	assert.False(t, flags.ApiGatewayNeeded)
	assert.False(t, flags.CloudFrontNeeded)
}

func TestDetectFeatures_FunctionPlacementSplit(t *testing.T) {
	entities := []*Entity{
		{Name: "hook", Kind: KindFunction, Triggers: TriggerSpec{HTTP: &HTTPSpec{}}},
		{Name: "img", Kind: KindFunction, Triggers: TriggerSpec{HTTP: &HTTPSpec{PathPattern: "/img/*"}}},
	}

	flags := DetectFeatures(entities, &GlobalDefaults{}, Lookups{})
	assert.True(t, flags.ApiGatewayNeeded, "pathless http functions mount on the gateway")
	assert.True(t, flags.CloudFrontNeeded, "explicit path patterns become distribution behaviors")
}

func TestDetectFeatures_DatabaseImpliesVpcOnlyForFunctions(t *testing.T) {
	entities := []*Entity{
		{Name: "api", Kind: KindService, Image: "repo/api:1", Env: EnvSpec{Database: DatabaseEnabled()}},
	}
	flags := DetectFeatures(entities, &GlobalDefaults{}, Lookups{})
	assert.True(t, flags.RdsNeeded)
	assert.False(t, flags.LambdaVpcNeeded)

	entities = append(entities, &Entity{
		Name: "report", Kind: KindFunction, Env: EnvSpec{Database: DatabaseEnabled()},
	})
	flags = DetectFeatures(entities, &GlobalDefaults{}, Lookups{})
	assert.True(t, flags.LambdaVpcNeeded)
}

func TestDetectFeatures_S3GatedOnLookup(t *testing.T) {
	on := true
	entities := []*Entity{
		{Name: "api", Kind: KindService, Image: "repo/api:1", Permissions: &PermissionSpec{S3: &on}},
	}

	flags := DetectFeatures(entities, &GlobalDefaults{}, Lookups{})
	assert.False(t, flags.S3Needed, "no bucket provisioned")

	flags = DetectFeatures(entities, &GlobalDefaults{}, Lookups{S3Enabled: true, BucketName: "assets"})
	assert.True(t, flags.S3Needed)
}

func TestDetectFeatures_SesFromGlobalDefault(t *testing.T) {
	on := true
	entities := []*Entity{
		{Name: "mailer", Kind: KindFunction},
	}
	flags := DetectFeatures(entities, &GlobalDefaults{Permissions: PermissionSpec{SES: &on}}, Lookups{})
	assert.True(t, flags.SesNeeded, "unset override inherits the global toggle")
}
