package resolve

import "github.com/samber/lo"

// DetectFeatures derives the cross-cutting flags from the normalized entity
// set. Every flag is an existential OR over the collection, so iteration
// order cannot affect the result, and the empty set yields all-false.
func DetectFeatures(entities []*Entity, defaults *GlobalDefaults, lookups Lookups) FeatureFlags {
	services := lo.Filter(entities, func(e *Entity, _ int) bool { return e.Kind == KindService })
	functions := lo.Filter(entities, func(e *Entity, _ int) bool { return e.Kind == KindFunction })

	permS3 := func(e *Entity) bool {
		return boolField(e.Permissions, defaults.Permissions, func(p PermissionSpec) *bool { return p.S3 })
	}
	permSES := func(e *Entity) bool {
		return boolField(e.Permissions, defaults.Permissions, func(p PermissionSpec) *bool { return p.SES })
	}

	return FeatureFlags{
		EcrNeeded: lo.SomeBy(services, func(e *Entity) bool { return e.Source != "" }),

		AlbNeeded: lo.SomeBy(services, func(e *Entity) bool { return e.HTTP != nil }),

		ApiGatewayNeeded: lo.SomeBy(functions, func(e *Entity) bool {
			h := e.Triggers.HTTP
			return h != nil && h.PathPattern == ""
		}),

		CloudFrontNeeded: lo.SomeBy(functions, func(e *Entity) bool {
			h := e.Triggers.HTTP
			return h != nil && h.PathPattern != ""
		}),

		RdsNeeded: lo.SomeBy(entities, func(e *Entity) bool { return e.Env.Database.Enabled() }),

		LambdaVpcNeeded: lo.SomeBy(functions, func(e *Entity) bool { return e.Env.Database.Enabled() }),

		S3Needed: lookups.S3Enabled &&
			lo.SomeBy(entities, func(e *Entity) bool { return e.Env.S3.Enabled() || permS3(e) }),

		SesNeeded: lo.SomeBy(entities, permSES),
	}
}

// boolField reads one permission boolean with override-or-inherit semantics.
func boolField(override *PermissionSpec, global PermissionSpec, field func(PermissionSpec) *bool) bool {
	if override != nil {
		if v := field(*override); v != nil {
			return *v
		}
	}
	if v := field(global); v != nil {
		return *v
	}
	return false
}
