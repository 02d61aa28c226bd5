package resolve

import "reflect"

// MergePermissions merges the global spec with an entity override. A nil
// override inherits the global spec wholesale and keeps the entity on the
// shared project role. A non-nil override is merged field by field for the
// booleans, while statements are concatenated global-first — append, never
// replace, since statement order carries evaluation precedence in the final
// policy document.
func MergePermissions(global PermissionSpec, override *PermissionSpec) ResolvedPermissions {
	resolved := ResolvedPermissions{
		S3:         boolOrFalse(global.S3),
		SES:        boolOrFalse(global.SES),
		Fargate:    boolOrFalse(global.Fargate),
		Statements: append([]Statement(nil), global.Statements...),
		SharedRole: override == nil,
	}
	if override == nil {
		return resolved
	}

	if override.S3 != nil {
		resolved.S3 = *override.S3
	}
	if override.SES != nil {
		resolved.SES = *override.SES
	}
	if override.Fargate != nil {
		resolved.Fargate = *override.Fargate
	}
	resolved.Statements = append(resolved.Statements, override.Statements...)
	return resolved
}

// redundantOverride reports whether an entity's override produced a result
// identical to the plain global merge. Role partitioning keys on override
// presence, so such an entity still gets a custom role; the resolver flags
// it as an avoidable extra role rather than silently reclassifying it.
func redundantOverride(global PermissionSpec, override *PermissionSpec) bool {
	if override == nil || len(override.Statements) > 0 {
		return false
	}
	base := MergePermissions(global, nil)
	merged := MergePermissions(global, override)
	merged.SharedRole = base.SharedRole
	return reflect.DeepEqual(base, merged)
}

func boolOrFalse(v *bool) bool {
	return v != nil && *v
}
