package resolve

import (
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
)

func TestMergePermissions_NilOverrideInheritsWholesale(t *testing.T) {
	global := PermissionSpec{
		S3:         lo.ToPtr(true),
		Statements: []Statement{{Effect: "Allow", Actions: []string{"sqs:SendMessage"}, Resources: []string{"*"}}},
	}

	merged := MergePermissions(global, nil)
	assert.True(t, merged.S3)
	assert.False(t, merged.SES)
	assert.Equal(t, global.Statements, merged.Statements)
	assert.True(t, merged.SharedRole, "no override means the shared role")
}

func TestMergePermissions_FieldByFieldBooleans(t *testing.T) {
	global := PermissionSpec{S3: lo.ToPtr(true), SES: lo.ToPtr(true)}
	override := &PermissionSpec{SES: lo.ToPtr(false), Fargate: lo.ToPtr(true)}

	merged := MergePermissions(global, override)
	assert.True(t, merged.S3, "unset override field inherits global")
	assert.False(t, merged.SES, "explicit false overrides global true")
	assert.True(t, merged.Fargate)
	assert.False(t, merged.SharedRole, "any override forces a custom role")
}

// TestMergePermissions_StatementsAppend checks the append law: the merged
// statement list is the global list followed by the override list, order
// preserved, never deduplicated.
func TestMergePermissions_StatementsAppend(t *testing.T) {
	s1 := Statement{Effect: "Allow", Actions: []string{"s3:GetObject"}, Resources: []string{"arn:a"}}
	s2 := Statement{Effect: "Deny", Actions: []string{"s3:DeleteObject"}, Resources: []string{"arn:a"}}
	global := PermissionSpec{Statements: []Statement{s1}}
	override := &PermissionSpec{Statements: []Statement{s2, s1}}

	merged := MergePermissions(global, override)
	assert.Equal(t, []Statement{s1, s2, s1}, merged.Statements)
}

func TestMergePermissions_DoesNotMutateGlobal(t *testing.T) {
	global := PermissionSpec{Statements: []Statement{{Effect: "Allow"}}}
	_ = MergePermissions(global, &PermissionSpec{Statements: []Statement{{Effect: "Deny"}}})
	assert.Len(t, global.Statements, 1)
}

func TestRedundantOverride(t *testing.T) {
	global := PermissionSpec{S3: lo.ToPtr(true)}

	assert.False(t, redundantOverride(global, nil))
	assert.True(t, redundantOverride(global, &PermissionSpec{}),
		"empty override changes nothing but still partitions the role")
	assert.True(t, redundantOverride(global, &PermissionSpec{S3: lo.ToPtr(true)}),
		"value-equal override is still redundant")
	assert.False(t, redundantOverride(global, &PermissionSpec{S3: lo.ToPtr(false)}))
	assert.False(t, redundantOverride(global, &PermissionSpec{Statements: []Statement{{Effect: "Allow"}}}))
}
