package resolve

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestParseKmsMode_Invalid ensures a bare string that is neither AES256 nor
// an ARN is rejected.
func TestParseKmsMode_Invalid(t *testing.T) {
	_, err := ParseKmsMode(StringValue("not-a-key"))
	require.Error(t, err)
	require.ErrorContains(t, err, "invalid kms value")
}

// TestParseKmsMode_Valid covers every accepted shorthand form.
func TestParseKmsMode_Valid(t *testing.T) {
	for _, tc := range []struct {
		name  string
		input BoolOrString
		want  KmsKind
		arn   string
	}{
		{"unset", BoolOrString{}, KmsDisabled, ""},
		{"explicit false", BoolValue(false), KmsDisabled, ""},
		{"true", BoolValue(true), KmsAwsManaged, ""},
		{"AES256", StringValue("AES256"), KmsS3Managed, ""},
		{"key arn", StringValue("arn:aws:kms:us-west-2:111:key/abc"), KmsCustomerManaged, "arn:aws:kms:us-west-2:111:key/abc"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			m, err := ParseKmsMode(tc.input)
			require.NoError(t, err)
			require.Equal(t, tc.want, m.Kind())
			require.Equal(t, tc.arn, m.KeyArn())
		})
	}
}
