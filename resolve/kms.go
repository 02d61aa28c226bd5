package resolve

import (
	"fmt"
	"strings"
)

// KmsMode is the parsed form of the polymorphic `kms` field
// (`null | false | true | "AES256" | "<key arn>"`).
type KmsMode struct {
	kind KmsKind
	arn  string
}

// KmsKind enumerates the encryption modes an entity can request.
type KmsKind string

const (
	KmsDisabled        KmsKind = "disabled"
	KmsAwsManaged      KmsKind = "aws-managed"
	KmsS3Managed       KmsKind = "s3-managed"
	KmsCustomerManaged KmsKind = "customer-managed"
)

// Kind returns the encryption mode.
func (m KmsMode) Kind() KmsKind {
	if m.kind == "" {
		return KmsDisabled
	}
	return m.kind
}

// KeyArn returns the customer key ARN, empty unless Kind is KmsCustomerManaged.
func (m KmsMode) KeyArn() string { return m.arn }

// Enabled reports whether any encryption mode is requested.
func (m KmsMode) Enabled() bool { return m.Kind() != KmsDisabled }

// ParseKmsMode converts the raw shorthand into a KmsMode. Unset and Off both
// map to disabled; `true` selects the AWS-managed key; "AES256" selects
// S3-managed encryption; anything else must be a KMS key ARN.
func ParseKmsMode(raw BoolOrString) (KmsMode, error) {
	if raw.IsUnset() || !raw.Enabled() {
		return KmsMode{kind: KmsDisabled}, nil
	}
	s := raw.StringOr("")
	switch {
	case s == "":
		return KmsMode{kind: KmsAwsManaged}, nil
	case s == "AES256":
		return KmsMode{kind: KmsS3Managed}, nil
	case strings.HasPrefix(s, "arn:"):
		return KmsMode{kind: KmsCustomerManaged, arn: s}, nil
	default:
		return KmsMode{}, fmt.Errorf("invalid kms value %q: expected true, \"AES256\", or a key ARN", s)
	}
}
