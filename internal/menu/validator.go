package menu

import "fmt"

// DefaultMaxFileSize is the upload limit (10 MiB).
const DefaultMaxFileSize int64 = 10 * 1024 * 1024

// DefaultAllowedTypes are the declared content types accepted for upload.
var DefaultAllowedTypes = []string{"image/jpeg", "image/png", "image/heic", "image/heif"}

// Policy is the static upload policy applied before anything leaves the process.
type Policy struct {
	MaxFileSize  int64
	AllowedTypes []string
}

// DefaultPolicy returns the 10 MiB / jpeg-png-heic-heif policy.
func DefaultPolicy() Policy {
	return Policy{
		MaxFileSize:  DefaultMaxFileSize,
		AllowedTypes: append([]string(nil), DefaultAllowedTypes...),
	}
}

// Validator checks payloads against a Policy. The declared content type is
// trusted as-is; file content is never inspected.
type Validator struct {
	maxFileSize int64
	tooLarge    string
	allowed     map[string]struct{}
}

// NewValidator builds a Validator. Zero values fall back to the defaults.
func NewValidator(policy Policy) *Validator {
	if policy.MaxFileSize <= 0 {
		policy.MaxFileSize = DefaultMaxFileSize
	}
	if len(policy.AllowedTypes) == 0 {
		policy.AllowedTypes = DefaultAllowedTypes
	}
	allowed := make(map[string]struct{}, len(policy.AllowedTypes))
	for _, t := range policy.AllowedTypes {
		allowed[t] = struct{}{}
	}
	return &Validator{
		maxFileSize: policy.MaxFileSize,
		tooLarge:    TooLargeMessage(policy.MaxFileSize),
		allowed:     allowed,
	}
}

// Validate returns nil for an acceptable payload, otherwise an input-invalid
// Failure. Checks run in order and stop at the first problem.
func (v *Validator) Validate(p UploadPayload) *Failure {
	if len(p.Data) == 0 {
		return Fail(KindInputInvalid, MsgSelectImage)
	}
	if int64(len(p.Data)) > v.maxFileSize {
		return Fail(KindInputInvalid, v.tooLarge)
	}
	if _, ok := v.allowed[p.ContentType]; !ok {
		return Fail(KindInputInvalid, fmt.Sprintf(MsgInvalidType, p.ContentType))
	}
	return nil
}
