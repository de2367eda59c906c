package secrets

import (
	"errors"
	"fmt"

	"github.com/aws/smithy-go"
)

// Sentinel errors for secret retrieval.
var (
	ErrSecretNotFound = errors.New("secret not found")
	ErrAccessDenied   = errors.New("access to secret denied")
	ErrDecryption     = errors.New("secret could not be decrypted")
	ErrEmptySecret    = errors.New("secret value is empty")
)

func mapAWSError(err error) error {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return fmt.Errorf("secretsmanager: %w", err)
	}

	switch apiErr.ErrorCode() {
	case "ResourceNotFoundException":
		return fmt.Errorf("%s: %w", apiErr.ErrorMessage(), ErrSecretNotFound)
	case "AccessDeniedException":
		return fmt.Errorf("%s: %w", apiErr.ErrorMessage(), ErrAccessDenied)
	case "DecryptionFailure":
		return fmt.Errorf("%s: %w", apiErr.ErrorMessage(), ErrDecryption)
	default:
		return fmt.Errorf("secretsmanager %s: %w", apiErr.ErrorCode(), err)
	}
}
