// Package secrets loads the token signing secret from AWS Secrets Manager.
package secrets

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

const (
	// jsonKey is read when the stored secret is a JSON object.
	jsonKey = "jwt_secret"

	currentStage = "AWSCURRENT"
)

// API is the subset of the Secrets Manager client used here.
type API interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

type Loader struct {
	api API
}

func NewLoader(api API) *Loader {
	return &Loader{api: api}
}

// SigningSecret fetches secretID and returns its bytes. A SecretString that
// holds a JSON object is unwrapped via its "jwt_secret" field.
func (l *Loader) SigningSecret(ctx context.Context, secretID string) ([]byte, error) {
	out, err := l.api.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId:     aws.String(secretID),
		VersionStage: aws.String(currentStage),
	})
	if err != nil {
		return nil, mapAWSError(err)
	}

	if out.SecretString != nil {
		return decodeSecretString(*out.SecretString)
	}
	if len(out.SecretBinary) > 0 {
		return out.SecretBinary, nil
	}
	return nil, ErrEmptySecret
}

func decodeSecretString(s string) ([]byte, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil, ErrEmptySecret
	}
	if !strings.HasPrefix(trimmed, "{") {
		return []byte(trimmed), nil
	}

	var fields map[string]string
	if err := json.Unmarshal([]byte(trimmed), &fields); err != nil {
		return nil, fmt.Errorf("secretsmanager: decode secret json: %w", err)
	}
	v := fields[jsonKey]
	if v == "" {
		return nil, fmt.Errorf("%w: field %q missing", ErrEmptySecret, jsonKey)
	}
	return []byte(v), nil
}
