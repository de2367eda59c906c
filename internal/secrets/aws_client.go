package secrets

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// NewAWSLoader builds a Loader backed by the default AWS credential chain.
func NewAWSLoader(ctx context.Context, region string) (*Loader, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return NewLoader(secretsmanager.NewFromConfig(cfg)), nil
}

var _ API = (*secretsmanager.Client)(nil)
