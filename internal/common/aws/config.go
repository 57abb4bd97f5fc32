package aws

import (
	"context"
	"fmt"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
)

// LoadConfig resolves credentials from the default chain for region.
func LoadConfig(ctx context.Context, region string) (awssdk.Config, error) {
	if region == "" {
		return awssdk.Config{}, fmt.Errorf("aws region is required")
	}
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return awssdk.Config{}, fmt.Errorf("load AWS config: %w", err)
	}
	return cfg, nil
}
