package aws

import (
	"context"
	"os"
	"strings"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	sdkconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials/stscreds"
	awssts "github.com/aws/aws-sdk-go-v2/service/sts"
)

const defaultRegion = "us-east-1"

// maxRetryAttempts bounds the SDK's standard retryer. Retries apply at the
// transport layer only; polling loops above it do their own iteration.
const maxRetryAttempts = 5

const appID = "awsops"

func ResolveRegion(region string) string {
	region = strings.TrimSpace(region)
	if region == "" {
		region = strings.TrimSpace(os.Getenv("AWS_REGION"))
	}
	if region == "" {
		region = strings.TrimSpace(os.Getenv("AWS_DEFAULT_REGION"))
	}
	return region
}

func LoadConfig(ctx context.Context, region string) (sdkaws.Config, error) {
	loadOpts := []func(*sdkconfig.LoadOptions) error{
		sdkconfig.WithRetryMaxAttempts(maxRetryAttempts),
		sdkconfig.WithAppID(appID),
	}
	if profile := ResolveProfile(); profile != "" {
		loadOpts = append(loadOpts, sdkconfig.WithSharedConfigProfile(profile))
	}
	if region = ResolveRegion(region); region != "" {
		loadOpts = append(loadOpts, sdkconfig.WithRegion(region))
	}
	cfg, err := sdkconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return cfg, err
	}
	if strings.TrimSpace(cfg.Region) == "" {
		cfg.Region = defaultRegion
	}
	if roleArn := ResolveRoleARN(); roleArn != "" {
		provider := stscreds.NewAssumeRoleProvider(awssts.NewFromConfig(cfg), roleArn, func(o *stscreds.AssumeRoleOptions) {
			o.RoleSessionName = appID
		})
		cfg.Credentials = sdkaws.NewCredentialsCache(provider)
	}
	return cfg, nil
}

// ResolveRoleARN returns the role every client should assume, if one is
// configured. All service clients inherit the assumed credentials.
func ResolveRoleARN() string {
	return strings.TrimSpace(os.Getenv("AWSOPS_ASSUME_ROLE_ARN"))
}

func ResolveProfile() string {
	profile := strings.TrimSpace(os.Getenv("AWS_PROFILE"))
	if profile == "" {
		profile = strings.TrimSpace(os.Getenv("AWS_DEFAULT_PROFILE"))
	}
	return profile
}
