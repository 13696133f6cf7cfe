package sts

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awssts "github.com/aws/aws-sdk-go-v2/service/sts"

	"awsops/internal/mcp"
)

// IdentityAPI is the STS surface the handlers call.
type IdentityAPI interface {
	GetCallerIdentity(ctx context.Context, params *awssts.GetCallerIdentityInput, optFns ...func(*awssts.Options)) (*awssts.GetCallerIdentityOutput, error)
}

type Service struct {
	ctx       mcp.ToolsetContext
	client    func(context.Context, string) (IdentityAPI, string, error)
	toolsetID string
}

func ToolSpecs(ctx mcp.ToolsetContext, toolsetID string, client func(context.Context, string) (IdentityAPI, string, error)) []mcp.ToolSpec {
	svc := &Service{ctx: ctx, client: client, toolsetID: toolsetID}
	return []mcp.ToolSpec{
		{
			Name:        "sts.get_caller_identity",
			Description: "Get AWS account and caller identity for the active credentials.",
			ToolsetID:   toolsetID,
			InputSchema: schemaGetCallerIdentity(),
			Safety:      mcp.SafetyReadOnly,
			Handler:     svc.handleGetCallerIdentity,
		},
	}
}

func (s *Service) handleGetCallerIdentity(ctx context.Context, req mcp.ToolRequest) (mcp.ToolResult, error) {
	region := toString(req.Arguments["region"])
	client, usedRegion, err := s.client(ctx, region)
	if err != nil {
		return errorResult(err), err
	}
	out, err := client.GetCallerIdentity(ctx, &awssts.GetCallerIdentityInput{})
	if err != nil {
		return errorResult(err), err
	}
	return mcp.ToolResult{
		Data: s.ctx.Redactor.RedactValue(map[string]any{
			"region":  usedRegion,
			"arn":     aws.ToString(out.Arn),
			"account": aws.ToString(out.Account),
			"userId":  aws.ToString(out.UserId),
		}),
		Metadata: mcp.ToolMetadata{Regions: []string{usedRegion}},
	}, nil
}

func errorResult(err error) mcp.ToolResult {
	return mcp.ToolResult{Data: map[string]any{"error": err.Error()}}
}

func toString(value any) string {
	if value == nil {
		return ""
	}
	if s, ok := value.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", value)
}
