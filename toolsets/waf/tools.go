package waf

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/elasticloadbalancingv2"
	elbtypes "github.com/aws/aws-sdk-go-v2/service/elasticloadbalancingv2/types"
	"github.com/aws/aws-sdk-go-v2/service/wafv2"
	waftypes "github.com/aws/aws-sdk-go-v2/service/wafv2/types"

	"awsops/internal/mcp"
)

// WAFAPI is the WAFv2 surface the handlers call.
type WAFAPI interface {
	CreateWebACL(ctx context.Context, params *wafv2.CreateWebACLInput, optFns ...func(*wafv2.Options)) (*wafv2.CreateWebACLOutput, error)
	AssociateWebACL(ctx context.Context, params *wafv2.AssociateWebACLInput, optFns ...func(*wafv2.Options)) (*wafv2.AssociateWebACLOutput, error)
	CreateIPSet(ctx context.Context, params *wafv2.CreateIPSetInput, optFns ...func(*wafv2.Options)) (*wafv2.CreateIPSetOutput, error)
	ListWebACLs(ctx context.Context, params *wafv2.ListWebACLsInput, optFns ...func(*wafv2.Options)) (*wafv2.ListWebACLsOutput, error)
}

// LoadBalancerAPI is the ELBv2 surface used to resolve ALB names to ARNs.
type LoadBalancerAPI interface {
	DescribeLoadBalancers(ctx context.Context, params *elasticloadbalancingv2.DescribeLoadBalancersInput, optFns ...func(*elasticloadbalancingv2.Options)) (*elasticloadbalancingv2.DescribeLoadBalancersOutput, error)
}

type Service struct {
	ctx       mcp.ToolsetContext
	waf       func(context.Context, string) (WAFAPI, string, error)
	elb       func(context.Context, string) (LoadBalancerAPI, string, error)
	toolsetID string
}

func ToolSpecs(ctx mcp.ToolsetContext, toolsetID string, waf func(context.Context, string) (WAFAPI, string, error), elb func(context.Context, string) (LoadBalancerAPI, string, error)) []mcp.ToolSpec {
	svc := &Service{ctx: ctx, waf: waf, elb: elb, toolsetID: toolsetID}
	return []mcp.ToolSpec{
		{
			Name:        "waf.create_web_acl",
			Description: "Create a regional WAFv2 Web ACL with rate-based rules and an allow default action.",
			ToolsetID:   toolsetID,
			InputSchema: schemaCreateWebACL(),
			Safety:      mcp.SafetyWrite,
			Handler:     svc.handleCreateWebACL,
		},
		{
			Name:        "waf.associate_web_acl",
			Description: "Associate a WAFv2 Web ACL with a resource such as an Application Load Balancer.",
			ToolsetID:   toolsetID,
			InputSchema: schemaAssociateWebACL(),
			Safety:      mcp.SafetyWrite,
			Handler:     svc.handleAssociateWebACL,
		},
		{
			Name:        "waf.get_load_balancer_arn",
			Description: "Resolve an Application Load Balancer name to its ARN.",
			ToolsetID:   toolsetID,
			InputSchema: schemaGetLoadBalancerARN(),
			Safety:      mcp.SafetyReadOnly,
			Handler:     svc.handleGetLoadBalancerARN,
		},
		{
			Name:        "waf.create_ip_set",
			Description: "Create a WAFv2 IP set from CIDR addresses.",
			ToolsetID:   toolsetID,
			InputSchema: schemaCreateIPSet(),
			Safety:      mcp.SafetyWrite,
			Handler:     svc.handleCreateIPSet,
		},
		{
			Name:        "waf.list_web_acls",
			Description: "List WAFv2 Web ACLs for a scope.",
			ToolsetID:   toolsetID,
			InputSchema: schemaListWebACLs(),
			Safety:      mcp.SafetyReadOnly,
			Handler:     svc.handleListWebACLs,
		},
	}
}

func (s *Service) handleCreateWebACL(ctx context.Context, req mcp.ToolRequest) (mcp.ToolResult, error) {
	name := strings.TrimSpace(toString(req.Arguments["name"]))
	if name == "" {
		err := errors.New("name is required")
		return errorResult(err), err
	}
	rawRules, _ := req.Arguments["rules"].([]any)
	rules, err := decodeRules(rawRules)
	if err != nil {
		return errorResult(err), err
	}

	region := toString(req.Arguments["region"])
	client, usedRegion, err := s.waf(ctx, region)
	if err != nil {
		return errorResult(err), err
	}
	out, err := client.CreateWebACL(ctx, &wafv2.CreateWebACLInput{
		Name:          aws.String(name),
		Scope:         waftypes.ScopeRegional,
		Description:   aws.String("Created by MCP"),
		DefaultAction: &waftypes.DefaultAction{Allow: &waftypes.AllowAction{}},
		Rules:         rules,
		VisibilityConfig: &waftypes.VisibilityConfig{
			SampledRequestsEnabled:   false,
			CloudWatchMetricsEnabled: true,
			MetricName:               aws.String(name + "Metric"),
		},
	})
	if err != nil {
		return errorResult(err), err
	}
	arn := ""
	if out.Summary != nil {
		arn = aws.ToString(out.Summary.ARN)
	}
	return mcp.ToolResult{
		Data: map[string]any{
			"region":    usedRegion,
			"name":      name,
			"webAclArn": arn,
		},
		Metadata: mcp.ToolMetadata{Regions: []string{usedRegion}, Resources: []string{arn}},
	}, nil
}

func (s *Service) handleAssociateWebACL(ctx context.Context, req mcp.ToolRequest) (mcp.ToolResult, error) {
	webACLArn := strings.TrimSpace(toString(req.Arguments["web_acl_arn"]))
	if webACLArn == "" {
		err := errors.New("web_acl_arn is required")
		return errorResult(err), err
	}
	resourceArn := strings.TrimSpace(toString(req.Arguments["resource_arn"]))
	if resourceArn == "" {
		name := strings.TrimSpace(toString(req.Arguments["load_balancer_name"]))
		if name == "" {
			err := errors.New("resource_arn or load_balancer_name is required")
			return errorResult(err), err
		}
		arn, err := s.resolveLoadBalancer(ctx, req, name)
		if err != nil {
			return errorResult(err), err
		}
		resourceArn = arn
	}
	region := toString(req.Arguments["region"])
	client, usedRegion, err := s.waf(ctx, region)
	if err != nil {
		return errorResult(err), err
	}
	if _, err := client.AssociateWebACL(ctx, &wafv2.AssociateWebACLInput{
		WebACLArn:   aws.String(webACLArn),
		ResourceArn: aws.String(resourceArn),
	}); err != nil {
		return errorResult(err), err
	}
	return mcp.ToolResult{
		Data: map[string]any{
			"region":      usedRegion,
			"webAclArn":   webACLArn,
			"resourceArn": resourceArn,
			"associated":  true,
		},
		Metadata: mcp.ToolMetadata{Regions: []string{usedRegion}, Resources: []string{webACLArn, resourceArn}},
	}, nil
}

// resolveLoadBalancer goes through waf.get_load_balancer_arn so the lookup
// carries the same authorization and audit trail as a direct call.
func (s *Service) resolveLoadBalancer(ctx context.Context, req mcp.ToolRequest, name string) (string, error) {
	result, err := req.Context.CallTool(ctx, req.User, "waf.get_load_balancer_arn", map[string]any{
		"name":   name,
		"region": toString(req.Arguments["region"]),
	})
	if err != nil {
		return "", err
	}
	data, _ := result.Data.(map[string]any)
	if found, _ := data["found"].(bool); !found {
		return "", fmt.Errorf("no load balancer found with name %q", name)
	}
	arn, _ := data["loadBalancerArn"].(string)
	if arn == "" {
		return "", fmt.Errorf("load balancer %q resolved without an arn", name)
	}
	return arn, nil
}

func (s *Service) handleGetLoadBalancerARN(ctx context.Context, req mcp.ToolRequest) (mcp.ToolResult, error) {
	name := strings.TrimSpace(toString(req.Arguments["name"]))
	if name == "" {
		err := errors.New("name is required")
		return errorResult(err), err
	}
	region := toString(req.Arguments["region"])
	client, usedRegion, err := s.elb(ctx, region)
	if err != nil {
		return errorResult(err), err
	}
	out, err := client.DescribeLoadBalancers(ctx, &elasticloadbalancingv2.DescribeLoadBalancersInput{Names: []string{name}})
	if err != nil {
		// Not-found is an answer here, not a fault.
		var notFound *elbtypes.LoadBalancerNotFoundException
		if errors.As(err, &notFound) {
			return mcp.ToolResult{Data: map[string]any{
				"region":  usedRegion,
				"name":    name,
				"found":   false,
				"message": fmt.Sprintf("no load balancer found with name %q", name),
			}}, nil
		}
		return errorResult(err), err
	}
	if len(out.LoadBalancers) == 0 {
		return mcp.ToolResult{Data: map[string]any{
			"region":  usedRegion,
			"name":    name,
			"found":   false,
			"message": fmt.Sprintf("no load balancer found with name %q", name),
		}}, nil
	}
	arn := aws.ToString(out.LoadBalancers[0].LoadBalancerArn)
	return mcp.ToolResult{
		Data: map[string]any{
			"region":          usedRegion,
			"name":            name,
			"found":           true,
			"loadBalancerArn": arn,
		},
		Metadata: mcp.ToolMetadata{Regions: []string{usedRegion}, Resources: []string{arn}},
	}, nil
}

func (s *Service) handleCreateIPSet(ctx context.Context, req mcp.ToolRequest) (mcp.ToolResult, error) {
	name := strings.TrimSpace(toString(req.Arguments["name"]))
	if name == "" {
		err := errors.New("name is required")
		return errorResult(err), err
	}
	addresses := toStringSlice(req.Arguments["ip_addresses"])
	if len(addresses) == 0 {
		err := errors.New("ip_addresses is required")
		return errorResult(err), err
	}
	ipVersion := strings.ToUpper(strings.TrimSpace(toString(req.Arguments["ip_version"])))
	if ipVersion == "" {
		ipVersion = "IPV4"
	}
	scope := strings.ToUpper(strings.TrimSpace(toString(req.Arguments["scope"])))
	if scope == "" {
		scope = "REGIONAL"
	}

	region := toString(req.Arguments["region"])
	client, usedRegion, err := s.waf(ctx, region)
	if err != nil {
		return errorResult(err), err
	}
	input := &wafv2.CreateIPSetInput{
		Name:             aws.String(name),
		Scope:            waftypes.Scope(scope),
		IPAddressVersion: waftypes.IPAddressVersion(ipVersion),
		Addresses:        addresses,
	}
	if description := strings.TrimSpace(toString(req.Arguments["description"])); description != "" {
		input.Description = aws.String(description)
	}
	out, err := client.CreateIPSet(ctx, input)
	if err != nil {
		return errorResult(err), err
	}
	summary := map[string]any{}
	if out.Summary != nil {
		summary["id"] = aws.ToString(out.Summary.Id)
		summary["arn"] = aws.ToString(out.Summary.ARN)
		summary["name"] = aws.ToString(out.Summary.Name)
	}
	return mcp.ToolResult{
		Data: map[string]any{
			"region": usedRegion,
			"ipSet":  summary,
		},
		Metadata: mcp.ToolMetadata{Regions: []string{usedRegion}},
	}, nil
}

func (s *Service) handleListWebACLs(ctx context.Context, req mcp.ToolRequest) (mcp.ToolResult, error) {
	scope := strings.ToUpper(strings.TrimSpace(toString(req.Arguments["scope"])))
	if scope == "" {
		scope = "REGIONAL"
	}
	region := toString(req.Arguments["region"])
	client, usedRegion, err := s.waf(ctx, region)
	if err != nil {
		return errorResult(err), err
	}

	var acls []map[string]any
	var marker *string
	for {
		out, err := client.ListWebACLs(ctx, &wafv2.ListWebACLsInput{
			Scope:      waftypes.Scope(scope),
			NextMarker: marker,
		})
		if err != nil {
			return errorResult(err), err
		}
		for _, acl := range out.WebACLs {
			acls = append(acls, map[string]any{
				"name":        aws.ToString(acl.Name),
				"id":          aws.ToString(acl.Id),
				"arn":         aws.ToString(acl.ARN),
				"description": aws.ToString(acl.Description),
			})
		}
		if aws.ToString(out.NextMarker) == "" {
			break
		}
		marker = out.NextMarker
	}
	return mcp.ToolResult{
		Data: s.ctx.Redactor.RedactValue(map[string]any{
			"region":  usedRegion,
			"scope":   scope,
			"webAcls": acls,
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

func toInt(value any, fallback int) int {
	switch v := value.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case json.Number:
		if parsed, err := v.Int64(); err == nil {
			return int(parsed)
		}
	}
	return fallback
}

func toStringSlice(value any) []string {
	switch v := value.(type) {
	case []string:
		return v
	case []any:
		var out []string
		for _, item := range v {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
