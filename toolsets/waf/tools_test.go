package waf

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/elasticloadbalancingv2"
	elbtypes "github.com/aws/aws-sdk-go-v2/service/elasticloadbalancingv2/types"
	"github.com/aws/aws-sdk-go-v2/service/wafv2"
	waftypes "github.com/aws/aws-sdk-go-v2/service/wafv2/types"

	"awsops/internal/config"
	"awsops/internal/mcp"
	"awsops/internal/redact"
)

type fakeWAFAPI struct {
	createACLInput   *wafv2.CreateWebACLInput
	createACLOut     *wafv2.CreateWebACLOutput
	createACLErr     error
	associateInput   *wafv2.AssociateWebACLInput
	associateErr     error
	createIPSetInput *wafv2.CreateIPSetInput
	createIPSetOut   *wafv2.CreateIPSetOutput
	listPages        []*wafv2.ListWebACLsOutput
	listCalls        int
}

func (f *fakeWAFAPI) CreateWebACL(ctx context.Context, params *wafv2.CreateWebACLInput, optFns ...func(*wafv2.Options)) (*wafv2.CreateWebACLOutput, error) {
	f.createACLInput = params
	if f.createACLErr != nil {
		return nil, f.createACLErr
	}
	return f.createACLOut, nil
}

func (f *fakeWAFAPI) AssociateWebACL(ctx context.Context, params *wafv2.AssociateWebACLInput, optFns ...func(*wafv2.Options)) (*wafv2.AssociateWebACLOutput, error) {
	f.associateInput = params
	if f.associateErr != nil {
		return nil, f.associateErr
	}
	return &wafv2.AssociateWebACLOutput{}, nil
}

func (f *fakeWAFAPI) CreateIPSet(ctx context.Context, params *wafv2.CreateIPSetInput, optFns ...func(*wafv2.Options)) (*wafv2.CreateIPSetOutput, error) {
	f.createIPSetInput = params
	return f.createIPSetOut, nil
}

func (f *fakeWAFAPI) ListWebACLs(ctx context.Context, params *wafv2.ListWebACLsInput, optFns ...func(*wafv2.Options)) (*wafv2.ListWebACLsOutput, error) {
	if f.listCalls >= len(f.listPages) {
		return &wafv2.ListWebACLsOutput{}, nil
	}
	page := f.listPages[f.listCalls]
	f.listCalls++
	return page, nil
}

type fakeELBAPI struct {
	out *elasticloadbalancingv2.DescribeLoadBalancersOutput
	err error
}

func (f *fakeELBAPI) DescribeLoadBalancers(ctx context.Context, params *elasticloadbalancingv2.DescribeLoadBalancersInput, optFns ...func(*elasticloadbalancingv2.Options)) (*elasticloadbalancingv2.DescribeLoadBalancersOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.out, nil
}

func newTestService(waf WAFAPI, elb LoadBalancerAPI) *Service {
	return &Service{
		ctx:       mcp.ToolsetContext{Redactor: redact.New()},
		toolsetID: "waf",
		waf: func(ctx context.Context, region string) (WAFAPI, string, error) {
			return waf, "us-east-1", nil
		},
		elb: func(ctx context.Context, region string) (LoadBalancerAPI, string, error) {
			return elb, "us-east-1", nil
		},
	}
}

func TestCreateWebACL(t *testing.T) {
	api := &fakeWAFAPI{
		createACLOut: &wafv2.CreateWebACLOutput{
			Summary: &waftypes.WebACLSummary{ARN: aws.String("arn:aws:wafv2:us-east-1:123456789012:regional/webacl/edge/abc")},
		},
	}
	svc := newTestService(api, nil)

	result, err := svc.handleCreateWebACL(context.Background(), mcp.ToolRequest{Arguments: map[string]any{
		"name": "edge",
		"rules": []any{
			map[string]any{
				"name":     "rate-limit",
				"priority": float64(1),
				"action":   "block",
				"statement": map[string]any{
					"rate_based": map[string]any{"limit": float64(2000)},
				},
			},
		},
	}})
	if err != nil {
		t.Fatalf("handleCreateWebACL: %v", err)
	}
	data := result.Data.(map[string]any)
	if data["webAclArn"] != "arn:aws:wafv2:us-east-1:123456789012:regional/webacl/edge/abc" {
		t.Fatalf("unexpected arn: %v", data["webAclArn"])
	}

	input := api.createACLInput
	if input.Scope != waftypes.ScopeRegional {
		t.Fatalf("expected REGIONAL scope, got %v", input.Scope)
	}
	if input.DefaultAction == nil || input.DefaultAction.Allow == nil {
		t.Fatal("expected allow default action")
	}
	if got := aws.ToString(input.VisibilityConfig.MetricName); got != "edgeMetric" {
		t.Fatalf("metric name = %q", got)
	}
	if len(input.Rules) != 1 {
		t.Fatalf("expected 1 rule, got %d", len(input.Rules))
	}
	rule := input.Rules[0]
	if rule.Action == nil || rule.Action.Block == nil {
		t.Fatal("expected block rule action")
	}
	stmt := rule.Statement.RateBasedStatement
	if stmt == nil || aws.ToInt64(stmt.Limit) != 2000 {
		t.Fatalf("unexpected rate statement: %+v", stmt)
	}
	if stmt.AggregateKeyType != waftypes.RateBasedStatementAggregateKeyTypeIp {
		t.Fatalf("aggregate key = %v", stmt.AggregateKeyType)
	}
}

func TestCreateWebACLRequiresName(t *testing.T) {
	svc := newTestService(&fakeWAFAPI{}, nil)
	if _, err := svc.handleCreateWebACL(context.Background(), mcp.ToolRequest{Arguments: map[string]any{}}); err == nil {
		t.Fatal("expected error for missing name")
	}
}

func TestCreateWebACLBadRule(t *testing.T) {
	svc := newTestService(&fakeWAFAPI{}, nil)
	_, err := svc.handleCreateWebACL(context.Background(), mcp.ToolRequest{Arguments: map[string]any{
		"name": "edge",
		"rules": []any{
			map[string]any{"name": "r", "priority": float64(0), "statement": map[string]any{}},
		},
	}})
	if err == nil {
		t.Fatal("expected error for rule without rate_based statement")
	}
}

func TestAssociateWebACL(t *testing.T) {
	api := &fakeWAFAPI{}
	svc := newTestService(api, nil)
	result, err := svc.handleAssociateWebACL(context.Background(), mcp.ToolRequest{Arguments: map[string]any{
		"web_acl_arn":  "arn:aws:wafv2:us-east-1:123456789012:regional/webacl/edge/abc",
		"resource_arn": "arn:aws:elasticloadbalancing:us-east-1:123456789012:loadbalancer/app/web/xyz",
	}})
	if err != nil {
		t.Fatalf("handleAssociateWebACL: %v", err)
	}
	if api.associateInput == nil {
		t.Fatal("expected AssociateWebACL call")
	}
	data := result.Data.(map[string]any)
	if data["associated"] != true {
		t.Fatalf("unexpected payload: %v", data)
	}
}

func TestGetLoadBalancerARN(t *testing.T) {
	elb := &fakeELBAPI{out: &elasticloadbalancingv2.DescribeLoadBalancersOutput{
		LoadBalancers: []elbtypes.LoadBalancer{
			{LoadBalancerArn: aws.String("arn:aws:elasticloadbalancing:us-east-1:123456789012:loadbalancer/app/web/xyz")},
		},
	}}
	svc := newTestService(nil, elb)
	result, err := svc.handleGetLoadBalancerARN(context.Background(), mcp.ToolRequest{Arguments: map[string]any{"name": "web"}})
	if err != nil {
		t.Fatalf("handleGetLoadBalancerARN: %v", err)
	}
	data := result.Data.(map[string]any)
	if data["found"] != true {
		t.Fatalf("expected found, got %v", data)
	}
	if data["loadBalancerArn"] != "arn:aws:elasticloadbalancing:us-east-1:123456789012:loadbalancer/app/web/xyz" {
		t.Fatalf("unexpected arn: %v", data["loadBalancerArn"])
	}
}

func TestGetLoadBalancerARNNotFound(t *testing.T) {
	elb := &fakeELBAPI{err: &elbtypes.LoadBalancerNotFoundException{Message: aws.String("not found")}}
	svc := newTestService(nil, elb)
	result, err := svc.handleGetLoadBalancerARN(context.Background(), mcp.ToolRequest{Arguments: map[string]any{"name": "ghost"}})
	if err != nil {
		t.Fatalf("not-found should not raise: %v", err)
	}
	data := result.Data.(map[string]any)
	if data["found"] != false {
		t.Fatalf("expected found=false, got %v", data)
	}
}

func TestCreateIPSet(t *testing.T) {
	api := &fakeWAFAPI{createIPSetOut: &wafv2.CreateIPSetOutput{
		Summary: &waftypes.IPSetSummary{
			Id:   aws.String("ipset-1"),
			ARN:  aws.String("arn:aws:wafv2:us-east-1:123456789012:regional/ipset/blocked/ipset-1"),
			Name: aws.String("blocked"),
		},
	}}
	svc := newTestService(api, nil)
	result, err := svc.handleCreateIPSet(context.Background(), mcp.ToolRequest{Arguments: map[string]any{
		"name":         "blocked",
		"ip_addresses": []any{"203.0.113.0/24", "198.51.100.7/32"},
	}})
	if err != nil {
		t.Fatalf("handleCreateIPSet: %v", err)
	}
	input := api.createIPSetInput
	if input.IPAddressVersion != waftypes.IPAddressVersionIpv4 {
		t.Fatalf("ip version = %v", input.IPAddressVersion)
	}
	if input.Scope != waftypes.ScopeRegional {
		t.Fatalf("scope = %v", input.Scope)
	}
	if len(input.Addresses) != 2 {
		t.Fatalf("addresses = %v", input.Addresses)
	}
	data := result.Data.(map[string]any)
	ipSet := data["ipSet"].(map[string]any)
	if ipSet["id"] != "ipset-1" {
		t.Fatalf("unexpected summary: %v", ipSet)
	}
}

func TestCreateIPSetRequiresAddresses(t *testing.T) {
	svc := newTestService(&fakeWAFAPI{}, nil)
	if _, err := svc.handleCreateIPSet(context.Background(), mcp.ToolRequest{Arguments: map[string]any{"name": "blocked"}}); err == nil {
		t.Fatal("expected error for missing ip_addresses")
	}
}

func TestListWebACLsPaginates(t *testing.T) {
	api := &fakeWAFAPI{listPages: []*wafv2.ListWebACLsOutput{
		{
			WebACLs:    []waftypes.WebACLSummary{{Name: aws.String("edge"), Id: aws.String("a")}},
			NextMarker: aws.String("next"),
		},
		{
			WebACLs: []waftypes.WebACLSummary{{Name: aws.String("internal"), Id: aws.String("b")}},
		},
	}}
	svc := newTestService(api, nil)
	result, err := svc.handleListWebACLs(context.Background(), mcp.ToolRequest{Arguments: map[string]any{}})
	if err != nil {
		t.Fatalf("handleListWebACLs: %v", err)
	}
	if api.listCalls != 2 {
		t.Fatalf("expected 2 pages, got %d", api.listCalls)
	}
	data := result.Data.(map[string]any)
	acls := data["webAcls"].([]map[string]any)
	if len(acls) != 2 || acls[0]["name"] != "edge" || acls[1]["name"] != "internal" {
		t.Fatalf("unexpected acls: %v", acls)
	}
}

func TestDecodeRuleActionRejectsUnknown(t *testing.T) {
	if _, err := decodeRuleAction("redirect"); err == nil {
		t.Fatal("expected error for unsupported action")
	}
	if _, err := decodeRuleAction(""); err != nil {
		t.Fatalf("empty action should default to block: %v", err)
	}
}

func TestCreateWebACLSubmitError(t *testing.T) {
	api := &fakeWAFAPI{createACLErr: errors.New("WAFOptimisticLockException")}
	svc := newTestService(api, nil)
	if _, err := svc.handleCreateWebACL(context.Background(), mcp.ToolRequest{Arguments: map[string]any{"name": "edge"}}); err == nil {
		t.Fatal("expected create error to propagate")
	}
}

func TestAssociateWebACLResolvesLoadBalancerName(t *testing.T) {
	wafAPI := &fakeWAFAPI{}
	elbAPI := &fakeELBAPI{out: &elasticloadbalancingv2.DescribeLoadBalancersOutput{
		LoadBalancers: []elbtypes.LoadBalancer{
			{LoadBalancerArn: aws.String("arn:aws:elasticloadbalancing:us-east-1:123456789012:loadbalancer/app/edge/abc")},
		},
	}}
	cfg := config.DefaultConfig()
	toolCtx := mcp.ToolContext{Config: &cfg, Redactor: redact.New()}
	reg := mcp.NewRegistry(&cfg)
	specs := ToolSpecs(toolCtx, "waf", func(ctx context.Context, region string) (WAFAPI, string, error) {
		return wafAPI, "us-east-1", nil
	}, func(ctx context.Context, region string) (LoadBalancerAPI, string, error) {
		return elbAPI, "us-east-1", nil
	})
	for _, spec := range specs {
		if err := reg.Add(spec); err != nil {
			t.Fatalf("register %s: %v", spec.Name, err)
		}
	}
	toolCtx.Invoker = mcp.NewToolInvoker(reg, toolCtx)

	spec, ok := reg.Get("waf.associate_web_acl")
	if !ok {
		t.Fatalf("associate tool not registered")
	}
	result, err := spec.Handler(context.Background(), mcp.ToolRequest{
		Arguments: map[string]any{
			"web_acl_arn":        "arn:aws:wafv2:us-east-1:123456789012:regional/webacl/edge/abc",
			"load_balancer_name": "edge",
		},
		Context: toolCtx,
	})
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	data := result.Data.(map[string]any)
	if data["resourceArn"] != "arn:aws:elasticloadbalancing:us-east-1:123456789012:loadbalancer/app/edge/abc" {
		t.Fatalf("load balancer name not resolved: %#v", data)
	}
	if wafAPI.associateInput == nil || aws.ToString(wafAPI.associateInput.ResourceArn) != data["resourceArn"] {
		t.Fatalf("resolved arn not passed to AssociateWebACL: %#v", wafAPI.associateInput)
	}
}

func TestAssociateWebACLUnknownLoadBalancerName(t *testing.T) {
	elbAPI := &fakeELBAPI{err: &elbtypes.LoadBalancerNotFoundException{Message: aws.String("not found")}}
	cfg := config.DefaultConfig()
	toolCtx := mcp.ToolContext{Config: &cfg, Redactor: redact.New()}
	reg := mcp.NewRegistry(&cfg)
	specs := ToolSpecs(toolCtx, "waf", func(ctx context.Context, region string) (WAFAPI, string, error) {
		return &fakeWAFAPI{}, "us-east-1", nil
	}, func(ctx context.Context, region string) (LoadBalancerAPI, string, error) {
		return elbAPI, "us-east-1", nil
	})
	for _, spec := range specs {
		if err := reg.Add(spec); err != nil {
			t.Fatalf("register %s: %v", spec.Name, err)
		}
	}
	toolCtx.Invoker = mcp.NewToolInvoker(reg, toolCtx)

	spec, _ := reg.Get("waf.associate_web_acl")
	_, err := spec.Handler(context.Background(), mcp.ToolRequest{
		Arguments: map[string]any{
			"web_acl_arn":        "arn:aws:wafv2:us-east-1:123456789012:regional/webacl/edge/abc",
			"load_balancer_name": "missing",
		},
		Context: toolCtx,
	})
	if err == nil || !strings.Contains(err.Error(), "no load balancer found") {
		t.Fatalf("expected resolution failure, got %v", err)
	}
}
