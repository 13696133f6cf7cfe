package waf

import (
	"context"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/elasticloadbalancingv2"
	"github.com/aws/aws-sdk-go-v2/service/wafv2"

	awslib "awsops/internal/aws"
	"awsops/internal/mcp"
)

type Toolset struct {
	ctx        mcp.ToolsetContext
	wafClients *awslib.ClientCache[*wafv2.Client]
	elbClients *awslib.ClientCache[*elasticloadbalancingv2.Client]
}

func New() *Toolset {
	return &Toolset{}
}

func init() {
	mcp.MustRegisterToolset("waf", func() mcp.Toolset {
		return New()
	})
}

func (t *Toolset) ID() string {
	return "waf"
}

func (t *Toolset) Version() string {
	return "0.1.0"
}

func (t *Toolset) Init(ctx mcp.ToolsetContext) error {
	t.ctx = ctx
	t.wafClients = awslib.NewClientCache(func(cfg sdkaws.Config) *wafv2.Client {
		return wafv2.NewFromConfig(cfg)
	})
	t.elbClients = awslib.NewClientCache(func(cfg sdkaws.Config) *elasticloadbalancingv2.Client {
		return elasticloadbalancingv2.NewFromConfig(cfg)
	})
	return nil
}

func (t *Toolset) Register(reg mcp.Registry) error {
	for _, tool := range ToolSpecs(t.ctx, t.ID(), t.wafClient, t.elbClient) {
		tool = mcp.WrapListCache(t.ctx, tool)
		if err := reg.Add(tool); err != nil {
			return err
		}
	}
	return nil
}

func (t *Toolset) wafClient(ctx context.Context, region string) (WAFAPI, string, error) {
	return t.wafClients.Get(ctx, region)
}

func (t *Toolset) elbClient(ctx context.Context, region string) (LoadBalancerAPI, string, error) {
	return t.elbClients.Get(ctx, region)
}
