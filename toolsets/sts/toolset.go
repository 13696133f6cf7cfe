package sts

import (
	"context"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	awssts "github.com/aws/aws-sdk-go-v2/service/sts"

	awslib "awsops/internal/aws"
	"awsops/internal/mcp"
)

type Toolset struct {
	ctx     mcp.ToolsetContext
	clients *awslib.ClientCache[*awssts.Client]
}

func New() *Toolset {
	return &Toolset{}
}

func init() {
	mcp.MustRegisterToolset("sts", func() mcp.Toolset {
		return New()
	})
}

func (t *Toolset) ID() string {
	return "sts"
}

func (t *Toolset) Version() string {
	return "0.1.0"
}

func (t *Toolset) Init(ctx mcp.ToolsetContext) error {
	t.ctx = ctx
	t.clients = awslib.NewClientCache(func(cfg sdkaws.Config) *awssts.Client {
		return awssts.NewFromConfig(cfg)
	})
	return nil
}

func (t *Toolset) Register(reg mcp.Registry) error {
	for _, tool := range ToolSpecs(t.ctx, t.ID(), t.client) {
		tool = mcp.WrapListCache(t.ctx, tool)
		if err := reg.Add(tool); err != nil {
			return err
		}
	}
	return nil
}

func (t *Toolset) client(ctx context.Context, region string) (IdentityAPI, string, error) {
	return t.clients.Get(ctx, region)
}
