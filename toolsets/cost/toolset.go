package cost

import (
	"context"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/athena"
	"github.com/aws/aws-sdk-go-v2/service/trustedadvisor"

	awslib "awsops/internal/aws"
	"awsops/internal/mcp"
)

type Toolset struct {
	ctx           mcp.ToolsetContext
	taClients     *awslib.ClientCache[*trustedadvisor.Client]
	athenaClients *awslib.ClientCache[*athena.Client]
}

func New() *Toolset {
	return &Toolset{}
}

func init() {
	mcp.MustRegisterToolset("cost", func() mcp.Toolset {
		return New()
	})
}

func (t *Toolset) ID() string {
	return "cost"
}

func (t *Toolset) Version() string {
	return "0.1.0"
}

func (t *Toolset) Init(ctx mcp.ToolsetContext) error {
	t.ctx = ctx
	t.taClients = awslib.NewClientCache(func(cfg sdkaws.Config) *trustedadvisor.Client {
		return trustedadvisor.NewFromConfig(cfg)
	})
	t.athenaClients = awslib.NewClientCache(func(cfg sdkaws.Config) *athena.Client {
		return athena.NewFromConfig(cfg)
	})
	return nil
}

func (t *Toolset) Register(reg mcp.Registry) error {
	for _, tool := range ToolSpecs(t.ctx, t.ID(), t.advisorClient, t.athenaClient) {
		tool = mcp.WrapListCache(t.ctx, tool)
		if err := reg.Add(tool); err != nil {
			return err
		}
	}
	return nil
}

func (t *Toolset) advisorClient(ctx context.Context, region string) (TrustedAdvisorAPI, string, error) {
	return t.taClients.Get(ctx, region)
}

func (t *Toolset) athenaClient(ctx context.Context, region string) (AthenaAPI, string, error) {
	return t.athenaClients.Get(ctx, region)
}
