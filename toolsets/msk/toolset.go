package msk

import (
	"context"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/kafka"

	awslib "awsops/internal/aws"
	"awsops/internal/mcp"
)

type Toolset struct {
	ctx          mcp.ToolsetContext
	kafkaClients *awslib.ClientCache[*kafka.Client]
	cwClients    *awslib.ClientCache[*cloudwatch.Client]
	iamClients   *awslib.ClientCache[*iam.Client]
}

func New() *Toolset {
	return &Toolset{}
}

func init() {
	mcp.MustRegisterToolset("msk", func() mcp.Toolset {
		return New()
	})
}

func (t *Toolset) ID() string {
	return "msk"
}

func (t *Toolset) Version() string {
	return "0.1.0"
}

func (t *Toolset) Init(ctx mcp.ToolsetContext) error {
	t.ctx = ctx
	t.kafkaClients = awslib.NewClientCache(func(cfg sdkaws.Config) *kafka.Client {
		return kafka.NewFromConfig(cfg)
	})
	t.cwClients = awslib.NewClientCache(func(cfg sdkaws.Config) *cloudwatch.Client {
		return cloudwatch.NewFromConfig(cfg)
	})
	t.iamClients = awslib.NewClientCache(func(cfg sdkaws.Config) *iam.Client {
		return iam.NewFromConfig(cfg)
	})
	return nil
}

func (t *Toolset) Register(reg mcp.Registry) error {
	for _, tool := range ToolSpecs(t.ctx, t.ID(), t.kafkaClient, t.metricsClient, t.iamClient) {
		tool = mcp.WrapListCache(t.ctx, tool)
		if err := reg.Add(tool); err != nil {
			return err
		}
	}
	return nil
}

func (t *Toolset) kafkaClient(ctx context.Context, region string) (KafkaAPI, string, error) {
	return t.kafkaClients.Get(ctx, region)
}

func (t *Toolset) metricsClient(ctx context.Context, region string) (MetricsAPI, string, error) {
	return t.cwClients.Get(ctx, region)
}

func (t *Toolset) iamClient(ctx context.Context, region string) (IAMAPI, string, error) {
	return t.iamClients.Get(ctx, region)
}
