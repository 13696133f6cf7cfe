package msk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/kafka"
	kafkatypes "github.com/aws/aws-sdk-go-v2/service/kafka/types"

	"awsops/internal/mcp"
)

// generatedTag marks resources this server created. Mutating operations
// refuse to touch anything that does not carry it.
const generatedTag = "MCP Generated"

// KafkaAPI is the MSK control-plane surface the handlers call.
type KafkaAPI interface {
	DescribeClusterV2(ctx context.Context, params *kafka.DescribeClusterV2Input, optFns ...func(*kafka.Options)) (*kafka.DescribeClusterV2Output, error)
	DescribeClusterOperationV2(ctx context.Context, params *kafka.DescribeClusterOperationV2Input, optFns ...func(*kafka.Options)) (*kafka.DescribeClusterOperationV2Output, error)
	GetBootstrapBrokers(ctx context.Context, params *kafka.GetBootstrapBrokersInput, optFns ...func(*kafka.Options)) (*kafka.GetBootstrapBrokersOutput, error)
	GetCompatibleKafkaVersions(ctx context.Context, params *kafka.GetCompatibleKafkaVersionsInput, optFns ...func(*kafka.Options)) (*kafka.GetCompatibleKafkaVersionsOutput, error)
	GetClusterPolicy(ctx context.Context, params *kafka.GetClusterPolicyInput, optFns ...func(*kafka.Options)) (*kafka.GetClusterPolicyOutput, error)
	ListNodes(ctx context.Context, params *kafka.ListNodesInput, optFns ...func(*kafka.Options)) (*kafka.ListNodesOutput, error)
	ListClusterOperationsV2(ctx context.Context, params *kafka.ListClusterOperationsV2Input, optFns ...func(*kafka.Options)) (*kafka.ListClusterOperationsV2Output, error)
	ListClientVpcConnections(ctx context.Context, params *kafka.ListClientVpcConnectionsInput, optFns ...func(*kafka.Options)) (*kafka.ListClientVpcConnectionsOutput, error)
	ListScramSecrets(ctx context.Context, params *kafka.ListScramSecretsInput, optFns ...func(*kafka.Options)) (*kafka.ListScramSecretsOutput, error)
	ListTagsForResource(ctx context.Context, params *kafka.ListTagsForResourceInput, optFns ...func(*kafka.Options)) (*kafka.ListTagsForResourceOutput, error)
	CreateConfiguration(ctx context.Context, params *kafka.CreateConfigurationInput, optFns ...func(*kafka.Options)) (*kafka.CreateConfigurationOutput, error)
	UpdateConfiguration(ctx context.Context, params *kafka.UpdateConfigurationInput, optFns ...func(*kafka.Options)) (*kafka.UpdateConfigurationOutput, error)
	TagResource(ctx context.Context, params *kafka.TagResourceInput, optFns ...func(*kafka.Options)) (*kafka.TagResourceOutput, error)
	UntagResource(ctx context.Context, params *kafka.UntagResourceInput, optFns ...func(*kafka.Options)) (*kafka.UntagResourceOutput, error)
	UpdateBrokerCount(ctx context.Context, params *kafka.UpdateBrokerCountInput, optFns ...func(*kafka.Options)) (*kafka.UpdateBrokerCountOutput, error)
	UpdateBrokerStorage(ctx context.Context, params *kafka.UpdateBrokerStorageInput, optFns ...func(*kafka.Options)) (*kafka.UpdateBrokerStorageOutput, error)
	RebootBroker(ctx context.Context, params *kafka.RebootBrokerInput, optFns ...func(*kafka.Options)) (*kafka.RebootBrokerOutput, error)
}

// MetricsAPI is the CloudWatch surface used by cluster telemetry.
type MetricsAPI interface {
	GetMetricData(ctx context.Context, params *cloudwatch.GetMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.GetMetricDataOutput, error)
}

// IAMAPI is the IAM surface used to survey customer policies granting
// cluster access.
type IAMAPI interface {
	ListPolicies(ctx context.Context, params *iam.ListPoliciesInput, optFns ...func(*iam.Options)) (*iam.ListPoliciesOutput, error)
	GetPolicyVersion(ctx context.Context, params *iam.GetPolicyVersionInput, optFns ...func(*iam.Options)) (*iam.GetPolicyVersionOutput, error)
	ListEntitiesForPolicy(ctx context.Context, params *iam.ListEntitiesForPolicyInput, optFns ...func(*iam.Options)) (*iam.ListEntitiesForPolicyOutput, error)
}

type Service struct {
	ctx       mcp.ToolsetContext
	kafka     func(context.Context, string) (KafkaAPI, string, error)
	metrics   func(context.Context, string) (MetricsAPI, string, error)
	iam       func(context.Context, string) (IAMAPI, string, error)
	toolsetID string
}

func ToolSpecs(ctx mcp.ToolsetContext, toolsetID string,
	kafkaFn func(context.Context, string) (KafkaAPI, string, error),
	metricsFn func(context.Context, string) (MetricsAPI, string, error),
	iamFn func(context.Context, string) (IAMAPI, string, error)) []mcp.ToolSpec {
	svc := &Service{ctx: ctx, kafka: kafkaFn, metrics: metricsFn, iam: iamFn, toolsetID: toolsetID}
	return []mcp.ToolSpec{
		{
			Name:        "msk.get_cluster_info",
			Description: "Gets cluster metadata, brokers, nodes, versions, policy, operations, VPC connections, or SCRAM secrets.",
			ToolsetID:   toolsetID,
			InputSchema: schemaGetClusterInfo(),
			Safety:      mcp.SafetyReadOnly,
			Handler:     svc.handleGetClusterInfo,
		},
		{
			Name:        "msk.describe_cluster_operation",
			Description: "Gets information about a cluster operation.",
			ToolsetID:   toolsetID,
			InputSchema: schemaDescribeClusterOperation(),
			Safety:      mcp.SafetyReadOnly,
			Handler:     svc.handleDescribeClusterOperation,
		},
		{
			Name:        "msk.create_configuration",
			Description: "Creates a new MSK configuration from server.properties contents.",
			ToolsetID:   toolsetID,
			InputSchema: schemaCreateConfiguration(),
			Safety:      mcp.SafetyWrite,
			Handler:     svc.handleCreateConfiguration,
		},
		{
			Name:        "msk.update_configuration",
			Description: "Updates an MSK configuration. Only operates on resources tagged 'MCP Generated'.",
			ToolsetID:   toolsetID,
			InputSchema: schemaUpdateConfiguration(),
			Safety:      mcp.SafetyWrite,
			Handler:     svc.handleUpdateConfiguration,
		},
		{
			Name:        "msk.tag_resource",
			Description: "Adds tags to an MSK resource.",
			ToolsetID:   toolsetID,
			InputSchema: schemaTagResource(),
			Safety:      mcp.SafetyWrite,
			Handler:     svc.handleTagResource,
		},
		{
			Name:        "msk.untag_resource",
			Description: "Removes tags from an MSK resource.",
			ToolsetID:   toolsetID,
			InputSchema: schemaUntagResource(),
			Safety:      mcp.SafetyWrite,
			Handler:     svc.handleUntagResource,
		},
		{
			Name:        "msk.update_broker_count",
			Description: "Changes the number of broker nodes. Only operates on resources tagged 'MCP Generated'.",
			ToolsetID:   toolsetID,
			InputSchema: schemaUpdateBrokerCount(),
			Safety:      mcp.SafetyRiskyWrite,
			Handler:     svc.handleUpdateBrokerCount,
		},
		{
			Name:        "msk.update_broker_storage",
			Description: "Changes broker EBS volume sizes. Only operates on resources tagged 'MCP Generated'.",
			ToolsetID:   toolsetID,
			InputSchema: schemaUpdateBrokerStorage(),
			Safety:      mcp.SafetyRiskyWrite,
			Handler:     svc.handleUpdateBrokerStorage,
		},
		{
			Name:        "msk.reboot_broker",
			Description: "Reboots brokers in a cluster. Only operates on resources tagged 'MCP Generated'.",
			ToolsetID:   toolsetID,
			InputSchema: schemaRebootBroker(),
			Safety:      mcp.SafetyDestructive,
			Handler:     svc.handleRebootBroker,
		},
		{
			Name:        "msk.get_cluster_telemetry",
			Description: "Lists available CloudWatch metrics for a cluster or fetches metric data.",
			ToolsetID:   toolsetID,
			InputSchema: schemaGetClusterTelemetry(),
			Safety:      mcp.SafetyReadOnly,
			Handler:     svc.handleGetClusterTelemetry,
		},
		{
			Name:        "msk.list_customer_iam_access",
			Description: "Surveys IAM authentication state, cluster resource policy, and customer managed policies granting cluster access.",
			ToolsetID:   toolsetID,
			InputSchema: schemaListCustomerIAMAccess(),
			Safety:      mcp.SafetyReadOnly,
			Handler:     svc.handleListCustomerIAMAccess,
		},
	}
}

var infoSections = []string{
	"metadata", "brokers", "nodes", "compatible_versions",
	"policy", "operations", "client_vpc_connections", "scram_secrets",
}

func (s *Service) handleGetClusterInfo(ctx context.Context, req mcp.ToolRequest) (mcp.ToolResult, error) {
	clusterArn := strings.TrimSpace(toString(req.Arguments["cluster_arn"]))
	if clusterArn == "" {
		err := errors.New("cluster_arn is required")
		return errorResult(err), err
	}
	infoType := strings.TrimSpace(toString(req.Arguments["info_type"]))
	if infoType == "" {
		infoType = "all"
	}

	client, usedRegion, err := s.kafka(ctx, toString(req.Arguments["region"]))
	if err != nil {
		return errorResult(err), err
	}

	if infoType == "all" {
		// Gather every section; a failing section becomes an error entry
		// instead of failing the whole call.
		result := map[string]any{}
		for _, section := range infoSections {
			data, err := s.clusterInfoSection(ctx, client, section, clusterArn, req.Arguments)
			if err != nil {
				result[section] = map[string]any{"error": err.Error()}
				continue
			}
			result[section] = data
		}
		return s.clusterResult(usedRegion, clusterArn, result), nil
	}

	data, err := s.clusterInfoSection(ctx, client, infoType, clusterArn, req.Arguments)
	if err != nil {
		return errorResult(err), err
	}
	return s.clusterResult(usedRegion, clusterArn, data), nil
}

func (s *Service) clusterInfoSection(ctx context.Context, client KafkaAPI, section, clusterArn string, args map[string]any) (map[string]any, error) {
	maxResults := int32(toInt(args["max_results"], 10))
	var nextToken *string
	if token := strings.TrimSpace(toString(args["next_token"])); token != "" {
		nextToken = aws.String(token)
	}

	switch section {
	case "metadata":
		out, err := client.DescribeClusterV2(ctx, &kafka.DescribeClusterV2Input{ClusterArn: aws.String(clusterArn)})
		if err != nil {
			return nil, err
		}
		return structToMap(out.ClusterInfo)
	case "brokers":
		out, err := client.GetBootstrapBrokers(ctx, &kafka.GetBootstrapBrokersInput{ClusterArn: aws.String(clusterArn)})
		if err != nil {
			return nil, err
		}
		return structToMap(out)
	case "nodes":
		out, err := client.ListNodes(ctx, &kafka.ListNodesInput{ClusterArn: aws.String(clusterArn)})
		if err != nil {
			return nil, err
		}
		return structToMap(out)
	case "compatible_versions":
		out, err := client.GetCompatibleKafkaVersions(ctx, &kafka.GetCompatibleKafkaVersionsInput{ClusterArn: aws.String(clusterArn)})
		if err != nil {
			return nil, err
		}
		return structToMap(out)
	case "policy":
		out, err := client.GetClusterPolicy(ctx, &kafka.GetClusterPolicyInput{ClusterArn: aws.String(clusterArn)})
		if err != nil {
			return nil, err
		}
		return structToMap(out)
	case "operations":
		out, err := client.ListClusterOperationsV2(ctx, &kafka.ListClusterOperationsV2Input{
			ClusterArn: aws.String(clusterArn),
			MaxResults: aws.Int32(maxResults),
			NextToken:  nextToken,
		})
		if err != nil {
			return nil, err
		}
		return structToMap(out)
	case "client_vpc_connections":
		out, err := client.ListClientVpcConnections(ctx, &kafka.ListClientVpcConnectionsInput{
			ClusterArn: aws.String(clusterArn),
			MaxResults: aws.Int32(maxResults),
			NextToken:  nextToken,
		})
		if err != nil {
			return nil, err
		}
		return structToMap(out)
	case "scram_secrets":
		out, err := client.ListScramSecrets(ctx, &kafka.ListScramSecretsInput{
			ClusterArn: aws.String(clusterArn),
			MaxResults: aws.Int32(maxResults),
			NextToken:  nextToken,
		})
		if err != nil {
			return nil, err
		}
		return structToMap(out)
	default:
		return nil, fmt.Errorf("unsupported info_type %q", section)
	}
}

func (s *Service) handleDescribeClusterOperation(ctx context.Context, req mcp.ToolRequest) (mcp.ToolResult, error) {
	operationArn := strings.TrimSpace(toString(req.Arguments["cluster_operation_arn"]))
	if operationArn == "" {
		err := errors.New("cluster_operation_arn is required")
		return errorResult(err), err
	}
	client, usedRegion, err := s.kafka(ctx, toString(req.Arguments["region"]))
	if err != nil {
		return errorResult(err), err
	}
	out, err := client.DescribeClusterOperationV2(ctx, &kafka.DescribeClusterOperationV2Input{
		ClusterOperationArn: aws.String(operationArn),
	})
	if err != nil {
		return errorResult(err), err
	}
	info, err := structToMap(out.ClusterOperationInfo)
	if err != nil {
		return errorResult(err), err
	}
	return mcp.ToolResult{
		Data: s.ctx.Redactor.RedactValue(map[string]any{
			"region":    usedRegion,
			"operation": info,
		}),
		Metadata: mcp.ToolMetadata{Regions: []string{usedRegion}, Resources: []string{operationArn}},
	}, nil
}

func (s *Service) handleCreateConfiguration(ctx context.Context, req mcp.ToolRequest) (mcp.ToolResult, error) {
	name := strings.TrimSpace(toString(req.Arguments["name"]))
	properties := toString(req.Arguments["server_properties"])
	if name == "" || properties == "" {
		err := errors.New("name and server_properties are required")
		return errorResult(err), err
	}
	client, usedRegion, err := s.kafka(ctx, toString(req.Arguments["region"]))
	if err != nil {
		return errorResult(err), err
	}
	input := &kafka.CreateConfigurationInput{
		Name:             aws.String(name),
		ServerProperties: []byte(properties),
	}
	if description := strings.TrimSpace(toString(req.Arguments["description"])); description != "" {
		input.Description = aws.String(description)
	}
	if versions := toStringSlice(req.Arguments["kafka_versions"]); len(versions) > 0 {
		input.KafkaVersions = versions
	}
	out, err := client.CreateConfiguration(ctx, input)
	if err != nil {
		return errorResult(err), err
	}
	data, err := structToMap(out)
	if err != nil {
		return errorResult(err), err
	}
	data["region"] = usedRegion
	return mcp.ToolResult{
		Data:     data,
		Metadata: mcp.ToolMetadata{Regions: []string{usedRegion}, Resources: []string{aws.ToString(out.Arn)}},
	}, nil
}

func (s *Service) handleUpdateConfiguration(ctx context.Context, req mcp.ToolRequest) (mcp.ToolResult, error) {
	arn := strings.TrimSpace(toString(req.Arguments["arn"]))
	properties := toString(req.Arguments["server_properties"])
	if arn == "" || properties == "" {
		err := errors.New("arn and server_properties are required")
		return errorResult(err), err
	}
	client, usedRegion, err := s.kafka(ctx, toString(req.Arguments["region"]))
	if err != nil {
		return errorResult(err), err
	}
	if err := s.requireGeneratedTag(ctx, client, arn); err != nil {
		return errorResult(err), err
	}
	input := &kafka.UpdateConfigurationInput{
		Arn:              aws.String(arn),
		ServerProperties: []byte(properties),
	}
	if description := strings.TrimSpace(toString(req.Arguments["description"])); description != "" {
		input.Description = aws.String(description)
	}
	out, err := client.UpdateConfiguration(ctx, input)
	if err != nil {
		return errorResult(err), err
	}
	data, err := structToMap(out)
	if err != nil {
		return errorResult(err), err
	}
	data["region"] = usedRegion
	return mcp.ToolResult{
		Data:     data,
		Metadata: mcp.ToolMetadata{Regions: []string{usedRegion}, Resources: []string{arn}},
	}, nil
}

func (s *Service) handleTagResource(ctx context.Context, req mcp.ToolRequest) (mcp.ToolResult, error) {
	resourceArn := strings.TrimSpace(toString(req.Arguments["resource_arn"]))
	tags := toStringMap(req.Arguments["tags"])
	if resourceArn == "" || len(tags) == 0 {
		err := errors.New("resource_arn and tags are required")
		return errorResult(err), err
	}
	client, usedRegion, err := s.kafka(ctx, toString(req.Arguments["region"]))
	if err != nil {
		return errorResult(err), err
	}
	if _, err := client.TagResource(ctx, &kafka.TagResourceInput{
		ResourceArn: aws.String(resourceArn),
		Tags:        tags,
	}); err != nil {
		return errorResult(err), err
	}
	return mcp.ToolResult{
		Data:     map[string]any{"region": usedRegion, "resourceArn": resourceArn, "tagged": true},
		Metadata: mcp.ToolMetadata{Regions: []string{usedRegion}, Resources: []string{resourceArn}},
	}, nil
}

func (s *Service) handleUntagResource(ctx context.Context, req mcp.ToolRequest) (mcp.ToolResult, error) {
	resourceArn := strings.TrimSpace(toString(req.Arguments["resource_arn"]))
	tagKeys := toStringSlice(req.Arguments["tag_keys"])
	if resourceArn == "" || len(tagKeys) == 0 {
		err := errors.New("resource_arn and tag_keys are required")
		return errorResult(err), err
	}
	client, usedRegion, err := s.kafka(ctx, toString(req.Arguments["region"]))
	if err != nil {
		return errorResult(err), err
	}
	if _, err := client.UntagResource(ctx, &kafka.UntagResourceInput{
		ResourceArn: aws.String(resourceArn),
		TagKeys:     tagKeys,
	}); err != nil {
		return errorResult(err), err
	}
	return mcp.ToolResult{
		Data:     map[string]any{"region": usedRegion, "resourceArn": resourceArn, "untagged": tagKeys},
		Metadata: mcp.ToolMetadata{Regions: []string{usedRegion}, Resources: []string{resourceArn}},
	}, nil
}

func (s *Service) handleUpdateBrokerCount(ctx context.Context, req mcp.ToolRequest) (mcp.ToolResult, error) {
	clusterArn := strings.TrimSpace(toString(req.Arguments["cluster_arn"]))
	currentVersion := strings.TrimSpace(toString(req.Arguments["current_version"]))
	target := toInt(req.Arguments["target_number_of_broker_nodes"], 0)
	if clusterArn == "" || currentVersion == "" || target <= 0 {
		err := errors.New("cluster_arn, current_version and target_number_of_broker_nodes are required")
		return errorResult(err), err
	}
	client, usedRegion, err := s.kafka(ctx, toString(req.Arguments["region"]))
	if err != nil {
		return errorResult(err), err
	}
	if err := s.requireGeneratedTag(ctx, client, clusterArn); err != nil {
		return errorResult(err), err
	}
	out, err := client.UpdateBrokerCount(ctx, &kafka.UpdateBrokerCountInput{
		ClusterArn:                aws.String(clusterArn),
		CurrentVersion:            aws.String(currentVersion),
		TargetNumberOfBrokerNodes: aws.Int32(int32(target)),
	})
	if err != nil {
		return errorResult(err), err
	}
	return s.operationResult(usedRegion, aws.ToString(out.ClusterArn), aws.ToString(out.ClusterOperationArn)), nil
}

func (s *Service) handleUpdateBrokerStorage(ctx context.Context, req mcp.ToolRequest) (mcp.ToolResult, error) {
	clusterArn := strings.TrimSpace(toString(req.Arguments["cluster_arn"]))
	currentVersion := strings.TrimSpace(toString(req.Arguments["current_version"]))
	if clusterArn == "" || currentVersion == "" {
		err := errors.New("cluster_arn and current_version are required")
		return errorResult(err), err
	}
	rawVolumes, _ := req.Arguments["target_broker_ebs_volume_info"].([]any)
	volumes, err := decodeVolumeInfo(rawVolumes)
	if err != nil {
		return errorResult(err), err
	}
	client, usedRegion, err := s.kafka(ctx, toString(req.Arguments["region"]))
	if err != nil {
		return errorResult(err), err
	}
	if err := s.requireGeneratedTag(ctx, client, clusterArn); err != nil {
		return errorResult(err), err
	}
	out, err := client.UpdateBrokerStorage(ctx, &kafka.UpdateBrokerStorageInput{
		ClusterArn:               aws.String(clusterArn),
		CurrentVersion:           aws.String(currentVersion),
		TargetBrokerEBSVolumeInfo: volumes,
	})
	if err != nil {
		return errorResult(err), err
	}
	return s.operationResult(usedRegion, aws.ToString(out.ClusterArn), aws.ToString(out.ClusterOperationArn)), nil
}

func (s *Service) handleRebootBroker(ctx context.Context, req mcp.ToolRequest) (mcp.ToolResult, error) {
	clusterArn := strings.TrimSpace(toString(req.Arguments["cluster_arn"]))
	brokerIDs := toStringSlice(req.Arguments["broker_ids"])
	if clusterArn == "" || len(brokerIDs) == 0 {
		err := errors.New("cluster_arn and broker_ids are required")
		return errorResult(err), err
	}
	client, usedRegion, err := s.kafka(ctx, toString(req.Arguments["region"]))
	if err != nil {
		return errorResult(err), err
	}
	if err := s.requireGeneratedTag(ctx, client, clusterArn); err != nil {
		return errorResult(err), err
	}
	out, err := client.RebootBroker(ctx, &kafka.RebootBrokerInput{
		ClusterArn: aws.String(clusterArn),
		BrokerIds:  brokerIDs,
	})
	if err != nil {
		return errorResult(err), err
	}
	return s.operationResult(usedRegion, aws.ToString(out.ClusterArn), aws.ToString(out.ClusterOperationArn)), nil
}

// requireGeneratedTag refuses mutation of resources this server did not
// create.
func (s *Service) requireGeneratedTag(ctx context.Context, client KafkaAPI, resourceArn string) error {
	out, err := client.ListTagsForResource(ctx, &kafka.ListTagsForResourceInput{ResourceArn: aws.String(resourceArn)})
	if err != nil {
		return fmt.Errorf("checking tags on %s: %w", resourceArn, err)
	}
	if _, ok := out.Tags[generatedTag]; !ok {
		return fmt.Errorf("resource %s does not have the %q tag; this operation only applies to resources created through this server", resourceArn, generatedTag)
	}
	return nil
}

func decodeVolumeInfo(raw []any) ([]kafkatypes.BrokerEBSVolumeInfo, error) {
	if len(raw) == 0 {
		return nil, errors.New("target_broker_ebs_volume_info is required")
	}
	var volumes []kafkatypes.BrokerEBSVolumeInfo
	for i, item := range raw {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("target_broker_ebs_volume_info[%d]: expected an object", i)
		}
		nodeID := strings.TrimSpace(toString(obj["kafka_broker_node_id"]))
		if nodeID == "" {
			nodeID = "ALL"
		}
		size := toInt(obj["volume_size_gb"], 0)
		if size <= 0 {
			return nil, fmt.Errorf("target_broker_ebs_volume_info[%d]: volume_size_gb must be positive", i)
		}
		volume := kafkatypes.BrokerEBSVolumeInfo{
			KafkaBrokerNodeId: aws.String(nodeID),
			VolumeSizeGB:      aws.Int32(int32(size)),
		}
		if throughput, ok := obj["provisioned_throughput"].(map[string]any); ok {
			enabled, _ := throughput["enabled"].(bool)
			volume.ProvisionedThroughput = &kafkatypes.ProvisionedThroughput{
				Enabled:          aws.Bool(enabled),
				VolumeThroughput: aws.Int32(int32(toInt(throughput["volume_throughput"], 0))),
			}
		}
		volumes = append(volumes, volume)
	}
	return volumes, nil
}

func (s *Service) clusterResult(region, clusterArn string, data any) mcp.ToolResult {
	return mcp.ToolResult{
		Data: s.ctx.Redactor.RedactValue(map[string]any{
			"region":     region,
			"clusterArn": clusterArn,
			"info":       data,
		}),
		Metadata: mcp.ToolMetadata{Regions: []string{region}, Resources: []string{clusterArn}},
	}
}

func (s *Service) operationResult(region, clusterArn, operationArn string) mcp.ToolResult {
	return mcp.ToolResult{
		Data: map[string]any{
			"region":              region,
			"clusterArn":          clusterArn,
			"clusterOperationArn": operationArn,
		},
		Metadata: mcp.ToolMetadata{Regions: []string{region}, Resources: []string{clusterArn}},
	}
}

// structToMap flattens an SDK response into a plain map for the wire.
func structToMap(v any) (map[string]any, error) {
	encoded, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	out := map[string]any{}
	if err := json.Unmarshal(encoded, &out); err != nil {
		return nil, err
	}
	return out, nil
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

func toStringMap(value any) map[string]string {
	switch v := value.(type) {
	case map[string]string:
		return v
	case map[string]any:
		out := map[string]string{}
		for key, item := range v {
			out[key] = toString(item)
		}
		return out
	}
	return nil
}
