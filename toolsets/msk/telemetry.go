package msk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	iamtypes "github.com/aws/aws-sdk-go-v2/service/iam/types"
	"github.com/aws/aws-sdk-go-v2/service/kafka"

	"awsops/internal/mcp"
)

func (s *Service) handleGetClusterTelemetry(ctx context.Context, req mcp.ToolRequest) (mcp.ToolResult, error) {
	clusterArn := strings.TrimSpace(toString(req.Arguments["cluster_arn"]))
	if clusterArn == "" {
		err := errors.New("cluster_arn is required")
		return errorResult(err), err
	}
	action := strings.TrimSpace(toString(req.Arguments["action"]))

	region := toString(req.Arguments["region"])
	kafkaClient, usedRegion, err := s.kafka(ctx, region)
	if err != nil {
		return errorResult(err), err
	}
	level, err := s.clusterMonitoringLevel(ctx, kafkaClient, clusterArn)
	if err != nil {
		return errorResult(err), err
	}

	switch action {
	case "available_metrics":
		metrics := map[string]any{}
		for name, config := range availableMetrics(level) {
			metrics[name] = map[string]any{
				"monitoringLevel":  config.MonitoringLevel,
				"dimensions":       config.Dimensions,
				"defaultStatistic": config.DefaultStatistic,
				"description":      config.Description,
			}
		}
		return mcp.ToolResult{
			Data: map[string]any{
				"region":          usedRegion,
				"clusterArn":      clusterArn,
				"monitoringLevel": level,
				"metrics":         metrics,
			},
			Metadata: mcp.ToolMetadata{Regions: []string{usedRegion}, Resources: []string{clusterArn}},
		}, nil
	case "metrics":
		return s.fetchClusterMetrics(ctx, req, kafkaClient, usedRegion, clusterArn, level)
	default:
		err := fmt.Errorf("unsupported action %q (available_metrics, metrics)", action)
		return errorResult(err), err
	}
}

type metricSelection struct {
	Name      string
	Statistic string
}

func (s *Service) fetchClusterMetrics(ctx context.Context, req mcp.ToolRequest, kafkaClient KafkaAPI, usedRegion, clusterArn, level string) (mcp.ToolResult, error) {
	startTime, err := parseMetricTime(req.Arguments["start_time"], "start_time")
	if err != nil {
		return errorResult(err), err
	}
	endTime, err := parseMetricTime(req.Arguments["end_time"], "end_time")
	if err != nil {
		return errorResult(err), err
	}
	period := toInt(req.Arguments["period"], 0)
	if period <= 0 {
		err := errors.New("period is required for the metrics action")
		return errorResult(err), err
	}
	selections, err := parseMetricSelections(req.Arguments["metrics"])
	if err != nil {
		return errorResult(err), err
	}

	clusterRank := monitoringLevelRank(level)
	clusterName := clusterNameFromARN(clusterArn)

	var queries []cwtypes.MetricDataQuery
	var skipped []string
	var brokerIDs []string
	brokersListed := false

	for i, sel := range selections {
		config, known := clusterMetrics[sel.Name]
		if !known {
			// Unknown metrics fall back to a cluster-level query with
			// Average, same as the catalog default.
			config = metricConfig{
				MonitoringLevel:  "DEFAULT",
				Dimensions:       []string{dimClusterName},
				DefaultStatistic: "Average",
			}
		}
		if monitoringLevelRank(config.MonitoringLevel) > clusterRank {
			skipped = append(skipped, sel.Name)
			continue
		}
		statistic := sel.Statistic
		if statistic == "" {
			statistic = config.DefaultStatistic
		}

		if containsDimension(config.Dimensions, dimBrokerID) {
			if !brokersListed {
				brokerIDs, err = listBrokerIDs(ctx, kafkaClient, clusterArn)
				if err != nil {
					return errorResult(err), err
				}
				brokersListed = true
			}
			for _, brokerID := range brokerIDs {
				queries = append(queries, metricQuery(fmt.Sprintf("m%d_%s", i, brokerID), sel.Name, statistic, period, []cwtypes.Dimension{
					{Name: aws.String(dimClusterName), Value: aws.String(clusterName)},
					{Name: aws.String(dimBrokerID), Value: aws.String(brokerID)},
				}))
			}
			continue
		}
		queries = append(queries, metricQuery(fmt.Sprintf("m%d", i), sel.Name, statistic, period, []cwtypes.Dimension{
			{Name: aws.String(dimClusterName), Value: aws.String(clusterName)},
		}))
	}

	cwClient, _, err := s.metrics(ctx, usedRegion)
	if err != nil {
		return errorResult(err), err
	}
	input := &cloudwatch.GetMetricDataInput{
		MetricDataQueries: queries,
		StartTime:         aws.Time(startTime),
		EndTime:           aws.Time(endTime),
	}
	if scanBy := strings.TrimSpace(toString(req.Arguments["scan_by"])); scanBy != "" {
		input.ScanBy = cwtypes.ScanBy(scanBy)
	}
	out, err := cwClient.GetMetricData(ctx, input)
	if err != nil {
		return errorResult(err), err
	}
	data, err := structToMap(out)
	if err != nil {
		return errorResult(err), err
	}
	data["region"] = usedRegion
	data["clusterArn"] = clusterArn
	if len(skipped) > 0 {
		data["skippedMetrics"] = skipped
	}
	return mcp.ToolResult{
		Data:     data,
		Metadata: mcp.ToolMetadata{Regions: []string{usedRegion}, Resources: []string{clusterArn}},
	}, nil
}

func (s *Service) handleListCustomerIAMAccess(ctx context.Context, req mcp.ToolRequest) (mcp.ToolResult, error) {
	clusterArn := strings.TrimSpace(toString(req.Arguments["cluster_arn"]))
	if clusterArn == "" {
		err := errors.New("cluster_arn is required")
		return errorResult(err), err
	}
	region := toString(req.Arguments["region"])
	kafkaClient, usedRegion, err := s.kafka(ctx, region)
	if err != nil {
		return errorResult(err), err
	}

	describe, err := kafkaClient.DescribeClusterV2(ctx, &kafka.DescribeClusterV2Input{ClusterArn: aws.String(clusterArn)})
	if err != nil {
		return errorResult(err), err
	}
	info, err := structToMap(describe.ClusterInfo)
	if err != nil {
		return errorResult(err), err
	}
	clusterInfo := map[string]any{
		"clusterArn":     clusterArn,
		"clusterName":    clusterNameFromARN(clusterArn),
		"iamAuthEnabled": iamAuthEnabled(info),
	}

	// No resource policy is a normal state, not a failure.
	resourcePolicies := []map[string]any{}
	if policyOut, err := kafkaClient.GetClusterPolicy(ctx, &kafka.GetClusterPolicyInput{ClusterArn: aws.String(clusterArn)}); err == nil {
		if doc := parsePolicyDocument(aws.ToString(policyOut.Policy)); doc != nil {
			resourcePolicies = append(resourcePolicies, doc)
		}
	}

	iamClient, _, err := s.iam(ctx, usedRegion)
	if err != nil {
		return errorResult(err), err
	}
	matching, err := s.matchingCustomerPolicies(ctx, iamClient, clusterArn)
	if err != nil {
		return errorResult(err), err
	}

	return mcp.ToolResult{
		Data: s.ctx.Redactor.RedactValue(map[string]any{
			"region":           usedRegion,
			"clusterInfo":      clusterInfo,
			"resourcePolicies": resourcePolicies,
			"matchingPolicies": matching,
		}),
		Metadata: mcp.ToolMetadata{Regions: []string{usedRegion}, Resources: []string{clusterArn}},
	}, nil
}

// matchingCustomerPolicies walks customer managed policies and keeps those
// whose allow statements grant Kafka actions against this cluster.
func (s *Service) matchingCustomerPolicies(ctx context.Context, client IAMAPI, clusterArn string) ([]map[string]any, error) {
	arnPrefix := clusterArnPrefix(clusterArn)
	var matching []map[string]any

	paginator := iam.NewListPoliciesPaginator(client, &iam.ListPoliciesInput{Scope: iamtypes.PolicyScopeTypeLocal})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, policy := range page.Policies {
			versionOut, err := client.GetPolicyVersion(ctx, &iam.GetPolicyVersionInput{
				PolicyArn: policy.Arn,
				VersionId: policy.DefaultVersionId,
			})
			if err != nil || versionOut.PolicyVersion == nil {
				continue
			}
			actions := grantedKafkaActions(aws.ToString(versionOut.PolicyVersion.Document), arnPrefix)
			if len(actions) == 0 {
				continue
			}
			entry := map[string]any{
				"policyName": aws.ToString(policy.PolicyName),
				"policyArn":  aws.ToString(policy.Arn),
				"actions":    actions,
			}
			if entities, err := client.ListEntitiesForPolicy(ctx, &iam.ListEntitiesForPolicyInput{PolicyArn: policy.Arn}); err == nil {
				var roles []string
				for _, role := range entities.PolicyRoles {
					roles = append(roles, aws.ToString(role.RoleName))
				}
				var users []string
				for _, user := range entities.PolicyUsers {
					users = append(users, aws.ToString(user.UserName))
				}
				entry["roles"] = roles
				entry["users"] = users
			}
			matching = append(matching, entry)
		}
	}
	return matching, nil
}

// grantedKafkaActions extracts Kafka actions from allow statements whose
// resources cover the cluster. The document arrives URL-encoded from IAM.
func grantedKafkaActions(document, arnPrefix string) []string {
	decoded, err := url.QueryUnescape(document)
	if err != nil {
		decoded = document
	}
	var doc map[string]any
	if err := json.Unmarshal([]byte(decoded), &doc); err != nil {
		return nil
	}

	var actions []string
	for _, stmt := range asSlice(doc["Statement"]) {
		obj, ok := stmt.(map[string]any)
		if !ok || toString(obj["Effect"]) != "Allow" {
			continue
		}
		if !resourceCoversCluster(asSlice(obj["Resource"]), arnPrefix) {
			continue
		}
		for _, action := range asSlice(obj["Action"]) {
			name := toString(action)
			if strings.HasPrefix(name, "kafka-cluster:") || strings.HasPrefix(name, "kafka:") || name == "*" {
				actions = append(actions, name)
			}
		}
	}
	return actions
}

func resourceCoversCluster(resources []any, arnPrefix string) bool {
	for _, raw := range resources {
		resource := toString(raw)
		if resource == "*" {
			return true
		}
		trimmed := strings.TrimSuffix(strings.TrimSuffix(resource, "*"), "/")
		if strings.HasPrefix(arnPrefix, trimmed) || strings.HasPrefix(trimmed, arnPrefix) {
			return true
		}
	}
	return false
}

// asSlice normalizes IAM policy fields that may be a scalar or a list.
func asSlice(value any) []any {
	switch v := value.(type) {
	case nil:
		return nil
	case []any:
		return v
	default:
		return []any{v}
	}
}

func parsePolicyDocument(policy string) map[string]any {
	if strings.TrimSpace(policy) == "" {
		return nil
	}
	var doc map[string]any
	if err := json.Unmarshal([]byte(policy), &doc); err != nil {
		return nil
	}
	return doc
}

func (s *Service) clusterMonitoringLevel(ctx context.Context, client KafkaAPI, clusterArn string) (string, error) {
	out, err := client.DescribeClusterV2(ctx, &kafka.DescribeClusterV2Input{ClusterArn: aws.String(clusterArn)})
	if err != nil {
		return "", err
	}
	info, err := structToMap(out.ClusterInfo)
	if err != nil {
		return "", err
	}
	if level, ok := dig(info, "Provisioned", "EnhancedMonitoring").(string); ok && level != "" {
		return level, nil
	}
	return "DEFAULT", nil
}

func iamAuthEnabled(clusterInfo map[string]any) bool {
	for _, root := range []string{"Provisioned", "Serverless"} {
		if enabled, ok := dig(clusterInfo, root, "ClientAuthentication", "Sasl", "Iam", "Enabled").(bool); ok && enabled {
			return true
		}
	}
	return false
}

// dig walks nested maps; returns nil when any step is missing.
func dig(m map[string]any, path ...string) any {
	var current any = m
	for _, key := range path {
		obj, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		current = obj[key]
	}
	return current
}

func listBrokerIDs(ctx context.Context, client KafkaAPI, clusterArn string) ([]string, error) {
	out, err := client.ListNodes(ctx, &kafka.ListNodesInput{ClusterArn: aws.String(clusterArn)})
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, node := range out.NodeInfoList {
		if node.BrokerNodeInfo == nil || node.BrokerNodeInfo.BrokerId == nil {
			continue
		}
		ids = append(ids, strconv.Itoa(int(*node.BrokerNodeInfo.BrokerId)))
	}
	return ids, nil
}

func metricQuery(id, name, statistic string, period int, dimensions []cwtypes.Dimension) cwtypes.MetricDataQuery {
	return cwtypes.MetricDataQuery{
		Id: aws.String(id),
		MetricStat: &cwtypes.MetricStat{
			Metric: &cwtypes.Metric{
				Namespace:  aws.String("AWS/Kafka"),
				MetricName: aws.String(name),
				Dimensions: dimensions,
			},
			Period: aws.Int32(int32(period)),
			Stat:   aws.String(statistic),
		},
	}
}

// parseMetricSelections accepts a list of metric names or a map of metric
// name to statistic. Map input is ordered by name so query IDs stay stable.
func parseMetricSelections(value any) ([]metricSelection, error) {
	switch v := value.(type) {
	case []any:
		var out []metricSelection
		for _, item := range v {
			name := strings.TrimSpace(toString(item))
			if name != "" {
				out = append(out, metricSelection{Name: name})
			}
		}
		if len(out) == 0 {
			return nil, errors.New("metrics is required for the metrics action")
		}
		return out, nil
	case map[string]any:
		names := make([]string, 0, len(v))
		for name := range v {
			names = append(names, name)
		}
		sort.Strings(names)
		var out []metricSelection
		for _, name := range names {
			out = append(out, metricSelection{Name: name, Statistic: strings.TrimSpace(toString(v[name]))})
		}
		if len(out) == 0 {
			return nil, errors.New("metrics is required for the metrics action")
		}
		return out, nil
	default:
		return nil, errors.New("metrics is required for the metrics action")
	}
}

func parseMetricTime(value any, field string) (time.Time, error) {
	raw := strings.TrimSpace(toString(value))
	if raw == "" {
		return time.Time{}, fmt.Errorf("%s is required for the metrics action", field)
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must be an RFC 3339 timestamp: %w", field, err)
	}
	return parsed, nil
}

func containsDimension(dimensions []string, name string) bool {
	for _, dim := range dimensions {
		if dim == name {
			return true
		}
	}
	return false
}

func clusterNameFromARN(clusterArn string) string {
	parts := strings.Split(clusterArn, "/")
	if len(parts) >= 2 {
		return parts[1]
	}
	return clusterArn
}

func clusterArnPrefix(clusterArn string) string {
	if idx := strings.LastIndex(clusterArn, "/"); idx > 0 {
		return clusterArn[:idx]
	}
	return clusterArn
}
