package waf

import (
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	waftypes "github.com/aws/aws-sdk-go-v2/service/wafv2/types"
)

// decodeRules converts caller-supplied rule objects into typed WAF rules.
// Only the fields the tool supports are decoded: name, priority, a
// rate-based statement, the action, and visibility config.
func decodeRules(raw []any) ([]waftypes.Rule, error) {
	var rules []waftypes.Rule
	for i, item := range raw {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("rule %d: expected an object", i)
		}
		rule, err := decodeRule(obj)
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

func decodeRule(obj map[string]any) (waftypes.Rule, error) {
	name := strings.TrimSpace(toString(obj["name"]))
	if name == "" {
		return waftypes.Rule{}, fmt.Errorf("name is required")
	}
	priority := toInt(obj["priority"], -1)
	if priority < 0 {
		return waftypes.Rule{}, fmt.Errorf("priority is required")
	}

	action, err := decodeRuleAction(toString(obj["action"]))
	if err != nil {
		return waftypes.Rule{}, err
	}
	statement, err := decodeStatement(obj["statement"])
	if err != nil {
		return waftypes.Rule{}, err
	}

	metricName := strings.TrimSpace(toString(obj["metric_name"]))
	if metricName == "" {
		metricName = name + "Rule"
	}
	return waftypes.Rule{
		Name:      aws.String(name),
		Priority:  int32(priority),
		Action:    action,
		Statement: statement,
		VisibilityConfig: &waftypes.VisibilityConfig{
			SampledRequestsEnabled:   true,
			CloudWatchMetricsEnabled: true,
			MetricName:               aws.String(metricName),
		},
	}, nil
}

func decodeRuleAction(action string) (*waftypes.RuleAction, error) {
	switch strings.ToLower(strings.TrimSpace(action)) {
	case "", "block":
		return &waftypes.RuleAction{Block: &waftypes.BlockAction{}}, nil
	case "allow":
		return &waftypes.RuleAction{Allow: &waftypes.AllowAction{}}, nil
	case "count":
		return &waftypes.RuleAction{Count: &waftypes.CountAction{}}, nil
	default:
		return nil, fmt.Errorf("unsupported action %q (allow, block, count)", action)
	}
}

func decodeStatement(raw any) (*waftypes.Statement, error) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("statement is required")
	}
	rateRaw, ok := obj["rate_based"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("statement.rate_based is required")
	}
	limit := toInt(rateRaw["limit"], 0)
	if limit <= 0 {
		return nil, fmt.Errorf("statement.rate_based.limit must be positive")
	}
	aggregateKey := strings.ToUpper(strings.TrimSpace(toString(rateRaw["aggregate_key_type"])))
	if aggregateKey == "" {
		aggregateKey = "IP"
	}
	return &waftypes.Statement{
		RateBasedStatement: &waftypes.RateBasedStatement{
			Limit:            aws.Int64(int64(limit)),
			AggregateKeyType: waftypes.RateBasedStatementAggregateKeyType(aggregateKey),
		},
	}, nil
}
