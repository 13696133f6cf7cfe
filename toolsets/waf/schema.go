package waf

func schemaCreateWebACL() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"name": map[string]any{"type": "string"},
			"rules": map[string]any{
				"type":        "array",
				"description": "Rate-based rules: name, priority, action (allow|block|count), statement.rate_based.limit.",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"name":        map[string]any{"type": "string"},
						"priority":    map[string]any{"type": "number"},
						"action":      map[string]any{"type": "string", "enum": []string{"allow", "block", "count"}},
						"metric_name": map[string]any{"type": "string"},
						"statement": map[string]any{
							"type": "object",
							"properties": map[string]any{
								"rate_based": map[string]any{
									"type": "object",
									"properties": map[string]any{
										"limit":              map[string]any{"type": "number"},
										"aggregate_key_type": map[string]any{"type": "string", "enum": []string{"IP", "FORWARDED_IP"}},
									},
									"required": []string{"limit"},
								},
							},
							"required": []string{"rate_based"},
						},
					},
					"required": []string{"name", "priority", "statement"},
				},
			},
			"region": map[string]any{"type": "string"},
		},
		"required": []string{"name"},
	}
}

func schemaAssociateWebACL() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"web_acl_arn":        map[string]any{"type": "string"},
			"resource_arn":       map[string]any{"type": "string", "description": "Resource to protect. May be omitted when load_balancer_name is set."},
			"load_balancer_name": map[string]any{"type": "string", "description": "ALB name to resolve through waf.get_load_balancer_arn."},
			"region":             map[string]any{"type": "string"},
		},
		"required": []string{"web_acl_arn"},
	}
}

func schemaGetLoadBalancerARN() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"name":   map[string]any{"type": "string"},
			"region": map[string]any{"type": "string"},
		},
		"required": []string{"name"},
	}
}

func schemaCreateIPSet() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"name": map[string]any{"type": "string"},
			"ip_addresses": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "CIDR blocks to include in the set.",
			},
			"ip_version":  map[string]any{"type": "string", "enum": []string{"IPV4", "IPV6"}},
			"scope":       map[string]any{"type": "string", "enum": []string{"REGIONAL", "CLOUDFRONT"}},
			"description": map[string]any{"type": "string"},
			"region":      map[string]any{"type": "string"},
		},
		"required": []string{"name", "ip_addresses"},
	}
}

func schemaListWebACLs() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"scope":  map[string]any{"type": "string", "enum": []string{"REGIONAL", "CLOUDFRONT"}},
			"region": map[string]any{"type": "string"},
		},
	}
}
