package logs

func schemaDescribeLogGroups() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"account_identifiers": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Accounts to search when include_linked_accounts is true.",
			},
			"include_linked_accounts": map[string]any{"type": "boolean"},
			"log_group_class":         map[string]any{"type": "string", "enum": []string{"STANDARD", "INFREQUENT_ACCESS"}},
			"log_group_name_prefix":   map[string]any{"type": "string"},
			"max_items":               map[string]any{"type": "number"},
			"region":                  map[string]any{"type": "string"},
		},
	}
}

func schemaAnalyzeLogGroup() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"log_group_arn": map[string]any{"type": "string", "description": "Log group ARN, as returned by logs.describe_log_groups."},
			"start_time":    map[string]any{"type": "string", "description": "ISO 8601 start of the analysis window."},
			"end_time":      map[string]any{"type": "string", "description": "ISO 8601 end of the analysis window."},
			"region":        map[string]any{"type": "string"},
		},
		"required": []string{"log_group_arn", "start_time", "end_time"},
	}
}

func schemaExecuteInsightsQuery() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"log_group_names": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Log group names to query. Mutually exclusive with log_group_identifiers.",
			},
			"log_group_identifiers": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Log group ARNs to query. Mutually exclusive with log_group_names.",
			},
			"start_time":   map[string]any{"type": "string", "description": "ISO 8601 start of the query window."},
			"end_time":     map[string]any{"type": "string", "description": "ISO 8601 end of the query window."},
			"query_string": map[string]any{"type": "string"},
			"limit":        map[string]any{"type": "number"},
			"max_timeout":  map[string]any{"type": "number", "description": "Seconds to wait for completion before returning Polling Timeout."},
			"filter":       map[string]any{"type": "string", "description": "Optional JMESPath expression applied to the result."},
			"region":       map[string]any{"type": "string"},
		},
		"required": []string{"start_time", "end_time", "query_string"},
	}
}

func schemaGetInsightsQueryResults() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query_id": map[string]any{"type": "string"},
			"filter":   map[string]any{"type": "string", "description": "Optional JMESPath expression applied to the result."},
			"region":   map[string]any{"type": "string"},
		},
		"required": []string{"query_id"},
	}
}

func schemaCancelInsightsQuery() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query_id": map[string]any{"type": "string"},
			"region":   map[string]any{"type": "string"},
		},
		"required": []string{"query_id"},
	}
}
