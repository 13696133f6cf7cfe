package cost

func schemaGetRecommendations() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"region": map[string]any{"type": "string"},
		},
	}
}

func schemaExecuteCostQuery() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{
				"type":        "string",
				"description": "SQL to run against the configured cost-and-usage report table.",
			},
			"region": map[string]any{"type": "string"},
		},
		"required": []string{"query"},
	}
}
