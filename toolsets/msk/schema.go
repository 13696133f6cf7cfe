package msk

func schemaGetClusterInfo() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"cluster_arn": map[string]any{"type": "string"},
			"info_type": map[string]any{
				"type": "string",
				"enum": []string{
					"metadata", "brokers", "nodes", "compatible_versions",
					"policy", "operations", "client_vpc_connections", "scram_secrets", "all",
				},
				"description": "Section to retrieve; 'all' gathers every section and records per-section errors.",
			},
			"max_results": map[string]any{"type": "number"},
			"next_token":  map[string]any{"type": "string"},
			"region":      map[string]any{"type": "string"},
		},
		"required": []string{"cluster_arn"},
	}
}

func schemaDescribeClusterOperation() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"cluster_operation_arn": map[string]any{"type": "string"},
			"region":                map[string]any{"type": "string"},
		},
		"required": []string{"cluster_operation_arn"},
	}
}

func schemaCreateConfiguration() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"name":              map[string]any{"type": "string"},
			"server_properties": map[string]any{"type": "string", "description": "Contents of the server.properties file."},
			"description":       map[string]any{"type": "string"},
			"kafka_versions": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
			"region": map[string]any{"type": "string"},
		},
		"required": []string{"name", "server_properties"},
	}
}

func schemaUpdateConfiguration() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"arn":               map[string]any{"type": "string"},
			"server_properties": map[string]any{"type": "string", "description": "Contents of the server.properties file."},
			"description":       map[string]any{"type": "string"},
			"region":            map[string]any{"type": "string"},
		},
		"required": []string{"arn", "server_properties"},
	}
}

func schemaTagResource() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"resource_arn": map[string]any{"type": "string"},
			"tags": map[string]any{
				"type":                 "object",
				"additionalProperties": map[string]any{"type": "string"},
			},
			"region": map[string]any{"type": "string"},
		},
		"required": []string{"resource_arn", "tags"},
	}
}

func schemaUntagResource() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"resource_arn": map[string]any{"type": "string"},
			"tag_keys": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
			"region": map[string]any{"type": "string"},
		},
		"required": []string{"resource_arn", "tag_keys"},
	}
}

func schemaUpdateBrokerCount() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"cluster_arn":                   map[string]any{"type": "string"},
			"current_version":               map[string]any{"type": "string"},
			"target_number_of_broker_nodes": map[string]any{"type": "number"},
			"region":                        map[string]any{"type": "string"},
		},
		"required": []string{"cluster_arn", "current_version", "target_number_of_broker_nodes"},
	}
}

func schemaUpdateBrokerStorage() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"cluster_arn":     map[string]any{"type": "string"},
			"current_version": map[string]any{"type": "string"},
			"target_broker_ebs_volume_info": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"kafka_broker_node_id": map[string]any{"type": "string", "description": "Broker node ID or ALL."},
						"volume_size_gb":       map[string]any{"type": "number"},
						"provisioned_throughput": map[string]any{
							"type": "object",
							"properties": map[string]any{
								"enabled":           map[string]any{"type": "boolean"},
								"volume_throughput": map[string]any{"type": "number"},
							},
						},
					},
					"required": []string{"volume_size_gb"},
				},
			},
			"region": map[string]any{"type": "string"},
		},
		"required": []string{"cluster_arn", "current_version", "target_broker_ebs_volume_info"},
	}
}

func schemaRebootBroker() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"cluster_arn": map[string]any{"type": "string"},
			"broker_ids": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
			"region": map[string]any{"type": "string"},
		},
		"required": []string{"cluster_arn", "broker_ids"},
	}
}

func schemaGetClusterTelemetry() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"cluster_arn": map[string]any{"type": "string"},
			"action": map[string]any{
				"type":        "string",
				"enum":        []string{"available_metrics", "metrics"},
				"description": "available_metrics lists the catalog for the cluster's monitoring level; metrics fetches data points.",
			},
			"start_time": map[string]any{"type": "string", "description": "ISO 8601 start of the metric window (metrics action)."},
			"end_time":   map[string]any{"type": "string", "description": "ISO 8601 end of the metric window (metrics action)."},
			"period":     map[string]any{"type": "number", "description": "Granularity in seconds of returned data points (metrics action)."},
			"metrics": map[string]any{
				"description": "Metric names as a list, or an object mapping metric name to statistic.",
			},
			"scan_by": map[string]any{"type": "string", "enum": []string{"TimestampDescending", "TimestampAscending"}},
			"region":  map[string]any{"type": "string"},
		},
		"required": []string{"cluster_arn", "action"},
	}
}

func schemaListCustomerIAMAccess() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"cluster_arn": map[string]any{"type": "string"},
			"region":      map[string]any{"type": "string"},
		},
		"required": []string{"cluster_arn"},
	}
}
