package msk

// metricConfig describes one AWS/Kafka CloudWatch metric: the enhanced
// monitoring level that must be enabled for it to exist, the dimensions it
// is published under, and the statistic to use when the caller does not
// pick one.
type metricConfig struct {
	MonitoringLevel  string
	Dimensions       []string
	DefaultStatistic string
	Description      string
}

const (
	dimClusterName = "Cluster Name"
	dimBrokerID    = "Broker ID"
)

func monitoringLevelRank(level string) int {
	switch level {
	case "DEFAULT":
		return 0
	case "PER_BROKER":
		return 1
	case "PER_TOPIC_PER_BROKER":
		return 2
	case "PER_TOPIC_PER_PARTITION":
		return 3
	default:
		return -1
	}
}

// clusterMetrics is the supported subset of the AWS/Kafka metric catalog
// for provisioned clusters.
var clusterMetrics = map[string]metricConfig{
	"ActiveControllerCount": {
		MonitoringLevel:  "DEFAULT",
		Dimensions:       []string{dimClusterName},
		DefaultStatistic: "Maximum",
		Description:      "Only one controller per cluster should be active at any given time.",
	},
	"BurstBalance": {
		MonitoringLevel:  "DEFAULT",
		Dimensions:       []string{dimClusterName, dimBrokerID},
		DefaultStatistic: "Average",
		Description:      "The remaining balance of input-output burst credits for EBS volumes in the cluster.",
	},
	"BytesInPerSec": {
		MonitoringLevel:  "DEFAULT",
		Dimensions:       []string{dimClusterName, dimBrokerID},
		DefaultStatistic: "Sum",
		Description:      "The number of bytes per second received from clients.",
	},
	"BytesOutPerSec": {
		MonitoringLevel:  "DEFAULT",
		Dimensions:       []string{dimClusterName, dimBrokerID},
		DefaultStatistic: "Sum",
		Description:      "The number of bytes per second sent to clients.",
	},
	"ConnectionCount": {
		MonitoringLevel:  "DEFAULT",
		Dimensions:       []string{dimClusterName, dimBrokerID},
		DefaultStatistic: "Average",
		Description:      "The number of active authenticated, unauthenticated, and inter-broker connections.",
	},
	"CpuIdle": {
		MonitoringLevel:  "DEFAULT",
		Dimensions:       []string{dimClusterName, dimBrokerID},
		DefaultStatistic: "Average",
		Description:      "The percentage of CPU idle time.",
	},
	"CpuUser": {
		MonitoringLevel:  "DEFAULT",
		Dimensions:       []string{dimClusterName, dimBrokerID},
		DefaultStatistic: "Average",
		Description:      "The percentage of CPU utilization by the Kafka broker.",
	},
	"GlobalPartitionCount": {
		MonitoringLevel:  "DEFAULT",
		Dimensions:       []string{dimClusterName},
		DefaultStatistic: "Sum",
		Description:      "The total number of partitions in the cluster.",
	},
	"GlobalTopicCount": {
		MonitoringLevel:  "DEFAULT",
		Dimensions:       []string{dimClusterName},
		DefaultStatistic: "Sum",
		Description:      "The total number of topics in the cluster.",
	},
	"KafkaDataLogsDiskUsed": {
		MonitoringLevel:  "DEFAULT",
		Dimensions:       []string{dimClusterName, dimBrokerID},
		DefaultStatistic: "Average",
		Description:      "The percentage of disk space used for data logs.",
	},
	"LeaderCount": {
		MonitoringLevel:  "DEFAULT",
		Dimensions:       []string{dimClusterName, dimBrokerID},
		DefaultStatistic: "Sum",
		Description:      "The number of partitions for which this broker is the leader.",
	},
	"OfflinePartitionsCount": {
		MonitoringLevel:  "DEFAULT",
		Dimensions:       []string{dimClusterName},
		DefaultStatistic: "Sum",
		Description:      "The number of partitions that don't have an active leader and are therefore not readable or writable.",
	},
	"UnderReplicatedPartitions": {
		MonitoringLevel:  "DEFAULT",
		Dimensions:       []string{dimClusterName, dimBrokerID},
		DefaultStatistic: "Sum",
		Description:      "The number of under-replicated partitions for the broker.",
	},
	"BwInAllowanceExceeded": {
		MonitoringLevel:  "PER_BROKER",
		Dimensions:       []string{dimClusterName, dimBrokerID},
		DefaultStatistic: "Sum",
		Description:      "The number of packets shaped because the inbound aggregate bandwidth exceeded the maximum for the broker.",
	},
	"BwOutAllowanceExceeded": {
		MonitoringLevel:  "PER_BROKER",
		Dimensions:       []string{dimClusterName, dimBrokerID},
		DefaultStatistic: "Sum",
		Description:      "The number of packets shaped because the outbound aggregate bandwidth exceeded the maximum for the broker.",
	},
	"ConnectionCloseRate": {
		MonitoringLevel:  "PER_BROKER",
		Dimensions:       []string{dimClusterName, dimBrokerID},
		DefaultStatistic: "Average",
		Description:      "The number of connections closed per second per listener.",
	},
	"ConnectionCreationRate": {
		MonitoringLevel:  "PER_BROKER",
		Dimensions:       []string{dimClusterName, dimBrokerID},
		DefaultStatistic: "Average",
		Description:      "The number of new connections established per second per listener.",
	},
	"CpuCreditUsage": {
		MonitoringLevel:  "PER_BROKER",
		Dimensions:       []string{dimClusterName, dimBrokerID},
		DefaultStatistic: "Average",
		Description:      "The number of CPU credits spent by the broker.",
	},
	"FetchConsumerTotalTimeMsMean": {
		MonitoringLevel:  "PER_BROKER",
		Dimensions:       []string{dimClusterName, dimBrokerID},
		DefaultStatistic: "Average",
		Description:      "The mean total time in milliseconds that consumers spend on fetching data from the broker.",
	},
	"ProduceTotalTimeMsMean": {
		MonitoringLevel:  "PER_BROKER",
		Dimensions:       []string{dimClusterName, dimBrokerID},
		DefaultStatistic: "Average",
		Description:      "The mean produce time in milliseconds.",
	},
	"NetworkProcessorAvgIdlePercent": {
		MonitoringLevel:  "PER_BROKER",
		Dimensions:       []string{dimClusterName, dimBrokerID},
		DefaultStatistic: "Average",
		Description:      "The average percentage of the time the network processors are idle.",
	},
}

// availableMetrics filters the catalog to metrics published at exactly the
// given monitoring level.
func availableMetrics(level string) map[string]metricConfig {
	out := map[string]metricConfig{}
	for name, config := range clusterMetrics {
		if config.MonitoringLevel == level {
			out[name] = config
		}
	}
	return out
}
