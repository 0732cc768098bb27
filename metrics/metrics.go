package metrics

import (
	"context"
	"time"

	"contrib.go.opencensus.io/exporter/stackdriver"
	log "github.com/sirupsen/logrus"
	"go.opencensus.io/stats"
	"go.opencensus.io/stats/view"
	"go.opencensus.io/tag"

	"basket/itemset"
)

// All tracked metrics are to be added here.
// UnitType of the metric i.e. Incr / Count / Latency / Bytes must be prefixed with each metric name.
const (
	// Metrics for mining runs.
	IncrMineRunCount       = "mine_run_count"
	IncrMineRunFailedCount = "mine_run_failed_count"
	LatencyMineRun         = "mine_run_latency"
	LatencyMineLevel       = "mine_level_latency"
	CountFrequentSubsets   = "mine_level_frequent_subsets"
	CountElementsInPlay    = "mine_level_elements"
	CountTransactions      = "mine_run_transactions"

	// Metrics for the http service.
	IncrMineRequestCount    = "mine_request_count"
	IncrResultsRequestCount = "results_request_count"
	BytesResultsSize        = "results_size"
)

var (
	latencyStats = stats.Float64("basket_latency", "Latency of a mining step in milliseconds", stats.UnitMilliseconds)
	countStats   = stats.Int64("basket_count", "Counters of mining runs and requests", stats.UnitDimensionless)
	bytesStats   = stats.Float64("basket_bytes", "Size of stored objects in bytes", stats.UnitBytes)
)

var (
	// MetricNameTag Label for the metric to be updated. To be used in filter.
	MetricNameTag, _ = tag.NewKey("metric_name")
)

var (
	latencyView = &view.View{
		Name:        "basket_latency_view",
		Measure:     latencyStats,
		Description: "The distribution of mining latencies",
		// [>=0ms, >=10ms, >=100ms, >=1s, >=10s, >=1m, >=10m]
		Aggregation: view.Distribution(0, 10, 100, 1000, 10000, 60000, 600000),
		TagKeys:     []tag.Key{MetricNameTag},
	}

	countView = &view.View{
		Name:        "basket_count_view",
		Measure:     countStats,
		Description: "Sum of counters",
		Aggregation: view.Sum(),
		TagKeys:     []tag.Key{MetricNameTag},
	}

	bytesView = &view.View{
		Name:        "basket_bytes_view",
		Measure:     bytesStats,
		Description: "Distribution of stored object sizes",
		Aggregation: view.Distribution(0, 1000, 100000, 10000000, 1000000000),
		TagKeys:     []tag.Key{MetricNameTag},
	}
)

// GenericTask Resource type for custom metrics.
// Implements interface for stackdriver's monitoredresource.
// https://cloud.google.com/monitoring/api/resources#tag_generic_task
type GenericTask struct {
	ProjectID string
	Location  string
	Namespace string
	Job       string
	TaskID    string
}

// MonitoredResource returns resource type and resource labels for GenericTask
func (gt *GenericTask) MonitoredResource() (resType string, labels map[string]string) {
	labels = map[string]string{
		"project_id": gt.ProjectID,
		"location":   gt.Location,
		"namespace":  gt.Namespace,
		"job":        gt.Job,
		"task_id":    gt.TaskID,
	}
	return "generic_task", labels
}

// RegisterViews makes recorded measures visible to exporters and view.RetrieveData.
func RegisterViews() error {
	return view.Register(latencyView, countView, bytesView)
}

// InitMetrics registers views and starts the stackdriver exporter. Nothing
// is exported in development or when projectID is empty.
func InitMetrics(env, appName, projectID, projectLocation string) *stackdriver.Exporter {
	logCtx := log.WithField("Tag", "Metrics")
	if err := RegisterViews(); err != nil {
		logCtx.WithError(err).Error("Failed to register the views")
		return nil
	}
	if env == "development" || projectID == "" {
		return nil
	}
	logCtx.Info("Initializing metrics exporter ...")

	monitoredResource := GenericTask{
		ProjectID: projectID,
		Location:  projectLocation,
		Namespace: env,
		Job:       appName,
		TaskID:    "generic_task",
	}

	exporter, err := stackdriver.NewExporter(stackdriver.Options{
		ProjectID:         projectID,
		MetricPrefix:      "custom.googleapis.com/" + appName + "/",
		ReportingInterval: time.Minute,
		MonitoredResource: &monitoredResource,
		Context:           context.Background(),
		Timeout:           30 * time.Second,
	})
	if err != nil {
		logCtx.WithError(err).Error("Error creating exporter")
		return nil
	}
	view.SetReportingPeriod(time.Minute)

	if err := exporter.StartMetricsExporter(); err != nil {
		logCtx.WithError(err).Error("Error starting metric exporter")
		return nil
	}
	return exporter
}

// Shutdown exports what is left and stops exporter. A nil exporter is a no-op.
func Shutdown(exporter *stackdriver.Exporter) {
	if exporter == nil {
		return
	}
	exporter.StopMetricsExporter()
	exporter.Flush()
}

func record(metricName string, m stats.Measurement) {
	ctx, err := tag.New(context.Background(), tag.Upsert(MetricNameTag, metricName))
	if err != nil {
		log.WithError(err).WithField("metric", metricName).Error("Failed to tag metric")
		return
	}
	stats.Record(ctx, m)
}

// Increment Increment the given metric by 1.
func Increment(metricName string) {
	CountInt(metricName, 1)
}

// CountInt Reports the count value for given int Metric.
func CountInt(metricName string, count int64) {
	record(metricName, countStats.M(count))
}

// RecordLatency Records latency as a metric in 'ms'.
func RecordLatency(metricName string, latency float64) {
	record(metricName, latencyStats.M(latency))
}

// RecordBytesSize Record size in bytes of a stored object.
func RecordBytesSize(metricName string, bytes float64) {
	record(metricName, bytesStats.M(bytes))
}

// LevelReporter records the stats of every mined level.
type LevelReporter struct{}

func (LevelReporter) ReportLevel(stats itemset.LevelStats) {
	RecordLatency(LatencyMineLevel, float64(stats.Elapsed.Milliseconds()))
	CountInt(CountFrequentSubsets, int64(stats.Subsets))
	CountInt(CountElementsInPlay, int64(stats.Elements))
}
