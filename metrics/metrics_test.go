package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opencensus.io/stats/view"

	"basket/itemset"
)

func sumFor(t *testing.T, metricName string) float64 {
	rows, err := view.RetrieveData(countView.Name)
	require.Nil(t, err)
	for _, row := range rows {
		for _, tg := range row.Tags {
			if tg.Key == MetricNameTag && tg.Value == metricName {
				return row.Data.(*view.SumData).Value
			}
		}
	}
	return 0
}

func TestInitMetricsInDevelopment(t *testing.T) {
	exporter := InitMetrics("development", "basket_test", "some-project", "us-central1")
	assert.Nil(t, exporter)
	assert.NotPanics(t, func() { Shutdown(exporter) })
}

func TestLevelReporter(t *testing.T) {
	require.Nil(t, RegisterViews())
	before := sumFor(t, CountFrequentSubsets)
	beforeElements := sumFor(t, CountElementsInPlay)

	LevelReporter{}.ReportLevel(itemset.LevelStats{Size: 2, Elapsed: 5 * time.Millisecond, Elements: 3, Subsets: 4})
	LevelReporter{}.ReportLevel(itemset.LevelStats{Size: 3, Elapsed: time.Millisecond, Elements: 3, Subsets: 1})

	assert.Equal(t, before+5, sumFor(t, CountFrequentSubsets))
	assert.Equal(t, beforeElements+6, sumFor(t, CountElementsInPlay))
}

func TestIncrement(t *testing.T) {
	require.Nil(t, RegisterViews())
	before := sumFor(t, IncrMineRunCount)
	Increment(IncrMineRunCount)
	Increment(IncrMineRunCount)
	assert.Equal(t, before+2, sumFor(t, IncrMineRunCount))
}
