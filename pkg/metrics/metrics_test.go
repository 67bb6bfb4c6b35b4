package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsOptions(t *testing.T) {
	Convey("Given metrics options", t, func() {
		Convey("When creating options", func() {
			namespaceOpt := WithNamespace("test-namespace")
			subsystemOpt := WithSubsystem("test-subsystem")
			histogramBucketsOpt := WithHistogramBuckets([]float64{0.1, 0.5, 1.0})
			metricsEnabledOpt := WithMetricsEnabled(true)
			refreshIntervalOpt := WithRefreshInterval(5 * time.Second)

			Convey("Then they should be valid functions", func() {
				So(namespaceOpt, ShouldNotBeNil)
				So(subsystemOpt, ShouldNotBeNil)
				So(histogramBucketsOpt, ShouldNotBeNil)
				So(metricsEnabledOpt, ShouldNotBeNil)
				So(refreshIntervalOpt, ShouldNotBeNil)
			})
		})
	})
}

func TestManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
				So(manager.namespace, ShouldEqual, "gatekeeper")
				So(manager.subsystem, ShouldEqual, "analysis")
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("custom-ns"),
				WithSubsystem("custom-sub"),
				WithHistogramBuckets([]float64{1, 5, 10}),
				WithRefreshInterval(time.Second),
				WithPrometheusRegistry(registry),
			)

			Convey("Then options should be applied", func() {
				So(manager.namespace, ShouldEqual, "custom-ns")
				So(manager.subsystem, ShouldEqual, "custom-sub")
				So(manager.histogramBuckets, ShouldResemble, []float64{1, 5, 10})
				So(manager.refreshInterval, ShouldEqual, time.Second)
			})
		})

		Convey("When empty option values are supplied", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace(""),
				WithSubsystem(""),
				WithRefreshInterval(0),
				WithPrometheusRegistry(registry),
			)

			Convey("Then defaults are preserved", func() {
				So(manager.namespace, ShouldEqual, "gatekeeper")
				So(manager.subsystem, ShouldEqual, "analysis")
				So(manager.refreshInterval, ShouldEqual, defaultRefreshInterval)
			})
		})
	})
}

func TestPackageLevelRecorders(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When recording pipeline events", func() {
			// These must not panic; values land on the custom registry.
			So(func() {
				RecordTrackAnalyzed()
				RecordDecodeFailure()
				RecordExtractionLatency(12.5)
				RecordProfileBuilt()
				RecordBuildFailure("insufficient_data")
				RecordEvaluation()
				RecordEvaluationLatency(4.2)
				RecordAlert("WARNING")
				UpdateProfilesLive(3)
				RecordProfileExpired()
				RecordProfileEvicted()
				UpdateWorkerCount(8)
				RecordBatchAbort()
				RecordBatchDuration(120)
				RecordHTTPRequest("profiles", "POST", "201")
				RecordHTTPRequestDuration("profiles", "POST", "201", 30)
				UpdateSystemMemoryUsage(1 << 20)
				UpdateSystemGoroutineCount(42)
			}, ShouldNotPanic)
		})

		Convey("Then the custom registry is exposed", func() {
			So(GetRegistry(), ShouldNotBeNil)
		})
	})
}
