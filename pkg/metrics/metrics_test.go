package metrics

import (
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsOptions(t *testing.T) {
	Convey("Given metrics options", t, func() {
		Convey("When creating options", func() {
			namespaceOpt := WithNamespace("test-namespace")
			subsystemOpt := WithSubsystem("test-subsystem")
			metricPrefixOpt := WithMetricPrefix("test-prefix")
			histogramBucketsOpt := WithHistogramBuckets([]float64{0.1, 0.5, 1.0})
			metricsEnabledOpt := WithMetricsEnabled(true)
			customLabelsOpt := WithCustomLabels(map[string]string{"env": "test"})

			Convey("Then they should be valid functions", func() {
				So(namespaceOpt, ShouldNotBeNil)
				So(subsystemOpt, ShouldNotBeNil)
				So(metricPrefixOpt, ShouldNotBeNil)
				So(histogramBucketsOpt, ShouldNotBeNil)
				So(metricsEnabledOpt, ShouldNotBeNil)
				So(customLabelsOpt, ShouldNotBeNil)
			})
		})
	})
}

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it should be created with dxapi defaults", func() {
				So(manager, ShouldNotBeNil)
				So(manager.namespace, ShouldEqual, "dxapi")
				So(manager.subsystem, ShouldEqual, "client")
				So(manager.enabled, ShouldBeTrue)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithPrometheusRegistry(registry),
				WithNamespace("ns"),
				WithSubsystem("sub"),
				WithMetricPrefix("pfx"),
				WithHistogramBuckets([]float64{1, 2}),
				WithCustomLabels(map[string]string{"env": "test"}),
			)
			manager.calls.WithLabelValues("record-describe", "object", "ok").Inc()

			Convey("Then series are registered under the custom names", func() {
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				names := make([]string, 0, len(families))
				for _, f := range families {
					names = append(names, f.GetName())
				}
				So(names, ShouldContain, "ns_sub_pfx_calls_total")
			})
		})

		Convey("When empty options are given", func() {
			manager := NewManager(
				WithPrometheusRegistry(prometheus.NewRegistry()),
				WithNamespace(""),
				WithHistogramBuckets(nil),
				WithCustomLabels(nil),
			)

			Convey("Then defaults are kept", func() {
				So(manager.namespace, ShouldEqual, "dxapi")
				So(len(manager.histogramBuckets), ShouldBeGreaterThan, 0)
				So(manager.customLabels, ShouldNotBeNil)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When a call is recorded", func() {
			before := testutil.ToFloat64(globalManager.calls.WithLabelValues("file-close", "object", "api_error"))
			RecordCall("file-close", "object", "api_error", 12)

			Convey("Then the counter increases by one", func() {
				after := testutil.ToFloat64(globalManager.calls.WithLabelValues("file-close", "object", "api_error"))
				So(after-before, ShouldEqual, 1)
			})
		})

		Convey("When retries and usage errors are recorded", func() {
			beforeRetry := testutil.ToFloat64(globalManager.transportRetries.WithLabelValues("app-run"))
			beforeUsage := testutil.ToFloat64(globalManager.usageErrors.WithLabelValues("alias_with_hash_id"))
			RecordTransportRetry("app-run")
			RecordTransportRetry("app-run")
			RecordUsageError("alias_with_hash_id")

			Convey("Then both counters move", func() {
				So(testutil.ToFloat64(globalManager.transportRetries.WithLabelValues("app-run"))-beforeRetry, ShouldEqual, 2)
				So(testutil.ToFloat64(globalManager.usageErrors.WithLabelValues("alias_with_hash_id"))-beforeUsage, ShouldEqual, 1)
			})
		})

		Convey("When batch gauges are updated", func() {
			UpdateBatchQueueCapacity(64)
			UpdateBatchQueueSize(3)

			Convey("Then the gauges hold the last value", func() {
				So(testutil.ToFloat64(globalManager.batchQueueCapacity), ShouldEqual, 64)
				So(testutil.ToFloat64(globalManager.batchQueueSize), ShouldEqual, 3)
			})
		})

		Convey("When stub server activity is recorded", func() {
			before := testutil.ToFloat64(globalManager.stubNonceHits)
			RecordStubNonceHit()
			RecordStubHTTPRequest("describe", "POST", "200", 1.5)
			UpdateStubObjects(7)

			Convey("Then the stub series reflect it", func() {
				So(testutil.ToFloat64(globalManager.stubNonceHits)-before, ShouldEqual, 1)
				So(testutil.ToFloat64(globalManager.stubObjects), ShouldEqual, 7)
			})
		})

		Convey("Then the custom registry is exposed", func() {
			So(GetRegistry(), ShouldEqual, customRegistry)
		})
	})
}

func TestMetricsConcurrency(t *testing.T) {
	Convey("Given concurrent recorders", t, func() {
		before := testutil.ToFloat64(globalManager.calls.WithLabelValues("system-whoami", "global", "ok"))
		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				RecordCall("system-whoami", "global", "ok", 1)
				AddBatchWorkersActive(1)
				AddBatchWorkersActive(-1)
			}()
		}
		wg.Wait()

		So(testutil.ToFloat64(globalManager.calls.WithLabelValues("system-whoami", "global", "ok"))-before, ShouldEqual, 50)
		So(testutil.ToFloat64(globalManager.batchWorkersActive), ShouldEqual, 0)
	})
}
