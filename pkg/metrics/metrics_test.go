package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManagerCreation(t *testing.T) {
	Convey("Given a fresh registry", t, func() {
		registry := prometheus.NewRegistry()

		Convey("When creating a manager with custom options", func() {
			m := NewManager(
				WithNamespace("test"),
				WithSubsystem("scan"),
				WithHistogramBuckets([]float64{1, 10, 100}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then the options are applied", func() {
				So(m, ShouldNotBeNil)
				So(m.namespace, ShouldEqual, "test")
				So(m.subsystem, ShouldEqual, "scan")
				So(m.histogramBuckets, ShouldResemble, []float64{1, 10, 100})
			})

			Convey("Then collectors are registered under the namespace", func() {
				m.scansTotal.WithLabelValues("initial", "success").Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				found := false
				for _, f := range families {
					if f.GetName() == "test_scan_scans_total" {
						found = true
					}
				}
				So(found, ShouldBeTrue)
			})
		})

		Convey("When empty options are passed", func() {
			m := NewManager(WithNamespace(""), WithSubsystem(""), WithHistogramBuckets(nil), WithPrometheusRegistry(registry))

			Convey("Then defaults are kept", func() {
				So(m.namespace, ShouldEqual, "draftlens")
				So(m.subsystem, ShouldEqual, "engine")
				So(len(m.histogramBuckets), ShouldBeGreaterThan, 0)
			})
		})
	})
}

func TestGlobalRecorders(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When recording scans", func() {
			before := testutil.ToFloat64(globalManager.scansTotal.WithLabelValues("rescan", "success"))
			RecordScan("rescan", "success")
			RecordScanDuration("rescan", 42)

			Convey("Then the counter advances", func() {
				So(testutil.ToFloat64(globalManager.scansTotal.WithLabelValues("rescan", "success")), ShouldEqual, before+1)
			})
		})

		Convey("When flipping gauges", func() {
			SetScanInFlight(true)
			So(testutil.ToFloat64(globalManager.scanInFlight), ShouldEqual, 1)
			SetScanInFlight(false)
			So(testutil.ToFloat64(globalManager.scanInFlight), ShouldEqual, 0)

			SetClassifierReady(true)
			So(testutil.ToFloat64(globalManager.classifierReady), ShouldEqual, 1)
			SetClassifierReady(false)
			So(testutil.ToFloat64(globalManager.classifierReady), ShouldEqual, 0)
		})

		Convey("When publishing model gaps", func() {
			UpdateModelGaps(3, 1)

			Convey("Then both directions are set", func() {
				So(testutil.ToFloat64(globalManager.modelGaps.WithLabelValues("missing_from_model")), ShouldEqual, 3)
				So(testutil.ToFloat64(globalManager.modelGaps.WithLabelValues("stale_in_model")), ShouldEqual, 1)
			})
		})

		Convey("When a capture fails", func() {
			before := testutil.ToFloat64(globalManager.captureErrors)
			RecordCapture(5, errors.New("boom"))
			RecordCapture(5, nil)

			Convey("Then only the failure is counted as an error", func() {
				So(testutil.ToFloat64(globalManager.captureErrors), ShouldEqual, before+1)
			})
		})

		Convey("When recording the remaining collectors", func() {
			So(func() {
				RecordScanRejected()
				RecordSlotsClassified("ultimate", 12)
				RecordSlotsBelowThreshold(2)
				RecordSlotsDropped(1)
				UpdatePoolSize("standard", 30)
				UpdatePickedTotal(4)
				RecordInference(12.5, 48)
				RecordClassifierInit("cpu", "success")
				RecordCaptureCacheHit()
				RecordCaptureCacheMiss()
				RecordLayoutResolution("preset")
				UpdateStatsRecords("heroes", 120)
				RecordStatsReload("success")
				UpdateQueueSize(1)
				UpdateQueueCapacity(4)
				RecordQueueEnqueueError("full")
				RecordWorkerRequest("scan", "success")
				RecordHTTPRequest("/scan", "POST", "200")
				RecordHTTPRequestDuration("/scan", "POST", "200", 30)
				RecordErrorByComponent("classifier", "inference")
				UpdateSystemMemoryUsage(1024)
				UpdateSystemGoroutineCount(10)
				RecordSystemGCPauseTime(0.5)
			}, ShouldNotPanic)
		})

		Convey("Then the custom registry is exposed", func() {
			So(GetRegistry(), ShouldNotBeNil)
		})
	})
}
