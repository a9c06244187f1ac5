package telemetry

import (
	"testing"
	"time"
)

func TestMetricsDisabledIsNoOp(t *testing.T) {
	m := NewMetrics(MetricsConfig{})

	if m.Handler() != nil {
		t.Error("Expected nil handler when metrics are disabled")
	}

	// Recording against a disabled instance must not panic.
	m.RecordRunStarted()
	m.RecordRunCompleted("succeeded", time.Second)
	m.RecordOperation("delete")
	m.RecordPackagesTouched("install", 3)
	m.RecordKernelProtections(1)
	m.RecordLocalSkips(1)
	m.RecordForcedResolutions("delete", 1)
	m.RecordError("invalid_input")
}

func TestMetricsRecording(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true, Namespace: "test"})

	m.RecordRunStarted()
	m.RecordRunCompleted("succeeded", 2*time.Second)
	m.RecordOperation("replace")
	m.RecordPackagesTouched("delete", 2)
	m.RecordKernelProtections(1)
	m.RecordLocalSkips(3)
	m.RecordForcedResolutions("install", 2)
	m.RecordError("internal_logic")

	families, err := m.registry.Gather()
	if err != nil {
		t.Fatalf("Failed to gather metrics: %v", err)
	}

	want := map[string]float64{
		"test_runs_started_total":       1,
		"test_kernel_protections_total": 1,
		"test_local_package_skips_total": 3,
		"test_forced_resolutions_total": 2,
		"test_errors_by_class_total":    1,
		"test_packages_touched_total":   2,
	}
	got := make(map[string]float64)
	for _, family := range families {
		for _, metric := range family.GetMetric() {
			if counter := metric.GetCounter(); counter != nil {
				got[family.GetName()] += counter.GetValue()
			}
		}
	}

	for name, value := range want {
		if got[name] != value {
			t.Errorf("Counter %s = %v, want %v", name, got[name], value)
		}
	}

	if m.Handler() == nil {
		t.Error("Expected a handler when metrics are enabled")
	}
}
