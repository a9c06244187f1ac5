package config

import "testing"

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte("manifest: /etc/pkgdrift/desired.yaml\n"))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if !cfg.Policy.ProtectRunningKernel {
		t.Error("Kernel protection must default to on")
	}
	if cfg.Telemetry.LogLevel != "info" {
		t.Errorf("Expected default log level info, got %q", cfg.Telemetry.LogLevel)
	}
	if len(cfg.Executor.Command) == 0 {
		t.Error("Expected a default executor command")
	}
	if cfg.Telemetry.MetricsNamespace != "pkgdrift" {
		t.Errorf("Expected default metrics namespace, got %q", cfg.Telemetry.MetricsNamespace)
	}
	if cfg.Telemetry.MetricsPath != "/metrics" {
		t.Errorf("Expected default metrics path, got %q", cfg.Telemetry.MetricsPath)
	}
}

func TestParse_Overrides(t *testing.T) {
	data := []byte(`
manifest: /srv/desired.yaml
policy:
  allow_user_packages: true
  protect_running_kernel: false
  local_vendors: ["ACME Corp"]
executor:
  command: ["rpm", "-Uvh"]
telemetry:
  log_level: debug
  log_format: json
  metrics_namespace: site
  metrics_path: /stats
`)
	cfg, err := Parse(data)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if !cfg.Policy.AllowUserPackages || cfg.Policy.ProtectRunningKernel {
		t.Errorf("Policy flags not applied: %+v", cfg.Policy)
	}
	if cfg.Executor.Command[0] != "rpm" {
		t.Errorf("Executor command not applied: %v", cfg.Executor.Command)
	}
	if cfg.Telemetry.LogFormat != "json" {
		t.Errorf("Telemetry not applied: %+v", cfg.Telemetry)
	}
	if cfg.Telemetry.MetricsNamespace != "site" || cfg.Telemetry.MetricsPath != "/stats" {
		t.Errorf("Metrics settings not applied: %+v", cfg.Telemetry)
	}
}

func TestParse_Invalid(t *testing.T) {
	cases := map[string]string{
		"missing manifest": "policy: {}\n",
		"bad log level":    "manifest: /x\ntelemetry:\n  log_level: loud\n",
		"empty command":    "manifest: /x\nexecutor:\n  command: []\n",
		"not yaml":         "{{{",
	}
	for name, data := range cases {
		if _, err := Parse([]byte(data)); err == nil {
			t.Errorf("%s: expected error, got nil", name)
		}
	}
}
