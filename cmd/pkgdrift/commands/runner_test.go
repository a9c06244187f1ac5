package commands

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/pkgdrift/pkgdrift/pkg/diff"
	"github.com/pkgdrift/pkgdrift/pkg/pkgset"
	"github.com/pkgdrift/pkgdrift/pkg/policy"
	"github.com/pkgdrift/pkgdrift/pkg/stores"
)

func TestSummarizeCountsPackages(t *testing.T) {
	old := pkgset.Package{Name: "tzdata", Version: "2025a", Release: "1", Arch: "noarch"}
	update := pkgset.Package{Name: "tzdata", Version: "2025b", Release: "1", Arch: "noarch"}
	p := &plan{
		Operations: []pkgset.Operation{
			pkgset.NewDelete(
				pkgset.Package{Name: "telnet", Version: "0.17", Release: "39", Arch: "x86_64"},
				pkgset.Package{Name: "rsh", Version: "0.17", Release: "40", Arch: "x86_64"},
			),
			pkgset.NewInstall(pkgset.Package{Name: "jq", Version: "1.7", Release: "1", Arch: "x86_64"}),
			pkgset.NewReplace([]pkgset.Package{old}, []pkgset.Package{update}),
		},
		Unchanged: 40,
	}

	got := summarize(p)
	want := stores.RunResult{Deletes: 2, Installs: 1, Replaces: 1, Unchanged: 40}
	if got != want {
		t.Fatalf("summarize = %+v, want %+v", got, want)
	}
}

// An in-sync package produces a no-change group that the engine
// resolves into nothing at all; the summary must still count it.
func TestUnchangedCountedAcrossResolution(t *testing.T) {
	bash := pkgset.Package{Name: "bash", Version: "5.2", Release: "1", Arch: "x86_64"}
	installed := []pkgset.Package{bash}
	desired := []pkgset.Package{bash}

	raw := diff.Compute(installed, desired)
	engine := policy.New(policy.Config{}, zerolog.Nop())
	ops, stats, err := engine.ApplyWithStats(raw)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(ops) != 0 {
		t.Fatalf("Expected no resolved operations, got %v", ops)
	}

	p := &plan{Operations: ops, Unchanged: countUnchanged(raw), Stats: stats}
	result := summarize(p)
	if result.Unchanged != 1 {
		t.Fatalf("Expected 1 unchanged package group, got %d", result.Unchanged)
	}
	if result.Deletes != 0 || result.Installs != 0 || result.Replaces != 0 {
		t.Fatalf("Expected no changes, got %+v", result)
	}
}

func TestErrorClass(t *testing.T) {
	if got := errorClass(policy.NewInvalidInputError("bad", nil)); got != "invalid_input" {
		t.Errorf("Expected invalid_input, got %q", got)
	}
	if got := errorClass(policy.NewInternalLogicError("bug", nil)); got != "internal_logic" {
		t.Errorf("Expected internal_logic, got %q", got)
	}
	if got := errorClass(errors.New("exec: not found")); got != "runtime" {
		t.Errorf("Expected runtime, got %q", got)
	}
}
