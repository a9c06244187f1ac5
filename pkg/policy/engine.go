package policy

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/pkgdrift/pkgdrift/pkg/pkgset"
)

// Config holds the policy flags and kernel identity the engine applies.
// It is fixed at engine construction and never mutated afterwards.
type Config struct {
	// AllowUserPackages exempts packages flagged local on the installed
	// side from ordinary delete and replace processing.
	AllowUserPackages bool `json:"allow_user_packages" yaml:"allow_user_packages"`

	// PriorityToUserPackages makes a local package in a replace group
	// suppress every ordinary replace action for that architecture
	// group, and suppresses forced reinstallation of an
	// unwanted-but-desired package in the no-change case.
	PriorityToUserPackages bool `json:"priority_to_user_packages" yaml:"priority_to_user_packages"`

	// ProtectRunningKernel prevents the currently running kernel package
	// (and, in the delete path, its modules) from ever being deleted.
	ProtectRunningKernel bool `json:"protect_running_kernel" yaml:"protect_running_kernel"`

	// Kernel identifies the running kernel. Supplied at construction,
	// never recomputed per call.
	Kernel KernelIdentity `json:"kernel" yaml:"kernel"`
}

// Stats counts the policy decisions taken during one Apply call:
// packages kept back by kernel protection or user-package policy, and
// overrides resolved by the forced passes.
type Stats struct {
	ForcedDeletes   int
	ForcedInstalls  int
	KernelProtected int
	LocalKept       int
}

// Engine resolves raw diff operations into the final operation list.
// It is safe for use from multiple goroutines.
type Engine struct {
	cfg Config
	log zerolog.Logger
}

// New creates a policy engine with the given configuration.
func New(cfg Config, logger zerolog.Logger) *Engine {
	return &Engine{
		cfg: cfg,
		log: logger.With().Str("component", "policy-engine").Logger(),
	}
}

// Config returns the configuration the engine was built with.
func (e *Engine) Config() Config {
	return e.cfg
}

// Apply consumes raw operations from the diff stage, in list order, and
// produces the resolved operation list for the executor. Any error
// discards the whole in-progress result; callers must not use partial
// output.
func (e *Engine) Apply(ops []pkgset.Operation) ([]pkgset.Operation, error) {
	out, _, err := e.ApplyWithStats(ops)
	return out, err
}

// ApplyWithStats is Apply with decision counts for reporting. The stats
// are meaningless when err is non-nil.
func (e *Engine) ApplyWithStats(ops []pkgset.Operation) ([]pkgset.Operation, Stats, error) {
	var stats Stats

	for _, op := range ops {
		if err := op.Kind.Validate(); err != nil {
			return nil, stats, NewInvalidInputError("unrecognized operation kind", err)
		}
	}

	out := make([]pkgset.Operation, 0, len(ops))
	for _, op := range ops {
		resolved, err := e.resolve(op, &stats)
		if err != nil {
			return nil, stats, err
		}
		out = append(out, resolved...)
	}

	e.log.Debug().
		Int("input_ops", len(ops)).
		Int("resolved_ops", len(out)).
		Int("kernel_protected", stats.KernelProtected).
		Int("local_kept", stats.LocalKept).
		Msg("Operation list resolved")

	return out, stats, nil
}

// resolve handles a single raw operation: force-resolution first for
// the two-list kinds, then dispatch of whatever remains.
func (e *Engine) resolve(op pkgset.Operation, stats *Stats) ([]pkgset.Operation, error) {
	var out []pkgset.Operation

	cur := &op
	if op.Kind == pkgset.OperationNothing || op.Kind == pkgset.OperationReplace {
		forced, reduced := e.resolveForced(op, stats)
		out = append(out, forced...)
		cur = reduced
	}
	if cur == nil {
		return out, nil
	}

	switch cur.Kind {
	case pkgset.OperationDelete:
		out = append(out, e.filterDelete(*cur, stats)...)
	case pkgset.OperationInstall:
		out = append(out, e.filterInstall(*cur)...)
	case pkgset.OperationNothing:
		more, err := e.reconcileNothing(*cur)
		if err != nil {
			return nil, err
		}
		out = append(out, more...)
	case pkgset.OperationReplace:
		out = append(out, e.reconcileReplace(*cur, stats)...)
	default:
		// Unreachable for kinds that passed validation.
		return nil, NewInternalLogicError("dispatch reached an unhandled operation kind", nil).
			WithOperation(string(cur.Kind))
	}
	return out, nil
}

// resolveForced applies the administrator overrides of a replace or
// no-change operation before ordinary policy. Overrides are absolute:
// they bypass both user-package flags. It returns the operations forced
// out immediately and the reduced operation still to be processed, or
// nil if the forced passes consumed everything.
func (e *Engine) resolveForced(op pkgset.Operation, stats *Stats) ([]pkgset.Operation, *pkgset.Operation) {
	sources, targets := op.Sources, op.Targets
	singleTarget := len(targets) == 1

	var forced []pkgset.Operation
	srcConsumed := make([]bool, len(sources))
	tgtHandled := make([]bool, len(targets))

	// Forced deletes: a source matched by an unwanted target copy is
	// currently present but explicitly no longer wanted. Each target
	// consumes at most one source.
	for si, src := range sources {
		for ti, tgt := range targets {
			if tgtHandled[ti] || !tgt.Unwanted || !tgt.Equal(src) {
				continue
			}
			tgtHandled[ti] = true
			srcConsumed[si] = true
			if !src.Unwanted {
				forced = append(forced, pkgset.NewDelete(src))
				stats.ForcedDeletes++
			}
			break
		}
	}
	// Every unwanted target has been handled, matched or not.
	for ti, tgt := range targets {
		if tgt.Unwanted {
			tgtHandled[ti] = true
		}
	}

	// Forced installs: a mandatory target is satisfied only by an equal
	// source that is itself not unwanted; a present-but-unwanted copy
	// does not count.
	for ti, tgt := range targets {
		if tgtHandled[ti] || !tgt.Mandatory {
			continue
		}
		tgtHandled[ti] = true
		satisfied := false
		for si, src := range sources {
			if srcConsumed[si] || !src.Equal(tgt) {
				continue
			}
			srcConsumed[si] = true
			satisfied = !src.Unwanted
			break
		}
		if !satisfied {
			forced = append(forced, pkgset.NewInstall(tgt))
			stats.ForcedInstalls++
		}
	}

	if singleTarget {
		forced = combine(forced)
	}

	var restSrc, restTgt []pkgset.Package
	for si, src := range sources {
		if !srcConsumed[si] {
			restSrc = append(restSrc, src)
		}
	}
	for ti, tgt := range targets {
		if !tgtHandled[ti] {
			restTgt = append(restTgt, tgt)
		}
	}

	switch {
	case len(restSrc) > 0 && len(restTgt) > 0:
		// Keep the original kind: a no-change operation stays a
		// no-change operation over its remaining set-equal lists.
		reduced := pkgset.Operation{Kind: op.Kind, Sources: restSrc, Targets: restTgt}
		return forced, &reduced
	case len(restSrc) > 0:
		reduced := pkgset.NewDelete(restSrc...)
		return forced, &reduced
	case len(restTgt) > 0:
		reduced := pkgset.NewInstall(restTgt...)
		return forced, &reduced
	default:
		return forced, nil
	}
}

// filterDelete applies ordinary policy to a delete operation, emitting
// one single-package delete per package that survives the filters.
func (e *Engine) filterDelete(op pkgset.Operation, stats *Stats) []pkgset.Operation {
	var out []pkgset.Operation
	for _, p := range op.Sources {
		switch {
		case p.Unwanted:
			// Recorded but not actually installed.
		case e.cfg.AllowUserPackages && p.Local:
			e.log.Debug().Stringer("package", p).Msg("Keeping user package")
			stats.LocalKept++
		case e.cfg.ProtectRunningKernel && e.cfg.Kernel.protectedKernel(p, false):
			e.log.Info().Stringer("package", p).Msg("Refusing to delete running kernel")
			stats.KernelProtected++
		default:
			out = append(out, pkgset.NewDelete(p))
		}
	}
	return out
}

// filterInstall applies ordinary policy to an install operation.
// Mandatory targets were already resolved by the forced passes.
func (e *Engine) filterInstall(op pkgset.Operation) []pkgset.Operation {
	var out []pkgset.Operation
	for _, p := range op.Targets {
		if p.Unwanted {
			continue
		}
		out = append(out, pkgset.NewInstall(p))
	}
	return out
}

// reconcileNothing handles a no-change operation: the lists are
// set-equal and only flag differences remain. A target whose installed
// copy is recorded unwanted is actively reinstalled, unless local
// packages take priority.
func (e *Engine) reconcileNothing(op pkgset.Operation) ([]pkgset.Operation, error) {
	for _, tgt := range op.Targets {
		if tgt.Mandatory || tgt.Unwanted {
			return nil, NewInternalLogicError(
				fmt.Sprintf("forced flag on %s survived force-resolution", tgt), nil).
				WithOperation(string(op.Kind))
		}
	}

	var out []pkgset.Operation
	for _, tgt := range op.Targets {
		var match pkgset.Package
		matches := 0
		for _, src := range op.Sources {
			if src.Equal(tgt) {
				match = src
				matches++
			}
		}
		if matches != 1 {
			return nil, NewInternalLogicError(
				fmt.Sprintf("target %s matched %d sources in set-equal lists", tgt, matches), nil).
				WithOperation(string(op.Kind))
		}
		if match.Unwanted && !e.cfg.PriorityToUserPackages {
			out = append(out, pkgset.NewInstall(tgt))
		}
	}
	return out, nil
}

// reconcileReplace partitions a replace operation by architecture and
// reconciles each group independently. Within a group, installed
// sources without an equal target are deleted, targets without an equal
// source are installed, and a lone delete+install pair of the same name
// collapses into a replace.
func (e *Engine) reconcileReplace(op pkgset.Operation, stats *Stats) []pkgset.Operation {
	var out []pkgset.Operation
	for _, arch := range architectures(op.Sources, op.Targets) {
		sources := filterArch(op.Sources, arch)
		targets := filterArch(op.Targets, arch)

		if e.cfg.PriorityToUserPackages && anyLocal(sources) {
			e.log.Debug().Str("arch", arch).Msg("Local package present, group left untouched")
			stats.LocalKept++
			continue
		}

		var group []pkgset.Operation
		protected := false
		for _, src := range sources {
			if src.Unwanted || pkgset.ContainsEqual(targets, src) {
				continue
			}
			// Kernel-only mode: modules may be replaced in place even
			// while the kernel proper is protected.
			if e.cfg.ProtectRunningKernel && e.cfg.Kernel.protectedKernel(src, true) {
				e.log.Info().Stringer("package", src).Msg("Running kernel kept alongside its successor")
				protected = true
				stats.KernelProtected++
				continue
			}
			group = append(group, pkgset.NewDelete(src))
		}
		for _, tgt := range targets {
			if !pkgset.ContainsEqual(sources, tgt) {
				group = append(group, pkgset.NewInstall(tgt))
			}
		}

		if len(targets) == 1 && !protected {
			group = combine(group)
		}
		out = append(out, group...)
	}
	return out
}

// combine collapses a delete of one package and an install of one
// same-named package into a single replace. An upgrade runs the new
// package's pre/post scripts before the old package's post-uninstall;
// an uncombined delete-then-install does not, and the difference is
// observable. Anything else is returned unchanged.
func combine(ops []pkgset.Operation) []pkgset.Operation {
	if len(ops) != 2 {
		return ops
	}
	var del, inst *pkgset.Operation
	for i := range ops {
		switch ops[i].Kind {
		case pkgset.OperationDelete:
			del = &ops[i]
		case pkgset.OperationInstall:
			inst = &ops[i]
		}
	}
	if del == nil || inst == nil ||
		len(del.Sources) != 1 || len(inst.Targets) != 1 ||
		del.Sources[0].Name != inst.Targets[0].Name {
		return ops
	}
	return []pkgset.Operation{pkgset.NewReplace(del.Sources, inst.Targets)}
}

// architectures returns the sorted union of architectures seen on
// either side of a replace operation.
func architectures(sources, targets []pkgset.Package) []string {
	seen := make(map[string]bool)
	var arches []string
	for _, p := range sources {
		if !seen[p.Arch] {
			seen[p.Arch] = true
			arches = append(arches, p.Arch)
		}
	}
	for _, p := range targets {
		if !seen[p.Arch] {
			seen[p.Arch] = true
			arches = append(arches, p.Arch)
		}
	}
	sort.Strings(arches)
	return arches
}

func filterArch(pkgs []pkgset.Package, arch string) []pkgset.Package {
	var out []pkgset.Package
	for _, p := range pkgs {
		if p.Arch == arch {
			out = append(out, p)
		}
	}
	return out
}

func anyLocal(pkgs []pkgset.Package) bool {
	for _, p := range pkgs {
		if p.Local {
			return true
		}
	}
	return false
}
