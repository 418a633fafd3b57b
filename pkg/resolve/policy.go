package resolve

import "github.com/matzehuels/reqsolve/pkg/req"

// Upgrade strategies. With no installed-package database to consult,
// the strategies currently select identical behavior; the distinction
// is preserved so resolved output records the requested intent.
const (
	UpgradeToSatisfyOnly = "to-satisfy-only"
	UpgradeEager         = "eager"
)

// Policy is the effective resolution policy of one run, derived from
// the option flags and the aggregated requirements.
type Policy struct {
	// RequireHashes enables hash-checking mode: every requirement must
	// carry hash options and every fetched file must match one.
	RequireHashes bool

	UpgradeStrategy      string
	CheckSupportedWheels bool
	IgnoreRequiresPython bool
	IgnoreInstalled      bool
	ForceReinstall       bool
}

// DerivePolicy computes the run policy.
//
// Hash-checking is monotonic: the flag or any single requirement with
// hash options switches the whole run into hash mode, and nothing
// switches it back off. The upgrade strategy stays at to-satisfy-only
// unless upgrades were requested. Wheel support checks apply only when
// resolving for the running machine, not for a --target directory.
func DerivePolicy(reqs []req.Requirement, opts *Options) Policy {
	p := Policy{
		RequireHashes:        opts.RequireHashes,
		UpgradeStrategy:      UpgradeToSatisfyOnly,
		CheckSupportedWheels: opts.Target == "",
		IgnoreRequiresPython: opts.IgnoreRequiresPython,
		IgnoreInstalled:      opts.IgnoreInstalled,
		ForceReinstall:       opts.ForceReinstall,
	}
	for _, r := range reqs {
		if r.HasHashOptions() {
			p.RequireHashes = true
			break
		}
	}
	if opts.Upgrade {
		p.UpgradeStrategy = opts.UpgradeStrategy
		if p.UpgradeStrategy == "" {
			p.UpgradeStrategy = UpgradeToSatisfyOnly
		}
	}
	return p
}
