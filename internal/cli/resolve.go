package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/reqsolve/pkg/buildinfo"
	"github.com/matzehuels/reqsolve/pkg/cache"
	"github.com/matzehuels/reqsolve/pkg/report"
	"github.com/matzehuels/reqsolve/pkg/req"
	"github.com/matzehuels/reqsolve/pkg/resolve"
)

// resolveOpts holds the command-line flags shared by the resolve and
// graph commands.
type resolveOpts struct {
	constraints  []string // -c constraint files
	requirements []string // -r requirement files
	editables    []string // -e editable source trees

	indexURL  string
	findLinks []string
	noIndex   bool

	requireHashes        bool
	ignoreRequiresPython bool
	ignoreInstalled      bool
	forceReinstall       bool
	upgrade              bool
	upgradeStrategy      string
	usePEP517            bool
	isolated             bool
	target               string
	noClean              bool
	refresh              bool
	noCache              bool

	output string // output file path (stdout if empty)
}

// registerFlags wires the shared resolution flags onto cmd.
func (o *resolveOpts) registerFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringArrayVarP(&o.constraints, "constraint", "c", nil, "constrain versions using the given constraints file (repeatable)")
	f.StringArrayVarP(&o.requirements, "requirement", "r", nil, "resolve from the given requirements file (repeatable)")
	f.StringArrayVarP(&o.editables, "editable", "e", nil, "resolve a local source tree in editable mode (repeatable)")

	f.StringVarP(&o.indexURL, "index-url", "i", "", "base URL of the package index")
	f.StringArrayVarP(&o.findLinks, "find-links", "f", nil, "look for distributions in the given directory or URL (repeatable)")
	f.BoolVar(&o.noIndex, "no-index", false, "ignore the package index, only use --find-links")

	f.BoolVar(&o.requireHashes, "require-hashes", false, "require a hash for every requirement")
	f.BoolVar(&o.ignoreRequiresPython, "ignore-requires-python", false, "ignore requires-python restrictions")
	f.BoolVar(&o.ignoreInstalled, "ignore-installed", false, "ignore any installed packages")
	f.BoolVar(&o.forceReinstall, "force-reinstall", false, "reinstall packages even when up to date")
	f.BoolVarP(&o.upgrade, "upgrade", "U", false, "upgrade packages to the newest available version")
	f.StringVar(&o.upgradeStrategy, "upgrade-strategy", resolve.UpgradeToSatisfyOnly, "how upgrades cascade to dependencies (to-satisfy-only, eager)")
	f.BoolVar(&o.usePEP517, "use-pep517", false, "force PEP 517 build isolation")
	f.BoolVar(&o.isolated, "isolated", false, "run isolated from user configuration")
	f.StringVarP(&o.target, "target", "t", "", "resolve for installation into the given directory")
	f.BoolVar(&o.noClean, "no-clean", false, "keep the build directory after the run")
	f.BoolVar(&o.refresh, "refresh", false, "bypass cached index metadata")
	f.BoolVar(&o.noCache, "no-cache", false, "disable the metadata cache for this run")

	f.StringVarP(&o.output, "output", "o", "", "output file (stdout if empty)")
}

// resolveOptions converts the flags into resolver options, filling
// defaults from the user configuration.
func (c *CLI) resolveOptions(o *resolveOpts) *resolve.Options {
	indexURL := o.indexURL
	if indexURL == "" {
		indexURL = c.Config.Index.URL
	}
	findLinks := append([]string(nil), c.Config.Index.FindLinks...)
	findLinks = append(findLinks, o.findLinks...)
	backend := c.cacheBackend()
	if o.noCache {
		backend = cache.NewNullCache()
	}
	return &resolve.Options{
		Version:              buildinfo.Version,
		IndexURL:             indexURL,
		FindLinks:            findLinks,
		NoIndex:              o.noIndex,
		RequireHashes:        o.requireHashes,
		IgnoreRequiresPython: o.ignoreRequiresPython,
		IgnoreInstalled:      o.ignoreInstalled,
		ForceReinstall:       o.forceReinstall,
		Upgrade:              o.upgrade,
		UpgradeStrategy:      o.upgradeStrategy,
		UsePEP517:            o.usePEP517,
		Isolated:             o.isolated,
		PythonVersion:        c.Config.Index.PythonVersion,
		Target:               o.target,
		NoClean:              o.noClean,
		Refresh:              o.refresh,
		Cache:                backend,
		Logger:               c.Logger,
	}
}

// resolveCommand creates the resolve command.
func (c *CLI) resolveCommand() *cobra.Command {
	opts := &resolveOpts{}

	cmd := &cobra.Command{
		Use:   "resolve [requirement...]",
		Short: "Pin requirements to concrete distribution files",
		Long: `Resolve requirements the way an installer would, without installing.

Requirements come from positional specifiers, requirement files (-r),
editable source trees (-e), and constraint files (-c). The resolved set
is printed as a sentinel-delimited block listing the exact distribution
file chosen for every requirement and where each one came from.

Examples:
  reqsolve resolve flask
  reqsolve resolve "requests>=2.28,<3" click
  reqsolve resolve -r requirements.txt -c constraints.txt
  reqsolve resolve --no-index -f ./wheelhouse flask`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runResolve(cmd.Context(), opts, args)
		},
	}

	opts.registerFlags(cmd)
	return cmd
}

func (c *CLI) runResolve(ctx context.Context, opts *resolveOpts, args []string) error {
	set, err := c.resolveSet(ctx, "resolve", opts, args)
	if err != nil {
		return err
	}

	out := os.Stdout
	if opts.output != "" {
		f, err := os.Create(opts.output)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		out = f
	}
	if err := report.Write(out, set); err != nil {
		return err
	}
	if opts.output != "" {
		printFile(opts.output)
	}
	return nil
}

// resolveSet runs the full pipeline: aggregate the requirement sources,
// derive the run policy, and resolve. command names the invoking
// subcommand for empty-input messages.
func (c *CLI) resolveSet(ctx context.Context, command string, opts *resolveOpts, args []string) (*resolve.ResolvedSet, error) {
	ropts := c.resolveOptions(opts)
	defer func() {
		if ropts.Cache != nil {
			_ = ropts.Cache.Close()
		}
	}()

	run, err := resolve.NewOrchestrator(ropts).Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer run.Close()

	pctx := req.ParseContext{Isolated: opts.isolated, UsePEP517: opts.usePEP517}
	agg := &req.Aggregator{
		Parser:    run.LineParser(),
		Context:   pctx,
		Command:   command,
		FindLinks: ropts.FindLinks,
	}
	reqs, err := agg.Aggregate(req.Inputs{
		Args:             args,
		ConstraintFiles:  opts.constraints,
		Editables:        opts.editables,
		RequirementFiles: opts.requirements,
	})
	if err != nil {
		return nil, err
	}
	c.Logger.Debug("aggregated requirements", "count", len(reqs))

	policy := resolve.DerivePolicy(reqs, ropts)

	prog := newProgress(c.Logger)
	spin := newSpinner(ctx, "Resolving requirements...")
	spin.Start()
	set, err := run.Resolve(ctx, reqs, policy)
	spin.Stop()
	if err != nil {
		if spin.Cancelled() {
			printWarning("resolution interrupted")
		}
		return nil, err
	}
	prog.done(fmt.Sprintf("Resolved %d requirements", set.Len()))
	return set, nil
}
