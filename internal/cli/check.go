package cli

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/olamyy/wmt/pkg/check"
	"github.com/olamyy/wmt/pkg/deps"
	"github.com/olamyy/wmt/pkg/deps/languages"
	"github.com/olamyy/wmt/pkg/errors"
	"github.com/olamyy/wmt/pkg/observability"
	"github.com/olamyy/wmt/pkg/report"
	"github.com/olamyy/wmt/pkg/source"
)

// checkOptions holds the flags of the check command.
type checkOptions struct {
	question      string
	format        string
	ecosystem     string
	output        string
	save          string
	strictUnknown bool
	refresh       bool
	includeDev    bool
}

// checkCommand creates the check command.
func (c *CLI) checkCommand() *cobra.Command {
	var opts checkOptions

	cmd := &cobra.Command{
		Use:   "check <dependency>...",
		Short: "Run the well-maintained test for one or more dependencies",
		Long: `Run the well-maintained test for one or more dependencies.

A dependency is any of:
  serde                          a package in the default ecosystem (cargo)
  npm:express@4                  a package in a named ecosystem
  pkg:pypi/requests@2.31.0       a package URL
  https://github.com/o/r         a repository
  ./Cargo.toml                   every dependency of a manifest
                                 (Cargo.toml, package.json, requirements*.txt, pyproject.toml)

Exit codes: 0 pass, 1 a criterion failed, 2 some criteria are unknown
(with --strict-unknown), 3 usage error, 130 interrupted.`,
		Example: `  wmt check serde tokio
  wmt check -q license npm:left-pad
  wmt check ./Cargo.toml --format yaml -o report.yaml`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return errors.New(errors.ErrCodeInvalidInput, "check needs at least one dependency")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runCheck(cmd.Context(), args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.question, "question", "q", "", "check a single criterion (id or number, see 'wmt questions')")
	cmd.Flags().StringVarP(&opts.format, "format", "f", string(report.FormatTable), "output format: table, json or yaml")
	cmd.Flags().StringVarP(&opts.ecosystem, "ecosystem", "e", "", "ecosystem of bare package names (default from config, else cargo)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "also write the report to a .json or .yaml file")
	cmd.Flags().StringVar(&opts.save, "save", "", "store the run in MongoDB (URI, or \"config\" for store.mongo_uri)")
	cmd.Flags().BoolVar(&opts.strictUnknown, "strict-unknown", false, "exit with code 2 when any criterion is unknown")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "bypass the HTTP response cache")
	cmd.Flags().BoolVar(&opts.includeDev, "include-dev", false, "include dev dependencies of manifests")

	return cmd
}

func (c *CLI) runCheck(ctx context.Context, args []string, opts checkOptions) error {
	logger := loggerFromContext(ctx)

	format, err := report.ParseFormat(opts.format)
	if err != nil {
		return err
	}
	if c.json {
		format = report.FormatJSON
	}

	cfg, err := c.config()
	if err != nil {
		return err
	}
	eco, err := cfg.Ecosystem()
	if err != nil {
		return err
	}
	if opts.ecosystem != "" {
		if eco, err = source.ParseEcosystem(opts.ecosystem); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidEcosystem, err, "--ecosystem")
		}
	}

	ids, err := resolveArgs(args, eco, opts.includeDev, logger)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		printInfo(c.out, "No dependencies to check")
		return nil
	}

	runner, cleanup := c.newRunner(ctx, cfg, opts.refresh)
	defer cleanup()

	mode := check.AllCriteria()
	if opts.question != "" {
		mode = check.SingleCriterion(opts.question)
	}

	var spinner *Spinner
	if format == report.FormatTable && logger.GetLevel() > log.DebugLevel && isatty.IsTerminal(os.Stderr.Fd()) {
		spinner = newSpinner(ctx, os.Stderr, len(ids))
		observability.SetCheckHooks(spinner)
		defer observability.SetCheckHooks(observability.NoopCheckHooks{})
		spinner.Start()
		defer spinner.Stop()
	}

	prog := newProgress(logger)
	res, err := runner.Run(ctx, ids, mode)
	if spinner != nil {
		spinner.Stop()
	}
	if err != nil {
		return err
	}
	prog.done("Checked dependencies", "packages", len(ids), "outcome", res.Summary.Outcome)

	if err := c.writeResult(res, format, logger.GetLevel() <= log.DebugLevel); err != nil {
		return err
	}
	if opts.output != "" {
		if err := report.Export(res, opts.output); err != nil {
			return err
		}
		logger.Info("Report written", "path", opts.output)
	}
	if opts.save != "" {
		if err := saveRun(context.WithoutCancel(ctx), res, opts.save, cfg.Store.MongoURI); err != nil {
			return err
		}
		logger.Info("Run saved", "id", res.ID)
	}

	if res.Cancelled {
		return context.Canceled
	}
	return outcomeError(res.Summary.Outcome, opts.strictUnknown)
}

func (c *CLI) writeResult(res *check.RunResult, format report.Format, verbose bool) error {
	if format == report.FormatTable {
		renderTable(c.out, res, verbose)
		return nil
	}
	return report.Write(c.out, res, format)
}

func saveRun(ctx context.Context, res *check.RunResult, uri, configured string) error {
	if uri == "config" {
		uri = configured
	}
	if uri == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "--save config needs store.mongo_uri in the config file")
	}
	store, err := report.ConnectMongo(ctx, uri)
	if err != nil {
		return err
	}
	defer store.Close(ctx)
	return store.Save(ctx, res)
}

// resolveArgs turns command line dependencies into identities. Manifest
// paths expand to their dependencies. Duplicates are dropped, keeping the
// first occurrence.
func resolveArgs(args []string, eco source.Ecosystem, includeDev bool, logger *log.Logger) ([]source.Identity, error) {
	var ids []source.Identity
	seen := make(map[string]bool)
	add := func(id source.Identity) {
		key := id.Key() + "|" + id.RepoURL
		if !seen[key] {
			seen[key] = true
			ids = append(ids, id)
		}
	}

	for _, arg := range args {
		if isManifestArg(arg) {
			result, err := languages.ParseManifest(arg)
			if err != nil {
				return nil, err
			}
			found := result.Identities(includeDev)
			logger.Debug("manifest parsed", "path", arg, "type", result.Type, "dependencies", len(found))
			for _, id := range found {
				add(id)
			}
			continue
		}

		id, err := deps.ParseIdentity(arg, eco)
		if err != nil {
			return nil, err
		}
		add(id)
	}
	return ids, nil
}

// isManifestArg reports whether arg names a manifest file. A supported
// manifest name is treated as a path even if the file is missing, so the
// user gets a file error instead of a package lookup.
func isManifestArg(arg string) bool {
	if strings.HasPrefix(arg, "pkg:") || strings.Contains(arg, "://") {
		return false
	}
	if _, ok := languages.Ecosystem(filepath.Base(arg)); ok {
		return true
	}
	info, err := os.Stat(arg)
	return err == nil && !info.IsDir()
}
