// Command turbocop is the CLI entry point: it wires the config loader,
// cop registry, file filter, orchestrator, parallel driver and result
// cache into one run and applies the exit-code policy. A single
// urfave/cli/v2 App with a loadConfigWithOverrides-style config+flag
// merge and cleanup-on-exit bookkeeping, exposing the reference
// analyzer's single "lint [options] [paths...]" surface rather than a
// subcommand tree.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/cespare/xxhash/v2"
	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/turbocop/internal/config"
	"github.com/standardbeagle/turbocop/internal/cop"
	"github.com/standardbeagle/turbocop/internal/cops"
	"github.com/standardbeagle/turbocop/internal/driver"
	"github.com/standardbeagle/turbocop/internal/filefilter"
	"github.com/standardbeagle/turbocop/internal/orchestrator"
	"github.com/standardbeagle/turbocop/internal/resultcache"
	"github.com/standardbeagle/turbocop/internal/version"
	"github.com/standardbeagle/turbocop/internal/watch"
)

// exitCodeError lets an Action communicate the process's final exit
// code (0/1/2, spec §7) without resorting to a package-level variable:
// app.Run returns it as a plain error and main translates it back.
type exitCodeError struct{ code int }

func (e *exitCodeError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

func main() {
	app := buildApp()
	if err := app.Run(os.Args); err != nil {
		var ec *exitCodeError
		if errors.As(err, &ec) {
			os.Exit(ec.code)
		}
		fmt.Fprintf(os.Stderr, "turbocop: %v\n", err)
		os.Exit(2)
	}
}

func buildApp() *cli.App {
	return &cli.App{
		Name:                   "turbocop",
		Usage:                  "A Ruby static code analyzer and formatter",
		Version:                version.Version,
		UseShortOptionHandling: true,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "Config file path", Value: ".rubocop.yml"},
			&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Usage: "Output format: text, json", Value: "text"},
			&cli.StringSliceFlag{Name: "only", Usage: "Run only the given cops (comma-separated, repeatable)"},
			&cli.StringSliceFlag{Name: "except", Usage: "Run every cop except the given ones (comma-separated, repeatable)"},
			&cli.BoolFlag{Name: "rubocop-only", Usage: "Print reference cops this engine does not yet implement, and exit"},
			&cli.StringFlag{Name: "stdin", Usage: "Read source from stdin, using PATH for display and config matching"},
			&cli.BoolFlag{Name: "autocorrect", Aliases: []string{"a"}, Usage: "Apply safe autocorrections"},
			&cli.BoolFlag{Name: "autocorrect-all", Aliases: []string{"A"}, Usage: "Apply every autocorrection, including unsafe ones"},
			&cli.BoolFlag{Name: "ignore-disable-comments", Usage: "Ignore inline disable/enable directives"},
			&cli.BoolFlag{Name: "cache", Usage: "Use the result cache", Value: true},
			&cli.BoolFlag{Name: "cache-clear", Usage: "Clear the result cache and exit"},
			&cli.StringFlag{Name: "fail-level", Usage: "Minimum severity that causes a non-zero exit: refactor, convention, warning, error, fatal, none", Value: "convention"},
			&cli.BoolFlag{Name: "fail-fast", Usage: "Stop after the first file with a qualifying diagnostic"},
			&cli.BoolFlag{Name: "force-exclusion", Usage: "Apply AllCops.Exclude even to explicitly-named files"},
			&cli.BoolFlag{Name: "list-target-files", Usage: "Print the files that would be analyzed, and exit"},
			&cli.BoolFlag{Name: "list-cops", Usage: "Print every registered cop id, and exit"},
			&cli.BoolFlag{Name: "watch", Usage: "Re-lint on save instead of exiting after one run"},
		},
		Action: runLint,
	}
}

func runLint(c *cli.Context) error {
	registry := cop.NewRegistry()
	cops.RegisterAll(registry)

	if c.Bool("list-cops") {
		names := append([]string{}, registry.Names()...)
		sort.Strings(names)
		for _, n := range names {
			fmt.Println(n)
		}
		return nil
	}
	if c.Bool("rubocop-only") {
		for _, n := range cops.NotYetImplemented(registry) {
			fmt.Println(n)
		}
		return nil
	}

	if c.Bool("cache-clear") {
		dir, err := resultcache.DefaultDir()
		if err != nil {
			return fmt.Errorf("resolve cache dir: %w", err)
		}
		if err := resultcache.New(dir).Clear(); err != nil {
			return fmt.Errorf("clear cache: %w", err)
		}
		return nil
	}

	resolved, err := loadResolvedConfig(registry, c.String("config"), c.IsSet("config"))
	if err != nil {
		return &exitCodeError{code: 2}
	}
	if err := applyOnlyExcept(resolved, registry, splitCommaLists(c.StringSlice("only")), splitCommaLists(c.StringSlice("except"))); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return &exitCodeError{code: 2}
	}

	failLevel, ok := parseFailLevel(c.String("fail-level"))
	if !ok {
		fmt.Fprintf(os.Stderr, "turbocop: unknown --fail-level %q\n", c.String("fail-level"))
		return &exitCodeError{code: 2}
	}

	mode := orchestrator.ModeOff
	switch {
	case c.Bool("autocorrect-all"):
		mode = orchestrator.ModeAll
	case c.Bool("autocorrect"):
		mode = orchestrator.ModeSafe
	}

	filter := filefilter.New(resolved.AllCops.Include, resolved.AllCops.Exclude)
	orch := orchestrator.New(registry, resolved, filter)

	procOpts := orchestrator.Options{Autocorrect: mode, IgnoreDisableComments: c.Bool("ignore-disable-comments")}

	if stdinPath := c.String("stdin"); stdinPath != "" {
		return runStdin(orch, stdinPath, procOpts, c.String("format"))
	}

	paths, err := discoverTargetFiles(c.Args().Slice(), filter, c.Bool("force-exclusion"))
	if err != nil {
		return fmt.Errorf("discover target files: %w", err)
	}

	if c.Bool("list-target-files") {
		for _, p := range paths {
			fmt.Println(p)
		}
		return nil
	}

	drv := driver.New(orch, driver.Options{FailFast: c.Bool("fail-fast"), FailLevel: failLevel})

	var cache *resultcache.Cache
	if c.Bool("cache") && mode == orchestrator.ModeOff {
		dir, err := resultcache.DefaultDir()
		if err == nil {
			cache = resultcache.New(dir)
		}
	}
	configDigest := digest(resolved)
	flagsDigest := digest(flagsSnapshot{
		Format:        c.String("format"),
		Only:          splitCommaLists(c.StringSlice("only")),
		Except:        splitCommaLists(c.StringSlice("except")),
		FailLevel:     string(failLevel),
		IgnoreDisable: c.Bool("ignore-disable-comments"),
		Autocorrect:   string(mode),
	})

	if c.Bool("watch") {
		root := "."
		if c.Args().Len() > 0 {
			root = c.Args().First()
		}
		return runWatch(root, filter, drv, cache, procOpts, configDigest, flagsDigest, c.String("format"))
	}

	results, failFastHit := runWithCache(context.Background(), drv, cache, paths, procOpts, configDigest, flagsDigest)

	writeErr := writeCorrections(results)

	switch c.String("format") {
	case "json":
		printJSON(results)
	default:
		printText(results)
	}

	if writeErr != nil {
		fmt.Fprintln(os.Stderr, writeErr)
		return &exitCodeError{code: 2}
	}
	if failFastHit {
		return &exitCodeError{code: 1}
	}
	if anyQualifies(results, failLevel) {
		return &exitCodeError{code: 1}
	}
	return nil
}

// runWatch lints the whole tree once, then re-lints just the files a
// save event touches until interrupted. Pairs internal/watch's
// debounced fsnotify.Watcher with a re-run callback; unlike a one-shot
// run, a watch session never fails
// the process on a qualifying diagnostic — it only reports.
func runWatch(root string, filter *filefilter.Filter, drv *driver.Driver, cache *resultcache.Cache, procOpts orchestrator.Options, configDigest, flagsDigest, format string) error {
	initial, err := discoverTargetFiles([]string{root}, filter, false)
	if err != nil {
		return fmt.Errorf("discover target files: %w", err)
	}
	reportAndCorrect(drv, cache, initial, procOpts, configDigest, flagsDigest, format)

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w, err := watch.New(root, filter, 0, func(batch watch.Batch) {
		var changed []string
		for _, p := range batch.Changed {
			if isRubySourceFile(p) && filter.InScope(p) {
				changed = append(changed, p)
			}
		}
		if len(changed) == 0 {
			return
		}
		sort.Strings(changed)
		reportAndCorrect(drv, cache, changed, procOpts, configDigest, flagsDigest, format)
	})
	if err != nil {
		return fmt.Errorf("start watch: %w", err)
	}
	w.Start()
	<-sigCtx.Done()
	return w.Close()
}

func reportAndCorrect(drv *driver.Driver, cache *resultcache.Cache, paths []string, procOpts orchestrator.Options, configDigest, flagsDigest, format string) {
	results, _ := runWithCache(context.Background(), drv, cache, paths, procOpts, configDigest, flagsDigest)
	if err := writeCorrections(results); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	if format == "json" {
		printJSON(results)
	} else {
		printText(results)
	}
}

// flagsSnapshot is the subset of CLI flags that change a file's
// analysis output, hashed into the result cache key alongside the
// resolved config digest (spec §4.9).
type flagsSnapshot struct {
	Format        string
	Only          []string
	Except        []string
	FailLevel     string
	IgnoreDisable bool
	Autocorrect   string
}

func digest(v interface{}) string {
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	sum := xxhash.Sum64(data)
	return fmt.Sprintf("%x", sum)
}

// loadResolvedConfig seeds the loader with every built-in cop's default
// configuration, then overlays the project's .rubocop.yml (and its
// inherit_from/inherit_gem chain) if one is present. A missing config
// file is only an error when the path was explicitly requested via
// --config; the default path simply falls back to built-in defaults,
// mirroring the reference analyzer running with no project config at
// all.
func loadResolvedConfig(registry *cop.Registry, path string, explicit bool) (*config.ResolvedConfig, error) {
	defaults := cops.BuiltinDefaults(registry)

	if _, err := os.Stat(path); err != nil {
		if explicit {
			return nil, fmt.Errorf("config %s: %w", path, err)
		}
		resolved := &config.ResolvedConfig{Cops: defaults}
		if err := config.NewValidator().ValidateAndSetDefaults(resolved); err != nil {
			return nil, err
		}
		return resolved, nil
	}

	loader := config.NewLoader(defaults)
	resolved, err := loader.Load(path)
	if err != nil {
		return nil, err
	}
	if err := config.NewValidator().ValidateAndSetDefaults(resolved); err != nil {
		return nil, err
	}
	return resolved, nil
}

// applyOnlyExcept narrows resolved.Cops to honor --only/--except,
// exactly as ResolvedConfig.IsEnabled already expects: everything not
// named by --only is force-disabled, and everything named by --except
// is force-disabled regardless of its configured Enabled value. Unknown
// cop names are rejected with a Suggest-powered hint rather than
// silently ignored.
func applyOnlyExcept(resolved *config.ResolvedConfig, registry *cop.Registry, only, except []string) error {
	if err := checkKnownCopNames(registry, only); err != nil {
		return err
	}
	if err := checkKnownCopNames(registry, except); err != nil {
		return err
	}

	if len(only) > 0 {
		allow := make(map[string]bool, len(only))
		for _, name := range only {
			allow[name] = true
		}
		for name, cc := range resolved.Cops {
			if !allow[name] {
				cc.Enabled = config.EnabledFalse
				resolved.Cops[name] = cc
			}
		}
		for _, name := range only {
			cc := resolved.CopConfigFor(name)
			cc.Enabled = config.EnabledTrue
			resolved.Cops[name] = cc
		}
	}

	for _, name := range except {
		cc := resolved.CopConfigFor(name)
		cc.Enabled = config.EnabledFalse
		resolved.Cops[name] = cc
	}
	return nil
}

// splitCommaLists flattens a StringSliceFlag's values (one entry per
// repeated --only/--except use) against the reference analyzer's
// comma-separated-list convention, so "--only A,B --only C" and
// "--only A --only B --only C" behave identically.
func splitCommaLists(vals []string) []string {
	var out []string
	for _, v := range vals {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func checkKnownCopNames(registry *cop.Registry, names []string) error {
	for _, name := range names {
		if _, ok := registry.Lookup(name); !ok {
			suggestions := registry.Suggest(name, 3)
			if len(suggestions) > 0 {
				return fmt.Errorf("turbocop: unknown cop %q (did you mean %s?)", name, strings.Join(suggestions, ", "))
			}
			return fmt.Errorf("turbocop: unknown cop %q", name)
		}
	}
	return nil
}

// severityOrder ranks fail-level floors from least to most severe, plus
// the internal-only "none" floor (SPEC_FULL.md §5) which never
// qualifies a run for a non-zero exit.
var severityOrder = map[cop.Severity]int{
	"none":                 -1,
	cop.SeverityRefactor:   0,
	cop.SeverityConvention: 1,
	cop.SeverityWarning:    2,
	cop.SeverityError:      3,
	cop.SeverityFatal:      4,
}

func parseFailLevel(raw string) (cop.Severity, bool) {
	sev := cop.Severity(raw)
	if _, ok := severityOrder[sev]; !ok {
		return "", false
	}
	return sev, true
}

func meetsFailLevel(sev, floor cop.Severity) bool {
	if floor == "none" {
		return false
	}
	return severityOrder[sev] >= severityOrder[floor]
}

func anyQualifies(results []*orchestrator.Result, floor cop.Severity) bool {
	for _, res := range results {
		if res == nil {
			continue
		}
		if res.ParseError != nil && meetsFailLevel(cop.SeverityFatal, floor) {
			return true
		}
		for _, d := range res.Diagnostics {
			if meetsFailLevel(d.Severity, floor) {
				return true
			}
		}
	}
	return false
}

// discoverTargetFiles expands the CLI's file/directory arguments into a
// concrete, sorted file list. Explicitly-named files bypass the global
// exclude gate unless --force-exclusion is set (RuboCop's own
// behavior); directories are walked for *.rb files gated by filter.
func discoverTargetFiles(args []string, filter *filefilter.Filter, forceExclusion bool) ([]string, error) {
	if len(args) == 0 {
		args = []string{"."}
	}

	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			if forceExclusion && !filter.InScope(arg) {
				continue
			}
			paths = append(paths, arg)
			continue
		}
		err = filepath.Walk(arg, func(p string, fi os.FileInfo, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if fi.IsDir() {
				if fi.Name() != "." && strings.HasPrefix(fi.Name(), ".") && p != arg {
					return filepath.SkipDir
				}
				return nil
			}
			if !isRubySourceFile(p) {
				return nil
			}
			if !filter.InScope(p) {
				return nil
			}
			paths = append(paths, p)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	sort.Strings(paths)
	return paths, nil
}

func isRubySourceFile(path string) bool {
	base := filepath.Base(path)
	switch base {
	case "Gemfile", "Rakefile", "Guardfile":
		return true
	}
	switch filepath.Ext(path) {
	case ".rb", ".rake", ".gemspec":
		return true
	}
	return false
}

// runWithCache checks the result cache for every path before handing
// the misses to the driver's parallel fan-out, then populates the
// cache with every freshly-computed, successfully-parsed result. Cache
// hits bypass the driver's fail-fast short circuit entirely, since a
// cached result was already observed qualifying (or not) on a prior
// run.
func runWithCache(ctx context.Context, drv *driver.Driver, cache *resultcache.Cache, paths []string, procOpts orchestrator.Options, configDigest, flagsDigest string) ([]*orchestrator.Result, bool) {
	results := make([]*orchestrator.Result, len(paths))
	keys := make([]string, len(paths))
	var misses []string
	missIndex := make([]int, 0, len(paths))

	for i, path := range paths {
		if cache == nil {
			misses = append(misses, path)
			missIndex = append(missIndex, i)
			continue
		}
		content, err := os.ReadFile(path)
		if err != nil {
			misses = append(misses, path)
			missIndex = append(missIndex, i)
			continue
		}
		key := resultcache.Key(version.Version, configDigest, flagsDigest, path, content)
		keys[i] = key
		if v, ok := cache.Get(key); ok {
			results[i] = &orchestrator.Result{Path: path, Diagnostics: v.Diagnostics, Redundant: v.Redundant}
			continue
		}
		misses = append(misses, path)
		missIndex = append(missIndex, i)
	}

	run := drv.Run(ctx, misses, procOpts)
	for j, res := range run.Results {
		i := missIndex[j]
		results[i] = res
		if cache == nil || res == nil || res.ParseError != nil || res.Skipped {
			continue
		}
		key := keys[i]
		if key == "" {
			if content, err := os.ReadFile(res.Path); err == nil {
				key = resultcache.Key(version.Version, configDigest, flagsDigest, res.Path, content)
			}
		}
		if key != "" {
			cache.Put(key, &resultcache.Value{Diagnostics: res.Diagnostics, Redundant: res.Redundant})
		}
	}

	return results, run.FailFastHit
}

func writeCorrections(results []*orchestrator.Result) error {
	for _, res := range results {
		if res == nil || !res.Rewritten {
			continue
		}
		if err := orchestrator.WriteCorrected(res.Path, res.Content); err != nil {
			return fmt.Errorf("write %s: %w", res.Path, err)
		}
	}
	return nil
}

func printText(results []*orchestrator.Result) {
	total := 0
	for _, res := range results {
		if res == nil {
			continue
		}
		for _, d := range res.Diagnostics {
			total++
			fmt.Printf("%s:%d:%d: %s: %s (%s)\n", d.Path, d.StartLine, d.StartCol, severityLetter(d.Severity), d.Message, d.RuleID)
		}
	}
	fmt.Printf("\n%d file(s) inspected, %d offense(s) detected\n", len(results), total)
}

func severityLetter(sev cop.Severity) string {
	switch sev {
	case cop.SeverityRefactor:
		return "R"
	case cop.SeverityConvention:
		return "C"
	case cop.SeverityWarning:
		return "W"
	case cop.SeverityError:
		return "E"
	case cop.SeverityFatal:
		return "F"
	default:
		return "?"
	}
}

func printJSON(results []*orchestrator.Result) {
	type fileReport struct {
		Path        string                    `json:"path"`
		Diagnostics []orchestrator.Diagnostic `json:"diagnostics"`
	}
	out := make([]fileReport, 0, len(results))
	for _, res := range results {
		if res == nil {
			continue
		}
		out = append(out, fileReport{Path: res.Path, Diagnostics: res.Diagnostics})
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(out)
}

func runStdin(orch *orchestrator.Orchestrator, path string, opts orchestrator.Options, format string) error {
	content, err := io.ReadAll(os.Stdin)
	if err != nil {
		return fmt.Errorf("read stdin: %w", err)
	}
	res := orch.ProcessFile(path, content, opts)
	if res.Rewritten {
		os.Stdout.Write(res.Content)
		return nil
	}
	if format == "json" {
		printJSON([]*orchestrator.Result{res})
	} else {
		printText([]*orchestrator.Result{res})
	}
	return nil
}
