package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"phpmdls/internal/batch"
	"phpmdls/internal/phpmd"
	"phpmdls/internal/trace"
)

var checkCmd = &cobra.Command{
	Use:   "check [flags] <file.php|directory>...",
	Short: "Run phpmd once over files and print the findings",
	Long: `Run phpmd on each PHP file concurrently and print its findings.
Exit status is 0 when every file is clean, 2 when phpmd reported violations
or an error, and 1 when phpmd could not be started.`,
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
	RunE:         runCheck,
}

func init() {
	addToolFlags(checkCmd)
	checkCmd.Flags().Int("jobs", 0, "max parallel phpmd processes (0=auto)")
	checkCmd.Flags().String("format", "pretty", "output format (pretty|json)")
	checkCmd.Flags().String("ui", "auto", "progress view (auto|on|off)")
}

func runCheck(cmd *cobra.Command, args []string) error {
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return fmt.Errorf("failed to get jobs flag: %w", err)
	}
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	format = strings.ToLower(format)
	if format != "pretty" && format != "json" {
		return fmt.Errorf("unsupported format %q (must be pretty or json)", format)
	}
	uiFlag, err := cmd.Flags().GetString("ui")
	if err != nil {
		return fmt.Errorf("failed to get ui flag: %w", err)
	}
	mode, err := readUIMode(uiFlag)
	if err != nil {
		return err
	}
	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return fmt.Errorf("failed to get quiet flag: %w", err)
	}
	showTimings, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return fmt.Errorf("failed to get timings flag: %w", err)
	}

	wd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}
	cfg, err := checkConfig(cmd, wd)
	if err != nil {
		return err
	}
	if !cfg.Enabled {
		if !quiet {
			fmt.Fprintln(cmd.ErrOrStderr(), "phpmd is disabled by "+phpmd.ProjectFileName)
		}
		return nil
	}
	files, err := batch.CollectFiles(args)
	if err != nil {
		return err
	}

	req := &batch.Request{
		Files:   files,
		Jobs:    jobs,
		Config:  cfg,
		Timings: showTimings,
	}
	ctx := cmd.Context()
	useUI := format == "pretty" && !quiet && len(files) > 1 && mode.interactive(os.Stdout)

	var report batch.Report
	if useUI {
		report, err = runCheckWithUI(ctx, "phpmd", req)
	} else {
		report, err = batch.Check(ctx, req)
	}
	if err != nil {
		return err
	}
	trace.Point(trace.FromContext(ctx), trace.ScopeServer, "check-done",
		fmt.Sprintf("files=%d diagnostics=%d", len(report.Files), report.DiagnosticCount()))

	out := cmd.OutOrStdout()
	switch format {
	case "json":
		if err := writeReportJSON(out, report); err != nil {
			return err
		}
	default:
		writeReportPretty(out, report, quiet)
	}
	if showTimings && report.Timing != nil {
		fmt.Fprint(cmd.ErrOrStderr(), report.Timing.Summary())
	}

	if code := report.ExitCode(); code != batch.ExitClean {
		// findings are already printed
		cmd.SilenceErrors = true
		return &exitCodeError{code: code}
	}
	return nil
}

// checkConfig layers the project file found from dir and the
// command-line flags over the defaults.
func checkConfig(cmd *cobra.Command, dir string) (phpmd.Config, error) {
	cfg := phpmd.DefaultConfig()
	project, path, err := phpmd.DiscoverProjectFile(dir)
	if err != nil {
		return cfg, err
	}
	if path != "" {
		trace.Point(trace.FromContext(cmd.Context()), trace.ScopeServer, "project-config", path)
	}
	cfg = cfg.Apply(project)

	flags, err := toolOverrides(cmd)
	if err != nil {
		return cfg, err
	}
	return cfg.Apply(flags), nil
}
