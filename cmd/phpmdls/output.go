package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"phpmdls/internal/batch"
	"phpmdls/internal/phpmd"
)

var (
	pathColor    = color.New(color.Bold)
	lineColor    = color.New(color.FgCyan)
	warnColor    = color.New(color.FgYellow, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	cleanColor   = color.New(color.FgGreen)
	summaryColor = color.New(color.Bold)
)

// writeReportPretty prints one block per file with findings. Lines are
// 1-based and the "PHPMD: " prefix is dropped.
func writeReportPretty(out io.Writer, report batch.Report, quiet bool) {
	width := lineNumberWidth(report)
	for _, f := range report.Files {
		switch f.Status() {
		case batch.StatusError:
			fmt.Fprintf(out, "%s %s: %v\n", errorColor.Sprint("error"), pathColor.Sprint(f.Path), f.Err)
			continue
		case batch.StatusClean:
			if !quiet {
				fmt.Fprintf(out, "%s %s\n", cleanColor.Sprint("clean"), f.Path)
			}
			continue
		}
		fmt.Fprintln(out, pathColor.Sprint(f.Path))
		for _, d := range f.Result.Diagnostics {
			num := fmt.Sprintf("%d", d.Line+1)
			pad := strings.Repeat(" ", width-runewidth.StringWidth(num))
			fmt.Fprintf(out, "  %s%s  %s\n", pad, lineColor.Sprint(num), displayMessage(d))
		}
		if len(f.Result.Diagnostics) == 0 && f.Result.ExitCode == 1 {
			msg := strings.TrimSpace(f.Result.Stderr)
			if msg == "" {
				msg = "phpmd exited with status 1"
			}
			fmt.Fprintf(out, "  %s %s\n", warnColor.Sprint("tool error:"), msg)
		}
	}
	if quiet {
		return
	}
	files := 0
	for _, f := range report.Files {
		if len(f.Result.Diagnostics) > 0 {
			files++
		}
	}
	fmt.Fprintln(out, summaryColor.Sprintf("%d %s in %d of %d %s",
		report.DiagnosticCount(), plural(report.DiagnosticCount(), "issue", "issues"),
		files, len(report.Files), plural(len(report.Files), "file", "files")))
}

func lineNumberWidth(report batch.Report) int {
	width := 1
	for _, f := range report.Files {
		for _, d := range f.Result.Diagnostics {
			if w := runewidth.StringWidth(fmt.Sprintf("%d", d.Line+1)); w > width {
				width = w
			}
		}
	}
	return width
}

func displayMessage(d phpmd.Diagnostic) string {
	return strings.TrimPrefix(d.Message, phpmd.MessagePrefix)
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

type jsonReport struct {
	Files       []jsonFile `json:"files"`
	Diagnostics int        `json:"diagnostics"`
	ExitCode    int        `json:"exit_code"`
}

type jsonFile struct {
	Path        string           `json:"path"`
	Status      batch.Status     `json:"status"`
	ExitCode    int              `json:"exit_code"`
	Error       string           `json:"error,omitempty"`
	DurationMS  float64          `json:"duration_ms"`
	Diagnostics []jsonDiagnostic `json:"diagnostics"`
}

type jsonDiagnostic struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
}

func writeReportJSON(out io.Writer, report batch.Report) error {
	payload := jsonReport{
		Files:       make([]jsonFile, 0, len(report.Files)),
		Diagnostics: report.DiagnosticCount(),
		ExitCode:    report.ExitCode(),
	}
	for _, f := range report.Files {
		jf := jsonFile{
			Path:        f.Path,
			Status:      f.Status(),
			ExitCode:    f.Result.ExitCode,
			DurationMS:  float64(f.Result.Duration.Microseconds()) / 1000,
			Diagnostics: make([]jsonDiagnostic, 0, len(f.Result.Diagnostics)),
		}
		if f.Err != nil {
			jf.Error = f.Err.Error()
		}
		for _, d := range f.Result.Diagnostics {
			jf.Diagnostics = append(jf.Diagnostics, jsonDiagnostic{
				Line:    d.Line + 1,
				Message: displayMessage(d),
			})
		}
		payload.Files = append(payload.Files, jf)
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}
