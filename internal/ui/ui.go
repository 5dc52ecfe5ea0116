package ui

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/fatih/color"

	"github.com/GeowazM/calcSpectralIndices/internal/batch"
	"github.com/GeowazM/calcSpectralIndices/internal/indices"
	"github.com/GeowazM/calcSpectralIndices/internal/pipeline"
	"github.com/GeowazM/calcSpectralIndices/internal/sensor"
)

// Out receives all console output. Tests swap it for a buffer.
var Out io.Writer = os.Stdout

var (
	warning = color.New(color.FgYellow)
	failure = color.New(color.FgRed)
	success = color.New(color.FgGreen)
	info    = color.New(color.FgBlue)
	banner  = color.New(color.FgCyan)
)

func PrintBanner() {
	banner.Fprintln(Out, figure.NewFigure("Spectral", "isometric1", true).String())
}

// PrintWarning displays a warning message with consistent formatting
func PrintWarning(message string) {
	warning.Fprintf(Out, "\nWarning:\n%s\n", message)
}

// PrintError displays an error message with consistent formatting
func PrintError(message string) {
	failure.Fprintf(Out, "\nError: %s\n", message)
}

// PrintSuccess displays a success message with consistent formatting
func PrintSuccess(message string) {
	success.Fprintf(Out, "\n%s\n", message)
}

func PrintInfo(message string) {
	info.Fprintln(Out, message)
}

// PrintResult lists the files of one finished run and its index statistics.
func PrintResult(res *pipeline.Result) {
	PrintSuccess(fmt.Sprintf("%s processed in %s", res.Input, res.Duration.Round(time.Millisecond)))
	for _, f := range res.Files() {
		fmt.Fprintf(Out, "  %s\n", f)
	}
	kinds := make([]string, 0, len(res.Stats))
	for k := range res.Stats {
		kinds = append(kinds, string(k))
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		s := res.Stats[indices.Kind(k)]
		fmt.Fprintf(Out, "  %-8s min=%.4f max=%.4f mean=%.4f finite=%d non-finite=%d\n",
			k, s.Min, s.Max, s.Mean, s.Finite, s.NonFinite)
	}
}

// PrintSummary prints one line per batch record and a closing count line.
func PrintSummary(records []batch.Record) {
	counts := map[batch.Status]int{}
	for _, r := range records {
		counts[r.Status]++
		line := fmt.Sprintf("%-9s %s", r.Status, r.Input)
		switch r.Status {
		case batch.StatusFailed:
			failure.Fprintf(Out, "%s [%s] %s\n", line, r.Stage, r.Error)
		case batch.StatusCancelled:
			warning.Fprintln(Out, line)
		default:
			fmt.Fprintln(Out, line)
		}
	}
	msg := fmt.Sprintf("%d ok, %d skipped, %d failed, %d cancelled",
		counts[batch.StatusOK], counts[batch.StatusSkipped], counts[batch.StatusFailed], counts[batch.StatusCancelled])
	if counts[batch.StatusFailed]+counts[batch.StatusCancelled] > 0 {
		PrintError(msg)
		return
	}
	PrintSuccess(msg)
}

// PrintLayouts renders the built-in sensor layouts as a table.
func PrintLayouts() {
	for _, name := range sensor.Names() {
		l, ok := sensor.Lookup(name)
		if !ok {
			continue
		}
		info.Fprintf(Out, "%s (%d bands)\n", l.Name, l.BandCount)
		var roles []string
		for _, b := range l.Bands {
			mark := ""
			if !b.Export {
				mark = "*"
			}
			roles = append(roles, fmt.Sprintf("b%d=%s%s", b.Index, b.Role, mark))
		}
		fmt.Fprintf(Out, "  %s\n", strings.Join(roles, " "))
	}
	fmt.Fprintln(Out, "  * read but not exported")
}
