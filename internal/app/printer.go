package app

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Printer renders results for the CLI. Summaries and transcripts go to
// stdout so they can be piped; status lines go to stderr.
type Printer struct {
	Quiet bool
	Out   io.Writer
	Err   io.Writer

	okStyle    lipgloss.Style
	failStyle  lipgloss.Style
	titleStyle lipgloss.Style
	dimStyle   lipgloss.Style
}

func NewPrinter(quiet bool) *Printer {
	return &Printer{
		Quiet:      quiet,
		Out:        os.Stdout,
		Err:        os.Stderr,
		okStyle:    lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true),
		failStyle:  lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		titleStyle: lipgloss.NewStyle().Bold(true),
		dimStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
	}
}

// Result prints one processed video.
func (p *Printer) Result(res Result) {
	if res.Err != nil {
		fmt.Fprintf(p.Err, "%s %s %s\n", p.failStyle.Render("FAIL"), res.URL, res.Err)
		return
	}

	o := res.Outcome
	if !p.Quiet {
		title := res.URL
		if o.Info != nil && o.Info.Title != "" {
			title = o.Info.Title
		}
		source := string(o.Action)
		switch {
		case o.FromCache:
			source += ", cached transcript"
		case o.MetadataOnly:
			source += ", metadata only"
		case o.TranscriptStrategy != "":
			source += ", via " + o.TranscriptStrategy
		}
		fmt.Fprintf(p.Err, "%s %s %s\n", p.okStyle.Render("OK"), p.titleStyle.Render(title), p.dimStyle.Render("("+source+")"))
	}

	switch o.Action {
	case ActionInfo:
		p.printInfo(o)
	case ActionTranscribe:
		fmt.Fprintln(p.Out, o.Transcript)
	default:
		fmt.Fprintln(p.Out, o.Summary)
	}
}

func (p *Printer) printInfo(o *Outcome) {
	info := o.Info
	fmt.Fprintf(p.Out, "%s\n", p.titleStyle.Render(info.Title))
	if info.Author != "" {
		fmt.Fprintf(p.Out, "Channel:  %s\n", info.Author)
	}
	if info.DurationSeconds > 0 {
		fmt.Fprintf(p.Out, "Duration: %dm%02ds\n", info.DurationSeconds/60, info.DurationSeconds%60)
	}
	if info.Views > 0 {
		fmt.Fprintf(p.Out, "Views:    %d\n", info.Views)
	}
	if info.PublishDate != "" {
		fmt.Fprintf(p.Out, "Published: %s\n", info.PublishDate)
	}
	if info.Description != "" {
		desc := info.Description
		if len(desc) > 300 {
			desc = desc[:300] + "..."
		}
		fmt.Fprintf(p.Out, "\n%s\n", strings.TrimSpace(desc))
	}
}

// Summary prints the run totals.
func (p *Printer) Summary(results []Result) {
	if p.Quiet || len(results) < 2 {
		return
	}
	ok, failed := 0, 0
	for _, res := range results {
		if res.Err != nil {
			failed++
		} else {
			ok++
		}
	}
	fmt.Fprintf(p.Err, "Summary: %s %d | %s %d | TOTAL %d\n",
		p.okStyle.Render("OK"), ok, p.failStyle.Render("FAIL"), failed, len(results))
}
