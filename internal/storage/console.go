package storage

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/synthlab/alphalog/internal/tracker"
	"go.uber.org/zap"
)

const rule = "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"

// ConsoleMirror implements Mirror by pretty-printing to a writer.
type ConsoleMirror struct {
	out    io.Writer
	logger *zap.Logger
}

// NewConsoleMirror creates a console mirror writing to stdout.
func NewConsoleMirror(logger *zap.Logger) *ConsoleMirror {
	return NewConsoleMirrorTo(os.Stdout, logger)
}

// NewConsoleMirrorTo creates a console mirror writing to out.
func NewConsoleMirrorTo(out io.Writer, logger *zap.Logger) *ConsoleMirror {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Info("console-mirror-initialized")
	return &ConsoleMirror{out: out, logger: logger}
}

// InsertEdges prints each new edge.
func (c *ConsoleMirror) InsertEdges(_ context.Context, records []tracker.Record) error {
	for i := range records {
		r := &records[i]
		fmt.Fprintln(c.out, "\n"+rule)
		fmt.Fprintf(c.out, "🎯 EDGE DETECTED: %s %s\n", r.Asset, r.EdgeType)
		fmt.Fprintln(c.out, rule)
		fmt.Fprintf(c.out, "ID:         %s\n", shortID(r.ID))
		fmt.Fprintf(c.out, "Timeframe:  %s\n", r.Timeframe)
		fmt.Fprintf(c.out, "Direction:  %s\n", r.Direction)
		fmt.Fprintf(c.out, "Confidence: %s\n", r.Confidence)
		fmt.Fprintf(c.out, "Detected:   %s\n", r.DetectedAt.Format("2006-01-02 15:04:05"))
		fmt.Fprintf(c.out, "Deadline:   %s\n", r.ResolutionDeadline.Format("2006-01-02 15:04:05"))
		fmt.Fprintln(c.out, rule)
		fmt.Fprintf(c.out, "📊 PROBABILITIES\n")
		fmt.Fprintf(c.out, "  Synth:      %s\n", formatPct(r.SynthProbability))
		fmt.Fprintf(c.out, "  Polymarket: %s\n", formatPct(r.PolymarketProbability))
		fmt.Fprintf(c.out, "  Our side:   %s\n", formatPct(r.OurSideProbability))
		fmt.Fprintf(c.out, "  Edge size:  %s\n", formatPct(r.EdgeSize))
		fmt.Fprintln(c.out, rule)
	}
	return nil
}

// UpdateResolution prints a resolved edge.
func (c *ConsoleMirror) UpdateResolution(_ context.Context, r tracker.Record) error {
	mark := "❓"
	switch r.Resolution {
	case tracker.ResolutionCorrect:
		mark = "✅"
	case tracker.ResolutionIncorrect:
		mark = "❌"
	}

	pnl := "n/a"
	if r.PnL != nil {
		pnl = fmt.Sprintf("%+.4f", *r.PnL)
	}

	fmt.Fprintf(c.out, "%s EDGE RESOLVED %s %s %s: %s (outcome %s, pnl %s)\n",
		mark, shortID(r.ID), r.Asset, r.EdgeType, r.Resolution, r.ActualOutcome, pnl)
	return nil
}

// Close is a no-op for the console mirror.
func (c *ConsoleMirror) Close() error {
	c.logger.Info("closing-console-mirror")
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func formatPct(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.1f%%", *v*100)
}
