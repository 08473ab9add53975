package main

import (
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	"Inkwell/internal/sketch"
)

var (
	InfoColor    = color.New(color.FgCyan).SprintFunc()
	SuccessColor = color.New(color.FgGreen).SprintFunc()
	ErrorColor   = color.New(color.FgRed).SprintFunc()
	WarningColor = color.New(color.FgYellow).SprintFunc()
	HeaderColor  = color.New(color.FgMagenta, color.Bold).SprintFunc()
)

// newReplayBar creates a progress bar counting shapes sent.
func newReplayBar(total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(
		total,
		progressbar.OptionSetDescription(description),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(50),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionShowCount(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(os.Stdout, "\n")
		}),
	)
}

func describe(s sketch.Shape) string {
	switch v := s.(type) {
	case sketch.Rect:
		return fmt.Sprintf("rect (%.0f,%.0f) %.0fx%.0f", v.X, v.Y, v.Width, v.Height)
	case sketch.Diamond:
		return fmt.Sprintf("diamond (%.0f,%.0f) %.0fx%.0f", v.X, v.Y, v.Width, v.Height)
	case sketch.Circle:
		return fmt.Sprintf("circle (%.0f,%.0f) r=%.0f", v.CenterX, v.CenterY, v.Radius)
	case sketch.Pencil:
		return fmt.Sprintf("pencil %d points", len(v.Points))
	case sketch.Line:
		return fmt.Sprintf("line (%.0f,%.0f)->(%.0f,%.0f)", v.X1, v.Y1, v.X2, v.Y2)
	case sketch.Arrow:
		return fmt.Sprintf("arrow (%.0f,%.0f)->(%.0f,%.0f)", v.X1, v.Y1, v.X2, v.Y2)
	case sketch.Text:
		return fmt.Sprintf("text %q at (%.0f,%.0f)", v.Text, v.X, v.Y)
	}
	return s.Kind()
}

func printBoard(entries []sketch.Entry) {
	fmt.Println(HeaderColor(fmt.Sprintf("── board: %d shapes ──", len(entries))))
	for i, e := range entries {
		fmt.Printf("  %s %s\n", InfoColor(fmt.Sprintf("%3d", i+1)), describe(e.Shape))
	}
}
