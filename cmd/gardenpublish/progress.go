package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/vanadium23/obsidian-digital-garden/internal/application"
	"github.com/vanadium23/obsidian-digital-garden/internal/domain/model"
)

const barWidth = 30

// barProgress draws a single-line progress bar, redrawn in place.
type barProgress struct {
	w io.Writer
}

func (p *barProgress) Start(total int) {
	p.draw(0, total, "")
}

func (p *barProgress) Advance(done, total int, result model.ItemResult) {
	p.draw(done, total, result.Path)
}

func (p *barProgress) Finish(model.BatchReport) {
	fmt.Fprintln(p.w)
}

func (p *barProgress) draw(done, total int, path string) {
	filled := 0
	if total > 0 {
		filled = done * barWidth / total
	}
	if r := []rune(path); len(r) > 40 {
		path = "…" + string(r[len(r)-39:])
	}
	fmt.Fprintf(p.w, "\r\033[K[%s%s] %d/%d %s",
		strings.Repeat("=", filled), strings.Repeat(" ", barWidth-filled), done, total, path)
}

// linePrinter prints one line per item for non-terminal output.
type linePrinter struct {
	w io.Writer
}

func (p *linePrinter) Start(total int) {
	fmt.Fprintf(p.w, "processing %d items\n", total)
}

func (p *linePrinter) Advance(done, total int, result model.ItemResult) {
	status := "ok"
	if !result.OK() {
		status = "FAILED"
	}
	fmt.Fprintf(p.w, "[%d/%d] %s %s %s\n", done, total, result.Kind, result.Path, status)
}

func (p *linePrinter) Finish(model.BatchReport) {}

// newProgress picks a bar for terminals and plain lines otherwise.
func newProgress(f *os.File) application.ProgressReporter {
	if isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()) {
		return &barProgress{w: f}
	}
	return &linePrinter{w: f}
}
