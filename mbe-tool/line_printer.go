package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

type LineType int8

const (
	FULL  LineType = 0
	ELIDE LineType = 1
)

const kTerminalWidth = 100

// / Prints lines of text, possibly overprinting previously printed lines
// / if the terminal supports it.
type LinePrinter struct {
	/// Whether we can do fancy terminal control codes.
	smart_terminal_ bool

	/// Whether we can use ISO 6429 (ANSI) color sequences.
	supports_color_ bool

	/// Whether the caret is at the beginning of a blank line.
	have_blank_line_ bool

	out_ io.Writer
}

func isatty(fd int) bool {
	stat, err := os.Stat(fmt.Sprintf("/proc/self/fd/%d", fd))
	if err != nil {
		return false
	}
	return stat.Mode()&os.ModeCharDevice != 0
}

func NewLinePrinter() *LinePrinter {
	term := os.Getenv("TERM")
	smart := isatty(1) && term != "" && term != "dumb"
	return NewLinePrinterTo(os.Stdout, smart)
}

// NewLinePrinterTo prints to out. Colors follow smart, unless CLICOLOR_FORCE
// asks for them.
func NewLinePrinterTo(out io.Writer, smart bool) *LinePrinter {
	ret := LinePrinter{}
	ret.have_blank_line_ = true
	ret.out_ = out
	ret.smart_terminal_ = smart
	ret.supports_color_ = smart

	if !ret.supports_color_ {
		clicolor_force := os.Getenv("CLICOLOR_FORCE")
		ret.supports_color_ = clicolor_force != "" && clicolor_force != "0"
	}
	return &ret
}

func (this *LinePrinter) supports_color() bool { return this.supports_color_ }

// elideMiddle truncates s to maxWidth, replacing its middle with "...".
func elideMiddle(s string, maxWidth int) string {
	if len(s) <= maxWidth {
		return s
	}
	if maxWidth <= 3 {
		return s[:maxWidth]
	}
	half := (maxWidth - 3) / 2
	return s[:half] + "..." + s[len(s)-(maxWidth-3-half):]
}

// / Overprints the current line. If type is ELIDE, elides to_print to fit on
// / one line.
func (this *LinePrinter) Print(to_print string, lineType LineType) {
	if !this.smart_terminal_ {
		fmt.Fprintf(this.out_, "%s\n", to_print)
		this.have_blank_line_ = true
		return
	}

	fmt.Fprint(this.out_, "\r")
	if lineType == ELIDE {
		to_print = elideMiddle(to_print, kTerminalWidth)
	}
	fmt.Fprint(this.out_, to_print)
	fmt.Fprint(this.out_, "\033[K")
	this.have_blank_line_ = false
}

// / Prints a string on a new line, not overprinting previous output.
func (this *LinePrinter) PrintOnNewLine(to_print string) {
	if !this.have_blank_line_ {
		fmt.Fprint(this.out_, "\n")
	}
	if to_print != "" {
		fmt.Fprint(this.out_, to_print)
	}
	this.have_blank_line_ = to_print == "" || to_print[len(to_print)-1] == '\n'
}

// Paint colors s when the printer supports color.
func (this *LinePrinter) Paint(s string, attrs ...color.Attribute) string {
	if !this.supports_color_ {
		return s
	}
	c := color.New(attrs...)
	c.EnableColor()
	return c.Sprint(s)
}
