package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the strata banner to w.
func PrintBanner(w io.Writer) {
	out := termenv.NewOutput(w)
	lines := []struct{ text, color string }{
		{"      _             _        ", "#818cf8"},
		{"  ___| |_ _ __ __ _| |_ __ _ ", "#a78bfa"},
		{" / __| __| '__/ _` | __/ _` |", "#c084fc"},
		{" \\__ \\ |_| | | (_| | || (_| |", "#e879f9"},
		{" |___/\\__|_|  \\__,_|\\__\\__,_|", "#f472b6"},
	}
	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, out.String(l.text).Foreground(out.Color(l.color)))
	}
	fmt.Fprintln(w)
}
