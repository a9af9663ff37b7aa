package cmd

import (
	"fmt"
	"io"

	"multiput/internal/store"
)

// consoleReporter prints one status line per attempted file.
type consoleReporter struct {
	out io.Writer
}

func (r consoleReporter) Empty(dir string) {
	fmt.Fprintf(r.out, "Directory %s is empty, nothing to transfer.\n", dir)
}

func (r consoleReporter) FileDone(o store.Outcome) {
	switch o.Kind {
	case store.Uploaded:
		fmt.Fprintf(r.out, "File %s uploaded.\n", o.File.Filename)
	case store.Rejected:
		fmt.Fprintf(r.out, "File %s not uploaded: %s\n", o.File.Filename, o.Reason)
	default:
		fmt.Fprintf(r.out, "Error sending %s: %v\n", o.File.Filename, o.Err)
	}
}

func (r consoleReporter) Completed(message string) {
	fmt.Fprintln(r.out, message)
}
