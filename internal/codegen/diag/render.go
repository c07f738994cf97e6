package diag

import (
	"io"
	"os"

	"github.com/hashicorp/hcl/v2"
	"golang.org/x/term"
)

// Render writes diags with source snippets. sources maps file names to their
// contents; files missing from it are rendered without a snippet.
func Render(w io.Writer, sources map[string][]byte, diags hcl.Diagnostics, color bool, width uint) error {
	files := make(map[string]*hcl.File, len(sources))
	for name, src := range sources {
		files[name] = &hcl.File{Bytes: src}
	}
	return hcl.NewDiagnosticTextWriter(w, files, width, color).WriteDiagnostics(diags)
}

// TerminalStyle reports whether f is a terminal and its width. Width is 0 when
// output is not a terminal so that lines are not wrapped.
func TerminalStyle(f *os.File) (color bool, width uint) {
	fd := int(f.Fd())
	if !term.IsTerminal(fd) {
		return false, 0
	}
	w, _, err := term.GetSize(fd)
	if err != nil || w <= 0 {
		return true, 80
	}
	return true, uint(w)
}
