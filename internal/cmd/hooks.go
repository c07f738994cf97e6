package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/Alia5/gobjgen/internal/codegen/hooks"
)

type Hooks struct{}

// Run lists the registered extension hooks.
func (h *Hooks) Run() error {
	return listHooks(os.Stdout)
}

func listHooks(w io.Writer) error {
	for _, name := range hooks.Names() {
		if _, err := fmt.Fprintln(w, name); err != nil {
			return err
		}
	}
	return nil
}
