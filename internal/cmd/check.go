package cmd

import (
	"log/slog"
	"os"
)

type Check struct {
	Pipeline `embed:""`
}

// Run analyzes the inputs and reports diagnostics without generating code.
func (c *Check) Run(logger *slog.Logger) error {
	res, _, err := c.compile(logger, false)
	if err != nil {
		return err
	}
	if err := c.report(os.Stderr, res); err != nil {
		return err
	}
	logger.Info("No problems found", "units", len(res.Units))
	return nil
}
