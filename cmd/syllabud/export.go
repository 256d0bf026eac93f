package main

import (
	"fmt"
	"os"

	"github.com/ye-allison/SyllaBud/internal/dashboard"
	"github.com/ye-allison/SyllaBud/internal/export"
)

func writeExport(a *app, formatName, output string, items []dashboard.Deadline) error {
	format, err := export.ParseFormat(formatName)
	if err != nil {
		return err
	}
	body, err := a.exporter.Render(format, items)
	if err != nil {
		return err
	}

	if output == "-" {
		_, err := os.Stdout.Write(body)
		return err
	}
	if output == "" {
		output = format.Filename()
	}
	if err := os.WriteFile(output, body, 0o644); err != nil {
		return fmt.Errorf("writing export: %w", err)
	}
	fmt.Printf("Wrote %d deadlines to %s\n", len(items), output)
	return nil
}
