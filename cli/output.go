package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/xhhuango/json"
)

// writeOutput prints v as indented JSON to stdout, or to the --out file.
func (a *app) writeOutput(stdout io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	data = append(data, '\n')

	if a.outPath == "" {
		_, err = stdout.Write(data)
		return err
	}
	if err := os.WriteFile(a.outPath, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", a.outPath, err)
	}
	a.logger.Info("output written", "file", a.outPath, "bytes", len(data))
	return nil
}
