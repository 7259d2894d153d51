package commitment

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// ExportName is the base name of the exported key/secret file.
const ExportName = "elfi-airdrop-key-and-secret"

// Exporter persists the pair outside the session. A successful export is
// the gate for leaving the encryption step.
type Exporter interface {
	Export(ctx context.Context, name string, pair Pair) error
}

// FileExporter writes the pair as JSON into Dir.
type FileExporter struct {
	Dir string
}

// Export implements Exporter. The file is written owner-only.
func (e FileExporter) Export(ctx context.Context, name string, pair Pair) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	raw, err := json.MarshalIndent(pair, "", "  ")
	if err != nil {
		return fmt.Errorf("encode export: %w", err)
	}
	path := filepath.Join(e.Dir, name+".json")
	if err := os.WriteFile(path, append(raw, '\n'), 0o600); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	return nil
}
