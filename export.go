package flowchart

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// ExportFormat selects the encoding of a standalone flowchart document.
type ExportFormat string

const (
	FormatJSON ExportFormat = "json"
	FormatYAML ExportFormat = "yaml"
)

// ContentType returns the MIME type of the format.
func (ef ExportFormat) ContentType() string {
	if ef == FormatYAML {
		return "application/yaml"
	}
	return "application/json"
}

// Export writes the whole flowchart as a standalone document. The dump is
// lossless and is not used for reconciliation.
func (f *Flowchart) Export(w io.Writer, format ExportFormat) error {
	switch format {
	case FormatJSON, "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(f)
	case FormatYAML:
		// Go through JSON so both formats share the same field names.
		raw, err := json.Marshal(f)
		if err != nil {
			return fmt.Errorf("flowchart: export: %w", err)
		}
		var tree any
		if err := json.Unmarshal(raw, &tree); err != nil {
			return fmt.Errorf("flowchart: export: %w", err)
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(tree); err != nil {
			return fmt.Errorf("flowchart: export: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("flowchart: unsupported export format %q", format)
	}
}

// Import reads a JSON document produced by Export and checks its structure.
func Import(r io.Reader) (*Flowchart, error) {
	var f Flowchart
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("flowchart: import: %w", err)
	}
	if err := f.Check(); err != nil {
		return nil, err
	}
	return &f, nil
}
