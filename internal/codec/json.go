package codec

import (
	"encoding/json"
	"io"

	"github.com/pkg/errors"

	"organigram/internal/domain"
)

// JSONCodec handles JSON import/export
type JSONCodec struct{}

// NewJSONCodec creates a new JSON codec
func NewJSONCodec() *JSONCodec {
	return &JSONCodec{}
}

// Format returns the codec format identifier
func (c *JSONCodec) Format() string {
	return "json"
}

// ContentType returns the MIME type of exports
func (c *JSONCodec) ContentType() string {
	return "application/json"
}

// Parse imports a directory snapshot from JSON
func (c *JSONCodec) Parse(r io.Reader) (*domain.Snapshot, error) {
	snap := domain.NewSnapshot()
	decoder := json.NewDecoder(r)
	if err := decoder.Decode(snap); err != nil {
		return nil, errors.Wrap(err, "failed to parse JSON")
	}

	return snap, nil
}

// Export exports a chart view to JSON
func (c *JSONCodec) Export(view *domain.ChartView, w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(view); err != nil {
		return errors.Wrap(err, "failed to encode JSON")
	}

	return nil
}
