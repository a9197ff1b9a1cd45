package codec

import (
	"io"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"organigram/internal/domain"
	"organigram/internal/loader"
)

// YAMLCodec handles YAML import/export
type YAMLCodec struct{}

// NewYAMLCodec creates a new YAML codec
func NewYAMLCodec() *YAMLCodec {
	return &YAMLCodec{}
}

// Format returns the codec format identifier
func (c *YAMLCodec) Format() string {
	return "yaml"
}

// ContentType returns the MIME type of exports
func (c *YAMLCodec) ContentType() string {
	return "application/yaml"
}

// Parse imports a directory snapshot in the snapshot file format
func (c *YAMLCodec) Parse(r io.Reader) (*domain.Snapshot, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read YAML")
	}
	return loader.ParseSnapshot(data)
}

// Export exports a chart view to YAML
func (c *YAMLCodec) Export(view *domain.ChartView, w io.Writer) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)

	if err := encoder.Encode(view); err != nil {
		return errors.Wrap(err, "failed to encode YAML")
	}

	return encoder.Close()
}
