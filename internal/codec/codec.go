package codec

import (
	"fmt"
	"io"
	"sort"

	"organigram/internal/domain"
)

// Importer interface for importing directory snapshots from various formats
type Importer interface {
	Parse(r io.Reader) (*domain.Snapshot, error)
	Format() string
}

// Exporter interface for exporting chart views to various formats
type Exporter interface {
	Export(view *domain.ChartView, w io.Writer) error
	Format() string
	ContentType() string
}

var exporters = map[string]func() Exporter{
	"json": func() Exporter { return NewJSONCodec() },
	"yaml": func() Exporter { return NewYAMLCodec() },
	"xlsx": func() Exporter { return NewXLSXCodec() },
}

var importers = map[string]func() Importer{
	"json": func() Importer { return NewJSONCodec() },
	"yaml": func() Importer { return NewYAMLCodec() },
	"yml":  func() Importer { return NewYAMLCodec() },
}

// ExporterFor returns the exporter registered for format
func ExporterFor(format string) (Exporter, error) {
	mk, ok := exporters[format]
	if !ok {
		return nil, fmt.Errorf("unsupported export format %q (want one of %v)", format, Formats())
	}
	return mk(), nil
}

// ImporterFor returns the importer registered for format
func ImporterFor(format string) (Importer, error) {
	mk, ok := importers[format]
	if !ok {
		return nil, fmt.Errorf("unsupported import format %q", format)
	}
	return mk(), nil
}

// Formats lists the export formats, sorted
func Formats() []string {
	out := make([]string, 0, len(exporters))
	for f := range exporters {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}
