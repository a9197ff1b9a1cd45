package codec

import (
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"organigram/internal/domain"
)

const (
	chartSheet    = "Chart"
	groupsSheet   = "Groups"
	warningsSheet = "Warnings"
)

// XLSXCodec exports chart views as spreadsheets: one indented row per
// agent, plus group and warning sheets when the view has them
type XLSXCodec struct{}

// NewXLSXCodec creates a new spreadsheet codec
func NewXLSXCodec() *XLSXCodec {
	return &XLSXCodec{}
}

// Format returns the codec format identifier
func (c *XLSXCodec) Format() string {
	return "xlsx"
}

// ContentType returns the MIME type of exports
func (c *XLSXCodec) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

var baseHeader = []string{"Level", "ID", "Last name", "First name", "Email", "Badge", "Title", "Container", "Status", "Acting", "Other posts"}

// Export writes the view as an XLSX workbook
func (c *XLSXCodec) Export(view *domain.ChartView, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", chartSheet); err != nil {
		return errors.Wrap(err, "failed to name chart sheet")
	}

	columns := attributeColumns(view)
	header := append(append([]string{}, baseHeader...), columns...)
	if err := writeRow(f, chartSheet, 1, toRow(header)); err != nil {
		return err
	}

	row := 2
	var walk func(n *domain.ChartNode, depth int) error
	walk = func(n *domain.ChartNode, depth int) error {
		if err := writeRow(f, chartSheet, row, nodeRow(n, depth, columns)); err != nil {
			return err
		}
		row++
		for i := range n.Children {
			if err := walk(&n.Children[i], depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	for i := range view.Roots {
		if err := walk(&view.Roots[i], 0); err != nil {
			return err
		}
	}

	if len(view.Groups) > 0 {
		if err := writeGroups(f, view.Groups, columns); err != nil {
			return err
		}
	}
	if len(view.Warnings) > 0 {
		if err := writeWarnings(f, view.Warnings); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return errors.Wrap(err, "failed to write workbook")
	}
	return nil
}

// attributeColumns collects the attribute names used anywhere in the view
func attributeColumns(view *domain.ChartView) []string {
	seen := make(map[string]bool)
	var visit func(n *domain.ChartNode)
	visit = func(n *domain.ChartNode) {
		for k := range n.Attributes {
			seen[k] = true
		}
		for i := range n.Children {
			visit(&n.Children[i])
		}
	}
	for i := range view.Roots {
		visit(&view.Roots[i])
	}
	cols := make([]string, 0, len(seen))
	for k := range seen {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return cols
}

func nodeRow(n *domain.ChartNode, depth int, columns []string) []interface{} {
	posts := make([]string, 0, len(n.OtherPosts))
	for _, id := range n.OtherPosts {
		posts = append(posts, strconv.FormatInt(id, 10))
	}
	row := []interface{}{
		depth,
		n.ID,
		strings.Repeat("  ", depth) + n.LastName,
		n.FirstName,
		n.Email,
		n.Badge,
		n.Title,
		n.ContainerName,
		strings.Join(n.Status, ","),
		n.ActingName,
		strings.Join(posts, ","),
	}
	for _, col := range columns {
		row = append(row, n.Attributes[col])
	}
	return row
}

func writeGroups(f *excelize.File, groups []domain.ChartGroup, columns []string) error {
	if _, err := f.NewSheet(groupsSheet); err != nil {
		return errors.Wrap(err, "failed to create groups sheet")
	}
	header := append([]string{"Group", "Level"}, baseHeader[1:]...)
	header = append(header, columns...)
	if err := writeRow(f, groupsSheet, 1, toRow(header)); err != nil {
		return err
	}
	row := 2
	for _, g := range groups {
		for i := range g.Members {
			values := append([]interface{}{g.Name, g.Level}, nodeRow(&g.Members[i], 0, columns)[1:]...)
			if err := writeRow(f, groupsSheet, row, values); err != nil {
				return err
			}
			row++
		}
	}
	return nil
}

func writeWarnings(f *excelize.File, warnings []domain.Warning) error {
	if _, err := f.NewSheet(warningsSheet); err != nil {
		return errors.Wrap(err, "failed to create warnings sheet")
	}
	if err := writeRow(f, warningsSheet, 1, toRow([]string{"Kind", "Path", "Detail"})); err != nil {
		return err
	}
	for i, w := range warnings {
		if err := writeRow(f, warningsSheet, i+2, []interface{}{string(w.Kind), w.Path, w.Detail}); err != nil {
			return err
		}
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return errors.Wrapf(err, "row %d", row)
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return errors.Wrapf(err, "failed to write %s row %d", sheet, row)
	}
	return nil
}

func toRow(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
