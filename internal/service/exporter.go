package service

import (
	"encoding/csv"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/stewardhq/steward/internal/admin"
)

// ExportRowSource drives rows into a writer one at a time so exports never
// materialize the full result set.
type ExportRowSource func(fn func(obj any) error) error

type exportFormat struct {
	contentType string
	extension   string
}

var exportFormats = map[string]exportFormat{
	"csv":  {contentType: "text/csv", extension: "csv"},
	"json": {contentType: "application/json", extension: "json"},
	"xml":  {contentType: "text/xml", extension: "xml"},
}

// Exporter renders admin list rows into downloadable files.
type Exporter struct{}

func NewExporter() *Exporter { return &Exporter{} }

// ValidateFormat checks the requested format against the descriptor's
// allow-list and reports a configuration error enumerating the allowed
// formats on mismatch.
func (e *Exporter) ValidateFormat(format string, allowed []string) error {
	for _, f := range allowed {
		if f == format {
			if _, known := exportFormats[format]; !known {
				return admin.NewConfigurationError("export format %q has no registered writer", format)
			}
			return nil
		}
	}
	return admin.NewConfigurationError(
		"export in format %q is not allowed, allowed formats are: %s",
		format, strings.Join(allowed, ", "),
	)
}

func (e *Exporter) ContentType(format string) string {
	return exportFormats[format].contentType
}

// Filename builds the download name from the lower-cased entity name and a
// UTC timestamp.
func (e *Exporter) Filename(entityName, format string, now time.Time) string {
	return fmt.Sprintf("%s_%s.%s",
		strings.ToLower(entityName),
		now.UTC().Format("2006-01-02_15-04-05"),
		exportFormats[format].extension,
	)
}

// Write streams every source row into w in the requested format. Returns the
// number of rows written.
func (e *Exporter) Write(w io.Writer, format string, fields []admin.Field, rows ExportRowSource) (int64, error) {
	switch format {
	case "csv":
		return e.writeCSV(w, fields, rows)
	case "json":
		return e.writeJSON(w, fields, rows)
	case "xml":
		return e.writeXML(w, fields, rows)
	default:
		return 0, admin.NewConfigurationError("export format %q has no registered writer", format)
	}
}

func (e *Exporter) writeCSV(w io.Writer, fields []admin.Field, rows ExportRowSource) (int64, error) {
	cw := csv.NewWriter(w)
	header := make([]string, len(fields))
	for i, f := range fields {
		header[i] = f.Name
	}
	if err := cw.Write(header); err != nil {
		return 0, err
	}
	var count int64
	record := make([]string, len(fields))
	err := rows(func(obj any) error {
		for i, f := range fields {
			record[i] = f.Value(obj)
		}
		count++
		return cw.Write(record)
	})
	if err != nil {
		return count, err
	}
	cw.Flush()
	return count, cw.Error()
}

func (e *Exporter) writeJSON(w io.Writer, fields []admin.Field, rows ExportRowSource) (int64, error) {
	if _, err := io.WriteString(w, "["); err != nil {
		return 0, err
	}
	enc := json.NewEncoder(w)
	var count int64
	err := rows(func(obj any) error {
		if count > 0 {
			if _, err := io.WriteString(w, ","); err != nil {
				return err
			}
		}
		row := make(map[string]string, len(fields))
		for _, f := range fields {
			row[f.Name] = f.Value(obj)
		}
		count++
		return enc.Encode(row)
	})
	if err != nil {
		return count, err
	}
	_, err = io.WriteString(w, "]")
	return count, err
}

type xmlExportField struct {
	XMLName xml.Name
	Value   string `xml:",chardata"`
}

type xmlExportRow struct {
	XMLName xml.Name `xml:"item"`
	Fields  []xmlExportField
}

func (e *Exporter) writeXML(w io.Writer, fields []admin.Field, rows ExportRowSource) (int64, error) {
	if _, err := io.WriteString(w, xml.Header+"<items>"); err != nil {
		return 0, err
	}
	enc := xml.NewEncoder(w)
	var count int64
	err := rows(func(obj any) error {
		row := xmlExportRow{Fields: make([]xmlExportField, 0, len(fields))}
		for _, f := range fields {
			row.Fields = append(row.Fields, xmlExportField{
				XMLName: xml.Name{Local: f.Name},
				Value:   f.Value(obj),
			})
		}
		count++
		return enc.Encode(row)
	})
	if err != nil {
		return count, err
	}
	if err := enc.Flush(); err != nil {
		return count, err
	}
	_, err = io.WriteString(w, "</items>")
	return count, err
}
