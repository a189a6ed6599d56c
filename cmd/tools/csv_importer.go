package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/lychee-technology/eav"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// ImportError describes why one CSV row was not imported.
type ImportError struct {
	RowNumber int    // 1-based, header is row 1
	CSVColumn string // empty when the row failed as a whole
	RawValue  string
	Reason    string
}

func (e *ImportError) Error() string {
	if e.CSVColumn == "" {
		return fmt.Sprintf("row %d: %s", e.RowNumber, e.Reason)
	}
	return fmt.Sprintf("row %d, column %q: value %q - %s", e.RowNumber, e.CSVColumn, e.RawValue, e.Reason)
}

// ImportResult summarizes a CSV import.
type ImportResult struct {
	TotalRows    int            `yaml:"total_rows" json:"total_rows"`
	SuccessCount int            `yaml:"success_count" json:"success_count"`
	FailedCount  int            `yaml:"failed_count" json:"failed_count"`
	Errors       []*ImportError `yaml:"-" json:"-"`
	Duration     time.Duration  `yaml:"duration" json:"duration"`
}

// Summary returns a human-readable summary of the import result.
func (r *ImportResult) Summary() string {
	return fmt.Sprintf("Import completed: %d/%d rows successful, %d failed, duration: %v",
		r.SuccessCount, r.TotalRows, r.FailedCount, r.Duration)
}

// CSVImporter turns each CSV row into an entity of one type. The name column
// names the entity; every other column must match an attribute of the type.
type CSVImporter struct {
	store      eav.Store
	typeName   string
	nameColumn string
	separator  string
}

// NewCSVImporter creates an importer. Cells of repeatable attributes are split
// on separator; an empty separator keeps them whole.
func NewCSVImporter(store eav.Store, typeName, nameColumn, separator string) *CSVImporter {
	if nameColumn == "" {
		nameColumn = "name"
	}
	return &CSVImporter{store: store, typeName: typeName, nameColumn: nameColumn, separator: separator}
}

// ImportFromReader imports CSV data from an io.Reader. Row failures are
// collected in the result; only setup failures return an error.
func (i *CSVImporter) ImportFromReader(ctx context.Context, reader io.Reader) (*ImportResult, error) {
	startTime := time.Now()

	csvReader := csv.NewReader(reader)
	csvReader.TrimLeadingSpace = true

	header, err := csvReader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	attrs, err := i.resolveColumns(ctx, header)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{Errors: make([]*ImportError, 0)}
	rowNum := 1
	for {
		rowNum++
		record, err := csvReader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		result.TotalRows++
		if err != nil {
			result.fail(&ImportError{RowNumber: rowNum, Reason: fmt.Sprintf("CSV parsing error: %v", err)})
			continue
		}
		if importErr := i.importRow(ctx, rowNum, header, record, attrs); importErr != nil {
			result.fail(importErr)
			continue
		}
		result.SuccessCount++
	}

	result.Duration = time.Since(startTime)
	zap.S().Infow(result.Summary(), "entityType", i.typeName)
	return result, nil
}

func (r *ImportResult) header() []string {
	return []string{"ROWS", "IMPORTED", "FAILED", "DURATION"}
}

func (r *ImportResult) rows() [][]string {
	return [][]string{{
		strconv.Itoa(r.TotalRows), strconv.Itoa(r.SuccessCount), strconv.Itoa(r.FailedCount), r.Duration.Round(time.Millisecond).String(),
	}}
}

func (r *ImportResult) fail(err *ImportError) {
	zap.S().Warnw("row not imported", "error", err.Error())
	r.FailedCount++
	r.Errors = append(r.Errors, err)
}

// resolveColumns maps every non-name column to an attribute of the type.
func (i *CSVImporter) resolveColumns(ctx context.Context, header []string) (map[string]eav.Attribute, error) {
	types, err := i.store.ListEntityTypes(ctx)
	if err != nil {
		return nil, err
	}
	var typeID int64
	for _, et := range types {
		if et.Name == i.typeName {
			typeID = et.ID
			break
		}
	}
	if typeID == 0 {
		return nil, eav.NewNotFoundError("entity type", i.typeName)
	}

	available, err := i.store.ListAttributes(ctx, typeID, false)
	if err != nil {
		return nil, err
	}
	byName := make(map[string]eav.Attribute, len(available))
	for _, a := range available {
		byName[a.Name] = a
	}

	columns := make(map[string]eav.Attribute, len(header))
	hasName := false
	for _, col := range header {
		if col == i.nameColumn {
			hasName = true
			continue
		}
		a, ok := byName[col]
		if !ok {
			return nil, fmt.Errorf("column %q is not an attribute of %s", col, i.typeName)
		}
		columns[col] = a
	}
	if !hasName {
		return nil, fmt.Errorf("name column %q not found in header", i.nameColumn)
	}
	return columns, nil
}

// importRow creates the entity and its values. A failed value removes the
// entity again so a row is imported whole or not at all.
func (i *CSVImporter) importRow(ctx context.Context, rowNum int, header, record []string, attrs map[string]eav.Attribute) *ImportError {
	cells := make(map[string]string, len(header))
	for idx, col := range header {
		if idx < len(record) {
			cells[col] = record[idx]
		}
	}

	type pending struct {
		column, raw string
		req         eav.CreateValueRequest
	}
	var values []pending
	for _, col := range header {
		a, ok := attrs[col]
		if !ok {
			continue
		}
		for _, raw := range i.split(a, cells[col]) {
			payload, err := parsePayload(a.ValueType, raw, "")
			if err != nil {
				return &ImportError{RowNumber: rowNum, CSVColumn: col, RawValue: raw, Reason: err.Error()}
			}
			values = append(values, pending{column: col, raw: raw, req: eav.CreateValueRequest{AttrID: a.ID, ValuePayload: payload}})
		}
	}

	name := strings.TrimSpace(cells[i.nameColumn])
	entity, err := i.store.CreateEntity(ctx, i.typeName, name)
	if err != nil {
		return &ImportError{RowNumber: rowNum, CSVColumn: i.nameColumn, RawValue: name, Reason: err.Error()}
	}

	for _, v := range values {
		v.req.EntityID = entity.ID
		if _, err := i.store.CreateValue(ctx, &v.req); err != nil {
			if delErr := i.store.DeleteEntity(ctx, entity.ID); delErr != nil {
				zap.S().Errorw("failed to remove partially imported entity", "entity", entity.ID, "error", delErr)
			}
			return &ImportError{RowNumber: rowNum, CSVColumn: v.column, RawValue: v.raw, Reason: err.Error()}
		}
	}
	return nil
}

func (i *CSVImporter) split(a eav.Attribute, cell string) []string {
	if strings.TrimSpace(cell) == "" {
		return nil
	}
	if !a.AllowMultiple || i.separator == "" {
		return []string{cell}
	}
	var parts []string
	for _, p := range strings.Split(cell, i.separator) {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

func newImportCmd() *cobra.Command {
	var (
		nameColumn string
		separator  string
	)
	cmd := &cobra.Command{
		Use:   "import-csv <entity-type-name> <file>",
		Short: "Create one entity per CSV row; columns map to attributes by name",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := os.Open(args[1])
			if err != nil {
				return fmt.Errorf("failed to open CSV file: %w", err)
			}
			defer file.Close()

			return withStore(cmd, func(ctx context.Context, store eav.Store) (any, error) {
				importer := NewCSVImporter(store, args[0], nameColumn, separator)
				result, err := importer.ImportFromReader(ctx, file)
				if err != nil {
					return nil, err
				}
				for _, e := range result.Errors {
					pterm.Warning.Println(e.Error())
				}
				return result, nil
			})
		},
	}
	cmd.Flags().StringVar(&nameColumn, "name-column", "name", "column holding the entity name")
	cmd.Flags().StringVar(&separator, "separator", "|", "splits cells of repeatable attributes")
	return cmd
}
