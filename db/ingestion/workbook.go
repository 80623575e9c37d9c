// Package ingestion - Excel workbook catalog source
package ingestion

import (
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"mixquote/core/types"
	"mixquote/internal/errors"
	"mixquote/internal/logging"
)

const (
	// DefaultCatalogSheet is the catalog sheet of the master workbook
	DefaultCatalogSheet = "Insumos_Limpio"

	// DefaultRecipeSheet is the recipe (ACU) sheet of the master workbook
	DefaultRecipeSheet = "ACU_Detalle_Limpio"
)

// WorkbookConfig locates the sheets and columns of a master workbook
type WorkbookConfig struct {
	Path           string
	CatalogSheet   string
	RecipeSheet    string
	CatalogColumns CatalogColumns
	RecipeColumns  RecipeColumns

	// DetectColumns guesses headers from common names instead of using
	// the explicit column mapping
	DetectColumns bool
}

// WorkbookSource reads catalog and recipe sheets from an .xlsx file
type WorkbookSource struct {
	cfg    WorkbookConfig
	logger *zap.Logger
}

// NewWorkbookSource creates a workbook source; blank sheet names and
// columns take the master workbook defaults
func NewWorkbookSource(cfg WorkbookConfig, logger *zap.Logger) *WorkbookSource {
	if cfg.CatalogSheet == "" {
		cfg.CatalogSheet = DefaultCatalogSheet
	}
	if cfg.RecipeSheet == "" {
		cfg.RecipeSheet = DefaultRecipeSheet
	}
	if cfg.CatalogColumns == (CatalogColumns{}) {
		cfg.CatalogColumns = DefaultCatalogColumns()
	}
	if cfg.RecipeColumns == (RecipeColumns{}) {
		cfg.RecipeColumns = DefaultRecipeColumns()
	}
	return &WorkbookSource{cfg: cfg, logger: logging.OrDefault(logger, "workbook")}
}

// Path returns the workbook file path
func (w *WorkbookSource) Path() string {
	return w.cfg.Path
}

// rows reads a sheet as raw cell values, header first
func (w *WorkbookSource) rows(ctx context.Context, sheet string) ([][]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := excelize.OpenFile(w.cfg.Path)
	if err != nil {
		return nil, errors.Wrapf(errors.TypeNotFound, err, "open workbook %s", w.cfg.Path)
	}
	defer f.Close()

	if idx, _ := f.GetSheetIndex(sheet); idx < 0 {
		return nil, errors.NotFound("sheet", sheet).
			WithContext("available", f.GetSheetList())
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, errors.Parsing(fmt.Sprintf("read sheet %s", sheet), err)
	}
	if len(rows) == 0 {
		return nil, errors.SchemaDetection(sheet, []string{"header row"})
	}
	return rows, nil
}

// Sheets lists the sheet names of the workbook
func (w *WorkbookSource) Sheets() ([]string, error) {
	f, err := excelize.OpenFile(w.cfg.Path)
	if err != nil {
		return nil, errors.Wrapf(errors.TypeNotFound, err, "open workbook %s", w.cfg.Path)
	}
	defer f.Close()
	return f.GetSheetList(), nil
}

// catalogColumns returns the mapping in effect for a catalog header row
func (w *WorkbookSource) catalogColumns(headerRow []string) CatalogColumns {
	if w.cfg.DetectColumns {
		return DetectCatalogColumns(headerRow)
	}
	return w.cfg.CatalogColumns
}

// LoadCatalog reads the catalog sheet. Rows without a code are skipped.
// A blank price cell is an undefined price.
func (w *WorkbookSource) LoadCatalog(ctx context.Context) ([]types.CatalogEntry, error) {
	sheet := w.cfg.CatalogSheet
	rows, err := w.rows(ctx, sheet)
	if err != nil {
		return nil, err
	}

	cols := w.catalogColumns(rows[0])
	idx, err := cols.resolve(sheet, rows[0])
	if err != nil {
		return nil, err
	}

	entries := make([]types.CatalogEntry, 0, len(rows)-1)
	for n, row := range rows[1:] {
		code := types.ItemCode(cell(row, idx.code)).Normalize()
		if code == "" {
			continue
		}
		price, err := ParsePrice(cell(row, idx.price))
		if err != nil {
			return nil, rowError(sheet, n+2, cols.Price, err)
		}
		entries = append(entries, types.CatalogEntry{
			Code:        code,
			Description: strings.TrimSpace(cell(row, idx.description)),
			BasePrice:   price,
		})
	}

	w.logger.Debug("catalog loaded", zap.String("sheet", sheet), zap.Int("items", len(entries)))
	return entries, nil
}

// LoadRecipe reads the recipe sheet. Rows without a work item or item
// code are skipped. A blank quantity is an error; a blank price is an
// undefined recipe price.
func (w *WorkbookSource) LoadRecipe(ctx context.Context) ([]types.RecipeLine, error) {
	sheet := w.cfg.RecipeSheet
	rows, err := w.rows(ctx, sheet)
	if err != nil {
		return nil, err
	}

	cols := w.cfg.RecipeColumns
	if w.cfg.DetectColumns {
		catalogCode := ""
		if catRows, err := w.rows(ctx, w.cfg.CatalogSheet); err == nil {
			catalogCode = w.catalogColumns(catRows[0]).Code
		}
		cols = DetectRecipeColumns(rows[0], catalogCode)
	}
	idx, err := cols.resolve(sheet, rows[0])
	if err != nil {
		return nil, err
	}

	lines := make([]types.RecipeLine, 0, len(rows)-1)
	for n, row := range rows[1:] {
		work := strings.TrimSpace(cell(row, idx.workItem))
		code := types.ItemCode(cell(row, idx.itemCode)).Normalize()
		if work == "" || code == "" {
			continue
		}
		qty, err := ParseQuantity(cell(row, idx.quantity))
		if err != nil {
			return nil, rowError(sheet, n+2, cols.Quantity, err)
		}
		price, err := ParsePrice(cell(row, idx.price))
		if err != nil {
			return nil, rowError(sheet, n+2, cols.Price, err)
		}
		lines = append(lines, types.RecipeLine{
			WorkItem:    types.WorkItemID(work),
			ItemCode:    code,
			Quantity:    qty,
			RecipePrice: price,
		})
	}

	w.logger.Debug("recipe loaded", zap.String("sheet", sheet), zap.Int("lines", len(lines)))
	return lines, nil
}

// cell returns a trimmed cell value; short rows read as blank
func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func rowError(sheet string, row int, column string, cause error) error {
	return errors.Wrapf(errors.TypeParsing, cause, "sheet %s row %d column %s", sheet, row, column).
		WithContext("sheet", sheet).
		WithContext("row", row)
}
