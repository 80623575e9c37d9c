// Package ingestion - Column mapping for workbook sheets
package ingestion

import (
	"strings"

	"mixquote/internal/errors"
	"mixquote/internal/textfold"
)

// CatalogColumns names the catalog sheet headers holding each role
type CatalogColumns struct {
	Code        string `json:"code" mapstructure:"code"`
	Description string `json:"description" mapstructure:"description"`
	Price       string `json:"price" mapstructure:"price"`
}

// RecipeColumns names the recipe sheet headers holding each role
type RecipeColumns struct {
	WorkItem string `json:"work_item" mapstructure:"work_item"`
	ItemCode string `json:"item_code" mapstructure:"item_code"`
	Quantity string `json:"quantity" mapstructure:"quantity"`
	Price    string `json:"price" mapstructure:"price"`
}

// DefaultCatalogColumns matches the headers of the master workbook
func DefaultCatalogColumns() CatalogColumns {
	return CatalogColumns{Code: "Codigo", Description: "Descripcion", Price: "Precio"}
}

// DefaultRecipeColumns matches the headers of the master workbook
func DefaultRecipeColumns() RecipeColumns {
	return RecipeColumns{WorkItem: "Partida", ItemCode: "Codigo", Quantity: "Cantidad", Price: "Precio"}
}

// header indexes a sheet's header row by folded name
type header struct {
	names []string
	index map[string]int
}

func newHeader(row []string) header {
	h := header{names: row, index: make(map[string]int, len(row))}
	for i, name := range row {
		key := textfold.Fold(strings.TrimSpace(name))
		if key == "" {
			continue
		}
		if _, dup := h.index[key]; !dup {
			h.index[key] = i
		}
	}
	return h
}

// find returns the column whose header matches name, ignoring case and accents
func (h header) find(name string) (int, bool) {
	if strings.TrimSpace(name) == "" {
		return -1, false
	}
	i, ok := h.index[textfold.Fold(strings.TrimSpace(name))]
	return i, ok
}

// pick returns the first candidate present in the header
func (h header) pick(candidates ...string) string {
	for _, c := range candidates {
		if i, ok := h.find(c); ok {
			return h.names[i]
		}
	}
	return ""
}

// catalogIndex holds resolved column positions; description may be -1
type catalogIndex struct {
	code, description, price int
}

// recipeIndex holds resolved column positions
type recipeIndex struct {
	workItem, itemCode, quantity, price int
}

func (c CatalogColumns) resolve(sheet string, row []string) (catalogIndex, error) {
	h := newHeader(row)
	idx := catalogIndex{description: -1}
	var missing []string
	var ok bool

	if idx.code, ok = h.find(c.Code); !ok {
		missing = append(missing, "code")
	}
	if idx.price, ok = h.find(c.Price); !ok {
		missing = append(missing, "price")
	}
	if i, found := h.find(c.Description); found {
		idx.description = i
	}

	if len(missing) > 0 {
		return idx, errors.SchemaDetection(sheet, missing)
	}
	return idx, nil
}

func (c RecipeColumns) resolve(sheet string, row []string) (recipeIndex, error) {
	h := newHeader(row)
	var idx recipeIndex
	var missing []string
	var ok bool

	if idx.workItem, ok = h.find(c.WorkItem); !ok {
		missing = append(missing, "work_item")
	}
	if idx.itemCode, ok = h.find(c.ItemCode); !ok {
		missing = append(missing, "item_code")
	}
	if idx.quantity, ok = h.find(c.Quantity); !ok {
		missing = append(missing, "quantity")
	}
	if idx.price, ok = h.find(c.Price); !ok {
		missing = append(missing, "price")
	}

	if len(missing) > 0 {
		return idx, errors.SchemaDetection(sheet, missing)
	}
	return idx, nil
}

// DetectCatalogColumns guesses catalog headers from common names.
// Description falls back to the code column. Unmatched roles are left
// blank and fail at load.
func DetectCatalogColumns(row []string) CatalogColumns {
	h := newHeader(row)
	cols := CatalogColumns{
		Code:        h.pick("codigo", "cod"),
		Description: h.pick("descripcion", "insumo", "nombre"),
		Price:       h.pick("precio", "precio_unitario", "p_unit", "pu"),
	}
	if cols.Description == "" {
		cols.Description = cols.Code
	}
	return cols
}

// DetectRecipeColumns guesses recipe headers from common names. The work
// item falls back to the first column and the item code to the catalog's
// code header.
func DetectRecipeColumns(row []string, catalogCode string) RecipeColumns {
	h := newHeader(row)
	cols := RecipeColumns{
		WorkItem: h.pick("partida", "codigo_partida", "cod_partida", "item", "id_partida"),
		ItemCode: h.pick("codigo", "cod", "codigo_insumo", "cod_insumo"),
		Quantity: h.pick("cantidad", "qty", "cant", "consumo", "coeficiente"),
		Price:    h.pick("precio", "precio_unitario", "pu", "p_unit"),
	}
	if cols.WorkItem == "" && len(row) > 0 {
		cols.WorkItem = row[0]
	}
	if cols.ItemCode == "" {
		cols.ItemCode = catalogCode
	}
	return cols
}
