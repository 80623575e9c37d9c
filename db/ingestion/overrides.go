// Package ingestion - Named price list storage
package ingestion

import (
	"context"
	"encoding/csv"
	stderrors "errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"go.uber.org/zap"

	"mixquote/core/types"
	"mixquote/internal/errors"
	"mixquote/internal/logging"
	"mixquote/internal/textfold"
)

const (
	// DefaultPriceList is the list used when none is named
	DefaultPriceList = "Base_2026"

	overridePrefix = "insumos_overrides__"
	overrideSuffix = ".csv"
)

var validListName = regexp.MustCompile(`^[\w.-]+$`)

// OverrideStore keeps one CSV file per named price list in a directory
type OverrideStore struct {
	dir    string
	logger *zap.Logger
}

// NewOverrideStore creates a store rooted at dir
func NewOverrideStore(dir string, logger *zap.Logger) *OverrideStore {
	return &OverrideStore{dir: dir, logger: logging.OrDefault(logger, "pricelist")}
}

// Path returns the file that holds a price list
func (s *OverrideStore) Path(name string) string {
	return filepath.Join(s.dir, overridePrefix+name+overrideSuffix)
}

// ValidateListName rejects names that cannot be used as file names
func ValidateListName(name string) error {
	if !validListName.MatchString(name) {
		return errors.Newf(errors.TypeInput, "invalid price list name %q (letters, digits, '_', '-', '.')", name)
	}
	return nil
}

// List returns the names of stored price lists, sorted
func (s *OverrideStore) List() ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, overridePrefix+"*"+overrideSuffix))
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		base := filepath.Base(m)
		names = append(names, strings.TrimSuffix(strings.TrimPrefix(base, overridePrefix), overrideSuffix))
	}
	sort.Strings(names)
	return names, nil
}

// Load reads a price list. A list that does not exist yields nil and no
// error, which callers treat as "no overrides".
func (s *OverrideStore) Load(ctx context.Context, name string) ([]types.PriceOverride, error) {
	if err := ValidateListName(name); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(s.Path(name))
	if stderrors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Internal("open price list", err)
	}
	defer f.Close()

	overrides, err := readOverrides(f)
	if err != nil {
		return nil, errors.Parsing(fmt.Sprintf("price list %s", name), err)
	}
	s.logger.Debug("price list loaded", zap.String("list", name), zap.Int("rows", len(overrides)))
	return overrides, nil
}

// Save writes a price list, replacing any previous version
func (s *OverrideStore) Save(ctx context.Context, name string, overrides []types.PriceOverride) error {
	if err := ValidateListName(name); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return errors.Internal("create price list directory", err)
	}

	tmp, err := os.CreateTemp(s.dir, overridePrefix+"*.tmp")
	if err != nil {
		return errors.Internal("create price list file", err)
	}
	defer os.Remove(tmp.Name())

	if err := writeOverrides(tmp, overrides); err != nil {
		tmp.Close()
		return errors.Internal("write price list", err)
	}
	if err := tmp.Close(); err != nil {
		return errors.Internal("write price list", err)
	}
	if err := os.Rename(tmp.Name(), s.Path(name)); err != nil {
		return errors.Internal("replace price list", err)
	}

	s.logger.Info("price list saved", zap.String("list", name), zap.Int("rows", len(overrides)))
	return nil
}

func writeOverrides(w io.Writer, overrides []types.PriceOverride) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"codigo", "descripcion", "precio"}); err != nil {
		return err
	}
	for _, ov := range overrides {
		price := ""
		if ov.Price.Valid {
			price = ov.Price.Decimal.String()
		}
		if err := cw.Write([]string{ov.Code.String(), ov.Description, price}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// readOverrides accepts any header whose code column contains "cod" and
// whose price column contains "precio" or "price"
func readOverrides(r io.Reader) ([]types.PriceOverride, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	if len(rows) == 0 {
		return []types.PriceOverride{}, nil
	}

	codeCol, descCol, priceCol := -1, -1, -1
	for i, h := range rows[0] {
		name := textfold.Fold(strings.TrimSpace(h))
		switch {
		case codeCol < 0 && strings.Contains(name, "cod"):
			codeCol = i
		case priceCol < 0 && (strings.Contains(name, "precio") || strings.Contains(name, "price")):
			priceCol = i
		case descCol < 0 && strings.Contains(name, "desc"):
			descCol = i
		}
	}
	if codeCol < 0 || priceCol < 0 {
		return nil, fmt.Errorf("header %v has no code or price column", rows[0])
	}

	overrides := make([]types.PriceOverride, 0, len(rows)-1)
	for n, row := range rows[1:] {
		price, err := ParsePrice(cell(row, priceCol))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", n+2, err)
		}
		overrides = append(overrides, types.PriceOverride{
			Code:        types.ItemCode(cell(row, codeCol)),
			Description: cell(row, descCol),
			Price:       price,
		})
	}
	return overrides, nil
}
