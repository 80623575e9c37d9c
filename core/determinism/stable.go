// Package determinism identifies pricing snapshots by content.
// Two quotes carrying the same fingerprint were priced from identical
// catalog, override and recipe data.
package determinism

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"

	"github.com/shopspring/decimal"

	"mixquote/core/pricing"
	"mixquote/core/types"
)

// ContentHash is a SHA-256 hash for content integrity
type ContentHash [32]byte

// Hex returns the hash as a hex string
func (h ContentHash) Hex() string {
	return hex.EncodeToString(h[:])
}

// Short returns the first 16 hex characters
func (h ContentHash) Short() string {
	return h.Hex()[:16]
}

// String implements Stringer
func (h ContentHash) String() string {
	return h.Short() + "..."
}

// Fingerprinter accumulates snapshot fields into a hash.
// Fields are separated by NUL so adjacent values cannot run together.
type Fingerprinter struct {
	h hash.Hash
}

// NewFingerprinter creates a fingerprinter under a namespace
func NewFingerprinter(namespace string) *Fingerprinter {
	f := &Fingerprinter{h: sha256.New()}
	f.write(namespace)
	return f
}

func (f *Fingerprinter) write(parts ...string) {
	for _, part := range parts {
		f.h.Write([]byte(part))
		f.h.Write([]byte{0})
	}
}

// Section starts a named group of records
func (f *Fingerprinter) Section(name string, count int) {
	f.write("#"+name, fmt.Sprint(count))
}

// Record adds one record
func (f *Fingerprinter) Record(parts ...string) {
	f.write(parts...)
}

// Sum returns the accumulated hash
func (f *Fingerprinter) Sum() ContentHash {
	var out ContentHash
	copy(out[:], f.h.Sum(nil))
	return out
}

// nullString renders a missing price distinctly from zero.
// decimal.String drops trailing zeros, so 8 and 8.00 render alike.
func nullString(d decimal.NullDecimal) string {
	if !d.Valid {
		return "-"
	}
	return d.Decimal.String()
}

// Fingerprint hashes a pricing snapshot.
//
// Catalog and recipe rows are hashed in source order, since catalog order
// decides which duplicate wins. Overrides are collapsed first, so lists that
// resolve identically fingerprint identically. A nil override list differs
// from an empty one.
func Fingerprint(catalog []types.CatalogEntry, overrides []types.PriceOverride, recipe []types.RecipeLine) ContentHash {
	f := NewFingerprinter("mixquote/snapshot/v1")

	f.Section("catalog", len(catalog))
	for _, c := range catalog {
		f.Record(c.Code.Normalize().String(), nullString(c.BasePrice))
	}

	if overrides == nil {
		f.Section("overrides", -1)
	} else {
		collapsed := pricing.CollapseOverrides(overrides)
		f.Section("overrides", len(collapsed))
		for _, ov := range collapsed {
			f.Record(ov.Code.String(), nullString(ov.Price))
		}
	}

	f.Section("recipe", len(recipe))
	for _, l := range recipe {
		f.Record(l.WorkItem.String(), l.ItemCode.Normalize().String(),
			l.Quantity.String(), nullString(l.RecipePrice))
	}
	return f.Sum()
}
