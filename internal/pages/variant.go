// Package pages turns researched services into block-structured pages.
package pages

import (
	"fmt"
	"strings"

	"github.com/sells-group/roofsite-cli/internal/model"
)

// Page variants.
const (
	VariantPricing    = "pricing"
	VariantShowcase   = "showcase"
	VariantCoating    = "coating"
	VariantRepair     = "repair"
	VariantCommercial = "commercial"
)

// variantRules are checked in order against the lowercased name. Keywords
// are stems so that "Shingling" and "Guttering" match.
var variantRules = []struct {
	variant  string
	keywords []string
}{
	{VariantPricing, []string{"gutter", "foot"}},
	{VariantShowcase, []string{"shingl", "metal", "tile"}},
	{VariantRepair, []string{"repair", "leak", "emergency"}},
	{VariantCommercial, []string{"flat", "tpo", "epdm"}},
}

// Variant classifies a service name into its page variant.
func Variant(name string) string {
	lower := strings.ToLower(name)
	for _, r := range variantRules {
		for _, kw := range r.keywords {
			if strings.Contains(lower, kw) {
				return r.variant
			}
		}
	}
	return VariantCoating
}

// ImagePath is the deterministic location of a page image.
func ImagePath(cat model.Category, id int, slot string) string {
	return fmt.Sprintf("/assets/images/services/%s/%d/%s.jpg", cat, id, slot)
}
