// Package vocab holds the closed service vocabulary, per-category defaults,
// and the keyword tables used when a model is unavailable.
package vocab

import (
	_ "embed"
	"strings"
	"sync"

	"github.com/antzucaro/matchr"
	"github.com/rotisserie/eris"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/roofsite-cli/internal/model"
)

//go:embed vocab.yaml
var embedded []byte

// SnapThreshold is the minimum Jaro-Winkler similarity for a free-text
// name to be snapped onto a vocabulary entry.
const SnapThreshold = 0.92

// FallbackImageCategory is assigned when no keyword matches.
const FallbackImageCategory = "Accessories"

// Vocabulary is the parsed vocab.yaml.
type Vocabulary struct {
	Services        map[model.Category]CategoryNames `yaml:"vocabulary"`
	ImageCategories []KeywordSet                     `yaml:"image_categories"`
}

// CategoryNames lists the permitted names of one category and its default quartet.
type CategoryNames struct {
	Names    []string `yaml:"names"`
	Defaults []string `yaml:"defaults"`
}

// KeywordSet maps an image category to the keywords that select it.
type KeywordSet struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

var (
	defaultOnce sync.Once
	defaultVoc  *Vocabulary
)

// Default returns the embedded vocabulary. It panics if the embedded file
// is invalid, which is a build defect.
func Default() *Vocabulary {
	defaultOnce.Do(func() {
		v, err := Parse(embedded)
		if err != nil {
			panic(err)
		}
		defaultVoc = v
	})
	return defaultVoc
}

// Parse decodes and checks a vocabulary document.
func Parse(data []byte) (*Vocabulary, error) {
	var v Vocabulary
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, eris.Wrap(err, "vocab: parse")
	}
	for _, cat := range model.Categories() {
		cn, ok := v.Services[cat]
		if !ok {
			return nil, eris.Errorf("vocab: missing category %s", cat)
		}
		if len(cn.Defaults) != model.ServicesPerCategory {
			return nil, eris.Errorf("vocab: %s needs %d defaults, got %d", cat, model.ServicesPerCategory, len(cn.Defaults))
		}
		for _, d := range cn.Defaults {
			if !contains(cn.Names, d) {
				return nil, eris.Errorf("vocab: %s default %q not in vocabulary", cat, d)
			}
		}
	}
	if len(v.ImageCategories) == 0 {
		return nil, eris.New("vocab: no image categories")
	}
	return &v, nil
}

// Names returns the permitted service names of cat in vocabulary order.
func (v *Vocabulary) Names(cat model.Category) []string {
	return append([]string(nil), v.Services[cat].Names...)
}

// Defaults returns the default quartet of cat.
func (v *Vocabulary) Defaults(cat model.Category) []string {
	return append([]string(nil), v.Services[cat].Defaults...)
}

// Allowed reports whether name is a permitted service name of cat.
func (v *Vocabulary) Allowed(cat model.Category, name string) bool {
	return contains(v.Services[cat].Names, name)
}

// Canonical maps free text onto the vocabulary entry of cat it names.
// Case and surrounding space are ignored; near misses such as "Metal
// Roofing" snap to "Metal Roof" when similarity reaches SnapThreshold.
func (v *Vocabulary) Canonical(cat model.Category, name string) (string, bool) {
	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return "", false
	}
	best, bestScore := "", 0.0
	for _, n := range v.Services[cat].Names {
		candidate := strings.ToLower(n)
		if candidate == needle {
			return n, true
		}
		if score := matchr.JaroWinkler(needle, candidate, false); score > bestScore {
			best, bestScore = n, score
		}
	}
	if bestScore >= SnapThreshold {
		return best, true
	}
	return "", false
}

// ImageCategoryNames returns the image category names in table order.
func (v *Vocabulary) ImageCategoryNames() []string {
	names := make([]string, len(v.ImageCategories))
	for i, ks := range v.ImageCategories {
		names[i] = ks.Name
	}
	return names
}

// IsImageCategory reports whether name is one of the image categories.
func (v *Vocabulary) IsImageCategory(name string) bool {
	return contains(v.ImageCategoryNames(), name)
}

// CategorizeProduct assigns an image category by keyword. The boolean is
// false when nothing matched and FallbackImageCategory was used.
func (v *Vocabulary) CategorizeProduct(product string) (string, bool) {
	lower := strings.ToLower(product)
	for _, ks := range v.ImageCategories {
		for _, kw := range ks.Keywords {
			if strings.Contains(lower, kw) {
				return ks.Name, true
			}
		}
	}
	return FallbackImageCategory, false
}

var titleCaser = cases.Title(language.English)

// Title title-cases s after collapsing runs of whitespace.
func Title(s string) string {
	return titleCaser.String(strings.Join(strings.Fields(s), " "))
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}
