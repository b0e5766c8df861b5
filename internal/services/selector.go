// Package services selects the offered services from the closed vocabulary
// and researches each one.
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/roofsite-cli/internal/llm"
	"github.com/sells-group/roofsite-cli/internal/model"
	"github.com/sells-group/roofsite-cli/internal/vocab"
)

const selectorMaxTokens = 600

// Selector picks four services per category, biased by profile hints.
type Selector struct {
	llm   llm.Client
	vocab *vocab.Vocabulary
}

// NewSelector creates a Selector.
func NewSelector(c llm.Client, v *vocab.Vocabulary) *Selector {
	return &Selector{llm: c, vocab: v}
}

// entry accepts either "Name" or {"id": n, "name": "Name"}.
type entry struct {
	Name string
}

func (e *entry) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		return json.Unmarshal(b, &e.Name)
	}
	var obj struct {
		Name  string `json:"name"`
		Title string `json:"title"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return err
	}
	e.Name = obj.Name
	if e.Name == "" {
		e.Name = obj.Title
	}
	return nil
}

type selection struct {
	Residential []entry `json:"residential"`
	Commercial  []entry `json:"commercial"`
}

func (s selection) list(cat model.Category) []entry {
	if cat == model.CategoryCommercial {
		return s.Commercial
	}
	return s.Residential
}

// Select returns the catalog and the fallbacks taken. current holds the
// names already published for each category, if any. It never fails:
// every problem degrades to defaults slot by slot.
func (s *Selector) Select(ctx context.Context, profile *model.BusinessProfile, current map[model.Category][]string) (model.ServiceCatalog, []model.Outcome) {
	if len(hints(profile)) == 0 {
		zap.L().Info("services: profile has no service hints, using defaults")
		return s.defaults(), []model.Outcome{model.Fallback("services", model.ReasonNoInput, nil)}
	}

	var sel selection
	o := llm.QueryJSON(ctx, s.llm, "services", s.prompt(profile, current), selectorMaxTokens, &sel)
	if o.IsFallback() {
		return s.defaults(), []model.Outcome{o}
	}

	var catalog model.ServiceCatalog
	var outcomes []model.Outcome
	for _, cat := range model.Categories() {
		list, replaced := s.validate(cat, sel.list(cat))
		catalog.Set(cat, list)
		outcomes = append(outcomes, replaced...)
	}
	return catalog, outcomes
}

// validate keeps each proposed name that is in the vocabulary and not a
// repeat; any other slot takes the default at the same index, or the next
// unused default or vocabulary name if that default is taken.
func (s *Selector) validate(cat model.Category, proposed []entry) ([]model.Service, []model.Outcome) {
	defaults := s.vocab.Defaults(cat)
	used := map[string]bool{}
	names := make([]string, model.ServicesPerCategory)
	var outcomes []model.Outcome

	for i := range names {
		var raw string
		if i < len(proposed) {
			raw = proposed[i].Name
		}
		if name, ok := s.vocab.Canonical(cat, raw); ok && !used[name] {
			names[i] = name
			used[name] = true
			continue
		}
		scope := fmt.Sprintf("services.%s[%d]", cat, i)
		zap.L().Warn("services: replacing invalid selection with default",
			zap.String("slot", scope),
			zap.String("proposed", raw),
		)
		outcomes = append(outcomes, model.Fallback(scope, model.ReasonValidation,
			eris.Errorf("services: %q is not an unused %s service", raw, cat)))
	}

	candidates := append([]string{}, defaults...)
	candidates = append(candidates, s.vocab.Names(cat)...)
	for i, n := range names {
		if n != "" {
			continue
		}
		pick := defaults[i]
		if used[pick] {
			for _, c := range candidates {
				if !used[c] {
					pick = c
					break
				}
			}
		}
		names[i] = pick
		used[pick] = true
	}

	list := make([]model.Service, len(names))
	for i, n := range names {
		list[i] = model.Service{ID: i + 1, Name: n}
	}
	return list, outcomes
}

func (s *Selector) defaults() model.ServiceCatalog {
	var c model.ServiceCatalog
	for _, cat := range model.Categories() {
		names := s.vocab.Defaults(cat)
		list := make([]model.Service, len(names))
		for i, n := range names {
			list[i] = model.Service{ID: i + 1, Name: n}
		}
		c.Set(cat, list)
	}
	return c
}

func (s *Selector) prompt(profile *model.BusinessProfile, current map[model.Category][]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are choosing the services a roofing contractor named %q will feature on its website.\n\n", profile.BusinessName)
	fmt.Fprintf(&b, "Services the business lists on its BBB profile: %s\n\n", strings.Join(hints(profile), "; "))
	for _, cat := range model.Categories() {
		fmt.Fprintf(&b, "Permitted %s service names: %s\n", cat, strings.Join(s.vocab.Names(cat), ", "))
		if cur := current[cat]; len(cur) > 0 {
			fmt.Fprintf(&b, "Currently selected %s services: %s\n", cat, strings.Join(cur, ", "))
		}
	}
	b.WriteString("\nPick exactly 4 residential and 4 commercial services that best match the business. ")
	b.WriteString("Use only the permitted names, spelled exactly as given, with no repeats within a category. ")
	b.WriteString("Respond with only this JSON object:\n")
	b.WriteString(`{"residential": [{"id": 1, "name": "..."}, {"id": 2, "name": "..."}, {"id": 3, "name": "..."}, {"id": 4, "name": "..."}], `)
	b.WriteString(`"commercial": [{"id": 1, "name": "..."}, {"id": 2, "name": "..."}, {"id": 3, "name": "..."}, {"id": 4, "name": "..."}]}`)
	return b.String()
}

func hints(p *model.BusinessProfile) []string {
	if p == nil {
		return nil
	}
	var out []string
	for _, h := range p.Services {
		if h = strings.TrimSpace(h); h != "" {
			out = append(out, h)
		}
	}
	return out
}

// CurrentSelection filters previously published names to the vocabulary.
func CurrentSelection(v *vocab.Vocabulary, published map[model.Category][]string) map[model.Category][]string {
	out := map[model.Category][]string{}
	for cat, names := range published {
		for _, n := range names {
			if canon, ok := v.Canonical(cat, n); ok {
				out[cat] = append(out[cat], canon)
			}
		}
	}
	return out
}
