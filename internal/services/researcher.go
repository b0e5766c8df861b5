package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/roofsite-cli/internal/llm"
	"github.com/sells-group/roofsite-cli/internal/model"
)

const researchMaxTokens = 3000

// Section is one of the seven research headings.
type Section struct {
	Number int
	Title  string
	set    func(*model.Research, string)
	re     *regexp.Regexp
}

// Marker is the literal heading requested from the model.
func (s Section) Marker() string {
	return fmt.Sprintf("## **%d. %s**", s.Number, s.Title)
}

func newSection(n int, title string, set func(*model.Research, string)) Section {
	// Accept the heading with or without markdown emphasis, any heading
	// level, and a trailing colon.
	pattern := fmt.Sprintf(`(?im)^[ \t]*#{0,4}[ \t]*\**[ \t]*%d\.[ \t]*%s[ \t]*:?[ \t]*\**[ \t]*:?[ \t\r]*$`,
		n, regexp.QuoteMeta(title))
	return Section{Number: n, Title: title, set: set, re: regexp.MustCompile(pattern)}
}

// Sections lists the research headings in report order.
var Sections = []Section{
	newSection(1, "Construction Process", func(r *model.Research, s string) { r.ConstructionProcess = s }),
	newSection(2, "Variants", func(r *model.Research, s string) { r.Variants = s }),
	newSection(3, "Repair and Maintenance", func(r *model.Research, s string) { r.RepairMaintenance = s }),
	newSection(4, "Sales and Supply", func(r *model.Research, s string) { r.SalesSupply = s }),
	newSection(5, "Advantages", func(r *model.Research, s string) { r.Advantages = s }),
	newSection(6, "Marketing", func(r *model.Research, s string) { r.Marketing = s }),
	newSection(7, "Warranty and Lifespan", func(r *model.Research, s string) { r.WarrantyLifespan = s }),
}

// PlaceholderSection is the text stored for a section the model omitted.
func PlaceholderSection(name string) string {
	return "** \n\nSection placeholder for " + name
}

// PlaceholderResearch fills every section with the placeholder.
func PlaceholderResearch(name string) model.Research {
	var r model.Research
	for _, s := range Sections {
		s.set(&r, PlaceholderSection(name))
	}
	return r
}

// ParseSections splits a report into the seven sections. Each section runs
// from its heading to the next heading found after it. It returns the
// number of sections that were missing or empty.
func ParseSections(text, name string) (model.Research, int) {
	type hit struct{ start, end int }
	hits := make([]*hit, len(Sections))
	for i, s := range Sections {
		if loc := s.re.FindStringIndex(text); loc != nil {
			hits[i] = &hit{start: loc[0], end: loc[1]}
		}
	}

	var r model.Research
	missing := 0
	for i, s := range Sections {
		h := hits[i]
		if h == nil {
			s.set(&r, PlaceholderSection(name))
			missing++
			continue
		}
		stop := len(text)
		for j, other := range hits {
			if j != i && other != nil && other.start >= h.end && other.start < stop {
				stop = other.start
			}
		}
		body := strings.TrimSpace(text[h.end:stop])
		if body == "" {
			body = PlaceholderSection(name)
			missing++
		}
		s.set(&r, body)
	}
	return r, missing
}

// Researcher produces the seven research sections for every service.
type Researcher struct {
	llm llm.Client
}

// NewResearcher creates a Researcher. Request spacing comes from the
// client; see llm.Paced.
func NewResearcher(c llm.Client) *Researcher {
	return &Researcher{llm: c}
}

// Research researches every service of the catalog in catalog order.
func (r *Researcher) Research(ctx context.Context, catalog model.ServiceCatalog) (model.ServiceResearch, []model.Outcome) {
	var out model.ServiceResearch
	var outcomes []model.Outcome
	for _, cat := range model.Categories() {
		list := catalog.List(cat)
		researched := make([]model.ResearchedService, 0, len(list))
		for _, svc := range list {
			res, o := r.researchOne(ctx, cat, svc)
			if o.IsFallback() {
				outcomes = append(outcomes, o)
			}
			researched = append(researched, model.ResearchedService{Service: svc, Research: res})
		}
		if cat == model.CategoryCommercial {
			out.Commercial = researched
		} else {
			out.Residential = researched
		}
	}
	return out, outcomes
}

func (r *Researcher) researchOne(ctx context.Context, cat model.Category, svc model.Service) (model.Research, model.Outcome) {
	scope := fmt.Sprintf("research.%s", model.Slug(cat, svc.ID, svc.Name))
	text, o := llm.QueryText(ctx, r.llm, scope, researchPrompt(cat, svc.Name), researchMaxTokens)
	if o.IsFallback() {
		return PlaceholderResearch(svc.Name), o
	}
	res, missing := ParseSections(text, svc.Name)
	if missing > 0 {
		zap.L().Warn("services: research is missing sections",
			zap.String("service", svc.Name),
			zap.Int("missing", missing),
		)
		return res, model.Fallback(scope, model.ReasonParse, eris.Errorf("services: %d of %d sections missing", missing, len(Sections)))
	}
	return res, model.OK()
}

func researchPrompt(cat model.Category, name string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write a concise research brief about the %s roofing service %q for a contractor's website team.\n", cat, name)
	b.WriteString("Use exactly these seven headings, in this order, each on its own line:\n")
	for _, s := range Sections {
		b.WriteString(s.Marker())
		b.WriteByte('\n')
	}
	b.WriteString("Under each heading write 80 to 150 words of plain prose. Do not add other headings.")
	return b.String()
}
