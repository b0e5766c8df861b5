package assemble

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/roofsite-cli/internal/llm"
	"github.com/sells-group/roofsite-cli/internal/model"
)

// Inputs are the artifacts the payload is built from.
type Inputs struct {
	Profile model.BusinessProfile
	Catalog model.ServiceCatalog
	Reviews []model.ScoredReview
}

// Assembler fills the payload template.
type Assembler struct {
	llm      llm.Client
	template []byte
	seed     uint64
}

// New creates an Assembler. A nil template selects the embedded one; a zero
// seed leaves header choices and the image order unseeded.
func New(c llm.Client, template []byte, seed uint64) *Assembler {
	if c == nil {
		c = llm.Disabled{}
	}
	if template == nil {
		template = defaultTemplate
	}
	return &Assembler{llm: c, template: template, seed: seed}
}

// Assemble returns the completed payload document. Model failures fall
// back to local defaults and are returned as outcomes; an error means the
// template itself is unusable.
func (a *Assembler) Assemble(ctx context.Context, in Inputs) (map[string]any, []model.Outcome, error) {
	doc, err := decodeTemplate(a.template)
	if err != nil {
		return nil, nil, err
	}
	rng := newRand(a.seed)
	var outcomes []model.Outcome
	record := func(o model.Outcome) {
		if o.IsFallback() {
			outcomes = append(outcomes, o)
		}
	}

	p := in.Profile
	mainTitle, subTitle, o := SplitName(ctx, a.llm, p.BusinessName)
	record(o)

	city := City(p.Address)
	if city == "" {
		city = DefaultCity
		record(model.Fallback("assemble.city", model.ReasonNoInput, nil))
	}
	center, o := Geocode(ctx, a.llm, p.Address)
	record(o)

	years := YearsInBusiness(p)
	if !p.YearsInBusiness.Valid || p.YearsInBusiness.Value <= 0 {
		record(model.Fallback("assemble.years", model.ReasonNoInput, nil))
	}
	stats := ComputeStats(years)

	vals := map[string]any{
		"MAIN_TITLE":         mainTitle,
		"SUB_TITLE":          subTitle,
		"BUSINESS_NAME":      p.BusinessName,
		"ADDRESS":            p.Address,
		"PHONE":              p.Phone,
		"WEBSITE":            p.Website,
		"CITY":               city,
		"LAT":                center.Lat,
		"LNG":                center.Lng,
		"YEARS_IN_BUSINESS":  years,
		"CUSTOMERS_SERVED":   stats.CustomersServed,
		"ROOFS_REPAIRED":     stats.RoofsRepaired,
		"COMPLETED_PROJECTS": stats.CompletedProjects,
		"HAPPY_CLIENTS":      stats.HappyClients,
		"TEAM_MEMBERS":       stats.TeamMembers,
		"BOOKING_HEADER":     pick(rng, bookingHeaders),
		"GALLERY_TITLE":      pick(rng, galleryTitles),
		"TEAM_TITLE":         pick(rng, teamTitles),
	}
	leftover := make(map[string]bool)
	substitute(doc, vals, leftover)
	if len(leftover) > 0 {
		zap.L().Warn("assemble: removed unknown template tokens", zap.Strings("tokens", sortedKeys(leftover)))
	}

	for _, cat := range model.Categories() {
		subs, links := ServiceSections(cat, in.Catalog.List(cat))
		if err := setPath(doc, subs, "hero", string(cat), "subServices"); err != nil {
			return nil, nil, err
		}
		if err := setPath(doc, links, "combinedPage", string(cat)+"Services"); err != nil {
			return nil, nil, err
		}
	}

	reviews := TopReviews(in.Reviews)
	if err := setPath(doc, reviews, "reviews"); err != nil {
		return nil, nil, err
	}
	if err := setPath(doc, Employees(p.Employees), "employees", "employee"); err != nil {
		return nil, nil, err
	}

	if !p.Accredited {
		if cards, ok := getPath(doc, "richText", "cards"); ok {
			list, ok := cards.([]any)
			if !ok {
				return nil, nil, eris.New("assemble: richText.cards is not a list")
			}
			if err := setPath(doc, replaceBBBCard(list), "richText", "cards"); err != nil {
				return nil, nil, err
			}
		}
	}

	if images, ok := getPath(doc, "button", "images"); ok {
		if list, ok := images.([]any); ok {
			rng.Shuffle(len(list), func(i, j int) { list[i], list[j] = list[j], list[i] })
		}
	}

	zap.L().Info("assemble: payload built",
		zap.String("main_title", mainTitle),
		zap.String("city", city),
		zap.Int("years", years),
		zap.Int("reviews", len(reviews)),
		zap.Int("fallbacks", len(outcomes)),
	)
	return doc, outcomes, nil
}
