package pages

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/roofsite-cli/internal/llm"
	"github.com/sells-group/roofsite-cli/internal/model"
)

const pageMaxTokens = 1500

// Builder generates service pages from researched services.
type Builder struct {
	llm         llm.Client
	allowPrices bool
}

// NewBuilder creates a Builder. Pricing-variant pages only show numeric
// prices when allowPrices is set.
func NewBuilder(c llm.Client, allowPrices bool) *Builder {
	if c == nil {
		c = llm.Disabled{}
	}
	return &Builder{llm: c, allowPrices: allowPrices}
}

// Build returns one page per researched service in category then id order.
func (b *Builder) Build(ctx context.Context, research model.ServiceResearch) ([]model.ServicePage, []model.Outcome) {
	var pages []model.ServicePage
	var outcomes []model.Outcome
	for _, cat := range model.Categories() {
		for _, svc := range research.List(cat) {
			page, o := b.Page(ctx, cat, svc)
			pages = append(pages, page)
			if o.IsFallback() {
				outcomes = append(outcomes, o)
			}
		}
	}
	return pages, outcomes
}

// Page builds the page for one service.
func (b *Builder) Page(ctx context.Context, cat model.Category, svc model.ResearchedService) (model.ServicePage, model.Outcome) {
	slug := model.Slug(cat, svc.ID, svc.Name)
	variant := Variant(svc.Name)
	scope := "pages." + slug

	var c Copy
	o := llm.QueryJSON(ctx, b.llm, scope, b.prompt(cat, svc, variant), pageMaxTokens, &c)
	if merge(&c, fallbackCopy(cat, svc), variant) && !o.IsFallback() {
		o = model.Fallback(scope, model.ReasonValidation, nil)
		zap.L().Debug("page copy incomplete, filled from template", zap.String("slug", slug))
	}

	return model.ServicePage{
		ID:       svc.ID,
		Name:     svc.Name,
		Category: cat,
		Slug:     slug,
		Variant:  variant,
		Blocks:   b.blocks(cat, svc.Service, variant, c),
	}, o
}

func (b *Builder) blocks(cat model.Category, svc model.Service, variant string, c Copy) []model.Block {
	img := func(slot string) string { return ImagePath(cat, svc.ID, slot) }
	lower := strings.ToLower(svc.Name)

	blocks := []model.Block{
		{
			BlockName: model.BlockHero,
			Config: map[string]any{
				"title":    svc.Name,
				"subtitle": c.HeroSubtitle,
			},
			SearchTerms: []string{lower + " roof", fmt.Sprintf("%s %s roofing", cat, lower)},
			ImagePath:   img("hero"),
		},
		{
			BlockName: model.BlockHeaderBanner,
			Config: map[string]any{
				"title":       c.IntroTitle,
				"description": c.IntroDescription,
			},
		},
		{
			BlockName: model.BlockGridImageText,
			Config: map[string]any{
				"title": "Why Choose Us",
				"items": featureItems(c.Features),
			},
			SearchTerms: []string{lower + " contractor"},
			ImagePath:   img("intro"),
		},
	}

	switch variant {
	case VariantShowcase, VariantCommercial:
		blocks = append(blocks, b.showcase(svc, c, img)...)
	case VariantPricing:
		blocks = append(blocks, b.pricing(svc, c))
	default:
		blocks = append(blocks, model.Block{
			BlockName: model.BlockListDropdown,
			Config: map[string]any{
				"title": svc.Name + " Services",
				"items": titledItems(c.Options),
			},
		})
	}

	steps := make([]map[string]any, len(c.Steps))
	for i, s := range c.Steps {
		steps[i] = map[string]any{"number": i + 1, "title": s.Title, "description": s.Description}
	}
	faqs := make([]map[string]any, len(c.FAQ))
	for i, f := range c.FAQ {
		faqs[i] = map[string]any{"question": f.Question, "answer": f.Answer}
	}

	return append(blocks,
		model.Block{
			BlockName: model.BlockProcessSteps,
			Config:    map[string]any{"title": "Our " + svc.Name + " Process", "steps": steps},
		},
		model.Block{
			BlockName: model.BlockFAQ,
			Config:    map[string]any{"title": "Frequently Asked Questions", "faqs": faqs},
		},
		model.Block{
			BlockName: model.BlockActionButton,
			Config: map[string]any{
				"title":      "Schedule Your " + svc.Name + " Estimate",
				"buttonText": "Get a Free Quote",
				"link":       "/#book",
			},
		},
		model.Block{
			BlockName: model.BlockVideoCTA,
			Config: map[string]any{
				"title":       c.CTATitle,
				"description": c.CTADescription,
				"buttonText":  "Contact Us",
				"link":        "/contact",
			},
			SearchTerms: []string{lower + " project"},
			ImagePath:   img("cta"),
		},
	)
}

func (b *Builder) showcase(svc model.Service, c Copy, img func(string) string) []model.Block {
	items := make([]map[string]any, len(c.Materials))
	rows := make([][]string, len(c.Materials))
	for i, m := range c.Materials {
		items[i] = map[string]any{
			"title":       m.Title,
			"description": m.Description,
			"imagePath":   img(fmt.Sprintf("material-%d", i+1)),
		}
		rows[i] = []string{m.Title, m.Description}
	}
	return []model.Block{
		{
			BlockName:   model.BlockMaterialShowcase,
			Config:      map[string]any{"title": svc.Name + " Options", "items": items},
			SearchTerms: []string{strings.ToLower(svc.Name) + " materials"},
		},
		{
			BlockName: model.BlockComparisonTable,
			Config: map[string]any{
				"title":   "Compare " + svc.Name + " Options",
				"columns": []string{"Option", "Details"},
				"rows":    rows,
			},
		},
	}
}

func (b *Builder) pricing(svc model.Service, c Copy) model.Block {
	tiers := make([]map[string]any, len(c.Tiers))
	for i, t := range c.Tiers {
		tier := map[string]any{
			"name":        t.Name,
			"description": t.Description,
			"features":    nonNil(t.Features),
		}
		if b.allowPrices {
			price := t.Price
			if price == "" {
				price = "Call for quote"
			}
			tier["price"] = price
		}
		tiers[i] = tier
	}
	if b.allowPrices {
		return model.Block{
			BlockName: model.BlockPricingGrid,
			Config:    map[string]any{"title": svc.Name + " Pricing", "tiers": tiers},
		}
	}
	return model.Block{
		BlockName: model.BlockPricingOptions,
		Config:    map[string]any{"title": svc.Name + " Packages", "showPrices": false, "options": tiers},
	}
}

func (b *Builder) prompt(cat model.Category, svc model.ResearchedService, variant string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Write website copy for a roofing contractor's %s %q service page.\n", cat, svc.Name)
	sb.WriteString("Return only a JSON object with these keys:\n")
	sb.WriteString(`hero_subtitle (one short sentence), intro_title, intro_description (20 to 50 words), `)
	sb.WriteString(`features (4 short strings), process_steps (4 objects with title and description), `)
	sb.WriteString(`faq (4 objects with question and answer), cta_title, cta_description`)
	switch variant {
	case VariantShowcase, VariantCommercial:
		sb.WriteString(`, materials (3 objects with title and description)`)
	case VariantPricing:
		sb.WriteString(`, tiers (3 objects with name, description, features`)
		if b.allowPrices {
			sb.WriteString(`, price`)
		}
		sb.WriteString(`)`)
	default:
		sb.WriteString(`, options (3 objects with title and description)`)
	}
	sb.WriteString(".\n")
	if !b.allowPrices {
		sb.WriteString("Do not mention prices or dollar amounts.\n")
	}
	if adv := svc.Research.Advantages; adv != "" && !strings.Contains(adv, "Section placeholder for") {
		sb.WriteString("\nBackground:\n")
		sb.WriteString(adv)
		sb.WriteString("\n")
	}
	return sb.String()
}

func featureItems(features []string) []map[string]any {
	out := make([]map[string]any, len(features))
	for i, f := range features {
		out[i] = map[string]any{"title": f}
	}
	return out
}

func titledItems(items []Titled) []map[string]any {
	out := make([]map[string]any, len(items))
	for i, it := range items {
		out[i] = map[string]any{"title": it.Title, "description": it.Description}
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
