package pages

import (
	"fmt"
	"strings"

	"github.com/sells-group/roofsite-cli/internal/model"
)

// Titled is a title with a short description.
type Titled struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// QA is one FAQ entry.
type QA struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Tier is one pricing or service option.
type Tier struct {
	Name        string   `json:"name"`
	Price       string   `json:"price"`
	Description string   `json:"description"`
	Features    []string `json:"features"`
}

// Copy is the generated text of one page.
type Copy struct {
	HeroSubtitle     string   `json:"hero_subtitle"`
	IntroTitle       string   `json:"intro_title"`
	IntroDescription string   `json:"intro_description"`
	Features         []string `json:"features"`
	Steps            []Titled `json:"process_steps"`
	FAQ              []QA     `json:"faq"`
	Options          []Titled `json:"options"`
	Materials        []Titled `json:"materials"`
	Tiers            []Tier   `json:"tiers"`
	CTATitle         string   `json:"cta_title"`
	CTADescription   string   `json:"cta_description"`
}

const (
	minDescriptionWords = 20
	maxDescriptionWords = 50
)

// fallbackCopy is the templated copy used when the model is unavailable or
// leaves a field empty. Research prose is used where it exists.
func fallbackCopy(cat model.Category, svc model.ResearchedService) Copy {
	name := svc.Name
	lower := strings.ToLower(name)
	intro := fromResearch(svc.Research.Advantages, fmt.Sprintf(
		"Our %s %s service is handled start to finish by experienced local crews. We inspect, plan, and install with quality materials, keep your property clean, and stand behind every job with a written warranty.",
		cat, lower))
	return Copy{
		HeroSubtitle:     fmt.Sprintf("Trusted %s %s by local roofing professionals", cat, lower),
		IntroTitle:       fmt.Sprintf("Professional %s", name),
		IntroDescription: intro,
		Features: []string{
			"Free on-site inspection and estimate",
			"Licensed and insured crews",
			"Quality materials from trusted manufacturers",
			"Written workmanship warranty",
		},
		Steps: []Titled{
			{"Inspection", fmt.Sprintf("We assess your roof and discuss your %s goals.", lower)},
			{"Proposal", "You receive a clear written scope, timeline, and estimate."},
			{"Installation", fmt.Sprintf("Our crew completes the %s work safely and efficiently.", lower)},
			{"Final Walkthrough", "We review the finished work with you and clean up the site."},
		},
		FAQ: []QA{
			{fmt.Sprintf("How long does %s take?", lower), "Most projects are completed within a few days, depending on size and weather."},
			{fmt.Sprintf("Is %s covered by a warranty?", lower), fmt.Sprintf("Yes. Our %s work includes a workmanship warranty in addition to the manufacturer's coverage.", lower)},
			{"Do you offer free estimates?", "Yes. We provide a free inspection and a written estimate before any work begins."},
			{"Are you licensed and insured?", "Yes. Our crews are fully licensed and insured for your protection."},
		},
		Options: []Titled{
			{fmt.Sprintf("%s Inspection", name), "A detailed assessment of current condition and needs."},
			{fmt.Sprintf("%s Repair", name), "Targeted fixes that restore performance and stop damage."},
			{fmt.Sprintf("Full %s", name), "Complete installation or replacement with new materials."},
		},
		Materials: []Titled{
			{"Standard Grade", fmt.Sprintf("Dependable %s materials for everyday protection.", lower)},
			{"Premium Grade", "Upgraded materials with longer lifespan and better appearance."},
			{"High Performance", "Top-tier products for demanding weather and maximum durability."},
		},
		Tiers: []Tier{
			{Name: "Essential", Price: "Call for quote", Description: "Core service for straightforward projects.", Features: []string{"Inspection", "Standard materials"}},
			{Name: "Preferred", Price: "Call for quote", Description: "Our most popular package.", Features: []string{"Inspection", "Upgraded materials", "Extended warranty"}},
			{Name: "Premium", Price: "Call for quote", Description: "Complete protection with premium products.", Features: []string{"Inspection", "Premium materials", "Lifetime workmanship warranty"}},
		},
		CTATitle:       fmt.Sprintf("Ready to Start Your %s Project?", name),
		CTADescription: "Contact our team today for a free, no-obligation estimate.",
	}
}

// fromResearch returns research prose trimmed to the description word
// range, or def when the research is a placeholder or too short.
func fromResearch(text, def string) string {
	if strings.Contains(text, "Section placeholder for") {
		return def
	}
	words := strings.Fields(strings.NewReplacer("*", "", "#", "").Replace(text))
	if len(words) < minDescriptionWords {
		return def
	}
	if len(words) > maxDescriptionWords {
		words = words[:maxDescriptionWords]
		return strings.TrimRight(strings.Join(words, " "), ",;:") + "..."
	}
	return strings.Join(words, " ")
}

// merge fills every empty field of c from def and reports whether any field
// the variant asked the model for was filled.
func merge(c *Copy, def Copy, variant string) bool {
	filled := false
	str := func(dst *string, v string) {
		if strings.TrimSpace(*dst) == "" {
			*dst = v
			filled = true
		}
	}
	str(&c.HeroSubtitle, def.HeroSubtitle)
	str(&c.IntroTitle, def.IntroTitle)
	str(&c.IntroDescription, def.IntroDescription)
	str(&c.CTATitle, def.CTATitle)
	str(&c.CTADescription, def.CTADescription)
	if len(c.Features) == 0 {
		c.Features, filled = def.Features, true
	}
	if !completeTitled(c.Steps) {
		c.Steps, filled = def.Steps, true
	}
	if !completeQA(c.FAQ) {
		c.FAQ, filled = def.FAQ, true
	}
	if !completeTitled(c.Options) {
		c.Options = def.Options
		filled = filled || variant == VariantRepair || variant == VariantCoating
	}
	if !completeTitled(c.Materials) {
		c.Materials = def.Materials
		filled = filled || variant == VariantShowcase || variant == VariantCommercial
	}
	if !completeTiers(c.Tiers) {
		c.Tiers = def.Tiers
		filled = filled || variant == VariantPricing
	}
	return filled
}

func completeTitled(items []Titled) bool {
	if len(items) == 0 {
		return false
	}
	for _, it := range items {
		if strings.TrimSpace(it.Title) == "" || strings.TrimSpace(it.Description) == "" {
			return false
		}
	}
	return true
}

func completeQA(items []QA) bool {
	if len(items) == 0 {
		return false
	}
	for _, it := range items {
		if strings.TrimSpace(it.Question) == "" || strings.TrimSpace(it.Answer) == "" {
			return false
		}
	}
	return true
}

func completeTiers(items []Tier) bool {
	if len(items) == 0 {
		return false
	}
	for _, it := range items {
		if strings.TrimSpace(it.Name) == "" {
			return false
		}
	}
	return true
}
