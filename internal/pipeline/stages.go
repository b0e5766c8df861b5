package pipeline

import (
	"context"

	"github.com/sells-group/roofsite-cli/internal/artifact"
	"github.com/sells-group/roofsite-cli/internal/model"
)

// StageCount is the number of pipeline stages.
const StageCount = 9

// Stage is one step of the pipeline. Inputs lists the artifacts that must
// exist before Run is called; Optional lists artifacts Run reads when
// present and substitutes defaults for when absent.
type Stage struct {
	Number   int
	Name     string
	Title    string
	Inputs   func(d *Deps) []string
	Optional []string
	Outputs  []string
	Run      func(ctx context.Context, d *Deps, res *model.StageResult) error
}

func inputs(rel ...string) func(*Deps) []string {
	return func(*Deps) []string { return rel }
}

// Stages returns the stage registry in execution order.
func Stages() []Stage {
	return []Stage{
		{
			Number:  1,
			Name:    "profile",
			Title:   "Scrape business profile",
			Inputs:  inputs(),
			Outputs: []string{artifact.ProfileFile, artifact.LogoFile},
			Run:     runProfile,
		},
		{
			Number:  2,
			Name:    "reviews",
			Title:   "Fetch reviews",
			Inputs:  inputs(),
			Outputs: []string{artifact.ReviewsFile},
			Run:     runReviews,
		},
		{
			Number:  3,
			Name:    "sentiment",
			Title:   "Analyze review sentiment",
			Inputs:  inputs(artifact.ReviewsFile),
			Outputs: []string{artifact.SentimentFile},
			Run:     runSentiment,
		},
		{
			Number:   4,
			Name:     "colors",
			Title:    "Extract color palette",
			Inputs:   inputs(),
			Optional: []string{artifact.LogoFile},
			Outputs:  []string{artifact.ColorsFile},
			Run:      runColors,
		},
		{
			Number:  5,
			Name:    "services",
			Title:   "Select services",
			Inputs:  inputs(artifact.ProfileFile),
			Outputs: []string{artifact.ServicesFile},
			Run:     runServices,
		},
		{
			Number:  6,
			Name:    "research",
			Title:   "Research services",
			Inputs:  inputs(artifact.ServicesFile),
			Outputs: []string{artifact.ResearchFile},
			Run:     runResearch,
		},
		{
			Number:  7,
			Name:    "pages",
			Title:   "Build service pages",
			Inputs:  inputs(artifact.ResearchFile),
			Outputs: []string{artifact.PagesDir + "/{slug}.json", artifact.ServicePagesFile},
			Run:     runPages,
		},
		{
			Number: 8,
			Name:   "images",
			Title:  "Acquire and categorize images",
			Inputs: func(d *Deps) []string {
				if d.Config != nil && len(d.Config.Images.CatalogURLs) > 0 {
					return nil
				}
				return []string{artifact.CatalogFile}
			},
			Outputs: []string{artifact.ByTypeDir + "/", artifact.CategoriesFile},
			Run:     runImages,
		},
		{
			Number:   9,
			Name:     "assemble",
			Title:    "Assemble final payload",
			Inputs:   inputs(artifact.ProfileFile, artifact.ServicesFile),
			Optional: []string{artifact.SentimentFile},
			Outputs:  []string{artifact.CombinedFile},
			Run:      runAssemble,
		},
	}
}

// Missing returns the stage inputs not present in the store.
func (s Stage) Missing(d *Deps) []string {
	var missing []string
	for _, rel := range s.Inputs(d) {
		if !d.Store.Exists(rel) {
			missing = append(missing, rel)
		}
	}
	return missing
}
