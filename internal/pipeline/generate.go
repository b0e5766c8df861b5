package pipeline

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/roofsite-cli/internal/artifact"
	"github.com/sells-group/roofsite-cli/internal/model"
	"github.com/sells-group/roofsite-cli/internal/pages"
	"github.com/sells-group/roofsite-cli/internal/services"
)

func runServices(ctx context.Context, d *Deps, res *model.StageResult) error {
	var profile model.BusinessProfile
	if err := d.Store.ReadValidated(artifact.ProfileFile, &profile); err != nil {
		return err
	}

	current := services.CurrentSelection(d.Vocab, publishedServices(d.Store))
	catalog, outcomes := services.NewSelector(d.LLM, d.Vocab).Select(ctx, &profile, current)
	for _, o := range outcomes {
		res.AddFallback(o)
	}
	if err := catalog.Validate(d.Vocab.Allowed); err != nil {
		return eris.Wrap(err, "selected services")
	}

	if err := d.Store.WriteJSON(artifact.ServicesFile, catalog); err != nil {
		return err
	}
	res.Outputs = append(res.Outputs, artifact.ServicesFile)
	res.Metadata = map[string]any{
		"residential": names(catalog.Residential),
		"commercial":  names(catalog.Commercial),
	}
	return nil
}

// publishedServices reads the service titles of a previously assembled
// payload, if there is one.
func publishedServices(store *artifact.Store) map[model.Category][]string {
	var doc struct {
		Hero map[string]struct {
			SubServices []struct {
				Title string `json:"title"`
			} `json:"subServices"`
		} `json:"hero"`
	}
	if err := store.ReadJSON(artifact.CombinedFile, &doc); err != nil {
		if artifact.StatusOf(err) == artifact.StatusMalformed {
			zap.L().Warn("previous payload unreadable, ignoring current selection", zap.Error(err))
		}
		return nil
	}
	out := make(map[model.Category][]string)
	for _, cat := range model.Categories() {
		for _, s := range doc.Hero[string(cat)].SubServices {
			out[cat] = append(out[cat], s.Title)
		}
	}
	return out
}

func names(list []model.Service) []string {
	out := make([]string, len(list))
	for i, s := range list {
		out[i] = s.Name
	}
	return out
}

func runResearch(ctx context.Context, d *Deps, res *model.StageResult) error {
	var catalog model.ServiceCatalog
	if err := d.Store.ReadValidated(artifact.ServicesFile, &catalog); err != nil {
		return err
	}

	research, outcomes := services.NewResearcher(d.LLM).Research(ctx, catalog)
	for _, o := range outcomes {
		res.AddFallback(o)
	}
	if err := d.Store.WriteJSON(artifact.ResearchFile, research); err != nil {
		return err
	}
	res.Outputs = append(res.Outputs, artifact.ResearchFile)
	return nil
}

func runPages(ctx context.Context, d *Deps, res *model.StageResult) error {
	var research model.ServiceResearch
	if err := d.Store.ReadValidated(artifact.ResearchFile, &research); err != nil {
		return err
	}

	built, outcomes := pages.NewBuilder(d.LLM, d.Config.Pipeline.AllowPrices).Build(ctx, research)
	for _, o := range outcomes {
		res.AddFallback(o)
	}

	// Pages of services no longer selected must not survive a re-run.
	if err := d.Store.RemoveMatching(artifact.PagesDir, "*.json"); err != nil {
		return err
	}
	variants := map[string]any{}
	for _, p := range built {
		rel := artifact.PagesDir + "/" + p.Slug + ".json"
		if err := d.Store.WriteJSON(rel, p); err != nil {
			return err
		}
		res.Outputs = append(res.Outputs, rel)
		variants[p.Slug] = p.Variant
	}
	if err := d.Store.WriteJSON(artifact.ServicePagesFile, built); err != nil {
		return err
	}
	res.Outputs = append(res.Outputs, artifact.ServicePagesFile)
	res.Metadata = variants
	return nil
}
