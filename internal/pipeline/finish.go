package pipeline

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/roofsite-cli/internal/artifact"
	"github.com/sells-group/roofsite-cli/internal/assemble"
	"github.com/sells-group/roofsite-cli/internal/images"
	"github.com/sells-group/roofsite-cli/internal/model"
)

// runImages refreshes the catalog from the configured pages, then sorts
// every catalog image into its category folder.
func runImages(ctx context.Context, d *Deps, res *model.StageResult) error {
	cfg := d.Config.Images
	if len(cfg.CatalogURLs) > 0 {
		fetched, outcomes := images.NewCatalogFetcher(d.Fetcher, d.Store).Fetch(ctx, cfg.CatalogURLs)
		for _, o := range outcomes {
			if o.IsFatal() {
				return eris.Wrap(o.Err, "fetch catalog")
			}
			res.AddFallback(o)
		}
		switch {
		case len(fetched) > 0:
			if err := d.Store.WriteJSON(artifact.CatalogFile, fetched); err != nil {
				return err
			}
			res.Outputs = append(res.Outputs, artifact.CatalogFile)
		case d.Store.Exists(artifact.CatalogFile):
			zap.L().Warn("no catalog images fetched, using existing catalog")
		default:
			zap.L().Warn("no catalog images fetched, writing empty catalog")
			if err := d.Store.WriteJSON(artifact.CatalogFile, []images.Entry{}); err != nil {
				return err
			}
		}
	}

	entries, err := images.LoadCatalog(d.Store)
	if err != nil {
		return err
	}
	assigned, outcomes := images.NewCategorizer(d.LLM, d.Vocab, cfg.BatchSize).Categorize(ctx, entries)
	for _, o := range outcomes {
		res.AddFallback(o)
	}
	meta, err := images.Organize(d.Store, d.Vocab, entries, assigned)
	if err != nil {
		return err
	}
	if err := d.Store.WriteJSON(artifact.CategoriesFile, meta); err != nil {
		return err
	}
	res.Outputs = append(res.Outputs, artifact.ByTypeDir, artifact.CategoriesFile)

	counts := make(map[string]any, len(meta))
	for cat, list := range meta {
		counts[cat] = len(list)
	}
	res.Metadata = counts
	return nil
}

// runAssemble builds combined_data.json. Missing sentiment results are
// treated as no reviews.
func runAssemble(ctx context.Context, d *Deps, res *model.StageResult) error {
	var in assemble.Inputs
	if err := d.Store.ReadValidated(artifact.ProfileFile, &in.Profile); err != nil {
		return err
	}
	if err := d.Store.ReadValidated(artifact.ServicesFile, &in.Catalog); err != nil {
		return err
	}
	if err := in.Catalog.Validate(d.Vocab.Allowed); err != nil {
		return eris.Wrap(err, "services")
	}
	if err := d.Store.ReadValidated(artifact.SentimentFile, &in.Reviews); err != nil {
		if artifact.StatusOf(err) != artifact.StatusMissing {
			return err
		}
		zap.L().Warn("no sentiment results, assembling without reviews")
		res.AddFallback(model.Fallback("assemble.reviews", model.ReasonNoInput, err))
		in.Reviews = []model.ScoredReview{}
	}

	tpl, err := assemble.LoadTemplate(d.Config.Assemble.TemplatePath)
	if err != nil {
		return err
	}
	doc, outcomes, err := assemble.New(d.LLM, tpl, d.Config.Pipeline.Seed).Assemble(ctx, in)
	if err != nil {
		return err
	}
	for _, o := range outcomes {
		res.AddFallback(o)
	}
	if err := d.Store.WriteJSON(artifact.CombinedFile, doc); err != nil {
		return err
	}
	res.Outputs = append(res.Outputs, artifact.CombinedFile)
	res.Metadata = map[string]any{"reviews": len(assemble.TopReviews(in.Reviews))}
	return nil
}
