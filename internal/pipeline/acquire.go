package pipeline

import (
	"context"
	"path"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/roofsite-cli/internal/artifact"
	"github.com/sells-group/roofsite-cli/internal/model"
	"github.com/sells-group/roofsite-cli/internal/palette"
	"github.com/sells-group/roofsite-cli/internal/resilience"
	"github.com/sells-group/roofsite-cli/internal/sentiment"
)

// runProfile scrapes the BBB profile and logo. Without a URL, or when the
// page cannot be scraped, an existing profile is kept.
func runProfile(ctx context.Context, d *Deps, res *model.StageResult) error {
	log := zap.L()
	if d.BBBURL == "" {
		if d.Store.Exists(artifact.ProfileFile) {
			log.Warn("no --bbb-url given, keeping existing profile")
			res.AddFallback(model.Fallback("profile", model.ReasonNoInput, nil))
			return nil
		}
		return eris.New("no --bbb-url given and no existing profile")
	}

	p, err := d.Profiles.ScrapeProfile(ctx, d.BBBURL)
	if err != nil {
		if d.Store.Exists(artifact.ProfileFile) {
			log.Warn("profile scrape failed, keeping existing profile", zap.Error(err))
			res.AddFallback(model.Fallback("profile", resilience.Reason(err), err))
			return nil
		}
		return eris.Wrap(err, "scrape profile")
	}
	p.SourceURL = d.BBBURL

	logoCtx := ctx
	if wait := time.Duration(d.Config.Scrape.WaitSecs) * time.Second; wait > 0 {
		var cancel context.CancelFunc
		logoCtx, cancel = context.WithTimeout(ctx, wait)
		defer cancel()
	}
	if logo, err := d.Profiles.FetchLogo(logoCtx, p.LogoURL); err != nil {
		log.Warn("logo unavailable", zap.String("url", p.LogoURL), zap.Error(err))
		res.AddFallback(model.Fallback("profile.logo", resilience.Reason(err), err))
	} else {
		if err := d.Store.WriteFile(artifact.LogoFile, logo); err != nil {
			return err
		}
		p.LogoPath = path.Join(artifact.RawDataDir, artifact.LogoFile)
		res.Outputs = append(res.Outputs, artifact.LogoFile)
	}

	if err := d.Store.WriteJSON(artifact.ProfileFile, p.BusinessProfile); err != nil {
		return err
	}
	res.Outputs = append(res.Outputs, artifact.ProfileFile)
	res.Metadata = map[string]any{
		"business":   p.BusinessName,
		"accredited": p.Accredited,
		"services":   len(p.Services),
		"employees":  len(p.Employees),
	}
	return nil
}

// runReviews fetches the Google reviews. When they cannot be fetched an
// existing reviews file is kept; otherwise an empty list is written.
func runReviews(ctx context.Context, d *Deps, res *model.StageResult) error {
	reviews, o := d.Reviews.Reviews(ctx, d.MapsURL)
	res.AddFallback(o)
	if o.IsFallback() && d.Store.Exists(artifact.ReviewsFile) {
		zap.L().Warn("reviews unavailable, keeping existing reviews", zap.String("reason", o.Reason))
		return nil
	}
	if err := d.Store.WriteJSON(artifact.ReviewsFile, reviews); err != nil {
		return err
	}
	res.Outputs = append(res.Outputs, artifact.ReviewsFile)
	res.Metadata = map[string]any{"reviews": len(reviews)}
	return nil
}

func runSentiment(_ context.Context, d *Deps, res *model.StageResult) error {
	var reviews []model.Review
	if err := d.Store.ReadValidated(artifact.ReviewsFile, &reviews); err != nil {
		return err
	}
	analyzer, err := sentiment.New()
	if err != nil {
		return err
	}
	scored := analyzer.Score(reviews)

	counts := map[string]any{}
	for _, r := range scored {
		n, _ := counts[string(r.Sentiment)].(int)
		counts[string(r.Sentiment)] = n + 1
	}
	if err := d.Store.WriteJSON(artifact.SentimentFile, scored); err != nil {
		return err
	}
	res.Outputs = append(res.Outputs, artifact.SentimentFile)
	res.Metadata = counts
	return nil
}

// runColors derives the palette from the logo, or uses the default palette
// when there is no usable logo.
func runColors(_ context.Context, d *Deps, res *model.StageResult) error {
	var pal model.ColorPalette
	logo, err := d.Store.ReadBytes(artifact.LogoFile)
	switch {
	case err != nil:
		zap.L().Warn("no logo, using default palette", zap.Error(err))
		pal = palette.Default()
		res.AddFallback(model.Fallback("colors", model.ReasonNoInput, err))
	default:
		var o model.Outcome
		pal, o = palette.FromLogo(logo)
		res.AddFallback(o)
	}

	if err := pal.Validate(); err != nil {
		return eris.Wrap(err, "palette")
	}
	if err := d.Store.WriteJSON(artifact.ColorsFile, pal); err != nil {
		return err
	}
	res.Outputs = append(res.Outputs, artifact.ColorsFile)
	res.Metadata = map[string]any{"accent": pal.Accent}
	return nil
}
