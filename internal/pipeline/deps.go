// Package pipeline runs the nine stages that turn a BBB profile and Google
// reviews into the site payload.
package pipeline

import (
	"context"
	"time"

	"github.com/sells-group/roofsite-cli/internal/artifact"
	"github.com/sells-group/roofsite-cli/internal/config"
	"github.com/sells-group/roofsite-cli/internal/fetcher"
	"github.com/sells-group/roofsite-cli/internal/llm"
	"github.com/sells-group/roofsite-cli/internal/scrape"
	"github.com/sells-group/roofsite-cli/internal/vocab"
	"github.com/sells-group/roofsite-cli/pkg/google"
)

// ProfileSource scrapes the business profile and its logo.
type ProfileSource interface {
	scrape.ProfileScraper
	FetchLogo(ctx context.Context, logoURL string) ([]byte, error)
}

// Deps are the collaborators shared by the stages.
type Deps struct {
	Config   *config.Config
	Store    *artifact.Store
	LLM      llm.Client
	Vocab    *vocab.Vocabulary
	Fetcher  fetcher.Fetcher
	Profiles ProfileSource
	Reviews  scrape.ReviewSource

	BBBURL  string
	MapsURL string
}

// NewDeps wires the production collaborators from configuration.
func NewDeps(cfg *config.Config, bbbURL, mapsURL string) *Deps {
	f := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		UserAgent:    cfg.Scrape.UserAgent,
		Timeout:      time.Duration(cfg.Scrape.TimeoutSecs) * time.Second,
		RateLimiters: fetcher.DefaultRateLimiters(),
	})

	var places google.Client
	if cfg.Google.Key != "" {
		places = google.NewClient(cfg.Google.Key, google.WithBaseURL(cfg.Google.BaseURL))
	}

	return &Deps{
		Config:   cfg,
		Store:    artifact.NewStore(cfg.Data.Root),
		LLM:      llm.New(cfg),
		Vocab:    vocab.Default(),
		Fetcher:  f,
		Profiles: scrape.NewBBBScraper(f),
		Reviews:  scrape.NewPlacesReviews(places),
		BBBURL:   bbbURL,
		MapsURL:  mapsURL,
	}
}
