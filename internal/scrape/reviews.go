package scrape

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/roofsite-cli/internal/model"
	"github.com/sells-group/roofsite-cli/internal/resilience"
	"github.com/sells-group/roofsite-cli/pkg/google"
)

// ReviewSource acquires the reviews of the business behind a Maps URL.
type ReviewSource interface {
	Reviews(ctx context.Context, mapsURL string) ([]model.Review, model.Outcome)
}

// PlacesReviews reads reviews through the Google Places API.
type PlacesReviews struct {
	client google.Client
}

// NewPlacesReviews creates a review source. A nil client means no API key
// is configured and every call falls back to an empty list.
func NewPlacesReviews(c google.Client) *PlacesReviews {
	return &PlacesReviews{client: c}
}

// Reviews resolves the place named by mapsURL and returns its reviews.
// Failures yield an empty list and a fallback outcome.
func (r *PlacesReviews) Reviews(ctx context.Context, mapsURL string) ([]model.Review, model.Outcome) {
	const scope = "reviews"
	if r.client == nil {
		zap.L().Warn("scrape: no google key, writing empty reviews")
		return []model.Review{}, model.Fallback(scope, model.ReasonNoKey, nil)
	}

	query, err := PlaceQuery(mapsURL)
	if err != nil {
		zap.L().Warn("scrape: cannot read place from maps url", zap.String("url", mapsURL), zap.Error(err))
		return []model.Review{}, model.Fallback(scope, model.ReasonNoInput, err)
	}

	search, err := r.client.TextSearch(ctx, query)
	if err != nil {
		return []model.Review{}, failure(scope, err)
	}
	if len(search.Places) == 0 || search.Places[0].ID == "" {
		zap.L().Warn("scrape: place not found", zap.String("query", query))
		return []model.Review{}, model.Fallback(scope, model.ReasonNoInput, eris.Errorf("scrape: no place for %q", query))
	}

	place, err := r.client.PlaceDetails(ctx, search.Places[0].ID)
	if err != nil {
		return []model.Review{}, failure(scope, err)
	}

	reviews := make([]model.Review, 0, len(place.Reviews))
	for _, pr := range place.Reviews {
		if pr.Rating < 1 || pr.Rating > 5 {
			continue
		}
		reviews = append(reviews, model.Review{
			Name:   strings.TrimSpace(pr.AuthorAttribution.DisplayName),
			Rating: pr.Rating,
			Date:   reviewDate(pr),
			Text:   strings.TrimSpace(pr.Body()),
		})
	}
	zap.L().Info("scrape: reviews acquired",
		zap.String("place", place.DisplayName.Text),
		zap.Int("count", len(reviews)),
	)
	return reviews, model.OK()
}

func failure(scope string, err error) model.Outcome {
	reason := resilience.Reason(err)
	zap.L().Warn("scrape: places call failed, writing empty reviews",
		zap.String("reason", reason),
		zap.Error(err),
	)
	return model.Fallback(scope, reason, err)
}

func reviewDate(pr google.PlaceReview) string {
	if t, err := time.Parse(time.RFC3339, pr.PublishTime); err == nil {
		return t.Format("2006-01-02")
	}
	return pr.RelativePublishTimeDescription
}

// PlaceQuery extracts a text-search query from a Google Maps URL of the
// form /maps/place/{name}/@lat,lng or /maps/search/?q={name}.
func PlaceQuery(mapsURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(mapsURL))
	if err != nil || u.Host == "" {
		return "", eris.Errorf("scrape: invalid maps url %q", mapsURL)
	}
	for _, key := range []string{"q", "query"} {
		if q := strings.TrimSpace(u.Query().Get(key)); q != "" {
			return q, nil
		}
	}
	segments := strings.Split(u.EscapedPath(), "/")
	for i, seg := range segments {
		if seg == "place" && i+1 < len(segments) {
			name, err := url.PathUnescape(strings.ReplaceAll(segments[i+1], "+", " "))
			if err != nil {
				return "", eris.Wrapf(err, "scrape: decode place name")
			}
			if name = strings.TrimSpace(name); name != "" {
				return name, nil
			}
		}
	}
	return "", eris.Errorf("scrape: no place name in %q", mapsURL)
}
