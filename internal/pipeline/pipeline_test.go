package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/roofsite-cli/internal/artifact"
	"github.com/sells-group/roofsite-cli/internal/config"
	"github.com/sells-group/roofsite-cli/internal/fetcher"
	"github.com/sells-group/roofsite-cli/internal/images"
	"github.com/sells-group/roofsite-cli/internal/llm"
	"github.com/sells-group/roofsite-cli/internal/model"
	"github.com/sells-group/roofsite-cli/internal/palette"
	"github.com/sells-group/roofsite-cli/internal/scrape"
	"github.com/sells-group/roofsite-cli/internal/vocab"
)

type fakeProfiles struct {
	profile *scrape.Profile
	err     error
	logo    []byte
}

func (f *fakeProfiles) ScrapeProfile(context.Context, string) (*scrape.Profile, error) {
	return f.profile, f.err
}

func (f *fakeProfiles) FetchLogo(_ context.Context, url string) ([]byte, error) {
	if f.logo == nil {
		return nil, errors.New("no logo at " + url)
	}
	return f.logo, nil
}

type fakeReviews struct {
	reviews []model.Review
	outcome model.Outcome
}

func (f *fakeReviews) Reviews(context.Context, string) ([]model.Review, model.Outcome) {
	return f.reviews, f.outcome
}

func logoPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 40, 40))
	for y := 0; y < 40; y++ {
		for x := 0; x < 40; x++ {
			c := color.RGBA{R: 200, G: 30, B: 30, A: 255}
			if x >= 20 {
				c = color.RGBA{R: 20, G: 60, B: 160, A: 255}
			}
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func testDeps(t *testing.T) *Deps {
	t.Helper()
	return &Deps{
		Config: &config.Config{Pipeline: config.PipelineConfig{Seed: 3}},
		Store:  artifact.NewStore(t.TempDir()),
		LLM:    llm.Disabled{},
		Vocab:  vocab.Default(),
		Profiles: &fakeProfiles{
			profile: &scrape.Profile{
				BusinessProfile: model.BusinessProfile{
					BusinessName:    "Cowboys-Vaqueros Construction",
					Address:         "40 Tipperary Trail, Sharpsburg, GA 30277",
					Phone:           "(770) 555-0100",
					YearsInBusiness: model.Years(11),
					Accredited:      true,
					Services:        []string{"Shingling", "Roof Repair"},
					Employees:       []string{"Juan Perez, Owner"},
				},
				LogoURL: "https://example.com/logo.png",
			},
			logo: logoPNG(t),
		},
		Reviews: &fakeReviews{
			reviews: []model.Review{
				{Name: "A", Rating: 5, Date: "2025-01-02", Text: "Great crew, excellent work!"},
				{Name: "B", Rating: 3, Date: "2025-02-03", Text: "It was okay."},
			},
			outcome: model.OK(),
		},
		BBBURL:  "https://www.bbb.org/us/ga/sharpsburg/profile/roofing/cv-0443",
		MapsURL: "https://www.google.com/maps/place/Cowboys-Vaqueros+Construction",
	}
}

func seedCatalog(t *testing.T, store *artifact.Store) {
	t.Helper()
	require.NoError(t, store.WriteFile(artifact.CatalogDir+"/hdz.jpg", []byte("jpg")))
	require.NoError(t, store.WriteJSON(artifact.CatalogFile, []images.Entry{
		{Filename: "hdz.jpg", Brand: "GAF", Product: "Timberline HDZ Shingle"},
	}))
}

func TestRunAllStages(t *testing.T) {
	d := testDeps(t)
	seedCatalog(t, d.Store)

	sel, err := Selection{All: true}.Resolve()
	require.NoError(t, err)
	report := New(d).Run(context.Background(), sel)

	require.Len(t, report.Stages, StageCount)
	for _, s := range report.Stages {
		assert.Equal(t, model.StageStatusComplete, s.Status, "stage %d %s: %s", s.Number, s.Name, s.Error)
	}
	assert.False(t, report.Failed())
	assert.NotEmpty(t, report.RunID)

	for _, rel := range []string{
		artifact.ProfileFile, artifact.LogoFile, artifact.ReviewsFile, artifact.SentimentFile,
		artifact.ColorsFile, artifact.ServicesFile, artifact.ResearchFile, artifact.ServicePagesFile,
		artifact.PagesDir + "/residential-1-shingling.json", artifact.CategoriesFile, artifact.CombinedFile,
		artifact.ByTypeDir + "/Shingles/hdz.jpg",
	} {
		assert.True(t, d.Store.Exists(rel), rel)
	}

	var combined map[string]any
	require.NoError(t, d.Store.ReadJSON(artifact.CombinedFile, &combined))
	hero := combined["hero"].(map[string]any)
	assert.Equal(t, "COWBOYS-VAQUEROS", hero["mainTitle"])
	assert.Len(t, combined["reviews"], 2)

	var pal model.ColorPalette
	require.NoError(t, d.Store.ReadJSON(artifact.ColorsFile, &pal))
	require.NoError(t, pal.Validate())

	var meta images.Metadata
	require.NoError(t, d.Store.ReadJSON(artifact.CategoriesFile, &meta))
	assert.Len(t, meta, 7)
	require.Len(t, meta["Shingles"], 1)
	assert.Equal(t, images.SourceKeywords, meta["Shingles"][0].CategorizationSource)
}

func TestRunSkipsStageWithMissingInputs(t *testing.T) {
	d := testDeps(t)
	report := New(d).Run(context.Background(), []int{3, 4})

	require.Len(t, report.Stages, 1)
	assert.Equal(t, model.StageStatusSkipped, report.Stages[0].Status)
	assert.Contains(t, report.Stages[0].Error, artifact.ReviewsFile)
	assert.True(t, report.Failed())
}

func TestRunHaltsOnFailure(t *testing.T) {
	d := testDeps(t)
	d.BBBURL = ""
	report := New(d).Run(context.Background(), []int{1, 2})

	require.Len(t, report.Stages, 1)
	assert.Equal(t, model.StageStatusFailed, report.Stages[0].Status)
	assert.False(t, d.Store.Exists(artifact.ReviewsFile))
	assert.True(t, report.Failed())
}

func TestProfileScrapeFailureKeepsExisting(t *testing.T) {
	d := testDeps(t)
	require.NoError(t, d.Store.WriteJSON(artifact.ProfileFile, model.BusinessProfile{BusinessName: "Old Roofing"}))
	d.Profiles = &fakeProfiles{err: errors.New("blocked")}

	report := New(d).Run(context.Background(), []int{1})
	require.Len(t, report.Stages, 1)
	assert.Equal(t, model.StageStatusComplete, report.Stages[0].Status)
	require.Len(t, report.Stages[0].Fallbacks, 1)

	var p model.BusinessProfile
	require.NoError(t, d.Store.ReadJSON(artifact.ProfileFile, &p))
	assert.Equal(t, "Old Roofing", p.BusinessName)
}

func TestProfileWithoutLogo(t *testing.T) {
	d := testDeps(t)
	d.Profiles.(*fakeProfiles).logo = nil

	report := New(d).Run(context.Background(), []int{1, 4})
	require.Len(t, report.Stages, 2)
	assert.False(t, report.Failed())
	assert.False(t, d.Store.Exists(artifact.LogoFile))
	assert.NotEmpty(t, report.Stages[0].Fallbacks)
	assert.NotEmpty(t, report.Stages[1].Fallbacks)
}

func TestReviewsFallbackKeepsExisting(t *testing.T) {
	d := testDeps(t)
	require.NoError(t, d.Store.WriteJSON(artifact.ReviewsFile, []model.Review{{Name: "Old", Rating: 4, Text: "fine"}}))
	d.Reviews = &fakeReviews{reviews: []model.Review{}, outcome: model.Fallback("reviews", model.ReasonNoKey, nil)}

	report := New(d).Run(context.Background(), []int{2})
	require.Equal(t, model.StageStatusComplete, report.Stages[0].Status)

	var got []model.Review
	require.NoError(t, d.Store.ReadJSON(artifact.ReviewsFile, &got))
	require.Len(t, got, 1)
	assert.Equal(t, "Old", got[0].Name)
}

func TestAssembleWithoutSentiment(t *testing.T) {
	d := testDeps(t)
	report := New(d).Run(context.Background(), []int{1, 5, 9})
	require.Len(t, report.Stages, 3)
	assert.False(t, report.Failed())

	var combined map[string]any
	require.NoError(t, d.Store.ReadJSON(artifact.CombinedFile, &combined))
	assert.Equal(t, []any{}, combined["reviews"])
}

func TestMalformedInputFailsStage(t *testing.T) {
	d := testDeps(t)
	require.NoError(t, d.Store.WriteFile(artifact.ServicesFile, []byte(`{"residential": []}`)))

	report := New(d).Run(context.Background(), []int{6})
	require.Len(t, report.Stages, 1)
	assert.Equal(t, model.StageStatusFailed, report.Stages[0].Status)
}

func TestImagesStageRequiresCatalog(t *testing.T) {
	d := testDeps(t)
	st := Stages()[7]
	assert.Equal(t, []string{artifact.CatalogFile}, st.Missing(d))

	d.Config.Images.CatalogURLs = []string{"https://example.com/catalog"}
	assert.Empty(t, st.Missing(d))
}

func TestPublishedServices(t *testing.T) {
	store := artifact.NewStore(t.TempDir())
	assert.Nil(t, publishedServices(store))

	require.NoError(t, store.WriteFile(artifact.CombinedFile, []byte(`{"hero": {
		"residential": {"subServices": [{"title": "Shingling"}, {"title": "Siding"}]},
		"commercial": {"subServices": [{"title": "EPDM"}]}}}`)))
	got := publishedServices(store)
	assert.Equal(t, []string{"Shingling", "Siding"}, got[model.CategoryResidential])
	assert.Equal(t, []string{"EPDM"}, got[model.CategoryCommercial])
}

func TestCancelledRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	report := New(testDeps(t)).Run(ctx, []int{1})
	require.Len(t, report.Stages, 1)
	assert.Equal(t, model.StageStatusFailed, report.Stages[0].Status)
}

// catalogServer serves one catalog page with two product images.
func catalogServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/catalog", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<html><body>
<div data-brand="GAF"><img src="/img/hdz.jpg" data-product="Timberline HDZ Shingle" data-model="HDZ-1"></div>
<img src="/img/drip.jpg" alt="Aluminum Drip Edge">
</body></html>`)
	})
	mux.HandleFunc("/img/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("jpeg:" + r.URL.Path))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func withCatalog(t *testing.T, d *Deps) {
	t.Helper()
	srv := catalogServer(t)
	d.Fetcher = fetcher.NewHTTPFetcher(fetcher.HTTPOptions{Timeout: 5 * time.Second})
	d.Config.Images.CatalogURLs = []string{srv.URL + "/catalog"}
}

// snapshot maps every file under raw_data/ to its content.
func snapshot(t *testing.T, store *artifact.Store) map[string]string {
	t.Helper()
	root := store.Path("")
	out := map[string]string{}
	err := filepath.WalkDir(root, func(p string, e fs.DirEntry, err error) error {
		if err != nil || e.IsDir() {
			return err
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(root, p)
		out[filepath.ToSlash(rel)] = string(data)
		return nil
	})
	require.NoError(t, err)
	return out
}

func runOK(t *testing.T, d *Deps, stages []int) {
	t.Helper()
	report := New(d).Run(context.Background(), stages)
	for _, s := range report.Stages {
		require.Equal(t, model.StageStatusComplete, s.Status, "stage %d %s: %s", s.Number, s.Name, s.Error)
	}
	require.Len(t, report.Stages, len(stages))
}

func TestImagesStageIsIdempotent(t *testing.T) {
	d := testDeps(t)
	withCatalog(t, d)

	runOK(t, d, []int{8})
	first := snapshot(t, d.Store)
	runOK(t, d, []int{8})
	second := snapshot(t, d.Store)

	assert.Equal(t, first, second)
	assert.Contains(t, first, artifact.CatalogDir+"/hdz.jpg")
	assert.NotContains(t, second, artifact.CatalogDir+"/hdz_1.jpg")

	var meta images.Metadata
	require.NoError(t, d.Store.ReadJSON(artifact.CategoriesFile, &meta))
	require.Len(t, meta["Shingles"], 1)
	assert.Equal(t, "hdz.jpg", meta["Shingles"][0].OriginalFilename)
}

func TestRerunFromStepIsIdempotent(t *testing.T) {
	d := testDeps(t)
	withCatalog(t, d)
	runOK(t, d, []int{1, 2, 3, 4})

	sel, err := Selection{FromStep: 5}.Resolve()
	require.NoError(t, err)

	runOK(t, d, sel)
	first := snapshot(t, d.Store)
	runOK(t, d, sel)
	second := snapshot(t, d.Store)

	assert.Equal(t, first, second)
	for _, rel := range []string{
		artifact.ServicesFile, artifact.ResearchFile, artifact.ServicePagesFile,
		artifact.CatalogFile, artifact.CategoriesFile, artifact.CombinedFile,
	} {
		assert.Contains(t, second, rel)
	}
}

func TestColorsNeedOnlyLogo(t *testing.T) {
	d := testDeps(t)
	require.NoError(t, d.Store.WriteFile(artifact.LogoFile, logoPNG(t)))

	report := New(d).Run(context.Background(), []int{4})
	require.Len(t, report.Stages, 1)
	require.Equal(t, model.StageStatusComplete, report.Stages[0].Status, report.Stages[0].Error)
	assert.Empty(t, report.Stages[0].Fallbacks)

	var pal model.ColorPalette
	require.NoError(t, d.Store.ReadJSON(artifact.ColorsFile, &pal))
	assert.NotEqual(t, palette.Default(), pal)
}

func TestColorsWithoutLogoUseDefault(t *testing.T) {
	d := testDeps(t)

	report := New(d).Run(context.Background(), []int{4})
	require.Equal(t, model.StageStatusComplete, report.Stages[0].Status)
	require.Len(t, report.Stages[0].Fallbacks, 1)
	assert.Equal(t, model.ReasonNoInput, report.Stages[0].Fallbacks[0].Reason)

	var pal model.ColorPalette
	require.NoError(t, d.Store.ReadJSON(artifact.ColorsFile, &pal))
	assert.Equal(t, palette.Default(), pal)
}

func TestPagesRemovesStalePages(t *testing.T) {
	d := testDeps(t)
	stale := artifact.PagesDir + "/residential-1-skylights.json"
	require.NoError(t, d.Store.WriteFile(stale, []byte("{}")))

	runOK(t, d, []int{1, 5, 6, 7})
	assert.False(t, d.Store.Exists(stale))
	assert.True(t, d.Store.Exists(artifact.PagesDir+"/residential-1-shingling.json"))
}

func TestImagesStageFailsOnUnwritableCatalog(t *testing.T) {
	d := testDeps(t)
	withCatalog(t, d)
	require.NoError(t, d.Store.WriteFile(artifact.CatalogDir, []byte("not a directory")))

	report := New(d).Run(context.Background(), []int{8})
	require.Len(t, report.Stages, 1)
	assert.Equal(t, model.StageStatusFailed, report.Stages[0].Status)
}
