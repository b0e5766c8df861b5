package images

import (
	"bytes"
	"context"
	"net/url"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/roofsite-cli/internal/artifact"
	"github.com/sells-group/roofsite-cli/internal/fetcher"
	"github.com/sells-group/roofsite-cli/internal/model"
	"github.com/sells-group/roofsite-cli/internal/resilience"
)

// CatalogFetcher scrapes product images from catalog pages.
type CatalogFetcher struct {
	fetch fetcher.Fetcher
	store *artifact.Store
}

// NewCatalogFetcher creates a fetcher that downloads into the store's
// catalog directory.
func NewCatalogFetcher(f fetcher.Fetcher, store *artifact.Store) *CatalogFetcher {
	return &CatalogFetcher{fetch: f, store: store}
}

// Fetch downloads every product image found on pages and returns the
// catalog entries that were saved. An unwritable catalog directory is a
// fatal outcome. File names are assigned in page order,
// so fetching the same pages again reuses the same names. Pages or images that cannot be fetched
// are skipped and reported as fallbacks.
func (c *CatalogFetcher) Fetch(ctx context.Context, pages []string) ([]Entry, []model.Outcome) {
	if err := c.store.EnsureDir(artifact.CatalogDir); err != nil {
		return nil, []model.Outcome{model.Fatal("images.catalog", err)}
	}
	// Names depend only on this fetch so a re-run overwrites the same files.
	names := NewNames(path.Base(artifact.CatalogFile))

	var entries []Entry
	var outcomes []model.Outcome
	seen := make(map[string]bool)
	for _, page := range pages {
		body, err := c.fetch.Fetch(ctx, page)
		if err != nil {
			zap.L().Warn("images: catalog page unavailable", zap.String("url", page), zap.Error(err))
			outcomes = append(outcomes, model.Fallback("images.page", resilience.Reason(err), err))
			continue
		}
		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
		if err != nil {
			outcomes = append(outcomes, model.Fallback("images.page", model.ReasonParse, err))
			continue
		}

		found := ParseCatalogPage(doc, page)
		zap.L().Info("images: catalog page parsed", zap.String("url", page), zap.Int("images", len(found)))
		for _, e := range found {
			if seen[e.SourceURL] {
				continue
			}
			seen[e.SourceURL] = true

			e.Filename = names.Next(e.Filename)
			dst := c.store.Path(artifact.CatalogDir + "/" + e.Filename)
			if _, err := c.fetch.DownloadToFile(ctx, e.SourceURL, dst); err != nil {
				zap.L().Warn("images: download failed", zap.String("url", e.SourceURL), zap.Error(err))
				outcomes = append(outcomes, model.Fallback("images.download", resilience.Reason(err), err))
				continue
			}
			entries = append(entries, e)
		}
	}
	return entries, outcomes
}

// ParseCatalogPage extracts product images. Brand, product and model come
// from data-brand, data-product and data-model attributes on the image or
// its nearest ancestor carrying them; the alt text stands in for a missing
// product name. Images with no product name are ignored.
func ParseCatalogPage(doc *goquery.Document, pageURL string) []Entry {
	base, _ := url.Parse(pageURL)
	var out []Entry
	doc.Find("img").Each(func(_ int, img *goquery.Selection) {
		src := attr(img, "data-src")
		if src == "" {
			src = attr(img, "src")
		}
		if src == "" || strings.HasPrefix(src, "data:") {
			return
		}
		product := inherited(img, "data-product")
		if product == "" {
			product = attr(img, "alt")
		}
		if product == "" {
			return
		}
		abs := src
		if base != nil {
			if ref, err := url.Parse(src); err == nil {
				abs = base.ResolveReference(ref).String()
			}
		}
		name := SafeName(src)
		if u, err := url.Parse(abs); err == nil {
			name = SafeName(u.Path)
		}
		out = append(out, Entry{
			Filename:    name,
			Brand:       inherited(img, "data-brand"),
			Product:     product,
			ModelNumber: inherited(img, "data-model"),
			Description: attr(img, "title"),
			SourceURL:   abs,
		})
	})
	return out
}

func attr(s *goquery.Selection, name string) string {
	v, _ := s.Attr(name)
	return strings.Join(strings.Fields(v), " ")
}

func inherited(s *goquery.Selection, name string) string {
	if v := attr(s, name); v != "" {
		return v
	}
	return attr(s.Closest("["+name+"]"), name)
}

// LoadCatalog reads and validates catalog.json.
func LoadCatalog(store *artifact.Store) ([]Entry, error) {
	var entries []Entry
	if err := store.ReadValidated(artifact.CatalogFile, &entries); err != nil {
		return nil, eris.Wrap(err, "images: load catalog")
	}
	return entries, nil
}
