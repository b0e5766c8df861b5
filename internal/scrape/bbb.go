// Package scrape acquires the business profile from its BBB page and the
// business's Google reviews.
package scrape

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/roofsite-cli/internal/fetcher"
	"github.com/sells-group/roofsite-cli/internal/model"
	"github.com/sells-group/roofsite-cli/internal/vocab"
)

// ProfileScraper produces a BusinessProfile from a profile page URL.
type ProfileScraper interface {
	ScrapeProfile(ctx context.Context, pageURL string) (*Profile, error)
}

// Profile is a scraped profile plus the logo location found on the page.
type Profile struct {
	model.BusinessProfile
	LogoURL string
}

// BBBScraper parses BBB business profile pages.
type BBBScraper struct {
	fetch fetcher.Fetcher
}

// NewBBBScraper creates a scraper that downloads pages with f.
func NewBBBScraper(f fetcher.Fetcher) *BBBScraper {
	return &BBBScraper{fetch: f}
}

// ScrapeProfile fetches and parses the profile page.
func (s *BBBScraper) ScrapeProfile(ctx context.Context, pageURL string) (*Profile, error) {
	body, err := s.fetch.Fetch(ctx, pageURL)
	if err != nil {
		var se *fetcher.StatusError
		if errors.As(err, &se) {
			if blocked, bt := DetectBlock(se.StatusCode, nil); blocked {
				return nil, eris.Wrapf(err, "scrape: profile blocked (%s)", bt)
			}
		}
		return nil, eris.Wrap(err, "scrape: fetch profile")
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "scrape: parse profile html")
	}
	p := ParseProfile(doc, pageURL)
	if err := p.Validate(); err != nil {
		if blocked, bt := DetectBlock(200, body); blocked {
			return nil, eris.Errorf("scrape: profile blocked (%s)", bt)
		}
		return nil, eris.Wrap(err, "scrape: profile")
	}
	zap.L().Debug("scrape: parsed profile",
		zap.String("business", p.BusinessName),
		zap.Int("services", len(p.Services)),
		zap.Int("employees", len(p.Employees)),
		zap.Bool("logo", p.LogoURL != ""),
	)
	return p, nil
}

var (
	yearsInBusinessRe = regexp.MustCompile(`(?i)years\s+in\s+business\s*:?\s*(\d+)`)
	notAccreditedRe   = regexp.MustCompile(`(?i)\bnot\s+(?:a\s+)?bbb\s+accredited\b`)
	accreditedRe      = regexp.MustCompile(`(?i)\bbbb\s+accredited\s+business\b|\baccredited\s+since\b`)
	spaceRe           = regexp.MustCompile(`\s+`)
	honorificRe       = regexp.MustCompile(`^(?i:mr|mrs|ms|miss|dr)\.?\s+`)
)

// ParseProfile extracts a profile from a BBB page. Structured data is
// preferred; visible text fills whatever it leaves empty.
func ParseProfile(doc *goquery.Document, pageURL string) *Profile {
	p := &Profile{}
	p.SourceURL = pageURL

	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		for _, node := range ldNodes(s.Text()) {
			if isBusinessNode(node) {
				fillFromLD(p, node)
			}
		}
	})

	if p.BusinessName == "" {
		p.BusinessName = collapse(doc.Find("h1").First().Text())
	}

	text := collapse(doc.Find("body").Text())

	if m := yearsInBusinessRe.FindStringSubmatch(text); m != nil {
		p.YearsInBusiness = model.YearsField{Raw: "Years in Business: " + m[1]}
		p.YearsInBusiness.Value, p.YearsInBusiness.Valid = model.ParseYears(m[1])
	}

	switch {
	case notAccreditedRe.MatchString(text):
		p.Accredited = false
	case accreditedRe.MatchString(text):
		p.Accredited = true
	}

	if p.Phone == "" {
		if tel, ok := doc.Find(`a[href^="tel:"]`).First().Attr("href"); ok {
			p.Phone = strings.TrimPrefix(tel, "tel:")
		}
	}

	p.Services = splitList(sectionItems(doc, "products and services"))
	for _, raw := range sectionItems(doc, "business management") {
		if e := normalizeEmployee(raw); e != "" {
			p.Employees = append(p.Employees, e)
		}
	}

	if p.LogoURL == "" {
		doc.Find("img").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			alt, _ := s.Attr("alt")
			src, ok := s.Attr("src")
			if ok && strings.Contains(strings.ToLower(alt+" "+src), "logo") {
				p.LogoURL = src
				return false
			}
			return true
		})
	}
	p.LogoURL = resolve(pageURL, p.LogoURL)

	if p.Services == nil {
		p.Services = []string{}
	}
	return p
}

func ldNodes(raw string) []map[string]any {
	var v any
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &v); err != nil {
		return nil
	}
	var out []map[string]any
	var walk func(any)
	walk = func(x any) {
		switch t := x.(type) {
		case []any:
			for _, e := range t {
				walk(e)
			}
		case map[string]any:
			out = append(out, t)
			if g, ok := t["@graph"]; ok {
				walk(g)
			}
		}
	}
	walk(v)
	return out
}

func isBusinessNode(node map[string]any) bool {
	types := []string{}
	switch t := node["@type"].(type) {
	case string:
		types = append(types, t)
	case []any:
		for _, e := range t {
			if s, ok := e.(string); ok {
				types = append(types, s)
			}
		}
	}
	for _, t := range types {
		switch t {
		case "LocalBusiness", "RoofingContractor", "HomeAndConstructionBusiness", "GeneralContractor", "Organization":
			return true
		}
	}
	return false
}

func fillFromLD(p *Profile, node map[string]any) {
	if p.BusinessName == "" {
		p.BusinessName = collapse(str(node["name"]))
	}
	if p.Phone == "" {
		p.Phone = str(node["telephone"])
	}
	if p.Website == "" {
		if u := str(node["url"]); u != "" && !strings.Contains(u, "bbb.org") {
			p.Website = u
		}
	}
	if p.Address == "" {
		p.Address = formatAddress(node["address"])
	}
	if p.LogoURL == "" {
		p.LogoURL = imageURL(node["logo"])
	}
	if p.LogoURL == "" {
		p.LogoURL = imageURL(node["image"])
	}
}

func formatAddress(v any) string {
	switch a := v.(type) {
	case string:
		return collapse(a)
	case map[string]any:
		street := str(a["streetAddress"])
		city := str(a["addressLocality"])
		region := strings.TrimSpace(str(a["addressRegion"]) + " " + str(a["postalCode"]))
		var parts []string
		for _, s := range []string{street, city, region} {
			if s = collapse(s); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	case []any:
		if len(a) > 0 {
			return formatAddress(a[0])
		}
	}
	return ""
}

func imageURL(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case map[string]any:
		return str(t["url"])
	case []any:
		if len(t) > 0 {
			return imageURL(t[0])
		}
	}
	return ""
}

// sectionItems returns the entries listed under the heading whose text
// contains label.
func sectionItems(doc *goquery.Document, label string) []string {
	var items []string
	doc.Find("h2, h3, h4, dt, strong").EachWithBreak(func(_ int, h *goquery.Selection) bool {
		if !strings.Contains(strings.ToLower(collapse(h.Text())), label) {
			return true
		}
		next := h.Next()
		if next.Length() == 0 {
			next = h.Parent().Next()
		}
		if li := next.Find("li"); li.Length() > 0 {
			li.Each(func(_ int, s *goquery.Selection) {
				items = append(items, collapse(s.Text()))
			})
		} else if t := collapse(next.Text()); t != "" {
			items = append(items, t)
		}
		return false
	})
	return items
}

// splitList flattens comma-separated entries and drops blanks and duplicates.
func splitList(items []string) []string {
	var out []string
	seen := map[string]bool{}
	for _, item := range items {
		for _, part := range strings.Split(item, ",") {
			part = collapse(part)
			if part == "" || seen[strings.ToLower(part)] {
				continue
			}
			seen[strings.ToLower(part)] = true
			out = append(out, part)
		}
	}
	return out
}

// normalizeEmployee turns "Mr. JOHN DOE, Owner" into "John Doe, Owner".
func normalizeEmployee(raw string) string {
	raw = honorificRe.ReplaceAllString(collapse(raw), "")
	name, role, _ := strings.Cut(raw, ",")
	name = vocab.Title(name)
	if name == "" {
		return ""
	}
	if role = vocab.Title(role); role != "" {
		return name + ", " + role
	}
	return name
}

func resolve(base, ref string) string {
	if ref == "" {
		return ""
	}
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}

func collapse(s string) string {
	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
}

func str(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}
