package assemble

import (
	"math/rand/v2"
	"sort"
	"strings"

	"github.com/sells-group/roofsite-cli/internal/model"
)

var serviceIcons = map[model.Category][]string{
	model.CategoryResidential: {"FaHardHat", "FaHome", "FaTools", "FaBroom"},
	model.CategoryCommercial:  {"FaPaintRoller", "FaBuilding", "FaWarehouse", "FaChimney"},
}

// SubService is a hero service entry.
type SubService struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
	Slug  string `json:"slug"`
}

// ServiceLink is a combinedPage service entry.
type ServiceLink struct {
	Icon  string `json:"icon"`
	Title string `json:"title"`
	Link  string `json:"link"`
}

// ServiceSections returns the hero and combinedPage entries for one
// category. Both are derived from the same slug.
func ServiceSections(cat model.Category, services []model.Service) ([]SubService, []ServiceLink) {
	icons := serviceIcons[cat]
	subs := make([]SubService, len(services))
	links := make([]ServiceLink, len(services))
	for i, s := range services {
		slug := model.Slug(cat, s.ID, s.Name)
		subs[i] = SubService{ID: s.ID, Title: s.Name, Slug: slug}
		links[i] = ServiceLink{Icon: icons[i%len(icons)], Title: s.Name, Link: "/services/" + slug}
	}
	return subs, links
}

const (
	maxReviews   = 6
	reviewLogo   = "/assets/images/hero/googleimage.png"
	reviewLink   = "https://www.google.com/maps"
	maxEmployees = 6
)

// ReviewCard is a review as shown on the site.
type ReviewCard struct {
	Name  string `json:"name"`
	Stars int    `json:"stars"`
	Date  string `json:"date"`
	Text  string `json:"text"`
	Logo  string `json:"logo"`
	Link  string `json:"link"`
}

// TopReviews orders reviews by rating then polarity, both descending, and
// keeps the first six. Ties keep their input order.
func TopReviews(reviews []model.ScoredReview) []ReviewCard {
	sorted := make([]model.ScoredReview, len(reviews))
	copy(sorted, reviews)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Rating != sorted[j].Rating {
			return sorted[i].Rating > sorted[j].Rating
		}
		return sorted[i].Polarity > sorted[j].Polarity
	})
	if len(sorted) > maxReviews {
		sorted = sorted[:maxReviews]
	}
	cards := make([]ReviewCard, len(sorted))
	for i, r := range sorted {
		cards[i] = ReviewCard{
			Name:  r.Name,
			Stars: r.Rating,
			Date:  r.Date,
			Text:  r.Text,
			Logo:  reviewLogo,
			Link:  reviewLink,
		}
	}
	return cards
}

var teamPhotos = []string{
	"/assets/images/team/1.png",
	"/assets/images/team/2.png",
	"/assets/images/team/3.png",
	"/assets/images/team/4.png",
	"/assets/images/team/5.png",
	"/assets/images/team/6.png",
}

// Employee is a team member card.
type Employee struct {
	Name  string `json:"name"`
	Role  string `json:"role"`
	Image string `json:"image"`
}

// Employees turns "Name, Role" strings into team cards, at most six. With
// no usable names two placeholder cards are returned.
func Employees(raw []string) []Employee {
	var out []Employee
	for _, r := range raw {
		name, role, _ := strings.Cut(r, ",")
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		role = strings.TrimSpace(role)
		if role == "" {
			role = "Team Member"
		}
		out = append(out, Employee{Name: name, Role: role, Image: teamPhotos[len(out)%len(teamPhotos)]})
		if len(out) == maxEmployees {
			break
		}
	}
	if len(out) == 0 {
		return []Employee{
			{Name: "Our Founder", Role: "Owner", Image: teamPhotos[0]},
			{Name: "Our Crew Lead", Role: "Project Manager", Image: teamPhotos[1]},
		}
	}
	return out
}

const bbbCardTitle = "BBB Accredited"

var guaranteeCard = map[string]any{
	"icon":  "FaThumbsUp",
	"title": "Satisfaction Guaranteed",
	"desc":  "We are not done until you are happy with the finished roof.",
}

// replaceBBBCard swaps the BBB card in cards for the guarantee card.
func replaceBBBCard(cards []any) []any {
	out := make([]any, len(cards))
	for i, c := range cards {
		if m, ok := c.(map[string]any); ok && m["title"] == bbbCardTitle {
			card := make(map[string]any, len(guaranteeCard))
			for k, v := range guaranteeCard {
				card[k] = v
			}
			out[i] = card
			continue
		}
		out[i] = c
	}
	return out
}

// Header text choices. None carries business content.
var (
	bookingHeaders = []string{"Book Now", "Schedule Today", "Get Started", "Contact Us"}
	galleryTitles  = []string{"Our Work", "Project Gallery", "Recent Projects"}
	teamTitles     = []string{"Our Team", "Meet the Crew", "Our Experts"}
)

func pick(rng *rand.Rand, options []string) string {
	return options[rng.IntN(len(options))]
}

// newRand returns a generator seeded with seed, or from the runtime source
// when seed is zero.
func newRand(seed uint64) *rand.Rand {
	if seed == 0 {
		return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return rand.New(rand.NewPCG(seed, seed))
}
