package model

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
)

// Category is a service market segment.
type Category string

const (
	CategoryResidential Category = "residential"
	CategoryCommercial  Category = "commercial"
)

// Categories lists the categories in payload order.
func Categories() []Category {
	return []Category{CategoryResidential, CategoryCommercial}
}

// ServicesPerCategory is the fixed number of services offered per category.
const ServicesPerCategory = 4

// Service is a single offered service.
type Service struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Slug returns the durable cross-reference {category}-{id}-{kebab-name}.
func Slug(cat Category, id int, name string) string {
	kebab := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "-")
	return fmt.Sprintf("%s-%d-%s", cat, id, kebab)
}

// ServiceCatalog is the selected services per category.
type ServiceCatalog struct {
	Residential []Service `json:"residential"`
	Commercial  []Service `json:"commercial"`
}

// List returns the services for a category.
func (c *ServiceCatalog) List(cat Category) []Service {
	if cat == CategoryCommercial {
		return c.Commercial
	}
	return c.Residential
}

// Set replaces the services for a category.
func (c *ServiceCatalog) Set(cat Category, services []Service) {
	if cat == CategoryCommercial {
		c.Commercial = services
		return
	}
	c.Residential = services
}

// Validate checks the catalog shape: four services per category with ids
// 1..4, non-empty distinct names of at most three words, and every name
// accepted by allowed.
func (c *ServiceCatalog) Validate(allowed func(Category, string) bool) error {
	for _, cat := range Categories() {
		list := c.List(cat)
		if len(list) != ServicesPerCategory {
			return eris.Errorf("catalog: %s has %d services, want %d", cat, len(list), ServicesPerCategory)
		}
		seen := make(map[string]bool, len(list))
		for i, s := range list {
			if s.ID != i+1 {
				return eris.Errorf("catalog: %s[%d] has id %d", cat, i, s.ID)
			}
			words := len(strings.Fields(s.Name))
			if words < 1 || words > 3 {
				return eris.Errorf("catalog: %s service %q must be 1-3 words", cat, s.Name)
			}
			key := strings.ToLower(s.Name)
			if seen[key] {
				return eris.Errorf("catalog: %s service %q is duplicated", cat, s.Name)
			}
			seen[key] = true
			if allowed != nil && !allowed(cat, s.Name) {
				return eris.Errorf("catalog: %s service %q is outside the vocabulary", cat, s.Name)
			}
		}
	}
	return nil
}

// Research holds the seven prose sections generated for a service.
type Research struct {
	ConstructionProcess string `json:"construction_process"`
	Variants            string `json:"variants"`
	RepairMaintenance   string `json:"repair_maintenance"`
	SalesSupply         string `json:"sales_supply"`
	Advantages          string `json:"advantages"`
	Marketing           string `json:"marketing"`
	WarrantyLifespan    string `json:"warranty_lifespan"`
}

// ResearchedService is a Service augmented with its research.
type ResearchedService struct {
	Service
	Research Research `json:"research"`
}

// ServiceResearch is a ServiceCatalog with research per service.
type ServiceResearch struct {
	Residential []ResearchedService `json:"residential"`
	Commercial  []ResearchedService `json:"commercial"`
}

// List returns the researched services for a category.
func (r *ServiceResearch) List(cat Category) []ResearchedService {
	if cat == CategoryCommercial {
		return r.Commercial
	}
	return r.Residential
}
