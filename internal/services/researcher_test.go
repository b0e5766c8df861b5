package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/roofsite-cli/internal/llm"
	"github.com/sells-group/roofsite-cli/internal/llm/mocks"
	"github.com/sells-group/roofsite-cli/internal/model"
)

func fullReport() string {
	var b strings.Builder
	b.WriteString("Sure, here is the brief.\n\n")
	for _, s := range Sections {
		b.WriteString(s.Marker())
		b.WriteString("\n")
		b.WriteString("Body of " + s.Title + ".\n\n")
	}
	return b.String()
}

func TestParseSectionsComplete(t *testing.T) {
	r, missing := ParseSections(fullReport(), "Shingling")
	assert.Zero(t, missing)
	assert.Equal(t, "Body of Construction Process.", r.ConstructionProcess)
	assert.Equal(t, "Body of Variants.", r.Variants)
	assert.Equal(t, "Body of Repair and Maintenance.", r.RepairMaintenance)
	assert.Equal(t, "Body of Sales and Supply.", r.SalesSupply)
	assert.Equal(t, "Body of Advantages.", r.Advantages)
	assert.Equal(t, "Body of Marketing.", r.Marketing)
	assert.Equal(t, "Body of Warranty and Lifespan.", r.WarrantyLifespan)
}

func TestParseSectionsMissing(t *testing.T) {
	text := "## **1. Construction Process**\nTear-off then deck.\n\n## **5. Advantages**\nDurable.\n"
	r, missing := ParseSections(text, "Guttering")
	assert.Equal(t, 5, missing)
	assert.Equal(t, "Tear-off then deck.", r.ConstructionProcess)
	assert.Equal(t, "Durable.", r.Advantages)
	assert.Equal(t, "** \n\nSection placeholder for Guttering", r.Variants)
	assert.Equal(t, PlaceholderSection("Guttering"), r.WarrantyLifespan)
}

func TestParseSectionsLooseHeadings(t *testing.T) {
	text := "### 1. Construction Process:\r\nA\n**2. Variants**\nB\n3. Repair and Maintenance\nC\n" +
		"## 4. Sales and Supply\nD\n## **5. Advantages**\nE\n## **6. Marketing**\n\n## **7. Warranty and Lifespan**\nG"
	r, missing := ParseSections(text, "Chimney")
	assert.Equal(t, 1, missing)
	assert.Equal(t, "A", r.ConstructionProcess)
	assert.Equal(t, "B", r.Variants)
	assert.Equal(t, "C", r.RepairMaintenance)
	assert.Equal(t, "D", r.SalesSupply)
	assert.Equal(t, "E", r.Advantages)
	assert.Equal(t, PlaceholderSection("Chimney"), r.Marketing)
	assert.Equal(t, "G", r.WarrantyLifespan)
}

func catalog() model.ServiceCatalog {
	return model.ServiceCatalog{
		Residential: []model.Service{{ID: 1, Name: "Shingling"}, {ID: 2, Name: "Guttering"}, {ID: 3, Name: "Chimney"}, {ID: 4, Name: "Skylights"}},
		Commercial:  []model.Service{{ID: 1, Name: "Coatings"}, {ID: 2, Name: "Built-Up"}, {ID: 3, Name: "Metal Roof"}, {ID: 4, Name: "Drainage"}},
	}
}

func TestResearchWithoutKey(t *testing.T) {
	res, outcomes := NewResearcher(llm.Disabled{}).Research(context.Background(), catalog())

	require.Len(t, res.Residential, 4)
	require.Len(t, res.Commercial, 4)
	assert.Len(t, outcomes, 8)
	assert.Equal(t, PlaceholderResearch("Shingling"), res.Residential[0].Research)
	assert.Equal(t, "Drainage", res.Commercial[3].Name)
	assert.Equal(t, 4, res.Commercial[3].ID)
	assert.Equal(t, "research.commercial-4-drainage", outcomes[7].Scope)
}

func TestResearchWithModel(t *testing.T) {
	m := mocks.NewMockClient(t)
	m.On("Query", mock.Anything, mock.MatchedBy(func(p string) bool {
		return strings.Contains(p, "## **7. Warranty and Lifespan**")
	}), researchMaxTokens).Return(fullReport(), nil).Times(8)

	res, outcomes := NewResearcher(m).Research(context.Background(), catalog())
	assert.Empty(t, outcomes)
	assert.Equal(t, "Body of Marketing.", res.Commercial[1].Research.Marketing)
}
