package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/roofsite-cli/internal/llm"
	"github.com/sells-group/roofsite-cli/internal/llm/mocks"
	"github.com/sells-group/roofsite-cli/internal/model"
	"github.com/sells-group/roofsite-cli/internal/vocab"
)

func names(list []model.Service) []string {
	out := make([]string, len(list))
	for i, s := range list {
		out[i] = s.Name
		if s.ID != i+1 {
			panic("ids must be 1..n")
		}
	}
	return out
}

var profile = &model.BusinessProfile{
	BusinessName: "Cowboys-Vaqueros Construction",
	Services:     []string{"Shingling", "Roof Repair"},
}

func assertValid(t *testing.T, c model.ServiceCatalog) {
	t.Helper()
	v := vocab.Default()
	require.NoError(t, c.Validate(v.Allowed))
}

func TestSelectNoHintsUsesDefaults(t *testing.T) {
	m := mocks.NewMockClient(t)
	s := NewSelector(m, vocab.Default())

	c, outcomes := s.Select(context.Background(), &model.BusinessProfile{BusinessName: "X"}, nil)
	assert.Equal(t, []string{"Shingling", "Guttering", "Chimney", "Skylights"}, names(c.Residential))
	assert.Equal(t, []string{"Coatings", "Built-Up", "Metal Roof", "Drainage"}, names(c.Commercial))
	require.Len(t, outcomes, 1)
	assert.Equal(t, model.ReasonNoInput, outcomes[0].Reason)
	assertValid(t, c)
}

func TestSelectFromModel(t *testing.T) {
	m := mocks.NewMockClient(t)
	m.On("Query", mock.Anything, mock.AnythingOfType("string"), selectorMaxTokens).Return(`Here you go:
{"residential": [{"id": 1, "name": "Shingling"}, {"id": 2, "name": "Repairs"}, {"id": 3, "name": "Inspection"}, {"id": 4, "name": "Guttering"}],
 "commercial": ["TPO Systems", "Coatings", "Restoration", "Maintenance"]}`, nil)

	c, outcomes := NewSelector(m, vocab.Default()).Select(context.Background(), profile, nil)
	assert.Empty(t, outcomes)
	assert.Equal(t, []string{"Shingling", "Repairs", "Inspection", "Guttering"}, names(c.Residential))
	assert.Equal(t, []string{"TPO Systems", "Coatings", "Restoration", "Maintenance"}, names(c.Commercial))
	assertValid(t, c)
}

func TestSelectReplacesBadSlots(t *testing.T) {
	m := mocks.NewMockClient(t)
	m.On("Query", mock.Anything, mock.Anything, mock.Anything).Return(`{
  "residential": [{"name": "Hot Tubs"}, {"name": "Shingling"}, {"name": "shingling"}],
  "commercial": [{"name": "Metal Roofing"}, {"name": "Drainage"}, {"name": "Built-Up"}, {"name": "Coatings"}]
}`, nil)

	c, outcomes := NewSelector(m, vocab.Default()).Select(context.Background(), profile, nil)

	// Slot 0 is invalid, slot 2 repeats slot 1, slot 3 is absent. Slot 0's
	// default "Shingling" is taken, so it moves to the next free default.
	assert.Equal(t, []string{"Guttering", "Shingling", "Chimney", "Skylights"}, names(c.Residential))
	assert.Equal(t, []string{"Metal Roof", "Drainage", "Built-Up", "Coatings"}, names(c.Commercial))
	require.Len(t, outcomes, 3)
	for _, o := range outcomes {
		assert.Equal(t, model.ReasonValidation, o.Reason)
	}
	assert.Equal(t, "services.residential[0]", outcomes[0].Scope)
	assertValid(t, c)
}

func TestSelectFallbacks(t *testing.T) {
	tests := []struct {
		name   string
		reply  string
		err    error
		reason string
	}{
		{name: "no key", err: llm.ErrNoKey, reason: model.ReasonNoKey},
		{name: "unparseable", reply: "Sorry, I can't help with that.", reason: model.ReasonParse},
		{name: "http failure", err: errors.New("bad request"), reason: model.ReasonHTTP},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := mocks.NewMockClient(t)
			m.On("Query", mock.Anything, mock.Anything, mock.Anything).Return(tt.reply, tt.err)

			c, outcomes := NewSelector(m, vocab.Default()).Select(context.Background(), profile, nil)
			assert.Equal(t, []string{"Shingling", "Guttering", "Chimney", "Skylights"}, names(c.Residential))
			require.Len(t, outcomes, 1)
			assert.Equal(t, tt.reason, outcomes[0].Reason)
			assertValid(t, c)
		})
	}
}

func TestSelectPromptCarriesContext(t *testing.T) {
	s := NewSelector(llm.Disabled{}, vocab.Default())
	p := s.prompt(profile, map[model.Category][]string{model.CategoryResidential: {"Siding"}})

	assert.Contains(t, p, "Cowboys-Vaqueros Construction")
	assert.Contains(t, p, "Roof Repair")
	assert.Contains(t, p, "Currently selected residential services: Siding")
	assert.Contains(t, p, "PVC Membrane")
	assert.NotContains(t, p, "Currently selected commercial")
}

func TestCurrentSelection(t *testing.T) {
	got := CurrentSelection(vocab.Default(), map[model.Category][]string{
		model.CategoryResidential: {"SHINGLING", "Pool Cleaning"},
		model.CategoryCommercial:  {"epdm"},
	})
	assert.Equal(t, []string{"Shingling"}, got[model.CategoryResidential])
	assert.Equal(t, []string{"EPDM"}, got[model.CategoryCommercial])
}
