package artifact

import (
	"embed"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	"github.com/xeipuuv/gojsonschema"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// schemaFiles maps artifacts to the schema describing their shape.
var schemaFiles = map[string]string{
	ProfileFile:   "schemas/profile.json",
	ReviewsFile:   "schemas/reviews.json",
	SentimentFile: "schemas/sentiment.json",
	ServicesFile:  "schemas/services.json",
	ResearchFile:  "schemas/research.json",
	CatalogFile:   "schemas/catalog.json",
}

var (
	schemaMu    sync.Mutex
	schemaCache = map[string]*gojsonschema.Schema{}
)

func schemaFor(rel string) (*gojsonschema.Schema, error) {
	name, ok := schemaFiles[rel]
	if !ok {
		return nil, nil
	}

	schemaMu.Lock()
	defer schemaMu.Unlock()
	if s, ok := schemaCache[name]; ok {
		return s, nil
	}

	raw, err := schemaFS.ReadFile(name)
	if err != nil {
		return nil, eris.Wrapf(err, "artifact: read schema %s", name)
	}
	s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return nil, eris.Wrapf(err, "artifact: compile schema %s", name)
	}
	schemaCache[name] = s
	return s, nil
}

// Validate checks data against the schema registered for the artifact.
// Artifacts without a schema always pass.
func Validate(rel string, data []byte) error {
	s, err := schemaFor(rel)
	if err != nil || s == nil {
		return err
	}

	result, err := s.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return eris.Wrap(err, "invalid json")
	}
	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return eris.Errorf("shape mismatch: %s", strings.Join(errs, "; "))
	}
	return nil
}
