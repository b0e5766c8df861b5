package images

import (
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/roofsite-cli/internal/artifact"
	"github.com/sells-group/roofsite-cli/internal/vocab"
)

// CategorizedImage is one metadata record in shingle_categories.json.
type CategorizedImage struct {
	OriginalFilename     string `json:"original_filename"`
	NewFilename          string `json:"new_filename"`
	Brand                string `json:"brand"`
	Product              string `json:"product"`
	ModelNumber          string `json:"model_number"`
	CategorizationSource string `json:"categorization_source"`
}

// Metadata lists the images copied into each category. Every category is
// present, possibly with an empty list.
type Metadata map[string][]CategorizedImage

// Organize rebuilds by_type/ from the catalog: each entry's file is copied
// into its category folder under a collision-free name. Entries whose
// source file is missing are skipped.
func Organize(store *artifact.Store, v *vocab.Vocabulary, entries []Entry, assigned map[string]Assignment) (Metadata, error) {
	if err := os.RemoveAll(store.Path(artifact.ByTypeDir)); err != nil {
		return nil, eris.Wrap(err, "images: clear by_type")
	}

	meta := make(Metadata)
	names := make(map[string]*Names)
	for _, cat := range v.ImageCategoryNames() {
		meta[cat] = []CategorizedImage{}
		names[cat] = NewNames()
		if err := store.EnsureDir(artifact.ByTypeDir + "/" + cat); err != nil {
			return nil, err
		}
	}

	for _, e := range entries {
		a, ok := assigned[e.Key()]
		if !ok {
			cat, _ := v.CategorizeProduct(e.Product)
			a = Assignment{Category: cat, Source: SourceKeywords}
		}
		data, err := store.ReadBytes(artifact.CatalogDir + "/" + e.Filename)
		if err != nil {
			zap.L().Warn("images: catalog file missing, skipping", zap.String("file", e.Filename))
			continue
		}
		newName := names[a.Category].Next(SafeName(e.Filename))
		if err := store.WriteFile(artifact.ByTypeDir+"/"+a.Category+"/"+newName, data); err != nil {
			return nil, eris.Wrapf(err, "images: copy %s", e.Filename)
		}
		meta[a.Category] = append(meta[a.Category], CategorizedImage{
			OriginalFilename:     e.Filename,
			NewFilename:          newName,
			Brand:                e.Brand,
			Product:              e.Product,
			ModelNumber:          e.ModelNumber,
			CategorizationSource: a.Source,
		})
	}
	return meta, nil
}
