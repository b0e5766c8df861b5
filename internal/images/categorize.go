package images

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/roofsite-cli/internal/llm"
	"github.com/sells-group/roofsite-cli/internal/model"
	"github.com/sells-group/roofsite-cli/internal/vocab"
)

// Categorization sources recorded in the metadata file.
const (
	SourceLLM      = "DeepSeek"
	SourceKeywords = "Keywords"
)

const (
	defaultBatchSize  = 30
	categoryMaxTokens = 2000
)

// Assignment is the category chosen for one product description.
type Assignment struct {
	Category string
	Source   string
}

// Categorizer assigns image categories to catalog products.
type Categorizer struct {
	llm       llm.Client
	vocab     *vocab.Vocabulary
	batchSize int
}

// NewCategorizer creates a Categorizer sending at most batchSize
// descriptions per prompt.
func NewCategorizer(c llm.Client, v *vocab.Vocabulary, batchSize int) *Categorizer {
	if c == nil {
		c = llm.Disabled{}
	}
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &Categorizer{llm: c, vocab: v, batchSize: batchSize}
}

// Categorize returns an assignment for every unique entry key. A batch the
// model cannot answer falls back to keyword matching on the product name,
// as does any single description it leaves out or answers with an unknown
// category.
func (c *Categorizer) Categorize(ctx context.Context, entries []Entry) (map[string]Assignment, []model.Outcome) {
	var keys []string
	products := make(map[string]string)
	for _, e := range entries {
		k := e.Key()
		if _, ok := products[k]; ok {
			continue
		}
		products[k] = e.Product
		keys = append(keys, k)
	}

	out := make(map[string]Assignment, len(keys))
	var outcomes []model.Outcome
	for start := 0; start < len(keys); start += c.batchSize {
		end := min(start+c.batchSize, len(keys))
		batch := keys[start:end]
		scope := fmt.Sprintf("images.batch[%d]", start/c.batchSize)

		var reply map[string]string
		o := llm.QueryJSON(ctx, c.llm, scope, c.prompt(batch), categoryMaxTokens, &reply)
		if o.IsFallback() {
			outcomes = append(outcomes, o)
		}
		answers := make(map[string]string, len(reply))
		for k, v := range reply {
			answers[normalizeKey(k)] = v
		}

		for _, k := range batch {
			if cat, ok := c.category(answers[normalizeKey(k)]); ok {
				out[k] = Assignment{Category: cat, Source: SourceLLM}
				continue
			}
			cat, _ := c.vocab.CategorizeProduct(products[k])
			out[k] = Assignment{Category: cat, Source: SourceKeywords}
		}
	}

	llmCount := 0
	for _, a := range out {
		if a.Source == SourceLLM {
			llmCount++
		}
	}
	zap.L().Info("images: categorized products",
		zap.Int("products", len(keys)),
		zap.Int("by_model", llmCount),
		zap.Int("by_keywords", len(keys)-llmCount),
	)
	return out, outcomes
}

// category maps a model answer such as "metal roofing" onto a category name.
func (c *Categorizer) category(answer string) (string, bool) {
	answer = strings.ReplaceAll(strings.TrimSpace(answer), " ", "_")
	if answer == "" {
		return "", false
	}
	for _, name := range c.vocab.ImageCategoryNames() {
		if strings.EqualFold(name, answer) {
			return name, true
		}
	}
	return "", false
}

func (c *Categorizer) prompt(batch []string) string {
	var sb strings.Builder
	sb.WriteString("Classify each roofing product into exactly one category: ")
	sb.WriteString(strings.Join(c.vocab.ImageCategoryNames(), ", "))
	sb.WriteString(".\nReturn only a JSON object mapping each product description, exactly as written, to its category.\n\nProducts:\n")
	for _, k := range batch {
		sb.WriteString("- ")
		sb.WriteString(k)
		sb.WriteString("\n")
	}
	return sb.String()
}

func normalizeKey(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
