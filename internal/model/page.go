package model

// Block names used by the front-end renderer.
const (
	BlockHero             = "HeroBlock"
	BlockHeaderBanner     = "HeaderBanner"
	BlockGeneralList      = "GeneralList"
	BlockListDropdown     = "ListDropdown"
	BlockGridImageText    = "GridImageTextBlock"
	BlockPricingGrid      = "PricingGrid"
	BlockPricingOptions   = "PricingOptions"
	BlockActionButton     = "ActionButtonBlock"
	BlockVideoCTA         = "VideoCTA"
	BlockMaterialShowcase = "MaterialShowcase"
	BlockComparisonTable  = "ComparisonTable"
	BlockProcessSteps     = "ProcessSteps"
	BlockFAQ              = "FAQ"
)

// Block is one tagged section of a service page. Config's shape depends on
// BlockName.
type Block struct {
	BlockName   string         `json:"blockName"`
	Config      map[string]any `json:"config"`
	SearchTerms []string       `json:"searchTerms,omitempty"`
	ImagePath   string         `json:"imagePath,omitempty"`
}

// ServicePage is the generated page for one service.
type ServicePage struct {
	ID       int      `json:"id"`
	Name     string   `json:"name"`
	Category Category `json:"category"`
	Slug     string   `json:"slug"`
	Variant  string   `json:"variant"`
	Blocks   []Block  `json:"blocks"`
}
