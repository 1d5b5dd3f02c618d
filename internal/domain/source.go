package domain

// DefaultBaselineRating is used for sources missing from the registry.
const DefaultBaselineRating = 5.0

type Holder struct {
	Name    string  `yaml:"name" json:"name"`
	Percent float64 `yaml:"percent,omitempty" json:"percent,omitempty"`
}

type Source struct {
	ID       string   `yaml:"id" json:"id"`
	Name     string   `yaml:"name" json:"name"`
	Owner    string   `yaml:"owner" json:"owner"`
	Holders  []Holder `yaml:"institutional_holders" json:"institutional_holders,omitempty"`
	Accuracy float64  `yaml:"accuracy" json:"accuracy"`
	Bias     float64  `yaml:"bias" json:"bias"`
	FeedURL  string   `yaml:"rss" json:"rss,omitempty"`
	// PageURL and Selector drive the markup fallback when the feed yields nothing.
	PageURL  string `yaml:"url,omitempty" json:"url,omitempty"`
	Selector string `yaml:"scrape_selector,omitempty" json:"scrape_selector,omitempty"`
	Disabled bool   `yaml:"disabled,omitempty" json:"disabled,omitempty"`
}
