package types

import "time"

// HTTPConfig holds shared HTTP settings used by every gateway.
type HTTPConfig struct {
	// Timeout is the per-request timeout. Zero leaves the transport default
	// (no client-side timeout).
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with upstream requests
	// (e.g. "serpfire/1.0.0").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`

	// MaxRetries is the number of extra attempts after an HTTP 429. Zero
	// means a single attempt.
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`
}

// SearchConfig holds settings for the web search gateway.
type SearchConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// APIKey is the Serper API key. Required.
	APIKey string `json:"-" yaml:"-" mapstructure:"api_key"`

	// Endpoint overrides the Serper search URL.
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty" mapstructure:"endpoint"`

	// DefaultCount is the number of hits returned when the caller does not
	// ask for a specific count (default 10).
	DefaultCount int `json:"default_count" yaml:"default_count" mapstructure:"default_count"`
}

// ScrapeConfig holds settings for the page scraping gateway.
type ScrapeConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// APIKey is the Firecrawl API key. Required.
	APIKey string `json:"-" yaml:"-" mapstructure:"api_key"`

	// BaseURL overrides the Firecrawl API base (e.g. "https://api.firecrawl.dev/v1").
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty" mapstructure:"base_url"`
}

// DocsConfig holds settings for the documentation lookup gateway.
type DocsConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// APIKey is the Context7 API key. Optional: without it documentation
	// calls fail with "not configured".
	APIKey string `json:"-" yaml:"-" mapstructure:"api_key"`

	// BaseURL overrides the Context7 API base (e.g. "https://context7.com/api/v2").
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty" mapstructure:"base_url"`
}

// ReportLimits caps how much scraped or fetched text each report section
// may carry. Text beyond a cap is cut and marked as truncated.
type ReportLimits struct {
	// ResearchSourceChars caps each source in the research report.
	ResearchSourceChars int `json:"research_source_chars" yaml:"research_source_chars" mapstructure:"research_source_chars"`

	// ComprehensiveSourceChars caps each source in the comprehensive report.
	ComprehensiveSourceChars int `json:"comprehensive_source_chars" yaml:"comprehensive_source_chars" mapstructure:"comprehensive_source_chars"`

	// DocDetailChars caps the documentation detail blob.
	DocDetailChars int `json:"doc_detail_chars" yaml:"doc_detail_chars" mapstructure:"doc_detail_chars"`
}

// Default report caps.
const (
	DefaultResearchSourceChars      = 5000
	DefaultComprehensiveSourceChars = 3000
	DefaultDocDetailChars           = 4000
)

// DefaultReportLimits returns the standard caps.
func DefaultReportLimits() ReportLimits {
	return ReportLimits{
		ResearchSourceChars:      DefaultResearchSourceChars,
		ComprehensiveSourceChars: DefaultComprehensiveSourceChars,
		DocDetailChars:           DefaultDocDetailChars,
	}
}

// WithDefaults fills zero or negative caps with the standard values.
func (l ReportLimits) WithDefaults() ReportLimits {
	d := DefaultReportLimits()
	if l.ResearchSourceChars <= 0 {
		l.ResearchSourceChars = d.ResearchSourceChars
	}
	if l.ComprehensiveSourceChars <= 0 {
		l.ComprehensiveSourceChars = d.ComprehensiveSourceChars
	}
	if l.DocDetailChars <= 0 {
		l.DocDetailChars = d.DocDetailChars
	}
	return l
}

// Config groups all runtime settings. It is built once at start and shared
// read-only by every invocation.
type Config struct {
	Search SearchConfig `json:"search" yaml:"search" mapstructure:"search"`
	Scrape ScrapeConfig `json:"scrape" yaml:"scrape" mapstructure:"scrape"`
	Docs   DocsConfig   `json:"docs" yaml:"docs" mapstructure:"docs"`
	Report ReportLimits `json:"report" yaml:"report" mapstructure:"report"`
}
