package spider

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Detail engines selectable via details.engine.
const (
	DetailEngineBrowser = "browser"
	DetailEngineStatic  = "static"
)

// Config captures every knob that influences one crawl invocation. It is
// decoupled from Viper so the spider can be constructed and tested without
// any configuration machinery.
type Config struct {
	URL        string
	Year       int
	Issues     []int
	GetDetails bool
	Headless   bool
	UserAgent  string
	Timeout    time.Duration
	OutputPath string

	// WaitAttempts and WaitInterval bound the poll for paper rows after an
	// issue is selected.
	WaitAttempts int
	WaitInterval time.Duration

	// Settle delays let client-side rendering catch up after a successful
	// year or issue click.
	YearSettleDelay  time.Duration
	IssueSettleDelay time.Duration

	// DetailEngine selects how detail pages are fetched; DetailDelay paces
	// consecutive detail fetches.
	DetailEngine string
	DetailDelay  time.Duration
}

// LoadConfig constructs a Config by reading from Viper. The issue spec is
// parsed here so an invalid spec fails before any browser is started.
func LoadConfig(v *viper.Viper) (Config, error) {
	issues, err := ParseIssueSpec(v.GetString("crawler.issue"))
	if err != nil {
		return Config{}, err
	}
	cfg := Config{
		URL:              v.GetString("crawler.url"),
		Year:             v.GetInt("crawler.year"),
		Issues:           issues,
		GetDetails:       v.GetBool("crawler.details") && !v.GetBool("crawler.no_details"),
		Headless:         v.GetBool("crawler.headless") && !v.GetBool("crawler.no_headless"),
		UserAgent:        v.GetString("crawler.user_agent"),
		Timeout:          time.Duration(v.GetInt("crawler.timeout_ms")) * time.Millisecond,
		OutputPath:       v.GetString("crawler.output"),
		WaitAttempts:     v.GetInt("crawler.wait_attempts"),
		WaitInterval:     v.GetDuration("crawler.wait_interval"),
		YearSettleDelay:  v.GetDuration("crawler.year_settle_delay"),
		IssueSettleDelay: v.GetDuration("crawler.issue_settle_delay"),
		DetailEngine:     v.GetString("details.engine"),
		DetailDelay:      v.GetDuration("details.delay"),
	}
	return cfg, cfg.Validate()
}

// Validate checks for obviously bad configuration combinations.
func (c Config) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("crawler.url must be set")
	}
	if c.Year <= 0 {
		return fmt.Errorf("crawler.year must be > 0")
	}
	if c.UserAgent == "" {
		return fmt.Errorf("crawler.user_agent must be set")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("crawler.timeout_ms must be > 0")
	}
	if c.OutputPath == "" {
		return fmt.Errorf("crawler.output must be set")
	}
	if c.WaitAttempts <= 0 {
		return fmt.Errorf("crawler.wait_attempts must be > 0")
	}
	if c.WaitInterval <= 0 {
		return fmt.Errorf("crawler.wait_interval must be > 0")
	}
	if c.YearSettleDelay < 0 || c.IssueSettleDelay < 0 {
		return fmt.Errorf("settle delays must be >= 0")
	}
	switch c.DetailEngine {
	case DetailEngineBrowser, DetailEngineStatic:
	default:
		return fmt.Errorf("details.engine must be %q or %q", DetailEngineBrowser, DetailEngineStatic)
	}
	if c.DetailDelay < 0 {
		return fmt.Errorf("details.delay must be >= 0")
	}
	return nil
}
