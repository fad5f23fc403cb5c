package dispatch

import (
	"strings"
	"time"
)

// Strategy describes how to find and press the vote control on one site.
type Strategy struct {
	// Name is the hostname substring the strategy applies to, and its metrics label.
	Name string
	// Selectors are tried in priority order.
	Selectors []string
	// Timeout bounds the wait for a visible match.
	Timeout time.Duration
	// PreDelay runs after the control is found and before it is scrolled into view.
	PreDelay time.Duration
	// Settle runs between scrolling and clicking.
	Settle time.Duration
	// SuccessMessage is shown on the page after the click.
	SuccessMessage string
}

// CaptchaSelectors mark pages that need a human.
var CaptchaSelectors = []string{
	`iframe[src*="recaptcha"]`,
	`iframe[src*="hcaptcha"]`,
	`.g-recaptcha`,
	`.h-captcha`,
	`#captcha`,
	`[class*="captcha"]`,
	`[id*="captcha"]`,
}

const (
	namedSiteTimeout = 10 * time.Second
	genericTimeout   = 5 * time.Second
)

// Generic is the fallback for hostnames no strategy claims.
var Generic = Strategy{
	Name: "generic",
	Selectors: []string{
		`button[type="submit"]`,
		`input[type="submit"]`,
		`button.vote`,
		`button.btn-vote`,
		`a.vote-button`,
		`button.btn-primary`,
		`a[href*="vote"]`,
	},
	Timeout:        genericTimeout,
	Settle:         time.Second,
	SuccessMessage: "✓ Vote attempted!",
}

// Sites are the known server-list strategies.
var Sites = []Strategy{
	{
		Name:           "minecraft-mp.com",
		Selectors:      []string{`button[type="submit"]`, `input[type="submit"]`, `.vote-button`, `button.btn-primary`, `a[href*="vote"]`},
		Timeout:        namedSiteTimeout,
		PreDelay:       time.Second,
		Settle:         500 * time.Millisecond,
		SuccessMessage: "✓ Vote submitted successfully!",
	},
	{
		Name:           "minecraftservers.org",
		Selectors:      []string{`button[type="submit"]`, `input[type="submit"]`, `.vote-button`, `button.btn`, `a.btn`},
		Timeout:        namedSiteTimeout,
		Settle:         time.Second,
		SuccessMessage: "✓ Vote submitted!",
	},
	{
		Name:           "minecraft-server-list.com",
		Selectors:      []string{`button[type="submit"]`, `input[type="submit"]`, `.vote-btn`, `button.btn`, `a.vote`},
		Timeout:        namedSiteTimeout,
		Settle:         time.Second,
		SuccessMessage: "✓ Vote submitted!",
	},
	{
		Name:           "minecraft-server.net",
		Selectors:      []string{`button[type="submit"]`, `input[type="submit"]`, `.btn-vote`, `button.btn`, `a[href*="vote"]`},
		Timeout:        namedSiteTimeout,
		Settle:         time.Second,
		SuccessMessage: "✓ Vote submitted!",
	},
}

// Registry picks a Strategy by hostname.
type Registry struct {
	strategies []Strategy
	fallback   Strategy
}

// NewRegistry creates a registry. Strategies are matched in order.
func NewRegistry(fallback Strategy, strategies ...Strategy) *Registry {
	return &Registry{strategies: strategies, fallback: fallback}
}

// DefaultRegistry holds the known sites and the generic fallback.
func DefaultRegistry() *Registry {
	return NewRegistry(Generic, Sites...)
}

// Lookup returns the first strategy whose name is a substring of hostname, or the fallback.
func (r *Registry) Lookup(hostname string) Strategy {
	host := strings.ToLower(hostname)
	for _, s := range r.strategies {
		if strings.Contains(host, s.Name) {
			return s
		}
	}
	return r.fallback
}
