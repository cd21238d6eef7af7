package mirsal

import (
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"
)

// Rule is a single scope rule: a compiled pattern and whether it is
// matched against the request host or the full URL.
type Rule struct {
	Pattern   *regexp.Regexp
	MatchType string // "host" or "url"
}

// AuthScope decides which requests may carry the bearer token. Exclude
// rules win over include rules; requests matching neither get DefaultAllow.
type AuthScope struct {
	mu           sync.RWMutex
	IncludeRules map[string]Rule // key format: "pattern|matchType"
	ExcludeRules map[string]Rule // key format: "pattern|matchType"
	DefaultAllow bool
}

// NewAuthScope creates an empty scope with the given default.
func NewAuthScope(defaultAllow bool) *AuthScope {
	return &AuthScope{
		IncludeRules: make(map[string]Rule),
		ExcludeRules: make(map[string]Rule),
		DefaultAllow: defaultAllow,
	}
}

// ScopeFromConfig builds the scope for cfg: the API base host is included,
// and every auth_scope pattern is added as a host rule, with a leading "-"
// marking an exclusion. With neither configured every host is allowed.
func ScopeFromConfig(cfg *Config) (*AuthScope, error) {
	scope := NewAuthScope(cfg.APIBase == "" && len(cfg.AuthScope) == 0)

	if cfg.APIBase != "" {
		base, err := url.Parse(cfg.APIBase)
		if err != nil {
			return nil, fmt.Errorf("parsing api_base : %w", err)
		}
		if err := scope.AddRule("^"+regexp.QuoteMeta(base.Host)+"$", "host", false); err != nil {
			return nil, err
		}
	}
	for _, pattern := range cfg.AuthScope {
		if err := scope.AddRule(pattern, "host", strings.HasPrefix(pattern, "-")); err != nil {
			return nil, fmt.Errorf("adding auth scope %q : %w", pattern, err)
		}
	}
	return scope, nil
}

// ClearRules clears all inclusion and exclusion rules.
func (s *AuthScope) ClearRules() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.IncludeRules = make(map[string]Rule)
	s.ExcludeRules = make(map[string]Rule)
}

// AddRule adds a rule. A leading "-" on the pattern is stripped.
func (s *AuthScope) AddRule(pattern, matchType string, exclude bool) error {
	matchType = strings.ToLower(matchType)
	if matchType != "host" && matchType != "url" {
		return fmt.Errorf("invalid match type: %s", matchType)
	}

	compiled, err := regexp.Compile(strings.TrimPrefix(pattern, "-"))
	if err != nil {
		return fmt.Errorf("invalid regex pattern: %w", err)
	}
	rule := Rule{
		Pattern:   compiled,
		MatchType: matchType,
	}
	key := fmt.Sprintf("%s|%s", compiled.String(), matchType)

	s.mu.Lock()
	defer s.mu.Unlock()

	rules := s.IncludeRules
	if exclude {
		rules = s.ExcludeRules
	}
	if _, exists := rules[key]; exists {
		return fmt.Errorf("rule already exists")
	}
	rules[key] = rule
	return nil
}

// RemoveRule removes a rule.
func (s *AuthScope) RemoveRule(pattern, matchType string, exclude bool) error {
	key := fmt.Sprintf("%s|%s", strings.TrimPrefix(pattern, "-"), strings.ToLower(matchType))

	s.mu.Lock()
	defer s.mu.Unlock()

	rules := s.IncludeRules
	if exclude {
		rules = s.ExcludeRules
	}
	if _, exists := rules[key]; !exists {
		return fmt.Errorf("rule not found")
	}
	delete(rules, key)
	return nil
}

// Allows reports whether req may carry the bearer token.
func (s *AuthScope) Allows(req *http.Request) bool {
	host := req.URL.Host
	if host == "" {
		host = req.Host
	}
	target := map[string]string{
		"host": host,
		"url":  req.URL.String(),
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, rule := range s.ExcludeRules {
		if rule.Pattern.MatchString(target[rule.MatchType]) {
			return false
		}
	}
	for _, rule := range s.IncludeRules {
		if rule.Pattern.MatchString(target[rule.MatchType]) {
			return true
		}
	}
	return s.DefaultAllow
}
