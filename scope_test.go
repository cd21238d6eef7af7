package mirsal

import (
	"net/http"
	"testing"
)

func scopeRequest(t *testing.T, raw string) *http.Request {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, raw, nil)
	if err != nil {
		t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
	}
	return req
}

func TestScopeFromConfig(t *testing.T) {
	t.Run("allows everything when nothing is configured", func(t *testing.T) {
		scope, err := ScopeFromConfig(DefaultConfig())
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
		if !scope.Allows(scopeRequest(t, "https://anywhere.example/")) {
			t.Fatal("\nwanted:\ntrue\ngot:\nfalse")
		}
	})

	t.Run("includes the api base host only", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.APIBase = "https://central.example/v1"

		scope, err := ScopeFromConfig(cfg)
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
		if !scope.Allows(scopeRequest(t, "https://central.example/v1/projects")) {
			t.Fatal("\nwanted:\napi host allowed\ngot:\ndenied")
		}
		if scope.Allows(scopeRequest(t, "https://central.example.evil/v1/projects")) {
			t.Fatal("\nwanted:\nlookalike host denied\ngot:\nallowed")
		}
	})

	t.Run("applies extra patterns and exclusions", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.APIBase = "https://central.example"
		cfg.AuthScope = []string{`\.central\.example$`, `-^public\.central\.example$`}

		scope, err := ScopeFromConfig(cfg)
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
		if !scope.Allows(scopeRequest(t, "https://files.central.example/a")) {
			t.Fatal("\nwanted:\nsubdomain allowed\ngot:\ndenied")
		}
		if scope.Allows(scopeRequest(t, "https://public.central.example/a")) {
			t.Fatal("\nwanted:\nexcluded host denied\ngot:\nallowed")
		}
	})

	t.Run("rejects an invalid pattern", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.AuthScope = []string{"("}
		if _, err := ScopeFromConfig(cfg); err == nil {
			t.Fatal("\nwanted:\nerror\ngot:\nnil")
		}
	})
}

func TestAuthScopeRules(t *testing.T) {
	scope := NewAuthScope(false)

	if err := scope.AddRule(`/v1/`, "url", false); err != nil {
		t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
	}
	if err := scope.AddRule(`/v1/`, "url", false); err == nil {
		t.Fatal("\nwanted:\nduplicate rule error\ngot:\nnil")
	}
	if err := scope.AddRule(`x`, "path", false); err == nil {
		t.Fatal("\nwanted:\ninvalid match type error\ngot:\nnil")
	}
	if !scope.Allows(scopeRequest(t, "https://central.example/v1/users")) {
		t.Fatal("\nwanted:\ntrue\ngot:\nfalse")
	}

	if err := scope.RemoveRule(`/v1/`, "url", false); err != nil {
		t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
	}
	if scope.Allows(scopeRequest(t, "https://central.example/v1/users")) {
		t.Fatal("\nwanted:\nfalse\ngot:\ntrue")
	}
	if err := scope.RemoveRule(`/v1/`, "url", false); err == nil {
		t.Fatal("\nwanted:\nrule not found error\ngot:\nnil")
	}

	scope.AddRule(`.*`, "host", true)
	scope.ClearRules()
	if len(scope.ExcludeRules) != 0 || len(scope.IncludeRules) != 0 {
		t.Fatalf("\nwanted:\nno rules\ngot:\n%v %v", scope.IncludeRules, scope.ExcludeRules)
	}
}
