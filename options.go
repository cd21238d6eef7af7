package mirsal

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/tfkr-ae/mirsal/db"
	"github.com/tfkr-ae/mirsal/domain"
	"github.com/tfkr-ae/mirsal/metrics"
	"github.com/tfkr-ae/mirsal/transform"
)

// WithOptions applies a series of configuration functions to the client.
// It returns the first error encountered.
func (c *Client) WithOptions(options ...func(*Client) error) error {
	for _, option := range options {
		if err := option(c); err != nil {
			return fmt.Errorf("applying option on mirsal : %w", err)
		}
	}
	return nil
}

// WithConfigDir loads config.yaml from dir, creating both on first run.
func WithConfigDir(dir string) func(*Client) error {
	return func(c *Client) error {
		cfg, err := LoadConfig(dir)
		if err != nil {
			return fmt.Errorf("loading config from %s : %w", dir, err)
		}
		c.Config = cfg
		return nil
	}
}

// WithConfig uses cfg as is.
func WithConfig(cfg *Config) func(*Client) error {
	return func(c *Client) error {
		if cfg == nil {
			return fmt.Errorf("config is nil")
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		c.Config = cfg
		return nil
	}
}

// WithLogger sets the logger. A nil logger discards everything.
func WithLogger(logger *slog.Logger) func(*Client) error {
	return func(c *Client) error {
		if logger == nil {
			logger = slog.New(slog.DiscardHandler)
		}
		c.Logger = logger
		return nil
	}
}

// WithDoer sends requests through doer instead of the default http.Client.
// The response modifiers and the rate limiter only run with the default client.
func WithDoer(doer Doer) func(*Client) error {
	return func(c *Client) error {
		c.doer = doer
		return nil
	}
}

// WithRoundTripper sets the base transport under the rate limiter and the response modifiers.
func WithRoundTripper(rt http.RoundTripper) func(*Client) error {
	return func(c *Client) error {
		c.roundTripper = rt
		return nil
	}
}

// WithAlerter takes the alerter that presents batch alerts.
func WithAlerter(alerter Alerter) func(*Client) error {
	return func(c *Client) error {
		if c.alerter != nil {
			return fmt.Errorf("alerter : %w", ErrHandlerDefined)
		}
		c.alerter = alerter
		return nil
	}
}

// WithTokenSource sets where bearer tokens come from.
func WithTokenSource(tokens TokenSource) func(*Client) error {
	return func(c *Client) error {
		c.tokens = tokens
		return nil
	}
}

// WithScope replaces the auth scope derived from the config.
func WithScope(scope *AuthScope) func(*Client) error {
	return func(c *Client) error {
		c.Scope = scope
		return nil
	}
}

// WithJournal takes the repository that records batches, fetches and alert
// logs and starts the writer. A journal opened by the client is closed first.
func WithJournal(repo Repository) func(*Client) error {
	return func(c *Client) error {
		c.stopWriter()
		if c.Repo != nil && c.ownsRepo {
			if err := c.Repo.Close(); err != nil {
				return fmt.Errorf("closing previous journal : %w", err)
			}
		}
		c.Repo = repo
		c.ownsRepo = false
		if repo != nil {
			c.startWriter()
		}
		return nil
	}
}

// WithJournalPath opens, migrating if needed, the SQLite journal at path.
// The client closes it on Close.
func WithJournalPath(path string) func(*Client) error {
	return func(c *Client) error {
		repo, err := db.Open(path)
		if err != nil {
			return fmt.Errorf("opening journal %s : %w", path, err)
		}
		if err := WithJournal(repo)(c); err != nil {
			repo.Close()
			return err
		}
		c.ownsRepo = true
		return nil
	}
}

// WithLogHandler takes a handler executed on each journal log entry.
func WithLogHandler(handler func(log domain.Log)) func(*Client) error {
	return func(c *Client) error {
		if c.OnLog != nil {
			return fmt.Errorf("log handler : %w", ErrHandlerDefined)
		}
		c.OnLog = handler
		return nil
	}
}

// WithMetrics records fetch metrics into collector.
func WithMetrics(collector *metrics.Collector) func(*Client) error {
	return func(c *Client) error {
		c.Metrics = collector
		return nil
	}
}

// WithTransforms replaces the transform registry.
func WithTransforms(registry *transform.Registry) func(*Client) error {
	return func(c *Client) error {
		if registry == nil {
			return fmt.Errorf("transform registry is nil")
		}
		c.transforms = registry
		return nil
	}
}

// WithTransform registers fn for key on the current registry.
func WithTransform(key domain.Key, fn transform.Func) func(*Client) error {
	return func(c *Client) error {
		if !key.Valid() {
			return ErrInvalidKey
		}
		c.transforms.Register(key, fn)
		return nil
	}
}

// WithRequestModifier appends modifier to the request pipeline.
func WithRequestModifier(modifier RequestModifierFunc) func(*Client) error {
	return func(c *Client) error {
		c.AddRequestModifier(modifier)
		return nil
	}
}

// WithResponseModifier appends modifier to the response pipeline.
func WithResponseModifier(modifier ResponseModifierFunc) func(*Client) error {
	return func(c *Client) error {
		c.AddResponseModifier(modifier)
		return nil
	}
}
