package mirsal

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/tfkr-ae/mirsal/domain"
	"github.com/tfkr-ae/mirsal/transform"
)

func TestWithLogger(t *testing.T) {
	t.Run("sets custom logger", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))

		c, err := New(
			WithLogger(logger),
		)
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}

		if c.Logger != logger {
			t.Fatalf("\nwanted:\n%v\ngot:\n%v", logger, c.Logger)
		}

		c.Logger.Info("test log message")
		if !strings.Contains(buf.String(), "test log message") {
			t.Fatalf("\nwanted:\nlog output containing 'test log message'\ngot:\n%q", buf.String())
		}
	})

	t.Run("handles nil logger safely", func(t *testing.T) {
		c, err := New(
			WithLogger(nil),
		)
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}

		if c.Logger == nil {
			t.Fatalf("\nwanted:\nnon-nil logger\ngot:\nnil")
		}

		defer func() {
			if r := recover(); r != nil {
				t.Fatalf("\nwanted:\nno panic\ngot:\n%v", r)
			}
		}()

		c.Logger.Info("safe check")
	})
}

func TestWithConfig(t *testing.T) {
	t.Run("rejects a relative api base", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.APIBase = "central.example"

		if _, err := New(WithConfig(cfg)); err == nil {
			t.Fatal("\nwanted:\nerror\ngot:\nnil")
		}
	})

	t.Run("rejects nil", func(t *testing.T) {
		if _, err := New(WithConfig(nil)); err == nil {
			t.Fatal("\nwanted:\nerror\ngot:\nnil")
		}
	})
}

func TestWithAlerter(t *testing.T) {
	t.Run("fails when an alerter is already set", func(t *testing.T) {
		_, err := New(
			WithAlerter(AlertFunc(func(ctx context.Context, alert Alert) {})),
			WithAlerter(AlertFunc(func(ctx context.Context, alert Alert) {})),
		)
		if !errors.Is(err, ErrHandlerDefined) {
			t.Fatalf("\nwanted:\n%v\ngot:\n%v", ErrHandlerDefined, err)
		}
	})

	t.Run("defaults to logging the alert", func(t *testing.T) {
		var buf bytes.Buffer
		doer := newFakeDoer()
		cfg := DefaultConfig()
		cfg.APIBase = testAPIBase

		c, err := New(
			WithConfig(cfg),
			WithDoer(doer),
			WithLogger(slog.New(slog.NewTextHandler(&buf, nil))),
		)
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
		defer c.Close()

		batch := c.Request(context.Background(), NewSpec(domain.KeyProjects, "/v1/projects"))
		doer.next(t).fail(errors.New("connection refused"))
		waitSettled(t, batch)

		if !strings.Contains(buf.String(), "there was no response to your request") {
			t.Fatalf("\nwanted:\nalert in log output\ngot:\n%q", buf.String())
		}
	})
}

func TestWithLogHandler(t *testing.T) {
	t.Run("fails when a handler is already set", func(t *testing.T) {
		_, err := New(
			WithLogHandler(func(log domain.Log) {}),
			WithLogHandler(func(log domain.Log) {}),
		)
		if !errors.Is(err, ErrHandlerDefined) {
			t.Fatalf("\nwanted:\n%v\ngot:\n%v", ErrHandlerDefined, err)
		}
	})

	t.Run("receives logs without a journal", func(t *testing.T) {
		var (
			mu   sync.Mutex
			logs []domain.Log
		)
		c, err := New(WithLogHandler(func(log domain.Log) {
			mu.Lock()
			defer mu.Unlock()
			logs = append(logs, log)
		}))
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
		defer c.Close()

		if err := c.WriteLog("INFO", "hello"); err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
		if err := c.WriteLog("TRACE", "hello"); err == nil {
			t.Fatal("\nwanted:\ninvalid level error\ngot:\nnil")
		}

		mu.Lock()
		defer mu.Unlock()
		if len(logs) != 1 || logs[0].Message != "hello" || logs[0].Level != "INFO" {
			t.Fatalf("\nwanted:\none INFO log\ngot:\n%v", logs)
		}
	})
}

func TestWithTransform(t *testing.T) {
	t.Run("rejects an invalid key", func(t *testing.T) {
		_, err := New(WithTransform(domain.Key(250), transform.Identity))
		if !errors.Is(err, ErrInvalidKey) {
			t.Fatalf("\nwanted:\n%v\ngot:\n%v", ErrInvalidKey, err)
		}
	})

	t.Run("overrides the catalog transform", func(t *testing.T) {
		client, doer, _ := newTestClient(t, WithTransform(domain.KeyProjects, func(res transform.Response) (any, error) {
			return len(res.Body), nil
		}))

		batch := client.Request(context.Background(), NewSpec(domain.KeyProjects, "/v1/projects"))
		doer.next(t).respond(http.StatusOK, `[{}]`)
		waitSettled(t, batch)

		value, _ := client.Store().Data(domain.KeyProjects)
		if value != 4 {
			t.Fatalf("\nwanted:\n4\ngot:\n%v", value)
		}
	})
}

func TestWithRequestModifier(t *testing.T) {
	client, doer, _ := newTestClient(t, WithRequestModifier(func(c *Client, req *http.Request) error {
		req.Header.Set("X-Client", "mirsal-test")
		return nil
	}))

	batch := client.Request(context.Background(), NewSpec(domain.KeyProjects, "/v1/projects"))
	c := doer.next(t)
	if got := c.req.Header.Get("X-Client"); got != "mirsal-test" {
		t.Fatalf("\nwanted:\nmirsal-test\ngot:\n%q", got)
	}
	c.respond(http.StatusOK, `[]`)
	waitSettled(t, batch)
}
