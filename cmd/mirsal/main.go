// Command mirsal fetches resources through the mirsal client and reads its
// fetch journal.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"

	"github.com/docopt/docopt-go"
	"gopkg.in/yaml.v3"

	"github.com/tfkr-ae/mirsal"
	"github.com/tfkr-ae/mirsal/db"
	"github.com/tfkr-ae/mirsal/domain"
	"github.com/tfkr-ae/mirsal/session"
)

const version = "0.1.0"

// errAlerted is returned once a failure was already printed by the alerter.
var errAlerted = errors.New("alerted")

const usage = `Mirsal.

Usage:
    mirsal get <key> [--config=<dir>] [--project=<id>] [--form=<xmlFormId>]
        [--instance=<instanceId>] [--dataset=<name>] [--extended] [--token=<token>]
    mirsal journal [--config=<dir>] [--key=<key>]
    mirsal keys
    mirsal -h | --help
    mirsal --version

Options:
    -h --help                 Show this screen.
    --version                 Show version.
    --config=<dir>            Config directory, defaults to the user config dir.
    --project=<id>            Project id.
    --form=<xmlFormId>        Form id.
    --instance=<instanceId>   Submission instance id or entity uuid.
    --dataset=<name>          Dataset name.
    --extended                Ask for extended metadata.
    --token=<token>           Session token, overrides any stored session.
    --key=<key>               Only list fetches for this key.`

func main() {
	opts, err := docopt.ParseArgs(usage, os.Args[1:], version)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if get, _ := opts.Bool("get"); get {
		err = runGet(ctx, opts)
	} else if journal, _ := opts.Bool("journal"); journal {
		err = runJournal(opts)
	} else if keys, _ := opts.Bool("keys"); keys {
		err = runKeys()
	}
	if err != nil {
		if !errors.Is(err, errAlerted) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func loadConfig(opts docopt.Opts) (*mirsal.Config, error) {
	dir, _ := opts.String("--config")
	if dir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("getting user config dir : %w", err)
		}
		dir = filepath.Join(base, "mirsal")
	}
	return mirsal.LoadConfig(dir)
}

func runGet(ctx context.Context, opts docopt.Opts) error {
	name, _ := opts.String("<key>")
	key, err := domain.ParseKey(name)
	if err != nil {
		return err
	}

	var target pathTarget
	if project, _ := opts.String("--project"); project != "" {
		target.ProjectID, err = strconv.ParseInt(project, 10, 64)
		if err != nil {
			return fmt.Errorf("parsing --project : %w", err)
		}
	}
	target.Form, _ = opts.String("--form")
	target.Instance, _ = opts.String("--instance")
	target.Dataset, _ = opts.String("--dataset")

	path, err := pathFor(key, target)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))

	options := []func(*mirsal.Client) error{
		mirsal.WithConfig(cfg),
		mirsal.WithLogger(logger),
		mirsal.WithAlerter(mirsal.AlertFunc(func(ctx context.Context, alert mirsal.Alert) {
			fmt.Fprintf(os.Stderr, "%s: %s\n", alert.Severity, alert.Message)
		})),
	}
	if token, _ := opts.String("--token"); token != "" {
		holder := session.NewHolder()
		holder.Set(token)
		options = append(options, mirsal.WithTokenSource(holder))
	}

	client, err := mirsal.New(options...)
	if err != nil {
		return err
	}
	defer client.Close()

	var specOptions []mirsal.SpecOption
	if extended, _ := opts.Bool("--extended"); extended {
		specOptions = append(specOptions, mirsal.WithExtended())
	}
	if err := client.Fetch(ctx, mirsal.NewSpec(key, path, specOptions...)); err != nil {
		var fetchErr *mirsal.FetchError
		if errors.As(err, &fetchErr) {
			return errAlerted
		}
		return err
	}

	value, _ := client.Store().Data(key)
	return printYAML(value)
}

func runJournal(opts docopt.Opts) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	if cfg.JournalPath == "" {
		return fmt.Errorf("journal_path is not set in %s", filepath.Join(cfg.ConfigDir, "config.yaml"))
	}

	repo, err := db.Open(cfg.JournalPath)
	if err != nil {
		return err
	}
	defer repo.Close()

	var fetches []*domain.FetchSummary
	if name, _ := opts.String("--key"); name != "" {
		key, err := domain.ParseKey(name)
		if err != nil {
			return err
		}
		fetches, err = repo.GetFetchesByKey(key)
		if err != nil {
			return err
		}
	} else {
		fetches, err = repo.GetFetchSummaries()
		if err != nil {
			return err
		}
	}

	for _, fetch := range fetches {
		fmt.Printf("%s  %-12s %-18s %3d  %-6s %s\n",
			fetch.RequestedAt.Format("2006-01-02 15:04:05"),
			fetch.Outcome, fetch.Key, fetch.StatusCode, fetch.Method, fetch.URL)
	}
	return nil
}

func runKeys() error {
	for _, key := range domain.AllKeys() {
		fmt.Println(key)
	}
	return nil
}

func printYAML(value any) error {
	out, err := yaml.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding yaml : %w", err)
	}
	_, err = os.Stdout.Write(out)
	return err
}
