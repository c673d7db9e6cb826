package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	kongdotenv "github.com/titusjaka/kong-dotenv-go"

	"github.com/lox/climateapi/internal/api"
	"github.com/lox/climateapi/internal/daterange"
	"github.com/lox/climateapi/internal/dataset"
	"github.com/lox/climateapi/internal/logging"
	"github.com/lox/climateapi/internal/store"
)

type Globals struct {
	DB        string `help:"Path to the SQLite climate dataset." default:"Resources/hawaii.sqlite" env:"CLIMATE_DB" type:"path"`
	LogLevel  string `help:"Log level (debug, info, warn, error)." default:"info" env:"CLIMATE_LOG_LEVEL"`
	LogFormat string `help:"Log format." default:"text" enum:"text,json" env:"CLIMATE_LOG_FORMAT"`
}

type CLI struct {
	Globals

	EnvFile kongdotenv.ENVFileConfig `kong:"optional,name=env-file,default='.env',help='Path to a .env file to load before parsing. Skipped when missing.'"`

	Serve ServeCmd `cmd:"" default:"withargs" help:"Serve the climate API over HTTP."`
	Check CheckCmd `cmd:"" help:"Verify the dataset schema and print a summary."`
	Fetch FetchCmd `cmd:"" help:"Download the dataset from an FTP server."`
}

type ServeCmd struct {
	Addr string `help:"HTTP listen address." default:":8080" env:"CLIMATE_ADDR"`
}

func (c *ServeCmd) Run(g *Globals, logger *slog.Logger) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	st, err := openDataset(ctx, g.DB)
	if err != nil {
		return err
	}
	defer st.Close()
	logger.Info("dataset ready", "path", g.DB)

	return api.NewServer(st, c.Addr, logger).Run(ctx)
}

type CheckCmd struct{}

func (c *CheckCmd) Run(g *Globals, logger *slog.Logger) error {
	ctx := context.Background()
	st, err := openDataset(ctx, g.DB)
	if err != nil {
		return err
	}
	defer st.Close()

	return st.WithSession(ctx, func(ss *store.Session) error {
		counts, err := ss.Counts(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("dataset:      %s\n", g.DB)
		fmt.Printf("stations:     %d\n", counts.Stations)
		fmt.Printf("measurements: %d\n", counts.Measurements)

		latest, err := ss.LatestObservedDate(ctx)
		if errors.Is(err, store.ErrEmptyDataset) {
			logger.Warn("dataset has no measurements")
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Printf("latest date:  %s\n", latest.Format(daterange.Layout))
		fmt.Printf("trailing year: %s\n", daterange.TrailingYear(latest))
		return nil
	})
}

type FetchCmd struct {
	Host       string        `help:"FTP server address (host:port)." required:"" env:"CLIMATE_FTP_HOST"`
	Path       string        `help:"Remote path of the dataset." default:"/hawaii.sqlite" env:"CLIMATE_FTP_PATH"`
	User       string        `help:"FTP user." default:"anonymous" env:"CLIMATE_FTP_USER"`
	Password   string        `help:"FTP password." default:"anonymous" env:"CLIMATE_FTP_PASSWORD"`
	Timeout    time.Duration `help:"Dial timeout." default:"30s"`
	MaxElapsed time.Duration `help:"Give up retrying after this long." default:"2m"`
}

func (c *FetchCmd) Run(g *Globals, logger *slog.Logger) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	f := dataset.NewFetcher(c.Host, logger)
	f.Path = c.Path
	f.User = c.User
	f.Password = c.Password
	f.Timeout = c.Timeout
	f.MaxElapsed = c.MaxElapsed

	logger.Info("fetching dataset", "host", c.Host, "path", c.Path, "dest", g.DB)
	if _, err := f.Fetch(ctx, g.DB); err != nil {
		return fmt.Errorf("fetch: %w", err)
	}
	return nil
}

func openDataset(ctx context.Context, path string) (*store.Store, error) {
	st, err := store.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	if err := st.Verify(ctx); err != nil {
		st.Close()
		return nil, err
	}
	return st, nil
}

func parserOptions() []kong.Option {
	return []kong.Option{
		kong.Name("climateapi"),
		kong.Description("Read-only JSON API over a climate observations dataset."),
		kong.UsageOnError(),
	}
}

func main() {
	var cli CLI
	kctx := kong.Parse(&cli, parserOptions()...)

	logger, err := logging.New(cli.LogLevel, cli.LogFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if err := kctx.Run(&cli.Globals, logger); err != nil {
		logger.Error("command failed", "command", kctx.Command(), "error", err)
		os.Exit(1)
	}
}
