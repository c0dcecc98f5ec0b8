package count

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dtnitsch/log-word-counter/internal/common"
	"github.com/dtnitsch/log-word-counter/models"
	"github.com/dtnitsch/log-word-counter/pkg/cluster"
	"github.com/urfave/cli/v2"
)

func CountAction(c *cli.Context) error {
	logLevel := slog.LevelInfo
	if c.Bool("quiet") {
		logLevel = slog.LevelError
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	cfg, err := ResolveConfig(c)
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		return cli.Exit(err.Error(), ExitFailure)
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	host := common.Hostname()
	rank := c.Int("rank")
	gopts := cluster.Options{
		Rank:        rank,
		Size:        c.Int("size"),
		Addr:        c.String("coordinator"),
		JobID:       c.String("job"),
		DialTimeout: c.Duration("dial-timeout"),
		Logger:      logger.With("rank", rank),
	}

	_, err = Start(ctx, Options{Config: cfg, Host: host, Logger: logger}, gopts, os.Stdout)
	if err != nil {
		return cli.Exit(fmt.Sprintf("[%s rank %d] %v", host, rank, err), ExitCode(err))
	}
	return nil
}

// ResolveConfig layers CLI flags over the YAML config file over defaults.
func ResolveConfig(c *cli.Context) (models.CountConfig, error) {
	cfg, err := models.LoadConfig(c.String("config"))
	if err != nil {
		return models.CountConfig{}, err
	}
	if c.IsSet("dir") {
		cfg.Dir = c.String("dir")
	}
	if c.IsSet("suffix") {
		cfg.Suffix = c.String("suffix")
	}
	if c.IsSet("threads") {
		cfg.Threads = c.Int("threads")
	}
	if c.IsSet("max-line-bytes") {
		cfg.MaxLineBytes = c.Int("max-line-bytes")
	}
	if c.IsSet("delimiters") {
		cfg.Delimiters = c.String("delimiters")
	}
	if c.IsSet("format") {
		cfg.Format = c.String("format")
	}
	if c.IsSet("progress") {
		p := c.Bool("progress")
		cfg.Progress = &p
	}
	if err := cfg.Validate(); err != nil {
		return models.CountConfig{}, err
	}
	return cfg, nil
}
