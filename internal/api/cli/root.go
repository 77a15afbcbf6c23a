// Package cli команды defectd на cobra. Каждая команда пишет в stdout
// ровно один JSON-конверт; логи идут в stderr.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"defect-inspector/config"
	"defect-inspector/internal/api/dto"
	"defect-inspector/internal/container"
	"defect-inspector/internal/domain"
)

// Version версия приложения.
const Version = "0.1.0"

type cli struct {
	stdout io.Writer
	stderr io.Writer

	cfg     *config.Config
	level   *slog.LevelVar
	log     *slog.Logger
	deps    *container.Container
	started bool

	dataDir   string
	backend   string
	extractor string
	bins      int
	logLevel  string
}

func newCLI(stdout, stderr io.Writer) *cli {
	return &cli{stdout: stdout, stderr: stderr, level: new(slog.LevelVar)}
}

func (c *cli) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "defectd",
		Short:         "Visual defect classifier for manufactured parts",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			c.started = true
			return c.configure(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			c.close()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return domain.InvalidCommand("no command given; use one of: train, get_counts, add_sample, predict, model_info, import, serve, bot")
		},
	}
	root.SetOut(c.stdout)
	root.SetErr(c.stderr)
	root.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return domain.InvalidCommand("%v", err)
	})

	pf := root.PersistentFlags()
	pf.StringVar(&c.dataDir, "data-dir", "", "directory for training_data.json and model.json (env DATA_DIR)")
	pf.StringVar(&c.backend, "store", "", "storage backend: file, sqlite, postgres, redis (env STORE_BACKEND)")
	pf.StringVar(&c.extractor, "extractor", "", "feature extractor: native or gocv (env EXTRACTOR)")
	pf.IntVar(&c.bins, "bins", 0, "histogram bins (env HIST_BINS)")
	pf.StringVar(&c.logLevel, "log-level", "", "debug, info, warn or error (env LOG_LEVEL)")

	root.AddCommand(
		c.trainCommand(),
		c.countsCommand(),
		c.addSampleCommand(),
		c.predictCommand(),
		c.modelInfoCommand(),
		c.importCommand(),
		c.serveCommand(),
		c.botCommand(),
	)
	return root
}

// configure загружает конфигурацию и применяет флаги поверх окружения.
func (c *cli) configure(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return domain.InvalidCommand("%v", err)
	}

	flags := cmd.Flags()
	if flags.Changed("data-dir") {
		cfg.DataDir = c.dataDir
	}
	if flags.Changed("store") {
		cfg.StoreBackend = c.backend
	}
	if flags.Changed("extractor") {
		cfg.Extractor = c.extractor
	}
	if flags.Changed("bins") {
		cfg.HistogramBins = c.bins
	}
	if flags.Changed("log-level") {
		if cfg.LogLevel, err = config.ParseLogLevel(c.logLevel); err != nil {
			return domain.InvalidCommand("%v", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return domain.InvalidCommand("%v", err)
	}

	c.cfg = cfg
	c.level.Set(cfg.LogLevel)
	c.log = slog.New(slog.NewTextHandler(c.stderr, &slog.HandlerOptions{Level: c.level}))
	return nil
}

// container собирает зависимости при первом обращении.
func (c *cli) container(ctx context.Context) (*container.Container, error) {
	if c.deps != nil {
		return c.deps, nil
	}
	deps, err := container.New(ctx, c.cfg, c.log)
	if err != nil {
		return nil, err
	}
	c.deps = deps
	return deps, nil
}

func (c *cli) close() {
	if c.deps == nil {
		return
	}
	if err := c.deps.Close(); err != nil {
		c.log.Warn("failed to close storage", "error", err)
	}
	c.deps = nil
}

// verbose поднимает уровень логов до info для долгоживущих команд.
func (c *cli) verbose() {
	if c.level.Level() > slog.LevelInfo {
		c.level.Set(slog.LevelInfo)
	}
}

func (c *cli) write(v any) error {
	enc := json.NewEncoder(c.stdout)
	return enc.Encode(v)
}

// Run выполняет команду и возвращает код завершения процесса.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	c := newCLI(stdout, stderr)
	root := c.rootCommand()
	if args == nil {
		// cobra подставляет os.Args для nil
		args = []string{}
	}
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	c.close()
	if !c.started && !errors.Is(err, domain.ErrInvalidCommand) {
		// ошибка разбора команды до запуска обработчика
		err = domain.InvalidCommand("%v", err)
	}
	if werr := c.write(dto.Error(err)); werr != nil {
		fmt.Fprintln(stderr, err)
	}
	return 1
}

func Execute() {
	// Ctrl+C и SIGTERM отменяют контекст команды
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
