// Command sonarctl controls SteelSeries Sonar from the command line and can
// serve a local REST bridge.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	appconfig "github.com/saker-ai/sonar-bridge/internal/config"
	applogger "github.com/saker-ai/sonar-bridge/internal/logger"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

var errUsage = errors.New("usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout io.Writer, stderr io.Writer) int {
	global := pflag.NewFlagSet("sonarctl", pflag.ContinueOnError)
	global.SetOutput(stderr)
	global.SetInterspersed(false)
	configPath := global.StringP("config", "c", "", "config file (default: sonar.yaml searched upwards)")
	appconfig.RegisterFlags(global)
	global.Usage = func() { usage(stderr, global) }

	if err := global.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}
	rest := global.Args()
	if len(rest) == 0 {
		usage(stderr, global)
		return exitUsage
	}

	cmd, ok := commands[rest[0]]
	if !ok {
		fmt.Fprintf(stderr, "sonarctl: unknown command %q\n", rest[0])
		usage(stderr, global)
		return exitUsage
	}

	env := &cliEnv{
		configPath: *configPath,
		flags:      global,
		stdout:     stdout,
		stderr:     stderr,
	}
	defer env.close()

	if err := cmd.run(ctx, env, rest[1:]); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintf(stderr, "usage: sonarctl %s %s\n", rest[0], cmd.args)
			return exitUsage
		}
		fmt.Fprintf(stderr, "sonarctl %s: %v\n", rest[0], err)
		return exitError
	}
	return exitOK
}

func usage(w io.Writer, global *pflag.FlagSet) {
	fmt.Fprintln(w, "usage: sonarctl [flags] <command> [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "commands:")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		cmd := commands[name]
		fmt.Fprintf(w, "  %-12s %-28s %s\n", name, cmd.args, cmd.summary)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "flags:")
	fmt.Fprint(w, global.FlagUsages())
}

// cliEnv lazily loads the configuration and logger shared by commands.
type cliEnv struct {
	configPath string
	flags      *pflag.FlagSet
	stdout     io.Writer
	stderr     io.Writer

	cfg    *appconfig.Config
	logger *zap.Logger
}

func (e *cliEnv) config() (appconfig.Config, error) {
	if e.cfg != nil {
		return *e.cfg, nil
	}
	cfg, err := appconfig.Load(e.configPath, e.flags)
	if err != nil {
		return appconfig.Config{}, err
	}
	e.cfg = &cfg
	return cfg, nil
}

// log returns a stderr logger at warn unless --log-level was given.
func (e *cliEnv) log() *zap.Logger {
	if e.logger != nil {
		return e.logger
	}
	cfg, err := e.config()
	logCfg := applogger.Config{Level: "warn", Format: "console", Stderr: true}
	if err == nil && e.flags.Changed("log-level") {
		logCfg.Level = cfg.Log.Level
	}
	logger, err := applogger.New(logCfg)
	if err != nil {
		logger = zap.NewNop()
	}
	e.logger = logger
	return logger
}

func (e *cliEnv) close() {
	if e.logger != nil {
		_ = e.logger.Sync()
	}
}
