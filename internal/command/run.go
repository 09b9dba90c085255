package command

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/joeycumines/go-btcore/internal/btcore"
	"github.com/joeycumines/go-btcore/internal/config"
	"github.com/joeycumines/go-btcore/internal/leaf"
	"github.com/joeycumines/go-btcore/internal/runner"
)

// RunCommand builds a demo tree and ticks it until it concludes.
//
// Node parameters are layered: each demo's built-in defaults, then the
// config file's [node <name>] sections, then the -params YAML file. Runner
// options come from flags, then config.
type RunCommand struct {
	*BaseCommand
	ctx    context.Context
	config *config.Config

	tree       string
	paramsPath string
	cycles     int
	interval   time.Duration
	maxTicks   int
	timeout    time.Duration
	logLevel   string
	logFile    string
}

func NewRunCommand(ctx context.Context, cfg *config.Config) *RunCommand {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	return &RunCommand{
		BaseCommand: NewBaseCommand(
			"run",
			"Tick a demo behavior tree until it concludes",
			"run [options]",
		),
		ctx:    ctx,
		config: cfg,
	}
}

func (c *RunCommand) SetupFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.tree, "tree", "counter", "Demo tree to run: "+strings.Join(demoTreeNames(), ", "))
	fs.StringVar(&c.paramsPath, "params", "", "YAML file of node parameters (overrides [node] config sections)")
	fs.IntVar(&c.cycles, "cycles", 0, "Cycles of the counter tree (default from config, else 3)")
	fs.DurationVar(&c.interval, "interval", 0, "Tick interval (default from config tick.interval)")
	fs.IntVar(&c.maxTicks, "max-ticks", 0, "Stop after this many ticks (default from config run.max-ticks)")
	fs.DurationVar(&c.timeout, "timeout", 0, "Stop after this long (default from config run.timeout)")
	fs.StringVar(&c.logLevel, "log-level", "", "Log level: debug, info, warn, error (default from config log.level)")
	fs.StringVar(&c.logFile, "log-file", "", "Write JSON logs to this file instead of stderr")
}

func (c *RunCommand) Execute(args []string, stdout, stderr io.Writer) error {
	if len(args) > 0 {
		_, _ = fmt.Fprintf(stderr, "unexpected arguments: %v\n", args)
		return fmt.Errorf("unexpected arguments")
	}

	build, ok := demoTrees[c.tree]
	if !ok {
		return fmt.Errorf("unknown tree %q (available: %s)", c.tree, strings.Join(demoTreeNames(), ", "))
	}

	lc, err := resolveLogConfig(c.logFile, c.logLevel, c.config)
	if err != nil {
		return err
	}
	if lc.logFile != nil {
		defer lc.logFile.Close()
	}
	logger := lc.logger(stderr)

	opts, err := c.runnerOptions(logger)
	if err != nil {
		return err
	}
	cycles, err := c.resolveCycles()
	if err != nil {
		return err
	}
	params, err := c.nodeParams()
	if err != nil {
		return err
	}

	schema := config.DefaultSchema()
	cacheSize, err := schema.ResolveInt(c.config, config.KeyExprCacheSize)
	if err != nil {
		return err
	}
	if cacheSize > 0 {
		leaf.SetExprCacheSize(cacheSize)
	}

	ctx := c.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	root, bb, err := build(ctx, params, cycles)
	if err != nil {
		return fmt.Errorf("building %s tree: %w", c.tree, err)
	}

	r := runner.New(opts)
	defer r.Stop()
	exec, err := r.Start(ctx, root)
	if err != nil {
		return err
	}
	<-exec.Done()

	status := exec.Status()
	_, _ = fmt.Fprintf(stdout, "execution: %s\n", exec.ID())
	_, _ = fmt.Fprintf(stdout, "tree: %s\n", c.tree)
	_, _ = fmt.Fprintf(stdout, "status: %s\n", status)
	_, _ = fmt.Fprintf(stdout, "ticks: %d\n", exec.Ticks())
	for _, key := range bb.Keys() {
		_, _ = fmt.Fprintf(stdout, "blackboard: %s = %v\n", key, bb.Get(key))
	}

	if err := exec.Err(); err != nil {
		return fmt.Errorf("execution %s: %w", exec.ID(), err)
	}
	if status != btcore.Success {
		return fmt.Errorf("tree %s finished with status %s", c.tree, status)
	}
	return nil
}

// runnerOptions resolves each option from its flag, falling back to config.
func (c *RunCommand) runnerOptions(logger *slog.Logger) (runner.Options, error) {
	schema := config.DefaultSchema()
	opts := runner.Options{
		Interval: c.interval,
		MaxTicks: c.maxTicks,
		Timeout:  c.timeout,
		Logger:   logger,
	}
	var err error
	if opts.Interval <= 0 {
		if opts.Interval, err = schema.ResolveDuration(c.config, config.KeyTickInterval); err != nil {
			return opts, err
		}
	}
	if opts.MaxTicks <= 0 {
		if opts.MaxTicks, err = schema.ResolveInt(c.config, config.KeyRunMaxTicks); err != nil {
			return opts, err
		}
	}
	if opts.Timeout <= 0 {
		if opts.Timeout, err = schema.ResolveDuration(c.config, config.KeyRunTimeout); err != nil {
			return opts, err
		}
	}
	return opts, nil
}

func (c *RunCommand) resolveCycles() (int, error) {
	if c.cycles > 0 {
		return c.cycles, nil
	}
	v, ok := c.config.GetCommandOption("run", "cycles")
	if !ok || v == "" {
		return 3, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid [run] cycles %q", v)
	}
	return n, nil
}

func (c *RunCommand) nodeParams() (nodeParams, error) {
	path := c.paramsPath
	if path == "" {
		path, _ = c.config.GetCommandOption("run", "params")
	}
	if path == "" {
		return overlay(c.config.Nodes), nil
	}
	fromFile, err := config.LoadParametersFile(path)
	if err != nil {
		return nil, err
	}
	return overlay(c.config.Nodes, fromFile), nil
}
