package command

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"text/tabwriter"

	"github.com/joeycumines/go-btcore/internal/btcore"
	"github.com/joeycumines/go-btcore/internal/config"
)

// HelpCommand displays help information for commands.
type HelpCommand struct {
	*BaseCommand
	registry *Registry
}

func NewHelpCommand(registry *Registry) *HelpCommand {
	return &HelpCommand{
		BaseCommand: NewBaseCommand(
			"help",
			"Display help information for commands",
			"help [command]",
		),
		registry: registry,
	}
}

func (c *HelpCommand) Execute(args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		_, _ = fmt.Fprintln(stdout, "btcore - run behavior trees from your terminal")
		_, _ = fmt.Fprintln(stdout, "")
		_, _ = fmt.Fprintln(stdout, "Usage: btcore <command> [options] [args...]")
		_, _ = fmt.Fprintln(stdout, "")
		_, _ = fmt.Fprintln(stdout, "Available commands:")

		w := tabwriter.NewWriter(stdout, 0, 8, 2, ' ', 0)
		for _, name := range c.registry.List() {
			if cmd, err := c.registry.Get(name); err == nil {
				_, _ = fmt.Fprintf(w, "  %s\t%s\n", name, cmd.Description())
			}
		}
		_ = w.Flush()

		_, _ = fmt.Fprintln(stdout, "")
		_, _ = fmt.Fprintln(stdout, "Use 'btcore help <command>' for more information about a specific command (includes flags).")
		return nil
	}

	cmdName := args[0]
	cmd, err := c.registry.Get(cmdName)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Unknown command: %s\n", cmdName)
		return err
	}

	_, _ = fmt.Fprintf(stdout, "Command: %s\n", cmd.Name())
	_, _ = fmt.Fprintf(stdout, "Description: %s\n", cmd.Description())
	_, _ = fmt.Fprintf(stdout, "Usage: %s\n", cmd.Usage())

	// Flags are listed by running SetupFlags against a throwaway FlagSet.
	fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	buf := &bytes.Buffer{}
	fs.SetOutput(buf)
	cmd.SetupFlags(fs)
	fs.PrintDefaults()
	if buf.Len() > 0 {
		_, _ = fmt.Fprintln(stdout, "")
		_, _ = fmt.Fprintln(stdout, "Flags:")
		_, _ = fmt.Fprint(stdout, buf.String())
	}
	return nil
}

// VersionCommand displays version information.
type VersionCommand struct {
	*BaseCommand
	version string
}

func NewVersionCommand(version string) *VersionCommand {
	return &VersionCommand{
		BaseCommand: NewBaseCommand(
			"version",
			"Display version information",
			"version",
		),
		version: version,
	}
}

func (c *VersionCommand) Execute(args []string, stdout, stderr io.Writer) error {
	if len(args) > 0 {
		_, _ = fmt.Fprintf(stderr, "unexpected arguments: %v\n", args)
		return fmt.Errorf("unexpected arguments")
	}
	_, _ = fmt.Fprintf(stdout, "btcore version %s\n", c.version)
	return nil
}

// ConfigCommand reads and writes configuration options and node
// parameters.
type ConfigCommand struct {
	*BaseCommand
	config     *config.Config
	configPath string
	node       string
	showGlobal bool
	showAll    bool
}

// NewConfigCommand persists changes to configPath. An empty path skips
// persistence.
func NewConfigCommand(cfg *config.Config, configPath string) *ConfigCommand {
	return &ConfigCommand{
		BaseCommand: NewBaseCommand(
			"config",
			"Manage configuration settings and node parameters",
			"config [options] [key] [value]",
		),
		config:     cfg,
		configPath: configPath,
	}
}

func (c *ConfigCommand) SetupFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.node, "node", "", "Get or set a parameter of the named node instead of a global option")
	fs.BoolVar(&c.showGlobal, "global", false, "Show only global configuration")
	fs.BoolVar(&c.showAll, "all", false, "Show all configuration (global, command and node sections)")
}

func (c *ConfigCommand) Execute(args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		switch {
		case c.showAll:
			c.printGlobal(stdout)
			_, _ = fmt.Fprintln(stdout, "\nCommand-specific configuration:")
			for _, cmd := range slices.Sorted(maps.Keys(c.config.Commands)) {
				_, _ = fmt.Fprintf(stdout, "  [%s]\n", cmd)
				printOptions(stdout, "    ", c.config.Commands[cmd])
			}
			_, _ = fmt.Fprintln(stdout, "\nNode parameters:")
			for _, node := range slices.Sorted(maps.Keys(c.config.Nodes)) {
				_, _ = fmt.Fprintf(stdout, "  [node %s]\n", node)
				printOptions(stdout, "    ", c.config.Nodes[node])
			}
		case c.showGlobal:
			c.printGlobal(stdout)
		default:
			_, _ = fmt.Fprintln(stdout, "Configuration management:")
			_, _ = fmt.Fprintln(stdout, "  config <key>                   - Get configuration value")
			_, _ = fmt.Fprintln(stdout, "  config <key> <value>           - Set configuration value")
			_, _ = fmt.Fprintln(stdout, "  config --node <name> <key> ... - Get or set a node parameter")
			_, _ = fmt.Fprintln(stdout, "  config --global                - Show global configuration")
			_, _ = fmt.Fprintln(stdout, "  config --all                   - Show all configuration")
			_, _ = fmt.Fprintln(stdout, "  config validate                - Validate configuration")
			_, _ = fmt.Fprintln(stdout, "  config schema                  - Show configuration schema")
		}
		return nil
	}

	if c.node == "" {
		switch args[0] {
		case "validate":
			return c.executeValidate(stdout)
		case "schema":
			_, _ = fmt.Fprint(stdout, config.DefaultSchema().FormatHelp())
			return nil
		}
	}

	switch len(args) {
	case 1:
		c.get(args[0], stdout)
		return nil
	case 2:
		return c.set(args[0], args[1], stdout, stderr)
	}

	_, _ = fmt.Fprintln(stderr, "Invalid number of arguments")
	return fmt.Errorf("invalid arguments")
}

func (c *ConfigCommand) get(key string, stdout io.Writer) {
	if c.node != "" {
		if value, ok := c.config.NodeParameters(c.node).Get(key); ok {
			_, _ = fmt.Fprintf(stdout, "%s: %s\n", key, value)
		} else {
			_, _ = fmt.Fprintf(stdout, "Parameter '%s' not found for node '%s'\n", key, c.node)
		}
		return
	}

	// Resolved like the run command does: env, then file, then default.
	value := config.DefaultSchema().Resolve(c.config, key)
	if value != "" {
		_, _ = fmt.Fprintf(stdout, "%s: %s\n", key, value)
	} else if _, exists := c.config.GetGlobalOption(key); exists {
		_, _ = fmt.Fprintf(stdout, "%s: \n", key)
	} else {
		_, _ = fmt.Fprintf(stdout, "Configuration key '%s' not found\n", key)
	}
}

func (c *ConfigCommand) set(key, value string, stdout, stderr io.Writer) error {
	section := ""
	if c.node != "" {
		section = "node " + c.node
		c.config.MergeNodeParameters(map[string]btcore.NodeParameters{c.node: {key: value}})
	} else {
		c.config.SetGlobalOption(key, value)
	}

	if c.configPath != "" {
		if err := config.SetKeyInFile(c.configPath, section, key, value); err != nil {
			_, _ = fmt.Fprintf(stderr, "Warning: failed to persist config to disk: %v\n", err)
		}
	}

	if c.node != "" {
		_, _ = fmt.Fprintf(stdout, "Set parameter of node %s: %s = %s\n", c.node, key, value)
	} else {
		_, _ = fmt.Fprintf(stdout, "Set configuration: %s = %s\n", key, value)
	}
	return nil
}

func (c *ConfigCommand) printGlobal(stdout io.Writer) {
	_, _ = fmt.Fprintln(stdout, "Global configuration:")
	printOptions(stdout, "  ", c.config.Global)
}

func printOptions[M ~map[string]string](w io.Writer, indent string, options M) {
	for _, key := range slices.Sorted(maps.Keys(options)) {
		_, _ = fmt.Fprintf(w, "%s%s: %s\n", indent, key, options[key])
	}
}

func (c *ConfigCommand) executeValidate(stdout io.Writer) error {
	issues := config.ValidateConfig(c.config, config.DefaultSchema())
	if len(issues) == 0 {
		_, _ = fmt.Fprintln(stdout, "Configuration is valid.")
		return nil
	}
	_, _ = fmt.Fprintf(stdout, "Configuration has %d issue(s):\n", len(issues))
	for _, issue := range issues {
		_, _ = fmt.Fprintf(stdout, "  - %s\n", issue)
	}
	return nil
}

// InitCommand writes a commented default configuration file.
type InitCommand struct {
	*BaseCommand
	configPath string
	force      bool
}

func NewInitCommand(configPath string) *InitCommand {
	return &InitCommand{
		BaseCommand: NewBaseCommand(
			"init",
			"Write a default configuration file",
			"init [options]",
		),
		configPath: configPath,
	}
}

func (c *InitCommand) SetupFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.force, "force", false, "Overwrite an existing configuration")
}

const defaultConfig = `# btcore configuration file
# Format: optionName remainingLineIsTheValue
# Use [command_name] sections for command-specific options, and
# [node <name>] sections for the parameters of a tree node.

# Global options
tick.interval 10ms
log.level info

[run]
cycles 3

# Example node parameters, applied to the demo tree.
[node work]
duration 20ms
`

func (c *InitCommand) Execute(args []string, stdout, stderr io.Writer) error {
	if len(args) > 0 {
		_, _ = fmt.Fprintf(stderr, "unexpected arguments: %v\n", args)
		return fmt.Errorf("unexpected arguments")
	}

	if _, err := os.Stat(c.configPath); err == nil && !c.force {
		_, _ = fmt.Fprintf(stdout, "Configuration already exists at: %s\n", c.configPath)
		_, _ = fmt.Fprintln(stdout, "Use --force to overwrite existing configuration")
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(c.configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(c.configPath, []byte(defaultConfig), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	if created, err := config.LoadFromPath(c.configPath); err != nil {
		_, _ = fmt.Fprintf(stderr, "Warning: Failed to load created config: %v\n", err)
	} else if created.HasWarnings() {
		_, _ = fmt.Fprintf(stderr, "Warning: created config has issues: %v\n", created.GetWarnings())
	}

	_, _ = fmt.Fprintf(stdout, "Initialized btcore configuration at: %s\n", c.configPath)
	return nil
}
