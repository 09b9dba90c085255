package config

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/joeycumines/go-btcore/internal/btcore"
)

// nodeSectionPrefix introduces a section holding the NodeParameters of the
// named node, e.g. "[node retry-open]".
const nodeSectionPrefix = "node "

// Config holds the parsed configuration: global options, per-command
// sections, and per-node parameter sections.
type Config struct {
	// Global options, from the lines before the first section header.
	Global map[string]string
	// Commands maps a command section name to its options. Command options
	// fall back to Global.
	Commands map[string]map[string]string
	// Nodes maps a node name to the parameters handed to its builder.
	Nodes map[string]btcore.NodeParameters
	// Warnings collects non-fatal issues found while loading.
	Warnings []string
}

func NewConfig() *Config {
	return &Config{
		Global:   make(map[string]string),
		Commands: make(map[string]map[string]string),
		Nodes:    make(map[string]btcore.NodeParameters),
	}
}

// Load reads the configuration from GetConfigPath. A missing file yields an
// empty configuration.
func Load() (*Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, fmt.Errorf("failed to get config path: %w", err)
	}
	return LoadFromPath(configPath)
}

// LoadFromPath refuses symlinks. A missing file yields an empty
// configuration.
func LoadFromPath(path string) (*Config, error) {
	fi, err := os.Lstat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewConfig(), nil
		}
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fi.Mode()&os.ModeSymlink != 0 {
		return nil, fmt.Errorf("symlink not allowed in config path: %s", path)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	return LoadFromReader(file)
}

// LoadFromReader parses the dnsmasq-style format: one "optionName value"
// per line, "#" comments, and "[section]" headers. Lines before the first
// header are global.
func LoadFromReader(r io.Reader) (*Config, error) {
	config := NewConfig()
	scanner := bufio.NewScanner(r)

	var (
		currentCommand string
		currentNode    string
		lineNo         int
	)
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			section := strings.TrimSpace(strings.Trim(line, "[]"))
			currentCommand, currentNode = "", ""
			if section == strings.TrimSpace(nodeSectionPrefix) || strings.HasPrefix(section, nodeSectionPrefix) {
				currentNode = strings.TrimSpace(strings.TrimPrefix(section, strings.TrimSpace(nodeSectionPrefix)))
				if currentNode == "" {
					return nil, fmt.Errorf("line %d: node section without a name", lineNo)
				}
				if config.Nodes[currentNode] == nil {
					config.Nodes[currentNode] = make(btcore.NodeParameters)
				}
			} else {
				currentCommand = section
				if config.Commands[currentCommand] == nil {
					config.Commands[currentCommand] = make(map[string]string)
				}
			}
			continue
		}

		optionName, value, _ := strings.Cut(line, " ")
		value = strings.TrimSpace(value)

		switch {
		case currentNode != "":
			config.Nodes[currentNode][optionName] = value
		case currentCommand != "":
			config.Commands[currentCommand][optionName] = value
		default:
			config.Global[optionName] = value
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config: %w", err)
	}

	for _, issue := range ValidateConfig(config, DefaultSchema()) {
		config.addWarning("%s", issue)
	}
	return config, nil
}

func (c *Config) addWarning(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	c.Warnings = append(c.Warnings, msg)
	slog.Warn("config: " + msg)
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "true", "1", "yes", "on":
		return true, nil
	case "false", "0", "no", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean value: %s", s)
	}
}

func (c *Config) GetGlobalOption(name string) (string, bool) {
	value, exists := c.Global[name]
	return value, exists
}

// GetCommandOption falls back to the global option of the same name.
func (c *Config) GetCommandOption(command, name string) (string, bool) {
	if cmdOptions, exists := c.Commands[command]; exists {
		if value, exists := cmdOptions[name]; exists {
			return value, true
		}
	}
	return c.GetGlobalOption(name)
}

func (c *Config) SetGlobalOption(name, value string) {
	c.Global[name] = value
}

func (c *Config) SetCommandOption(command, name, value string) {
	if c.Commands[command] == nil {
		c.Commands[command] = make(map[string]string)
	}
	c.Commands[command][name] = value
}

// NodeParameters returns a copy of the parameters configured for node, or
// nil if it has no section.
func (c *Config) NodeParameters(node string) btcore.NodeParameters {
	return c.Nodes[node].Clone()
}

// MergeNodeParameters overlays params onto the configured node sections,
// key by key.
func (c *Config) MergeNodeParameters(params map[string]btcore.NodeParameters) {
	for node, p := range params {
		if c.Nodes[node] == nil {
			c.Nodes[node] = make(btcore.NodeParameters, len(p))
		}
		for k, v := range p {
			c.Nodes[node][k] = v
		}
	}
}

func (c *Config) GetWarnings() []string {
	return c.Warnings
}

func (c *Config) HasWarnings() bool {
	return len(c.Warnings) > 0
}
