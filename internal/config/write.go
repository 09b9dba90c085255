package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// SetKeyInFile sets key to value inside section of the config file at path,
// creating the file if needed. An empty section means the global block; use
// "node <name>" to target a node section. Other lines, comments included,
// are kept as they are. A missing key is added at the end of its section,
// and a missing section is appended to the file.
func SetKeyInFile(path, section, key, value string) error {
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("reading config file: %w", err)
	}

	var lines []string
	if len(data) > 0 {
		lines = strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	}

	newLine := key
	if value != "" {
		newLine = key + " " + value
	}

	current := ""
	inTarget := section == ""
	sectionSeen := section == ""
	// insertAt is the index after the last non-blank line of the target.
	insertAt := -1
	if section == "" {
		insertAt = 0
	}
	found := false

	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]") {
			current = strings.TrimSpace(strings.Trim(trimmed, "[]"))
			inTarget = current == section
			if inTarget {
				sectionSeen = true
				insertAt = i + 1
			}
			continue
		}
		if !inTarget {
			continue
		}
		if trimmed == "" {
			continue
		}
		insertAt = i + 1
		if strings.HasPrefix(trimmed, "#") {
			continue
		}
		name, _, _ := strings.Cut(trimmed, " ")
		if name == key {
			lines[i] = newLine
			found = true
			break
		}
	}

	switch {
	case found:
	case !sectionSeen:
		if len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) != "" {
			lines = append(lines, "")
		}
		lines = append(lines, "["+section+"]", newLine)
	default:
		lines = append(lines[:insertAt], append([]string{newLine}, lines[insertAt:]...)...)
	}

	return atomicWriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0644)
}

// atomicWriteFile writes data to a temporary file beside filename, then
// renames it into place.
func atomicWriteFile(filename string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	tempFile, err := os.CreateTemp(dir, ".tmp-config-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	var success bool
	defer func() {
		if !success {
			if err := os.Remove(tempFile.Name()); err != nil && !os.IsNotExist(err) {
				slog.Warn("failed to remove temporary file", "path", tempFile.Name(), "error", err)
			}
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		tempFile.Close()
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tempFile.Sync(); err != nil {
		tempFile.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("failed to close temporary file %q: %w", tempFile.Name(), err)
	}
	if err := os.Chmod(tempFile.Name(), perm); err != nil {
		return fmt.Errorf("failed to chmod temp file: %w", err)
	}
	if err := os.Rename(tempFile.Name(), filename); err != nil {
		return fmt.Errorf("failed to replace config file: %w", err)
	}
	success = true
	return nil
}
