package btcore

import (
	"maps"
	"strconv"
	"strings"
	"time"
)

// NodeParameters is the opaque string configuration handed to a
// NodeBuilder. Each node kind interprets its own keys. It is treated as
// read-only once a node has been built from it.
type NodeParameters map[string]string

// Get returns the raw value for key.
func (p NodeParameters) Get(key string) (string, bool) {
	v, ok := p[key]
	return v, ok
}

// Required returns the value for key, or a ParameterError if it is absent
// or blank.
func (p NodeParameters) Required(key string) (string, error) {
	v, ok := p[key]
	if !ok || strings.TrimSpace(v) == "" {
		return "", &ParameterError{Key: key, Err: ErrMissingParameter}
	}
	return v, nil
}

// Int parses key as a base 10 integer, returning def if it is absent.
func (p NodeParameters) Int(key string, def int) (int, error) {
	v, ok := p[key]
	if !ok {
		return def, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, &ParameterError{Key: key, Err: ErrInvalidValue}
	}
	return n, nil
}

// Bool parses key leniently (true/false, 1/0, yes/no, on/off), returning
// def if it is absent.
func (p NodeParameters) Bool(key string, def bool) (bool, error) {
	v, ok := p[key]
	if !ok {
		return def, nil
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "1", "yes", "on":
		return true, nil
	case "false", "0", "no", "off":
		return false, nil
	}
	return false, &ParameterError{Key: key, Err: ErrInvalidValue}
}

// Duration parses key with time.ParseDuration, returning def if it is
// absent. A bare integer is read as milliseconds.
func (p NodeParameters) Duration(key string, def time.Duration) (time.Duration, error) {
	v, ok := p[key]
	if !ok {
		return def, nil
	}
	v = strings.TrimSpace(v)
	if ms, err := strconv.Atoi(v); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, &ParameterError{Key: key, Err: ErrInvalidValue}
	}
	return d, nil
}

// Clone returns a copy that may be modified freely.
func (p NodeParameters) Clone() NodeParameters {
	if p == nil {
		return nil
	}
	return maps.Clone(p)
}
