package config

import "context"

// Loader is the interface for a format-specific configuration loader.
type Loader interface {
	// Load reads the configuration at path and translates it into the
	// format-agnostic model.
	Load(ctx context.Context, path string) (*Config, error)
}

// Config is the ordered sequence of sections read from one source.
type Config struct {
	// Source names where the sections came from, usually a file path.
	Source   string
	Sections []*Section
}

// Section is one `[name] key=value...` block.
type Section struct {
	Name    string
	Line    int
	Options []Option
}

// Option is a single key/value pair together with the line it was read from.
type Option struct {
	Key   string
	Value string
	Line  int
}

// Lookup returns the option stored under key.
func (s *Section) Lookup(key string) (Option, bool) {
	for _, o := range s.Options {
		if o.Key == key {
			return o, true
		}
	}
	return Option{}, false
}

// Set stores value under key, replacing an earlier value for the same key.
// It reports whether an existing option was replaced. Loaders use it while
// building a section; a Section handed to the builder is never modified.
func (s *Section) Set(key, value string, line int) bool {
	for i := range s.Options {
		if s.Options[i].Key == key {
			s.Options[i] = Option{Key: key, Value: value, Line: line}
			return true
		}
	}
	s.Options = append(s.Options, Option{Key: key, Value: value, Line: line})
	return false
}
