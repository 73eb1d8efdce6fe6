package config

// File represents the structure of the .mdlinkcheck rules file.
// The same fields are accepted in YAML and TOML.
type File struct {
	// Dir is the base directory to scan when none is given on the command line.
	Dir string `yaml:"dir,omitempty" toml:"dir"`

	// Extension overrides the document extension.
	Extension string `yaml:"extension,omitempty" toml:"extension"`

	// Ignore are glob patterns (path.Match syntax) for link targets to skip,
	// such as "mailto:*" or "generated/*".
	Ignore []string `yaml:"ignore,omitempty" toml:"ignore"`

	// ExcludeDirs are directory base names that are never scanned.
	ExcludeDirs []string `yaml:"excludeDirs,omitempty" toml:"excludeDirs"`

	// Concurrency overrides the number of documents checked in parallel.
	// If zero, the default is used.
	Concurrency int `yaml:"concurrency,omitempty" toml:"concurrency"`

	// FailFast aborts the run on the first unreadable document.
	FailFast bool `yaml:"failFast,omitempty" toml:"failFast"`
}

// ApplyTo copies the non-zero settings of the rules file onto cfg.
// The base directory is not copied; see ResolveBaseDir.
func (f *File) ApplyTo(cfg *Config) {
	if f == nil {
		return
	}
	if f.Extension != "" {
		cfg.Extension = f.Extension
	}
	if len(f.Ignore) > 0 {
		cfg.IgnorePatterns = append(cfg.IgnorePatterns, f.Ignore...)
	}
	if len(f.ExcludeDirs) > 0 {
		cfg.ExcludeDirs = append(cfg.ExcludeDirs, f.ExcludeDirs...)
	}
	if f.Concurrency > 0 {
		cfg.Concurrency = f.Concurrency
	}
	if f.FailFast {
		cfg.FailFast = true
	}
}
