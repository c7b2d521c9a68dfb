package config

import (
	"errors"
	"fmt"
	neturl "net/url"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/go-playground/validator/v10"
	"github.com/samber/oops"
)

const (
	DefaultOutput            = ".lex"
	DefaultTabWidth          = 4
	DefaultIndentWidth       = 4
	DefaultParallel          = 4
	DefaultSessionInContent  = "error"
	DefaultLogLevel          = "warn"
	DefaultLogFormat         = "console"
	DefaultDisplayFormat     = "table"
	DefaultDisplayLimit      = 50
	DefaultDescriptionLength = 60
	SourcesDirName           = "sources"
)

func DefaultPatterns() []string {
	return []string{"**/*.lex"}
}

// DefaultExcludes keeps the output directory and vendored trees out of
// discovery.
func DefaultExcludes() []string {
	return []string{".lex/**", ".git/**", "node_modules/**", "vendor/**"}
}

func DefaultListFields() []string {
	return []string{"path", "lines", "headings", "description"}
}

type Config struct {
	TabWidth         int               `koanf:"tab_width"          validate:"min=1,max=16"`
	IndentWidth      int               `koanf:"indent_width"       validate:"min=1,max=16"`
	SessionInContent string            `koanf:"session_in_content" validate:"oneof=error drop"`
	Output           string            `koanf:"output"             validate:"required"`
	Parallel         int               `koanf:"parallel"           validate:"min=1,max=64"`
	Patterns         []string          `koanf:"patterns"           validate:"min=1,dive,glob"`
	Exclude          []string          `koanf:"exclude"            validate:"dive,glob"`
	LogLevel         string            `koanf:"log_level"          validate:"oneof=debug info warn error off"`
	LogFormat        string            `koanf:"log_format"         validate:"oneof=console json"`
	Display          Display           `koanf:"display"`
	Sources          map[string]Source `koanf:"sources"            validate:"-"`
	ConfigDir        string            `koanf:"-"`
}

type Display struct {
	Format            string   `koanf:"format"             validate:"oneof=table json csv"`
	DefaultLimit      int      `koanf:"default_limit"      validate:"min=0"`
	DescriptionLength int      `koanf:"description_length" validate:"min=0"`
	ListFields        []string `koanf:"list_fields"        validate:"dive,oneof=path lines size headings description modified warning"`
}

// Source is a remote document downloaded by `lex sync`.
type Source struct {
	URL      string `koanf:"url"      validate:"required,http_source"`
	Filename string `koanf:"filename" validate:"omitempty,base_filename"`
	Out      string `koanf:"out"      validate:"omitempty,base_filename"`
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	_ = v.RegisterValidation("glob", func(fl validator.FieldLevel) bool {
		return doublestar.ValidatePattern(fl.Field().String())
	})

	_ = v.RegisterValidation("http_source", func(fl validator.FieldLevel) bool {
		return isHTTPURL(fl.Field().String())
	})

	_ = v.RegisterValidation("base_filename", func(fl validator.FieldLevel) bool {
		name := fl.Field().String()
		return name != "." && name != ".." && filepath.Base(name) == name && !strings.ContainsAny(name, `/\`)
	})

	return v
}

func (c *Config) ApplyDefaults() {
	if c.TabWidth == 0 {
		c.TabWidth = DefaultTabWidth
	}

	if c.IndentWidth == 0 {
		c.IndentWidth = DefaultIndentWidth
	}

	if c.SessionInContent == "" {
		c.SessionInContent = DefaultSessionInContent
	}

	if c.Output == "" {
		c.Output = DefaultOutput
	}

	if c.Parallel == 0 {
		c.Parallel = DefaultParallel
	}

	if len(c.Patterns) == 0 {
		c.Patterns = DefaultPatterns()
	}

	if c.Exclude == nil {
		c.Exclude = DefaultExcludes()
	}

	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}

	if c.LogFormat == "" {
		c.LogFormat = DefaultLogFormat
	}

	if c.Display.Format == "" {
		c.Display.Format = DefaultDisplayFormat
	}

	if c.Display.DefaultLimit == 0 {
		c.Display.DefaultLimit = DefaultDisplayLimit
	}

	if c.Display.DescriptionLength == 0 {
		c.Display.DescriptionLength = DefaultDescriptionLength
	}

	if len(c.Display.ListFields) == 0 {
		c.Display.ListFields = DefaultListFields()
	}
}

func (c *Config) Validate() error {
	v := newValidator()

	if valErr := v.Struct(c); valErr != nil {
		var validationErrors validator.ValidationErrors
		if !errors.As(valErr, &validationErrors) || len(validationErrors) == 0 {
			return oops.
				Code("CONFIG_INVALID").
				Wrapf(valErr, "validating config")
		}

		return mapSettingError(c, validationErrors[0])
	}

	for _, sourceName := range c.SourceNames() {
		sourceCfg := c.Sources[sourceName]
		valErr := v.Struct(sourceCfg)
		if valErr == nil {
			continue
		}

		var validationErrors validator.ValidationErrors
		if !errors.As(valErr, &validationErrors) || len(validationErrors) == 0 {
			return oops.
				Code("CONFIG_INVALID").
				With("source", sourceName).
				Wrapf(valErr, "validating source %q", sourceName)
		}

		return mapValidationError(sourceName, sourceCfg, validationErrors[0])
	}

	return nil
}

func mapSettingError(c *Config, fe validator.FieldError) error {
	key := settingKey(fe)

	switch key {
	case "tab_width", "indent_width":
		return oops.
			Code("CONFIG_INVALID").
			With("field", key).
			With("value", fe.Value()).
			Hint("Use a width between 1 and 16").
			Errorf("invalid %s %v", key, fe.Value())

	case "session_in_content":
		return oops.
			Code("CONFIG_INVALID").
			With("field", key).
			With("value", c.SessionInContent).
			Hint(`Supported values: "error", "drop"`).
			Errorf("invalid session_in_content %q", c.SessionInContent)

	case "patterns", "exclude":
		return oops.
			Code("CONFIG_INVALID").
			With("field", key).
			With("value", fe.Value()).
			Hint("Use doublestar globs such as **/*.lex").
			Errorf("invalid glob pattern %v in %s", fe.Value(), key)

	case "log_level":
		return oops.
			Code("CONFIG_INVALID").
			With("field", key).
			With("value", c.LogLevel).
			Hint("Supported levels: debug, info, warn, error, off").
			Errorf("invalid log_level %q", c.LogLevel)

	default:
		return oops.
			Code("CONFIG_INVALID").
			With("field", key).
			With("tag", fe.Tag()).
			Errorf("validation failed for field %q", key)
	}
}

func mapValidationError(sourceName string, sourceCfg Source, fe validator.FieldError) error {
	field := strings.ToLower(fe.Field())

	switch {
	case fe.Tag() == "required" && field == "url":
		return oops.
			Code("CONFIG_INVALID").
			With("source", sourceName).
			With("field", "url").
			Hint("Set url to an http or https address of a lex document").
			Errorf("missing url for source %q", sourceName)

	case fe.Tag() == "http_source":
		return oops.
			Code("CONFIG_INVALID").
			With("source", sourceName).
			With("field", "url").
			With("value", sourceCfg.URL).
			Hint("Only http and https URLs are supported").
			Errorf("invalid url %q for source %q", sourceCfg.URL, sourceName)

	case fe.Tag() == "base_filename":
		return oops.
			Code("CONFIG_INVALID").
			With("source", sourceName).
			With("field", field).
			With("value", fe.Value()).
			Hint("Use a plain name without path separators").
			Errorf("invalid %s %v for source %q", field, fe.Value(), sourceName)

	default:
		return oops.
			Code("CONFIG_INVALID").
			With("source", sourceName).
			With("field", field).
			With("tag", fe.Tag()).
			Errorf("validation failed for field %q in source %q", field, sourceName)
	}
}

// settingKey turns a validator namespace such as Config.Display.Format into
// the TOML key display.format.
func settingKey(fe validator.FieldError) string {
	parts := strings.Split(fe.StructNamespace(), ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}

	for i, p := range parts {
		if idx := strings.IndexByte(p, '['); idx >= 0 {
			p = p[:idx]
		}
		parts[i] = toSnake(p)
	}

	return strings.Join(parts, ".")
}

func toSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}

// SourcesDir is where `lex sync` writes remote documents.
func (c *Config) SourcesDir() string {
	return filepath.Join(c.Output, SourcesDirName)
}

// SourceDir returns the directory a source's document is written to.
func (c *Config) SourceDir(sourceCfg Source) string {
	if sourceCfg.Out != "" {
		return filepath.Join(c.SourcesDir(), sourceCfg.Out)
	}

	return c.SourcesDir()
}

// SourceNames returns the configured source names in sorted order.
func (c *Config) SourceNames() []string {
	names := make([]string, 0, len(c.Sources))
	for name := range c.Sources {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Fingerprint identifies the options a document check depends on.
func (c *Config) Fingerprint() string {
	return fmt.Sprintf("tab=%d indent=%d session=%s", c.TabWidth, c.IndentWidth, c.SessionInContent)
}

func isHTTPURL(raw string) bool {
	u, err := neturl.Parse(raw)
	if err != nil {
		return false
	}

	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
