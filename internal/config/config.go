package config

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
)

const StarterFileName = "lex.toml"

func configFilenames() []string {
	return []string{StarterFileName, ".lex.toml"}
}

func Load(configPath string) (*Config, error) {
	resolvedPath, err := resolveConfigPath(configPath)
	if err != nil {
		return nil, err
	}

	absConfigPath, err := filepath.Abs(resolvedPath)
	if err != nil {
		return nil, oops.Wrapf(err, "resolving absolute config path")
	}

	cfg := &Config{}
	k := koanf.New(".")

	if loadErr := k.Load(file.Provider(absConfigPath), toml.Parser()); loadErr != nil {
		return nil, oops.
			Code("CONFIG_INVALID").
			With("path", absConfigPath).
			Hint("Fix TOML syntax in your config").
			Wrapf(loadErr, "loading config from %q", absConfigPath)
	}

	if unmarshalErr := k.Unmarshal("", cfg); unmarshalErr != nil {
		return nil, oops.
			Code("CONFIG_INVALID").
			With("path", absConfigPath).
			Hint("Fix config structure to match the lex.toml schema").
			Wrapf(unmarshalErr, "decoding config from %q", absConfigPath)
	}

	cfg.ConfigDir = filepath.Dir(absConfigPath)
	return finalize(cfg)
}

// LoadOrDefault loads the config at configPath, or the nearest lex.toml when
// configPath is empty. Without any config file it returns the defaults rooted
// at the working directory.
func LoadOrDefault(configPath string) (*Config, error) {
	if configPath != "" {
		return Load(configPath)
	}

	found, err := FindConfigFile()
	if err == nil {
		return Load(found)
	}

	if !isNotFound(err) {
		return nil, err
	}

	return Default()
}

// Default returns the built-in configuration rooted at the working directory.
func Default() (*Config, error) {
	dir, err := os.Getwd()
	if err != nil {
		return nil, oops.Wrapf(err, "getting working directory")
	}

	return finalize(&Config{ConfigDir: dir})
}

func finalize(cfg *Config) (*Config, error) {
	cfg.ApplyDefaults()

	if valErr := cfg.Validate(); valErr != nil {
		return nil, valErr
	}

	if !filepath.IsAbs(cfg.Output) {
		cfg.Output = filepath.Clean(filepath.Join(cfg.ConfigDir, cfg.Output))
	}

	return cfg, nil
}

func FindConfigFile() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", oops.Wrapf(err, "getting working directory")
	}

	for {
		foundPath, found, findErr := findConfigInDirectory(dir)
		if findErr != nil {
			return "", findErr
		}

		if found {
			return foundPath, nil
		}

		parentDir := filepath.Dir(dir)
		if parentDir == dir {
			return "", oops.
				Code("CONFIG_NOT_FOUND").
				Hint("Run 'lex init' to create a config file").
				Errorf("no lex.toml or .lex.toml found in any parent directory")
		}

		dir = parentDir
	}
}

func resolveConfigPath(configPath string) (string, error) {
	if configPath != "" {
		if _, err := os.Stat(configPath); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return "", oops.
					Code("CONFIG_NOT_FOUND").
					With("path", configPath).
					Hint("Create the file or pass a valid --config path").
					Errorf("config file %q does not exist", configPath)
			}

			return "", oops.Wrapf(err, "checking config file %q", configPath)
		}

		return configPath, nil
	}

	return FindConfigFile()
}

func findConfigInDirectory(dir string) (string, bool, error) {
	for _, name := range configFilenames() {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, oops.Wrapf(err, "checking for config file at %q", path)
		}
	}

	return "", false, nil
}

func isNotFound(err error) bool {
	oopsErr, ok := oops.AsOops(err)
	return ok && oopsErr.Code() == "CONFIG_NOT_FOUND"
}

const starterConfig = `# lex configuration

# Columns a tab advances to when measuring indentation.
tab_width = 4

# Spaces per level written by 'lex fmt'.
indent_width = 4

# What to do with a session nested inside a list item or definition:
# "error" fails the parse, "drop" discards it with a warning.
session_in_content = "error"

# Where synced sources, the index and the lock file live.
output = ".lex"

parallel = 4
patterns = ["**/*.lex"]
exclude = [".lex/**"]

log_level = "warn"

[display]
format = "table"
default_limit = 50
description_length = 60

# [sources.manual]
# url = "https://example.com/manual.lex"
`

// WriteStarter writes a commented lex.toml into dir.
func WriteStarter(dir string, force bool) (string, error) {
	path := filepath.Join(dir, StarterFileName)

	if !force {
		if _, err := os.Stat(path); err == nil {
			return "", oops.
				Code("CONFIG_EXISTS").
				With("path", path).
				Hint("Pass --force to overwrite it").
				Errorf("config file %q already exists", path)
		}
	}

	if err := os.WriteFile(path, []byte(starterConfig), 0o644); err != nil {
		return "", oops.
			Code("CONFIG_WRITE_FAILED").
			With("path", path).
			Wrapf(err, "writing config file")
	}

	return path, nil
}
