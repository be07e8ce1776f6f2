// Package config loads project settings from .booktree/config.yaml and
// BOOKTREE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// ErrInvalid is returned for settings outside their allowed values.
var ErrInvalid = errors.New("invalid configuration")

// Block display modes.
const (
	BlockAllPages  = "all pages"
	BlockBookPages = "book pages"
)

// FileName is the config file inside the project marker directory.
const FileName = "config.yaml"

// Block configures the navigation block.
type Block struct {
	Title string `yaml:"title"`
	Mode  string `yaml:"mode"`
}

// Export configures printer-friendly export.
type Export struct {
	Format  string `yaml:"format"`
	Workers int    `yaml:"workers"`
}

// Config holds project settings. Paths are absolute after Load.
type Config struct {
	Database string        `yaml:"database"`
	PagesDir string        `yaml:"pages_dir"`
	LockWait time.Duration `yaml:"lock_wait"`
	Block    Block         `yaml:"block"`
	Export   Export        `yaml:"export"`
}

// Default returns the settings used when nothing is configured. Paths are
// relative to the project root.
func Default() Config {
	return Config{
		Database: filepath.Join(".booktree", "outline.db"),
		PagesDir: "pages",
		Block:    Block{Title: "Book navigation", Mode: BlockAllPages},
		Export:   Export{Format: "html", Workers: 4},
	}
}

// Path returns the config file location for a project root.
func Path(root string) string {
	return filepath.Join(root, ".booktree", FileName)
}

// Load reads the configuration of the project at root. A missing config
// file is not an error.
func Load(root string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(Path(root))
	v.SetConfigType("yaml")
	v.SetEnvPrefix("BOOKTREE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	def := Default()
	v.SetDefault("database", def.Database)
	v.SetDefault("pages_dir", def.PagesDir)
	v.SetDefault("lock_wait", def.LockWait)
	v.SetDefault("block.title", def.Block.Title)
	v.SetDefault("block.mode", def.Block.Mode)
	v.SetDefault("export.format", def.Export.Format)
	v.SetDefault("export.workers", def.Export.Workers)

	if err := v.ReadInConfig(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("reading %s: %w", Path(root), err)
	}

	cfg := Config{
		Database: v.GetString("database"),
		PagesDir: v.GetString("pages_dir"),
		LockWait: v.GetDuration("lock_wait"),
		Block: Block{
			Title: v.GetString("block.title"),
			Mode:  v.GetString("block.mode"),
		},
		Export: Export{
			Format:  v.GetString("export.format"),
			Workers: v.GetInt("export.workers"),
		},
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	cfg.Database = resolve(root, cfg.Database)
	cfg.PagesDir = resolve(root, cfg.PagesDir)
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Block.Mode {
	case BlockAllPages, BlockBookPages:
	default:
		return fmt.Errorf("%w: block.mode %q (want %q or %q)", ErrInvalid, c.Block.Mode, BlockAllPages, BlockBookPages)
	}
	if c.Export.Workers < 1 {
		return fmt.Errorf("%w: export.workers must be at least 1, got %d", ErrInvalid, c.Export.Workers)
	}
	if c.LockWait < 0 {
		return fmt.Errorf("%w: lock_wait must not be negative", ErrInvalid)
	}
	return nil
}

func resolve(root, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}

// WriteDefault writes the default configuration to the project at root
// unless a config file already exists. It reports whether it wrote one.
func WriteDefault(root string) (bool, error) {
	path := Path(root)
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}
	def := Default()
	out, err := yaml.Marshal(struct {
		Database string `yaml:"database"`
		PagesDir string `yaml:"pages_dir"`
		LockWait string `yaml:"lock_wait"`
		Block    Block  `yaml:"block"`
		Export   Export `yaml:"export"`
	}{def.Database, def.PagesDir, def.LockWait.String(), def.Block, def.Export})
	if err != nil {
		return false, fmt.Errorf("encoding config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("creating %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return false, fmt.Errorf("writing %s: %w", path, err)
	}
	return true, nil
}
