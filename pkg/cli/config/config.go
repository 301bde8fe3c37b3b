package config

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/secmon-lab/riskreg/pkg/domain/model"
	domainConfig "github.com/secmon-lab/riskreg/pkg/domain/model/config"
	"github.com/secmon-lab/riskreg/pkg/domain/types"
	"github.com/urfave/cli/v3"
)

// AppConfig is the register configuration file
type AppConfig struct {
	Departments []Department        `toml:"department"`
	Categories  []Category          `toml:"category"`
	Causes      map[string][]string `toml:"causes"`
	Attachment  Attachment          `toml:"attachment"`
	Merge       Merge               `toml:"merge"`
}

// Department maps a department name to its identifier initial
type Department struct {
	Name    string `toml:"name"`
	Initial string `toml:"initial"`
}

// Validate checks if the Department is valid
func (d *Department) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return goerr.Wrap(ErrMissingName, "department name is required", goerr.V(InitialKey, d.Initial))
	}
	key := model.SequenceKey{DepartmentInitial: d.Initial, Year: 2000, Month: 1}
	if err := key.Validate(); err != nil {
		return goerr.Wrap(ErrInvalidInitial, "initial must be 1 to 8 letters or digits",
			goerr.V(DepartmentKey, d.Name), goerr.V(InitialKey, d.Initial))
	}
	return nil
}

// Category is one entry of the closed category set
type Category struct {
	Name        string `toml:"name"`
	Description string `toml:"description"`
}

// Validate checks if the Category is valid
func (c *Category) Validate() error {
	if err := types.Category(c.Name).Validate(); err != nil {
		return goerr.Wrap(ErrInvalidCategory, err.Error(), goerr.V(CategoryKey, c.Name))
	}
	return nil
}

// Attachment is the upload policy
type Attachment struct {
	AllowedExtensions []string `toml:"allowed_extensions"`
	MaxSizeBytes      int64    `toml:"max_size_bytes"`
}

// Merge holds merge selection settings
type Merge struct {
	SelectionTTL string `toml:"selection_ttl"`
}

// Validate checks if the AppConfig is valid
func (a *AppConfig) Validate() error {
	names := make(map[string]bool)
	initials := make(map[string]bool)
	for i, d := range a.Departments {
		if err := d.Validate(); err != nil {
			return goerr.Wrap(err, "invalid department", goerr.V(DepartmentIdxKey, i))
		}
		if names[d.Name] || initials[d.Initial] {
			return goerr.Wrap(ErrDuplicateDepartment, "department name and initial must be unique",
				goerr.V(DepartmentKey, d.Name), goerr.V(InitialKey, d.Initial))
		}
		names[d.Name] = true
		initials[d.Initial] = true
	}

	categories := make(map[string]bool)
	for i, c := range a.Categories {
		if err := c.Validate(); err != nil {
			return goerr.Wrap(err, "invalid category", goerr.V(CategoryIdxKey, i))
		}
		if categories[c.Name] {
			return goerr.Wrap(ErrDuplicateCategory, "category names must be unique", goerr.V(CategoryKey, c.Name))
		}
		categories[c.Name] = true
	}

	for taxonomy := range a.Causes {
		if !types.CauseTaxonomy(taxonomy).IsValid() {
			return goerr.Wrap(ErrUnknownCauseTaxonomy, "cause taxonomy must be people, process, it_systems or external",
				goerr.V(CauseTaxonomyKey, taxonomy))
		}
	}

	for _, ext := range a.Attachment.AllowedExtensions {
		ext = strings.TrimPrefix(ext, ".")
		if ext == "" || strings.ContainsAny(ext, "./\\ ") {
			return goerr.Wrap(ErrInvalidExtension, "extension must be a plain suffix", goerr.V(ExtensionKey, ext))
		}
	}
	if a.Attachment.MaxSizeBytes < 0 {
		return goerr.Wrap(ErrInvalidConfig, "max_size_bytes must not be negative",
			goerr.V("max_size_bytes", a.Attachment.MaxSizeBytes))
	}

	if _, err := a.selectionTTL(); err != nil {
		return err
	}

	return nil
}

func (a *AppConfig) selectionTTL() (time.Duration, error) {
	if a.Merge.SelectionTTL == "" {
		return 0, nil
	}
	ttl, err := time.ParseDuration(a.Merge.SelectionTTL)
	if err != nil || ttl <= 0 {
		return 0, goerr.Wrap(ErrInvalidConfig, "selection_ttl must be a positive duration such as \"30m\"",
			goerr.V("selection_ttl", a.Merge.SelectionTTL))
	}
	return ttl, nil
}

// LoadAppConfiguration loads the register configuration from a TOML file
func LoadAppConfiguration(path string) (*AppConfig, error) {
	// #nosec G304 - path is expected to be provided by CLI argument
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, goerr.Wrap(ErrConfigNotFound, "config file does not exist", goerr.V(ConfigPathKey, path))
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read config file", goerr.V(ConfigPathKey, path))
	}

	var config AppConfig
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, goerr.Wrap(ErrInvalidConfig, "failed to parse TOML config",
			goerr.V(ConfigPathKey, path), goerr.V("error", err.Error()))
	}

	if err := config.Validate(); err != nil {
		return nil, goerr.Wrap(err, "config validation failed", goerr.V(ConfigPathKey, path))
	}

	return &config, nil
}

// ToDomainConfig converts AppConfig to the domain RegisterConfig, applying defaults
func (a *AppConfig) ToDomainConfig() *domainConfig.RegisterConfig {
	cfg := domainConfig.DefaultRegisterConfig()

	for _, d := range a.Departments {
		cfg.Departments = append(cfg.Departments, domainConfig.Department{Name: d.Name, Initial: d.Initial})
	}
	for _, c := range a.Categories {
		cfg.Categories = append(cfg.Categories, domainConfig.Category{Name: c.Name, Description: c.Description})
	}
	for taxonomy, causes := range a.Causes {
		cfg.Causes[types.CauseTaxonomy(taxonomy)] = causes
	}

	if len(a.Attachment.AllowedExtensions) > 0 {
		cfg.Attachment.AllowedExtensions = make([]string, len(a.Attachment.AllowedExtensions))
		for i, ext := range a.Attachment.AllowedExtensions {
			cfg.Attachment.AllowedExtensions[i] = strings.ToLower(strings.TrimPrefix(ext, "."))
		}
	}
	if a.Attachment.MaxSizeBytes > 0 {
		cfg.Attachment.MaxSize = a.Attachment.MaxSizeBytes
	}

	// Validate has already rejected malformed durations
	cfg.MergeSelectionTTL, _ = a.selectionTTL()

	return cfg
}

// App holds the flag pointing at the register configuration file
type App struct {
	path string
}

// Flags returns CLI flags for the register configuration
func (x *App) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "Register configuration TOML (departments, categories, causes, attachment policy)",
			Sources:     cli.EnvVars("RISKREG_CONFIG"),
			Destination: &x.path,
		},
	}
}

// Path returns the configured file path
func (x *App) Path() string {
	return x.path
}

// Configure loads the register configuration. Without a file the defaults are used.
func (x *App) Configure(ctx context.Context) (*domainConfig.RegisterConfig, error) {
	if x.path == "" {
		return domainConfig.DefaultRegisterConfig(), nil
	}

	app, err := LoadAppConfiguration(x.path)
	if err != nil {
		return nil, err
	}
	return app.ToDomainConfig(), nil
}
