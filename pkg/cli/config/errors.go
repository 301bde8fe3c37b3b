package config

import "github.com/m-mizutani/goerr/v2"

// Sentinel errors for configuration validation
var (
	ErrConfigNotFound       = goerr.New("configuration file not found")
	ErrInvalidConfig        = goerr.New("invalid configuration")
	ErrDuplicateDepartment  = goerr.New("duplicate department")
	ErrDuplicateCategory    = goerr.New("duplicate category")
	ErrInvalidInitial       = goerr.New("invalid department initial")
	ErrInvalidCategory      = goerr.New("invalid category name")
	ErrUnknownCauseTaxonomy = goerr.New("unknown cause taxonomy")
	ErrInvalidExtension     = goerr.New("invalid attachment extension")
	ErrMissingName          = goerr.New("name is required")
)

// Context keys for error values
const (
	ConfigPathKey    = "config_path"
	DepartmentKey    = "department"
	InitialKey       = "initial"
	CategoryKey      = "category"
	CauseTaxonomyKey = "cause_taxonomy"
	ExtensionKey     = "extension"
	DepartmentIdxKey = "department_index"
	CategoryIdxKey   = "category_index"
)
