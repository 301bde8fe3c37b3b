package config

import (
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/secmon-lab/riskreg/pkg/domain/types"
)

// DefaultMaxAttachmentSize is the upload limit per attachment (10 MiB)
const DefaultMaxAttachmentSize int64 = 10 << 20

// DefaultAllowedExtensions are the attachment extensions accepted without configuration
var DefaultAllowedExtensions = []string{
	"pdf", "doc", "docx", "txt", "jpg", "jpeg", "png", "xlsx", "xls", "msg", "eml",
}

// Department maps a department name to the initial used in risk identifiers
type Department struct {
	Name    string
	Initial string
}

// Category represents a risk category configuration
type Category struct {
	Name        string
	Description string
}

// AttachmentPolicy constrains uploaded documents
type AttachmentPolicy struct {
	AllowedExtensions []string
	MaxSize           int64
}

// Allows reports whether a file name has an allowed extension (case-insensitive)
func (p AttachmentPolicy) Allows(name string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	if ext == "" {
		return false
	}
	allowed := p.AllowedExtensions
	if len(allowed) == 0 {
		allowed = DefaultAllowedExtensions
	}
	return slices.Contains(allowed, ext)
}

// Limit returns the effective size limit
func (p AttachmentPolicy) Limit() int64 {
	if p.MaxSize <= 0 {
		return DefaultMaxAttachmentSize
	}
	return p.MaxSize
}

// RegisterConfig holds the risk register settings shared by every use case
type RegisterConfig struct {
	Departments       []Department
	Categories        []Category
	Causes            map[types.CauseTaxonomy][]string
	Attachment        AttachmentPolicy
	MergeSelectionTTL time.Duration
}

// DefaultRegisterConfig returns the settings used when no configuration file is given
func DefaultRegisterConfig() *RegisterConfig {
	return &RegisterConfig{
		Causes: map[types.CauseTaxonomy][]string{},
		Attachment: AttachmentPolicy{
			AllowedExtensions: slices.Clone(DefaultAllowedExtensions),
			MaxSize:           DefaultMaxAttachmentSize,
		},
	}
}

// DepartmentInitial looks up the identifier initial for a department.
// A department configured by initial resolves to itself.
func (c *RegisterConfig) DepartmentInitial(department string) (string, bool) {
	if c == nil {
		return "", false
	}
	for _, d := range c.Departments {
		if d.Name == department || d.Initial == department {
			return d.Initial, true
		}
	}
	return "", false
}

// HasCategory reports whether the category belongs to the closed set.
// Without configured categories every category is accepted.
func (c *RegisterConfig) HasCategory(category types.Category) bool {
	if c == nil || len(c.Categories) == 0 {
		return true
	}
	for _, cat := range c.Categories {
		if cat.Name == category.String() {
			return true
		}
	}
	return false
}
