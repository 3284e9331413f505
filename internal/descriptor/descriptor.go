// Package descriptor loads the history descriptor of a software system: its
// metadata, package filters and the ordered list of releases to extract.
package descriptor

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/huangsam/classdrift/internal/contract"
	"github.com/huangsam/classdrift/schema"
	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Format is the serialization of a descriptor file.
type Format string

// Supported descriptor formats.
const (
	YAMLFormat Format = "yaml"
	TOMLFormat Format = "toml"
)

// ErrUnknownFormat is returned for files that are neither YAML nor TOML.
var ErrUnknownFormat = errors.New("unknown descriptor format")

// Release is one entry of the release list.
type Release struct {
	RSN  int    `yaml:"rsn" toml:"rsn" validate:"required,gt=0"`
	ID   string `yaml:"id" toml:"id" validate:"required"`
	Path string `yaml:"path" toml:"path" validate:"required"`
}

// Descriptor describes one system and where its releases live.
type Descriptor struct {
	Name        string    `yaml:"name" toml:"name" validate:"required"`
	Key         string    `yaml:"key" toml:"key" validate:"omitempty,excludesrune=/"`
	Type        string    `yaml:"type" toml:"type"`
	Description string    `yaml:"description" toml:"description"`
	Commercial  bool      `yaml:"commercial" toml:"commercial"`
	Include     []string  `yaml:"include" toml:"include"`
	Exclude     []string  `yaml:"exclude" toml:"exclude"`
	Releases    []Release `yaml:"releases" toml:"releases" validate:"required,min=1,unique=ID,dive"`

	// dir is where relative release paths resolve from.
	dir string
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// FormatOf picks the format from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAMLFormat, nil
	case ".toml":
		return TOMLFormat, nil
	default:
		return "", fmt.Errorf("%s: %w", path, ErrUnknownFormat)
	}
}

// Load reads and validates a descriptor file.
func Load(path string) (*Descriptor, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading descriptor: %w", err)
	}
	d, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	abs, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, err
	}
	d.dir = abs
	return d, nil
}

// Parse decodes and validates descriptor bytes. Relative release paths resolve
// against the working directory.
func Parse(data []byte, format Format) (*Descriptor, error) {
	var d Descriptor
	switch format {
	case YAMLFormat:
		if err := yaml.Unmarshal(data, &d); err != nil {
			return nil, fmt.Errorf("parsing yaml descriptor: %w", err)
		}
	case TOMLFormat:
		if err := toml.Unmarshal(data, &d); err != nil {
			return nil, fmt.Errorf("parsing toml descriptor: %w", err)
		}
	default:
		return nil, fmt.Errorf("%q: %w", format, ErrUnknownFormat)
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

// Validate checks the struct rules, the release numbering and the package filters.
func (d *Descriptor) Validate() error {
	if err := validate.Struct(d); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid descriptor: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid descriptor: %w", err)
	}
	if schema.ShortNameOf(d.Name) == "" {
		return errors.New("invalid descriptor: name is blank")
	}
	for i, r := range d.Releases {
		if r.RSN != i+1 {
			return fmt.Errorf("invalid descriptor: release %q has rsn %d, want %d (rsns must be dense from 1 and increasing)", r.ID, r.RSN, i+1)
		}
	}
	return d.Filter().ValidatePatterns()
}

// SystemKey is the store key of the system: the explicit key, or the lower-cased short name.
func (d *Descriptor) SystemKey() string {
	if d.Key != "" {
		return d.Key
	}
	return strings.ToLower(schema.ShortNameOf(d.Name))
}

// Filter returns the package filters of the descriptor.
func (d *Descriptor) Filter() contract.PackageFilter {
	return contract.PackageFilter{Includes: d.Include, Excludes: d.Exclude}
}

// ReleasePath resolves a release path against the descriptor's directory.
func (d *Descriptor) ReleasePath(r Release) string {
	if filepath.IsAbs(r.Path) || d.dir == "" {
		return r.Path
	}
	return filepath.Join(d.dir, r.Path)
}

// History converts the descriptor into the stored table of contents.
func (d *Descriptor) History() *schema.EvolutionHistory {
	h := &schema.EvolutionHistory{
		Key:      d.SystemKey(),
		Releases: make(map[int]string, len(d.Releases)),
		Metadata: map[string]string{
			schema.MetaName:       d.Name,
			schema.MetaShortName:  schema.ShortNameOf(d.Name),
			schema.MetaCommercial: strconv.FormatBool(d.Commercial),
		},
		Includes: append([]string{}, d.Include...),
		Excludes: append([]string{}, d.Exclude...),
	}
	if d.Type != "" {
		h.Metadata[schema.MetaType] = d.Type
	}
	if d.Description != "" {
		h.Metadata[schema.MetaDescription] = d.Description
	}
	for _, r := range d.Releases {
		h.Releases[r.RSN] = r.ID
	}
	return h
}
