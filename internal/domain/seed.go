package domain

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

//go:embed locations.yaml
var defaultSeed []byte

// SeedFile is the YAML layout of a location table.
type SeedFile struct {
	Locations []SeedLocation `yaml:"locations"`
}

// SeedLocation lists every name that maps to one canonical id. Names[0] is
// the primary display form.
type SeedLocation struct {
	ID    string   `yaml:"id"`
	Names []string `yaml:"names"`
}

// DefaultSeed returns a reader over the built-in location table.
func DefaultSeed() io.Reader {
	return bytes.NewReader(defaultSeed)
}

// ParseSeed decodes a location table. An empty document yields no locations.
func ParseSeed(r io.Reader) (SeedFile, error) {
	var seed SeedFile
	if err := yaml.NewDecoder(r).Decode(&seed); err != nil {
		if errors.Is(err, io.EOF) {
			return SeedFile{}, nil
		}
		return SeedFile{}, fmt.Errorf("parse seed: %w", err)
	}
	for i, loc := range seed.Locations {
		if loc.ID == "" {
			return SeedFile{}, fmt.Errorf("parse seed: location %d has no id", i)
		}
		if len(loc.Names) == 0 {
			return SeedFile{}, fmt.Errorf("parse seed: location %q has no names", loc.ID)
		}
	}
	return seed, nil
}

// Register adds every name in seed to d, in file order.
func (seed SeedFile) Register(d *Dictionary) error {
	for _, loc := range seed.Locations {
		for _, name := range loc.Names {
			if err := d.Register(name, loc.ID); err != nil {
				return err
			}
		}
	}
	return nil
}

// LoadDictionary builds a dictionary from one or more seed documents,
// registered in the order given. Duplicates across documents are detected
// the same way as within one.
func LoadDictionary(sources ...io.Reader) (*Dictionary, error) {
	d := NewDictionary()
	for i, r := range sources {
		seed, err := ParseSeed(r)
		if err != nil {
			return nil, fmt.Errorf("seed source %d: %w", i, err)
		}
		if err := seed.Register(d); err != nil {
			return nil, fmt.Errorf("seed source %d: %w", i, err)
		}
	}
	return d, nil
}

// DefaultDictionary builds the dictionary from the built-in table only.
func DefaultDictionary() (*Dictionary, error) {
	return LoadDictionary(DefaultSeed())
}
