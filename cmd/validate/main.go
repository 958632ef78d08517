// Command validate checks location seed files before they are deployed. It
// verifies that each file parses, that no name maps to two canonical ids
// (within a file or against the built-in table), and that every canonical id
// still looks up to its own location.
//
// Usage:
//
//	go run ./cmd/validate -seed deploy/locations.yaml
//	go run ./cmd/validate -builtin=false -seed a.yaml -seed b.yaml
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/couchcryptid/diary-location-service/internal/domain"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

type seedFlags []string

func (s *seedFlags) String() string     { return strings.Join(*s, ",") }
func (s *seedFlags) Set(v string) error { *s = append(*s, v); return nil }

func main() {
	var seeds seedFlags
	flag.Var(&seeds, "seed", "seed file to validate (repeatable)")
	builtin := flag.Bool("builtin", true, "validate against the built-in location table")
	flag.Parse()

	if len(seeds) == 0 && !*builtin {
		flag.Usage()
		os.Exit(1)
	}

	os.Exit(run(os.Stdout, seeds, *builtin))
}

// namedSeed is a parsed seed document and where it came from.
type namedSeed struct {
	name string
	seed domain.SeedFile
}

func run(out io.Writer, paths []string, builtin bool) int {
	fmt.Fprintln(out, "=== Location Seed Validation ===")
	fmt.Fprintln(out)

	parse := &phase{name: "Phase 1: parse"}
	var seeds []namedSeed
	if builtin {
		seed, err := domain.ParseSeed(domain.DefaultSeed())
		if err != nil {
			parse.errorf("built-in table: %v", err)
		} else {
			seeds = append(seeds, namedSeed{name: "built-in", seed: seed})
		}
	}
	for _, path := range paths {
		seed, err := parseFile(path)
		if err != nil {
			parse.errorf("%s: %v", path, err)
			continue
		}
		seeds = append(seeds, namedSeed{name: path, seed: seed})
	}

	dict, dupes := validateDuplicates(seeds)
	phases := []*phase{
		parse,
		dupes,
		validateShadowing(dict),
	}

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(out, "  %-42s %s\n", p.name, status)
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Files: %d, display names: %d\n", len(seeds), dict.Len())

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(out, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(out, "  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Fprintln(out, "\nAll validations passed.")
		return 0
	}
	fmt.Fprintln(out, "\nValidation FAILED.")
	return 1
}

func parseFile(path string) (domain.SeedFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.SeedFile{}, err
	}
	defer f.Close()
	return domain.ParseSeed(f)
}

// validateDuplicates registers every name into one dictionary and reports
// each conflict instead of stopping at the first.
func validateDuplicates(seeds []namedSeed) (*domain.Dictionary, *phase) {
	p := &phase{name: "Phase 2: duplicate names"}
	dict := domain.NewDictionary()
	for _, s := range seeds {
		for _, loc := range s.seed.Locations {
			for _, name := range loc.Names {
				err := dict.Register(name, loc.ID)
				var dup *domain.DuplicateLocationError
				switch {
				case errors.As(err, &dup):
					p.errorf("%s: %q maps to %q but is already registered as %q", s.name, dup.DisplayName, dup.Conflicting, dup.Existing)
				case err != nil:
					p.errorf("%s: %v", s.name, err)
				}
			}
		}
	}
	return dict, p
}

// validateShadowing flags canonical ids that Lookup cannot reach because the
// same text is a display name of another location. Saved defaults and cue
// captures that use such an id would resolve to the wrong place.
func validateShadowing(dict *domain.Dictionary) *phase {
	p := &phase{name: "Phase 3: shadowed canonical ids"}
	seen := make(map[string]bool)
	for _, e := range dict.Entries() {
		if seen[e.CanonicalID] {
			continue
		}
		seen[e.CanonicalID] = true
		got, ok := dict.Lookup(e.CanonicalID)
		if !ok {
			p.errorf("canonical id %q does not resolve", e.CanonicalID)
			continue
		}
		if got.CanonicalID != e.CanonicalID {
			p.errorf("canonical id %q is shadowed by display name %q of %q", e.CanonicalID, got.DisplayName, got.CanonicalID)
		}
	}
	return p
}
