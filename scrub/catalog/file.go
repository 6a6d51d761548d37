package catalog

import (
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/CMSgov/scrub-app/scrub/constants"
	scruberrors "github.com/CMSgov/scrub-app/scrub/errors"
	"github.com/CMSgov/scrub-app/scrub/models"
)

type catalogFile struct {
	Rules     []models.Rule `toml:"rules"`
	Reference *Reference    `toml:"reference"`
}

func readFile(path string) ([]models.Rule, Reference, error) {
	var f catalogFile
	md, err := toml.DecodeFile(path, &f)
	if err != nil {
		return nil, Reference{}, &scruberrors.CatalogError{Err: err, Msg: constants.CatalogLoadErr + " " + path}
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		return nil, Reference{}, &scruberrors.CatalogError{
			Msg: "unrecognized catalog keys in " + path + ": " + strings.Join(keys, ", "),
		}
	}

	reference := defaultReference()
	if f.Reference != nil {
		if len(f.Reference.PlaceOfService) > 0 {
			reference.PlaceOfService = f.Reference.PlaceOfService
		}
		if len(f.Reference.Necessity) > 0 {
			reference.Necessity = f.Reference.Necessity
		}
	}

	return f.Rules, reference, nil
}

// LoadFile builds a catalog from a TOML definition file. Reference data the
// file omits falls back to the built-in sets.
func LoadFile(path string) (*Catalog, error) {
	rules, reference, err := readFile(path)
	if err != nil {
		return nil, err
	}
	return New(rules, reference)
}

// Reload replaces the rule definitions with the file's contents. Runtime
// toggles survive the reload. On error the catalog is left untouched.
func (c *Catalog) Reload(path string) error {
	rules, reference, err := readFile(path)
	if err != nil {
		return err
	}
	return c.replace(rules, reference)
}
