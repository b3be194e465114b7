package config

import (
	"fmt"
	"regexp"
	"strings"
)

var databaseNameRe = regexp.MustCompile(`^[a-z][a-z0-9_]{0,31}$`)

// DatabaseSpec names one SQLite file and the platforms whose prices it carries.
// An empty Platforms list means every configured platform.
type DatabaseSpec struct {
	Name      string
	Path      string
	Platforms []string
}

// DatabaseSpecs decodes QUICKDEALS_DATABASES, e.g.
//
//	zepto=zepto.db:Zepto;blinkit=blinkit.db:Blinkit
//	quickcommerce=database.db
//	combined=prices.db:Zepto|BigBasket Now
type DatabaseSpecs []DatabaseSpec

// Decode implements envconfig.Decoder.
func (d *DatabaseSpecs) Decode(value string) error {
	specs, err := ParseDatabaseSpecs(value)
	if err != nil {
		return err
	}
	*d = specs
	return nil
}

// ParseDatabaseSpecs parses the semicolon separated database list.
func ParseDatabaseSpecs(value string) (DatabaseSpecs, error) {
	var specs DatabaseSpecs
	seen := map[string]bool{}

	for _, raw := range strings.Split(value, ";") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}

		name, rest, ok := strings.Cut(raw, "=")
		if !ok {
			return nil, fmt.Errorf("database entry %q: expected name=path", raw)
		}
		name = strings.ToLower(strings.TrimSpace(name))
		if !databaseNameRe.MatchString(name) {
			return nil, fmt.Errorf("database entry %q: name must match %s", raw, databaseNameRe.String())
		}
		if seen[name] {
			return nil, fmt.Errorf("database %q configured twice", name)
		}
		seen[name] = true

		path := strings.TrimSpace(rest)
		var platforms []string
		if idx := strings.LastIndex(path, ":"); idx > 0 {
			for _, p := range strings.Split(path[idx+1:], "|") {
				if p = strings.TrimSpace(p); p != "" {
					platforms = append(platforms, p)
				}
			}
			path = strings.TrimSpace(path[:idx])
		}
		if path == "" {
			return nil, fmt.Errorf("database entry %q: path is required", raw)
		}

		specs = append(specs, DatabaseSpec{Name: name, Path: path, Platforms: platforms})
	}

	if len(specs) == 0 {
		return nil, fmt.Errorf("%s must configure at least one database", EnvDatabases)
	}
	return specs, nil
}

// Names returns the configured database names in order.
func (d DatabaseSpecs) Names() []string {
	names := make([]string, 0, len(d))
	for _, spec := range d {
		names = append(names, spec.Name)
	}
	return names
}
