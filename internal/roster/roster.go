// Package roster loads the YAML roster of tracked CEOs and brands and
// renders it as a sheet tab for the dashboard pipelines to consume.
package roster

import (
	"fmt"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/sentiment-proxy/internal/table"
)

// Entity is one tracked CEO or brand.
type Entity struct {
	Name    string   `yaml:"name"`
	Company string   `yaml:"company,omitempty"`
	Aliases []string `yaml:"aliases,omitempty"`
}

// Roster is the full tracked-entity list.
type Roster struct {
	Entities []Entity `yaml:"entities"`
}

// Load reads and validates a roster file.
func Load(path string) (*Roster, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "roster: read %s", path)
	}

	var r Roster
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, eris.Wrapf(err, "roster: parse %s", path)
	}
	if len(r.Entities) == 0 {
		return nil, eris.Errorf("roster: %s has no entities", path)
	}
	for i, e := range r.Entities {
		if e.Name == "" {
			return nil, eris.Errorf("roster: entity %d has no name", i)
		}
	}
	return &r, nil
}

// Snapshot renders the roster as a tab with columns entity, company,
// aliases. An entity with a company but no aliases gets the search alias
// "<name> <company>" generated for it.
func (r *Roster) Snapshot() table.Snapshot {
	snap := table.Snapshot{Header: []string{"entity", "company", "aliases"}}
	for _, e := range r.Entities {
		aliases := e.Aliases
		if len(aliases) == 0 && e.Company != "" {
			aliases = []string{fmt.Sprintf("%s %s", e.Name, e.Company)}
		}
		snap.Rows = append(snap.Rows, []string{e.Name, e.Company, strings.Join(aliases, "; ")})
	}
	return snap
}
