package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/rhythmforge/rhythmcore/internal/rhythm"
)

// SeedBuiltinPatterns inserts every pattern in library that isn't already
// present, tagged source="builtin". It is idempotent: re-running it after
// the library gains entries only inserts the new ones.
func (d *DB) SeedBuiltinPatterns(library []rhythm.Pattern) error {
	for _, p := range library {
		drumsJSON, err := json.Marshal(stepsByName(p))
		if err != nil {
			return fmt.Errorf("storage: marshal pattern %s: %w", p.ID, err)
		}
		_, err = d.db.Exec(`
			INSERT INTO patterns (id, display_name, genre_tag, description, drums_json, swing, source)
			VALUES (?, ?, ?, ?, ?, ?, 'builtin')
			ON CONFLICT(id) DO NOTHING
		`, p.ID, p.DisplayName, p.GenreTag, p.Description, string(drumsJSON), p.Swing)
		if err != nil {
			return fmt.Errorf("storage: seed pattern %s: %w", p.ID, err)
		}
	}
	return nil
}

// SaveCustomPattern persists a user-defined groove, tagged source="custom",
// so it is returned alongside the builtin library by LoadPatternLibrary.
func (d *DB) SaveCustomPattern(p rhythm.Pattern) error {
	drumsJSON, err := json.Marshal(stepsByName(p))
	if err != nil {
		return fmt.Errorf("storage: marshal pattern %s: %w", p.ID, err)
	}
	_, err = d.db.Exec(`
		INSERT INTO patterns (id, display_name, genre_tag, description, drums_json, swing, source)
		VALUES (?, ?, ?, ?, ?, ?, 'custom')
		ON CONFLICT(id) DO UPDATE SET
			display_name = excluded.display_name,
			genre_tag = excluded.genre_tag,
			description = excluded.description,
			drums_json = excluded.drums_json,
			swing = excluded.swing
	`, p.ID, p.DisplayName, p.GenreTag, p.Description, string(drumsJSON), p.Swing)
	if err != nil {
		return fmt.Errorf("storage: save custom pattern %s: %w", p.ID, err)
	}
	return nil
}

// LoadPatternLibrary returns every pattern row (builtin and custom),
// decoded back into rhythm.Pattern, for use as the matcher's library.
func (d *DB) LoadPatternLibrary() ([]rhythm.Pattern, error) {
	rows, err := d.db.Query(`SELECT id, display_name, genre_tag, description, drums_json, swing FROM patterns`)
	if err != nil {
		return nil, fmt.Errorf("storage: load pattern library: %w", err)
	}
	defer rows.Close()

	var out []rhythm.Pattern
	for rows.Next() {
		var p rhythm.Pattern
		var description sql.NullString
		var drumsJSON string
		if err := rows.Scan(&p.ID, &p.DisplayName, &p.GenreTag, &description, &drumsJSON, &p.Swing); err != nil {
			return nil, fmt.Errorf("storage: scan pattern row: %w", err)
		}
		p.Description = description.String

		var byName map[string][]int
		if err := json.Unmarshal([]byte(drumsJSON), &byName); err != nil {
			return nil, fmt.Errorf("storage: decode pattern %s drums: %w", p.ID, err)
		}
		p.Drums = make(map[rhythm.DrumType][]int, len(byName))
		for name, steps := range byName {
			if d, ok := rhythm.ParseDrumType(name); ok {
				p.Drums[d] = steps
			}
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func stepsByName(p rhythm.Pattern) map[string][]int {
	out := make(map[string][]int, len(p.Drums))
	for d, steps := range p.Drums {
		out[d.String()] = steps
	}
	return out
}
