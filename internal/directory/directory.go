// Package directory holds the specialty -> doctor table that drives the
// appointment form's dependent selectors.
package directory

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

var (
	// ErrUnknownRevision is returned when a built-in table name is not recognised.
	ErrUnknownRevision = errors.New("directory: unknown revision")

	// ErrInvalidTable is returned when a table fails validation.
	ErrInvalidTable = errors.New("directory: invalid table")
)

// Especialidad is one specialty with its eligible doctors, in display order.
type Especialidad struct {
	Nombre  string   `json:"nombre"`
	Medicos []string `json:"medicos"`
}

// Directory is an immutable, ordered specialty table.
type Directory struct {
	especialidades []Especialidad
	index          map[string]int
}

// New validates the entries and builds a Directory. The entries are copied.
func New(entries []Especialidad) (*Directory, error) {
	d := &Directory{
		especialidades: make([]Especialidad, 0, len(entries)),
		index:          make(map[string]int, len(entries)),
	}
	for _, e := range entries {
		nombre := strings.TrimSpace(e.Nombre)
		if nombre == "" {
			return nil, fmt.Errorf("%w: empty specialty name", ErrInvalidTable)
		}
		if _, dup := d.index[nombre]; dup {
			return nil, fmt.Errorf("%w: duplicate specialty %q", ErrInvalidTable, nombre)
		}
		medicos := make([]string, 0, len(e.Medicos))
		seen := make(map[string]struct{}, len(e.Medicos))
		for _, m := range e.Medicos {
			m = strings.TrimSpace(m)
			if m == "" {
				return nil, fmt.Errorf("%w: empty doctor name in %q", ErrInvalidTable, nombre)
			}
			if _, dup := seen[m]; dup {
				return nil, fmt.Errorf("%w: doctor %q listed twice in %q", ErrInvalidTable, m, nombre)
			}
			seen[m] = struct{}{}
			medicos = append(medicos, m)
		}
		d.index[nombre] = len(d.especialidades)
		d.especialidades = append(d.especialidades, Especialidad{Nombre: nombre, Medicos: medicos})
	}
	return d, nil
}

// Parse decodes a JSON array of {"nombre", "medicos"} objects.
func Parse(data []byte) (*Directory, error) {
	var entries []Especialidad
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTable, err)
	}
	return New(entries)
}

// LoadFile reads a JSON table from disk.
func LoadFile(path string) (*Directory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("directory: read %s: %w", path, err)
	}
	return Parse(data)
}

// Especialidades returns the specialty names in configured order.
func (d *Directory) Especialidades() []string {
	out := make([]string, 0, len(d.especialidades))
	for _, e := range d.especialidades {
		out = append(out, e.Nombre)
	}
	return out
}

// Medicos returns the doctors for a specialty in configured order. Unset or
// unknown specialties yield an empty, non-nil slice.
func (d *Directory) Medicos(especialidad string) []string {
	i, ok := d.index[especialidad]
	if !ok {
		return []string{}
	}
	out := make([]string, len(d.especialidades[i].Medicos))
	copy(out, d.especialidades[i].Medicos)
	return out
}

// Permite reports whether medico is eligible for especialidad.
func (d *Directory) Permite(especialidad, medico string) bool {
	i, ok := d.index[especialidad]
	if !ok {
		return false
	}
	for _, m := range d.especialidades[i].Medicos {
		if m == medico {
			return true
		}
	}
	return false
}

// Entries returns a deep copy of the table.
func (d *Directory) Entries() []Especialidad {
	out := make([]Especialidad, 0, len(d.especialidades))
	for _, e := range d.especialidades {
		out = append(out, Especialidad{Nombre: e.Nombre, Medicos: d.Medicos(e.Nombre)})
	}
	return out
}

// MarshalJSON encodes the table in the same shape Parse accepts.
func (d *Directory) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Entries())
}
