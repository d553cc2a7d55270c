package directory

import "fmt"

// DefaultRevision is the table used when none is configured.
const DefaultRevision = "general"

var builtins = map[string][]Especialidad{
	"general": {
		{Nombre: "Gastroenterología", Medicos: []string{"Dr. Aguilar Marcelo"}},
		{Nombre: "Cardiología", Medicos: []string{"Dr. Eduardo Pino"}},
		{Nombre: "Dermatología", Medicos: []string{"Claudia Zamora"}},
		{Nombre: "Clínica Médica", Medicos: []string{"Dr. Aguilar Marcelo", "Claudia Zamora"}},
		{Nombre: "Oftalmología", Medicos: []string{"Dr. Eduardo Pino"}},
		{Nombre: "Neumonología", Medicos: []string{"Dr. Aguilar Marcelo"}},
	},
	"centro": {
		{Nombre: "Clínica Médica", Medicos: []string{"Dra. Laura Méndez", "Dr. Martín Rivas"}},
		{Nombre: "Pediatría", Medicos: []string{"Dra. Laura Méndez"}},
		{Nombre: "Traumatología", Medicos: []string{"Dr. Martín Rivas", "Dr. Sergio Paz"}},
		{Nombre: "Ginecología", Medicos: []string{"Dra. Ana Torres"}},
		{Nombre: "Cardiología", Medicos: []string{"Dr. Sergio Paz"}},
	},
}

// Builtin returns one of the compiled-in tables by name.
func Builtin(name string) (*Directory, error) {
	if name == "" {
		name = DefaultRevision
	}
	entries, ok := builtins[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRevision, name)
	}
	return New(entries)
}

// MustBuiltin is Builtin for package-level defaults and tests.
func MustBuiltin(name string) *Directory {
	d, err := Builtin(name)
	if err != nil {
		panic(err)
	}
	return d
}
