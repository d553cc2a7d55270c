// Package turnos defines the appointment schema shared with the remote
// collection store and the client that talks to it.
package turnos

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// FechaLayout is the date format submitted by an HTML date input.
const FechaLayout = "2006-01-02"

// Fields are the four business fields of an appointment; they form the body
// of create and update requests.
type Fields struct {
	Especialidad string `json:"especialidad"`
	Medico       string `json:"medico"`
	Paciente     string `json:"paciente"`
	Fecha        string `json:"fecha"`
}

// Turno is a persisted appointment. ID is assigned by the remote store.
type Turno struct {
	ID string `json:"id"`
	Fields
}

// Normalize trims surrounding whitespace from every field.
func (f Fields) Normalize() Fields {
	return Fields{
		Especialidad: strings.TrimSpace(f.Especialidad),
		Medico:       strings.TrimSpace(f.Medico),
		Paciente:     strings.TrimSpace(f.Paciente),
		Fecha:        strings.TrimSpace(f.Fecha),
	}
}

// IsZero reports whether every field is empty.
func (f Fields) IsZero() bool {
	return f == Fields{}
}

// Validate requires all four fields and a well-formed fecha.
func (f Fields) Validate() error {
	f = f.Normalize()
	for _, c := range []struct{ name, value string }{
		{"especialidad", f.Especialidad},
		{"medico", f.Medico},
		{"paciente", f.Paciente},
		{"fecha", f.Fecha},
	} {
		if c.value == "" {
			return &FieldError{Field: c.name, Err: ErrMissingField}
		}
	}
	if _, err := time.Parse(FechaLayout, f.Fecha); err != nil {
		return &FieldError{Field: "fecha", Err: ErrInvalidFecha}
	}
	return nil
}

// UnmarshalJSON accepts id as a JSON string or number.
func (t *Turno) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID json.RawMessage `json:"id"`
		Fields
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	id, err := decodeID(raw.ID)
	if err != nil {
		return err
	}
	t.ID = id
	t.Fields = raw.Fields
	return nil
}

func decodeID(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		return strings.TrimSpace(s), nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", fmt.Errorf("id: %w", err)
	}
	if _, err := strconv.ParseFloat(n.String(), 64); err != nil {
		return "", fmt.Errorf("id: %w", err)
	}
	return n.String(), nil
}

// checkRecord verifies a decoded record is usable.
func checkRecord(t Turno) error {
	if t.ID == "" {
		return fmt.Errorf("%w: missing id", ErrMalformed)
	}
	return nil
}
