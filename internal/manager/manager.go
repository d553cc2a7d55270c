// Package manager owns the appointment form and table state: the list of
// appointments last confirmed by the remote store and the draft being
// created or edited.
package manager

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/wolfman30/turnos/internal/directory"
	"github.com/wolfman30/turnos/internal/observability/metrics"
	"github.com/wolfman30/turnos/internal/turnos"
	"github.com/wolfman30/turnos/pkg/logging"
)

// Action names used in errors, logs and metrics.
const (
	ActionLoad   = "load"
	ActionSubmit = "submit"
	ActionEdit   = "edit"
	ActionDelete = "delete"
	ActionCancel = "cancel"
	ActionDraft  = "draft"
)

// ErrFormularioDesactualizado is returned when a submitted form was rendered
// for a different draft than the one the session now holds, as happens when
// two tabs share a session.
var ErrFormularioDesactualizado = errors.New("manager: form does not match the current draft")

// ErrMedicoNoPermitido is returned when the doctor is not offered for the
// selected specialty.
var ErrMedicoNoPermitido = errors.New("manager: medico not offered for especialidad")

// Store is the remote appointment collection.
type Store interface {
	List(ctx context.Context) ([]turnos.Turno, error)
	Create(ctx context.Context, f turnos.Fields) (turnos.Turno, error)
	Update(ctx context.Context, id string, f turnos.Fields) (turnos.Turno, error)
	Delete(ctx context.Context, id string) error
}

// ActionError reports a failed action. It is returned to the caller and kept
// in State.Err until the next successful action.
type ActionError struct {
	Op  string
	Err error
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ActionError) Unwrap() error { return e.Err }

// Remote reports whether the failure came from the remote store rather than
// from validating the draft.
func (e *ActionError) Remote() bool {
	return errors.Is(e.Err, turnos.ErrRemote) || errors.Is(e.Err, turnos.ErrMalformed)
}

// Draft is the form state. An empty EditID means a new appointment.
type Draft struct {
	turnos.Fields
	EditID string
}

// Editing reports whether the draft targets an existing appointment.
func (d Draft) Editing() bool {
	return d.EditID != ""
}

// State is a snapshot of everything the form and table render.
type State struct {
	Turnos []turnos.Turno
	Draft  Draft
	// Loaded is true once the initial fetch succeeded.
	Loaded bool
	Err    *ActionError
}

// Manager applies form and table actions to its State. Actions are
// serialized; the lock is held across the remote call so a late response
// cannot overwrite state produced by a later action.
type Manager struct {
	store   Store
	dirs    directory.Source
	logger  *logging.Logger
	metrics *metrics.TurnosMetrics

	mu            sync.Mutex
	state         State
	loadAttempted bool
}

// New creates a Manager with an empty list and an empty draft.
func New(store Store, dirs directory.Source, logger *logging.Logger, m *metrics.TurnosMetrics) *Manager {
	if logger == nil {
		logger = logging.Default()
	}
	return &Manager{
		store:   store,
		dirs:    dirs,
		logger:  logger,
		metrics: m,
		state:   State{Turnos: []turnos.Turno{}},
	}
}

// Load fetches the collection once. Later calls do nothing, whether or not the
// first one succeeded.
func (m *Manager) Load(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.loadAttempted {
		return nil
	}
	m.loadAttempted = true

	list, err := m.store.List(ctx)
	if err != nil {
		return m.fail(ActionLoad, err)
	}
	m.state.Turnos = list
	m.state.Loaded = true
	m.succeed(ActionLoad)
	m.logger.Info("turnos loaded", "count", len(list))
	return nil
}

// Submit copies f into the draft and persists it: a create when the draft is
// new, an update of Draft.EditID otherwise. On success the draft is cleared;
// on failure the list is untouched and the draft keeps the submitted values.
func (m *Manager) Submit(ctx context.Context, f turnos.Fields) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.submit(ctx, f)
}

// SubmitForm is Submit for a form rendered while the draft targeted editID
// ("" for a new appointment). When the draft has moved on since, nothing is
// sent and the draft is left as it is.
func (m *Manager) SubmitForm(ctx context.Context, f turnos.Fields, editID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if editID != m.state.Draft.EditID {
		return m.fail(ActionSubmit, fmt.Errorf("%w: form for %q, draft for %q",
			ErrFormularioDesactualizado, editID, m.state.Draft.EditID))
	}
	return m.submit(ctx, f)
}

// submit does the work of Submit. Caller holds mu.
func (m *Manager) submit(ctx context.Context, f turnos.Fields) error {
	f = f.Normalize()
	m.state.Draft.Fields = f

	if err := m.validate(ctx, f); err != nil {
		return m.fail(ActionSubmit, err)
	}

	if id := m.state.Draft.EditID; id != "" {
		updated, err := m.store.Update(ctx, id, f)
		if err != nil {
			return m.fail(ActionSubmit, err)
		}
		for i := range m.state.Turnos {
			if m.state.Turnos[i].ID == id {
				m.state.Turnos[i] = updated
			}
		}
		m.logger.Info("turno updated", "id", id)
	} else {
		created, err := m.store.Create(ctx, f)
		if err != nil {
			return m.fail(ActionSubmit, err)
		}
		m.state.Turnos = append(m.state.Turnos, created)
		m.logger.Info("turno created", "id", created.ID)
	}

	m.state.Draft = Draft{}
	m.succeed(ActionSubmit)
	return nil
}

// BeginEdit loads appointment id into the draft. It returns false, changing
// nothing, when id is not in the local list.
func (m *Manager) BeginEdit(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, t := range m.state.Turnos {
		if t.ID == id {
			m.state.Draft = Draft{Fields: t.Fields, EditID: t.ID}
			m.succeed(ActionEdit)
			return true
		}
	}
	return false
}

// Delete removes appointment id remotely and then locally. Deleting the
// appointment being edited also clears the draft.
func (m *Manager) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.Delete(ctx, id); err != nil {
		return m.fail(ActionDelete, err)
	}

	kept := make([]turnos.Turno, 0, len(m.state.Turnos))
	for _, t := range m.state.Turnos {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	m.state.Turnos = kept
	if m.state.Draft.EditID == id {
		m.state.Draft = Draft{}
	}
	m.succeed(ActionDelete)
	m.logger.Info("turno deleted", "id", id)
	return nil
}

// Cancel discards the draft without contacting the store.
func (m *Manager) Cancel() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state.Draft = Draft{}
	m.succeed(ActionCancel)
}

// UpdateDraft replaces the draft fields without submitting. The doctor is
// kept only when the new specialty offers it.
func (m *Manager) UpdateDraft(ctx context.Context, f turnos.Fields) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updateDraft(ctx, f)
}

// SetEspecialidad changes only the draft's specialty.
func (m *Manager) SetEspecialidad(ctx context.Context, especialidad string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	f := m.state.Draft.Fields
	f.Especialidad = especialidad
	return m.updateDraft(ctx, f)
}

// updateDraft applies the doctor policy to f and stores it. Caller holds mu.
func (m *Manager) updateDraft(ctx context.Context, f turnos.Fields) error {
	f = f.Normalize()
	if f.Medico != "" {
		dir, err := m.dirs.Directory(ctx)
		if err != nil {
			m.state.Draft.Fields = f
			m.state.Draft.Medico = ""
			return m.fail(ActionDraft, err)
		}
		if !dir.Permite(f.Especialidad, f.Medico) {
			f.Medico = ""
		}
	}
	m.state.Draft.Fields = f
	m.succeed(ActionDraft)
	return nil
}

// Snapshot returns a copy of the current state.
func (m *Manager) Snapshot() State {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.state
	s.Turnos = make([]turnos.Turno, len(m.state.Turnos))
	copy(s.Turnos, m.state.Turnos)
	return s
}

func (m *Manager) validate(ctx context.Context, f turnos.Fields) error {
	if err := f.Validate(); err != nil {
		return err
	}
	dir, err := m.dirs.Directory(ctx)
	if err != nil {
		return err
	}
	if !dir.Permite(f.Especialidad, f.Medico) {
		return &turnos.FieldError{Field: "medico", Err: ErrMedicoNoPermitido}
	}
	return nil
}

// fail records err as the current action error. Caller holds mu.
func (m *Manager) fail(op string, err error) *ActionError {
	ae := &ActionError{Op: op, Err: err}
	m.state.Err = ae
	m.metrics.ObserveAction(op, err)
	if ae.Remote() {
		m.logger.Error("turnos action failed", "action", op, "error", err)
	} else {
		m.logger.Warn("turnos action rejected", "action", op, "error", err)
	}
	return ae
}

// succeed clears the current action error. Caller holds mu.
func (m *Manager) succeed(op string) {
	m.state.Err = nil
	m.metrics.ObserveAction(op, nil)
}
