// Package workflow drives the discovery and transfer workflow: it owns the
// session configuration and the stage, asks the request package for payloads
// and hands them to the backend.
//
// Stages only move forward (Idle, Connected, ColumnsLoaded, PreviewReady)
// until the source kind changes, which resets everything to Idle. A failed
// remote call leaves the stage where it was.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"

	"github.com/KazanKK/flatbridge/internal/config"
	"github.com/KazanKK/flatbridge/internal/model"
	"github.com/KazanKK/flatbridge/internal/request"
	log "github.com/sirupsen/logrus"
)

var (
	ErrStageNotReached = errors.New("workflow stage not reached")
	ErrUnknownTable    = errors.New("table is not in the current table list")
	ErrUnknownColumn   = errors.New("column is not in the current column list")
	ErrNoTable         = errors.New("no table selected")
	// ErrSuperseded is returned when a response arrives after the source
	// kind changed; the response is dropped.
	ErrSuperseded = errors.New("response superseded by a source change")
)

// Backend is the remote side of the workflow.
type Backend interface {
	Connect(ctx context.Context, payload request.Connect) error
	ListTables(ctx context.Context, query url.Values) ([]string, error)
	ListColumns(ctx context.Context, query url.Values) ([]model.ColumnDescriptor, error)
	Preview(ctx context.Context, payload request.Preview) (model.PreviewResult, error)
	Ingest(ctx context.Context, payload request.Ingest) (model.IngestResult, error)
}

// Reporter receives operator-facing status lines. Status is transient
// progress; Result is the outcome of the last action. An empty message
// clears the line.
type Reporter interface {
	Status(msg string)
	Result(msg string, isError bool)
}

type nopReporter struct{}

func (nopReporter) Status(string)       {}
func (nopReporter) Result(string, bool) {}

// Visibility says which regions the operator should see.
type Visibility struct {
	DatabaseConfig bool
	FileConfig     bool
	TargetFile     bool
	TargetTable    bool
	Table          bool
	Columns        bool
	Preview        bool
	Ingestion      bool
}

// Controller is safe for concurrent use. Remote calls run without holding the
// lock, so overlapping actions may race; the last response applied wins.
type Controller struct {
	backend  Backend
	reporter Reporter

	mu         sync.Mutex
	session    config.Session
	stage      model.Stage
	generation uint64
	tables     []model.TableOption
	table      string
	columns    []model.ColumnDescriptor
	selected   map[string]bool
	preview    model.PreviewResult
}

func New(session config.Session, backend Backend, reporter Reporter) *Controller {
	if reporter == nil {
		reporter = nopReporter{}
	}
	return &Controller{
		backend:  backend,
		reporter: reporter,
		session:  session,
		selected: make(map[string]bool),
	}
}

func (c *Controller) Stage() model.Stage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stage
}

// Session returns a copy of the current configuration.
func (c *Controller) Session() config.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

func (c *Controller) Visibility() Visibility {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Visibility{
		DatabaseConfig: c.session.Source == model.SourceDatabase,
		FileConfig:     c.session.Source == model.SourceFlatFile,
		TargetFile:     c.session.Direction == model.DatabaseToFile,
		TargetTable:    c.session.Direction == model.FileToDatabase,
		Table:          c.stage.AtLeast(model.StageConnected),
		Columns:        c.stage.AtLeast(model.StageColumnsLoaded),
		Preview:        c.stage.AtLeast(model.StagePreviewReady),
		Ingestion:      c.stage.AtLeast(model.StageColumnsLoaded),
	}
}

func (c *Controller) Tables() []model.TableOption {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]model.TableOption(nil), c.tables...)
}

func (c *Controller) SelectedTable() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.table
}

func (c *Controller) Columns() []model.ColumnDescriptor {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]model.ColumnDescriptor(nil), c.columns...)
}

// SelectedColumns returns the selection in column-list order.
func (c *Controller) SelectedColumns() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selectedLocked()
}

func (c *Controller) selectedLocked() []string {
	names := make([]string, 0, len(c.selected))
	for _, col := range c.columns {
		if c.selected[col.Name] {
			names = append(names, col.Name)
		}
	}
	return names
}

// Preview returns the last preview and whether one is available.
func (c *Controller) Preview() (model.PreviewResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.preview, c.stage.AtLeast(model.StagePreviewReady)
}

// SetSourceKind switches the source. Any actual change resets the workflow
// to Idle.
func (c *Controller) SetSourceKind(kind model.SourceKind) {
	c.Edit(func(s *config.Session) {
		s.Source = kind
	})
}

// SetDirection switches the transfer direction. The stage is untouched.
func (c *Controller) SetDirection(dir model.Direction) {
	c.Edit(func(s *config.Session) {
		s.Direction = dir
	})
}

// Edit applies an operator edit to the session. If the edit changes the
// source kind the workflow is reset.
func (c *Controller) Edit(fn func(s *config.Session)) {
	c.mu.Lock()
	defer c.mu.Unlock()

	before := c.session.Source
	fn(&c.session)
	if c.session.Source != before {
		c.resetLocked()
	}
}

// EditField is Edit for a single named input (see config.Fields).
func (c *Controller) EditField(field, value string) error {
	var err error
	c.Edit(func(s *config.Session) {
		err = s.Set(field, value)
	})
	return err
}

func (c *Controller) resetLocked() {
	log.WithFields(log.Fields{
		"source": c.session.Source,
		"from":   c.stage,
	}).Debug("source changed, resetting workflow")

	c.generation++
	c.stage = model.StageIdle
	c.tables = nil
	c.table = ""
	c.columns = nil
	c.selected = make(map[string]bool)
	c.preview = model.PreviewResult{}
}

// SelectTable picks an entry of the table selector.
func (c *Controller) SelectTable(handle string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.stage.AtLeast(model.StageConnected) {
		return fmt.Errorf("selecting a table: %w (stage %s)", ErrStageNotReached, c.stage)
	}
	for _, t := range c.tables {
		if t.Handle == handle {
			c.table = handle
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownTable, handle)
}

// SetColumnSelected toggles one column of the current list.
func (c *Controller) SetColumnSelected(name string, selected bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.hasColumnLocked(name) {
		return fmt.Errorf("%w: %q", ErrUnknownColumn, name)
	}
	if selected {
		c.selected[name] = true
	} else {
		delete(c.selected, name)
	}
	return nil
}

// SelectColumns replaces the selection. Every name must be in the current list.
func (c *Controller) SelectColumns(names []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := make(map[string]bool, len(names))
	for _, name := range names {
		if !c.hasColumnLocked(name) {
			return fmt.Errorf("%w: %q", ErrUnknownColumn, name)
		}
		next[name] = true
	}
	c.selected = next
	return nil
}

func (c *Controller) hasColumnLocked(name string) bool {
	for _, col := range c.columns {
		if col.Name == name {
			return true
		}
	}
	return false
}

// snapshot captures what a remote call needs, under the lock.
type snapshot struct {
	session    config.Session
	generation uint64
	stage      model.Stage
	table      string
	columns    []string
}

func (c *Controller) snapshot() snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return snapshot{
		session:    c.session,
		generation: c.generation,
		stage:      c.stage,
		table:      c.table,
		columns:    c.selectedLocked(),
	}
}

// apply runs fn under the lock unless the source changed since snap was taken.
func (c *Controller) apply(snap snapshot, fn func()) error {
	c.mu.Lock()
	current := c.generation
	if current == snap.generation {
		fn()
	}
	c.mu.Unlock()

	if current != snap.generation {
		log.WithField("generation", snap.generation).Debug("dropping stale response")
		c.reporter.Status("")
		return ErrSuperseded
	}
	return nil
}

// fail reports err as the result line and returns it.
func (c *Controller) fail(prefix string, err error) error {
	c.reporter.Status("")
	c.reporter.Result(fmt.Sprintf("%s: %s", prefix, err.Error()), true)
	return err
}
