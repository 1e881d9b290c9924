package workflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/KazanKK/flatbridge/internal/model"
	"github.com/KazanKK/flatbridge/internal/request"
	log "github.com/sirupsen/logrus"
)

// Connect verifies the source connection and fills the table selector. A
// flat-file source gets its single synthetic table; a database source lists
// its tables right away. A failed table listing is reported but does not undo
// the connection.
func (c *Controller) Connect(ctx context.Context) error {
	snap := c.snapshot()
	if err := snap.session.Validate(model.RoleSource); err != nil {
		return c.fail("Connection failed", err)
	}

	c.reporter.Status(fmt.Sprintf("Connecting to %s...", snap.session.Source))
	if err := c.backend.Connect(ctx, request.BuildConnect(&snap.session)); err != nil {
		return c.fail("Connection failed", err)
	}

	err := c.apply(snap, func() {
		c.stage = model.Max(c.stage, model.StageConnected)
		if snap.session.Source == model.SourceFlatFile {
			c.tables = []model.TableOption{{Handle: model.FlatFileTable, Label: model.FlatFileTableLabel}}
			c.table = model.FlatFileTable
		}
	})
	if err != nil {
		return err
	}
	c.reporter.Status("Connection successful!")
	c.reporter.Result("", false)

	if snap.session.Source != model.SourceDatabase {
		return nil
	}
	return c.loadTables(ctx, snap)
}

func (c *Controller) loadTables(ctx context.Context, snap snapshot) error {
	query, err := request.TablesQuery(&snap.session)
	if err != nil {
		return c.fail("Failed to load tables", err)
	}

	c.reporter.Status("Loading tables...")
	names, err := c.backend.ListTables(ctx, query)
	if err != nil {
		return c.fail("Failed to load tables", err)
	}

	err = c.apply(snap, func() {
		c.tables = make([]model.TableOption, 0, len(names))
		for _, name := range names {
			c.tables = append(c.tables, model.TableOption{Handle: name, Label: name})
		}
		c.table = ""
		if len(c.tables) > 0 {
			c.table = c.tables[0].Handle
		}
	})
	if err != nil {
		return err
	}

	log.WithField("count", len(names)).Debug("tables loaded")
	c.reporter.Status("")
	return nil
}

// LoadColumns discovers the columns of the selected table and selects all
// of them, replacing any previous selection.
func (c *Controller) LoadColumns(ctx context.Context) error {
	snap := c.snapshot()
	if !snap.stage.AtLeast(model.StageConnected) {
		return fmt.Errorf("loading columns: %w (stage %s)", ErrStageNotReached, snap.stage)
	}
	if snap.table == "" {
		return fmt.Errorf("loading columns: %w", ErrNoTable)
	}

	c.reporter.Status("Loading columns...")
	columns, err := c.backend.ListColumns(ctx, request.ColumnsQuery(&snap.session, snap.table))
	if err != nil {
		return c.fail("Failed to load columns", err)
	}

	err = c.apply(snap, func() {
		c.columns = columns
		c.selected = make(map[string]bool, len(columns))
		for _, col := range columns {
			c.selected[col.Name] = true
		}
		c.stage = model.Max(c.stage, model.StageColumnsLoaded)
	})
	if err != nil {
		return err
	}

	log.WithFields(log.Fields{"table": snap.table, "count": len(columns)}).Debug("columns loaded")
	c.reporter.Status("")
	return nil
}

// LoadPreview samples rows of the selected table restricted to the selected
// columns. The selection is left as it is.
func (c *Controller) LoadPreview(ctx context.Context) (model.PreviewResult, error) {
	snap := c.snapshot()
	if !snap.stage.AtLeast(model.StageColumnsLoaded) {
		return model.PreviewResult{}, fmt.Errorf("loading preview: %w (stage %s)", ErrStageNotReached, snap.stage)
	}

	c.reporter.Status("Loading preview...")
	result, err := c.backend.Preview(ctx, request.BuildPreview(&snap.session, snap.table, snap.columns))
	if err != nil {
		return model.PreviewResult{}, c.fail("Failed to load preview", err)
	}

	err = c.apply(snap, func() {
		c.preview = result
		c.stage = model.Max(c.stage, model.StagePreviewReady)
	})
	if err != nil {
		return model.PreviewResult{}, err
	}

	c.reporter.Status("")
	return result, nil
}

// Ingest runs the transfer for the selected table and columns. It is allowed
// once columns are loaded; a preview is optional. The returned count is the
// backend's, reported as is.
func (c *Controller) Ingest(ctx context.Context) (model.IngestResult, error) {
	snap := c.snapshot()
	if !snap.stage.AtLeast(model.StageColumnsLoaded) {
		return model.IngestResult{}, fmt.Errorf("starting ingestion: %w (stage %s)", ErrStageNotReached, snap.stage)
	}
	if err := snap.session.Validate(model.RoleTarget); err != nil {
		return model.IngestResult{}, c.fail("Ingestion failed", err)
	}

	c.reporter.Status("Starting ingestion...")
	result, err := c.backend.Ingest(ctx, request.BuildIngest(&snap.session, snap.table, snap.columns))
	if err != nil {
		return model.IngestResult{}, c.fail("Ingestion failed", err)
	}

	log.WithFields(log.Fields{
		"direction": snap.session.Direction,
		"table":     snap.table,
		"count":     result.Count,
	}).Info("ingestion completed")
	c.reporter.Status("Ingestion completed!")
	c.reporter.Result(fmt.Sprintf("Successfully processed %d records.", result.Count), false)
	return result, nil
}

// IsLocal reports whether err was raised by a local precondition rather than
// by the backend.
func IsLocal(err error) bool {
	return errors.Is(err, ErrStageNotReached) ||
		errors.Is(err, ErrUnknownTable) ||
		errors.Is(err, ErrUnknownColumn) ||
		errors.Is(err, ErrNoTable)
}
