// Package request turns a session configuration into the payloads of the
// ingestion backend. Everything here is pure: no I/O, no shared state.
//
// Payloads name their configs by role (Source, Target). The wire names
// clickHouseConfig and flatFileConfig only appear in MarshalJSON.
package request

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/KazanKK/flatbridge/internal/config"
	"github.com/KazanKK/flatbridge/internal/model"
)

// emptyObject marshals as {} and fills the inactive config slot.
type emptyObject struct{}

// Connect is the body of POST /api/connect.
type Connect struct {
	Source model.ConnectionConfig
}

func (c Connect) MarshalJSON() ([]byte, error) {
	db, file, err := splitByKind(c.Source)
	if err != nil {
		return nil, err
	}
	return json.Marshal(struct {
		SourceType       model.SourceKind `json:"sourceType"`
		ClickHouseConfig any              `json:"clickHouseConfig"`
		FlatFileConfig   any              `json:"flatFileConfig"`
	}{c.Source.Kind(), db, file})
}

// Preview is the body of POST /api/preview.
type Preview struct {
	Table   string
	Columns []string
	Source  model.ConnectionConfig
}

func (p Preview) MarshalJSON() ([]byte, error) {
	db, file, err := splitByKind(p.Source)
	if err != nil {
		return nil, err
	}
	return json.Marshal(struct {
		SourceType       model.SourceKind `json:"sourceType"`
		Table            string           `json:"table"`
		Columns          []string         `json:"columns"`
		ClickHouseConfig any              `json:"clickHouseConfig"`
		FlatFileConfig   any              `json:"flatFileConfig"`
	}{p.Source.Kind(), p.Table, nonNil(p.Columns), db, file})
}

// Ingest is the body of POST /api/ingest. The backend reads the source
// connection from clickHouseConfig and the destination from flatFileConfig,
// whatever their kinds.
type Ingest struct {
	Direction model.Direction
	Table     string
	Columns   []string
	Source    model.ConnectionConfig
	Target    model.TransferTarget
}

type wireTarget struct {
	FilePath  string  `json:"filePath"`
	Delimiter string  `json:"delimiter"`
	Database  *string `json:"database,omitempty"`
	Table     *string `json:"table,omitempty"`
}

func (i Ingest) MarshalJSON() ([]byte, error) {
	if i.Source == nil {
		return nil, fmt.Errorf("ingest request has no source config")
	}
	target := wireTarget{
		FilePath:  i.Target.File.FilePath,
		Delimiter: i.Target.File.Delimiter,
	}
	if i.Target.Table != nil {
		database, table := i.Target.Table.Database, i.Target.Table.Table
		target.Database = &database
		target.Table = &table
	}
	return json.Marshal(struct {
		Direction        model.Direction        `json:"direction"`
		Table            string                 `json:"table"`
		Columns          []string               `json:"columns"`
		ClickHouseConfig model.ConnectionConfig `json:"clickHouseConfig"`
		FlatFileConfig   wireTarget             `json:"flatFileConfig"`
	}{i.Direction, i.Table, nonNil(i.Columns), i.Source, target})
}

// splitByKind places cfg in its slot and fills the other with {}.
func splitByKind(cfg model.ConnectionConfig) (db, file any, err error) {
	switch v := cfg.(type) {
	case model.DatabaseConfig:
		return v, emptyObject{}, nil
	case model.FileConfig:
		return emptyObject{}, v, nil
	}
	return nil, nil, fmt.Errorf("unsupported connection config %T", cfg)
}

func nonNil(columns []string) []string {
	if columns == nil {
		return []string{}
	}
	return columns
}

// BuildConnect builds the connect body for the session's source.
func BuildConnect(s *config.Session) Connect {
	return Connect{Source: s.ActiveConnectionConfig(model.RoleSource)}
}

// TablesQuery builds the query of GET /api/tables. Only database sources
// have tables to list.
func TablesQuery(s *config.Session) (url.Values, error) {
	db, ok := s.ActiveConnectionConfig(model.RoleSource).(model.DatabaseConfig)
	if !ok {
		return nil, fmt.Errorf("listing tables requires a %s source, have %s", model.SourceDatabase, s.Source)
	}
	q := url.Values{}
	q.Set("sourceType", model.SourceDatabase.String())
	addDatabaseParams(q, db)
	return q, nil
}

// ColumnsQuery builds the query of GET /api/columns for table.
func ColumnsQuery(s *config.Session, table string) url.Values {
	q := url.Values{}
	q.Set("sourceType", s.Source.String())
	q.Set("table", table)

	switch cfg := s.ActiveConnectionConfig(model.RoleSource).(type) {
	case model.DatabaseConfig:
		addDatabaseParams(q, cfg)
	case model.FileConfig:
		q.Set("filePath", cfg.FilePath)
		q.Set("delimiter", cfg.Delimiter)
	}
	return q
}

func addDatabaseParams(q url.Values, db model.DatabaseConfig) {
	q.Set("host", db.Host)
	q.Set("port", db.Port)
	q.Set("database", db.Database)
	q.Set("user", db.User)
	q.Set("jwtToken", db.Token)
	q.Set("secure", strconv.FormatBool(db.Secure))
}

// BuildPreview builds the preview body. columns must already be ordered.
func BuildPreview(s *config.Session, table string, columns []string) Preview {
	return Preview{
		Table:   table,
		Columns: append([]string{}, columns...),
		Source:  s.ActiveConnectionConfig(model.RoleSource),
	}
}

// BuildIngest builds the ingest body for the session's direction.
func BuildIngest(s *config.Session, table string, columns []string) Ingest {
	return Ingest{
		Direction: s.Direction,
		Table:     table,
		Columns:   append([]string{}, columns...),
		Source:    s.ActiveConnectionConfig(model.RoleSource),
		Target:    s.TransferTarget(),
	}
}
