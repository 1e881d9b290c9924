// Package model holds the types shared by the configuration model, the request
// builder, the remote client and the workflow controller.
package model

import (
	"fmt"
	"strings"
)

// DefaultDelimiter is used for every flat-file config whose delimiter is unset.
const DefaultDelimiter = ","

// FlatFileTable is the single synthetic table of a flat-file source.
const (
	FlatFileTable      = "file_data"
	FlatFileTableLabel = "File Data"
)

// SourceKind selects the backend data is read from.
type SourceKind int

const (
	SourceDatabase SourceKind = iota
	SourceFlatFile
)

func (k SourceKind) String() string {
	switch k {
	case SourceDatabase:
		return "clickhouse"
	case SourceFlatFile:
		return "flatfile"
	}
	return fmt.Sprintf("SourceKind(%d)", int(k))
}

// ParseSourceKind accepts the wire names and a few operator-friendly aliases.
func ParseSourceKind(s string) (SourceKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "clickhouse", "database", "db":
		return SourceDatabase, nil
	case "flatfile", "file", "csv":
		return SourceFlatFile, nil
	}
	return 0, fmt.Errorf("unknown source type %q (want clickhouse or flatfile)", s)
}

func (k SourceKind) MarshalText() ([]byte, error) {
	switch k {
	case SourceDatabase, SourceFlatFile:
		return []byte(k.String()), nil
	}
	return nil, fmt.Errorf("invalid source kind %d", int(k))
}

func (k *SourceKind) UnmarshalText(text []byte) error {
	parsed, err := ParseSourceKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Direction is the direction of a transfer.
type Direction int

const (
	DatabaseToFile Direction = iota
	FileToDatabase
)

func (d Direction) String() string {
	switch d {
	case DatabaseToFile:
		return "clickhouse_to_flatfile"
	case FileToDatabase:
		return "flatfile_to_clickhouse"
	}
	return fmt.Sprintf("Direction(%d)", int(d))
}

func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "clickhouse_to_flatfile", "db-to-file", "to-file":
		return DatabaseToFile, nil
	case "flatfile_to_clickhouse", "file-to-db", "to-db":
		return FileToDatabase, nil
	}
	return 0, fmt.Errorf("unknown direction %q (want clickhouse_to_flatfile or flatfile_to_clickhouse)", s)
}

func (d Direction) MarshalText() ([]byte, error) {
	switch d {
	case DatabaseToFile, FileToDatabase:
		return []byte(d.String()), nil
	}
	return nil, fmt.Errorf("invalid direction %d", int(d))
}

func (d *Direction) UnmarshalText(text []byte) error {
	parsed, err := ParseDirection(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Role distinguishes the two sides of a transfer.
type Role int

const (
	RoleSource Role = iota
	RoleTarget
)

func (r Role) String() string {
	if r == RoleTarget {
		return "target"
	}
	return "source"
}

// ConnectionConfig is either a DatabaseConfig or a FileConfig.
type ConnectionConfig interface {
	Kind() SourceKind
	connectionConfig()
}

// DatabaseConfig holds ClickHouse connection parameters. Table is only set on
// the target side of a file to database transfer.
type DatabaseConfig struct {
	Host     string `json:"host"`
	Port     string `json:"port"`
	Database string `json:"database"`
	User     string `json:"user"`
	Token    string `json:"jwtToken"`
	Secure   bool   `json:"secure"`
	Table    string `json:"table,omitempty"`
}

func (DatabaseConfig) Kind() SourceKind { return SourceDatabase }
func (DatabaseConfig) connectionConfig() {}

// FileConfig holds flat-file parameters.
type FileConfig struct {
	FilePath  string `json:"filePath"`
	Delimiter string `json:"delimiter"`
}

func (FileConfig) Kind() SourceKind { return SourceFlatFile }
func (FileConfig) connectionConfig() {}

// TransferTarget is the destination side of an ingest call. Table is nil unless
// the transfer writes into the database.
type TransferTarget struct {
	File  FileConfig
	Table *TargetTable
}

type TargetTable struct {
	Database string
	Table    string
}

// TableOption is one entry of the table selector.
type TableOption struct {
	Handle string
	Label  string
}

// ColumnDescriptor describes a discovered column.
type ColumnDescriptor struct {
	Name string `json:"name"`
	Type string `json:"type"` // as reported by the source (e.g. Int64, String)
}

// IngestResult is the record count reported by the remote service.
type IngestResult struct {
	Count int `json:"count"`
}
