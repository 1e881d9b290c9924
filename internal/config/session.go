package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/KazanKK/flatbridge/internal/model"
)

// Session is the operator-editable configuration of one transfer. It is a
// plain value; callers that need a stable view take a copy.
type Session struct {
	Source    model.SourceKind `yaml:"source"`
	Direction model.Direction  `yaml:"direction"`
	Database  DatabaseInput    `yaml:"clickhouse"`
	File      FileInput        `yaml:"flatfile"`
	Target    TargetInput      `yaml:"target"`
}

type DatabaseInput struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	Database string `yaml:"database"`
	User     string `yaml:"user"`
	Token    string `yaml:"jwt_token"`
	Secure   bool   `yaml:"secure"`
}

type FileInput struct {
	FilePath  string `yaml:"file_path"`
	Delimiter string `yaml:"delimiter"`
}

// TargetInput holds the destination inputs. FilePath is used for database to
// file transfers, Database and Table for file to database transfers.
type TargetInput struct {
	FilePath string `yaml:"file_path"`
	Database string `yaml:"database,omitempty"`
	Table    string `yaml:"table"`
}

// Delimiter returns the flat-file delimiter, defaulting to a comma.
func (s *Session) Delimiter() string {
	if s.File.Delimiter == "" {
		return model.DefaultDelimiter
	}
	return s.File.Delimiter
}

// ActiveConnectionConfig returns the variant that applies to role under the
// current source kind and direction.
func (s *Session) ActiveConnectionConfig(role model.Role) model.ConnectionConfig {
	if role == model.RoleTarget {
		switch s.Direction {
		case model.FileToDatabase:
			db := s.databaseConfig()
			db.Database = s.targetDatabase()
			db.Table = s.Target.Table
			return db
		default:
			return s.targetFile()
		}
	}

	switch s.Source {
	case model.SourceFlatFile:
		return model.FileConfig{FilePath: s.File.FilePath, Delimiter: s.Delimiter()}
	default:
		return s.databaseConfig()
	}
}

// TransferTarget returns the destination of an ingest call. The file part is
// always present; the table part only for file to database transfers.
func (s *Session) TransferTarget() model.TransferTarget {
	target := model.TransferTarget{File: s.targetFile()}
	if s.Direction == model.FileToDatabase {
		target.Table = &model.TargetTable{
			Database: s.targetDatabase(),
			Table:    s.Target.Table,
		}
	}
	return target
}

func (s *Session) databaseConfig() model.DatabaseConfig {
	return model.DatabaseConfig{
		Host:     s.Database.Host,
		Port:     s.Database.Port,
		Database: s.Database.Database,
		User:     s.Database.User,
		Token:    s.Database.Token,
		Secure:   s.Database.Secure,
	}
}

// targetFile shares the delimiter input with the source side.
func (s *Session) targetFile() model.FileConfig {
	return model.FileConfig{FilePath: s.Target.FilePath, Delimiter: s.Delimiter()}
}

func (s *Session) targetDatabase() string {
	if s.Target.Database != "" {
		return s.Target.Database
	}
	return s.Database.Database
}

// Fields lists the names accepted by Set, in display order.
var Fields = []string{
	"source", "direction",
	"host", "port", "database", "user", "token", "secure",
	"file", "delimiter",
	"target-file", "target-database", "target-table",
}

// Set assigns one operator input by name.
func (s *Session) Set(field, value string) error {
	switch field {
	case "source":
		kind, err := model.ParseSourceKind(value)
		if err != nil {
			return err
		}
		s.Source = kind
	case "direction":
		dir, err := model.ParseDirection(value)
		if err != nil {
			return err
		}
		s.Direction = dir
	case "host":
		s.Database.Host = value
	case "port":
		s.Database.Port = value
	case "database":
		s.Database.Database = value
	case "user":
		s.Database.User = value
	case "token", "jwt-token":
		s.Database.Token = value
	case "secure":
		secure, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid value for secure: %q", value)
		}
		s.Database.Secure = secure
	case "file":
		s.File.FilePath = value
	case "delimiter":
		s.File.Delimiter = value
	case "target-file":
		s.Target.FilePath = value
	case "target-database":
		s.Target.Database = value
	case "target-table":
		s.Target.Table = value
	default:
		return fmt.Errorf("unknown field %q (known: %s)", field, strings.Join(Fields, ", "))
	}
	return nil
}
