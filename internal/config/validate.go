package config

import (
	"fmt"
	"strings"

	"github.com/KazanKK/flatbridge/internal/model"
)

// MissingFieldsError lists required inputs that are empty. Presence is the
// only local check; anything else is left to the backend.
type MissingFieldsError struct {
	Role   model.Role
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return fmt.Sprintf("missing required %s fields: %s", e.Role, strings.Join(e.Fields, ", "))
}

// Validate checks that every required input of role is present.
func (s *Session) Validate(role model.Role) error {
	var missing []string
	require := func(name, value string) {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}

	switch cfg := s.ActiveConnectionConfig(role).(type) {
	case model.DatabaseConfig:
		if role == model.RoleTarget {
			require("target-database", cfg.Database)
			require("target-table", cfg.Table)
			break
		}
		require("host", cfg.Host)
		require("port", cfg.Port)
		require("database", cfg.Database)
		require("user", cfg.User)
	case model.FileConfig:
		if role == model.RoleTarget {
			require("target-file", cfg.FilePath)
			break
		}
		require("file", cfg.FilePath)
	}

	if len(missing) > 0 {
		return &MissingFieldsError{Role: role, Fields: missing}
	}
	return nil
}
