package cmd

import (
	"strings"

	"github.com/tasklab/automation/pkg/persistence"
	"github.com/tasklab/automation/pkg/persistence/file"
)

// NewPersistence builds a store from a database URL. Only the file
// provider ships today; the scheme prefix keeps the door open for
// others without changing the flag surface.
func NewPersistence(databaseURL string) persistence.Persistence {
	root := strings.TrimPrefix(databaseURL, "file://")

	return file.NewPersistence(root)
}
