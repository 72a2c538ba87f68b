package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/tobsdb/tdbview/internal/auth"
	. "github.com/tobsdb/tdbview/internal/config"
	"github.com/tobsdb/tdbview/internal/record"
	"github.com/tobsdb/tdbview/internal/view"
	"gotest.tools/assert"
)

func writeConfig(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "tdbview.yaml")
	assert.NilError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := Load("")
		assert.NilError(t, err)
		assert.Equal(t, cfg.View.PageSize, 10)
		assert.Equal(t, cfg.Policy.BulkEditMinSelection, 2)
		assert.Equal(t, cfg.IDField, "Id")
		assert.Equal(t, cfg.Features, view.AllFeatures())
		assert.NilError(t, cfg.Validate())
	})

	t.Run("overrides", func(t *testing.T) {
		cfg, err := Load(writeConfig(t, `
log_level: debug
view:
  page_size: 25
features:
  bulk_edit: false
source:
  table: Account
  fields: [Name, Phone]
  limit: 20
server:
  users:
    - {name: admin, password: admin, role: read_write}
    - {name: guest, password: guest}
`))
		assert.NilError(t, err)
		assert.Equal(t, cfg.View.PageSize, 25)
		assert.Equal(t, cfg.Features, view.Features{Navigation: true, RemoteSave: true})
		assert.Equal(t, cfg.Source.Limit, 20)
		assert.Equal(t, cfg.Server.Addr, ":7085")
		assert.Equal(t, cfg.Server.Users[0].Role, auth.UserRoleReadWrite)
		assert.Equal(t, cfg.Server.Users[1].Role, auth.UserRoleReadOnly)

		opts := cfg.ViewOptions()
		assert.Equal(t, opts.PageSize, 25)
		assert.Equal(t, opts.MinBulk, 2)
	})

	t.Run("invalid", func(t *testing.T) {
		_, err := Load(writeConfig(t, "view:\n  page_size: 0\nlog_level: loud\n"))
		assert.ErrorContains(t, err, "page size must be greater than 0")
		assert.ErrorContains(t, err, "unknown log level")

		_, err = Load(writeConfig(t, "server:\n  users:\n    - {name: a, role: owner}\n"))
		assert.ErrorContains(t, err, "unknown user role")

		_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.Assert(t, err != nil)
	})
}

func TestColumns(t *testing.T) {
	columns := []record.Column{
		{FieldName: "Id"},
		{FieldName: "Name", Label: "Account Name"},
		{FieldName: "Phone"},
	}

	cfg := Default()
	assert.DeepEqual(t, cfg.Columns(columns), columns)

	cfg.Source.Fields = []string{"Phone", "Name", "Industry"}
	cfg.Source.Editable = true
	assert.DeepEqual(t, cfg.Columns(columns), []record.Column{
		{FieldName: "Phone", Editable: true},
		{FieldName: "Name", Label: "Account Name", Editable: true},
		{FieldName: "Industry", Editable: true},
	})
}

func TestUsers(t *testing.T) {
	cfg := Default()
	cfg.Server.Users = []UserConfig{{Name: "admin", Password: "admin", Role: auth.UserRoleReadWrite}}
	users, err := cfg.Users()
	assert.NilError(t, err)
	u, err := users.Authenticate("admin", "admin")
	assert.NilError(t, err)
	assert.Equal(t, u.Role, auth.UserRoleReadWrite)
}
