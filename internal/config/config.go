package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/tobsdb/tdbview/internal/auth"
	"github.com/tobsdb/tdbview/internal/paging"
	"github.com/tobsdb/tdbview/internal/record"
	"github.com/tobsdb/tdbview/internal/selection"
	"github.com/tobsdb/tdbview/internal/view"
	"github.com/tobsdb/tdbview/pkg"
	"gopkg.in/yaml.v3"
)

type ViewConfig struct {
	PageSize   int  `yaml:"page_size"`
	TrimSearch bool `yaml:"trim_search"`
}

type PolicyConfig struct {
	BulkEditMinSelection int `yaml:"bulk_edit_min_selection"`
}

// SourceConfig picks what a table shows: which fields, how many rows and
// whether every shown column can be edited.
type SourceConfig struct {
	Table    string   `yaml:"table"`
	Fields   []string `yaml:"fields"`
	Limit    int      `yaml:"limit"`
	Editable bool     `yaml:"editable"`
}

type UserConfig struct {
	Name     string        `yaml:"name"`
	Password string        `yaml:"password"`
	Role     auth.UserRole `yaml:"role"`
}

type ServerConfig struct {
	Addr  string       `yaml:"addr"`
	Users []UserConfig `yaml:"users"`
}

type Config struct {
	LogLevel string        `yaml:"log_level"`
	IDField  string        `yaml:"id_field"`
	View     ViewConfig    `yaml:"view"`
	Policy   PolicyConfig  `yaml:"policy"`
	Features view.Features `yaml:"features"`
	Source   SourceConfig  `yaml:"source"`
	Server   ServerConfig  `yaml:"server"`
}

func Default() Config {
	return Config{
		LogLevel: "error",
		IDField:  record.DEFAULT_ID_FIELD,
		View:     ViewConfig{PageSize: paging.DEFAULT_PAGE_SIZE},
		Policy:   PolicyConfig{BulkEditMinSelection: selection.DEFAULT_MIN_BULK},
		Features: view.AllFeatures(),
		Server:   ServerConfig{Addr: ":7085"},
	}
}

// Load reads path over the defaults. An empty path gives the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	buf, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(buf, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	errs := []error{}
	if _, err := pkg.ParseLogLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if c.IDField == "" {
		errs = append(errs, errors.New("id_field cannot be empty"))
	}
	if c.View.PageSize <= 0 {
		errs = append(errs, fmt.Errorf("view.page_size: %w", paging.ErrInvalidPageSize))
	}
	if c.Policy.BulkEditMinSelection < 1 {
		errs = append(errs, errors.New("policy.bulk_edit_min_selection must be at least 1"))
	}
	if c.Source.Limit < 0 {
		errs = append(errs, errors.New("source.limit cannot be negative"))
	}
	for i, u := range c.Server.Users {
		if u.Name == "" {
			errs = append(errs, fmt.Errorf("server.users[%d]: name cannot be empty", i))
		}
		if len(u.Password) > 72 {
			errs = append(errs, fmt.Errorf("server.users[%d]: password is longer than 72 bytes", i))
		}
	}
	return errors.Join(errs...)
}

// ApplyLogLevel sets the process log level from the config.
func (c Config) ApplyLogLevel() error {
	level, err := pkg.ParseLogLevel(c.LogLevel)
	if err != nil {
		return err
	}
	pkg.SetLogLevel(level)
	return nil
}

func (c Config) ViewOptions() view.Options {
	return view.Options{
		Features:   c.Features,
		IDField:    c.IDField,
		PageSize:   c.View.PageSize,
		MinBulk:    c.Policy.BulkEditMinSelection,
		TrimSearch: c.View.TrimSearch,
	}
}

// Columns narrows columns to source.fields, in that order, and marks them
// editable when source.editable is set. Listed fields without a column get
// a plain one.
func (c Config) Columns(columns []record.Column) []record.Column {
	out := columns
	if len(c.Source.Fields) > 0 {
		by_name := pkg.Map[string, record.Column]{}
		for _, col := range columns {
			by_name.Set(col.FieldName, col)
		}
		out = make([]record.Column, 0, len(c.Source.Fields))
		for _, name := range c.Source.Fields {
			col, ok := by_name[name]
			if !ok {
				col = record.Column{FieldName: name}
			}
			out = append(out, col)
		}
	}
	if c.Source.Editable {
		return record.MarkEditable(out)
	}
	return append([]record.Column{}, out...)
}

func (c Config) Users() (auth.Users, error) {
	users := make(auth.Users, 0, len(c.Server.Users))
	for _, u := range c.Server.Users {
		user, err := auth.NewUser(u.Name, u.Password, u.Role)
		if err != nil {
			return nil, fmt.Errorf("user %s: %w", u.Name, err)
		}
		users = append(users, user)
	}
	return users, nil
}
