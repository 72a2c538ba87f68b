package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tobsdb/tdbview/internal/record"
	"gopkg.in/yaml.v3"
)

// Dataset is the on-disk form of a table.
type Dataset struct {
	Name    string          `json:"name" yaml:"name"`
	IDField string          `json:"id_field,omitempty" yaml:"id_field,omitempty"`
	Columns []record.Column `json:"columns" yaml:"columns"`
	Records []record.Record `json:"records" yaml:"records"`
}

func isJSON(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}

func ReadDataset(path string) (*Dataset, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	ds := Dataset{}
	if isJSON(path) {
		dec := json.NewDecoder(bytes.NewReader(buf))
		dec.UseNumber()
		err = dec.Decode(&ds)
	} else {
		err = yaml.Unmarshal(buf, &ds)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse dataset %s: %w", path, err)
	}
	return &ds, nil
}

// LoadDataset builds a table from a YAML or JSON dataset file. Records are
// inserted in file order.
func LoadDataset(path string) (*Table, error) {
	ds, err := ReadDataset(path)
	if err != nil {
		return nil, err
	}
	if ds.Name == "" {
		ds.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	t := NewTable(ds.Name, ds.IDField, ds.Columns)
	for i, rec := range ds.Records {
		if _, err := t.Create(normalizeNumbers(rec)); err != nil {
			return nil, fmt.Errorf("record %d of %s: %w", i, path, err)
		}
	}
	return t, nil
}

// normalizeNumbers turns json.Number values into int or float64.
func normalizeNumbers(rec record.Record) record.Record {
	for k, v := range rec {
		n, ok := v.(json.Number)
		if !ok {
			continue
		}
		if i, err := n.Int64(); err == nil {
			rec[k] = int(i)
		} else if f, err := n.Float64(); err == nil {
			rec[k] = f
		} else {
			rec[k] = n.String()
		}
	}
	return rec
}

func (t *Table) Dataset() *Dataset {
	t.locker.RLock()
	defer t.locker.RUnlock()

	return &Dataset{
		Name:    t.Name,
		IDField: t.IDField,
		Columns: append([]record.Column{}, t.Columns...),
		Records: t.scan(nil, 0),
	}
}

// WriteToFile saves every row, ignoring Limit, in the format the path's
// extension names.
func (t *Table) WriteToFile(path string) error {
	ds := t.Dataset()

	var buf []byte
	var err error
	if isJSON(path) {
		buf, err = json.MarshalIndent(ds, "", "  ")
	} else {
		buf, err = yaml.Marshal(ds)
	}
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "" {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return err
			}
		}
	}
	return os.WriteFile(path, buf, 0644)
}
