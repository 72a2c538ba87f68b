package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/tobsdb/tdbview/internal/mutation"
	"github.com/tobsdb/tdbview/internal/query"
	"github.com/tobsdb/tdbview/internal/record"
	"github.com/tobsdb/tdbview/internal/view"
	"gopkg.in/yaml.v3"
)

type sortStep struct {
	Field     string `yaml:"field"`
	Direction string `yaml:"direction"`
}

// scriptStep is one controller operation. Exactly one field is expected to
// be set; the first one found in declaration order runs.
type scriptStep struct {
	Refresh      bool                        `yaml:"refresh"`
	Search       *string                     `yaml:"search"`
	Sort         *sortStep                   `yaml:"sort"`
	NextPage     bool                        `yaml:"next_page"`
	PreviousPage bool                        `yaml:"previous_page"`
	PageSize     int                         `yaml:"page_size"`
	Select       *[]record.ID                `yaml:"select"`
	OpenEdit     record.ID                   `yaml:"open_edit"`
	OpenBulkEdit bool                        `yaml:"open_bulk_edit"`
	OpenCreate   bool                        `yaml:"open_create"`
	Set          record.Fields               `yaml:"set"`
	Commit       bool                        `yaml:"commit"`
	Cancel       bool                        `yaml:"cancel"`
	Delete       record.ID                   `yaml:"delete"`
	SaveInline   map[record.ID]record.Fields `yaml:"save_inline"`
	OpenRecord   record.ID                   `yaml:"open_record"`
}

type script struct {
	Steps []scriptStep `yaml:"steps"`
}

func readScript(path string) (*script, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s := script{}
	if err := yaml.Unmarshal(buf, &s); err != nil {
		return nil, fmt.Errorf("failed to parse script %s: %w", path, err)
	}
	return &s, nil
}

type scriptRunner struct {
	ctrl *view.Controller
	out  io.Writer
	// failed counts steps that were refused or whose mutation failed
	failed int
}

func (r *scriptRunner) run(ctx context.Context, s *script) error {
	for i, step := range s.Steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		name, snap, pending, err := r.apply(ctx, step)
		fmt.Fprintf(r.out, "#%d %s\n", i+1, name)
		if err != nil {
			r.failed++
			fmt.Fprintln(r.out, errorStyle.Render(err.Error()))
			continue
		}
		if pending != nil {
			res, err := pending.Wait(ctx)
			if err != nil {
				return err
			}
			if !res.OK {
				r.failed++
			}
			renderResult(r.out, res)
			snap = r.ctrl.Snapshot()
		}
		renderSnapshot(r.out, snap)
	}
	r.ctrl.Wait()
	return nil
}

func (r *scriptRunner) apply(ctx context.Context, step scriptStep) (string, view.Snapshot, *mutation.Pending, error) {
	c := r.ctrl
	switch {
	case step.Refresh:
		snap, err := c.Refresh(ctx)
		return "refresh", snap, nil, err
	case step.Search != nil:
		return fmt.Sprintf("search %q", *step.Search), c.Search(*step.Search), nil, nil
	case step.Sort != nil:
		dir, err := query.ParseDirection(step.Sort.Direction)
		if err != nil {
			return "sort", view.Snapshot{}, nil, err
		}
		return fmt.Sprintf("sort %s %s", step.Sort.Field, dir), c.Sort(step.Sort.Field, dir), nil, nil
	case step.NextPage:
		return "next page", c.NextPage(), nil, nil
	case step.PreviousPage:
		return "previous page", c.PreviousPage(), nil, nil
	case step.PageSize != 0:
		snap, err := c.SetPageSize(step.PageSize)
		return fmt.Sprintf("page size %d", step.PageSize), snap, nil, err
	case step.Select != nil:
		return fmt.Sprintf("select %v", *step.Select), c.SelectRows(*step.Select), nil, nil
	case step.OpenEdit != "":
		snap, err := c.OpenEdit(step.OpenEdit)
		return "edit " + step.OpenEdit.String(), snap, nil, err
	case step.OpenBulkEdit:
		snap, err := c.OpenBulkEdit()
		return "bulk edit", snap, nil, err
	case step.OpenCreate:
		snap, err := c.OpenCreate()
		return "create", snap, nil, err
	case step.Set != nil:
		keys := step.Set.Keys()
		slices.Sort(keys)
		for _, k := range keys {
			applied, err := c.SetEditField(k, step.Set[k])
			if err != nil {
				return "set", view.Snapshot{}, nil, err
			}
			if !applied {
				fmt.Fprintln(r.out, infoStyle.Render(fmt.Sprintf("%s is not editable here", k)))
			}
		}
		return fmt.Sprintf("set %v", keys), c.Snapshot(), nil, nil
	case step.Commit:
		p, err := c.CommitEdit(ctx)
		return "commit", view.Snapshot{}, p, err
	case step.Cancel:
		return "cancel", c.CancelEdit(), nil, nil
	case step.Delete != "":
		p, err := c.RequestDelete(ctx, step.Delete)
		return "delete " + step.Delete.String(), view.Snapshot{}, p, err
	case step.SaveInline != nil:
		p, err := c.SaveInline(ctx, step.SaveInline)
		return "save inline", view.Snapshot{}, p, err
	case step.OpenRecord != "":
		return "open " + step.OpenRecord.String(), c.Snapshot(), nil, c.OpenRecord(step.OpenRecord)
	}
	return "noop", c.Snapshot(), nil, nil
}
