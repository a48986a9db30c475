// Package catalog loads list definitions: an index of list ids and, per
// list, an ordered array of item labels.
//
// Layout of the source filesystem:
//
//	index.json          ["fruits", "board-games"]
//	lists/fruits.json   ["Apple", "Green Apple", "Mango"]
//
// List files may also be YAML (.yaml or .yml).
package catalog

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/agnivade/levenshtein"
	"gopkg.in/yaml.v3"

	"github.com/okian/pairwise/internal/domain/model"
)

const (
	indexFile = "index.json"
	listsDir  = "lists"

	// maxSuggestDistance bounds how different a suggestion may be.
	maxSuggestDistance = 3
)

var listExtensions = []string{".json", ".yaml", ".yml"}

// Catalog reads lists from a filesystem.
type Catalog struct {
	fsys fs.FS
}

// New returns a Catalog over fsys.
func New(fsys fs.FS) *Catalog {
	return &Catalog{fsys: fsys}
}

// Lists returns the list index. Without an index file the lists directory
// is scanned instead, sorted by id.
func (c *Catalog) Lists(ctx context.Context) ([]model.ListInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ids, err := c.indexIDs()
	if err != nil {
		return nil, err
	}
	infos := make([]model.ListInfo, 0, len(ids))
	for _, id := range ids {
		infos = append(infos, model.ListInfo{ID: id, Label: DisplayName(id)})
	}
	return infos, nil
}

// Load reads one list and derives unique item ids from its labels.
func (c *Catalog) Load(ctx context.Context, id string) (model.List, error) {
	if err := ctx.Err(); err != nil {
		return model.List{}, err
	}
	if !validID(id) {
		return model.List{}, fmt.Errorf("%q: %w", id, ErrInvalidID)
	}

	raw, name, err := c.readList(id)
	if err != nil {
		return model.List{}, err
	}

	var labels []string
	if err := yaml.Unmarshal(raw, &labels); err != nil {
		return model.List{}, fmt.Errorf("%s: %v: %w", name, err, ErrParse)
	}
	if len(labels) == 0 {
		return model.List{}, fmt.Errorf("list %q does not contain any items: %w", id, ErrParse)
	}

	seen := make(map[string]struct{}, len(labels))
	items := make([]model.Item, 0, len(labels))
	for i, label := range labels {
		trimmed := strings.TrimSpace(label)
		if trimmed == "" {
			return model.List{}, fmt.Errorf("item %d in list %q is empty: %w", i, id, ErrParse)
		}
		slug := Slugify(trimmed)
		if slug == "" {
			slug = "item-" + strconv.Itoa(i)
		}
		items = append(items, model.Item{ID: uniqueID(seen, slug), Label: trimmed})
	}

	return model.List{
		Info:  model.ListInfo{ID: id, Label: DisplayName(id)},
		Items: items,
	}, nil
}

// Suggest returns the known list id closest to id, if any is close enough.
func (c *Catalog) Suggest(ctx context.Context, id string) (string, bool) {
	infos, err := c.Lists(ctx)
	if err != nil {
		return "", false
	}
	best, bestDist := "", maxSuggestDistance+1
	for _, info := range infos {
		d := levenshtein.ComputeDistance(strings.ToLower(id), strings.ToLower(info.ID))
		if d < bestDist {
			best, bestDist = info.ID, d
		}
	}
	return best, best != ""
}

func (c *Catalog) indexIDs() ([]string, error) {
	raw, err := fs.ReadFile(c.fsys, indexFile)
	switch {
	case err == nil:
		var ids []string
		if err := yaml.Unmarshal(raw, &ids); err != nil {
			return nil, fmt.Errorf("%s: %v: %w", indexFile, err, ErrParse)
		}
		return ids, nil
	case errors.Is(err, fs.ErrNotExist):
		return c.scanIDs()
	default:
		return nil, fmt.Errorf("read %s: %w", indexFile, err)
	}
}

func (c *Catalog) scanIDs() ([]string, error) {
	entries, err := fs.ReadDir(c.fsys, listsDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan %s: %w", listsDir, err)
	}
	seen := make(map[string]struct{})
	var ids []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := path.Ext(e.Name())
		if !hasListExtension(ext) {
			continue
		}
		id := strings.TrimSuffix(e.Name(), ext)
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (c *Catalog) readList(id string) ([]byte, string, error) {
	for _, ext := range listExtensions {
		name := path.Join(listsDir, id+ext)
		raw, err := fs.ReadFile(c.fsys, name)
		if err == nil {
			return raw, name, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, name, fmt.Errorf("read %s: %w", name, err)
		}
	}
	return nil, "", fmt.Errorf("%q: %w", id, ErrNotFound)
}

func hasListExtension(ext string) bool {
	for _, e := range listExtensions {
		if e == ext {
			return true
		}
	}
	return false
}

// validID rejects ids that could escape the lists directory.
func validID(id string) bool {
	return id != "" && id != "." && id != ".." && !strings.ContainsAny(id, `/\`) && fs.ValidPath(id)
}
