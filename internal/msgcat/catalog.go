// Package msgcat holds the player-facing text: card names and descriptions,
// result summaries and board captions. Entries are text/template strings
// keyed by dotted path ("cards.polymorph.name").
package msgcat

import (
	_ "embed"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"
	"text/template"

	yaml "gopkg.in/yaml.v3"
)

//go:embed cards.en.yaml
var embedded []byte

// Catalog is immutable once built, so it needs no locking.
type Catalog struct {
	text  map[string]string
	tmpls map[string]*template.Template
}

// New builds the catalog from the embedded English text. When dir is set,
// every *.yaml / *.yml file in it replaces individual entries. An override
// may only name keys the embedded text already has, and two files may not
// set the same key.
func New(dir string) (*Catalog, error) {
	text, err := decode("cards.en.yaml", embedded)
	if err != nil {
		return nil, err
	}
	if dir = strings.TrimSpace(dir); dir != "" {
		if err := overlay(text, os.DirFS(dir)); err != nil {
			return nil, fmt.Errorf("catalog dir %s: %w", dir, err)
		}
	}
	c := &Catalog{text: text, tmpls: make(map[string]*template.Template, len(text))}
	for k, v := range text {
		t, err := template.New(k).Option("missingkey=error").Parse(v)
		if err != nil {
			return nil, fmt.Errorf("catalog key %s: %w", k, err)
		}
		c.tmpls[k] = t
	}
	return c, nil
}

func overlay(text map[string]string, fsys fs.FS) error {
	var files []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		m, err := fs.Glob(fsys, pattern)
		if err != nil {
			return err
		}
		files = append(files, m...)
	}
	sort.Strings(files)

	owner := make(map[string]string)
	for _, name := range files {
		raw, err := fs.ReadFile(fsys, name)
		if err != nil {
			return err
		}
		layer, err := decode(name, raw)
		if err != nil {
			return err
		}
		for k, v := range layer {
			if _, ok := text[k]; !ok {
				return fmt.Errorf("%s: unknown key %q", name, k)
			}
			if prev, ok := owner[k]; ok {
				return fmt.Errorf("key %q set by both %s and %s", k, prev, name)
			}
			owner[k] = name
			text[k] = v
		}
	}
	return nil
}

// decode flattens a YAML mapping into dotted keys. Leaves must be strings.
func decode(name string, raw []byte) (map[string]string, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	out := make(map[string]string)
	if len(doc.Content) == 0 {
		return out, nil
	}
	if err := walk(doc.Content[0], "", out); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return out, nil
}

func walk(n *yaml.Node, prefix string, out map[string]string) error {
	switch n.Kind {
	case yaml.MappingNode:
		for i := 0; i+1 < len(n.Content); i += 2 {
			key := n.Content[i].Value
			if prefix != "" {
				key = prefix + "." + key
			}
			if err := walk(n.Content[i+1], key, out); err != nil {
				return err
			}
		}
		return nil
	case yaml.ScalarNode:
		if prefix == "" {
			return fmt.Errorf("line %d: value without a key", n.Line)
		}
		if n.Tag == "!!null" {
			return nil
		}
		out[prefix] = n.Value
		return nil
	default:
		return fmt.Errorf("line %d: %s must be text", n.Line, prefix)
	}
}

// Text returns a raw entry without executing it.
func (c *Catalog) Text(key string) (string, bool) {
	v, ok := c.text[key]
	return v, ok
}

// Render executes the entry at key. Fields missing from data are errors.
func (c *Catalog) Render(key string, data any) (string, error) {
	t, ok := c.tmpls[key]
	if !ok || strings.TrimSpace(c.text[key]) == "" {
		return "", fmt.Errorf("no catalog entry %s", key)
	}
	var b strings.Builder
	if err := t.Execute(&b, data); err != nil {
		return "", err
	}
	return b.String(), nil
}
