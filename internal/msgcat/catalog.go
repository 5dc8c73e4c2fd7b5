package msgcat

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"

	yaml "gopkg.in/yaml.v3"
)

//go:embed messages.en.yaml
var defaultFiles embed.FS

const defaultFile = "messages.en.yaml"

// Catalog holds text templates for the screen panels, keyed by dotted path
// ("panel.identity"). Templates are parsed once at load time.
type Catalog struct {
	tpls map[string]*template.Template
}

// New loads the embedded defaults and then applies overrides from dir if provided.
func New(overrideDir string) (*Catalog, error) {
	flat, err := loadEmbedded()
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(overrideDir) != "" {
		over, err := loadDir(overrideDir)
		if err != nil {
			return nil, err
		}
		for k, v := range over {
			flat[k] = v
		}
	}
	c := &Catalog{tpls: make(map[string]*template.Template, len(flat))}
	for k, v := range flat {
		t, err := template.New(k).Option("missingkey=error").Parse(v)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", k, err)
		}
		c.tpls[k] = t
	}
	return c, nil
}

// Default returns the embedded catalog. The embedded file is part of the
// binary, so a failure here is a build defect.
func Default() *Catalog {
	c, err := New("")
	if err != nil {
		panic(err)
	}
	return c
}

func loadEmbedded() (map[string]string, error) {
	raw, err := fs.ReadFile(defaultFiles, defaultFile)
	if err != nil {
		return nil, fmt.Errorf("read embedded messages: %w", err)
	}
	return parseYAMLToFlat(raw)
}

func loadDir(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read template dir: %w", err)
	}
	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		n := e.Name()
		ext := strings.ToLower(filepath.Ext(n))
		if ext == ".yaml" || ext == ".yml" {
			files = append(files, n)
		}
	}
	sort.Strings(files)

	out := make(map[string]string)
	seen := make(map[string]string) // key -> filename
	for _, name := range files {
		b, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		flat, err := parseYAMLToFlat(b)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		for k, v := range flat {
			if prev, ok := seen[k]; ok {
				return nil, fmt.Errorf("duplicate override key %q in %s and %s", k, prev, name)
			}
			seen[k] = name
			out[k] = v
		}
	}
	return out, nil
}

func parseYAMLToFlat(b []byte) (map[string]string, error) {
	var m map[string]any
	if err := yaml.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	flat := make(map[string]string)
	if err := flattenStrings(m, "", flat); err != nil {
		return nil, err
	}
	return flat, nil
}

func flattenStrings(src any, prefix string, out map[string]string) error {
	switch v := src.(type) {
	case map[string]any:
		for k, vv := range v {
			key := k
			if prefix != "" {
				key = prefix + "." + k
			}
			if err := flattenStrings(vv, key, out); err != nil {
				return err
			}
		}
		return nil
	case string:
		if prefix == "" {
			return errors.New("string value without key prefix")
		}
		out[prefix] = v
		return nil
	case nil:
		return nil
	default:
		return fmt.Errorf("unsupported value at %s: %T", prefix, v)
	}
}

// Render executes the template stored under key.
// Missing keys cause errors; callers provide their own fallback.
func (c *Catalog) Render(key string, data any) (string, error) {
	if c == nil {
		return "", fmt.Errorf("template not found: %s", key)
	}
	t, ok := c.tpls[strings.TrimSpace(key)]
	if !ok {
		return "", fmt.Errorf("template not found: %s", key)
	}
	var b strings.Builder
	if err := t.Execute(&b, data); err != nil {
		return "", err
	}
	return b.String(), nil
}
