// Package stylesheet renders the Tailwind build configuration used by the
// Hermes Link templates.
package stylesheet

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"

	"github.com/hermeslink/hlink-backup/internal/config"
)

var configTemplate = template.Must(template.New("tailwind").Funcs(template.FuncMap{
	"js": jsString,
}).Parse(`/** @type {import('tailwindcss').Config} */
module.exports = {
  content: [
{{- range .Content}}
    {{js .}},
{{- end}}
  ],
  safelist: [
{{- range .Safelist}}
    {{js .}},
{{- end}}
  ],
  theme: {
    extend: {
{{- if .Shadows}}
      boxShadow: {
{{- range .Shadows}}
        {{js .Name}}: {{js .Value}},
{{- end}}
      },
{{- end}}
    },
  },
  plugins: [],
}
`))

type view struct {
	Content  []string
	Safelist []string
	Shadows  []config.Shadow
}

// jsString quotes s as a JSON string, which is also a valid JavaScript
// string literal for any input.
func jsString(s string) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// Render writes tailwind.config.js for cfg. The output only depends on the
// set of safelist entries and shadows, not on their order.
func Render(w io.Writer, cfg *config.StylesheetConfig) error {
	v, err := prepare(cfg)
	if err != nil {
		return err
	}
	if err := configTemplate.Execute(w, v); err != nil {
		return fmt.Errorf("render stylesheet config: %w", err)
	}
	return nil
}

// WriteFile renders into a temporary file next to path and renames it over
// path once complete.
func WriteFile(path string, cfg *config.StylesheetConfig) error {
	var buf bytes.Buffer
	if err := Render(&buf, cfg); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".tailwind-*.js")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", tmp.Name(), err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return fmt.Errorf("failed to chmod %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move config into place: %w", err)
	}
	return nil
}

func prepare(cfg *config.StylesheetConfig) (*view, error) {
	if len(cfg.Content) == 0 {
		return nil, fmt.Errorf("stylesheet: at least one content glob is required")
	}

	v := &view{Content: cfg.Content}

	seen := make(map[string]bool, len(cfg.Safelist))
	for i, class := range cfg.Safelist {
		class = strings.TrimSpace(class)
		if class == "" {
			return nil, fmt.Errorf("stylesheet: safelist entry %d is empty", i)
		}
		if seen[class] {
			continue
		}
		seen[class] = true
		v.Safelist = append(v.Safelist, class)
	}
	sort.Strings(v.Safelist)

	names := make(map[string]bool, len(cfg.BoxShadow))
	for i, sh := range cfg.BoxShadow {
		if strings.TrimSpace(sh.Name) == "" {
			return nil, fmt.Errorf("stylesheet: box shadow %d has no name", i)
		}
		if strings.TrimSpace(sh.Value) == "" {
			return nil, fmt.Errorf("stylesheet: box shadow %q has no value", sh.Name)
		}
		if names[sh.Name] {
			return nil, fmt.Errorf("stylesheet: box shadow %q is declared twice", sh.Name)
		}
		names[sh.Name] = true
		v.Shadows = append(v.Shadows, sh)
	}
	sort.Slice(v.Shadows, func(i, j int) bool { return v.Shadows[i].Name < v.Shadows[j].Name })

	return v, nil
}
