package templates

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"sync"
)

//go:embed files
var embedded embed.FS

type Manager struct {
	fsys  fs.FS
	mu    sync.Mutex
	cache map[string]*template.Template
}

// NewManager loads templates from fsys, or from the embedded set when fsys is nil.
func NewManager(fsys fs.FS) *Manager {
	if fsys == nil {
		sub, err := fs.Sub(embedded, "files")
		if err != nil {
			panic(err)
		}
		fsys = sub
	}
	return &Manager{
		fsys:  fsys,
		cache: make(map[string]*template.Template),
	}
}

func (m *Manager) Render(templateName string, data interface{}) (string, error) {
	m.mu.Lock()
	tmpl, ok := m.cache[templateName]
	if !ok {
		var err error
		tmpl, err = template.ParseFS(m.fsys, templateName)
		if err != nil {
			m.mu.Unlock()
			return "", fmt.Errorf("failed to parse template %s: %w", templateName, err)
		}
		m.cache[templateName] = tmpl
	}
	m.mu.Unlock()

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", templateName, err)
	}

	return buf.String(), nil
}
