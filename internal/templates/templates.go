// Package templates ships sample projects that can be listed, printed and
// scheduled without writing a file first.
package templates

import (
	"embed"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/joshharrison/critpath/internal/project"
)

//go:embed samples/*.yaml
var samples embed.FS

// Names returns the sample names in sorted order.
func Names() []string {
	entries, err := samples.ReadDir("samples")
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	sort.Strings(names)
	return names
}

// Raw returns the YAML source of a sample.
func Raw(name string) ([]byte, error) {
	data, err := samples.ReadFile(path.Join("samples", name+".yaml"))
	if err != nil {
		return nil, fmt.Errorf("unknown template %q (have %s)", name, strings.Join(Names(), ", "))
	}
	return data, nil
}

// Get returns a sample as a parsed document.
func Get(name string) (*project.Document, error) {
	data, err := Raw(name)
	if err != nil {
		return nil, err
	}
	doc, err := project.Parse(data, project.FormatYAML)
	if err != nil {
		return nil, fmt.Errorf("template %s: %w", name, err)
	}
	return doc, nil
}
