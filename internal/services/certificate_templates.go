package services

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed certificate_templates.yaml
var defaultCertificateTemplatesYAML []byte

type CertificateTemplate struct {
	Name  string `yaml:"name" json:"name"`
	Title string `yaml:"title" json:"title"`
	Body  string `yaml:"body" json:"body"`
}

type yamlTemplateCatalog struct {
	Version   int                   `yaml:"version"`
	Default   string                `yaml:"default"`
	Templates []CertificateTemplate `yaml:"templates"`
}

// TemplateCatalog is an immutable set of certificate templates keyed by name.
type TemplateCatalog struct {
	def       string
	templates map[string]CertificateTemplate
}

// LoadTemplateCatalog reads path when set, otherwise the embedded catalog.
func LoadTemplateCatalog(path string) (*TemplateCatalog, error) {
	data := defaultCertificateTemplatesYAML
	if p := strings.TrimSpace(path); p != "" {
		b, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read certificate templates: %w", err)
		}
		data = b
	}
	return ParseTemplateCatalog(data)
}

func ParseTemplateCatalog(data []byte) (*TemplateCatalog, error) {
	var raw yamlTemplateCatalog
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse certificate templates: %w", err)
	}
	if len(raw.Templates) == 0 {
		return nil, errors.New("certificate templates: none defined")
	}
	cat := &TemplateCatalog{templates: make(map[string]CertificateTemplate, len(raw.Templates))}
	for _, t := range raw.Templates {
		t.Name = strings.TrimSpace(t.Name)
		if t.Name == "" {
			return nil, errors.New("certificate templates: template without name")
		}
		if _, dup := cat.templates[t.Name]; dup {
			return nil, fmt.Errorf("certificate templates: duplicate %q", t.Name)
		}
		cat.templates[t.Name] = t
	}
	cat.def = strings.TrimSpace(raw.Default)
	if cat.def == "" {
		cat.def = raw.Templates[0].Name
	}
	if _, ok := cat.templates[cat.def]; !ok {
		return nil, fmt.Errorf("certificate templates: default %q not defined", cat.def)
	}
	return cat, nil
}

// Get returns the named template; an empty name selects the default.
func (c *TemplateCatalog) Get(name string) (CertificateTemplate, bool) {
	if c == nil {
		return CertificateTemplate{}, false
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = c.def
	}
	t, ok := c.templates[name]
	return t, ok
}

func (c *TemplateCatalog) Names() []string {
	if c == nil {
		return nil
	}
	out := make([]string, 0, len(c.templates))
	for n := range c.templates {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
