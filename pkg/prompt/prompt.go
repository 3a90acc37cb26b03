package prompt

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"
)

// PromptVariant is a prompt template that can be loaded from YAML and
// rendered with the workout inputs.
type PromptVariant struct {
	Name        string            `yaml:"name"`
	Description string            `yaml:"description"`
	System      string            `yaml:"system"`
	User        string            `yaml:"user"`
	Metadata    map[string]string `yaml:"metadata"`
}

// Inputs are the three free-text form fields, read when a generation is
// triggered.
type Inputs struct {
	Member       string `json:"member"`
	Routine      string `json:"routine"`
	Requirements string `json:"requirements"`
}

// Vars exposes the inputs to templates as {{.member}}, {{.routine}} and
// {{.requirements}}. An empty member field is replaced with a fixed note so
// the model knows the information is absent.
func (in Inputs) Vars() map[string]interface{} {
	member := in.Member
	if member == "" {
		member = noMemberInfo
	}
	return map[string]interface{}{
		"member":       member,
		"routine":      in.Routine,
		"requirements": in.Requirements,
	}
}

// Load reads a single PromptVariant from a YAML file at path.
func Load(path string) (*PromptVariant, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading prompt file %s: %w", path, err)
	}

	var p PromptVariant
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing prompt file %s: %w", path, err)
	}

	return &p, nil
}

// LoadOrDefault loads the prompt at path, or returns the built-in workout
// log prompt when path is empty.
func LoadOrDefault(path string) (*PromptVariant, error) {
	if path == "" {
		return Default(), nil
	}
	p, err := Load(path)
	if err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate checks that the PromptVariant has the minimum required fields.
func (p *PromptVariant) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("prompt name is required")
	}
	if strings.TrimSpace(p.User) == "" {
		return fmt.Errorf("prompt %q must have a user prompt", p.Name)
	}
	return nil
}

// Interpolate applies Go text/template rendering to the System and User fields
// using the provided variables. It returns a new PromptVariant with the
// rendered strings; the original is not modified.
//
// Template variables use {{.VarName}} syntax. An error is returned if a
// template references a variable not present in vars.
func (p *PromptVariant) Interpolate(vars map[string]interface{}) (*PromptVariant, error) {
	rendered := &PromptVariant{
		Name:        p.Name,
		Description: p.Description,
		Metadata:    p.Metadata,
	}

	var err error
	rendered.System, err = renderTemplate(p.Name+".system", p.System, vars)
	if err != nil {
		return nil, fmt.Errorf("interpolating system prompt for %q: %w", p.Name, err)
	}

	rendered.User, err = renderTemplate(p.Name+".user", p.User, vars)
	if err != nil {
		return nil, fmt.Errorf("interpolating user prompt for %q: %w", p.Name, err)
	}

	return rendered, nil
}

// Render interpolates the workout inputs into the template.
func (p *PromptVariant) Render(in Inputs) (*PromptVariant, error) {
	return p.Interpolate(in.Vars())
}

// renderTemplate parses and executes a Go text/template with "missingkey=error"
// so that undefined variables produce an error instead of empty strings.
func renderTemplate(name, text string, vars map[string]interface{}) (string, error) {
	if text == "" {
		return "", nil
	}

	tmpl, err := template.New(name).Option("missingkey=error").Parse(text)
	if err != nil {
		return "", fmt.Errorf("parsing template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, vars); err != nil {
		return "", fmt.Errorf("executing template: %w", err)
	}

	return buf.String(), nil
}
