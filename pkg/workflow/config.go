package workflow

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/pipewise/maestro/pkg/interfaces"
	"github.com/pipewise/maestro/pkg/resilience"
)

// stepSpec is the YAML shape of a single step descriptor. Dependency tokens
// are heterogeneous (ints, numeric strings, "prev", step names) and are
// parsed into DependencyRef values at load time.
type stepSpec struct {
	Name       string                 `yaml:"name,omitempty"`
	Objective  string                 `yaml:"objective"`
	Agent      string                 `yaml:"agent,omitempty"`
	Priority   string                 `yaml:"priority,omitempty"`
	Parameters map[string]interface{} `yaml:"parameters,omitempty"`
	DependsOn  []interface{}          `yaml:"depends_on,omitempty"`
}

// workflowSpec is the YAML shape of a workflow definition file
type workflowSpec struct {
	Name  string     `yaml:"name"`
	Steps []stepSpec `yaml:"steps"`
}

// LoadFromBytes parses a YAML workflow definition
func LoadFromBytes(data []byte) (*Workflow, error) {
	var spec workflowSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal workflow definition: %w", err)
	}

	wf := New(spec.Name)
	for i, stepDef := range spec.Steps {
		step := Step{
			Name:           stepDef.Name,
			Objective:      stepDef.Objective,
			PreferredAgent: stepDef.Agent,
			Parameters:     stepDef.Parameters,
			Priority:       interfaces.PriorityMedium,
		}

		if stepDef.Priority != "" {
			priority, err := ParsePriority(stepDef.Priority)
			if err != nil {
				return nil, fmt.Errorf("step %d: %w", i, err)
			}
			step.Priority = priority
		}

		for _, token := range stepDef.DependsOn {
			ref, err := ParseDependencyToken(token)
			if err != nil {
				return nil, fmt.Errorf("step %d: %w", i, err)
			}
			step.Dependencies = append(step.Dependencies, ref)
		}

		wf.AddStep(step)
	}

	return wf, nil
}

// LoadFromFile loads a workflow definition from a YAML file
func LoadFromFile(filePath string) (*Workflow, error) {
	if !isValidFilePath(filePath) {
		return nil, fmt.Errorf("invalid file path")
	}

	data, err := os.ReadFile(filePath) // #nosec G304 - Path is validated with isValidFilePath() before use
	if err != nil {
		return nil, fmt.Errorf("failed to read workflow file: %w", err)
	}

	return LoadFromBytes(data)
}

// ParsePriority converts a priority name into the Priority enum
func ParsePriority(name string) (interfaces.Priority, error) {
	switch strings.ToLower(name) {
	case "low":
		return interfaces.PriorityLow, nil
	case "medium":
		return interfaces.PriorityMedium, nil
	case "high":
		return interfaces.PriorityHigh, nil
	case "critical":
		return interfaces.PriorityCritical, nil
	default:
		return interfaces.PriorityMedium, resilience.Newf(resilience.KindValidation, resilience.SeverityMedium,
			"unknown priority %q", name)
	}
}

// isValidFilePath checks if a file path is valid and safe
func isValidFilePath(filePath string) bool {
	if filePath == "" {
		return false
	}

	cleanPath := filepath.Clean(filePath)
	if strings.Contains(cleanPath, "..") {
		return false
	}

	absPath, err := filepath.Abs(cleanPath)
	if err != nil {
		return false
	}

	if strings.HasPrefix(absPath, "/proc") ||
		strings.HasPrefix(absPath, "/sys") ||
		strings.HasPrefix(absPath, "/dev") {
		return false
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return false
	}

	return fileInfo.Mode().IsRegular()
}
