package agent

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents the configuration for an agent loaded from YAML
type Config struct {
	Role         string   `yaml:"role"`
	Goal         string   `yaml:"goal"`
	Backstory    string   `yaml:"backstory"`
	Capabilities []string `yaml:"capabilities"`
}

// Configs represents a map of agent configurations keyed by agent name
type Configs map[string]Config

// LoadConfigsFromFile loads agent configurations from a YAML file
func LoadConfigsFromFile(filePath string) (Configs, error) {
	if !isValidFilePath(filePath) {
		return nil, fmt.Errorf("invalid file path")
	}

	data, err := os.ReadFile(filePath) // #nosec G304 - Path is validated with isValidFilePath() before use
	if err != nil {
		return nil, fmt.Errorf("failed to read agent config file: %w", err)
	}

	var configs Configs
	if err := yaml.Unmarshal(data, &configs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal agent configs: %w", err)
	}

	return configs, nil
}

// LoadConfigsFromDir loads all agent configurations from YAML files in a
// directory, merging them by agent name
func LoadConfigsFromDir(dirPath string) (Configs, error) {
	dirInfo, err := os.Stat(dirPath)
	if err != nil {
		return nil, fmt.Errorf("failed to access directory: %w", err)
	}
	if !dirInfo.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", dirPath)
	}

	files, err := os.ReadDir(dirPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read agent config directory: %w", err)
	}

	configs := make(Configs)
	for _, file := range files {
		if file.IsDir() || (!strings.HasSuffix(file.Name(), ".yaml") && !strings.HasSuffix(file.Name(), ".yml")) {
			continue
		}

		filePath := filepath.Join(dirPath, file.Name())
		if !isValidFilePath(filePath) {
			continue // Skip invalid files but don't fail completely
		}

		fileConfigs, err := LoadConfigsFromFile(filePath)
		if err != nil {
			return nil, fmt.Errorf("failed to load agent configs from %s: %w", filePath, err)
		}

		for name, config := range fileConfigs {
			configs[name] = config
		}
	}

	return configs, nil
}

// FormatSystemPromptFromConfig renders a config into a system prompt,
// substituting {variable} placeholders
func FormatSystemPromptFromConfig(config Config, variables map[string]string) string {
	role := config.Role
	goal := config.Goal
	backstory := config.Backstory

	for key, value := range variables {
		placeholder := fmt.Sprintf("{%s}", key)
		role = strings.ReplaceAll(role, placeholder, value)
		goal = strings.ReplaceAll(goal, placeholder, value)
		backstory = strings.ReplaceAll(backstory, placeholder, value)
	}

	return fmt.Sprintf("# Role\n%s\n\n# Goal\n%s\n\n# Backstory\n%s", role, goal, backstory)
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
