package agent

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const agentConfigYAML = `researcher:
  role: "Senior researcher on {topic}"
  goal: "Produce a factual briefing on {topic}"
  backstory: "Years of digging through primary sources."
  capabilities:
    - research
    - summarize
writer:
  role: "Technical writer"
  goal: "Turn briefings into prose"
  backstory: "Former journalist."
  capabilities:
    - write
`

func writeConfigFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfigsFromFile(t *testing.T) {
	path := writeConfigFile(t, t.TempDir(), "agents.yaml", agentConfigYAML)

	configs, err := LoadConfigsFromFile(path)
	require.NoError(t, err)
	require.Len(t, configs, 2)

	researcher := configs["researcher"]
	assert.Equal(t, "Senior researcher on {topic}", researcher.Role)
	assert.Equal(t, []string{"research", "summarize"}, researcher.Capabilities)
	assert.Equal(t, []string{"write"}, configs["writer"].Capabilities)
}

func TestLoadConfigsFromFileRejectsBadPath(t *testing.T) {
	_, err := LoadConfigsFromFile("")
	assert.Error(t, err)

	_, err = LoadConfigsFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadConfigsFromFileRejectsMalformedYAML(t *testing.T) {
	path := writeConfigFile(t, t.TempDir(), "agents.yaml", "researcher: [not a config")

	_, err := LoadConfigsFromFile(path)
	assert.Error(t, err)
}

func TestLoadConfigsFromDirMergesFiles(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "research.yaml", `researcher:
  role: "Researcher"
  goal: "Research"
  backstory: "Curious"
  capabilities: [research]
`)
	writeConfigFile(t, dir, "writing.yml", `writer:
  role: "Writer"
  goal: "Write"
  backstory: "Wordy"
  capabilities: [write]
`)
	writeConfigFile(t, dir, "notes.txt", "ignored")

	configs, err := LoadConfigsFromDir(dir)
	require.NoError(t, err)
	assert.Len(t, configs, 2)
	assert.Contains(t, configs, "researcher")
	assert.Contains(t, configs, "writer")
}

func TestLoadConfigsFromDirRejectsFile(t *testing.T) {
	path := writeConfigFile(t, t.TempDir(), "agents.yaml", agentConfigYAML)

	_, err := LoadConfigsFromDir(path)
	assert.Error(t, err)
}

func TestFormatSystemPromptFromConfig(t *testing.T) {
	config := Config{
		Role:      "Senior researcher on {topic}",
		Goal:      "Produce a factual briefing on {topic}",
		Backstory: "Years of experience.",
	}

	prompt := FormatSystemPromptFromConfig(config, map[string]string{"topic": "distributed systems"})

	assert.Equal(t, "# Role\nSenior researcher on distributed systems\n\n"+
		"# Goal\nProduce a factual briefing on distributed systems\n\n"+
		"# Backstory\nYears of experience.", prompt)
}

func TestFormatSystemPromptLeavesUnknownPlaceholders(t *testing.T) {
	config := Config{Role: "Researcher on {topic}", Goal: "g", Backstory: "b"}

	prompt := FormatSystemPromptFromConfig(config, nil)
	assert.Contains(t, prompt, "{topic}")
}
