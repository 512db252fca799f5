package models

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Transcript is the exported record of one finished playthrough.
type Transcript struct {
	Goal          string         `yaml:"goal"`
	FinishedAt    time.Time      `yaml:"finishedAt"`
	Interventions []Intervention `yaml:"interventions"`
	FinalWorld    WorldState     `yaml:"finalWorld"`
	Result        *GameResult    `yaml:"result,omitempty"`
}

const (
	transcriptExt = ".yaml"
	imageExt      = ".png"
)

// Save writes the transcript to dir/name.yaml, and the final image, if
// there is one, to dir/name.png.
func (t *Transcript) Save(dir, name string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	data, err := yaml.Marshal(t)
	if err != nil {
		return "", fmt.Errorf("marshal transcript: %w", err)
	}

	path := filepath.Join(dir, name+transcriptExt)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", err
	}
	if t.Result != nil && len(t.Result.FinalImage) > 0 {
		if err := os.WriteFile(filepath.Join(dir, name+imageExt), t.Result.FinalImage, 0644); err != nil {
			return path, fmt.Errorf("write final image: %w", err)
		}
	}
	return path, nil
}

func LoadTranscript(dir, name string) (*Transcript, error) {
	data, err := os.ReadFile(filepath.Join(dir, name+transcriptExt))
	if err != nil {
		return nil, err
	}
	var t Transcript
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse transcript %s: %w", name, err)
	}
	return &t, nil
}

// ListTranscripts returns the names of saved transcripts, oldest name first.
func ListTranscripts(dir string) ([]string, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return []string{}, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), transcriptExt) {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), transcriptExt))
	}
	sort.Strings(names)
	return names, nil
}
