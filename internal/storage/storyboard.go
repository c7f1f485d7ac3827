package storage

import (
	"fmt"
	"os"

	"github.com/san-kum/harmony/internal/storyboard"
	"gopkg.in/yaml.v3"
)

// StoryboardFile is the on-disk form of an authored timeline.
type StoryboardFile struct {
	Name        string                `yaml:"name"`
	Description string                `yaml:"description,omitempty"`
	Preset      string                `yaml:"preset,omitempty"`
	Keyframes   []storyboard.Keyframe `yaml:"keyframes"`
}

func (f *StoryboardFile) Validate() error {
	for i, k := range f.Keyframes {
		if err := k.Validate(); err != nil {
			return fmt.Errorf("keyframe %d: %w", i, err)
		}
	}
	return nil
}

func LoadStoryboard(path string) (*StoryboardFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var f StoryboardFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("storage: storyboard %s: %w", path, err)
	}
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("storage: storyboard %s: %w", path, err)
	}
	return &f, nil
}

func SaveStoryboard(path string, f *StoryboardFile) error {
	if err := f.Validate(); err != nil {
		return err
	}
	data, err := yaml.Marshal(f)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
