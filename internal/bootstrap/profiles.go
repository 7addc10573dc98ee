// Package bootstrap ships the guest provisioning profiles: ordered command
// sequences that turn a fresh instance into a usable control node. Profiles
// are compiled into the binary; there is no operator-supplied configuration
// file.
package bootstrap

import (
	"embed"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed assets/*.yaml
var assets embed.FS

// DefaultProfileID is the profile used when the operator does not choose one.
const DefaultProfileID = "ansible-control"

// Step is one guest command, executed as root through the instance shell.
type Step struct {
	Name    string `yaml:"name"`
	Command string `yaml:"command"`
}

// Profile is an ordered sequence of guest steps.
type Profile struct {
	ID          string `yaml:"id"`
	Description string `yaml:"description"`
	Steps       []Step `yaml:"steps"`
}

// Repository holds the embedded profiles, keyed by id.
type Repository struct {
	profiles map[string]Profile
	order    []string
}

// NewRepository parses every embedded profile. A malformed embedded asset is
// a packaging defect and fails construction outright.
func NewRepository() (*Repository, error) {
	entries, err := assets.ReadDir("assets")
	if err != nil {
		return nil, fmt.Errorf("read embedded profiles: %w", err)
	}

	repo := &Repository{profiles: make(map[string]Profile)}
	for _, entry := range entries {
		data, err := assets.ReadFile("assets/" + entry.Name())
		if err != nil {
			return nil, fmt.Errorf("read embedded profile %s: %w", entry.Name(), err)
		}

		var profile Profile
		if err := yaml.Unmarshal(data, &profile); err != nil {
			return nil, fmt.Errorf("parse profile %s: %w", entry.Name(), err)
		}
		if err := validate(profile); err != nil {
			return nil, fmt.Errorf("profile %s: %w", entry.Name(), err)
		}

		repo.profiles[profile.ID] = profile
		repo.order = append(repo.order, profile.ID)
	}

	sort.Strings(repo.order)
	return repo, nil
}

// Get returns the profile with the given id.
func (r *Repository) Get(id string) (Profile, error) {
	profile, ok := r.profiles[id]
	if !ok {
		return Profile{}, fmt.Errorf("unknown bootstrap profile %q (available: %s)", id, strings.Join(r.order, ", "))
	}
	return profile, nil
}

// List returns all profiles in id order.
func (r *Repository) List() []Profile {
	profiles := make([]Profile, 0, len(r.order))
	for _, id := range r.order {
		profiles = append(profiles, r.profiles[id])
	}
	return profiles
}

func validate(profile Profile) error {
	if strings.TrimSpace(profile.ID) == "" {
		return fmt.Errorf("missing id")
	}
	if len(profile.Steps) == 0 {
		return fmt.Errorf("no steps")
	}
	for i, step := range profile.Steps {
		if strings.TrimSpace(step.Command) == "" {
			return fmt.Errorf("step %d (%s) has no command", i+1, step.Name)
		}
	}
	return nil
}
