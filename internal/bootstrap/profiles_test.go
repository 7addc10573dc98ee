package bootstrap

import (
	"strings"
	"testing"
)

func TestRepositoryHasProfiles(t *testing.T) {
	repo, err := NewRepository()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.List()) == 0 {
		t.Fatal("expected at least one embedded profile")
	}
}

func TestDefaultProfileInstallsAnsible(t *testing.T) {
	repo, err := NewRepository()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	profile, err := repo.Get(DefaultProfileID)
	if err != nil {
		t.Fatalf("default profile missing: %v", err)
	}

	var sawPython, sawAnsible bool
	for _, step := range profile.Steps {
		if strings.Contains(step.Command, "python3") {
			sawPython = true
		}
		if strings.Contains(step.Command, "ansible") {
			sawAnsible = true
		}
	}
	if !sawPython || !sawAnsible {
		t.Errorf("default profile must install python and ansible, steps: %+v", profile.Steps)
	}
}

func TestGetUnknownProfile(t *testing.T) {
	repo, err := NewRepository()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := repo.Get("does-not-exist"); err == nil {
		t.Error("expected an error for an unknown profile id")
	}
}
