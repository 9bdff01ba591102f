package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// Store writes interview results as JSON files under one directory.
type Store struct {
	dir string
}

func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) path(interviewID string) (string, error) {
	if _, err := uuid.Parse(interviewID); err != nil {
		return "", fmt.Errorf("invalid interview id %q: %w", interviewID, err)
	}
	return filepath.Join(s.dir, fmt.Sprintf("interview_%s.json", interviewID)), nil
}

// SaveResult writes the result and returns the file path.
func (s *Store) SaveResult(result *InterviewResult) (string, error) {
	path, err := s.path(result.InterviewID)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory %s: %w", s.dir, err)
	}

	jsonData, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode result: %w", err)
	}

	if err := os.WriteFile(path, jsonData, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}

	return path, nil
}

// LoadResult reads a previously exported result.
func (s *Store) LoadResult(interviewID string) (*InterviewResult, error) {
	path, err := s.path(interviewID)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var result InterviewResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	return &result, nil
}

// ListResults returns the IDs of all exported interviews, sorted.
func (s *Store) ListResults() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if os.IsNotExist(err) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", s.dir, err)
	}

	results := []string{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".json" || !strings.HasPrefix(name, "interview_") {
			continue
		}
		results = append(results, strings.TrimSuffix(strings.TrimPrefix(name, "interview_"), ".json"))
	}
	sort.Strings(results)

	return results, nil
}
