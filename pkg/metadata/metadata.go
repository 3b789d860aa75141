// Package metadata records and verifies content hashes of run artifacts.
package metadata

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	// FileName is the manifest file written next to the artifacts.
	FileName = "manifest.json"
	// Version of the manifest layout.
	Version = "1"
)

// Manifest verification errors.
var (
	ErrNoManifest   = errors.New("no manifest found")
	ErrNoHashFound  = errors.New("no hash found in manifest")
	ErrHashMismatch = errors.New("hash mismatch")
)

// Entry is one hashed artifact.
type Entry struct {
	Name string `json:"name"`
	Hash string `json:"sha256"`
	Size int64  `json:"size"`
}

// Manifest describes the artifacts produced by one run.
type Manifest struct {
	CreatedAt time.Time `json:"created_at"`
	RunID     string    `json:"run_id"`
	State     string    `json:"state"`
	Version   string    `json:"version"`
	Files     []Entry   `json:"files"`
}

// CalculateHash computes the SHA-256 hash of content.
func CalculateHash(content []byte) string {
	hash := sha256.Sum256(content)

	return hex.EncodeToString(hash[:])
}

// Build hashes files. Entries are named by base name, so all files are expected in one directory.
func Build(runID, state string, files []string) (*Manifest, error) {
	m := &Manifest{
		CreatedAt: time.Now().UTC().Truncate(time.Second),
		RunID:     runID,
		State:     state,
		Version:   Version,
		Files:     make([]Entry, 0, len(files)),
	}

	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("hash %s: %w", file, err)
		}

		m.Files = append(m.Files, Entry{
			Name: filepath.Base(file),
			Hash: CalculateHash(data),
			Size: int64(len(data)),
		})
	}

	return m, nil
}

// Write stores the manifest as dir/manifest.json and returns its path.
func (m *Manifest) Write(dir string) (string, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal manifest: %w", err)
	}

	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write manifest: %w", err)
	}

	return path, nil
}

// Load reads dir/manifest.json.
func Load(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, FileName))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w in %s", ErrNoManifest, dir)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}

	return &m, nil
}

// Verify checks every artifact in dir against the hashes in its manifest.
func Verify(dir string) (*Manifest, error) {
	m, err := Load(dir)
	if err != nil {
		return nil, err
	}

	for _, entry := range m.Files {
		if entry.Hash == "" {
			return m, fmt.Errorf("%w: %s", ErrNoHashFound, entry.Name)
		}

		data, err := os.ReadFile(filepath.Join(dir, entry.Name))
		if err != nil {
			return m, fmt.Errorf("read %s: %w", entry.Name, err)
		}

		calculated := CalculateHash(data)
		if calculated != entry.Hash {
			return m, fmt.Errorf("%w: %s: expected %s, got %s", ErrHashMismatch, entry.Name, entry.Hash, calculated)
		}
	}

	return m, nil
}
