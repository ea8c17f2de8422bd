// Package baseline persists fingerprints of known issues so repeated
// scans can surface only what changed since the last accepted run.
package baseline

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ppiankov/pipecost/internal/models"
)

const (
	// DefaultPath is used when --update-baseline is enabled without an explicit --baseline path.
	DefaultPath = ".pipecost-baseline.json"
	fileVersion = 1
)

// Set stores baseline fingerprints.
type Set map[string]struct{}

// File is the persisted baseline JSON payload.
type File struct {
	Version      int      `json:"version"`
	Fingerprints []string `json:"fingerprints"`
}

// Load reads a baseline file. Missing files return an empty set.
func Load(path string) (Set, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, errors.New("baseline path is empty")
	}

	data, err := os.ReadFile(trimmed)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Set{}, nil
		}
		return nil, fmt.Errorf("read baseline file: %w", err)
	}

	var file File
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse baseline file: %w", err)
	}

	set := Set{}
	for _, fingerprint := range file.Fingerprints {
		if fingerprint == "" {
			continue
		}
		set[fingerprint] = struct{}{}
	}

	return set, nil
}

// Save writes a baseline file with sorted, unique fingerprints.
func Save(path string, set Set) error {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return errors.New("baseline path is empty")
	}

	dir := filepath.Dir(trimmed)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create baseline directory: %w", err)
		}
	}

	payload := File{
		Version:      fileVersion,
		Fingerprints: Sorted(set),
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal baseline file: %w", err)
	}

	if err := os.WriteFile(trimmed, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("write baseline file: %w", err)
	}

	return nil
}

// Sorted returns sorted fingerprints from a set.
func Sorted(set Set) []string {
	fingerprints := make([]string, 0, len(set))
	for fingerprint := range set {
		fingerprints = append(fingerprints, fingerprint)
	}
	sort.Strings(fingerprints)
	return fingerprints
}

// FingerprintIssue returns a stable fingerprint for an issue. Severity
// and savings are deliberately excluded, and the model list is hashed
// in sorted order: the same waste pattern with a drifted cost estimate
// (which can also reorder a redundant group's members) is still the
// same known issue.
func FingerprintIssue(issue models.Issue) string {
	names := append([]string(nil), issue.Models...)
	sort.Strings(names)
	parts := append([]string{"issue", string(issue.Kind)}, names...)
	return hash(parts...)
}

// CollectFingerprints extracts fingerprints for all issues in a result.
func CollectFingerprints(result *models.AnalysisResult) []string {
	set := Set{}
	if result == nil {
		return []string{}
	}
	for _, issue := range result.Issues {
		set[FingerprintIssue(issue)] = struct{}{}
	}
	return Sorted(set)
}

// SuppressKnown removes issues already present in the baseline set and
// refreshes the summary's recoverable totals accordingly.
func SuppressKnown(result *models.AnalysisResult, known Set) (suppressed int, remaining int) {
	if result == nil {
		return 0, 0
	}
	if len(known) == 0 {
		return 0, len(result.Issues)
	}

	filtered := make([]models.Issue, 0, len(result.Issues))
	var low, high float64
	for _, issue := range result.Issues {
		if _, exists := known[FingerprintIssue(issue)]; exists {
			suppressed++
			continue
		}
		low += issue.SavingsUSDLow
		high += issue.SavingsUSDHigh
		filtered = append(filtered, issue)
	}

	result.Issues = filtered
	result.Summary.RecoverableUSDLow = low
	result.Summary.RecoverableUSDHigh = high
	return suppressed, len(filtered)
}

func hash(parts ...string) string {
	canonical := strings.Join(parts, "\x1f")
	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:])
}
