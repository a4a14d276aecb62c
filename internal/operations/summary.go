package operations

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
)

const (
	// TimestampLayout is the run timestamp format, UTC.
	TimestampLayout = "20060102-150405"

	// SummariesDirName is the area under the output directory that holds
	// summary records. It is never removed by artifact cleanup.
	SummariesDirName = "summaries"

	summaryPrefix = "backup-summary-"
	summarySuffix = ".json"
)

// SummaryRecord is the one durable artifact describing a run's outcome.
// It feeds monitoring and the timestamp gate's "last run" lookup.
type SummaryRecord struct {
	Timestamp         string   `json:"timestamp"`
	ProjectID         string   `json:"project_id"`
	Version           string   `json:"version"`
	BackupDate        string   `json:"backup_date"`
	TotalCombinations int      `json:"total_combinations"`
	Successful        int      `json:"successful"`
	Failed            int      `json:"failed"`
	SuccessRate       float64  `json:"success_rate"`
	FailedPairs       []string `json:"failed_pairs"`
	StorageType       string   `json:"storage_type"`
	StorageLocation   string   `json:"storage_location"`
	ToolVersion       string   `json:"tool_version"`
}

// Filename returns the record's file name, derived from its timestamp.
func (s *SummaryRecord) Filename() string {
	return summaryPrefix + s.Timestamp + summarySuffix
}

// Load reads a summary record from filePath.
func (s *SummaryRecord) Load(filePath string) error {
	jsonFile, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("couldn't open summary file %q: %w", filePath, err)
	}
	defer jsonFile.Close()

	decoder := json.NewDecoder(jsonFile)
	if err := decoder.Decode(s); err != nil {
		return fmt.Errorf("decode summary JSON: %w", err)
	}
	return nil
}

// Write persists the record under dirPath and returns the full path.
func (s *SummaryRecord) Write(dirPath string) (string, error) {
	filePath := filepath.Join(dirPath, s.Filename())

	if err := EnsureDirectoryExist(dirPath); err != nil {
		return "", fmt.Errorf("ensure summaries directory %q: %w", dirPath, err)
	}

	jsonFile, err := os.Create(filePath)
	if err != nil {
		return "", fmt.Errorf("create summary file %q: %w", filePath, err)
	}
	defer jsonFile.Close()

	encoder := json.NewEncoder(jsonFile)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(s); err != nil {
		return "", fmt.Errorf("encode summary JSON: %w", err)
	}
	return filePath, nil
}

// Marshal renders the record the way Write does, for remote delivery.
func (s *SummaryRecord) Marshal() ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

// SuccessRate computes successful/total as a percentage rounded to two
// decimals, 0 when total is zero.
func SuccessRate(successful, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(successful)*10000/float64(total)) / 100
}

// FindLatestSummary returns the most recent record under dir, chosen by
// the record's own timestamp field rather than file mtime. A missing
// directory or an empty one yields (nil, nil); records that cannot be
// parsed are skipped.
func FindLatestSummary(dir string) (*SummaryRecord, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read summaries directory %q: %w", dir, err)
	}

	var latest *SummaryRecord
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, summaryPrefix) || !strings.HasSuffix(name, summarySuffix) {
			continue
		}
		var rec SummaryRecord
		if err := rec.Load(filepath.Join(dir, name)); err != nil {
			continue
		}
		// The timestamp layout sorts lexicographically.
		if latest == nil || rec.Timestamp > latest.Timestamp {
			r := rec
			latest = &r
		}
	}
	return latest, nil
}
