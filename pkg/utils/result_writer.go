/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: result_writer.go
Description: Writes run results as timestamped JSON files under a per-command subdirectory of the
results directory, creating directories as needed.
*/

package utils

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// WriteResult writes result to <baseDir>/<command>/<timestamp>_<command>_v<version>.json
// and returns the file path
func WriteResult(baseDir, command, version string, result interface{}) (string, error) {
	return writeResultAt(baseDir, command, version, result, time.Now())
}

func writeResultAt(baseDir, command, version string, result interface{}, at time.Time) (string, error) {
	if baseDir == "" {
		baseDir = "results"
	}
	dir := filepath.Join(baseDir, command)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create results directory: %w", err)
	}

	// e.g. 2024-06-11_01-30-00_crawl_v1.0.0.json
	filename := fmt.Sprintf("%s_%s_v%s.json", at.Format("2006-01-02_15-04-05"), command, version)
	path := filepath.Join(dir, filename)

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal result: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write result file: %w", err)
	}
	return path, nil
}
