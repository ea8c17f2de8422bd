package models

import "time"

// Report is the complete output envelope consumed by renderers.
type Report struct {
	Tool      string         `json:"tool"`
	Version   string         `json:"version"`
	Timestamp string         `json:"timestamp"`
	Metadata  Metadata       `json:"metadata"`
	Result    AnalysisResult `json:"result"`
	Warnings  []Warning      `json:"warnings"`
}

// Metadata contains report generation info
type Metadata struct {
	GeneratedAt      time.Time `json:"generated_at"`
	ManifestPath     string    `json:"manifest_path"`
	QueryLogPath     string    `json:"query_log_path"`
	ModelsInManifest int       `json:"models_in_manifest"`
	ExecutionsLoaded int       `json:"executions_loaded"`
	AnalysisDuration string    `json:"analysis_duration"`
	Version          string    `json:"version"`
}
