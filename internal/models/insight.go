package models

import "time"

type RecordStatus string

const (
	RecordStatusProcessing RecordStatus = "processing"
	RecordStatusCompleted  RecordStatus = "completed"
	RecordStatusFailed     RecordStatus = "failed"
)

// Failure reasons surfaced to clients on a failed record.
const (
	ReasonDecodeError   = "decode_error"
	ReasonPipelineError = "pipeline_error"
	ReasonTimeout       = "timeout"
	ReasonStorageError  = "storage_error"
)

type BlurLevel string

const (
	BlurLow    BlurLevel = "low"
	BlurMedium BlurLevel = "medium"
	BlurHigh   BlurLevel = "high"
)

type SceneType string

const (
	SceneIndoor  SceneType = "indoor"
	SceneOutdoor SceneType = "outdoor"
	SceneUnknown SceneType = "unknown"
)

// FaceBox is an axis-aligned bounding box in original-image pixel coordinates.
type FaceBox struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Insights is the aggregate of all analyzer outputs for one job. It is
// persisted whole-or-not-at-all; a record never carries a partial payload.
type Insights struct {
	DominantColors  []string  `json:"dominant_colors"`
	Brightness      int       `json:"brightness"`
	FacesDetected   int       `json:"faces_detected"`
	FaceLocations   []FaceBox `json:"face_locations"`
	TextFound       bool      `json:"text_found"`
	ExtractedText   string    `json:"extracted_text"`
	WordCount       int       `json:"word_count"`
	SharpnessScore  float64   `json:"sharpness_score"`
	BlurLevel       BlurLevel `json:"blur_level"`
	ContrastScore   float64   `json:"contrast_score"`
	QualityScore    float64   `json:"quality_score"`
	SceneType       SceneType `json:"scene_type"`
	SceneConfidence float64   `json:"scene_confidence"`

	// AnalyzerErrors records which analyzers failed for this job; their
	// fields above hold zero values. Absent when every analyzer succeeded.
	AnalyzerErrors map[string]string `json:"analyzer_errors,omitempty"`
}

// InsightRecord is the client-visible result of one job. It is owned by the
// worker while status is processing and read-only once terminal.
type InsightRecord struct {
	ID        string
	Status    RecordStatus
	Reason    string
	Insights  *Insights
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Terminal reports whether the record reached a final state.
func (r InsightRecord) Terminal() bool {
	return r.Status == RecordStatusCompleted || r.Status == RecordStatusFailed
}
