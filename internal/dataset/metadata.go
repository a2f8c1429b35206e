// Package dataset loads the fixed input contract produced by the
// upstream video-processing pipeline: a metadata descriptor plus flat
// binary arrays for vertices, keypoints, hammer positions and optional
// auxiliary series.
package dataset

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/giering/throwsage-viewer/internal/mhr"
)

// Metadata mirrors the pipeline descriptor JSON. Binary arrays carry
// no header; their shapes are implied by the counts declared here.
type Metadata struct {
	FrameCount  int     `json:"frame_count"`
	FPS         float64 `json:"fps"`
	CoordSpace  string  `json:"coord_space"` // "camera" or "world"
	VertexCount int     `json:"vertex_count"`
	FaceCount   int     `json:"face_count"`

	// Required series files, relative to the descriptor.
	VerticesFile  string `json:"vertices_file"`
	FacesFile     string `json:"faces_file"`
	KeypointsFile string `json:"keypoints_file"`
	HammerFile    string `json:"hammer_file"`

	// Optional series files. Empty means the series was not produced.
	SupportFile      string `json:"support_file,omitempty"`
	FillFile         string `json:"fill_file,omitempty"`
	CircleCenterFile string `json:"circle_center_file,omitempty"`
	LegAlignmentFile string `json:"leg_alignment_file,omitempty"`
	SeparationFile   string `json:"separation_file,omitempty"`
	BackLeanFile     string `json:"back_lean_file,omitempty"`
	PaintFile        string `json:"paint_file,omitempty"`
	VideoFile        string `json:"video_file,omitempty"`

	// Optional pipeline-derived annotations.
	HighpointFrame *int  `json:"highpoint_frame,omitempty"`
	ThrowStart     *int  `json:"throw_start,omitempty"`
	ReleaseFrame   *int  `json:"release_frame,omitempty"`
	TurnBoundaries []int `json:"turn_boundaries,omitempty"`
}

// LoadMetadata reads and validates the descriptor at path.
func LoadMetadata(path string) (*Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read metadata: %w", err)
	}
	var m Metadata
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse metadata %s: %w", filepath.Base(path), err)
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("invalid metadata %s: %w", filepath.Base(path), err)
	}
	return &m, nil
}

// Validate checks the descriptor for the fields the engine cannot run
// without.
func (m *Metadata) Validate() error {
	if m.FrameCount <= 0 {
		return fmt.Errorf("frame_count must be positive, got %d", m.FrameCount)
	}
	if m.FPS <= 0 {
		return fmt.Errorf("fps must be positive, got %f", m.FPS)
	}
	if _, err := mhr.ParseCoordSpace(m.CoordSpace); err != nil {
		return err
	}
	if m.VerticesFile == "" || m.FacesFile == "" || m.KeypointsFile == "" || m.HammerFile == "" {
		return fmt.Errorf("vertices, faces, keypoints and hammer files are all required")
	}
	if m.VertexCount <= 0 || m.FaceCount <= 0 {
		return fmt.Errorf("vertex_count and face_count must be positive")
	}
	return nil
}

// Space returns the parsed coordinate space of the dataset. Validate
// has already rejected unknown tags.
func (m *Metadata) Space() mhr.CoordSpace {
	s, _ := mhr.ParseCoordSpace(m.CoordSpace)
	return s
}
