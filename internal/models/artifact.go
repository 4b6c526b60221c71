package models

import "time"

// ArtifactKind names a rendered bill artifact.
type ArtifactKind string

const (
	ArtifactHTML ArtifactKind = "html"
	ArtifactPDF  ArtifactKind = "pdf"
)

// ArtifactLink is a signed, expiring download link for a bill artifact.
type ArtifactLink struct {
	Kind      ArtifactKind `json:"kind"`
	URL       string       `json:"url"`
	Ready     bool         `json:"ready"`
	ExpiresAt time.Time    `json:"expires_at"`
}
