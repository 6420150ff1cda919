package dto

import "euphro-assets/internal/geometry"

type MarkersResponse struct {
	ViewBox geometry.Box      `json:"viewBox"`
	Markers []geometry.Marker `json:"markers"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

type UploadResponse struct {
	Path     string `json:"path"`
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
}
