package dto

const (
	StatusUploaded = "uploaded"
	StatusFailed   = "failed"
)

type FileResult struct {
	File   string `json:"file"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type UploadResponse struct {
	Project  string       `json:"project"`
	Uploaded int          `json:"uploaded"`
	Failed   int          `json:"failed"`
	Files    []FileResult `json:"files"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}
