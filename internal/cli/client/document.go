package client

// DocumentResponse mirrors the API document payload.
type DocumentResponse struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category,omitempty"`
	SourceType  string `json:"source_type"`
	Status      string `json:"status"`
	Version     int64  `json:"version"`
	IsActive    bool   `json:"is_active"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

// RevisionResponse mirrors the API revision payload.
type RevisionResponse struct {
	ID           string `json:"id"`
	DocumentID   string `json:"document_id"`
	Version      int64  `json:"version"`
	ContentHash  string `json:"content_hash"`
	ChangeReason string `json:"change_reason,omitempty"`
	CreatedAt    string `json:"created_at"`
}

// JobResponse mirrors the API ingestion job payload.
type JobResponse struct {
	ID           string `json:"id"`
	DocumentID   string `json:"document_id"`
	JobType      string `json:"job_type"`
	Status       string `json:"status"`
	Progress     int    `json:"progress"`
	ErrorMessage string `json:"error_message,omitempty"`
	CreatedAt    string `json:"created_at"`
}

// SubmitResponse mirrors the API submit/update payload.
type SubmitResponse struct {
	Document *DocumentResponse `json:"document"`
	Revision *RevisionResponse `json:"revision,omitempty"`
	Job      *JobResponse      `json:"job,omitempty"`
}
