// Package mcp exposes document question answering as Model Context Protocol tools.
package mcp

// AskDocumentInput defines the input parameters for the ask_document tool.
type AskDocumentInput struct {
	// JobID identifies the ingested document.
	JobID string `json:"job_id" jsonschema:"The job id returned when the document was ingested"`
	// Question is the natural-language question about the document.
	Question string `json:"question" jsonschema:"The question to answer from the document's content"`
}

// AskDocumentOutput contains the answer.
type AskDocumentOutput struct {
	JobID string `json:"job_id"`
	// Answer is the grounded answer, including the page citation line.
	Answer string `json:"answer"`
	// CitedPages lists the 0-based pages of the passages the answer was built from.
	CitedPages []int `json:"cited_pages"`
	// Found is false when no document exists for the job id.
	Found   bool   `json:"found"`
	Message string `json:"message,omitempty"`
}

// DocumentStatusInput defines the input parameters for the document_status tool.
type DocumentStatusInput struct {
	JobID string `json:"job_id" jsonschema:"The job id to report on"`
}

// DocumentStatusOutput reports the ingestion job and its index collection.
type DocumentStatusOutput struct {
	JobID    string `json:"job_id"`
	InMemory bool   `json:"in_memory"`
	Filename string `json:"filename,omitempty"`
	State    string `json:"status,omitempty"`
	Error    string `json:"error,omitempty"`

	IndexAvailable   bool   `json:"index_available"`
	CollectionExists bool   `json:"collection_exists"`
	DocumentCount    uint64 `json:"document_count"`
	IndexError       string `json:"index_error,omitempty"`
}

// IngestDocumentInput defines the input parameters for the ingest_document tool.
type IngestDocumentInput struct {
	Path string `json:"path" jsonschema:"Local path of a .pdf, .md or .txt file to ingest"`
}

// IngestDocumentOutput contains the created job.
type IngestDocumentOutput struct {
	JobID    string `json:"job_id"`
	Filename string `json:"filename"`
	State    string `json:"status"`
	Error    string `json:"error,omitempty"`
}
