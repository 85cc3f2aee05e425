package models

// Document is an indexed reference file as reported by the backend.
type Document struct {
	ID         string `json:"document_id"`
	Filename   string `json:"filename"`
	FileSize   int64  `json:"file_size,omitempty"`
	ChunkCount int    `json:"chunk_count"`
}

// AdminStats is the dashboard summary for administrators.
type AdminStats struct {
	TotalUsers         int `json:"totalUsers"`
	TotalConversations int `json:"totalConversations"`
	TotalDocuments     int `json:"totalDocuments"`
}
