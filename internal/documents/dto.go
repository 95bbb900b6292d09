package documents

import "time"

type uploadResponse struct {
	Message     string    `json:"message"`
	UUID        string    `json:"uuid"`
	FileName    string    `json:"file_name"`
	UploadDate  time.Time `json:"upload_date"`
	LastUpdated time.Time `json:"last_updated"`
}

type updateResponse struct {
	Message     string    `json:"message"`
	UUID        string    `json:"uuid"`
	FileName    string    `json:"file_name"`
	LastUpdated time.Time `json:"last_updated"`
}

type deleteDataResponse struct {
	Message          string `json:"message"`
	DeletedDocuments int64  `json:"deleted_documents"`
}

type historyResponse struct {
	FileName     string    `json:"file_name"`
	UploadDate   time.Time `json:"upload_date"`
	LastUpdated  time.Time `json:"last_updated"`
	TotalUploads int       `json:"total_uploads"`
}
