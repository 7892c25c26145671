package notifications

import "github.com/BinaryFighter-01/commentiq/internal/models"

// Report is the batch-completion summary sent to configured channels
type Report struct {
	Video       *models.VideoMetadata `json:"video"`
	Batch       *models.BatchReport   `json:"batch"`
	Aggregation *models.Aggregation   `json:"aggregation,omitempty"`
}

// Notifier defines the contract for notification services
type Notifier interface {
	SendReport(report *Report) error
}
