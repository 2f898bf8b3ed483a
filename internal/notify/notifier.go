package notify

import (
	"context"
	"time"

	"surveillance/internal/model"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Notification is the outbound message for a district alert.
type Notification struct {
	AlertID      uuid.UUID `json:"alert_id"`
	DistrictID   uuid.UUID `json:"district_id"`
	DistrictName string    `json:"district_name"`
	AlertType    string    `json:"alert_type"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	CreatedAt    time.Time `json:"created_at"`
}

// FromAlert expects the alert's District to be loaded.
func FromAlert(a *model.DistrictAlert) Notification {
	return Notification{
		AlertID:      a.ID,
		DistrictID:   a.DistrictID,
		DistrictName: a.District.DistrictName,
		AlertType:    a.AlertType,
		Title:        a.Title,
		Description:  a.Description,
		CreatedAt:    a.CreatedAt,
	}
}

type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// LogNotifier only records the notification.
type LogNotifier struct {
	log *zap.Logger
}

func NewLogNotifier(log *zap.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Notify(_ context.Context, msg Notification) error {
	n.log.Info("alert notification",
		zap.String("alert_id", msg.AlertID.String()),
		zap.String("district", msg.DistrictName),
		zap.String("title", msg.Title),
	)
	return nil
}
