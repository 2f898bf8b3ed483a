package tasks

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"surveillance/internal/events"
	"surveillance/internal/model"
	"surveillance/internal/notify"
	"surveillance/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AlertNotificationJob builds the send_alert_notification job.
func AlertNotificationJob(alertID uuid.UUID) Job {
	return Job{Type: JobSendAlertNotification, Args: map[string]string{"alert_id": alertID.String()}}
}

// RiskPredictionJob builds the run_risk_prediction job.
func RiskPredictionJob(districtID uuid.UUID) Job {
	return Job{Type: JobRunRiskPrediction, Args: map[string]string{"district_id": districtID.String()}}
}

type alertLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.DistrictAlert, error)
}

// SendAlertNotification loads the alert and hands it to the notifier.
func SendAlertNotification(alerts alertLookup, notifier notify.Notifier) HandlerFunc {
	return func(ctx context.Context, job Job) (string, error) {
		raw := job.Args["alert_id"]
		alertID, err := uuid.Parse(raw)
		if err != nil {
			return fmt.Sprintf("Alert %s not found", raw), nil
		}

		alert, err := alerts.FindByID(ctx, alertID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Sprintf("Alert %s not found", alertID), nil
		}
		if err != nil {
			return "", fmt.Errorf("failed to load alert: %w", err)
		}

		if err := notifier.Notify(ctx, notify.FromAlert(alert)); err != nil {
			return "", err
		}
		return fmt.Sprintf("Notification sent for alert %s", alertID), nil
	}
}

// Prediction is a predictor's output on a 0-1 scale.
type Prediction struct {
	DistrictID     uuid.UUID
	Score          float64
	Classification string
}

type Predictor interface {
	Predict(ctx context.Context, districtID uuid.UUID) (Prediction, error)
}

// ClassifyProbability buckets a 0-1 prediction: above 0.7 High, above 0.4 Moderate.
func ClassifyProbability(p float64) string {
	switch {
	case p > 0.7:
		return model.RiskHigh
	case p > 0.4:
		return model.RiskModerate
	default:
		return model.RiskLow
	}
}

// PlaceholderPredictor draws a random score. No prediction model exists yet; its
// output is logged and returned but never stored as a RiskScore.
type PlaceholderPredictor struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewPlaceholderPredictor(seed int64) *PlaceholderPredictor {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &PlaceholderPredictor{rng: rand.New(rand.NewSource(seed))}
}

func (p *PlaceholderPredictor) Predict(_ context.Context, districtID uuid.UUID) (Prediction, error) {
	p.mu.Lock()
	score := p.rng.Float64()
	p.mu.Unlock()
	return Prediction{DistrictID: districtID, Score: score, Classification: ClassifyProbability(score)}, nil
}

type districtLookup interface {
	FindDistrict(ctx context.Context, id uuid.UUID) (*model.DistrictBoundary, error)
}

// RunRiskPrediction runs the predictor for one district.
func RunRiskPrediction(districts districtLookup, predictor Predictor, log *zap.Logger) HandlerFunc {
	return func(ctx context.Context, job Job) (string, error) {
		raw := job.Args["district_id"]
		districtID, err := uuid.Parse(raw)
		if err != nil {
			return fmt.Sprintf("District %s not found", raw), nil
		}

		district, err := districts.FindDistrict(ctx, districtID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Sprintf("District %s not found", districtID), nil
		}
		if err != nil {
			return "", fmt.Errorf("failed to load district: %w", err)
		}

		prediction, err := predictor.Predict(ctx, districtID)
		if err != nil {
			return "", fmt.Errorf("prediction failed: %w", err)
		}

		log.Info("risk prediction",
			zap.String("district_id", districtID.String()),
			zap.String("district", district.DistrictName),
			zap.Float64("score", prediction.Score),
			zap.String("classification", prediction.Classification),
		)
		return fmt.Sprintf("Risk prediction for %s: %.2f (%s)", district.DistrictName, prediction.Score, prediction.Classification), nil
	}
}

// ForwardAlerts enqueues a notification job for every alert.created event.
func ForwardAlerts(q Queue, log *zap.Logger) events.Handler {
	return func(ctx context.Context, e events.Event) {
		if e.Type != events.AlertCreated {
			return
		}
		h, err := q.Submit(ctx, AlertNotificationJob(e.EntityID))
		if err != nil {
			log.Error("failed to enqueue alert notification", zap.String("alert_id", e.EntityID.String()), zap.Error(err))
			return
		}
		log.Debug("alert notification enqueued", zap.String("alert_id", e.EntityID.String()), zap.String("handle", string(h)))
	}
}

var (
	_ alertLookup    = repository.AlertRepository(nil)
	_ districtLookup = repository.BoundaryRepository(nil)
)
