package service

import (
	"context"
	"testing"

	"surveillance/internal/events"
	"surveillance/internal/model"
	"surveillance/internal/tasks"
	"surveillance/pkg/apperror"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestAlertLifecycle(t *testing.T) {
	alerts := newFakeAlerts()
	boundaries := newFakeBoundaries()
	district := boundaries.addDistrict("Tirupati")
	publisher := &recordingPublisher{}
	svc := NewAlertService(alerts, boundaries, &recordingAudit{}, &serialTx{}, publisher, zap.NewNop())
	admin := identityWithRole("dho", model.RoleDistrictAdmin)

	_, err := svc.Create(context.Background(), ashaIdentity(), AlertRequest{DistrictID: district.ID.String(), Title: "t", Description: "d"})
	assert.True(t, apperror.Is(err, apperror.KindPermission))

	created, err := svc.Create(context.Background(), admin, AlertRequest{
		DistrictID: district.ID.String(), Title: "Flood advisory", Description: "River level rising",
	})
	require.NoError(t, err)
	assert.Equal(t, model.AlertOpen, created.Status)
	assert.Equal(t, model.AlertTypeOutbreakRisk, created.AlertType)
	assert.Equal(t, []string{events.AlertCreated}, publisher.types())

	ack, err := svc.Update(context.Background(), admin, created.ID, UpdateAlertRequest{Status: strPtr("acknowledged")})
	require.NoError(t, err)
	assert.Equal(t, model.AlertAcknowledged, ack.Status)

	_, err = svc.Update(context.Background(), admin, created.ID, UpdateAlertRequest{Status: strPtr("Open")})
	assert.True(t, apperror.Is(err, apperror.KindState))

	_, err = svc.Update(context.Background(), admin, created.ID, UpdateAlertRequest{Status: strPtr("Snoozed")})
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	resolved, err := svc.Update(context.Background(), admin, created.ID, UpdateAlertRequest{Status: strPtr("Resolved")})
	require.NoError(t, err)
	assert.Equal(t, model.AlertResolved, resolved.Status)

	open, total, err := svc.List(context.Background(), AlertQuery{Status: model.AlertOpen}, ListParams{})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, open)
}

// alertsWithLoadHook runs afterLoad once, right after the next FindByID returns its row.
type alertsWithLoadHook struct {
	*fakeAlerts
	afterLoad func()
}

func (a *alertsWithLoadHook) FindByID(ctx context.Context, id uuid.UUID) (*model.DistrictAlert, error) {
	alert, err := a.fakeAlerts.FindByID(ctx, id)
	if hook := a.afterLoad; hook != nil {
		a.afterLoad = nil
		hook()
	}
	return alert, err
}

func TestAlertUpdateDoesNotUndoConcurrentResolve(t *testing.T) {
	boundaries := newFakeBoundaries()
	district := boundaries.addDistrict("Tirupati")
	alerts := &alertsWithLoadHook{fakeAlerts: newFakeAlerts()}
	svc := NewAlertService(alerts, boundaries, &recordingAudit{}, &serialTx{}, &recordingPublisher{}, zap.NewNop())
	admin := identityWithRole("dho", model.RoleDistrictAdmin)

	created, err := svc.Create(context.Background(), admin, AlertRequest{
		DistrictID: district.ID.String(), Title: "Flood advisory", Description: "River level rising",
	})
	require.NoError(t, err)
	alertID := uuid.MustParse(created.ID)
	resolveElsewhere := func() {
		won, err := alerts.fakeAlerts.TransitionStatus(context.Background(), alertID, model.AlertOpen, model.AlertResolved)
		require.NoError(t, err)
		require.True(t, won)
	}

	alerts.afterLoad = resolveElsewhere
	_, err = svc.Update(context.Background(), admin, created.ID, UpdateAlertRequest{Status: strPtr("Acknowledged")})
	assert.True(t, apperror.Is(err, apperror.KindState))

	stored, err := alerts.fakeAlerts.FindByID(context.Background(), alertID)
	require.NoError(t, err)
	assert.Equal(t, model.AlertResolved, stored.Status)

	retitled, err := svc.Update(context.Background(), admin, created.ID, UpdateAlertRequest{Title: strPtr("Flood warning")})
	require.NoError(t, err)
	assert.Equal(t, "Flood warning", retitled.Title)
	assert.Equal(t, model.AlertResolved, retitled.Status)
}

func TestRiskScoreClassification(t *testing.T) {
	boundaries := newFakeBoundaries()
	district := boundaries.addDistrict("Tirupati")
	svc := NewRiskScoreService(newFakeScores(), boundaries, &recordingQueue{}, zap.NewNop())
	admin := identityWithRole("sho", model.RoleStateAdmin)

	for _, tt := range []struct {
		value string
		want  string
	}{
		{"70", model.RiskHigh},
		{"69.99", model.RiskModerate},
		{"40", model.RiskModerate},
		{"12.5", model.RiskLow},
	} {
		v := decimal.RequireFromString(tt.value)
		resp, err := svc.Create(context.Background(), admin, RiskScoreRequest{DistrictID: district.ID.String(), ScoreValue: &v})
		require.NoError(t, err)
		assert.Equal(t, tt.want, resp.Classification, tt.value)
	}

	v := decimal.NewFromInt(20)
	resp, err := svc.Create(context.Background(), admin, RiskScoreRequest{DistrictID: district.ID.String(), ScoreValue: &v, Classification: "high"})
	require.NoError(t, err)
	assert.Equal(t, model.RiskHigh, resp.Classification, "explicit classification wins")

	over := decimal.NewFromInt(101)
	_, err = svc.Create(context.Background(), admin, RiskScoreRequest{DistrictID: district.ID.String(), ScoreValue: &over})
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	_, err = svc.Create(context.Background(), admin, RiskScoreRequest{DistrictID: district.ID.String(), ScoreValue: &v, Classification: "Severe"})
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	_, err = svc.Create(context.Background(), ashaIdentity(), RiskScoreRequest{DistrictID: district.ID.String(), ScoreValue: &v})
	assert.True(t, apperror.Is(err, apperror.KindPermission))
}

func TestPredictQueuesJob(t *testing.T) {
	boundaries := newFakeBoundaries()
	district := boundaries.addDistrict("Tirupati")
	queue := &recordingQueue{}
	scores := newFakeScores()
	svc := NewRiskScoreService(scores, boundaries, queue, zap.NewNop())

	resp, err := svc.Predict(context.Background(), adminIdentity(), district.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "1700000000000-0", resp.TaskID)
	require.Len(t, queue.jobs, 1)
	assert.Equal(t, tasks.JobRunRiskPrediction, queue.jobs[0].Type)
	assert.Equal(t, district.ID.String(), queue.jobs[0].Args["district_id"])
	assert.Zero(t, scores.count(), "predictions are never stored as risk scores")

	_, err = svc.Predict(context.Background(), adminIdentity(), uuid.NewString())
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}
