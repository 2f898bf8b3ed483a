package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func sampleNotification() Notification {
	return Notification{
		AlertID:      uuid.New(),
		DistrictID:   uuid.New(),
		DistrictName: "Tirupati",
		AlertType:    "Outbreak Risk",
		Title:        "High Severity Case Reported in Renigunta",
	}
}

func TestWebhookNotifierPostsJSON(t *testing.T) {
	var got Notification
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	msg := sampleNotification()
	require.NoError(t, NewWebhookNotifier(srv.URL).Notify(context.Background(), msg))
	assert.Equal(t, msg.AlertID, got.AlertID)
	assert.Equal(t, "Tirupati", got.DistrictName)
}

func TestWebhookNotifierErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	err := NewWebhookNotifier(srv.URL).Notify(context.Background(), sampleNotification())
	assert.ErrorContains(t, err, "502")
}

type fakeSQS struct {
	input *sqs.SendMessageInput
	err   error
}

func (f *fakeSQS) SendMessage(_ context.Context, in *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.input = in
	return &sqs.SendMessageOutput{}, f.err
}

func TestSQSNotifierSendsBody(t *testing.T) {
	fake := &fakeSQS{}
	n := &SQSNotifier{client: fake, queueURL: "https://sqs.local/alerts"}
	msg := sampleNotification()

	require.NoError(t, n.Notify(context.Background(), msg))
	require.NotNil(t, fake.input)
	assert.Equal(t, "https://sqs.local/alerts", *fake.input.QueueUrl)

	var decoded Notification
	require.NoError(t, json.Unmarshal([]byte(*fake.input.MessageBody), &decoded))
	assert.Equal(t, msg.Title, decoded.Title)
}

func TestSQSNotifierWrapsError(t *testing.T) {
	n := &SQSNotifier{client: &fakeSQS{err: errors.New("throttled")}, queueURL: "q"}
	assert.ErrorContains(t, n.Notify(context.Background(), sampleNotification()), "throttled")
}

func TestLogNotifier(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	require.NoError(t, NewLogNotifier(zap.New(core)).Notify(context.Background(), sampleNotification()))
	assert.Equal(t, 1, logs.FilterMessage("alert notification").Len())
}
