package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/smtp"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"venue-backend/internal/domain/purchaser"
)

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestKafkaDispatcherPublishesEnvelopes(t *testing.T) {
	w := &fakeWriter{}
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	d := &KafkaDispatcher{writer: w, topic: "notifications", now: func() time.Time { return now }}

	require.NoError(t, d.NotifyUser(context.Background(), purchaser.User(12), Message{Subject: "Booking confirmed", Body: "see you"}))
	require.NoError(t, d.NotifyUser(context.Background(), purchaser.Guest("Ana", "ana@example.com", ""), Message{Subject: "Order placed"}))
	require.NoError(t, d.NotifyAdmin(context.Background(), Message{Subject: "New booking"}))

	require.Len(t, w.msgs, 3)
	assert.Equal(t, "user:12", string(w.msgs[0].Key))
	assert.Equal(t, "guest:ana@example.com", string(w.msgs[1].Key))
	assert.Equal(t, "admin", string(w.msgs[2].Key))

	var n Notification
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &n))
	assert.Equal(t, AudienceUser, n.Audience)
	require.NotNil(t, n.UserID)
	assert.Equal(t, uint(12), *n.UserID)
	assert.Equal(t, "Booking confirmed", n.Subject)
	assert.True(t, now.Equal(n.CreatedAt))
}

func TestKafkaDispatcherWrapsWriteErrors(t *testing.T) {
	d := &KafkaDispatcher{writer: &fakeWriter{err: errors.New("broker down")}, topic: "n", now: time.Now}

	err := d.NotifyAdmin(context.Background(), Message{Subject: "x"})

	assert.ErrorContains(t, err, "broker down")
}

type mockSender struct{ mock.Mock }

func (m *mockSender) Send(to, subject, body string) error {
	return m.Called(to, subject, body).Error(0)
}

type mockDirectory struct{ mock.Mock }

func (m *mockDirectory) EmailForUser(ctx context.Context, userID uint) (string, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.Error(1)
}

func encode(t *testing.T, n Notification) kafka.Message {
	t.Helper()
	data, err := json.Marshal(n)
	require.NoError(t, err)
	return kafka.Message{Value: data}
}

func TestDelivererRoutesByAudience(t *testing.T) {
	ctx := context.Background()
	uid := uint(4)

	sender := &mockSender{}
	users := &mockDirectory{}
	users.On("EmailForUser", ctx, uint(4)).Return("player@example.com", nil)
	sender.On("Send", "player@example.com", "Paid", "thanks").Return(nil)
	sender.On("Send", "ops@example.com", "New order", "").Return(nil)
	sender.On("Send", "guest@example.com", "Booked", "").Return(nil)

	d := NewDeliverer(sender, users, "ops@example.com", quietLogger())

	require.NoError(t, d.Handle(ctx, encode(t, Notification{Audience: AudienceUser, UserID: &uid, Subject: "Paid", Body: "thanks"})))
	require.NoError(t, d.Handle(ctx, encode(t, Notification{Audience: AudienceAdmin, Subject: "New order"})))
	require.NoError(t, d.Handle(ctx, encode(t, Notification{Audience: AudienceUser, Email: "guest@example.com", Subject: "Booked"})))

	sender.AssertExpectations(t)
	users.AssertExpectations(t)
}

func TestDelivererSkipsUndeliverable(t *testing.T) {
	sender := &mockSender{}
	d := NewDeliverer(sender, &mockDirectory{}, "", quietLogger())

	assert.NoError(t, d.Handle(context.Background(), kafka.Message{Value: []byte("{not json")}))
	assert.NoError(t, d.Handle(context.Background(), encode(t, Notification{Audience: AudienceAdmin, Subject: "x"})))
	assert.NoError(t, d.Handle(context.Background(), encode(t, Notification{Audience: AudienceUser, Subject: "x"})))

	sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
}

func TestMailerComposesPlainText(t *testing.T) {
	var gotAddr string
	var gotTo []string
	var gotMsg []byte

	m := NewMailer("smtp.example.com", "587", "noreply@example.com", "secret")
	m.send = func(addr string, _ smtp.Auth, _ string, to []string, msg []byte) error {
		gotAddr, gotTo, gotMsg = addr, to, msg
		return nil
	}

	require.NoError(t, m.Send("ana@example.com", "Booking confirmed", "See you at 10:00"))

	assert.Equal(t, "smtp.example.com:587", gotAddr)
	assert.Equal(t, []string{"ana@example.com"}, gotTo)
	assert.Contains(t, string(gotMsg), "Subject: Booking confirmed\r\n")
	assert.Contains(t, string(gotMsg), "\r\n\r\nSee you at 10:00\r\n")
}
