package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/concertify/internal/chat"
)

type mockSender struct{ mock.Mock }

func (m *mockSender) Configured() bool { return m.Called().Bool(0) }

func (m *mockSender) Send(ctx context.Context, req Request) error {
	return m.Called(ctx, req).Error(0)
}

type mockAnnouncer struct{ mock.Mock }

func (m *mockAnnouncer) Enabled() bool { return m.Called().Bool(0) }

func (m *mockAnnouncer) Send(ctx context.Context, msg chat.Message) error {
	return m.Called(ctx, msg).Error(0)
}

func TestProcessorSendsPaymentConfirmation(t *testing.T) {
	sender := new(mockSender)
	sender.On("Configured").Return(true)
	sender.On("Send", mock.Anything, mock.MatchedBy(func(r Request) bool {
		return r.To.Email == "fan@example.com" && r.Email.Subject == "Payment Confirmed - Concertify"
	})).Return(nil).Once()
	announcer := new(mockAnnouncer)

	job := NewJob(KindPaymentConfirmation)
	job.UserEmail = "fan@example.com"
	require.NoError(t, NewProcessor(sender, announcer).Handle(context.Background(), job))

	sender.AssertExpectations(t)
	announcer.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestProcessorAnnouncesDecisions(t *testing.T) {
	sender := new(mockSender)
	sender.On("Configured").Return(true)
	sender.On("Send", mock.Anything, mock.Anything).Return(nil).Once()
	announcer := new(mockAnnouncer)
	announcer.On("Enabled").Return(true)
	announcer.On("Send", mock.Anything, mock.MatchedBy(func(m chat.Message) bool {
		return m.Content == "Reservation #9 rejected"
	})).Return(errors.New("discord down")).Once()

	job := NewJob(KindReservationRejected)
	job.UserEmail = "fan@example.com"
	job.ReservationID = 9
	require.NoError(t, NewProcessor(sender, announcer).Handle(context.Background(), job))

	sender.AssertExpectations(t)
	announcer.AssertExpectations(t)
}

func TestProcessorSkips(t *testing.T) {
	t.Run("unconfigured", func(t *testing.T) {
		sender := new(mockSender)
		sender.On("Configured").Return(false)
		job := NewJob(KindPaymentConfirmation)
		job.UserEmail = "fan@example.com"
		require.NoError(t, NewProcessor(sender, nil).Handle(context.Background(), job))
		sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
	})
	t.Run("no email", func(t *testing.T) {
		sender := new(mockSender)
		sender.On("Configured").Return(true)
		require.NoError(t, NewProcessor(sender, nil).Handle(context.Background(), NewJob(KindReservationApproved)))
		sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
	})
}

func TestProcessorErrors(t *testing.T) {
	sender := new(mockSender)
	sender.On("Configured").Return(true)
	sender.On("Send", mock.Anything, mock.Anything).Return(errors.New("boom"))

	job := NewJob(KindPaymentConfirmation)
	job.UserEmail = "fan@example.com"
	assert.Error(t, NewProcessor(sender, nil).Handle(context.Background(), job))

	assert.Error(t, NewProcessor(sender, nil).Handle(context.Background(), Job{Kind: "unknown"}))
}

type recordingHandler struct {
	mu   sync.Mutex
	jobs []Job
	errs []error
}

func (h *recordingHandler) Handle(ctx context.Context, job Job) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.jobs = append(h.jobs, job)
	h.errs = append(h.errs, ctx.Err())
	return nil
}

func TestAsyncDispatcherSurvivesCanceledRequest(t *testing.T) {
	h := &recordingHandler{}
	d := NewAsyncDispatcher(h, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	job := NewJob(KindPaymentConfirmation)
	require.NoError(t, d.Dispatch(ctx, job))

	waitCtx, done := context.WithTimeout(context.Background(), 2*time.Second)
	defer done()
	require.NoError(t, d.Wait(waitCtx))

	h.mu.Lock()
	defer h.mu.Unlock()
	require.Len(t, h.jobs, 1)
	assert.Equal(t, job.ID, h.jobs[0].ID)
	assert.NoError(t, h.errs[0], "job context must not inherit request cancellation")
}
