package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

type mockMailer struct {
	mock.Mock
}

func (m *mockMailer) SendLead(ctx context.Context, ev LeadEvent) error {
	args := m.Called(ev)
	return args.Error(0)
}

type recordingLogger struct {
	mu    sync.Mutex
	lines []string
}

func (l *recordingLogger) Errorf(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, format)
}

func staticURL(u string) URLSource {
	return func(context.Context) (string, error) { return u, nil }
}

func int64p(v int64) *int64 { return &v }

func TestDispatchPostsWebhook(t *testing.T) {
	var (
		mu       sync.Mutex
		received []LeadEvent
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var ev LeadEvent
		require.NoError(t, json.NewDecoder(r.Body).Decode(&ev))
		mu.Lock()
		received = append(received, ev)
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	n := New(Config{WebhookURL: staticURL(srv.URL)})
	n.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	n.Dispatch(LeadEvent{ID: "lead-1", Source: "cost-calculator", Name: "Pat", Email: "pat@example.com", PurchasePrice: int64p(25000)})
	n.Wait()

	require.Len(t, received, 1)
	got := received[0]
	assert.Equal(t, "lead-1", got.ID)
	assert.Equal(t, "pat@example.com", got.Email)
	require.NotNil(t, got.PurchasePrice)
	assert.Equal(t, int64(25000), *got.PurchasePrice)
	assert.True(t, got.Timestamp.Equal(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)))
}

func TestDispatchSkipsEmptyWebhookURL(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	n := New(Config{WebhookURL: staticURL("")})
	n.Dispatch(LeadEvent{ID: "x"})
	n.Wait()
	assert.False(t, called)
}

func TestDispatchLogsWebhookFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	log := &recordingLogger{}
	n := New(Config{WebhookURL: staticURL(srv.URL), Logger: log})
	n.Dispatch(LeadEvent{ID: "x"})
	n.Wait()
	assert.Len(t, log.lines, 1)
}

func TestDispatchCallsMailer(t *testing.T) {
	m := &mockMailer{}
	m.On("SendLead", mock.MatchedBy(func(ev LeadEvent) bool { return ev.ID == "lead-2" })).Return(nil).Once()

	n := New(Config{Mailer: m})
	n.Dispatch(LeadEvent{ID: "lead-2", Source: "contact-form"})
	n.Wait()
	m.AssertExpectations(t)
}

func TestMailerFailureDoesNotBlockWebhook(t *testing.T) {
	m := &mockMailer{}
	m.On("SendLead", mock.Anything).Return(errors.New("smtp down"))

	hit := make(chan struct{}, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hit <- struct{}{}
	}))
	defer srv.Close()

	log := &recordingLogger{}
	n := New(Config{Mailer: m, WebhookURL: staticURL(srv.URL), Logger: log})
	n.Dispatch(LeadEvent{ID: "x"})
	n.Wait()

	select {
	case <-hit:
	default:
		t.Fatal("webhook was not called")
	}
	assert.Len(t, log.lines, 1)
}

func TestWebhookTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	c := NewWebhookClient(50 * time.Millisecond)
	err := c.Post(context.Background(), srv.URL, LeadEvent{ID: "x"})
	assert.Error(t, err)
}

func TestWaitDrainsTimedOutMail(t *testing.T) {
	release := make(chan struct{})
	var sent atomic.Bool
	m := NewSMTPMailer("localhost", 25, "", "", "from@example.com", "to@example.com")
	m.send = func(...*gomail.Message) error {
		<-release
		sent.Store(true)
		return nil
	}
	log := &recordingLogger{}
	n := New(Config{Mailer: m, Logger: log, Timeout: 20 * time.Millisecond})
	n.Dispatch(LeadEvent{ID: "slow", Source: "contact-form"})

	require.Eventually(t, func() bool {
		log.mu.Lock()
		defer log.mu.Unlock()
		return len(log.lines) == 1
	}, time.Second, 5*time.Millisecond)

	done := make(chan struct{})
	go func() {
		n.Wait()
		close(done)
	}()
	select {
	case <-done:
		t.Fatal("Wait returned while the SMTP send was still running")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Wait did not return after the SMTP send finished")
	}
	assert.True(t, sent.Load())
}

func TestLeadEmailEscapesAndSkipsEmptyFields(t *testing.T) {
	var b strings.Builder
	ev := LeadEvent{
		Source:               "cost-calculator",
		Name:                 "<script>alert(1)</script>",
		Email:                "a@example.com",
		AnnualMaintenanceFee: int64p(1200),
		Timestamp:            time.Date(2026, 1, 2, 3, 4, 0, 0, time.UTC),
	}
	require.NoError(t, LeadEmail(ev).Render(context.Background(), &b))
	out := b.String()

	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, "&lt;script&gt;")
	assert.Contains(t, out, "Phone:</strong> N/A")
	assert.Contains(t, out, "$1200")
	assert.NotContains(t, out, "Resort")
	assert.NotContains(t, out, "Purchase Price")
	assert.Equal(t, "New Lead: cost-calculator", LeadSubject(ev))
}
