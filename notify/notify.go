// Package notify fans a freshly stored lead out to email and an optional
// webhook. Delivery is best effort: one attempt per channel, bounded by a
// timeout, with failures logged and counted but never returned.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	ChannelEmail   = "email"
	ChannelWebhook = "webhook"
)

var deliveries = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "notify_deliveries_total",
		Help: "Lead notification attempts by channel and result",
	},
	[]string{"channel", "result"},
)

// Logger is the subset of echo.Logger used for delivery failures.
type Logger interface {
	Errorf(format string, args ...interface{})
}

// LeadEvent is the payload handed to every channel. It is also the JSON
// body POSTed to the webhook.
type LeadEvent struct {
	ID                   string    `json:"id"`
	Source               string    `json:"source"`
	Name                 string    `json:"name"`
	Email                string    `json:"email"`
	Phone                string    `json:"phone,omitempty"`
	Message              string    `json:"message,omitempty"`
	ResortName           string    `json:"resortName,omitempty"`
	AnnualMaintenanceFee *int64    `json:"annualMaintenanceFee,omitempty"`
	PurchasePrice        *int64    `json:"purchasePrice,omitempty"`
	YearsOwned           *int64    `json:"yearsOwned,omitempty"`
	Location             string    `json:"location,omitempty"`
	CalculatorResults    string    `json:"calculatorResults,omitempty"`
	Timestamp            time.Time `json:"timestamp"`
}

// Mailer sends the lead notification email.
type Mailer interface {
	SendLead(ctx context.Context, ev LeadEvent) error
}

// URLSource resolves the current webhook URL. An empty URL disables the webhook.
type URLSource func(ctx context.Context) (string, error)

// Notifier dispatches lead events without blocking the caller.
type Notifier struct {
	mailer     Mailer
	webhook    *WebhookClient
	webhookURL URLSource
	log        Logger
	timeout    time.Duration
	now        func() time.Time

	wg sync.WaitGroup
}

// Config wires a Notifier. Mailer and WebhookURL may be nil.
type Config struct {
	Mailer     Mailer
	WebhookURL URLSource
	Logger     Logger
	Timeout    time.Duration
}

// New creates a Notifier. A zero Timeout defaults to 10 seconds.
func New(cfg Config) *Notifier {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Notifier{
		mailer:     cfg.Mailer,
		webhook:    NewWebhookClient(cfg.Timeout),
		webhookURL: cfg.WebhookURL,
		log:        cfg.Logger,
		timeout:    cfg.Timeout,
		now:        time.Now,
	}
}

// Dispatch stamps ev with the server time and starts one delivery per
// configured channel. It returns immediately.
func (n *Notifier) Dispatch(ev LeadEvent) {
	ev.Timestamp = n.now().UTC()
	if n.mailer != nil {
		n.spawn(ChannelEmail, func(ctx context.Context) error {
			return n.mailer.SendLead(ctx, ev)
		})
	}
	if n.webhookURL != nil {
		n.spawn(ChannelWebhook, func(ctx context.Context) error {
			url, err := n.webhookURL(ctx)
			if err != nil {
				return err
			}
			if url == "" {
				return errSkipped
			}
			return n.webhook.Post(ctx, url, ev)
		})
	}
}

// Wait blocks until every in-flight delivery has finished, including mail
// sends that outlived their timeout when the Mailer can report them.
func (n *Notifier) Wait() {
	n.wg.Wait()
	if d, ok := n.mailer.(interface{ Wait() }); ok {
		d.Wait()
	}
}

func (n *Notifier) spawn(channel string, send func(ctx context.Context) error) {
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
		defer cancel()

		err := send(ctx)
		switch {
		case err == errSkipped:
			deliveries.WithLabelValues(channel, "skipped").Inc()
		case err != nil:
			deliveries.WithLabelValues(channel, "failed").Inc()
			if n.log != nil {
				n.log.Errorf("notify %s: %v", channel, err)
			}
		default:
			deliveries.WithLabelValues(channel, "sent").Inc()
		}
	}()
}
