// notify/notify.go
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/gewnthar/mncovid/config"
	"github.com/gewnthar/mncovid/metrics"
	"github.com/slack-go/slack"
)

// Channel identifies where a message goes. Each maps to one webhook.
type Channel int

const (
	Tracking Channel = iota // #covid-tracking
	Virus                   // #virus
	Ops                     // #robot-dojo, operator alerts
)

func (c Channel) String() string {
	switch c {
	case Tracking:
		return "covid-tracking"
	case Virus:
		return "virus"
	case Ops:
		return "robot-dojo"
	default:
		return fmt.Sprintf("channel(%d)", int(c))
	}
}

// Slack limits a section block's text to this many characters.
const maxBlockText = 3000

// Notifier delivers a message. Delivery is fire-and-forget: implementations
// log failures and never return them, so a dead webhook cannot fail a run.
type Notifier interface {
	Notify(ctx context.Context, text string, channel Channel)
}

// Slack posts to incoming webhooks.
type Slack struct {
	webhooks map[Channel]string
	client   *http.Client
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

func NewSlack(cfg config.NotifyConfig, m *metrics.Metrics, logger *slog.Logger) *Slack {
	return &Slack{
		webhooks: map[Channel]string{
			Tracking: cfg.Webhooks.CovidTracking,
			Virus:    cfg.Webhooks.Virus,
			Ops:      cfg.Webhooks.RobotDojo,
		},
		client:  &http.Client{Timeout: cfg.Timeout},
		logger:  logger,
		metrics: m,
	}
}

func (s *Slack) Notify(ctx context.Context, text string, channel Channel) {
	url := s.webhooks[channel]
	if url == "" {
		s.logger.Warn("no webhook configured, dropping notification", "channel", channel)
		return
	}

	msg := &slack.WebhookMessage{
		Text:   text,
		Blocks: &slack.Blocks{BlockSet: Blocks(text)},
	}
	if err := slack.PostWebhookCustomHTTPContext(ctx, url, s.client, msg); err != nil {
		s.logger.Error("failed to post slack notification", "channel", channel, "error", err)
		if s.metrics != nil {
			s.metrics.NotificationFailures.WithLabelValues(channel.String()).Inc()
		}
		return
	}
	s.logger.Debug("posted slack notification", "channel", channel)
}

// Blocks turns text into mrkdwn section blocks, splitting on line breaks so
// that no block exceeds Slack's limit. A single line longer than the limit is
// cut.
func Blocks(text string) []slack.Block {
	var (
		blocks []slack.Block
		cur    strings.Builder
	)
	flush := func() {
		if cur.Len() == 0 {
			return
		}
		blocks = append(blocks, slack.NewSectionBlock(
			slack.NewTextBlockObject(slack.MarkdownType, cur.String(), false, false), nil, nil))
		cur.Reset()
	}

	for _, line := range strings.SplitAfter(text, "\n") {
		for len(line) > maxBlockText {
			flush()
			cur.WriteString(line[:maxBlockText])
			flush()
			line = line[maxBlockText:]
		}
		if cur.Len()+len(line) > maxBlockText {
			flush()
		}
		cur.WriteString(line)
	}
	flush()
	return blocks
}

// Log writes messages to the logger only. Used when no webhooks are
// configured, e.g. local runs.
type Log struct {
	Logger *slog.Logger
}

func (l Log) Notify(_ context.Context, text string, channel Channel) {
	l.Logger.Info("notification", "channel", channel, "text", text)
}

// Message is one recorded notification.
type Message struct {
	Channel Channel
	Text    string
}

// Recorder keeps every message in memory.
type Recorder struct {
	mu       sync.Mutex
	Messages []Message
}

func (r *Recorder) Notify(_ context.Context, text string, channel Channel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Messages = append(r.Messages, Message{Channel: channel, Text: text})
}

// On returns the texts sent to channel, oldest first.
func (r *Recorder) On(channel Channel) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, m := range r.Messages {
		if m.Channel == channel {
			out = append(out, m.Text)
		}
	}
	return out
}
