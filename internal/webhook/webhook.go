package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/folio-studio/folio/internal/logging"
	"github.com/folio-studio/folio/internal/metrics"
	"github.com/folio-studio/folio/pkg/models"
	"github.com/google/uuid"
)

const (
	EventCommissionCreated = "commission.created"

	SignatureHeader = "X-Webhook-Signature"
	EventHeader     = "X-Webhook-Event"
	DeliveryHeader  = "X-Webhook-Delivery"
)

// ErrNotConfigured is returned when no chat webhook URL is set
var ErrNotConfigured = errors.New("chat webhook not configured")

// Repository records the outcome of a handoff
type Repository interface {
	SetCommissionHandoff(ctx context.Context, id, handoffStatus string) error
}

// Config holds the chat channel endpoint settings
type Config struct {
	URL         string
	Secret      string
	ChatURL     string
	MaxAttempts int
	RetryDelay  time.Duration
}

// Service hands new commissions off to the chat channel
type Service struct {
	client *http.Client
	repo   Repository
	cfg    Config
	logger *logging.Logger
}

// NewService creates a new handoff service
func NewService(cfg Config, repo Repository, logger *logging.Logger) *Service {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &Service{
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		repo:   repo,
		cfg:    cfg,
		logger: logger,
	}
}

// ChatLink returns the chat channel link for a commission, or "" when no
// channel is configured
func (s *Service) ChatLink(commissionID string) string {
	if s.cfg.ChatURL == "" {
		return ""
	}
	u, err := url.Parse(s.cfg.ChatURL)
	if err != nil {
		return s.cfg.ChatURL
	}
	q := u.Query()
	q.Set("commission", commissionID)
	u.RawQuery = q.Encode()
	return u.String()
}

// HandOff delivers the commission in the background and records the outcome
func (s *Service) HandOff(c *models.Commission) {
	snapshot := *c
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		s.handOff(ctx, &snapshot)
	}()
}

func (s *Service) handOff(ctx context.Context, c *models.Commission) string {
	status := models.HandoffStatusSent
	err := s.Deliver(ctx, c)
	switch {
	case errors.Is(err, ErrNotConfigured):
		status = models.HandoffStatusPending
	case err != nil:
		status = models.HandoffStatusFailed
		s.logger.WithError(err).WithField("commission_id", c.ID).Warn("Commission handoff failed")
	}
	metrics.RecordCommission(status)

	if status == models.HandoffStatusPending {
		return status
	}
	if err := s.repo.SetCommissionHandoff(ctx, c.ID, status); err != nil {
		s.logger.WithError(err).WithField("commission_id", c.ID).Error("Failed to record handoff status")
	}
	return status
}

// Deliver posts a signed handoff payload, retrying up to MaxAttempts times
func (s *Service) Deliver(ctx context.Context, c *models.Commission) error {
	if s.cfg.URL == "" {
		return ErrNotConfigured
	}

	payload, err := json.Marshal(models.CommissionHandoff{
		Event:      EventCommissionCreated,
		Timestamp:  time.Now(),
		Commission: *c,
		ChatURL:    s.ChatLink(c.ID),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	deliveryID := uuid.New().String()
	var lastErr error
	for attempt := 1; attempt <= s.cfg.MaxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.cfg.RetryDelay * time.Duration(attempt-1)):
			}
		}

		lastErr = s.send(ctx, deliveryID, payload)
		if lastErr == nil {
			return nil
		}
		s.logger.WithField("attempt", attempt).WithError(lastErr).Debug("Handoff attempt failed")
	}

	return fmt.Errorf("handoff failed after %d attempts: %w", s.cfg.MaxAttempts, lastErr)
}

// send makes one delivery attempt
func (s *Service) send(ctx context.Context, deliveryID string, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.URL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Folio-Webhook/1.0")
	req.Header.Set(EventHeader, EventCommissionCreated)
	req.Header.Set(DeliveryHeader, deliveryID)

	if s.cfg.Secret != "" {
		req.Header.Set(SignatureHeader, Sign(payload, s.cfg.Secret))
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("chat endpoint returned %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}
	return nil
}

// Sign generates the HMAC-SHA256 signature for a payload
func Sign(payload []byte, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(payload)
	return "sha256=" + hex.EncodeToString(h.Sum(nil))
}

// Verify checks a signature produced by Sign
func Verify(payload []byte, secret, signature string) bool {
	return hmac.Equal([]byte(Sign(payload, secret)), []byte(signature))
}
