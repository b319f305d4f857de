package intervention

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/suggestkit/suggestd/pkg/config"
	"github.com/suggestkit/suggestd/pkg/errors"
	"github.com/suggestkit/suggestd/pkg/resilience"
)

// HostClient is the host application's control surface: an update-status
// query plus a small set of opaque side-effecting commands. Implementations
// must be safe for concurrent use.
type HostClient interface {
	UpdateStatus(ctx context.Context) (UpdateStatus, error)
	CheckForUpdate(ctx context.Context) error
	Restart(ctx context.Context) error
	OpenUpdateDialog(ctx context.Context) error
	RefreshProfile(ctx context.Context) error
	ClearData(ctx context.Context) error
}

// HTTPHostClient talks to the host's local control endpoint. Every call
// runs through a circuit breaker so a dead host degrades to "no suggestion"
// instead of a per-keystroke timeout.
type HTTPHostClient struct {
	baseURL string
	timeout time.Duration
	client  *http.Client
	breaker *resilience.CircuitBreaker
	logger  *slog.Logger
}

// NewHTTPHostClient creates a client for the host control URL in cfg.
func NewHTTPHostClient(cfg config.HostConfig) *HTTPHostClient {
	return &HTTPHostClient{
		baseURL: cfg.ControlURL,
		timeout: cfg.Timeout,
		client:  &http.Client{Timeout: cfg.Timeout},
		breaker: resilience.NewCircuitBreaker("host-control", resilience.CircuitBreakerConfig{}),
		logger:  slog.Default().With("component", "host-client"),
	}
}

// BreakerState exposes the circuit state for metrics.
func (h *HTTPHostClient) BreakerState() resilience.State {
	return h.breaker.GetState()
}

// UpdateStatus queries the host's current update state.
func (h *HTTPHostClient) UpdateStatus(ctx context.Context) (UpdateStatus, error) {
	var status UpdateStatus
	err := h.breaker.Execute(func() error {
		return resilience.WithTimeout(ctx, h.timeout, "update-status", func(ctx context.Context) error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.baseURL+"/update/status", nil)
			if err != nil {
				return err
			}
			resp, err := h.client.Do(req)
			if err != nil {
				return fmt.Errorf("%w: %v", errors.ErrHostUnavailable, err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("%w: update status returned %d", errors.ErrHostUnavailable, resp.StatusCode)
			}
			var body struct {
				Status UpdateStatus `json:"status"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				return fmt.Errorf("decoding update status: %w", err)
			}
			status = body.Status
			return nil
		})
	})
	return status, err
}

func (h *HTTPHostClient) CheckForUpdate(ctx context.Context) error {
	return h.command(ctx, "check-for-update", "/update/check")
}

func (h *HTTPHostClient) Restart(ctx context.Context) error {
	return h.command(ctx, "restart", "/update/restart")
}

func (h *HTTPHostClient) OpenUpdateDialog(ctx context.Context) error {
	return h.command(ctx, "open-update-dialog", "/update/dialog")
}

func (h *HTTPHostClient) RefreshProfile(ctx context.Context) error {
	return h.command(ctx, "refresh-profile", "/profile/refresh")
}

func (h *HTTPHostClient) ClearData(ctx context.Context) error {
	return h.command(ctx, "clear-data", "/data/clear")
}

func (h *HTTPHostClient) command(ctx context.Context, name, path string) error {
	return h.breaker.Execute(func() error {
		return resilience.WithTimeout(ctx, h.timeout, name, func(ctx context.Context) error {
			req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+path, nil)
			if err != nil {
				return err
			}
			resp, err := h.client.Do(req)
			if err != nil {
				return fmt.Errorf("%w: %v", errors.ErrHostUnavailable, err)
			}
			defer resp.Body.Close()
			io.Copy(io.Discard, resp.Body)
			if resp.StatusCode >= 300 {
				return fmt.Errorf("%w: %s returned %d", errors.ErrHostUnavailable, name, resp.StatusCode)
			}
			h.logger.Info("host command accepted", "command", name)
			return nil
		})
	})
}
