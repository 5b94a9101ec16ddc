// Package probe checks that the AI endpoint is reachable before the more
// expensive inference call is attempted.
package probe

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/lehigh-university-libraries/coverscan/internal/providers"
)

// Prompt is the fixed scripted prompt sent by the probe.
const Prompt = "This is a connectivity check. Reply with the single word: OK"

// OfflinePrefix starts every reply produced when the endpoint did not answer.
const OfflinePrefix = "offline: "

// Probe sends a trivial prompt to the AI endpoint.
type Probe struct {
	provider providers.Provider
	model    string
	timeout  time.Duration
}

// New returns a probe for provider. A zero timeout leaves the caller's deadline in charge.
func New(provider providers.Provider, model string, timeout time.Duration) *Probe {
	return &Probe{provider: provider, model: model, timeout: timeout}
}

// Check returns the endpoint's reply or a descriptive offline string. It
// never fails: every error is folded into the returned text.
func (p *Probe) Check(ctx context.Context) string {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	reply, err := p.provider.Generate(ctx, providers.Request{
		Model:       p.model,
		Prompt:      Prompt,
		Temperature: 0,
	})
	if err != nil {
		slog.Warn("AI endpoint probe failed", "err", err)
		return OfflinePrefix + err.Error()
	}

	reply = strings.TrimSpace(reply)
	if reply == "" {
		return OfflinePrefix + "empty reply"
	}

	slog.Debug("AI endpoint probe succeeded", "reply", reply)
	return reply
}

// Online reports whether a Check result came from a live endpoint.
func Online(liveness string) bool {
	return liveness != "" && !strings.HasPrefix(liveness, OfflinePrefix)
}
