package probe

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"

	"github.com/loykin/deskshell/internal/metrics"
)

// DefaultTimeout bounds a single debug-endpoint probe.
const DefaultTimeout = 2 * time.Second

// Result reports the outcome of one debug-endpoint probe. A non-ready
// result is a warning, never a fatal condition: the browser may simply still
// be starting.
type Result struct {
	Ready           bool
	Browser         string
	ProtocolVersion string
	Detail          string
}

// Message renders the result for the upstream event payload.
func (r Result) Message() string {
	if r.Ready {
		return fmt.Sprintf("debug endpoint ready: %s (protocol %s)", r.Browser, r.ProtocolVersion)
	}
	return "debug endpoint not ready: " + r.Detail
}

// DebugEndpoint issues a single bounded GET against the remote-debugging
// version endpoint. 200 with a parseable JSON body is ready; any timeout,
// refusal, non-200 or parse failure is a warning-grade miss. There is no
// retry loop: one probe, one result.
func DebugEndpoint(ctx context.Context, host string, port int, path string, timeout time.Duration) Result {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	url := fmt.Sprintf("http://%s:%d%s", host, port, path)

	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(cctx, http.MethodGet, url, nil)
	if err != nil {
		return miss(fmt.Sprintf("bad probe target %s: %v", url, err))
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return miss(err.Error())
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return miss(fmt.Sprintf("unexpected status %d from %s", resp.StatusCode, url))
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return miss("read response: " + err.Error())
	}
	if !gjson.ValidBytes(body) {
		return miss("unparseable response body")
	}
	metrics.IncProbe("ready")
	return Result{
		Ready:           true,
		Browser:         gjson.GetBytes(body, "Browser").String(),
		ProtocolVersion: gjson.GetBytes(body, "Protocol-Version").String(),
	}
}

func miss(detail string) Result {
	metrics.IncProbe("miss")
	return Result{Detail: detail}
}

// ScheduleFallbackReady fires fn after delay as a safety net when no earlier
// ready signal was observed. The returned cancel func stops the timer; it is
// safe to call after firing.
func ScheduleFallbackReady(delay time.Duration, fn func()) (cancel func()) {
	t := time.AfterFunc(delay, fn)
	return func() { t.Stop() }
}
