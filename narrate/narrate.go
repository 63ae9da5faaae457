/*
Package narrate turns annotated track snapshots into short spoken guidance.
Phrasing is delegated to a remote chat-completion model; a deterministic
template fallback keeps guidance flowing when the model is unreachable.
*/
package narrate

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/visionvoice/go-visionvoice/ani"
	"github.com/visionvoice/go-visionvoice/depth"
)

const systemPrompt = "You convert object tracking data into spoken guidance " +
	"for a visually impaired pedestrian. Reply with one short sentence. " +
	"Mention the most urgent hazard first. Never list numbers or percentages. " +
	"If you are unsure, be cautious."

// Config holds the narration model settings
type Config struct {
	// Endpoint is the chat-completion URL
	Endpoint string
	// Model is the model identifier sent with each request
	Model string
	// APIKey authorizes requests via bearer token
	APIKey string
	// Timeout bounds a single request
	Timeout time.Duration
	// Retries is the number of additional attempts after a failure
	Retries int
	// MaxItems caps how many tracks are described per prompt
	MaxItems int
}

// DefaultConfig returns narration defaults
func DefaultConfig() Config {
	return Config{
		Endpoint: "https://api.groq.com/openai/v1/chat/completions",
		Model:    "llama-3.3-70b-versatile",
		Timeout:  15 * time.Second,
		Retries:  2,
		MaxItems: 10,
	}
}

// Narrator is the language model client used to phrase guidance
type Narrator struct {
	cfg    Config
	client *http.Client
	log    *logrus.Entry
}

// New creates a narrator.  Zero valued config fields fall back to defaults
func New(cfg Config) *Narrator {

	def := DefaultConfig()

	if cfg.Endpoint == "" {
		cfg.Endpoint = def.Endpoint
	}
	if cfg.Model == "" {
		cfg.Model = def.Model
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.Retries < 0 {
		cfg.Retries = def.Retries
	}
	if cfg.MaxItems <= 0 {
		cfg.MaxItems = def.MaxItems
	}

	return &Narrator{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		log:    logrus.WithField("component", "narrate"),
	}
}

// Describe asks the language model for one sentence of guidance covering
// the given tracks, most urgent first.  An empty snapshot returns no
// guidance and no error
func (n *Narrator) Describe(ctx context.Context, tracks []*ani.Track) (string, error) {

	if len(tracks) == 0 {
		return "", nil
	}

	if n.cfg.APIKey == "" {
		return "", fmt.Errorf("narration API key is not set")
	}

	body, err := n.buildRequest(tracks)
	if err != nil {
		return "", fmt.Errorf("building narration request: %w", err)
	}

	var lastErr error

	for attempt := 0; attempt <= n.cfg.Retries; attempt++ {

		if attempt > 0 {
			// exponential backoff between attempts
			delay := 500 * time.Millisecond << (attempt - 1)

			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(delay):
			}
		}

		content, err := n.post(ctx, body)
		if err == nil {
			return content, nil
		}

		lastErr = err
		n.log.WithError(err).WithField("attempt", attempt).Warn("narration request failed")
	}

	return "", fmt.Errorf("narration failed after %d attempts: %w", n.cfg.Retries+1, lastErr)
}

// buildRequest assembles the chat-completion payload
func (n *Narrator) buildRequest(tracks []*ani.Track) (string, error) {

	prompt := "Tracked objects, most urgent first:\n" + FormatTracks(tracks, n.cfg.MaxItems)

	body, err := sjson.Set("", "model", n.cfg.Model)
	if err != nil {
		return "", err
	}

	body, _ = sjson.Set(body, "temperature", 0.4)
	body, _ = sjson.Set(body, "max_tokens", 80)
	body, _ = sjson.Set(body, "messages.0.role", "system")
	body, _ = sjson.Set(body, "messages.0.content", systemPrompt)
	body, _ = sjson.Set(body, "messages.1.role", "user")
	body, _ = sjson.Set(body, "messages.1.content", prompt)

	return body, nil
}

// post sends one request and extracts the completion text
func (n *Narrator) post(ctx context.Context, body string) (string, error) {

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		n.cfg.Endpoint, strings.NewReader(body))
	if err != nil {
		return "", err
	}

	req.Header.Set("Authorization", "Bearer "+n.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("narration model returned %d: %s",
			resp.StatusCode, strings.TrimSpace(string(data)))
	}

	content := gjson.GetBytes(data, "choices.0.message.content").String()
	content = strings.Trim(strings.TrimSpace(content), `"'`)

	if content == "" {
		return "", fmt.Errorf("narration model returned an empty completion")
	}

	return content, nil
}

// FormatTracks renders tracks as prompt lines ordered by descending risk,
// then by id for a stable layout.  At most maxItems lines are produced
func FormatTracks(tracks []*ani.Track, maxItems int) string {

	ordered := make([]*ani.Track, len(tracks))
	copy(ordered, tracks)

	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Risk() != ordered[j].Risk() {
			return ordered[i].Risk() > ordered[j].Risk()
		}
		return ordered[i].ID() < ordered[j].ID()
	})

	if maxItems > 0 && len(ordered) > maxItems {
		ordered = ordered[:maxItems]
	}

	var b strings.Builder

	for _, t := range ordered {
		fmt.Fprintf(&b, "- %s: distance %s, %s, %s, risk %s\n",
			title(t.Label()), t.Bucket(), depth.Direction(t.Box()),
			t.Motion(), t.Risk())
	}

	return b.String()
}

// FallbackGuidance produces deterministic template guidance used when the
// language model is unreachable.  It names the single most urgent track
func FallbackGuidance(tracks []*ani.Track) string {

	var top *ani.Track

	for _, t := range tracks {
		if top == nil || t.Risk() > top.Risk() {
			top = t
		}
	}

	if top == nil || top.Risk() == ani.RiskNone {
		return "Environment clear. Safe to proceed."
	}

	dir := depth.Direction(top.Box())

	switch top.Risk() {
	case ani.RiskImminent:
		return fmt.Sprintf("Stop. %s %s, very close.", title(top.Label()), dir)
	case ani.RiskHigh:
		return fmt.Sprintf("Caution. %s %s, %s.", title(top.Label()), dir, top.Motion())
	case ani.RiskMedium:
		return fmt.Sprintf("%s %s, %s.", title(top.Label()), dir, top.Motion())
	default:
		return fmt.Sprintf("%s %s, close by.", title(top.Label()), dir)
	}
}

// title uppercases the first character of a label for readable phrasing
func title(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
