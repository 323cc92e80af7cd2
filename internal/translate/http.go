package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shohag/signalrelay/internal/config"
)

// HTTPTranslator speaks the public Google "gtx" translate protocol.
type HTTPTranslator struct {
	baseURL string
	client  *http.Client
}

func NewHTTP(cfg config.TranslateConfig) *HTTPTranslator {
	return &HTTPTranslator{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

func (t *HTTPTranslator) Translate(ctx context.Context, text, source, target string) (string, error) {
	sl, err := NormalizeLang(source)
	if err != nil {
		return "", fmt.Errorf("invalid source language %q: %w", source, err)
	}
	tl, err := NormalizeLang(target)
	if err != nil || tl == AutoDetect {
		return "", fmt.Errorf("invalid target language %q", target)
	}

	q := url.Values{}
	q.Set("client", "gtx")
	q.Set("sl", sl)
	q.Set("tl", tl)
	q.Set("dt", "t")
	q.Set("q", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.baseURL+"/translate_a/single?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("create translate request: %w", err)
	}

	start := time.Now()
	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("translate request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("translate returned status %d after %s", resp.StatusCode, time.Since(start))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read translate response: %w", err)
	}
	return parseGTX(body)
}

// parseGTX joins the translated segments of [[["out","in",...],...],...].
func parseGTX(body []byte) (string, error) {
	var root []json.RawMessage
	if err := json.Unmarshal(body, &root); err != nil {
		return "", fmt.Errorf("decode translate response: %w", err)
	}
	if len(root) == 0 {
		return "", ErrEmptyResult
	}

	var segments [][]any
	if err := json.Unmarshal(root[0], &segments); err != nil {
		return "", fmt.Errorf("decode translate segments: %w", err)
	}

	var b strings.Builder
	for _, seg := range segments {
		if len(seg) == 0 {
			continue
		}
		if s, ok := seg[0].(string); ok {
			b.WriteString(s)
		}
	}
	if b.Len() == 0 {
		return "", ErrEmptyResult
	}
	return b.String(), nil
}
