// Package translate adapts an external text-translation service. Translation is
// an enrichment only: callers go through Safe, which never fails.
package translate

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/panics"
	"golang.org/x/text/language"

	"github.com/shohag/signalrelay/internal/metrics"
)

// AutoDetect lets the service detect the source language.
const AutoDetect = "auto"

var ErrEmptyResult = errors.New("translate: empty result")

type Translator interface {
	Translate(ctx context.Context, text, source, target string) (string, error)
}

// Nop returns text unchanged.
type Nop struct{}

func (Nop) Translate(_ context.Context, text, _, _ string) (string, error) {
	return text, nil
}

// Safe translates text and falls back to the original on any error or panic.
// The second return value reports whether the text was actually translated.
func Safe(ctx context.Context, t Translator, text, source, target string, log zerolog.Logger) (string, bool) {
	if t == nil || strings.TrimSpace(text) == "" {
		return text, false
	}

	var (
		out string
		err error
	)
	if r := panics.Try(func() { out, err = t.Translate(ctx, text, source, target) }); r != nil {
		err = r.AsError()
	}
	if err == nil && strings.TrimSpace(out) == "" {
		err = ErrEmptyResult
	}
	if err != nil {
		metrics.Translations.WithLabelValues("fallback").Inc()
		log.Warn().Err(err).Str("source", source).Str("target", target).Msg("translation failed, using original text")
		return text, false
	}

	metrics.Translations.WithLabelValues("ok").Inc()
	return out, true
}

// NormalizeLang canonicalises a BCP 47 language code. "auto" is passed through.
func NormalizeLang(code string) (string, error) {
	code = strings.TrimSpace(code)
	if strings.EqualFold(code, AutoDetect) {
		return AutoDetect, nil
	}
	tag, err := language.Parse(code)
	if err != nil {
		return "", err
	}
	return tag.String(), nil
}
