package pipeline

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shohag/signalrelay/internal/models"
)

const unknownSignalLabel = "未知訊號"

// DefaultSignalLabels maps the signal codes sent by the charting alerts to
// display labels.
var DefaultSignalLabels = map[string]string{
	"signal1":     "開多",
	"signal2":     "開空",
	"signal3":     "平多",
	"signal4":     "平空",
	"open_long":   "開多",
	"open_short":  "開空",
	"close_long":  "平多",
	"close_short": "平空",
}

type Formatter struct {
	labels map[string]string
}

// NewFormatter merges overrides on top of DefaultSignalLabels.
func NewFormatter(overrides map[string]string) *Formatter {
	labels := make(map[string]string, len(DefaultSignalLabels)+len(overrides))
	for k, v := range DefaultSignalLabels {
		labels[k] = v
	}
	for k, v := range overrides {
		labels[strings.ToLower(k)] = v
	}
	return &Formatter{labels: labels}
}

func (f *Formatter) Label(signal string) string {
	if l, ok := f.labels[strings.ToLower(strings.TrimSpace(signal))]; ok {
		return l
	}
	return unknownSignalLabel
}

// Message renders the chat text for ev: a header, a summary line when the
// payload carries a signal, then the payload itself.
func (f *Formatter) Message(ev models.Event) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📊 TradingView #%d\n", ev.ID)

	if signal := ev.Field("signal"); signal != "" {
		parts := []string{f.Label(signal)}
		if symbol := ev.Field("symbol"); symbol != "" {
			parts = append(parts, symbol)
		}
		if price := ev.Field("price"); price != "" {
			parts = append(parts, "@", price)
		}
		b.WriteString(strings.Join(parts, " "))
		b.WriteByte('\n')
	}

	b.WriteString(indentPayload(ev))
	return b.String()
}

func indentPayload(ev models.Event) string {
	var buf bytes.Buffer
	if len(ev.Raw) > 0 && json.Indent(&buf, ev.Raw, "", "  ") == nil {
		return buf.String()
	}
	out, err := json.MarshalIndent(ev.Payload, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", ev.Payload)
	}
	return string(out)
}
