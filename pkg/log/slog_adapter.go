package log

import (
	"context"
	"encoding/hex"
	"log/slog"
)

// SlogAdapter writes protocol events to an slog.Logger at Debug level.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a SlogAdapter writing to logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes the event.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("session", event.SessionID),
		slog.String("direction", event.Direction.String()),
		slog.String("layer", event.Layer.String()),
		slog.String("category", event.Category.String()),
	}

	if event.PeerAddress != "" {
		attrs = append(attrs, slog.String("peer", event.PeerAddress))
	}
	if event.ThingID != "" {
		attrs = append(attrs, slog.String("thing_id", event.ThingID))
	}
	if event.LanID != nil {
		attrs = append(attrs, slog.Int("lan_id", int(*event.LanID)))
	}

	switch {
	case event.Frame != nil:
		attrs = append(attrs,
			slog.Int("frame_size", event.Frame.Size),
			slog.String("frame", hex.EncodeToString(event.Frame.Data)),
		)
		if event.Frame.Truncated {
			attrs = append(attrs, slog.Bool("truncated", true))
		}
	case event.Message != nil:
		attrs = append(attrs,
			slog.String("kind", event.Message.Kind.String()),
			slog.String("protocol", event.Message.Protocol),
		)
		if len(event.Message.TinyID) > 0 {
			attrs = append(attrs, slog.String("tiny_id", hex.EncodeToString(event.Message.TinyID)))
		}
		if event.Message.ErrorCode != nil {
			attrs = append(attrs, slog.Int("error_code", *event.Message.ErrorCode))
		}
		if event.Message.HandlerTime != nil {
			attrs = append(attrs, slog.Duration("handler_time", *event.Message.HandlerTime))
		}
	case event.StateChange != nil:
		attrs = append(attrs,
			slog.String("entity", event.StateChange.Entity.String()),
			slog.String("old_state", event.StateChange.OldState),
			slog.String("new_state", event.StateChange.NewState),
		)
		if event.StateChange.Reason != "" {
			attrs = append(attrs, slog.String("reason", event.StateChange.Reason))
		}
	case event.Reassembly != nil:
		attrs = append(attrs,
			slog.String("signal", event.Reassembly.Signal.String()),
			slog.Int("dropped", event.Reassembly.Dropped),
		)
	case event.Error != nil:
		attrs = append(attrs,
			slog.String("error_layer", event.Error.Layer.String()),
			slog.String("error_msg", event.Error.Message),
			slog.String("error_context", event.Error.Context),
		)
		if event.Error.Code != nil {
			attrs = append(attrs, slog.Int("error_code", *event.Error.Code))
		}
	}

	a.logger.LogAttrs(context.Background(), slog.LevelDebug, "protocol", attrs...)
}

var _ Logger = (*SlogAdapter)(nil)
