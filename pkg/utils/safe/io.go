package safe

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/secmon-lab/stackscout/pkg/utils/logging"
)

// Close closes closer and logs the failure instead of returning it. A nil
// closer is a no-op.
func Close(ctx context.Context, closer io.Closer) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		logging.From(ctx).Warn("close failed",
			slog.String("type", fmt.Sprintf("%T", closer)),
			slog.Any("error", err),
		)
	}
}

// Write writes data to w and logs a failed or short write. Used for
// response bodies where the status line has already been sent.
func Write(ctx context.Context, w io.Writer, data []byte) {
	if w == nil {
		return
	}
	n, err := w.Write(data)
	if err != nil {
		logging.From(ctx).Warn("write failed",
			slog.Int("written", n),
			slog.Int("size", len(data)),
			slog.Any("error", err),
		)
	}
}
