package logging

import (
	"fmt"
	"log/slog"

	"github.com/Graylog2/go-gelf/gelf"
)

// NewGraylogHandler sends JSON records to a GELF UDP input at address.
// Each record becomes the short message of one GELF message.
func NewGraylogHandler(address, level string) (slog.Handler, error) {
	w, err := gelf.NewWriter(address)
	if err != nil {
		return nil, fmt.Errorf("error connecting to graylog at %s: %w", address, err)
	}
	return slog.NewJSONHandler(w, handlerOptions(parseLevel(level))), nil
}
