package api

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/Domenick1991/charterbooking/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestStatusFor_internalTakesPrecedence(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantKind string
	}{
		{"conflict", domain.ErrInsufficientInventory, http.StatusConflict, "conflict"},
		{"internal wrapping conflict", fmt.Errorf("%w: %w", domain.ErrInternal, domain.ErrConflict), http.StatusInternalServerError, "internal"},
		{"internal wrapping not found", fmt.Errorf("%w: %w", domain.ErrInternal, domain.ErrBookingNotFound), http.StatusInternalServerError, "internal"},
		{"internal helper", domain.Internal("decrement seats", domain.ErrFlightNotFound), http.StatusInternalServerError, "internal"},
		{"timeout", fmt.Errorf("%w: request canceled", domain.ErrTimeout), http.StatusGatewayTimeout, "timeout"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, kind := statusFor(tt.err)
			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.wantKind, kind)
		})
	}
}
