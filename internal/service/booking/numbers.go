package booking

import (
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewBookingNumber returns ids like CB-MH3K2L0Q-9F1C04A2B7: a base36
// millisecond timestamp followed by 40 random bits. Two numbers minted in
// the same millisecond differ in the random part; the ledger's unique key
// catches the remaining collisions.
func NewBookingNumber(now time.Time) string {
	u := uuid.New()
	var b strings.Builder
	b.Grow(24)
	b.WriteString("CB-")
	b.WriteString(strings.ToUpper(strconv.FormatInt(now.UnixMilli(), 36)))
	b.WriteByte('-')
	b.WriteString(strings.ToUpper(hex.EncodeToString(u[:5])))
	return b.String()
}
