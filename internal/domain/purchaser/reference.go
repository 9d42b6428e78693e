package purchaser

import (
	"strings"

	"github.com/google/uuid"
)

// NewReference returns a short human friendly reference such as BK-1F3A9C0D.
// Guests use it to find their booking, order or registration again.
func NewReference(prefix string) string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return prefix + "-" + strings.ToUpper(id[:10])
}
