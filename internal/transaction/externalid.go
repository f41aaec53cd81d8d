package transaction

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

const externalIDTimeLayout = "20060102150405"

// NewExternalID builds TRX-{location}-{UTC timestamp}-{8 random hex chars}.
// The suffix comes from crypto/rand because the id is the only key the
// public polling endpoint needs.
func NewExternalID(locationID int64, at time.Time) (string, error) {
	var b [4]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", fmt.Errorf("reading random suffix: %w", err)
	}

	return fmt.Sprintf("TRX-%d-%s-%s",
		locationID,
		at.UTC().Format(externalIDTimeLayout),
		strings.ToUpper(hex.EncodeToString(b[:])),
	), nil
}
