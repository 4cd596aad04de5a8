package vault

import (
	"encoding/binary"
	"encoding/hex"

	"github.com/google/uuid"
	"lukechampine.com/blake3"
)

// NewRequestID mints an opaque idempotency/correlation id for a vault
// operation, logged alongside the operation outcome so a caller's retried
// request can be matched back to the log line that actually executed it.
func NewRequestID() string { return uuid.NewString() }

// ReceiptID deterministically derives an identifier for a trade receipt:
// the hash of the vault, side and the open-time fields (size, locked
// quantity, open price) that make a receipt unique, so the same open never
// produces two different ids across a replay.
func ReceiptID(vaultIndex uint16, r Receipt) string {
	buf := make([]byte, 0, 2+1+8+8+8)
	buf = binary.BigEndian.AppendUint16(buf, vaultIndex)
	buf = append(buf, byte(r.Side))
	buf = binary.BigEndian.AppendUint64(buf, r.Size.Get())
	buf = binary.BigEndian.AppendUint64(buf, r.Locked.Get())
	buf = binary.BigEndian.AppendUint64(buf, r.OpenPrice.Get())
	sum := blake3.Sum256(buf)
	return hex.EncodeToString(sum[:])
}

// PositionID derives a deterministic identifier for a user's position slot
// from the user key and the position's structural key (kind, vault,
// strategy and, for trades, side).
func PositionID(userKey string, pos Position) string {
	buf := make([]byte, 0, len(userKey)+2+2+1)
	buf = append(buf, userKey...)
	buf = append(buf, byte(pos.Kind))
	buf = binary.BigEndian.AppendUint16(buf, pos.VaultIndex)
	buf = binary.BigEndian.AppendUint16(buf, pos.StrategyIndex)
	if pos.Kind == PositionTrading {
		buf = append(buf, byte(pos.Receipt.Side))
	}
	sum := blake3.Sum256(buf)
	return hex.EncodeToString(sum[:])
}
