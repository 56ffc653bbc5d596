package domain

import (
	"crypto/sha256"
	"encoding/binary"
)

// SeedFromCharacterID はキャラクターIDから決定論的なシード値を生成します。
// 明示的なシード指定がなくても、同じキャラクターなら同じシードが使われます。
func SeedFromCharacterID(characterID string) int64 {
	hash := sha256.Sum256([]byte(characterID))
	seed := int64(binary.BigEndian.Uint32(hash[:4]))
	// 生成モデルのシード値は正の数が望ましいため、最上位ビットを落とします。
	return seed & 0x7FFFFFFF
}
