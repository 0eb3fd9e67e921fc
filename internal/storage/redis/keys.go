package redis

import (
	"fmt"

	"github.com/gateward/gateward/internal/model"
)

// Key prefix for all verification data
const keyPrefix = "gateward"

// recordKey returns the Redis key for a PlayerRecord
func recordKey(id model.AccountID) string {
	return fmt.Sprintf("%s:record:%s", keyPrefix, id)
}

// recordKeyPattern matches every PlayerRecord key
func recordKeyPattern() string {
	return fmt.Sprintf("%s:record:*", keyPrefix)
}
