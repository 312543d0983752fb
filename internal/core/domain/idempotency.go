package domain

import (
	"time"

	"github.com/google/uuid"
)

// IdempotencyLog stores the response of an offer creation so that a retried
// request replays it instead of reserving funds twice.
type IdempotencyLog struct {
	Key          string    `json:"key"` // Format: "user_id:client_key"
	ResourceID   uuid.UUID `json:"resource_id"`
	ResponseJSON []byte    `json:"response_json"`
	CreatedAt    time.Time `json:"created_at"`
}

// BuildIdempotencyKey constructs the standard key format.
func BuildIdempotencyKey(userID uuid.UUID, clientKey string) string {
	return userID.String() + ":" + clientKey
}
