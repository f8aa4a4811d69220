package instance

import "github.com/angelmondragon/gigbook-backend/pkg/env"

// GetID identifies the running process: the platform dyno name when set,
// then WORKER_ID, then "local".
func GetID() string {
	if id, ok := env.First("DYNO", "WORKER_ID"); ok {
		return id
	}
	return "local"
}
