package instance

import (
	"os"

	"github.com/medibook/medibook-backend/pkg/env"
)

// GetID returns the worker instance identifier used in publisher logs.
// MEDIBOOK_INSTANCE_ID wins, then WORKER_ID, then the hostname.
func GetID() string {
	if id := env.FirstOf("", "MEDIBOOK_INSTANCE_ID", "WORKER_ID"); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "worker-0"
}
