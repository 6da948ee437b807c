package domain

import "time"

// Team groups technicians that share a maintenance queue.
type Team struct {
	ID        string
	Name      string
	CreatedAt time.Time
}
