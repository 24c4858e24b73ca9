package kafka

import (
	"strings"

	"dispatch-console/internal/service/intake"
)

// EventDTO is the wire form of a POS order event.
type EventDTO = intake.Event

// ToDomain normalizes an EventDTO into an intake.Event.
func ToDomain(dto EventDTO) intake.Event {
	dto.OrderID = strings.TrimSpace(dto.OrderID)
	dto.Status = strings.TrimSpace(dto.Status)
	return dto
}
