package calendar

import (
	"context"
	"encoding/json"
	"fmt"

	"Karion/internal/domain/models"
	xhttp "Karion/pkg/http"
	pkgkafka "Karion/pkg/kafka"
	applogger "Karion/pkg/logger"
)

// UpdateHandler consumes calendar updates from Kafka and replaces the schedule.
type UpdateHandler struct {
	topic string
	cal   *Calendar
	l     *applogger.Logger
}

func NewUpdateHandler(topic string, cal *Calendar, l *applogger.Logger) *UpdateHandler {
	return &UpdateHandler{topic: topic, cal: cal, l: applogger.OrNop(l).Component("calendar")}
}

func (h *UpdateHandler) Topic() string { return h.topic }

// Handle rejects the whole update when any event is malformed.
func (h *UpdateHandler) Handle(ctx context.Context, data []byte) error {
	var upd models.CalendarUpdate
	if err := json.Unmarshal(data, &upd); err != nil {
		return fmt.Errorf("decode calendar update: %w", err)
	}
	if err := xhttp.ValidateStruct(ctx, &upd); err != nil {
		return fmt.Errorf("invalid calendar update: %w", err)
	}
	for _, e := range upd.Events {
		if _, err := e.Hour(); err != nil {
			return fmt.Errorf("invalid calendar update: %w", err)
		}
	}
	h.cal.Replace(upd.Events)
	h.l.Info("calendar replaced", applogger.Int("events", len(upd.Events)))
	return nil
}

var _ pkgkafka.MessageHandler = (*UpdateHandler)(nil)
