package db

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"anchord/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AuditEventRepository struct {
	db *gorm.DB
}

func NewAuditEventRepository(db *gorm.DB) *AuditEventRepository {
	return &AuditEventRepository{db: db}
}

func (r *AuditEventRepository) Append(ctx context.Context, event domain.AuditEvent) error {
	if r.db == nil {
		return errDBUnavailable
	}
	if event.EventType == "" {
		return errors.New("event_type is required")
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Payload == nil {
		event.Payload = map[string]any{}
	}
	payloadJSON, err := json.Marshal(event.Payload)
	if err != nil {
		return err
	}
	sum := sha256.Sum256(payloadJSON)

	createdAt := event.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	model := AuditEventModel{
		ID:          event.ID,
		EventType:   event.EventType,
		PayloadJSON: payloadJSON,
		PayloadHash: hex.EncodeToString(sum[:]),
		CreatedAt:   createdAt.UTC(),
	}
	return r.db.WithContext(ctx).Create(&model).Error
}

func (r *AuditEventRepository) ListByType(ctx context.Context, eventType string) ([]domain.AuditEvent, error) {
	if r.db == nil {
		return nil, errDBUnavailable
	}
	var models []AuditEventModel
	if err := r.db.WithContext(ctx).
		Where("event_type = ?", eventType).
		Order("created_at ASC").
		Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]domain.AuditEvent, 0, len(models))
	for _, model := range models {
		payload := map[string]any{}
		if err := json.Unmarshal(model.PayloadJSON, &payload); err != nil {
			return nil, err
		}
		out = append(out, domain.AuditEvent{
			ID:          model.ID,
			EventType:   model.EventType,
			Payload:     payload,
			PayloadHash: model.PayloadHash,
			CreatedAt:   model.CreatedAt,
		})
	}
	return out, nil
}
