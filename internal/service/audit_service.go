package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"orderdesk/internal/model"
	"orderdesk/internal/repository"
)

type AuditLogResponse struct {
	ID         string `json:"id"`
	UserID     string `json:"user_id"`
	Action     string `json:"action"`
	EntityID   string `json:"entity_id"`
	EntityName string `json:"entity_name"`
	Details    string `json:"details"`
	CreatedAt  string `json:"created_at"`
}

// AuditService records order mutations. Recording never fails the mutation.
type AuditService interface {
	Record(ctx context.Context, userID, action, entityID, entityName string, details any)
	History(ctx context.Context, entityID string, limit int) ([]AuditLogResponse, error)
}

type auditService struct {
	repo repository.AuditRepository
}

// NewAuditService returns a recorder backed by repo, or a no-op recorder when repo is nil.
func NewAuditService(repo repository.AuditRepository) AuditService {
	return &auditService{repo: repo}
}

func (s *auditService) Record(ctx context.Context, userID, action, entityID, entityName string, details any) {
	if s.repo == nil {
		return
	}
	payload, err := json.Marshal(details)
	if err != nil {
		payload = []byte("{}")
	}
	entry := &model.AuditLog{
		UserID:     userID,
		Action:     action,
		EntityID:   entityID,
		EntityName: entityName,
		Details:    string(payload),
		CreatedAt:  time.Now(),
	}
	if err := s.repo.Log(ctx, entry); err != nil {
		log.Printf("audit: failed to record %s on %s: %v", action, entityID, err)
	}
}

func (s *auditService) History(ctx context.Context, entityID string, limit int) ([]AuditLogResponse, error) {
	if s.repo == nil {
		return []AuditLogResponse{}, nil
	}
	if limit <= 0 {
		limit = 50
	}

	logs, err := s.repo.ListByEntity(ctx, entityID, limit)
	if err != nil {
		return nil, err
	}

	res := make([]AuditLogResponse, 0, len(logs))
	for _, l := range logs {
		res = append(res, AuditLogResponse{
			ID:         l.ID.String(),
			UserID:     l.UserID,
			Action:     l.Action,
			EntityID:   l.EntityID,
			EntityName: l.EntityName,
			Details:    l.Details,
			CreatedAt:  l.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}
	return res, nil
}

// EventPublisher pushes change notifications to connected dashboards.
type EventPublisher interface {
	Publish(event string, data map[string]interface{})
}

type noopPublisher struct{}

func (noopPublisher) Publish(string, map[string]interface{}) {}
