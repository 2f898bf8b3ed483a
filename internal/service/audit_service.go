package service

import (
	"context"
	"encoding/json"
	"fmt"

	"surveillance/internal/auth"
	"surveillance/internal/model"
	"surveillance/internal/repository"
	"surveillance/pkg/apperror"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// AuditEntry is one audit fact. UserID is nil for anonymous actions such as self-registration.
type AuditEntry struct {
	UserID   *uuid.UUID
	Action   string
	Target   string
	EntityID string
	Details  map[string]interface{}
}

// AuditRecorder writes audit rows inside the caller's transaction context.
type AuditRecorder interface {
	Record(ctx context.Context, entry AuditEntry) error
}

type AuditLogResponse struct {
	ID        string          `json:"id"`
	UserID    *string         `json:"user_id"`
	Username  string          `json:"username"`
	Action    string          `json:"action"`
	Target    string          `json:"target"`
	EntityID  string          `json:"entity_id"`
	Details   json.RawMessage `json:"details,omitempty"`
	Timestamp string          `json:"timestamp"`
}

type AuditService interface {
	AuditRecorder
	List(ctx context.Context, caller auth.Identity, action string, params ListParams) ([]AuditLogResponse, int64, error)
	Get(ctx context.Context, caller auth.Identity, id string) (AuditLogResponse, error)
}

type auditService struct {
	repo repository.AuditRepository
}

func NewAuditService(repo repository.AuditRepository) AuditService {
	return &auditService{repo: repo}
}

func (s *auditService) Record(ctx context.Context, entry AuditEntry) error {
	log := &model.AuditLog{
		UserID:   entry.UserID,
		Action:   entry.Action,
		Target:   entry.Target,
		EntityID: entry.EntityID,
	}
	if len(entry.Details) > 0 {
		details, err := json.Marshal(entry.Details)
		if err != nil {
			return fmt.Errorf("failed to encode audit details: %w", err)
		}
		log.Details = datatypes.JSON(details)
	}
	if err := s.repo.Log(ctx, log); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

func (s *auditService) List(ctx context.Context, caller auth.Identity, action string, params ListParams) ([]AuditLogResponse, int64, error) {
	if !caller.CanAdministerDistrict() {
		return nil, 0, apperror.Permission("audit log access requires an administrator role")
	}
	logs, total, err := s.repo.List(ctx, action, params.Page, params.Limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list audit logs: %w", err)
	}
	out := make([]AuditLogResponse, 0, len(logs))
	for i := range logs {
		out = append(out, toAuditResponse(&logs[i]))
	}
	return out, total, nil
}

func (s *auditService) Get(ctx context.Context, caller auth.Identity, id string) (AuditLogResponse, error) {
	if !caller.CanAdministerDistrict() {
		return AuditLogResponse{}, apperror.Permission("audit log access requires an administrator role")
	}
	logID, err := parseID(id, "audit log")
	if err != nil {
		return AuditLogResponse{}, err
	}
	entry, err := s.repo.FindByID(ctx, logID)
	if err != nil {
		return AuditLogResponse{}, lookupErr(err, "Audit log")
	}
	return toAuditResponse(entry), nil
}

func toAuditResponse(l *model.AuditLog) AuditLogResponse {
	resp := AuditLogResponse{
		ID:        l.ID.String(),
		UserID:    uuidString(l.UserID),
		Action:    l.Action,
		Target:    l.Target,
		EntityID:  l.EntityID,
		Timestamp: formatTime(l.CreatedAt),
	}
	if l.User != nil {
		resp.Username = l.User.Username
	}
	if len(l.Details) > 0 {
		resp.Details = json.RawMessage(l.Details)
	}
	return resp
}
