package audit

import (
	"context"
	"encoding/json"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// Recorder writes audit records. Failures are logged and never returned:
// an audit write must not break the operation it describes.
type Recorder struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewRecorder(db *gorm.DB, log *zap.Logger) *Recorder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Recorder{db: db, log: log.Named("audit")}
}

// Record must be called after the surrounding transaction has committed.
func (r *Recorder) Record(ctx context.Context, e Entry) {
	row := Log{
		ActorType:  e.Actor.Type,
		ActorID:    optional(e.Actor.ID),
		ActorName:  optional(e.Actor.Name),
		EntityType: e.EntityType,
		EntityID:   e.EntityID,
		Action:     e.Action,
		OldValues:  r.marshal(e.Old),
		NewValues:  r.marshal(e.New),
		IPAddress:  optional(e.Meta.IP),
		UserAgent:  optional(e.Meta.UserAgent),
	}

	if err := r.db.WithContext(context.WithoutCancel(ctx)).Create(&row).Error; err != nil {
		r.log.Warn("failed to create audit log",
			zap.String("entity_type", string(e.EntityType)),
			zap.String("entity_id", e.EntityID),
			zap.String("action", string(e.Action)),
			zap.Error(err),
		)
	}
}

// StatusChange records a status transition of any entity.
func (r *Recorder) StatusChange(ctx context.Context, actor Actor, entity EntityType, id, from, to string, meta Meta) {
	r.Record(ctx, Entry{
		Actor:      actor,
		EntityType: entity,
		EntityID:   id,
		Action:     ActionStatusChanged,
		Old:        map[string]string{"status": from},
		New:        map[string]string{"status": to},
		Meta:       meta,
	})
}

type Filter struct {
	EntityType EntityType
	EntityID   string
	Limit      int
}

// List returns the newest records first.
func (r *Recorder) List(ctx context.Context, f Filter) ([]Log, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	q := r.db.WithContext(ctx).Model(&Log{})
	if f.EntityType != "" {
		q = q.Where("entity_type = ?", f.EntityType)
	}
	if f.EntityID != "" {
		q = q.Where("entity_id = ?", f.EntityID)
	}

	var logs []Log
	if err := q.Order("created_at DESC").Limit(limit).Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

func (r *Recorder) marshal(v any) datatypes.JSON {
	if v == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		r.log.Warn("failed to marshal audit values", zap.Error(err))
		return nil
	}
	return datatypes.JSON(b)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// MetaFromGin extracts client IP and user agent from the request.
func MetaFromGin(c *gin.Context) Meta {
	return Meta{IP: c.ClientIP(), UserAgent: c.Request.UserAgent()}
}
