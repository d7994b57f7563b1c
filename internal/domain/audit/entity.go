package audit

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ActorType string

const (
	ActorClient ActorType = "CLIENT"
	ActorAdmin  ActorType = "ADMIN"
	ActorSystem ActorType = "SYSTEM"
)

type EntityType string

const (
	EntityBooking      EntityType = "BOOKING"
	EntityPaymentProof EntityType = "PAYMENT_PROOF"
	EntityCalendarSlot EntityType = "CALENDAR_SLOT"
	EntityService      EntityType = "SERVICE"
	EntityPackage      EntityType = "PACKAGE"
	EntityAdmin        EntityType = "ADMIN"
)

type Action string

const (
	ActionCreated       Action = "CREATED"
	ActionUpdated       Action = "UPDATED"
	ActionDeleted       Action = "DELETED"
	ActionStatusChanged Action = "STATUS_CHANGED"
	ActionVerified      Action = "VERIFIED"
	ActionRejected      Action = "REJECTED"
	ActionCancelled     Action = "CANCELLED"
	ActionUploaded      Action = "UPLOADED"
	ActionDownloaded    Action = "DOWNLOADED"
	ActionLogin         Action = "LOGIN"
	ActionLogout        Action = "LOGOUT"
)

// Log is an append-only record. Rows are never updated or deleted by the application.
type Log struct {
	ID         string         `gorm:"type:varchar(36);primaryKey" json:"id"`
	ActorType  ActorType      `gorm:"size:20;not null;index" json:"actorType"`
	ActorID    *string        `gorm:"size:64" json:"actorId,omitempty"`
	ActorName  *string        `gorm:"size:200" json:"actorName,omitempty"`
	EntityType EntityType     `gorm:"size:30;not null;index:idx_audit_entity" json:"entityType"`
	EntityID   string         `gorm:"size:64;not null;index:idx_audit_entity" json:"entityId"`
	Action     Action         `gorm:"size:30;not null" json:"action"`
	OldValues  datatypes.JSON `json:"oldValues,omitempty"`
	NewValues  datatypes.JSON `json:"newValues,omitempty"`
	IPAddress  *string        `gorm:"size:64" json:"ipAddress,omitempty"`
	UserAgent  *string        `gorm:"size:512" json:"userAgent,omitempty"`
	CreatedAt  time.Time      `gorm:"not null;index" json:"createdAt"`
}

func (Log) TableName() string { return "audit_logs" }

func (l *Log) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	return nil
}

// Actor identifies who performed an action.
type Actor struct {
	Type ActorType
	ID   string
	Name string
}

func Client(name string) Actor { return Actor{Type: ActorClient, Name: name} }
func Admin(id, name string) Actor { return Actor{Type: ActorAdmin, ID: id, Name: name} }
func System() Actor { return Actor{Type: ActorSystem, Name: "system"} }

// Meta is request metadata attached to an audit record.
type Meta struct {
	IP        string
	UserAgent string
}

type Entry struct {
	Actor      Actor
	EntityType EntityType
	EntityID   string
	Action     Action
	Old        any
	New        any
	Meta       Meta
}
