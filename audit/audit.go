// Package audit keeps the append-only action log: who did what to which
// resource, when and from where. Entries are never updated or deleted.
package audit

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const CollectionName = "audit_log"

type Category string

const (
	CategoryAuth    Category = "auth"
	CategoryPatient Category = "patient"
	CategoryUpload  Category = "upload"
	CategoryUser    Category = "user"
	CategoryReport  Category = "report"
	CategorySystem  Category = "system"
)

// Action names are namespaced by category so log queries can match on
// prefixes.
type Action string

const (
	ActionLoginSucceeded Action = "auth.login.success"
	ActionLoginFailed    Action = "auth.login.failed"
	ActionLogout         Action = "auth.logout"

	ActionPatientCreated   Action = "patient.created"
	ActionPatientUpdated   Action = "patient.updated"
	ActionPatientDeleted   Action = "patient.deleted"
	ActionPatientContacted Action = "patient.contacted"

	ActionUploadCreated   Action = "upload.created"
	ActionUploadProcessed Action = "upload.processed"
	ActionUploadFailed    Action = "upload.failed"

	ActionUserCreated Action = "user.created"
	ActionUserUpdated Action = "user.updated"

	ActionReportExported Action = "report.exported"

	ActionPopulationReclassified Action = "system.reclassified"
)

type Entry struct {
	Id       *primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Action   Action              `bson:"action" json:"action"`
	Category Category            `bson:"category" json:"category"`

	// Username at the time of the action. Nil for system actions.
	Username *string `bson:"username,omitempty" json:"username,omitempty"`

	ResourceType *string `bson:"resourceType,omitempty" json:"resourceType,omitempty"`
	ResourceId   *string `bson:"resourceId,omitempty" json:"resourceId,omitempty"`
	ResourceName *string `bson:"resourceName,omitempty" json:"resourceName,omitempty"`

	IPAddress *string `bson:"ipAddress,omitempty" json:"ipAddress,omitempty"`
	UserAgent *string `bson:"userAgent,omitempty" json:"userAgent,omitempty"`

	Details bson.M `bson:"details,omitempty" json:"details,omitempty"`

	Succeeded    bool    `bson:"succeeded" json:"succeeded"`
	ErrorMessage *string `bson:"errorMessage,omitempty" json:"errorMessage,omitempty"`

	CreatedTime time.Time `bson:"createdTime,omitempty" json:"createdTime"`
}

type Filter struct {
	Action   *Action
	Category *Category
	Username *string
	From     *time.Time
	To       *time.Time
}
