package audit

import (
	"github.com/sage3280/tracker/pointer"
	"go.mongodb.org/mongo-driver/bson"
)

// The helpers below build the entries the rest of the system records, so
// action, category and detail keys stay consistent across call sites.

func LoginSucceeded(username string, ip, userAgent *string) Entry {
	return Entry{
		Action:    ActionLoginSucceeded,
		Category:  CategoryAuth,
		Username:  &username,
		IPAddress: ip,
		UserAgent: userAgent,
		Succeeded: true,
	}
}

func LoginFailed(username string, ip *string, reason string) Entry {
	return Entry{
		Action:       ActionLoginFailed,
		Category:     CategoryAuth,
		Username:     &username,
		IPAddress:    ip,
		Succeeded:    false,
		ErrorMessage: &reason,
	}
}

func UploadCreated(uploadId, filename string, username *string) Entry {
	return Entry{
		Action:       ActionUploadCreated,
		Category:     CategoryUpload,
		Username:     username,
		ResourceType: pointer.FromAny("upload"),
		ResourceId:   &uploadId,
		ResourceName: &filename,
		Succeeded:    true,
	}
}

func UploadProcessed(uploadId string, created, updated, failed int) Entry {
	return Entry{
		Action:       ActionUploadProcessed,
		Category:     CategoryUpload,
		ResourceType: pointer.FromAny("upload"),
		ResourceId:   &uploadId,
		Details: bson.M{
			"createdRows": created,
			"updatedRows": updated,
			"failedRows":  failed,
		},
		Succeeded: true,
	}
}

func UploadFailed(uploadId string, message string) Entry {
	return Entry{
		Action:       ActionUploadFailed,
		Category:     CategoryUpload,
		ResourceType: pointer.FromAny("upload"),
		ResourceId:   &uploadId,
		Succeeded:    false,
		ErrorMessage: &message,
	}
}

func UserCreated(userId, username string, createdBy *string) Entry {
	return Entry{
		Action:       ActionUserCreated,
		Category:     CategoryUser,
		Username:     createdBy,
		ResourceType: pointer.FromAny("user"),
		ResourceId:   &userId,
		ResourceName: &username,
		Succeeded:    true,
	}
}

func UserUpdated(userId string, updatedBy *string, details bson.M) Entry {
	return Entry{
		Action:       ActionUserUpdated,
		Category:     CategoryUser,
		Username:     updatedBy,
		ResourceType: pointer.FromAny("user"),
		ResourceId:   &userId,
		Details:      details,
		Succeeded:    true,
	}
}

func PatientDeleted(patientId string, username *string) Entry {
	return Entry{
		Action:       ActionPatientDeleted,
		Category:     CategoryPatient,
		Username:     username,
		ResourceType: pointer.FromAny("patient"),
		ResourceId:   &patientId,
		Succeeded:    true,
	}
}

func PatientContacted(patientId string, username *string) Entry {
	return Entry{
		Action:       ActionPatientContacted,
		Category:     CategoryPatient,
		Username:     username,
		ResourceType: pointer.FromAny("patient"),
		ResourceId:   &patientId,
		Succeeded:    true,
	}
}

func ReportExported(name string, username *string) Entry {
	return Entry{
		Action:       ActionReportExported,
		Category:     CategoryReport,
		Username:     username,
		ResourceName: &name,
		Succeeded:    true,
	}
}

func PopulationReclassified(count int, username *string) Entry {
	return Entry{
		Action:   ActionPopulationReclassified,
		Category: CategorySystem,
		Username: username,
		Details: bson.M{
			"count": count,
		},
		Succeeded: true,
	}
}
