package handler

import (
	"time"

	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/pkordes/dockgate/internal/domain"
)

// Visit is the wire form of domain.Visit.
type Visit struct {
	Id               openapi_types.UUID  `json:"id"`
	Purpose          string              `json:"purpose"`
	EntryType        string              `json:"entryType"`
	DriverName       string              `json:"driverName"`
	Phone            string              `json:"phone"`
	LicensePlate     string              `json:"licensePlate"`
	Company          string              `json:"company,omitempty"`
	VisitDate        *openapi_types.Date `json:"visitDate,omitempty"`
	SlotTime         *string             `json:"slotTime,omitempty"`
	PoNumber         *string             `json:"poNumber,omitempty"`
	Status           string              `json:"status"`
	CheckInTime      *time.Time          `json:"checkInTime,omitempty"`
	VerifiedTime     *time.Time          `json:"verifiedTime,omitempty"`
	CalledTime       *time.Time          `json:"calledTime,omitempty"`
	LoadingStartTime *time.Time          `json:"loadingStartTime,omitempty"`
	EndTime          *time.Time          `json:"endTime,omitempty"`
	ExitTime         *time.Time          `json:"exitTime,omitempty"`
	Gate             *string             `json:"gate,omitempty"`
	QueueNumber      *string             `json:"queueNumber,omitempty"`
	BookingCode      *string             `json:"bookingCode,omitempty"`
	DocumentUrl      *string             `json:"documentUrl,omitempty"`
	PhotoBeforeUrls  []string            `json:"photoBeforeUrls"`
	PhotoAfterUrls   []string            `json:"photoAfterUrls"`
	Notes            *string             `json:"notes,omitempty"`
	AdminNotes       *string             `json:"adminNotes,omitempty"`
	SecurityNotes    *string             `json:"securityNotes,omitempty"`
	RejectionReason  *string             `json:"rejectionReason,omitempty"`
	VerifiedBy       *string             `json:"verifiedBy,omitempty"`
	CalledBy         *string             `json:"calledBy,omitempty"`
	ExitVerifiedBy   *string             `json:"exitVerifiedBy,omitempty"`
	CreatedAt        time.Time           `json:"createdAt"`
	UpdatedAt        time.Time           `json:"updatedAt"`
}

// Pagination describes the page a list response holds.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}

// VisitList is the body of GET /visits.
type VisitList struct {
	Data       []Visit    `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// Overstay is one entry of GET /visits/overstays.
type Overstay struct {
	Visit          Visit   `json:"visit"`
	ElapsedMinutes int64   `json:"elapsedMinutes"`
	ElapsedHours   float64 `json:"elapsedHours"`
}

// Revision is the wire form of domain.Revision.
type Revision struct {
	Id        openapi_types.UUID `json:"id"`
	Field     string             `json:"field"`
	OldValue  string             `json:"oldValue"`
	NewValue  string             `json:"newValue"`
	Actor     string             `json:"actor"`
	CreatedAt time.Time          `json:"createdAt"`
}

// Activity is the wire form of domain.ActivityLog.
type Activity struct {
	Id        openapi_types.UUID  `json:"id"`
	VisitId   *openapi_types.UUID `json:"visitId,omitempty"`
	Actor     string              `json:"actor"`
	Action    string              `json:"action"`
	Details   string              `json:"details,omitempty"`
	CreatedAt time.Time           `json:"createdAt"`
}

// Gate is the wire form of domain.GateConfig.
type Gate struct {
	Id       string `json:"id"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Status   string `json:"status"`
	Capacity int    `json:"capacity"`
}

// GateWithOccupant is one entry of GET /gates.
type GateWithOccupant struct {
	Gate
	Occupant *Visit `json:"occupant,omitempty"`
}

// ---- request bodies ----------------------------------------------------------

// RegisterVisitRequest is the body of POST /visits.
type RegisterVisitRequest struct {
	Purpose      string              `json:"purpose"`
	EntryType    string              `json:"entryType"`
	DriverName   string              `json:"driverName"`
	Phone        string              `json:"phone"`
	LicensePlate string              `json:"licensePlate"`
	Company      string              `json:"company"`
	VisitDate    *openapi_types.Date `json:"visitDate"`
	SlotTime     string              `json:"slotTime"`
	PoNumber     string              `json:"poNumber"`
	Notes        string              `json:"notes"`
	Document     string              `json:"document"`
}

// ReasonRequest carries the mandatory reason of reject, cancel and similar actions.
type ReasonRequest struct {
	Reason string `json:"reason"`
}

// CheckInRequest is the body of POST /visits/{id}/check-in.
type CheckInRequest struct {
	Purpose      *string  `json:"purpose"`
	DriverName   *string  `json:"driverName"`
	Phone        *string  `json:"phone"`
	LicensePlate *string  `json:"licensePlate"`
	Company      *string  `json:"company"`
	Photos       []string `json:"photos"`
	Notes        string   `json:"notes"`
}

// CallRequest is the body of POST /visits/{id}/call.
type CallRequest struct {
	Gate string `json:"gate"`
}

// ExitRequest is the body of POST /visits/{id}/exit and /exit-override.
type ExitRequest struct {
	Reason string   `json:"reason"`
	Photos []string `json:"photos"`
}

// NoteRequest is the body of POST /visits/{id}/notes.
type NoteRequest struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// SaveGateRequest is the body of PUT /gates/{id}.
type SaveGateRequest struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Status   string `json:"status"`
	Capacity int    `json:"capacity"`
}

// ---- mapping helpers ---------------------------------------------------------

func visitToResponse(v domain.Visit) Visit {
	resp := Visit{
		Id:               v.ID,
		Purpose:          string(v.Purpose),
		EntryType:        string(v.EntryType),
		DriverName:       v.DriverName,
		Phone:            v.Phone,
		LicensePlate:     v.LicensePlate,
		Company:          v.Company,
		SlotTime:         optional(v.SlotTime),
		PoNumber:         optional(v.PONumber),
		Status:           string(v.Status),
		CheckInTime:      v.CheckInTime,
		VerifiedTime:     v.VerifiedTime,
		CalledTime:       v.CalledTime,
		LoadingStartTime: v.LoadingStartTime,
		EndTime:          v.EndTime,
		ExitTime:         v.ExitTime,
		Gate:             optional(v.Gate),
		QueueNumber:      optional(v.QueueNumber),
		BookingCode:      optional(v.BookingCode),
		DocumentUrl:      optional(v.DocumentURL),
		PhotoBeforeUrls:  nonNil(v.PhotoBeforeURLs),
		PhotoAfterUrls:   nonNil(v.PhotoAfterURLs),
		Notes:            optional(v.Notes),
		AdminNotes:       optional(v.AdminNotes),
		SecurityNotes:    optional(v.SecurityNotes),
		RejectionReason:  optional(v.RejectionReason),
		VerifiedBy:       optional(v.VerifiedBy),
		CalledBy:         optional(v.CalledBy),
		ExitVerifiedBy:   optional(v.ExitVerifiedBy),
		CreatedAt:        v.CreatedAt,
		UpdatedAt:        v.UpdatedAt,
	}
	if v.VisitDate != nil {
		resp.VisitDate = &openapi_types.Date{Time: *v.VisitDate}
	}
	return resp
}

func visitsToResponse(vs []domain.Visit) []Visit {
	out := make([]Visit, len(vs))
	for i, v := range vs {
		out[i] = visitToResponse(v)
	}
	return out
}

func gateToResponse(g domain.GateConfig) Gate {
	return Gate{Id: g.ID, Name: g.Name, Type: string(g.Type), Status: string(g.Status), Capacity: g.Capacity}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
