package reports

import "pet-admin-sync/internal/domain/entity"

// Status de un reporte de mascota perdida/encontrada.
type Status string

const (
	StatusPending  Status = "Pending"
	StatusMatched  Status = "Matched"
	StatusReunited Status = "Reunited"
)

type Action string

const (
	ActionApprove   Action = "approve"
	ActionMatch     Action = "match"
	ActionUnmatch   Action = "unmatch"
	ActionReunite   Action = "reunite"
	ActionReject    Action = "reject"
	ActionArchive   Action = "archive"
	ActionUnarchive Action = "unarchive"
)

// ReportType distingue mascota perdida de encontrada.
type ReportType string

const (
	TypeLost  ReportType = "lost"
	TypeFound ReportType = "found"
)

// Report. OwnerRef es quien lo envió.
type Report struct {
	entity.Meta

	Status Status     `json:"status"`
	Type   ReportType `json:"type"`

	PetName     string `json:"petName"`
	Species     string `json:"species"`
	Location    string `json:"location"`
	Description string `json:"description"`

	// Approved es el gate previo a cualquier match.
	Approved        bool   `json:"approved"`
	MatchedEntityID string `json:"matchedEntityId"`
}

func (r Report) Base() entity.Meta { return r.Meta }

func (r Report) WithMeta(m entity.Meta) Report {
	r.Meta = m
	return r
}

func (r Report) StatusName() string { return string(r.Status) }
