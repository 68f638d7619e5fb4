package pets

import "pet-admin-sync/internal/domain/entity"

// Species define las especies soportadas.
// @Enum dog, cat
type Species string

const (
	SpeciesDog Species = "dog"
	SpeciesCat Species = "cat"
)

// Sex define el sexo de la mascota.
// @Enum male, female, unknown
type Sex string

const (
	SexMale    Sex = "male"
	SexFemale  Sex = "female"
	SexUnknown Sex = "unknown"
)

// Status de una publicación de mascota.
type Status string

const (
	StatusPending         Status = "pending"
	StatusAccepted        Status = "accepted"
	StatusAdoptionPending Status = "adoptionPending"
	StatusAdopted         Status = "adopted"
	StatusSold            Status = "sold"
)

type Action string

const (
	ActionAccept              Action = "accept"
	ActionReject              Action = "reject"
	ActionMarkAdoptionPending Action = "markAdoptionPending"
	ActionMarkAdopted         Action = "markAdopted"
	ActionMarkSold            Action = "markSold"
	ActionArchive             Action = "archive"
	ActionUnarchive           Action = "unarchive"
)

// ListingType: adopción (sin costo) o venta.
type ListingType string

const (
	ListingAdoption ListingType = "adoption"
	ListingSale     ListingType = "sale"
)

// Pet es una publicación de mascota. OwnerRef es quien la publica.
type Pet struct {
	entity.Meta

	Status  Status      `json:"status"`
	Listing ListingType `json:"listing"`

	Name    string  `json:"name"`
	Species Species `json:"species"`
	Breed   string  `json:"breed"`
	Sex     Sex     `json:"sex"`

	// Fee en la moneda de la plataforma; 0 para adopciones.
	Fee float64 `json:"fee"`

	Notes string `json:"notes,omitempty"`
}

func (p Pet) Base() entity.Meta { return p.Meta }

func (p Pet) WithMeta(m entity.Meta) Pet {
	p.Meta = m
	return p
}

func (p Pet) StatusName() string { return string(p.Status) }
