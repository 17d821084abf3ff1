// Package models holds the citizen registry domain types shared by stores,
// services and handlers.
package models

// Citizen is one resident record inside an import. citizen_id is unique
// within its import only; the pair (import_id, citizen_id) is the global key.
// Relatives lists first-order relative citizen_ids; duplicates are legal and
// represent separate relationship edges.
type Citizen struct {
	CitizenID int64   `json:"citizen_id" validate:"required,gte=0"`
	Town      string  `json:"town" validate:"required"`
	Street    string  `json:"street" validate:"required"`
	Building  string  `json:"building" validate:"required"`
	Apartment int64   `json:"apartment" validate:"gte=0"`
	Name      string  `json:"name" validate:"required"`
	BirthDate Date    `json:"birth_date" validate:"required"`
	Gender    string  `json:"gender" validate:"required,oneof=male female"`
	Relatives []int64 `json:"relatives" validate:"required"`
}

// CitizenPatch carries the optional fields of a PATCH request. Nil means
// "leave unchanged". citizen_id is deliberately absent: identity is immutable.
type CitizenPatch struct {
	Town      *string  `json:"town,omitempty"`
	Street    *string  `json:"street,omitempty"`
	Building  *string  `json:"building,omitempty"`
	Apartment *int64   `json:"apartment,omitempty"`
	Name      *string  `json:"name,omitempty"`
	BirthDate *Date    `json:"birth_date,omitempty"`
	Gender    *string  `json:"gender,omitempty"`
	Relatives *[]int64 `json:"relatives,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p CitizenPatch) Empty() bool {
	return p.Town == nil && p.Street == nil && p.Building == nil &&
		p.Apartment == nil && p.Name == nil && p.BirthDate == nil &&
		p.Gender == nil && p.Relatives == nil
}

// GiftCount is the number of presents one citizen owes in a given month.
type GiftCount struct {
	CitizenID int64 `json:"citizen_id"`
	Presents  int   `json:"presents"`
}

// GiftReport maps calendar month "1".."12" to the citizens buying presents
// that month. All twelve keys are always present, empty months included;
// ordering within a month carries no meaning.
type GiftReport map[string][]GiftCount

// Field names a projectable citizen attribute for partial reads.
type Field string

const (
	FieldBirthDate Field = "birth_date"
	FieldRelatives Field = "relatives"
)
