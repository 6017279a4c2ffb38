// internal/domain/models/refentry.go
package models

import "encoding/json"

// KeyIsDeleted is the soft-delete flag of a stored entry.
const KeyIsDeleted = "isDeleted"

// Meta is the bookkeeping shared by every reference entry. It is assigned when
// an entry is created; only IsDeleted changes afterwards, and only to true.
type Meta struct {
	ID        string `bson:"id" json:"id,omitempty"`
	IsDeleted bool   `bson:"isDeleted" json:"isDeleted"`
	CreatedOn string `bson:"createdOn,omitempty" json:"createdOn,omitempty"`
	CreatedBy string `bson:"createdBy" json:"createdBy"`
}

// ReasonCode is an entry of the reasonCodes sub-collection.
type ReasonCode struct {
	Meta       `bson:",inline"`
	ReasonCode string `bson:"reasonCode,omitempty" json:"reasonCode,omitempty" validate:"required"`
	ReasonName string `bson:"reasonName,omitempty" json:"reasonName,omitempty" validate:"required"`

	// Extra keeps fields this module does not model.
	Extra map[string]any `bson:",inline" json:"-"`
}

// Country shares the reasonCodes sub-collection with ReasonCode; its display
// name is stored under reasonName.
type Country struct {
	Meta        `bson:",inline"`
	CountryCode string `bson:"countryCode,omitempty" json:"countryCode,omitempty" validate:"required"`
	CountryName string `bson:"reasonName,omitempty" json:"reasonName,omitempty" validate:"required"`

	Extra map[string]any `bson:",inline" json:"-"`
}

// UnmarshalJSON accepts the display name as either reasonName or
// countryName.
func (c *Country) UnmarshalJSON(b []byte) error {
	type plain Country
	var aux struct {
		plain
		Name string `json:"countryName"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	*c = Country(aux.plain)
	if c.CountryName == "" {
		c.CountryName = aux.Name
	}
	return nil
}

// State references a Country by code and carries a copy of its name.
type State struct {
	Meta        `bson:",inline"`
	CountryCode string `bson:"countryCode,omitempty" json:"countryCode,omitempty" validate:"required"`
	CountryName string `bson:"countryName,omitempty" json:"countryName,omitempty" validate:"required"`
	StateCode   string `bson:"stateCode,omitempty" json:"stateCode,omitempty" validate:"required"`
	StateName   string `bson:"stateName,omitempty" json:"stateName,omitempty" validate:"required"`

	Extra map[string]any `bson:",inline" json:"-"`
}

// Caste is an entry of the castes sub-collection.
type Caste struct {
	Meta             `bson:",inline"`
	CasteName        string `bson:"casteName,omitempty" json:"casteName,omitempty" validate:"required"`
	CasteDescription string `bson:"casteDescription,omitempty" json:"casteDescription,omitempty" validate:"required"`

	Extra map[string]any `bson:",inline" json:"-"`
}
