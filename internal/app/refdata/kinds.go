package refdata

import (
	"context"
	"fmt"
	"strings"

	"github.com/dalemusser/refhub/internal/domain/models"
	"go.uber.org/zap"
)

// Kind labels.
const (
	KindReasonCode = "reason_code"
	KindCountry    = "country"
	KindState      = "state"
	KindCaste      = "caste"
)

// ReasonCodeSchema describes entries of the reasonCodes sub-collection that
// carry a reasonCode.
func ReasonCodeSchema() Schema[models.ReasonCode] {
	code := Field[models.ReasonCode]{
		Name:    "reasonCode",
		Get:     func(e *models.ReasonCode) string { return e.ReasonCode },
		Set:     func(e *models.ReasonCode, v string) { e.ReasonCode = v },
		Changed: "Changing reasonCode is not allowed. You can only update the reasonName.",
	}
	name := Field[models.ReasonCode]{
		Name: "reasonName",
		Get:  func(e *models.ReasonCode) string { return e.ReasonName },
		Set:  func(e *models.ReasonCode, v string) { e.ReasonName = v },
	}
	return Schema[models.ReasonCode]{
		Kind:         KindReasonCode,
		Collection:   models.CollReasonCodes,
		Meta:         func(e *models.ReasonCode) *models.Meta { return &e.Meta },
		Owns:         func(e *models.ReasonCode) bool { return e.ReasonCode != "" },
		Identifying:  []Field[models.ReasonCode]{code},
		Mutable:      []Field[models.ReasonCode]{name},
		EditAny:      []Field[models.ReasonCode]{code, name},
		DuplicateOn:  []Field[models.ReasonCode]{code},
		DuplicateMsg: func(*models.ReasonCode) string { return "Duplicate reasonCode found" },
		Guard:        GuardChanged,
		Messages: Messages{
			Required:        "reasonCode and reasonName are required and cannot be empty",
			EditMissingID:   "ID is required for editing a reason code",
			EditRequired:    "At least reasonCode or reasonName must be provided for update",
			DeleteMissingID: "ID is required for deleting a reason code",
			NotFound:        "Reason code with provided ID not found",
			NoChange:        "No changes detected in reasonName",
			EditDeleted:     "Reason code is deleted and cannot be edited",
			AlreadyDeleted:  "Reason code is already deleted",
			DeleteGuard:     "You cannot modify reasonCode or reasonName while deleting.",
			Deleted:         "Reason code marked as deleted successfully",
		},
	}
}

// CountrySchema describes country entries. Countries live in collection
// (reasonCodes in existing deployments) and store their name as reasonName.
func CountrySchema(collection string) Schema[models.Country] {
	code := Field[models.Country]{
		Name:    "countryCode",
		Get:     func(e *models.Country) string { return e.CountryCode },
		Set:     func(e *models.Country, v string) { e.CountryCode = v },
		Changed: "Changing countryCode is not allowed. You can only update the countryName.",
	}
	name := Field[models.Country]{
		Name: "reasonName",
		Get:  func(e *models.Country) string { return e.CountryName },
		Set:  func(e *models.Country, v string) { e.CountryName = v },
	}
	return Schema[models.Country]{
		Kind:         KindCountry,
		Collection:   collection,
		Meta:         func(e *models.Country) *models.Meta { return &e.Meta },
		Owns:         func(e *models.Country) bool { return e.CountryCode != "" },
		Identifying:  []Field[models.Country]{code},
		Mutable:      []Field[models.Country]{name},
		EditAny:      []Field[models.Country]{code, name},
		DuplicateOn:  []Field[models.Country]{code},
		DuplicateMsg: func(*models.Country) string { return "Duplicate countryCode found" },
		Guard:        GuardPresent,
		Messages: Messages{
			Required:        "countryCode and countryName are required and cannot be empty",
			EditMissingID:   "ID is required for editing a country",
			EditRequired:    "At least countryCode or countryName must be provided for update",
			DeleteMissingID: "ID is required for deleting a country",
			NotFound:        "Country with provided ID not found",
			NoChange:        "No changes detected in countryName",
			EditDeleted:     "Country is deleted and cannot be edited",
			AlreadyDeleted:  "Country is already deleted",
			DeleteGuard:     "Only deletion is allowed. Cannot modify country code or name during deletion.",
			Deleted:         "Country deleted successfully",
		},
	}
}

// StateSchema describes entries of the states sub-collection. A state's
// countryCode/countryName must match a live country in countryCollection.
func StateSchema(countryCollection string) Schema[models.State] {
	countryCode := Field[models.State]{
		Name:    "countryCode",
		Get:     func(e *models.State) string { return e.CountryCode },
		Set:     func(e *models.State, v string) { e.CountryCode = v },
		Changed: "Changing countryCode is not allowed. You can only update the countryName and stateName.",
	}
	stateCode := Field[models.State]{
		Name:    "stateCode",
		Get:     func(e *models.State) string { return e.StateCode },
		Set:     func(e *models.State, v string) { e.StateCode = v },
		Changed: "Changing stateCode is not allowed. You can only update the countryName and stateName.",
	}
	countryName := Field[models.State]{
		Name: "countryName",
		Get:  func(e *models.State) string { return e.CountryName },
		Set:  func(e *models.State, v string) { e.CountryName = v },
	}
	stateName := Field[models.State]{
		Name: "stateName",
		Get:  func(e *models.State) string { return e.StateName },
		Set:  func(e *models.State, v string) { e.StateName = v },
	}
	return Schema[models.State]{
		Kind:        KindState,
		Collection:  models.CollStates,
		Meta:        func(e *models.State) *models.Meta { return &e.Meta },
		Identifying: []Field[models.State]{countryCode, stateCode},
		Mutable:     []Field[models.State]{countryName, stateName},
		EditAny:     []Field[models.State]{countryName, stateName},
		DuplicateOn: []Field[models.State]{stateCode},
		Scope: func(candidate, existing *models.State) bool {
			return sameFold(candidate.CountryCode, existing.CountryCode)
		},
		DuplicateMsg: func(e *models.State) string {
			return fmt.Sprintf("Duplicate stateCode %q found for country %q", e.StateCode, e.CountryCode)
		},
		Parent: &ParentRef[models.State]{
			Label:      "Country",
			Collection: countryCollection,
			CodeKey:    "countryCode",
			NameKey:    "reasonName",
			Code:       countryCode,
			Name:       countryName,
		},
		Guard: GuardPresent,
		Messages: Messages{
			Required:        "countryCode, countryName, stateCode, and stateName are required and cannot be empty",
			EditMissingID:   "ID is required for editing a state",
			EditRequired:    "At least one field (countryName or stateName) must be provided for update",
			DeleteMissingID: "ID is required for deleting a state",
			NotFound:        "State with provided ID not found",
			NoChange:        "No changes detected in state data",
			EditDeleted:     "State is deleted and cannot be edited",
			AlreadyDeleted:  "State is already deleted",
			DeleteGuard:     "Only deletion is allowed. Cannot modify state data during deletion.",
			Deleted:         "State deleted successfully",
		},
	}
}

// CasteSchema describes entries of the castes sub-collection. casteName is
// unique but may be renamed.
func CasteSchema() Schema[models.Caste] {
	name := Field[models.Caste]{
		Name: "casteName",
		Get:  func(e *models.Caste) string { return e.CasteName },
		Set:  func(e *models.Caste, v string) { e.CasteName = v },
	}
	desc := Field[models.Caste]{
		Name: "casteDescription",
		Get:  func(e *models.Caste) string { return e.CasteDescription },
		Set:  func(e *models.Caste, v string) { e.CasteDescription = v },
	}
	return Schema[models.Caste]{
		Kind:         KindCaste,
		Collection:   models.CollCastes,
		Meta:         func(e *models.Caste) *models.Meta { return &e.Meta },
		Mutable:      []Field[models.Caste]{name, desc},
		EditAny:      []Field[models.Caste]{name, desc},
		DuplicateOn:  []Field[models.Caste]{name},
		DuplicateMsg: func(*models.Caste) string { return "Duplicate casteName found" },
		Recheck:      []Field[models.Caste]{name},
		Guard:        GuardPresent,
		Messages: Messages{
			Required:        "casteName and casteDescription are required and cannot be empty",
			EditMissingID:   "ID is required for editing a caste",
			EditRequired:    "At least casteName or casteDescription must be provided for update",
			DeleteMissingID: "ID is required for deleting a caste",
			NotFound:        "Caste with provided ID not found",
			NoChange:        "No changes detected in caste data",
			EditDeleted:     "Caste is deleted and cannot be edited",
			AlreadyDeleted:  "Caste is already deleted",
			DeleteGuard:     "Only deletion is allowed. Cannot modify caste data during deletion.",
			Deleted:         "Caste deleted successfully",
			NameTaken:       "casteName already exists",
		},
	}
}

// StateEngine adds country-scoped reads to the state engine.
type StateEngine struct {
	*Engine[models.State]
}

// GetByCountry returns the active states of one country. The country code is
// matched case-insensitively and echoed in the result.
func (se *StateEngine) GetByCountry(ctx context.Context, p Principal, countryCode string) (Result, error) {
	countryCode = strings.TrimSpace(countryCode)
	if countryCode == "" {
		return Result{}, invalid("Country code is required")
	}
	res, err := se.List(ctx, p, func(s *models.State) bool {
		return !s.IsDeleted && sameFold(s.CountryCode, countryCode)
	})
	if err != nil || !res.Status {
		return res, err
	}
	res.CountryCode = countryCode
	return res, nil
}

// Engines bundles one engine per entity kind over a shared gateway.
type Engines struct {
	ReasonCodes *Engine[models.ReasonCode]
	Countries   *Engine[models.Country]
	States      *StateEngine
	Castes      *Engine[models.Caste]
}

// NewEngines builds the four engines. countryCollection selects where country
// entries are stored; empty means reasonCodes.
func NewEngines(gw Gateway, countryCollection string, logger *zap.Logger, opts ...Option) *Engines {
	if countryCollection == "" {
		countryCollection = models.CollReasonCodes
	}
	return &Engines{
		ReasonCodes: NewEngine(ReasonCodeSchema(), gw, logger, opts...),
		Countries:   NewEngine(CountrySchema(countryCollection), gw, logger, opts...),
		States:      &StateEngine{NewEngine(StateSchema(countryCollection), gw, logger, opts...)},
		Castes:      NewEngine(CasteSchema(), gw, logger, opts...),
	}
}
