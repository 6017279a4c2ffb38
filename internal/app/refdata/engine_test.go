package refdata_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/dalemusser/refhub/internal/app/refdata"
	"github.com/dalemusser/refhub/internal/domain/models"
	"go.uber.org/zap"
)

const (
	tenant    = "ACME"
	createdOn = "2025-09-17T08:30:45.912124364"
)

var who = refdata.Principal{TenantCode: tenant, ActorID: "EMP001"}

func seqID(seq int) string { return fmt.Sprintf("%024x", seq) }

func newOrg() models.Organization {
	return models.Organization{
		"_id":        "665f1c2e9b1d4a0012345678",
		"tenant":     "acme-tenant",
		"tenantCode": tenant,
		"name":       "Acme Corp",
	}
}

func setup(t *testing.T, docs ...models.Organization) (*refdata.Engines, *refdata.MemoryGateway) {
	t.Helper()
	if len(docs) == 0 {
		docs = []models.Organization{newOrg()}
	}
	gw := refdata.NewMemoryGateway(docs...)
	eng := refdata.NewEngines(gw, "", zap.NewNop(),
		refdata.WithIDGenerator(seqID),
		refdata.WithClock(func() string { return createdOn }),
	)
	return eng, gw
}

func entries(t *testing.T, gw *refdata.MemoryGateway, key string) []map[string]any {
	t.Helper()
	doc := gw.Get(tenant)
	if doc == nil {
		t.Fatalf("no document stored for %s", tenant)
	}
	list, err := doc.Entries(key)
	if err != nil {
		t.Fatalf("Entries(%s): %v", key, err)
	}
	return list
}

// mustOK is called as mustOK(t)(eng.X.Op(...)).
func mustOK(t *testing.T) func(refdata.Result, error) refdata.Result {
	t.Helper()
	return func(res refdata.Result, err error) refdata.Result {
		t.Helper()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !res.Status {
			t.Fatalf("unexpected failure: %q", res.Error)
		}
		return res
	}
}

func mustFail(t *testing.T, res refdata.Result, err error, want string) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Status {
		t.Fatalf("expected failure %q, got success", want)
	}
	if res.Error != want {
		t.Errorf("error = %q, want %q", res.Error, want)
	}
}

func addCountry(t *testing.T, eng *refdata.Engines, code, name string) string {
	t.Helper()
	ctx := context.Background()
	mustOK(t)(eng.Countries.Create(ctx, who, models.Country{CountryCode: code, CountryName: name}))
	res := mustOK(t)(eng.Countries.GetAll(ctx, who))
	for _, c := range res.Data.([]models.Country) {
		if c.CountryCode == code {
			return c.ID
		}
	}
	t.Fatalf("country %s not found after create", code)
	return ""
}

/*─────────────────────────────────────────────────────────────────────────────*
| Create                                                                       |
*─────────────────────────────────────────────────────────────────────────────*/

func TestCaste_EndToEnd(t *testing.T) {
	eng, gw := setup(t)
	ctx := context.Background()

	res := mustOK(t)(eng.Castes.Create(ctx, who, models.Caste{CasteName: "A", CasteDescription: "d"}))
	if res.TenantCode != tenant {
		t.Errorf("tenantCode = %q, want %q", res.TenantCode, tenant)
	}
	if _, ok := res.Data.(models.Organization); !ok {
		t.Errorf("data = %T, want models.Organization", res.Data)
	}

	list := entries(t, gw, models.CollCastes)
	if len(list) != 1 {
		t.Fatalf("castes = %d, want 1", len(list))
	}
	got := list[0]
	if got["id"] != seqID(1) {
		t.Errorf("id = %v, want %s", got["id"], seqID(1))
	}
	if got["isDeleted"] != false {
		t.Errorf("isDeleted = %v, want false", got["isDeleted"])
	}
	if got["createdOn"] != createdOn {
		t.Errorf("createdOn = %v", got["createdOn"])
	}
	if got["createdBy"] != "EMP001" {
		t.Errorf("createdBy = %v, want EMP001", got["createdBy"])
	}

	res, err := eng.Castes.Create(ctx, who, models.Caste{CasteName: "A", CasteDescription: "d2"})
	mustFail(t, res, err, "Duplicate casteName found")

	res, err = eng.Castes.Create(ctx, who, models.Caste{CasteName: "a", CasteDescription: "d3"})
	mustFail(t, res, err, "Duplicate casteName found")

	if n := len(entries(t, gw, models.CollCastes)); n != 1 {
		t.Errorf("castes after rejected creates = %d, want 1", n)
	}
}

func TestCreate_RequiredFields(t *testing.T) {
	eng, gw := setup(t)
	ctx := context.Background()

	tests := []struct {
		name string
		run  func() (refdata.Result, error)
		want string
	}{
		{"reason code blank name", func() (refdata.Result, error) {
			return eng.ReasonCodes.Create(ctx, who, models.ReasonCode{ReasonCode: "R1", ReasonName: "   "})
		}, "reasonCode and reasonName are required and cannot be empty"},
		{"country missing code", func() (refdata.Result, error) {
			return eng.Countries.Create(ctx, who, models.Country{CountryName: "India"})
		}, "countryCode and countryName are required and cannot be empty"},
		{"state missing state name", func() (refdata.Result, error) {
			return eng.States.Create(ctx, who, models.State{CountryCode: "IN", CountryName: "India", StateCode: "KA"})
		}, "countryCode, countryName, stateCode, and stateName are required and cannot be empty"},
		{"caste whitespace only", func() (refdata.Result, error) {
			return eng.Castes.Create(ctx, who, models.Caste{CasteName: "\t", CasteDescription: " "})
		}, "casteName and casteDescription are required and cannot be empty"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.run()
			if !refdata.IsValidation(err) {
				t.Fatalf("err = %v, want ValidationError", err)
			}
			if err.Error() != tc.want {
				t.Errorf("err = %q, want %q", err.Error(), tc.want)
			}
		})
	}

	if fetches, saves := gw.Counts(); fetches != 0 || saves != 0 {
		t.Errorf("invalid input reached the gateway: fetches=%d saves=%d", fetches, saves)
	}
}

func TestCreate_TrimsValues(t *testing.T) {
	eng, gw := setup(t)
	mustOK(t)(eng.ReasonCodes.Create(context.Background(), who, models.ReasonCode{ReasonCode: "  R1 ", ReasonName: " Late "}))
	got := entries(t, gw, models.CollReasonCodes)[0]
	if got["reasonCode"] != "R1" || got["reasonName"] != "Late" {
		t.Errorf("stored %v / %v, want trimmed values", got["reasonCode"], got["reasonName"])
	}
}

func TestCreate_TenantAndDocumentResolution(t *testing.T) {
	eng, _ := setup(t)
	ctx := context.Background()
	payload := models.Caste{CasteName: "A", CasteDescription: "d"}

	_, err := eng.Castes.Create(ctx, refdata.Principal{ActorID: "EMP001"}, payload)
	if !errors.Is(err, refdata.ErrTenantRequired) {
		t.Errorf("no tenant: err = %v, want ErrTenantRequired", err)
	}

	_, err = eng.Castes.Create(ctx, refdata.Principal{TenantCode: "OTHER"}, payload)
	if !errors.Is(err, refdata.ErrOrganizationNotFound) {
		t.Errorf("unknown tenant: err = %v, want ErrOrganizationNotFound", err)
	}
}

func TestCreate_EmptyActorIsAllowed(t *testing.T) {
	eng, gw := setup(t)
	mustOK(t)(eng.Castes.Create(context.Background(), refdata.Principal{TenantCode: tenant}, models.Caste{CasteName: "A", CasteDescription: "d"}))
	if got := entries(t, gw, models.CollCastes)[0]["createdBy"]; got != "" {
		t.Errorf("createdBy = %v, want empty", got)
	}
}

func TestCreate_GetByID_RoundTrip(t *testing.T) {
	eng, _ := setup(t)
	ctx := context.Background()

	mustOK(t)(eng.ReasonCodes.Create(ctx, who, models.ReasonCode{ReasonCode: "R1", ReasonName: "Late arrival"}))

	res := mustOK(t)(eng.ReasonCodes.GetByID(ctx, who, seqID(1)))
	rc, ok := res.Data.(models.ReasonCode)
	if !ok {
		t.Fatalf("data = %T, want models.ReasonCode", res.Data)
	}
	if rc.ReasonCode != "R1" || rc.ReasonName != "Late arrival" {
		t.Errorf("got %+v", rc)
	}
	if rc.IsDeleted {
		t.Error("new entry should not be deleted")
	}
	if rc.CreatedBy != "EMP001" || rc.CreatedOn != createdOn {
		t.Errorf("meta = %+v", rc.Meta)
	}
}

func TestCreate_IDSkipsTakenValues(t *testing.T) {
	org := newOrg()
	org[models.CollCastes] = []any{
		map[string]any{"id": seqID(2), "casteName": "Old", "casteDescription": "x", "isDeleted": false},
	}
	eng, gw := setup(t, org)

	mustOK(t)(eng.Castes.Create(context.Background(), who, models.Caste{CasteName: "New", CasteDescription: "y"}))
	list := entries(t, gw, models.CollCastes)
	if got := list[1]["id"]; got != seqID(3) {
		t.Errorf("id = %v, want %s (sequence 2 was taken)", got, seqID(3))
	}
}

func TestCreate_OneFetchOneSave(t *testing.T) {
	eng, gw := setup(t)
	mustOK(t)(eng.Castes.Create(context.Background(), who, models.Caste{CasteName: "A", CasteDescription: "d"}))
	fetches, saves := gw.Counts()
	if fetches != 1 || saves != 1 {
		t.Errorf("fetches=%d saves=%d, want 1/1", fetches, saves)
	}
}

func TestCreate_RejectionDoesNotSave(t *testing.T) {
	eng, gw := setup(t)
	ctx := context.Background()
	mustOK(t)(eng.Castes.Create(ctx, who, models.Caste{CasteName: "A", CasteDescription: "d"}))
	res, err := eng.Castes.Create(ctx, who, models.Caste{CasteName: "A", CasteDescription: "d"})
	mustFail(t, res, err, "Duplicate casteName found")
	if _, saves := gw.Counts(); saves != 1 {
		t.Errorf("saves = %d, want 1", saves)
	}
}

func TestCreate_SaveFailure(t *testing.T) {
	eng, gw := setup(t)
	gw.SaveErr = errors.New("upstream 503")

	_, err := eng.Castes.Create(context.Background(), who, models.Caste{CasteName: "A", CasteDescription: "d"})
	if !errors.Is(err, refdata.ErrSaveFailed) {
		t.Fatalf("err = %v, want ErrSaveFailed", err)
	}
	if n := len(entries(t, gw, models.CollCastes)); n != 0 {
		t.Errorf("castes = %d after failed save, want 0", n)
	}
}

func TestCreate_PreservesDocumentIdentityAndOtherFields(t *testing.T) {
	org := newOrg()
	org["settings"] = map[string]any{"shift": "day"}
	org[models.CollReasonCodes] = []any{
		map[string]any{"id": "legacy", "countryCode": "IN", "reasonName": "India", "isDeleted": false, "createdOn": "x", "createdBy": "", "flag": "keep"},
	}
	eng, gw := setup(t, org)

	mustOK(t)(eng.ReasonCodes.Create(context.Background(), who, models.ReasonCode{ReasonCode: "R1", ReasonName: "Late"}))

	doc := gw.Get(tenant)
	if doc["_id"] != "665f1c2e9b1d4a0012345678" || doc["tenant"] != "acme-tenant" {
		t.Errorf("identity changed: _id=%v tenant=%v", doc["_id"], doc["tenant"])
	}
	if s, _ := doc["settings"].(map[string]any); s["shift"] != "day" {
		t.Errorf("settings = %v", doc["settings"])
	}
	list := entries(t, gw, models.CollReasonCodes)
	if len(list) != 2 {
		t.Fatalf("reasonCodes = %d, want 2", len(list))
	}
	if list[0]["flag"] != "keep" || list[0]["countryCode"] != "IN" {
		t.Errorf("country entry not passed through: %v", list[0])
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Countries and states                                                         |
*─────────────────────────────────────────────────────────────────────────────*/

func TestCountriesAndReasonCodesShareCollection(t *testing.T) {
	eng, gw := setup(t)
	ctx := context.Background()

	mustOK(t)(eng.ReasonCodes.Create(ctx, who, models.ReasonCode{ReasonCode: "IN", ReasonName: "Intentional"}))
	mustOK(t)(eng.Countries.Create(ctx, who, models.Country{CountryCode: "IN", CountryName: "India"}))

	if n := len(entries(t, gw, models.CollReasonCodes)); n != 2 {
		t.Fatalf("reasonCodes = %d, want 2", n)
	}

	rcs := mustOK(t)(eng.ReasonCodes.GetAll(ctx, who))
	if *rcs.Total != 1 {
		t.Errorf("reason codes total = %d, want 1", *rcs.Total)
	}
	countries := mustOK(t)(eng.Countries.GetAll(ctx, who))
	list := countries.Data.([]models.Country)
	if len(list) != 1 || list[0].CountryName != "India" {
		t.Errorf("countries = %+v", list)
	}

	res, err := eng.Countries.Create(ctx, who, models.Country{CountryCode: "in", CountryName: "Other"})
	mustFail(t, res, err, "Duplicate countryCode found")
}

func TestState_RequiresLiveMatchingCountry(t *testing.T) {
	eng, _ := setup(t)
	ctx := context.Background()
	state := models.State{CountryCode: "IN", CountryName: "India", StateCode: "KA", StateName: "Karnataka"}

	res, err := eng.States.Create(ctx, who, state)
	mustFail(t, res, err, `Country with code "IN" not found in the system`)

	addCountry(t, eng, "IN", "Bharat")
	res, err = eng.States.Create(ctx, who, state)
	mustFail(t, res, err, `Country name "India" does not match the registered name "Bharat" for code "IN"`)

	addCountry(t, eng, "US", "United States")
	mustOK(t)(eng.States.Create(ctx, who, models.State{CountryCode: "us", CountryName: "UNITED STATES", StateCode: "CA", StateName: "California"}))
}

func TestState_DeletedCountryIsNotAParent(t *testing.T) {
	eng, _ := setup(t)
	ctx := context.Background()
	id := addCountry(t, eng, "IN", "India")
	mustOK(t)(eng.Countries.Delete(ctx, who, models.Country{Meta: models.Meta{ID: id}}))

	res, err := eng.States.Create(ctx, who, models.State{CountryCode: "IN", CountryName: "India", StateCode: "KA", StateName: "Karnataka"})
	mustFail(t, res, err, `Country with code "IN" not found in the system`)
}

func TestState_DuplicateScopedPerCountry(t *testing.T) {
	eng, _ := setup(t)
	ctx := context.Background()
	addCountry(t, eng, "IN", "India")
	addCountry(t, eng, "US", "United States")

	mustOK(t)(eng.States.Create(ctx, who, models.State{CountryCode: "IN", CountryName: "India", StateCode: "GA", StateName: "Goa"}))
	mustOK(t)(eng.States.Create(ctx, who, models.State{CountryCode: "US", CountryName: "United States", StateCode: "GA", StateName: "Georgia"}))

	res, err := eng.States.Create(ctx, who, models.State{CountryCode: "IN", CountryName: "India", StateCode: "ga", StateName: "Goa again"})
	mustFail(t, res, err, `Duplicate stateCode "ga" found for country "IN"`)
}

func TestState_EditCountryNameRevalidates(t *testing.T) {
	eng, _ := setup(t)
	ctx := context.Background()
	addCountry(t, eng, "IN", "India")
	mustOK(t)(eng.States.Create(ctx, who, models.State{CountryCode: "IN", CountryName: "India", StateCode: "KA", StateName: "Karnataka"}))
	id := seqID(1)

	res, err := eng.States.Edit(ctx, who, models.State{Meta: models.Meta{ID: id}, CountryName: "Hindustan"})
	mustFail(t, res, err, `Country name "Hindustan" does not match the registered name "India" for code "IN"`)

	// A state name change alone does not consult the country list.
	mustOK(t)(eng.States.Edit(ctx, who, models.State{Meta: models.Meta{ID: id}, StateName: "Karnataka State"}))

	res, err = eng.States.Edit(ctx, who, models.State{Meta: models.Meta{ID: id}, StateCode: "MH"})
	if !refdata.IsValidation(err) {
		t.Fatalf("edit with only stateCode: err = %v, want ValidationError", err)
	}

	res, err = eng.States.Edit(ctx, who, models.State{Meta: models.Meta{ID: id}, StateCode: "MH", StateName: "Maharashtra"})
	mustFail(t, res, err, "Changing stateCode is not allowed. You can only update the countryName and stateName.")
}

func TestState_GetByCountry(t *testing.T) {
	eng, _ := setup(t)
	ctx := context.Background()
	addCountry(t, eng, "IN", "India")
	addCountry(t, eng, "US", "United States")
	mustOK(t)(eng.States.Create(ctx, who, models.State{CountryCode: "IN", CountryName: "India", StateCode: "KA", StateName: "Karnataka"}))
	mustOK(t)(eng.States.Create(ctx, who, models.State{CountryCode: "IN", CountryName: "India", StateCode: "GA", StateName: "Goa"}))
	mustOK(t)(eng.States.Create(ctx, who, models.State{CountryCode: "US", CountryName: "United States", StateCode: "CA", StateName: "California"}))
	mustOK(t)(eng.States.Delete(ctx, who, models.State{Meta: models.Meta{ID: seqID(2)}}))

	res := mustOK(t)(eng.States.GetByCountry(ctx, who, "in"))
	list := res.Data.([]models.State)
	if len(list) != 1 || list[0].StateCode != "KA" {
		t.Errorf("states = %+v, want only KA", list)
	}
	if res.CountryCode != "in" {
		t.Errorf("countryCode = %q, want %q", res.CountryCode, "in")
	}

	if _, err := eng.States.GetByCountry(ctx, who, " "); !refdata.IsValidation(err) {
		t.Errorf("blank country: err = %v, want ValidationError", err)
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Edit                                                                         |
*─────────────────────────────────────────────────────────────────────────────*/

func TestEdit(t *testing.T) {
	eng, gw := setup(t)
	ctx := context.Background()
	mustOK(t)(eng.ReasonCodes.Create(ctx, who, models.ReasonCode{ReasonCode: "R1", ReasonName: "Late"}))
	id := seqID(1)

	t.Run("missing id", func(t *testing.T) {
		_, err := eng.ReasonCodes.Edit(ctx, who, models.ReasonCode{ReasonName: "x"})
		if !refdata.IsValidation(err) || err.Error() != "ID is required for editing a reason code" {
			t.Errorf("err = %v", err)
		}
	})

	t.Run("no fields", func(t *testing.T) {
		_, err := eng.ReasonCodes.Edit(ctx, who, models.ReasonCode{Meta: models.Meta{ID: id}})
		if !refdata.IsValidation(err) || err.Error() != "At least reasonCode or reasonName must be provided for update" {
			t.Errorf("err = %v", err)
		}
	})

	t.Run("not found", func(t *testing.T) {
		res, err := eng.ReasonCodes.Edit(ctx, who, models.ReasonCode{Meta: models.Meta{ID: "nope"}, ReasonName: "x"})
		mustFail(t, res, err, "Reason code with provided ID not found")
	})

	t.Run("identifying field is immutable", func(t *testing.T) {
		res, err := eng.ReasonCodes.Edit(ctx, who, models.ReasonCode{Meta: models.Meta{ID: id}, ReasonCode: "R2", ReasonName: "Other"})
		mustFail(t, res, err, "Changing reasonCode is not allowed. You can only update the reasonName.")
		if got := entries(t, gw, models.CollReasonCodes)[0]["reasonCode"]; got != "R1" {
			t.Errorf("reasonCode = %v, want R1", got)
		}
	})

	t.Run("identical payload is a no-op", func(t *testing.T) {
		res, err := eng.ReasonCodes.Edit(ctx, who, models.ReasonCode{Meta: models.Meta{ID: id}, ReasonCode: "R1", ReasonName: "Late"})
		mustFail(t, res, err, "No changes detected in reasonName")
	})

	t.Run("merges descriptive field", func(t *testing.T) {
		mustOK(t)(eng.ReasonCodes.Edit(ctx, who, models.ReasonCode{Meta: models.Meta{ID: id}, ReasonName: "Very late"}))
		got := entries(t, gw, models.CollReasonCodes)[0]
		if got["reasonName"] != "Very late" || got["reasonCode"] != "R1" {
			t.Errorf("entry = %v", got)
		}
		if got["createdOn"] != createdOn || got["createdBy"] != "EMP001" || got["id"] != id {
			t.Errorf("bookkeeping changed: %v", got)
		}
	})
}

func TestEdit_KeepsUnsetFields(t *testing.T) {
	eng, gw := setup(t)
	ctx := context.Background()
	mustOK(t)(eng.Castes.Create(ctx, who, models.Caste{CasteName: "A", CasteDescription: "first"}))

	mustOK(t)(eng.Castes.Edit(ctx, who, models.Caste{Meta: models.Meta{ID: seqID(1)}, CasteDescription: "second"}))
	got := entries(t, gw, models.CollCastes)[0]
	if got["casteName"] != "A" || got["casteDescription"] != "second" {
		t.Errorf("entry = %v", got)
	}
}

func TestEdit_CasteRenameCollision(t *testing.T) {
	eng, _ := setup(t)
	ctx := context.Background()
	mustOK(t)(eng.Castes.Create(ctx, who, models.Caste{CasteName: "A", CasteDescription: "d"}))
	mustOK(t)(eng.Castes.Create(ctx, who, models.Caste{CasteName: "B", CasteDescription: "d"}))

	res, err := eng.Castes.Edit(ctx, who, models.Caste{Meta: models.Meta{ID: seqID(2)}, CasteName: "a"})
	mustFail(t, res, err, "casteName already exists")

	// Renaming to a different case of its own name is a change, not a collision.
	mustOK(t)(eng.Castes.Edit(ctx, who, models.Caste{Meta: models.Meta{ID: seqID(2)}, CasteName: "b"}))
}

func TestEdit_DeletedEntryIsFinal(t *testing.T) {
	eng, gw := setup(t)
	ctx := context.Background()
	mustOK(t)(eng.Castes.Create(ctx, who, models.Caste{CasteName: "A", CasteDescription: "d"}))
	mustOK(t)(eng.Castes.Delete(ctx, who, models.Caste{Meta: models.Meta{ID: seqID(1)}}))

	res, err := eng.Castes.Edit(ctx, who, models.Caste{Meta: models.Meta{ID: seqID(1), IsDeleted: false}, CasteDescription: "revived"})
	mustFail(t, res, err, "Caste is deleted and cannot be edited")
	if got := entries(t, gw, models.CollCastes)[0]["isDeleted"]; got != true {
		t.Errorf("isDeleted = %v, want true", got)
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Delete                                                                       |
*─────────────────────────────────────────────────────────────────────────────*/

func TestDelete_IsOneWay(t *testing.T) {
	eng, gw := setup(t)
	ctx := context.Background()
	mustOK(t)(eng.Castes.Create(ctx, who, models.Caste{CasteName: "A", CasteDescription: "d"}))
	id := seqID(1)

	res := mustOK(t)(eng.Castes.Delete(ctx, who, models.Caste{Meta: models.Meta{ID: id}}))
	if res.Message != "Caste deleted successfully" {
		t.Errorf("message = %q", res.Message)
	}
	got := entries(t, gw, models.CollCastes)[0]
	if got["isDeleted"] != true || got["casteName"] != "A" || got["casteDescription"] != "d" {
		t.Errorf("entry = %v", got)
	}

	res, err := eng.Castes.Delete(ctx, who, models.Caste{Meta: models.Meta{ID: id}})
	mustFail(t, res, err, "Caste is already deleted")

	deleted := mustOK(t)(eng.Castes.GetDeleted(ctx, who))
	if *deleted.Total != 1 {
		t.Errorf("deleted total = %d, want 1", *deleted.Total)
	}
	active := mustOK(t)(eng.Castes.GetActive(ctx, who))
	if *active.Total != 0 {
		t.Errorf("active total = %d, want 0", *active.Total)
	}
}

func TestDelete_Validation(t *testing.T) {
	eng, _ := setup(t)
	ctx := context.Background()

	_, err := eng.States.Delete(ctx, who, models.State{})
	if !refdata.IsValidation(err) || err.Error() != "ID is required for deleting a state" {
		t.Errorf("err = %v", err)
	}

	res, err := eng.States.Delete(ctx, who, models.State{Meta: models.Meta{ID: "missing"}})
	mustFail(t, res, err, "State with provided ID not found")
}

func TestDelete_PayloadGuard(t *testing.T) {
	eng, _ := setup(t)
	ctx := context.Background()
	countryID := addCountry(t, eng, "IN", "India")
	mustOK(t)(eng.ReasonCodes.Create(ctx, who, models.ReasonCode{ReasonCode: "R1", ReasonName: "Late"}))
	var rcID string
	for _, rc := range mustOK(t)(eng.ReasonCodes.GetAll(ctx, who)).Data.([]models.ReasonCode) {
		rcID = rc.ID
	}

	res, err := eng.Countries.Delete(ctx, who, models.Country{Meta: models.Meta{ID: countryID}, CountryCode: "IN"})
	mustFail(t, res, err, "Only deletion is allowed. Cannot modify country code or name during deletion.")

	res, err = eng.ReasonCodes.Delete(ctx, who, models.ReasonCode{Meta: models.Meta{ID: rcID}, ReasonName: "Changed"})
	mustFail(t, res, err, "You cannot modify reasonCode or reasonName while deleting.")

	// Echoing the stored values is accepted for reason codes.
	mustOK(t)(eng.ReasonCodes.Delete(ctx, who, models.ReasonCode{Meta: models.Meta{ID: rcID}, ReasonCode: "R1", ReasonName: "Late"}))
}

func TestDelete_SaveFailure(t *testing.T) {
	eng, gw := setup(t)
	ctx := context.Background()
	mustOK(t)(eng.Castes.Create(ctx, who, models.Caste{CasteName: "A", CasteDescription: "d"}))
	gw.SaveErr = errors.New("boom")

	_, err := eng.Castes.Delete(ctx, who, models.Caste{Meta: models.Meta{ID: seqID(1)}})
	if !errors.Is(err, refdata.ErrSaveFailed) {
		t.Fatalf("err = %v, want ErrSaveFailed", err)
	}
	if got := entries(t, gw, models.CollCastes)[0]["isDeleted"]; got != false {
		t.Errorf("isDeleted = %v after failed save, want false", got)
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Getters                                                                      |
*─────────────────────────────────────────────────────────────────────────────*/

func TestGetters_Resolution(t *testing.T) {
	eng, gw := setup(t)
	ctx := context.Background()

	res, err := eng.Castes.GetAll(ctx, refdata.Principal{})
	mustFail(t, res, err, "Tenant code not found")

	res, err = eng.Castes.GetActive(ctx, refdata.Principal{TenantCode: "OTHER"})
	mustFail(t, res, err, "Organization data not found")

	res = mustOK(t)(eng.Castes.GetAll(ctx, who))
	list, ok := res.Data.([]models.Caste)
	if !ok || list == nil || len(list) != 0 {
		t.Errorf("data = %#v, want empty non-nil []models.Caste", res.Data)
	}
	if res.Total == nil || *res.Total != 0 {
		t.Errorf("total = %v, want 0", res.Total)
	}

	if _, saves := gw.Counts(); saves != 0 {
		t.Errorf("getters saved %d times", saves)
	}
}

func TestGetByID(t *testing.T) {
	eng, _ := setup(t)
	ctx := context.Background()

	if _, err := eng.Castes.GetByID(ctx, who, ""); !refdata.IsValidation(err) || err.Error() != "ID is required" {
		t.Errorf("err = %v, want ValidationError(ID is required)", err)
	}
	res, err := eng.Castes.GetByID(ctx, who, "missing")
	mustFail(t, res, err, "Caste with provided ID not found")
}

func TestGetByID_IncludesDeleted(t *testing.T) {
	eng, _ := setup(t)
	ctx := context.Background()
	mustOK(t)(eng.Castes.Create(ctx, who, models.Caste{CasteName: "A", CasteDescription: "d"}))
	mustOK(t)(eng.Castes.Delete(ctx, who, models.Caste{Meta: models.Meta{ID: seqID(1)}}))

	res := mustOK(t)(eng.Castes.GetByID(ctx, who, seqID(1)))
	if c := res.Data.(models.Caste); !c.IsDeleted {
		t.Error("expected deleted entry to be returned with isDeleted=true")
	}
}

func TestGetters_MalformedCollection(t *testing.T) {
	org := newOrg()
	org[models.CollCastes] = "not-an-array"
	eng, _ := setup(t, org)

	if _, err := eng.Castes.GetAll(context.Background(), who); err == nil {
		t.Error("expected error for malformed sub-collection")
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Observers                                                                    |
*─────────────────────────────────────────────────────────────────────────────*/

func TestObserver_ReportsOutcomes(t *testing.T) {
	var events []refdata.Event
	obs := refdata.ObserverFunc(func(_ context.Context, ev refdata.Event) { events = append(events, ev) })

	gw := refdata.NewMemoryGateway(newOrg())
	eng := refdata.NewEngines(gw, "", zap.NewNop(),
		refdata.WithIDGenerator(seqID),
		refdata.WithObserver(obs),
	)
	ctx := context.Background()

	mustOK(t)(eng.Castes.Create(ctx, who, models.Caste{CasteName: "A", CasteDescription: "d"}))
	_, _ = eng.Castes.Create(ctx, who, models.Caste{CasteName: "A", CasteDescription: "d"})
	_, _ = eng.Castes.Create(ctx, who, models.Caste{})
	_, _ = eng.Castes.Delete(ctx, refdata.Principal{}, models.Caste{Meta: models.Meta{ID: seqID(1)}})

	want := []struct{ op, outcome string }{
		{"create", refdata.OutcomeOK},
		{"create", refdata.OutcomeRejected},
		{"create", refdata.OutcomeInvalid},
		{"delete", refdata.OutcomeError},
	}
	if len(events) != len(want) {
		t.Fatalf("events = %d, want %d", len(events), len(want))
	}
	for i, w := range want {
		if events[i].Op != w.op || events[i].Outcome != w.outcome {
			t.Errorf("event %d = %s/%s, want %s/%s", i, events[i].Op, events[i].Outcome, w.op, w.outcome)
		}
		if events[i].Kind != refdata.KindCaste {
			t.Errorf("event %d kind = %q", i, events[i].Kind)
		}
	}
	if events[0].EntryID != seqID(1) || events[0].ActorID != "EMP001" {
		t.Errorf("first event = %+v", events[0])
	}
	if events[1].Reason != "Duplicate casteName found" {
		t.Errorf("rejection reason = %q", events[1].Reason)
	}
}

func TestEditAndDelete_LeaveUntouchedKeysVerbatim(t *testing.T) {
	org := newOrg()
	org[models.CollCastes] = []any{map[string]any{
		"id":               "legacy-1",
		"casteName":        "OBC",
		"casteDescription": "Other",
		"importedFrom":     "v1",
	}}
	eng, gw := setup(t, org)

	mustOK(t)(eng.Castes.Edit(context.Background(), who,
		eng.Castes.WithID(models.Caste{CasteDescription: "Other backward classes"}, "legacy-1")))

	got := entries(t, gw, models.CollCastes)[0]
	if got["casteDescription"] != "Other backward classes" || got["importedFrom"] != "v1" {
		t.Errorf("after edit: %v", got)
	}
	for _, k := range []string{"createdBy", "createdOn", models.KeyIsDeleted} {
		if _, ok := got[k]; ok {
			t.Errorf("edit added key %q: %v", k, got)
		}
	}

	mustOK(t)(eng.Castes.Delete(context.Background(), who, eng.Castes.WithID(models.Caste{}, "legacy-1")))

	got = entries(t, gw, models.CollCastes)[0]
	if got[models.KeyIsDeleted] != true || got["importedFrom"] != "v1" || got["casteName"] != "OBC" {
		t.Errorf("after delete: %v", got)
	}
	if _, ok := got["createdBy"]; ok {
		t.Errorf("delete added createdBy: %v", got)
	}
}
