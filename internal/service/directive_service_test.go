package service

import (
	"context"
	"testing"

	"surveillance/internal/model"
	"surveillance/internal/repository"
	"surveillance/pkg/apperror"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDirectives struct {
	*memStore[model.Directive]
}

func (f *fakeDirectives) List(_ context.Context, filter repository.DirectiveFilter) ([]model.Directive, int64, error) {
	var out []model.Directive
	for _, d := range f.all() {
		if filter.Active != nil && d.IsActive != *filter.Active {
			continue
		}
		if filter.DistrictID != nil && (d.TargetDistrictID == nil || *d.TargetDistrictID != *filter.DistrictID) {
			continue
		}
		out = append(out, d)
	}
	return out, int64(len(out)), nil
}

type fakeAdvisories struct {
	*memStore[model.StateAdvisory]
}

func (f *fakeAdvisories) List(_ context.Context, _, _ int) ([]model.StateAdvisory, int64, error) {
	all := f.all()
	return all, int64(len(all)), nil
}

func TestDirectiveCreate(t *testing.T) {
	boundaries := newFakeBoundaries()
	tirupati := boundaries.addDistrict("Tirupati")
	nellore := boundaries.addDistrict("Nellore")
	village := boundaries.addVillage("Renigunta", tirupati)
	directives := &fakeDirectives{newMemStore(func(d *model.Directive) *uuid.UUID { return &d.ID })}
	audit := &recordingAudit{}
	svc := NewDirectiveService(directives, boundaries, audit, &serialTx{})
	dho := identityWithRole("dho", model.RoleDistrictAdmin)

	_, err := svc.Create(context.Background(), identityWithRole("drrao", model.RoleDoctor), DirectiveRequest{Title: "t", Description: "d"})
	assert.True(t, apperror.Is(err, apperror.KindPermission))

	resp, err := svc.Create(context.Background(), dho, DirectiveRequest{
		Title:            "Chlorinate wells",
		Description:      "All public wells within 48 hours",
		TargetDistrictID: strPtr(tirupati.ID.String()),
		TargetVillageID:  strPtr(village.ID.String()),
	})
	require.NoError(t, err)
	assert.Equal(t, dho.UserID.String(), resp.IssuedBy, "issuer comes from the caller")
	assert.Equal(t, model.PriorityMedium, resp.Priority)
	assert.True(t, resp.IsActive)
	assert.Equal(t, []string{model.ActionDirectiveIssued}, audit.actions())

	_, err = svc.Create(context.Background(), dho, DirectiveRequest{
		Title:            "Mismatch",
		Description:      "d",
		TargetDistrictID: strPtr(nellore.ID.String()),
		TargetVillageID:  strPtr(village.ID.String()),
	})
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	inactive := false
	_, err = svc.Create(context.Background(), dho, DirectiveRequest{Title: "Old", Description: "d", IsActive: &inactive})
	require.NoError(t, err)

	active := true
	listed, total, err := svc.List(context.Background(), DirectiveQuery{Active: &active}, ListParams{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, "Chlorinate wells", listed[0].Title)
}

func TestAdvisoryRequiresStateAdmin(t *testing.T) {
	advisories := &fakeAdvisories{newMemStore(func(a *model.StateAdvisory) *uuid.UUID { return &a.ID })}
	audit := &recordingAudit{}
	svc := NewAdvisoryService(advisories, audit, &serialTx{})
	req := AdvisoryRequest{Title: "Monsoon preparedness", Description: "Stock ORS", BudgetRecommendations: "INR 2 crore"}

	_, err := svc.Create(context.Background(), identityWithRole("dho", model.RoleDistrictAdmin), req)
	assert.True(t, apperror.Is(err, apperror.KindPermission))

	sho := identityWithRole("sho", model.RoleStateAdmin)
	resp, err := svc.Create(context.Background(), sho, req)
	require.NoError(t, err)
	assert.Equal(t, sho.UserID.String(), resp.StateAdmin)
	assert.Equal(t, "INR 2 crore", resp.BudgetRecommendations)
	assert.Equal(t, []string{model.ActionAdvisoryIssued}, audit.actions())
}

func TestBoundaryWrites(t *testing.T) {
	boundaries := newFakeBoundaries()
	svc := NewBoundaryService(boundaries)
	sho := identityWithRole("sho", model.RoleStateAdmin)

	_, err := svc.CreateDistrict(context.Background(), ashaIdentity(), DistrictRequest{DistrictName: "Tirupati", StateName: "Andhra Pradesh"})
	assert.True(t, apperror.Is(err, apperror.KindPermission))

	district, err := svc.CreateDistrict(context.Background(), sho, DistrictRequest{DistrictName: "Tirupati", StateName: "Andhra Pradesh"})
	require.NoError(t, err)

	_, err = svc.CreateVillage(context.Background(), sho, VillageRequest{VillageName: "Renigunta", DistrictID: uuid.NewString()})
	assert.True(t, apperror.Is(err, apperror.KindValidation), "village must reference an existing district")

	village, err := svc.CreateVillage(context.Background(), sho, VillageRequest{VillageName: "Renigunta", DistrictID: district.ID})
	require.NoError(t, err)
	assert.Equal(t, "Tirupati", village.DistrictName)

	villages, total, err := svc.ListVillages(context.Background(), strPtr(district.ID), ListParams{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, "Renigunta", villages[0].VillageName)
}
