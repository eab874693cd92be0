package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/clubreserve/clubreserve/domains/settings/be/repo"
	"github.com/clubreserve/clubreserve/domains/settings/be/service"
	"github.com/clubreserve/clubreserve/platform/go/club"
)

func TestSettingsAccessorsFallBackToDefaults(t *testing.T) {
	empty := service.Settings{}
	require.Equal(t, service.DefaultMinHours, empty.MinHours())
	require.Equal(t, service.DefaultMaxHours, empty.MaxHours())
	require.Equal(t, service.DefaultMaxAdvanceDays, empty.MaxAdvanceDays())
	require.Equal(t, service.DefaultMaxConsecutiveDays, empty.MaxConsecutiveDays())
	require.Equal(t, service.DefaultMaxPending, empty.MaxPending())
	require.False(t, empty.ApprovalRequired())

	set := service.Settings{
		service.KeyMinHours:         "1",
		service.KeyMaxPending:       " 9 ",
		service.KeyApprovalRequired: "TRUE",
	}
	require.Equal(t, 1, set.MinHours())
	require.Equal(t, 9, set.MaxPending())
	require.True(t, set.ApprovalRequired())

	// Garbage falls back rather than breaking the engine.
	garbage := service.Settings{
		service.KeyMaxPending: "lots",
		service.KeyMaxHours:   "-4",
	}
	require.Equal(t, service.DefaultMaxPending, garbage.MaxPending())
	require.Equal(t, service.DefaultMaxHours, garbage.MaxHours())
}

func TestDefaultsForVehicleType(t *testing.T) {
	boat := service.DefaultsFor(club.VehicleBoat)
	_, hasMarina := boat["marina_phone"]
	require.True(t, hasMarina)

	plane := service.DefaultsFor(club.VehiclePlane)
	_, hasFBO := plane["fbo_phone"]
	require.True(t, hasFBO)
}

func TestValidateChecklist(t *testing.T) {
	valid := `{
		"items": ["Check fuel", "Check bilge pump", "Stow life jackets"],
		"categories": [{"label": "Before departure", "indices": [0, 1]}],
		"disclaimer": "Complete every item before leaving the dock."
	}`
	require.NoError(t, service.ValidateChecklist(valid))

	tests := []struct {
		name string
		raw  string
	}{
		{"not json", `{"items": [`},
		{"missing items", `{"disclaimer": "x"}`},
		{"item wrong type", `{"items": [1, 2]}`},
		{"empty item", `{"items": [""]}`},
		{"category without label", `{"items": ["a"], "categories": [{"indices": [0]}]}`},
		{"negative index", `{"items": ["a"], "categories": [{"label": "x", "indices": [-1]}]}`},
		{"unknown field", `{"items": ["a"], "color": "blue"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Error(t, service.ValidateChecklist(tt.raw))
		})
	}
}

func TestSetChecklistGuardsWrites(t *testing.T) {
	svc := service.New(repo.NewMemoryRepository(nil))
	ctx := context.Background()

	err := svc.Set(ctx, nil, service.KeyChecklistJSON, `{"items": [42]}`)
	require.ErrorIs(t, err, service.ErrInvalidChecklist)

	require.NoError(t, svc.Set(ctx, nil, service.KeyChecklistJSON, `{"items": ["Check fuel"]}`))
	loaded, err := svc.Load(ctx, nil)
	require.NoError(t, err)
	require.Equal(t, `{"items": ["Check fuel"]}`, loaded[service.KeyChecklistJSON])
}
