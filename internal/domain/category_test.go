package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategoryOf(t *testing.T) {
	tests := []struct {
		in   ThreatType
		want Category
	}{
		{ThreatArmedConflict, CategoryConflict},
		{ThreatCyberAttack, CategoryConflict},
		{ThreatProtest, CategoryUnrest},
		{ThreatRiot, CategoryUnrest},
		{ThreatTravelAlert, CategoryUnrest},
		{ThreatCurfew, CategoryUnrest},
		{ThreatEarthquake, CategorySeismic},
		{ThreatTsunami, CategorySeismic},
		{ThreatLandslide, CategorySeismic},
		{ThreatWildfire, CategoryWildfire},
		{ThreatDrought, CategoryWildfire},
		{ThreatHeatwave, CategoryWildfire},
		{ThreatStorm, CategoryWeather},
		{ThreatMarine, CategoryWeather},
		{ThreatAirspaceRestriction, CategoryWeather},
		{ThreatChemicalSpill, CategoryIndustrial},
		{ThreatPowerOutage, CategoryIndustrial},
		{ThreatDiseaseOutbreak, CategoryHealth},
		{ThreatSolarFlare, CategorySpace},
		{ThreatOther, CategoryOther},
		{"", CategoryOther},
		{"NOT_A_TYPE", CategoryOther},
	}

	for _, tt := range tests {
		t.Run(string(tt.in), func(t *testing.T) {
			assert.Equal(t, tt.want, CategoryOf(tt.in))
		})
	}
}

func TestCategoryOf_Total(t *testing.T) {
	valid := map[Category]bool{CategoryOther: true}
	for _, c := range TrackedCategories() {
		valid[c] = true
	}

	for _, tt := range AllThreatTypes() {
		c := CategoryOf(tt)
		assert.True(t, valid[c], "%s mapped to %q", tt, c)
	}
}

func TestCategoryOf_OnlyOtherIsUntracked(t *testing.T) {
	for _, tt := range AllThreatTypes() {
		if tt == ThreatOther {
			continue
		}
		assert.True(t, CategoryOf(tt).Tracked(), "%s should map to a tracked category", tt)
	}
}

func TestAllThreatTypes(t *testing.T) {
	all := AllThreatTypes()
	assert.Len(t, all, 75)
	assert.Equal(t, ThreatOther, all[len(all)-1])

	seen := make(map[ThreatType]bool, len(all))
	for _, tt := range all {
		assert.False(t, seen[tt], "duplicate %s", tt)
		seen[tt] = true
	}
}

func TestCategory_Label(t *testing.T) {
	assert.Equal(t, "Security & Conflict", CategoryConflict.Label())
	assert.Equal(t, "Ind. & Infra", CategoryIndustrial.Label())
	assert.Equal(t, "Space", CategorySpace.Label())
	assert.Equal(t, "MYSTERY", Category("MYSTERY").Label())
}

func TestTrackedCategories(t *testing.T) {
	tracked := TrackedCategories()
	assert.Len(t, tracked, 8)
	assert.NotContains(t, tracked, CategoryOther)
	assert.False(t, CategoryOther.Tracked())
}
