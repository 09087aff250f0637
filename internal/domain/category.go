package domain

// Category is a coarse visual grouping of threat types.
type Category string

const (
	CategoryConflict   Category = "CONFLICT"
	CategoryUnrest     Category = "UNREST"
	CategorySeismic    Category = "SEISMIC"
	CategoryWildfire   Category = "WILDFIRE"
	CategoryWeather    Category = "WEATHER"
	CategoryIndustrial Category = "INDUSTRIAL"
	CategoryHealth     Category = "HEALTH"
	CategorySpace      Category = "SPACE"
	CategoryOther      Category = "OTHER"
)

// TrackedCategories returns the eight categories shown in a location's status
// panel, in display order. OTHER is not tracked.
func TrackedCategories() []Category {
	return []Category{
		CategoryConflict,
		CategoryUnrest,
		CategoryWeather,
		CategorySeismic,
		CategoryHealth,
		CategoryIndustrial,
		CategoryWildfire,
		CategorySpace,
	}
}

var categoryLabels = map[Category]string{
	CategoryConflict:   "Security & Conflict",
	CategoryUnrest:     "Civil & Social",
	CategoryWeather:    "Weather & Climate",
	CategorySeismic:    "Seismic & Geology",
	CategoryHealth:     "Health & Bio",
	CategoryIndustrial: "Ind. & Infra",
	CategoryWildfire:   "Wildfire",
	CategorySpace:      "Space",
	CategoryOther:      "Other",
}

// Label returns the display label for the category.
func (c Category) Label() string {
	if l, ok := categoryLabels[c]; ok {
		return l
	}
	return string(c)
}

// Tracked reports whether the category appears in the status panel.
func (c Category) Tracked() bool {
	switch c {
	case CategoryConflict, CategoryUnrest, CategoryWeather, CategorySeismic,
		CategoryHealth, CategoryIndustrial, CategoryWildfire, CategorySpace:
		return true
	default:
		return false
	}
}

// CategoryOf maps a fine-grained threat type to its display category. The
// mapping is total: unlisted and unknown types return CategoryOther.
func CategoryOf(t ThreatType) Category {
	switch t {
	case ThreatConflict,
		ThreatArmedConflict,
		ThreatTerror,
		ThreatMilitaryActivity,
		ThreatDroneAttack,
		ThreatCyberAttack,
		ThreatPiracy,
		ThreatSabotage:
		return CategoryConflict

	case ThreatCivilUnrest,
		ThreatProtest,
		ThreatRiot,
		ThreatStrike,
		ThreatPoliticalInstability,
		ThreatElectionUnrest,
		ThreatMassGatheringRisk,
		ThreatRefugeeMovement,
		ThreatTravelAlert,
		ThreatTravelRestriction,
		ThreatBorderClosure,
		ThreatEvacuationOrder,
		ThreatDisinformation,
		ThreatMisinformation,
		ThreatPropaganda,
		ThreatStateOfEmergency,
		ThreatCurfew,
		ThreatSanctions:
		return CategoryUnrest

	case ThreatEarthquake,
		ThreatSeismic,
		ThreatVolcanic,
		ThreatTsunami,
		ThreatLandslide,
		ThreatAvalanche:
		return CategorySeismic

	case ThreatWildfire,
		ThreatDrought,
		ThreatHeatwave,
		ThreatDesertification:
		return CategoryWildfire

	case ThreatFlood,
		ThreatFlashFlood,
		ThreatStorm,
		ThreatExtremeWeather,
		ThreatMarine,
		ThreatClimateAnomaly,
		ThreatAirPollution,
		ThreatWaterContamination,
		ThreatToxicRelease,
		ThreatSeaLevelRise,
		ThreatPortClosure,
		ThreatAirspaceRestriction: // usually weather driven
		return CategoryWeather

	case ThreatIndustrialAccident,
		ThreatNuclearIncident,
		ThreatChemicalSpill,
		ThreatExplosion,
		ThreatGasLeak,
		ThreatDamFailure,
		ThreatTransportAccident,
		ThreatAviationIncident,
		ThreatMaritimeAccident,
		ThreatPowerOutage,
		ThreatGridFailure,
		ThreatWaterSupplyFailure,
		ThreatTelecomOutage,
		ThreatInternetDisruption,
		ThreatFuelShortage,
		ThreatSupplyChainDisruption:
		return CategoryIndustrial

	case ThreatHealth,
		ThreatPandemic,
		ThreatEpidemic,
		ThreatDiseaseOutbreak,
		ThreatBiologicalHazard,
		ThreatFoodborneIllness:
		return CategoryHealth

	case ThreatSolarRadiation,
		ThreatSolarFlare,
		ThreatGeomagneticStorm,
		ThreatSpaceWeather:
		return CategorySpace

	default:
		return CategoryOther
	}
}
