package domain

// ThreatType is the fine-grained kind of a threat. Values outside the known set
// are tolerated and classify as [CategoryOther].
type ThreatType string

// Security & conflict.
const (
	ThreatConflict         ThreatType = "CONFLICT"
	ThreatArmedConflict    ThreatType = "ARMED_CONFLICT"
	ThreatTerror           ThreatType = "TERROR"
	ThreatMilitaryActivity ThreatType = "MILITARY_ACTIVITY"
	ThreatDroneAttack      ThreatType = "DRONE_ATTACK"
	ThreatCyberAttack      ThreatType = "CYBER_ATTACK"
	ThreatPiracy           ThreatType = "PIRACY"
	ThreatSabotage         ThreatType = "SABOTAGE"
)

// Civil & social.
const (
	ThreatCivilUnrest          ThreatType = "CIVIL_UNREST"
	ThreatProtest              ThreatType = "PROTEST"
	ThreatRiot                 ThreatType = "RIOT"
	ThreatStrike               ThreatType = "STRIKE"
	ThreatPoliticalInstability ThreatType = "POLITICAL_INSTABILITY"
	ThreatElectionUnrest       ThreatType = "ELECTION_UNREST"
	ThreatMassGatheringRisk    ThreatType = "MASS_GATHERING_RISK"
	ThreatRefugeeMovement      ThreatType = "REFUGEE_MOVEMENT"
)

// Natural hazards.
const (
	ThreatEarthquake     ThreatType = "EARTHQUAKE"
	ThreatSeismic        ThreatType = "SEISMIC"
	ThreatVolcanic       ThreatType = "VOLCANIC"
	ThreatTsunami        ThreatType = "TSUNAMI"
	ThreatFlood          ThreatType = "FLOOD"
	ThreatFlashFlood     ThreatType = "FLASH_FLOOD"
	ThreatStorm          ThreatType = "STORM"
	ThreatExtremeWeather ThreatType = "EXTREME_WEATHER"
	ThreatHeatwave       ThreatType = "HEATWAVE"
	ThreatDrought        ThreatType = "DROUGHT"
	ThreatWildfire       ThreatType = "WILDFIRE"
	ThreatLandslide      ThreatType = "LANDSLIDE"
	ThreatAvalanche      ThreatType = "AVALANCHE"
)

// Climate & environment.
const (
	ThreatClimateAnomaly     ThreatType = "CLIMATE_ANOMALY"
	ThreatAirPollution       ThreatType = "AIR_POLLUTION"
	ThreatWaterContamination ThreatType = "WATER_CONTAMINATION"
	ThreatToxicRelease       ThreatType = "TOXIC_RELEASE"
	ThreatSeaLevelRise       ThreatType = "SEA_LEVEL_RISE"
	ThreatDesertification    ThreatType = "DESERTIFICATION"
)

// Health & biological.
const (
	ThreatHealth           ThreatType = "HEALTH"
	ThreatPandemic         ThreatType = "PANDEMIC"
	ThreatEpidemic         ThreatType = "EPIDEMIC"
	ThreatDiseaseOutbreak  ThreatType = "DISEASE_OUTBREAK"
	ThreatBiologicalHazard ThreatType = "BIOLOGICAL_HAZARD"
	ThreatFoodborneIllness ThreatType = "FOODBORNE_ILLNESS"
)

// Industrial & technological.
const (
	ThreatIndustrialAccident ThreatType = "INDUSTRIAL_ACCIDENT"
	ThreatNuclearIncident    ThreatType = "NUCLEAR_INCIDENT"
	ThreatChemicalSpill      ThreatType = "CHEMICAL_SPILL"
	ThreatExplosion          ThreatType = "EXPLOSION"
	ThreatGasLeak            ThreatType = "GAS_LEAK"
	ThreatDamFailure         ThreatType = "DAM_FAILURE"
	ThreatTransportAccident  ThreatType = "TRANSPORT_ACCIDENT"
	ThreatAviationIncident   ThreatType = "AVIATION_INCIDENT"
	ThreatMaritimeAccident   ThreatType = "MARITIME_ACCIDENT"
)

// Infrastructure & utilities.
const (
	ThreatPowerOutage           ThreatType = "POWER_OUTAGE"
	ThreatGridFailure           ThreatType = "GRID_FAILURE"
	ThreatWaterSupplyFailure    ThreatType = "WATER_SUPPLY_FAILURE"
	ThreatTelecomOutage         ThreatType = "TELECOM_OUTAGE"
	ThreatInternetDisruption    ThreatType = "INTERNET_DISRUPTION"
	ThreatFuelShortage          ThreatType = "FUEL_SHORTAGE"
	ThreatSupplyChainDisruption ThreatType = "SUPPLY_CHAIN_DISRUPTION"
)

// Space & solar.
const (
	ThreatSolarRadiation   ThreatType = "SOLAR_RADIATION"
	ThreatSolarFlare       ThreatType = "SOLAR_FLARE"
	ThreatGeomagneticStorm ThreatType = "GEOMAGNETIC_STORM"
	ThreatSpaceWeather     ThreatType = "SPACE_WEATHER"
)

// Mobility & travel.
const (
	ThreatTravelAlert         ThreatType = "TRAVEL_ALERT"
	ThreatTravelRestriction   ThreatType = "TRAVEL_RESTRICTION"
	ThreatBorderClosure       ThreatType = "BORDER_CLOSURE"
	ThreatEvacuationOrder     ThreatType = "EVACUATION_ORDER"
	ThreatMarine              ThreatType = "MARINE"
	ThreatPortClosure         ThreatType = "PORT_CLOSURE"
	ThreatAirspaceRestriction ThreatType = "AIRSPACE_RESTRICTION"
)

// Information & governance.
const (
	ThreatDisinformation   ThreatType = "DISINFORMATION"
	ThreatMisinformation   ThreatType = "MISINFORMATION"
	ThreatPropaganda       ThreatType = "PROPAGANDA"
	ThreatStateOfEmergency ThreatType = "STATE_OF_EMERGENCY"
	ThreatCurfew           ThreatType = "CURFEW"
	ThreatSanctions        ThreatType = "SANCTIONS"
)

const ThreatOther ThreatType = "OTHER"

// ThreatFamily is a named group of threat types shown together in settings.
type ThreatFamily struct {
	Name  string       `json:"name"`
	Types []ThreatType `json:"types"`
}

// ThreatFamilies returns the settings grouping of every known type except OTHER.
// This grouping is for toggling types on and off; classification uses CategoryOf.
func ThreatFamilies() []ThreatFamily {
	return []ThreatFamily{
		{Name: "Security & Conflict", Types: []ThreatType{
			ThreatConflict, ThreatArmedConflict, ThreatTerror, ThreatMilitaryActivity,
			ThreatDroneAttack, ThreatCyberAttack, ThreatPiracy, ThreatSabotage,
		}},
		{Name: "Civil & Social", Types: []ThreatType{
			ThreatCivilUnrest, ThreatProtest, ThreatRiot, ThreatStrike,
			ThreatPoliticalInstability, ThreatElectionUnrest, ThreatMassGatheringRisk, ThreatRefugeeMovement,
		}},
		{Name: "Natural Hazards", Types: []ThreatType{
			ThreatEarthquake, ThreatSeismic, ThreatVolcanic, ThreatTsunami,
			ThreatFlood, ThreatFlashFlood, ThreatStorm, ThreatExtremeWeather,
			ThreatHeatwave, ThreatDrought, ThreatWildfire, ThreatLandslide, ThreatAvalanche,
		}},
		{Name: "Climate & Environment", Types: []ThreatType{
			ThreatClimateAnomaly, ThreatAirPollution, ThreatWaterContamination,
			ThreatToxicRelease, ThreatSeaLevelRise, ThreatDesertification,
		}},
		{Name: "Health & Biological", Types: []ThreatType{
			ThreatHealth, ThreatPandemic, ThreatEpidemic, ThreatDiseaseOutbreak,
			ThreatBiologicalHazard, ThreatFoodborneIllness,
		}},
		{Name: "Industrial & Technological", Types: []ThreatType{
			ThreatIndustrialAccident, ThreatNuclearIncident, ThreatChemicalSpill,
			ThreatExplosion, ThreatGasLeak, ThreatDamFailure, ThreatTransportAccident,
			ThreatAviationIncident, ThreatMaritimeAccident,
		}},
		{Name: "Infrastructure & Utilities", Types: []ThreatType{
			ThreatPowerOutage, ThreatGridFailure, ThreatWaterSupplyFailure,
			ThreatTelecomOutage, ThreatInternetDisruption, ThreatFuelShortage, ThreatSupplyChainDisruption,
		}},
		{Name: "Space & Solar", Types: []ThreatType{
			ThreatSolarRadiation, ThreatSolarFlare, ThreatGeomagneticStorm, ThreatSpaceWeather,
		}},
		{Name: "Mobility & Travel", Types: []ThreatType{
			ThreatTravelAlert, ThreatTravelRestriction, ThreatBorderClosure,
			ThreatEvacuationOrder, ThreatMarine, ThreatPortClosure, ThreatAirspaceRestriction,
		}},
		{Name: "Information & Governance", Types: []ThreatType{
			ThreatDisinformation, ThreatMisinformation, ThreatPropaganda,
			ThreatStateOfEmergency, ThreatCurfew, ThreatSanctions,
		}},
	}
}

// AllThreatTypes returns the closed enumeration, OTHER last.
func AllThreatTypes() []ThreatType {
	var all []ThreatType
	for _, f := range ThreatFamilies() {
		all = append(all, f.Types...)
	}
	return append(all, ThreatOther)
}
