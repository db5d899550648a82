package domain

import "math"

// Parameter is a gameplay value driven by the ownership concentration of the
// stock bound to it. Value always stays inside [Min, Max].
type Parameter struct {
	Key         string  `json:"key"`
	Value       float64 `json:"value"`
	Min         float64 `json:"min"`
	Max         float64 `json:"max"`
	Unit        string  `json:"unit"`
	Description string  `json:"description"`
}

// Midpoint returns the neutral value used when no non-house shares exist.
func (p *Parameter) Midpoint() float64 {
	return round2((p.Min + p.Max) / 2)
}

// Reset moves the parameter back to its midpoint.
func (p *Parameter) Reset() {
	p.Value = p.Midpoint()
}

// MapConcentration derives Value from an ownership-concentration ratio in
// [0,1] by linear interpolation across [Min, Max], clamped and rounded to two
// decimal places so broadcast values stay stable against floating noise.
func (p *Parameter) MapConcentration(ratio float64) {
	v := p.Min + (p.Max-p.Min)*ratio
	v = math.Max(p.Min, math.Min(p.Max, v))
	p.Value = round2(v)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// DefaultParameters returns the gameplay parameter table with every value at
// its midpoint. Keys and bounds match what the game client applies in-world.
func DefaultParameters() []*Parameter {
	params := []*Parameter{
		{Key: "gravity", Min: 1.0, Max: 20.0, Unit: "m/s²", Description: "Controls the gravity level in the game world"},
		{Key: "npcHealth", Min: 10, Max: 1000, Unit: "HP", Description: "Sets the maximum health for all NPCs"},
		{Key: "vehicleSpeed", Min: 0.1, Max: 5.0, Unit: "multiplier", Description: "Multiplies vehicle acceleration and top speed"},
		{Key: "wantedDifficulty", Min: 0.1, Max: 3.0, Unit: "multiplier", Description: "Adjusts police response difficulty"},
		{Key: "rainIntensity", Min: 0.0, Max: 1.0, Unit: "level", Description: "Controls rainfall intensity"},
		{Key: "tractionLoss", Min: 0.5, Max: 2.0, Unit: "multiplier", Description: "Affects vehicle tire traction"},
		{Key: "playerArmor", Min: 50, Max: 500, Unit: "points", Description: "Sets maximum player armor capacity"},
		{Key: "snowLevel", Min: 0.0, Max: 1.0, Unit: "level", Description: "Controls snow accumulation"},
		{Key: "playerHealthRecharge", Min: 0.5, Max: 2.0, Unit: "multiplier", Description: "Player health recharge rate"},
		{Key: "playerSprintMult", Min: 0.5, Max: 2.0, Unit: "multiplier", Description: "Player sprint speed"},
		{Key: "playerSwimMult", Min: 0.5, Max: 2.0, Unit: "multiplier", Description: "Player swim speed"},
		{Key: "playerWeaponDmg", Min: 0.5, Max: 2.0, Unit: "multiplier", Description: "Player weapon damage"},
		{Key: "playerWeaponDef", Min: 0.5, Max: 2.0, Unit: "multiplier", Description: "Player weapon defense"},
		{Key: "playerMeleeDmg", Min: 0.5, Max: 2.0, Unit: "multiplier", Description: "Player melee damage"},
		{Key: "playerVehicleDmg", Min: 0.5, Max: 2.0, Unit: "multiplier", Description: "Player vehicle damage"},
		{Key: "vehicleEnginePower", Min: 0.5, Max: 2.0, Unit: "multiplier", Description: "Vehicle engine power"},
		{Key: "vehicleEngineTorque", Min: 0.5, Max: 2.0, Unit: "multiplier", Description: "Vehicle engine torque"},
		{Key: "pedMaxHealth", Min: 50, Max: 200, Unit: "HP", Description: "Pedestrian max health"},
	}
	for _, p := range params {
		p.Reset()
	}
	return params
}
