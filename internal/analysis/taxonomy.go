package analysis

import "slices"

// Class is one entry in the unsafe-content taxonomy. Floor is the minimum
// detector score in [0,1] at which a match counts.
type Class struct {
	Type     string
	Category Category
	Tokens   []string
	Severity Severity
	Floor    float64
}

// Taxonomy types.
const (
	TypeFirearms        = "weapons_firearms"
	TypeMelee           = "weapons_melee"
	TypeExplosives      = "weapons_explosives"
	TypeViolenceDirect  = "violence_direct"
	TypeViolenceGraphic = "violence_graphic"
	TypeMilitary        = "context_military"
	TypeCriminal        = "context_criminal"
)

// Taxonomy lists every content class in evaluation order.
var Taxonomy = []Class{
	{TypeFirearms, CategoryWeapons, []string{"rifle", "gun", "pistol", "shotgun", "revolver", "firearm"}, SeverityCritical, 0.4},
	{TypeMelee, CategoryWeapons, []string{"knife", "sword", "axe", "machete", "dagger", "blade"}, SeverityHigh, 0.5},
	{TypeExplosives, CategoryWeapons, []string{"bomb", "grenade", "explosive", "missile"}, SeverityCritical, 0.3},
	{TypeViolenceDirect, CategoryViolence, []string{"fight", "assault", "attack", "combat", "fighting"}, SeverityHigh, 0.4},
	{TypeViolenceGraphic, CategoryViolence, []string{"blood", "injury", "wound", "gore"}, SeverityHigh, 0.5},
	{TypeMilitary, CategoryContext, []string{"military", "soldier", "army", "warfare", "battlefield", "tank"}, SeverityMedium, 0.6},
	{TypeCriminal, CategoryContext, []string{"crime", "robbery", "shooting", "terrorism"}, SeverityHigh, 0.5},
}

// Classes returns the taxonomy entries in the given categories.
func Classes(categories ...Category) []Class {
	var out []Class
	for _, c := range Taxonomy {
		if slices.Contains(categories, c.Category) {
			out = append(out, c)
		}
	}
	return out
}

// UnsafeKeywords returns every taxonomy token, de-duplicated, in taxonomy order.
func UnsafeKeywords() []string {
	var out []string
	for _, c := range Taxonomy {
		for _, tok := range c.Tokens {
			if !slices.Contains(out, tok) {
				out = append(out, tok)
			}
		}
	}
	return out
}

var mandatory = map[string]Severity{
	TypeFirearms:        SeverityCritical,
	TypeExplosives:      SeverityCritical,
	TypeBloodDetected:   SeverityHigh,
	TypeViolenceGraphic: SeverityHigh,
	TypeMelee:           SeverityMedium,
	TypeViolenceDirect:  SeverityMedium,
}

// MandatoryFloor returns the severity floor forced by the presence of
// evidence type t, and false if t does not force a flag.
func MandatoryFloor(t string) (Severity, bool) {
	s, ok := mandatory[t]
	return s, ok
}
