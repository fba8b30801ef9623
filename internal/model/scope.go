package model

import "strconv"

type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleOperator Role = "OPERATOR"
	RoleCity     Role = "CITY_MANAGER"
)

type Principal struct {
	UserID  string
	Role    Role
	CityIDs []int64
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

type ScopeType string

const (
	ScopeNation ScopeType = "NATION"
	ScopeCities ScopeType = "CITIES"
)

// Scope limits which ranking rows a principal sees.
type Scope struct {
	Type    ScopeType
	CityIDs map[string]struct{}
}

func ScopeFor(p Principal) Scope {
	if p.IsAdmin() || len(p.CityIDs) == 0 {
		return Scope{Type: ScopeNation}
	}
	ids := make(map[string]struct{}, len(p.CityIDs))
	for _, id := range p.CityIDs {
		ids[strconv.FormatInt(id, 10)] = struct{}{}
	}
	return Scope{Type: ScopeCities, CityIDs: ids}
}

// AllowsCityKey reports whether a pivoted row keyed by cityKey is visible.
// City-scoped principals never see the nation-wide total.
func (s Scope) AllowsCityKey(cityKey string) bool {
	if s.Type == ScopeNation {
		return true
	}
	if cityKey == AllCityKey {
		return false
	}
	_, ok := s.CityIDs[cityKey]
	return ok
}

// AllowsCity reports whether a portrait query for city is permitted. An
// empty city means nation-wide.
func (s Scope) AllowsCity(city string) bool {
	if s.Type == ScopeNation {
		return true
	}
	if city == "" {
		return false
	}
	_, ok := s.CityIDs[city]
	return ok
}
