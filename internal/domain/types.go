package domain

import "strings"

// ResourceType classifies a water-infrastructure object.
type ResourceType string

const (
	Lake         ResourceType = "lake"
	Canal        ResourceType = "canal"
	Reservoir    ResourceType = "reservoir"
	Lock         ResourceType = "lock"
	HydroComplex ResourceType = "hydro_complex"
	Dam          ResourceType = "dam"
)

// WaterType describes the water an object holds. The zero value means unset.
type WaterType string

const (
	WaterFresh  WaterType = "fresh"
	WaterSaline WaterType = "saline"
	WaterNone   WaterType = "none"
)

// resourceTypeAliases maps every accepted spelling to its canonical type.
// The importer emits the Russian registry names; standardized feeds use the
// English ones.
var resourceTypeAliases = map[string]ResourceType{
	"lake":          Lake,
	"озеро":         Lake,
	"canal":         Canal,
	"канал":         Canal,
	"reservoir":     Reservoir,
	"водохранилище": Reservoir,
	"lock":          Lock,
	"шлюз":          Lock,
	"hydro_complex": HydroComplex,
	"hydro-complex": HydroComplex,
	"hydrocomplex":  HydroComplex,
	"гидроузел":     HydroComplex,
	"dam":           Dam,
	"плотина":       Dam,
}

var waterTypeAliases = map[string]WaterType{
	"fresh":     WaterFresh,
	"пресная":   WaterFresh,
	"saline":    WaterSaline,
	"non_fresh": WaterSaline,
	"non-fresh": WaterSaline,
	"непресная": WaterSaline,
	"none":      WaterNone,
	"dry":       WaterNone,
	"нет":       WaterNone,
}

// ParseResourceType normalizes a resource type name. The boolean is false when
// the name is not recognized.
func ParseResourceType(s string) (ResourceType, bool) {
	t, ok := resourceTypeAliases[strings.ToLower(strings.TrimSpace(s))]
	return t, ok
}

// ParseWaterType normalizes a water type name. Empty and "null" input yield
// the unset value and true; unrecognized names yield false.
func ParseWaterType(s string) (WaterType, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" || s == "null" {
		return "", true
	}
	t, ok := waterTypeAliases[s]
	return t, ok
}
