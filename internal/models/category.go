package models

// Category groups provider place types for display.
type Category string

const (
	CategoryBeach      Category = "beach"
	CategoryPark       Category = "park"
	CategoryNature     Category = "natural_feature"
	CategoryRestaurant Category = "restaurant"
	CategoryCafe       Category = "cafe"
	CategoryBar        Category = "bar"
	CategoryMuseum     Category = "museum"
	CategoryGallery    Category = "art_gallery"
	CategoryAttraction Category = "tourist_attraction"
	CategoryStore      Category = "store"
	CategoryMall       Category = "shopping_mall"
	CategoryBuilding   Category = "building"
	CategoryDefault    Category = "default"
)

// Palette is the colour triple used to render a category.
type Palette struct {
	Background string `json:"bg"`
	Text       string `json:"text"`
	Hover      string `json:"hover"`
}

var (
	nature   = Palette{"#e8f5e9", "#2e7d32", "#c8e6c9"}
	drink    = Palette{"#fff3e0", "#e65100", "#ffe0b2"}
	culture  = Palette{"#f3e5f5", "#6a1b9a", "#e1bee7"}
	shopping = Palette{"#e1f5fe", "#0277bd", "#b3e5fc"}

	palettes = map[Category]Palette{
		CategoryBeach:      {"#e3f2fd", "#1565c0", "#bbdefb"},
		CategoryPark:       nature,
		CategoryNature:     nature,
		CategoryRestaurant: {"#ffebee", "#c62828", "#ffcdd2"},
		CategoryCafe:       drink,
		CategoryBar:        drink,
		CategoryMuseum:     culture,
		CategoryGallery:    culture,
		CategoryAttraction: culture,
		CategoryStore:      shopping,
		CategoryMall:       shopping,
		CategoryBuilding:   {"#eeeeee", "#424242", "#e0e0e0"},
		CategoryDefault:    {"#f5f5f5", "#616161", "#e0e0e0"},
	}

	// specific types, checked in priority order before the generic building types
	categoryPriority = []Category{
		CategoryBeach, CategoryPark, CategoryNature,
		CategoryRestaurant, CategoryCafe, CategoryBar,
		CategoryMuseum, CategoryGallery, CategoryAttraction,
		CategoryStore, CategoryMall,
	}

	buildingTypes = map[string]bool{"premise": true, "point_of_interest": true, "establishment": true}
)

// CategoryOf picks the highest priority category among the provider types.
func CategoryOf(tags []string) Category {
	if len(tags) == 0 {
		return CategoryDefault
	}

	present := make(map[string]bool, len(tags))
	for _, t := range tags {
		present[t] = true
	}

	for _, c := range categoryPriority {
		if present[string(c)] {
			return c
		}
	}

	for _, t := range tags {
		if buildingTypes[t] {
			return CategoryBuilding
		}
	}
	return CategoryDefault
}

// Palette returns the colours for the category.
func (c Category) Palette() Palette {
	if p, ok := palettes[c]; ok {
		return p
	}
	return palettes[CategoryDefault]
}
