package llm

import (
	"fmt"
	"strings"
)

// Stock fallback image per category, used in prompts and whenever a photo
// lookup comes back empty.
var Fallbacks = map[string]string{
	"school":     "https://cdn.pixabay.com/photo/2016/11/21/16/36/school-1844439_1280.jpg",
	"social":     "https://cdn.pixabay.com/photo/2016/11/29/12/35/club-1867421_1280.jpg",
	"shopping":   "https://cdn.pixabay.com/photo/2016/10/30/05/26/mall-1786475_1280.jpg",
	"greens":     "https://cdn.pixabay.com/photo/2016/07/27/05/19/park-1544552_1280.jpg",
	"sports":     "https://cdn.pixabay.com/photo/2016/11/29/09/08/sport-1867161_1280.jpg",
	"property":   "https://cdn.pixabay.com/photo/2016/08/26/15/06/house-1622401_1280.jpg",
	"area":       "https://cdn.pixabay.com/photo/2016/11/29/04/28/architecture-1868667_1280.jpg",
	"transport":  "https://cdn.pixabay.com/photo/2016/11/29/02/18/bus-1868567_1280.jpg",
	"family":     "https://cdn.pixabay.com/photo/2016/08/08/09/17/family-1578992_1280.jpg",
	"restaurant": "https://cdn.pixabay.com/photo/2016/07/06/16/46/restaurant-1507255_1280.jpg",
	"pet":        "https://cdn.pixabay.com/photo/2016/09/10/17/18/dog-1652822_1280.jpg",
	"hobby":      "https://cdn.pixabay.com/photo/2016/10/09/13/32/guitar-1720962_1280.jpg",
}

// CorePrompt is the system prompt for the first-stage area generation.
func CorePrompt() string {
	return strings.TrimSpace(fmt.Sprintf(`
You are a smart real estate recommendation engine.

STRICT CONSTRAINTS
- RESIDENTIAL ONLY. Exclude office, retail, warehouse, industrial, and any business/commercial addresses.
- Allowed residential types: %s.

TASK
- Generate between 3 and 10 recommended areas matching the user profile.
- Also return a single propertySuggestion (type, idealFor, priceRange, fullDescription).

OUTPUT RULES
- Integers only for demographic counts; concise text; match the JSON schema exactly.
`, strings.Join(ResidentialTypes, ", ")))
}

// DetailsPrompt is the system prompt for the per-area details generation.
func DetailsPrompt() string {
	return strings.TrimSpace(fmt.Sprintf(`
You are a smart real estate recommendation engine.

STRICT CONSTRAINTS
- RESIDENTIAL ONLY listings. Ignore anything that appears commercial (e.g., "Chamber of Commerce", "Bookkeeping", "Suite #").
- Use only these types for property.details.type: %s.

TASK
- For a single area, output: schools (3 items), socialLife (3), shopping (3), greenSpaces (3), sports (3), transportation (3), family (3), restaurants (3), pets (3), hobbies (3), plus properties.
- Every category must include a summary of exactly three bullet points.
- Every item must include fullDescription (at least 20 characters) and website (a valid URL or null).

IMAGE RULES
- Direct https files (.jpg/.jpeg/.png/.webp). property.imageUrls = 3-5 entries, fill with defaults:
  school: %s
  social: %s
  shopping: %s
  greens: %s
  sports: %s
  property: %s

TEXT RULES
- Short descriptions; match the JSON schema exactly.
`, strings.Join(ResidentialTypes, ", "),
		Fallbacks["school"], Fallbacks["social"], Fallbacks["shopping"],
		Fallbacks["greens"], Fallbacks["sports"], Fallbacks["property"]))
}
