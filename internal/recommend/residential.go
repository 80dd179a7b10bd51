package recommend

import (
	"log"
	"strings"

	"relocation-advisor/internal/llm"
	"relocation-advisor/internal/places"
)

const minProperties = 3

// EnforceResidential drops generated listings that are not plausibly homes
// and pads the result back up to three entries with clearly marked
// placeholders. The returned slice parallels a Placeholder flag slice so the
// caller can persist which entries are synthetic.
func EnforceResidential(items []llm.PropertyItem, filter *places.Filter, areaName, state string) ([]llm.PropertyItem, []bool) {
	kept := make([]llm.PropertyItem, 0, len(items))
	for _, item := range items {
		item.Details.Type = llm.NormalizePropertyType(item.Details.Type)
		if !llm.IsResidentialType(item.Details.Type) {
			log.Printf("[recommend] ✂️ Dropping non-residential listing %q (type %s)", item.Address, item.Details.Type)
			continue
		}
		blob := strings.Join([]string{item.Address, item.Description, item.FullDescription}, " ")
		if filter.CommercialText(blob) {
			log.Printf("[recommend] ✂️ Dropping commercial-sounding listing %q", item.Address)
			continue
		}
		kept = append(kept, item)
	}

	placeholders := make([]bool, len(kept))
	for len(kept) < minProperties {
		kept = append(kept, placeholderProperty(areaName, state))
		placeholders = append(placeholders, true)
	}
	return kept, placeholders
}

func placeholderProperty(areaName, state string) llm.PropertyItem {
	fallback := llm.Fallbacks["property"]
	return llm.PropertyItem{
		Address:         areaName + ", " + state,
		Price:           "$0",
		Description:     "Residential placeholder entry.",
		FullDescription: "Placeholder residential card to meet minimum count. Replace on refresh.",
		ImageURLs:       []string{fallback, fallback, fallback},
		Details: llm.PropertyDetails{
			Type:          "single_family",
			BuiltYear:     2000,
			LotSizeSqFt:   0,
			ParkingSpaces: 0,
			InUnitLaundry: true,
			District:      areaName,
		},
	}
}
