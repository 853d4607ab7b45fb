package calendar

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const impactClassPrefix = "icon--ff-impact-"

var impactBySuffix = map[string]Impact{
	"red": ImpactHigh,
	"ora": ImpactMedium,
	"yel": ImpactLow,
	"gra": ImpactNonEconomic,
}

// classifyImpact reads the severity encoded in the impact cell's icon
// class. The first icon carrying the class prefix decides; an unknown
// suffix stays ImpactUnknown. Never an error, only information loss.
func classifyImpact(cell *goquery.Selection) Impact {
	impact := ImpactUnknown

	cell.Find("span").EachWithBreak(func(_ int, icon *goquery.Selection) bool {
		class, _ := icon.Attr("class")
		for _, token := range strings.Fields(class) {
			if suffix, ok := strings.CutPrefix(token, impactClassPrefix); ok {
				impact = impactBySuffix[suffix]
				return false
			}
		}
		return true
	})

	return impact
}
