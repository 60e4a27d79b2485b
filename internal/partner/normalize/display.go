package normalize

import (
	"fmt"
	"slices"
	"strings"

	"github.com/gartstein/partnerhub/internal/partner/models"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	FreePlanLabel       = "Free plan available"
	ContactPricingLabel = "Contact for pricing"
)

// Partner type labels derived from service models.
const (
	SolutionPartner = "Solution Partner"
	TechProvider    = "Tech Provider"
	TechPartner     = "Tech Partner"
)

var usd = message.NewPrinter(language.AmericanEnglish)

// PricingLabel renders a minimum spend for display.
func PricingLabel(minimumSpend *float64) string {
	if minimumSpend == nil {
		return ContactPricingLabel
	}
	if IsFreePlan(minimumSpend) {
		return FreePlanLabel
	}
	return fmt.Sprintf("Minimum spend: %s monthly", FormatUSD(*minimumSpend))
}

// IsFreePlan reports whether the spend marks a free plan (0 or -1).
func IsFreePlan(minimumSpend *float64) bool {
	return minimumSpend != nil && (*minimumSpend == 0 || *minimumSpend == -1)
}

// FormatUSD formats v as US dollars with two decimals and digit grouping.
func FormatUSD(v float64) string {
	if v < 0 {
		return "-" + usd.Sprintf("$%.2f", -v)
	}
	return usd.Sprintf("$%.2f", v)
}

// PartnerTypeLabel maps service models to the badge shown on partner cards.
func PartnerTypeLabel(serviceModels []string) string {
	switch {
	case slices.Contains(serviceModels, models.ServiceModelSaaS):
		return SolutionPartner
	case slices.Contains(serviceModels, models.ServiceModelManaged),
		slices.Contains(serviceModels, models.ServiceModelProjectBased):
		return TechProvider
	default:
		return TechPartner
	}
}

// LocationSummary condenses a country list: more than ten reads "Global",
// more than three lists the first three and a remainder count.
func LocationSummary(countries []string) string {
	switch {
	case len(countries) > 10:
		return "Global"
	case len(countries) > 3:
		return fmt.Sprintf("%s, and %d more", strings.Join(countries[:3], ", "), len(countries)-3)
	default:
		return strings.Join(countries, ", ")
	}
}
