package decode

import (
	"strings"

	"emodccdl/internal/ccdl"
	"emodccdl/internal/intervention"
)

// Coordinator and targeting constants.
const (
	StandardCoordinator = "StandardInterventionDistributionEventCoordinator"
	DefaultGender       = "Both"
	MaxAgeDays          = 120 * 365
)

// audience accumulates the WHO contribution of the triggered record and the
// event coordinator before it is rendered.
type audience struct {
	steered     bool
	coverage    float64
	gender      string
	minAge      string
	maxAge      string
	restriction string
}

func newAudience(coord intervention.Record) *audience {
	return &audience{
		steered:  coord.Class != StandardCoordinator,
		coverage: 1,
		gender:   DefaultGender,
	}
}

// fromTriggered applies the triggered record's targeting.
func (a *audience) fromTriggered(iv intervention.Record, diags *ccdl.Diagnostics) error {
	if iv.Has("Demographic_Coverage") {
		cov, err := iv.Number("Demographic_Coverage")
		if err != nil {
			return err
		}
		a.coverage, a.steered = cov, false
	}
	if g, err := iv.Scalar("Target_Gender"); err == nil {
		a.gender = g
	}
	a.minAge, a.maxAge = ages(iv, diags)
	a.restriction = restriction(iv)
	return nil
}

// fromCoordinator merges the coordinator's targeting. Coverage and gender only
// fill values still at their defaults; non-default ages and a non-empty
// restriction take precedence over the triggered record's.
func (a *audience) fromCoordinator(coord intervention.Record, diags *ccdl.Diagnostics) error {
	if coord.Has("Demographic_Coverage") && !a.steered && a.coverage == 1 {
		cov, err := coord.Number("Demographic_Coverage")
		if err != nil {
			return err
		}
		a.coverage = cov
	}
	if g, err := coord.Scalar("Target_Gender"); err == nil && a.gender == DefaultGender {
		a.gender = g
	}
	minAge, maxAge := ages(coord, diags)
	if minAge != "" {
		a.minAge = minAge
	}
	if maxAge != "" {
		a.maxAge = maxAge
	}
	if ip := restriction(coord); ip != "" {
		a.restriction = ip
	}
	return nil
}

func (a *audience) String() string {
	var b strings.Builder
	if a.steered {
		b.WriteString(ccdl.Steered)
	} else {
		b.WriteString(formatFloat(a.coverage * 100))
		b.WriteString(ccdl.PercentSuffix)
	}
	if strings.Contains(a.gender, ccdl.GenderMarker) {
		b.WriteString(ccdl.MultiSignalSep + a.gender)
	}
	if a.minAge != "" {
		b.WriteString(ccdl.MultiSignalSep + ccdl.MinAgePrefix + a.minAge)
	}
	if a.maxAge != "" {
		b.WriteString(ccdl.MultiSignalSep + ccdl.MaxAgePrefix + a.maxAge)
	}
	if a.restriction != "" && a.restriction != "None" {
		b.WriteString(ccdl.MultiSignalSep + a.restriction)
	}
	return b.String()
}

// ages returns the non-default age bounds of r as written in the source, or
// empty strings for defaults. Unreadable ages are reported and ignored.
func ages(r intervention.Record, diags *ccdl.Diagnostics) (minAge, maxAge string) {
	if r.Has("Target_Age_Min") {
		v, err := r.Number("Target_Age_Min")
		if err != nil {
			*diags = append(*diags, ccdl.Warnf(ccdl.FieldAccessError, r.Class, "Target_Age_Min: %v", err))
		} else if v > 0 {
			minAge, _ = r.Scalar("Target_Age_Min")
		}
	}
	if r.Has("Target_Age_Max") {
		v, err := r.Number("Target_Age_Max")
		if err != nil {
			*diags = append(*diags, ccdl.Warnf(ccdl.FieldAccessError, r.Class, "Target_Age_Max: %v", err))
		} else if v < MaxAgeDays {
			maxAge, _ = r.Scalar("Target_Age_Max")
		}
	}
	return minAge, maxAge
}

// restriction renders a record's property restrictions as "k=v[,k=v]".
// Property_Restrictions holds "k:v" strings; Property_Restrictions_Within_Node
// holds objects, of which the first is used.
func restriction(r intervention.Record) string {
	if r.Has("Property_Restrictions") {
		items, err := r.Strings("Property_Restrictions")
		if err != nil {
			return ""
		}
		pairs := make([]string, len(items))
		for i, item := range items {
			pairs[i] = strings.Replace(item, ":", ccdl.RestrictionSep, 1)
		}
		return strings.Join(pairs, ccdl.RestrictionJoin)
	}
	within, ok := r.Fields["Property_Restrictions_Within_Node"].([]any)
	if !ok || len(within) == 0 {
		return ""
	}
	first, ok := within[0].(map[string]any)
	if !ok || len(first) == 0 {
		return ""
	}
	keys := intervention.SortedKeys(first)
	pairs := make([]string, len(keys))
	for i, k := range keys {
		pairs[i] = k + ccdl.RestrictionSep + intervention.FormatScalar(first[k])
	}
	return strings.Join(pairs, ccdl.RestrictionJoin)
}
