package intervention

import (
	"strings"

	"emodccdl/internal/ccdl"
)

type delayParam struct {
	key      string
	fallback string
}

// delayParams lists, per distribution, the fields rendered after its name.
var delayParams = map[string][]delayParam{
	"FIXED":       {{key: "Delay_Period"}},
	"EXPONENTIAL": {{key: "Delay_Period"}},
	"UNIFORM":     {{key: "Delay_Period_Min", fallback: "0"}, {key: "Delay_Period_Max"}},
	"GAUSSIAN":    {{key: "Delay_Period_Mean"}, {key: "Delay_Period_Std_Dev"}},
	"WEIBULL":     {{key: "Delay_Period_Scale"}, {key: "Delay_Period_Shape"}},
}

// DelayPayload renders the distribution name and its parameters, e.g. "UNIFORM/0/10".
// Distributions without a known parameter set render as the bare name.
func DelayPayload(r Record) (string, error) {
	key := "Delay_Period_Distribution"
	if !r.Has(key) {
		key = "Delay_Distribution"
	}
	dist, err := r.Scalar(key)
	if err != nil {
		return "", err
	}
	dist = strings.ReplaceAll(dist, "_DURATION", "")

	parts := []string{dist}
	for _, p := range delayParams[dist] {
		v, err := r.Scalar(p.key)
		if err != nil {
			if p.fallback == "" {
				return "", err
			}
			v = p.fallback
		}
		parts = append(parts, v)
	}
	return strings.Join(parts, ccdl.MultiSignalSep), nil
}

func renderDelayed(d *Decorator, r Record) (string, error) {
	payload, err := DelayPayload(r)
	if err != nil {
		return "", err
	}
	tail := wrap(payload)
	if sig, err := r.Scalar(FieldBroadcastEvent); err == nil {
		tail += ccdl.PostDelaySep + ClassBroadcastEvent + wrap(d.Alias(sig))
	}
	return tail, nil
}
