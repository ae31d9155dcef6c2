package intervention

import (
	"strings"

	"emodccdl/internal/ccdl"
)

// DefaultSeekerName is the Intervention_Name that health-seeking payloads omit.
const DefaultSeekerName = "HSB"

// renderField renders a single field verbatim as the payload.
func renderField(key string) RenderFunc {
	return func(_ *Decorator, r Record) (string, error) {
		v, err := r.Scalar(key)
		if err != nil {
			return "", err
		}
		return wrap(v), nil
	}
}

func renderPropertyChanger(_ *Decorator, r Record) (string, error) {
	key, err := r.Scalar("Target_Property_Key")
	if err != nil {
		return "", err
	}
	value, err := r.Scalar("Target_Property_Value")
	if err != nil {
		return "", err
	}
	return wrap(key + ":" + value), nil
}

func renderBroadcast(d *Decorator, r Record) (string, error) {
	sig, err := r.Scalar(FieldBroadcastEvent)
	if err != nil {
		return "", err
	}
	return wrap(d.Alias(sig)), nil
}

func renderHealthSeeking(d *Decorator, r Record) (string, error) {
	goal, err := r.Scalar("Actual_IndividualIntervention_Event")
	if err != nil {
		return "", err
	}
	tendency, err := r.Scalar("Tendency")
	if err != nil {
		return "", err
	}
	parts := []string{d.Alias(goal), tendency}
	if name, err := r.Scalar("Intervention_Name"); err == nil && name != DefaultSeekerName {
		parts = append(parts, name)
	}
	return wrap(strings.Join(parts, ccdl.MultiSignalSep)), nil
}

func renderDiagnostic(d *Decorator, r Record) (string, error) {
	pos, err := r.Scalar("Positive_Diagnosis_Event")
	if err != nil {
		return "", err
	}
	neg := ccdl.NullSignal
	if v, err := r.Scalar("Negative_Diagnosis_Event"); err == nil {
		neg = d.Alias(v)
	}
	return wrap(d.Alias(pos) + ccdl.MultiSignalSep + neg), nil
}
