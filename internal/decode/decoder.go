package decode

import (
	"encoding/json"
	"fmt"
	"iter"
	"math"
	"strconv"
	"strings"

	"emodccdl/internal/ccdl"
	"emodccdl/internal/intervention"
	"emodccdl/internal/logging"
)

// Result is the outcome of decoding one event. Line is empty when Err is set.
type Result struct {
	Index       int
	Line        string
	Diagnostics ccdl.Diagnostics
	Err         error
}

// Decoder renders campaign events as CCDL lines.
type Decoder struct {
	dec *intervention.Decorator
}

// New returns a Decoder that renders interventions with dec.
func New(dec *intervention.Decorator) *Decoder {
	return &Decoder{dec: dec}
}

// Decode yields one Result per event, in order. Iteration is lazy and a
// failing event does not stop it.
func (d *Decoder) Decode(c *Campaign) iter.Seq[Result] {
	return func(yield func(Result) bool) {
		timer := logging.StartTimer(logging.CategoryDecode, "decode campaign")
		defer timer.Stop()
		for i, ev := range c.Events {
			if !yield(d.DecodeEvent(i, ev)) {
				return
			}
		}
	}
}

// Lines decodes every event and returns the successful lines together with
// every diagnostic, failures included.
func (d *Decoder) Lines(c *Campaign) ([]string, ccdl.Diagnostics) {
	var lines []string
	var diags ccdl.Diagnostics
	for res := range d.Decode(c) {
		diags = append(diags, res.Diagnostics...)
		if res.Err != nil {
			if diag, ok := ccdl.AsDiagnostic(res.Err); ok {
				diags = append(diags, diag)
			}
			continue
		}
		lines = append(lines, res.Line)
	}
	return lines, diags
}

// DecodeEvent decodes a single event tree.
func (d *Decoder) DecodeEvent(index int, raw any) Result {
	res := Result{Index: index}
	line, err := d.event(raw, &res.Diagnostics)
	for i, diag := range res.Diagnostics {
		res.Diagnostics[i] = diag.At(index)
	}
	if err != nil {
		res.Err = failure(index, raw, err)
		logging.Get(logging.CategoryDecode).Debug("event %d failed: %v", index, err)
		return res
	}
	res.Line = line
	return res
}

func failure(index int, raw any, err error) *ccdl.Diagnostic {
	input := ""
	if b, mErr := json.Marshal(raw); mErr == nil {
		input = string(b)
	}
	diag, ok := ccdl.AsDiagnostic(err)
	if !ok {
		diag = ccdl.Errorf(ccdl.FieldAccessError, input, "event decode failed")
		diag.Err = err
	}
	out := diag.At(index)
	out.Severity = ccdl.SeverityError
	out.Input = input
	return out
}

// when is the WHEN field under construction.
type when struct {
	day      int
	periodic string
	end      string
}

func (w when) String() string {
	day := strconv.Itoa(w.day)
	switch {
	case w.periodic != "":
		return day + w.periodic
	case w.end != "":
		return day + ccdl.RangeSep + w.end
	default:
		return day
	}
}

func (d *Decoder) event(raw any, diags *ccdl.Diagnostics) (string, error) {
	ev, ok := raw.(map[string]any)
	if !ok {
		return "", ccdl.Errorf(ccdl.FieldAccessError, "", "event is %T, not an object", raw)
	}
	coord, err := intervention.NewRecord(ev["Event_Coordinator_Config"])
	if err != nil {
		return "", fmt.Errorf("Event_Coordinator_Config: %w", err)
	}

	w, err := eventWhen(ev, coord)
	if err != nil {
		return "", err
	}
	where, err := eventWhere(ev)
	if err != nil {
		return "", err
	}

	who := newAudience(coord)
	what, err := d.eventWhat(coord, &w, who, diags)
	if err != nil {
		return "", err
	}
	if err := who.fromCoordinator(coord, diags); err != nil {
		return "", err
	}

	return strings.Join([]string{w.String(), where, who.String(), what}, ccdl.FieldSep), nil
}

func eventWhen(ev map[string]any, coord intervention.Record) (when, error) {
	w := when{day: 1}
	if v, ok := ev["Start_Day"]; ok {
		f, err := intervention.ToFloat(v)
		if err != nil {
			return w, ccdl.Errorf(ccdl.FieldAccessError, "", "Start_Day: %v", err)
		}
		w.day = int(math.Trunc(f))
	}
	if !coord.Has("Number_Repetitions") {
		return w, nil
	}
	reps, err := coord.Number("Number_Repetitions")
	if err != nil {
		return w, err
	}
	if reps == 1 {
		return w, nil
	}
	repsText, _ := coord.Scalar("Number_Repetitions")
	w.periodic = ccdl.RepeatOpen + repsText
	if coord.Has("Timesteps_Between_Repetitions") {
		gap, err := coord.Number("Timesteps_Between_Repetitions")
		if err != nil {
			return w, err
		}
		if gap != -1 {
			gapText, _ := coord.Scalar("Timesteps_Between_Repetitions")
			w.periodic += ccdl.RepeatGapSep + gapText
		}
	}
	w.periodic += ccdl.RepeatClose
	return w, nil
}

func eventWhere(ev map[string]any) (string, error) {
	ns, ok := ev["Nodeset_Config"].(map[string]any)
	if !ok {
		return "", ccdl.Errorf(ccdl.FieldAccessError, "", "event has no Nodeset_Config")
	}
	if ns[intervention.FieldClass] == "NodeSetAll" {
		return ccdl.AllPlaces, nil
	}
	list, ok := ns["Node_List"].([]any)
	if !ok {
		return "", ccdl.Errorf(ccdl.FieldAccessError, "", "Nodeset_Config has no Node_List")
	}
	ids := make([]string, len(list))
	for i, n := range list {
		ids[i] = intervention.FormatScalar(n)
	}
	return "[" + strings.Join(ids, ccdl.NodeListSep) + "]", nil
}

func (d *Decoder) eventWhat(coord intervention.Record, w *when, who *audience, diags *ccdl.Diagnostics) (string, error) {
	head, err := coord.Child("Intervention_Config")
	if err != nil {
		return "", err
	}

	signal := ""
	if d.dec.Family(head) == intervention.FamilyTriggered {
		triggers, err := head.Strings(intervention.FieldTriggers)
		if err != nil {
			return "", err
		}
		for i, t := range triggers {
			triggers[i] = d.dec.Alias(t)
		}
		signal = strings.Join(triggers, ccdl.MultiTriggerSep)

		if err := who.fromTriggered(head, diags); err != nil {
			return "", err
		}
		if err := applyDuration(head, w); err != nil {
			return "", err
		}
		if head, err = head.Child(intervention.FieldActualConfig); err != nil {
			return "", err
		}
	}

	if d.dec.Family(head) == intervention.FamilyMulti {
		return d.multi(head, signal, diags)
	}

	text, err := d.decorate(head, signal, diags)
	if err != nil {
		return "", err
	}
	if d.dec.Family(head) == intervention.FamilyDelayed {
		tail, err := d.expand(head, diags)
		if err != nil {
			return "", err
		}
		text += tail
	}
	return text, nil
}

// applyDuration turns a one-off WHEN into a range when the triggered record
// listens for a limited time.
func applyDuration(iv intervention.Record, w *when) error {
	if !iv.Has(intervention.FieldDuration) || w.periodic != "" {
		return nil
	}
	dur, err := iv.Number(intervention.FieldDuration)
	if err != nil {
		return err
	}
	if dur == -1 {
		return nil
	}
	text, _ := iv.Scalar(intervention.FieldDuration)
	if n, err := strconv.ParseInt(text, 10, 64); err == nil {
		w.end = strconv.FormatInt(int64(w.day)+n, 10)
	} else {
		w.end = formatFloat(float64(w.day) + dur)
	}
	return nil
}

// multi renders a MultiInterventionDistributor as its "+"-joined children.
func (d *Decoder) multi(iv intervention.Record, signal string, diags *ccdl.Diagnostics) (string, error) {
	children, err := iv.Children(intervention.FieldInterventionList)
	if err != nil {
		return "", err
	}
	parts := make([]string, 0, len(children))
	for _, child := range children {
		text, err := d.decorate(child, "", diags)
		if err != nil {
			return "", err
		}
		parts = append(parts, text)
	}

	var b strings.Builder
	if signal != "" {
		b.WriteString(signal + ccdl.PostTriggerSep)
	}
	b.WriteString(strings.Join(parts, ccdl.MultiIVSep))
	if n := len(children); n > 0 && d.dec.Family(children[n-1]) == intervention.FamilyDelayed {
		tail, err := d.expand(children[n-1], diags)
		if err != nil {
			return "", err
		}
		b.WriteString(tail)
	}
	return b.String(), nil
}

// expand renders what a delayed intervention distributes once its delay
// elapses, as "=>" followed by the "+"-joined children. A delayed record that
// only broadcasts is fully rendered by the decorator already.
func (d *Decoder) expand(iv intervention.Record, diags *ccdl.Diagnostics) (string, error) {
	var children []intervention.Record
	switch {
	case iv.Has(intervention.FieldActualConfigs):
		list, err := iv.Children(intervention.FieldActualConfigs)
		if err != nil {
			return "", err
		}
		children = list
	case iv.Has(intervention.FieldActualConfig):
		child, err := iv.Child(intervention.FieldActualConfig)
		if err != nil {
			return "", err
		}
		children = []intervention.Record{child}
	}
	if len(children) == 0 {
		return "", nil
	}

	parts := make([]string, 0, len(children))
	for _, child := range children {
		text, err := d.decorate(child, "", diags)
		if err != nil {
			return "", err
		}
		parts = append(parts, text)
	}
	return ccdl.PostDelaySep + strings.Join(parts, ccdl.MultiIVSep), nil
}

// decorate renders one record, collecting warnings and passing errors on.
func (d *Decoder) decorate(iv intervention.Record, signal string, diags *ccdl.Diagnostics) (string, error) {
	text, err := d.dec.Decorate(iv, signal)
	if err == nil {
		return text, nil
	}
	if diag, ok := ccdl.AsDiagnostic(err); ok && diag.Partial() {
		*diags = append(*diags, diag)
		return text, nil
	}
	return "", err
}
