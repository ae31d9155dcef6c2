package intervention

// registerLeaves adds the disease-specific interventions that carry a single
// notable field.
func registerLeaves(reg *Registry) {
	reg.Register(ClassHIVMuxer, Rule{Family: FamilyLeaf, Render: renderMuxer})
	reg.Register(ClassHIVRandomChoice, Rule{Family: FamilyLeaf, Render: renderField("Choices")})
	reg.Register(ClassPMTCT, Rule{Family: FamilyLeaf, Render: renderField("Efficacy")})
	reg.Register(ClassAntimalarialDrug, Rule{Family: FamilyLeaf, Render: renderField("Drug_Type")})
}

// renderMuxer highlights the muxer's raw Broadcast_Event without aliasing it.
func renderMuxer(d *Decorator, r Record) (string, error) {
	sig, err := r.Scalar(FieldBroadcastEvent)
	if err != nil {
		return "", err
	}
	return wrap(d.highlight(sig)), nil
}
