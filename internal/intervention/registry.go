package intervention

import (
	"strings"

	"emodccdl/internal/ccdl"
)

// Family groups intervention classes that share a rendering rule.
type Family int

const (
	FamilyPlain Family = iota
	FamilyActuator
	FamilyDiagnostic
	FamilyDelayed
	FamilyMulti
	FamilyTriggered
	FamilyLeaf
)

func (f Family) String() string {
	switch f {
	case FamilyActuator:
		return "actuator"
	case FamilyDiagnostic:
		return "diagnostic"
	case FamilyDelayed:
		return "delayed"
	case FamilyMulti:
		return "multi"
	case FamilyTriggered:
		return "triggered"
	case FamilyLeaf:
		return "leaf"
	default:
		return "plain"
	}
}

// Class names with structural meaning to the decoder.
const (
	ClassBroadcastEvent     = "BroadcastEvent"
	ClassMigrateIndividuals = "MigrateIndividuals"
	ClassPropertyChanger    = "PropertyValueChanger"
	ClassHealthSeeking      = "SimpleHealthSeekingBehavior"
	ClassMulti              = "MultiInterventionDistributor"
	ClassTriggered          = "NodeLevelHealthTriggeredIV"
	ClassHIVMuxer           = "HIVMuxer"
	ClassHIVRandomChoice    = "HIVRandomChoice"
	ClassPMTCT              = "PMTCT"
	ClassAntimalarialDrug   = "AntimalarialDrug"
)

// RenderFunc renders the text that follows the class name, typically
// "(payload)". A nil RenderFunc renders the bare name.
type RenderFunc func(d *Decorator, r Record) (string, error)

// Rule binds a class (or class pattern) to its family and rendering.
// Tolerant rules degrade to the bare name with a warning when fields are missing.
type Rule struct {
	Family   Family
	Render   RenderFunc
	Tolerant bool
}

type matchRule struct {
	match func(class string) bool
	rule  Rule
}

// Registry maps intervention classes to rules. Exact class names are checked
// before patterns; patterns are checked in registration order.
type Registry struct {
	exact    map[string]Rule
	patterns []matchRule
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{exact: make(map[string]Rule)}
}

// Register binds an exact class name.
func (reg *Registry) Register(class string, rule Rule) {
	reg.exact[class] = rule
}

// RegisterMatch binds every class accepted by match.
func (reg *Registry) RegisterMatch(match func(class string) bool, rule Rule) {
	reg.patterns = append(reg.patterns, matchRule{match: match, rule: rule})
}

// Lookup returns the rule for class, or a plain bare-name rule.
func (reg *Registry) Lookup(class string) Rule {
	if rule, ok := reg.exact[class]; ok {
		return rule
	}
	for _, p := range reg.patterns {
		if p.match(class) {
			return p.rule
		}
	}
	return Rule{Family: FamilyPlain}
}

// HasSuffix matches classes ending in suffix.
func HasSuffix(suffix string) func(string) bool {
	return func(class string) bool { return strings.HasSuffix(class, suffix) }
}

// ContainsAny matches classes containing any of the fragments.
func ContainsAny(fragments ...string) func(string) bool {
	return func(class string) bool {
		for _, f := range fragments {
			if strings.Contains(class, f) {
				return true
			}
		}
		return false
	}
}

// DefaultRegistry returns the registry covering the generic actuators, the
// structural families, and the disease-specific leaves.
func DefaultRegistry() *Registry {
	reg := NewRegistry()

	reg.Register(ClassPropertyChanger, Rule{Family: FamilyActuator, Render: renderPropertyChanger})
	reg.Register(ClassMigrateIndividuals, Rule{Family: FamilyActuator, Render: renderField("NodeID_To_Migrate_To")})
	reg.Register(ClassBroadcastEvent, Rule{Family: FamilyActuator, Render: renderBroadcast})
	reg.Register(ClassHealthSeeking, Rule{Family: FamilyActuator, Render: renderHealthSeeking})
	reg.Register(ClassMulti, Rule{Family: FamilyMulti})
	reg.Register(ClassTriggered, Rule{Family: FamilyTriggered})

	reg.RegisterMatch(HasSuffix(ccdl.DelayedTerm), Rule{Family: FamilyDelayed, Render: renderDelayed})
	reg.RegisterMatch(ContainsAny("Diagnostic", "DrawBlood"), Rule{Family: FamilyDiagnostic, Render: renderDiagnostic, Tolerant: true})

	registerLeaves(reg)
	return reg
}
