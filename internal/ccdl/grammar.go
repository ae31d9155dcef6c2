// Package ccdl holds the grammar of the Concise Campaign Definition Language and a
// small hand-written parser for it.
//
// A CCDL event line has four fields in fixed order:
//
//	WHEN :: WHERE :: WHO :: WHAT
//
//	WHEN:  <Start>  |  <Start>-<End>  |  <Start>(x<Reps>/_<Gap>)
//	WHERE: AllPlaces  |  [n, n, ...]
//	WHO:   <Coverage%>[/<Sex>][/><MinAge>][/<<MaxAge>][/<Key>=<Value>]
//	WHAT:  [<Trigger>+<Trigger>->]<Name(Payload)>+<Name(Payload)>=><Name(Payload)>...
//
// A line without the field separator may instead declare a preset (name=literal).
package ccdl

// Separators. FieldSep is the canonical separator written by the decoder; the
// parser splits on the bare "::" and trims surrounding space.
const (
	FieldSep        = " :: "
	FieldSepBare    = "::"
	MultiTriggerSep = "+"
	MultiIVSep      = "+"
	PostTriggerSep  = "->"
	PostDelaySep    = "=>"
	MultiSignalSep  = "/"
	PresetSep       = "="
	NodeListSep     = ", "
)

// Field indices. These never change order.
const (
	WhenIdx     = 0
	WhereIdx    = 1
	WhoIdx      = 2
	WhatIdx     = 3
	NicknameIdx = 4
)

// Tokens with fixed meaning.
const (
	AllPlaces       = "AllPlaces"
	Steered         = "STEERED"
	Wildcard        = "*"
	NullSignal      = "null"
	DelayedTerm     = "DelayedIntervention"
	PercentSuffix   = "%"
	MinAgePrefix    = ">"
	MaxAgePrefix    = "<"
	RangeSep        = "-"
	RepeatOpen      = "(x"
	RepeatGapSep    = "/_"
	RepeatClose     = ")"
	NoGapLiteral    = "None"
	GenderMarker    = "ale"
	PresetMarker    = "map"
	RestrictionSep  = "="
	RestrictionJoin = ","
)

// OpenEnd is the interval end used for events without an explicit end day.
const OpenEnd = 1e9

// MinFields is the minimum number of "::" segments for a line to be treated as
// an event rather than skipped.
const MinFields = 2

// EventFields is the number of fields in a complete event line.
const EventFields = 4
