package merge

// State is a step of the assembler's state machine.
//
//	Idle -> LoadTemplate -> { FillForm -> RenderOverlays -> Materialize ->
//	        CopyIntoAccumulator -> [Flush] -> ReloadTemplate } ->
//	        [FinalizeCombined] -> Done
//
// Failed can be entered from every state and is terminal, as is Done.
type State int

const (
	Idle State = iota
	LoadTemplate
	FillForm
	RenderOverlays
	Materialize
	CopyIntoAccumulator
	Flush
	ReloadTemplate
	FinalizeCombined
	Done
	Failed
)

var stateNames = [...]string{
	Idle:                "idle",
	LoadTemplate:        "load-template",
	FillForm:            "fill-form",
	RenderOverlays:      "render-overlays",
	Materialize:         "materialize",
	CopyIntoAccumulator: "copy",
	Flush:               "flush",
	ReloadTemplate:      "reload-template",
	FinalizeCombined:    "finalize",
	Done:                "done",
	Failed:              "failed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Terminal reports whether no transitions leave s.
func (s State) Terminal() bool {
	return s == Done || s == Failed
}
