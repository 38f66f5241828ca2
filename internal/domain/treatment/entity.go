package treatment

// Kind enum
type Kind string

const (
	KindChemical   Kind = "chemical"
	KindBiological Kind = "biological"
	KindCultural   Kind = "cultural"
)

// Display labels shown to the user per kind.
var Labels = map[Kind]string{
	KindChemical:   "Thuốc hóa học",
	KindBiological: "Biện pháp sinh học",
	KindCultural:   "Biện pháp canh tác",
}

// Group is one non-empty recommendation bucket for a disease. Kinds whose
// lookup returned nothing are omitted, never represented as empty groups.
type Group struct {
	Kind  Kind     `json:"kind"`
	Label string   `json:"label"`
	Items []string `json:"items"`
}
