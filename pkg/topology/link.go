package topology

// Endpoint is one end of a link.
type Endpoint struct {
	Node string `json:"node" yaml:"node" bson:"node"`
	TP   string `json:"tp" yaml:"tp" bson:"tp"`
}

// Span is one fiber segment of an optical multiplex section.
type Span struct {
	LengthKm  float64  `json:"length_km" yaml:"length_km" bson:"length_km"`
	FiberType string   `json:"fiber_type,omitempty" yaml:"fiber_type,omitempty" bson:"fiber_type,omitempty"`
	SRLGs     []uint32 `json:"srlgs,omitempty" yaml:"srlgs,omitempty" bson:"srlgs,omitempty"`
	LossDB    *float64 `json:"loss_db,omitempty" yaml:"loss_db,omitempty" bson:"loss_db,omitempty"`
	// PMD is the span PMD in ps; spans accumulate it in quadrature.
	PMD *float64 `json:"pmd,omitempty" yaml:"pmd,omitempty" bson:"pmd,omitempty"`
}

// LinkImpairments is a whole-link impairment record used when a link does
// not describe its individual spans.
type LinkImpairments struct {
	LengthKm  float64  `json:"length_km" yaml:"length_km" bson:"length_km"`
	FiberType string   `json:"fiber_type,omitempty" yaml:"fiber_type,omitempty" bson:"fiber_type,omitempty"`
	SRLGs     []uint32 `json:"srlgs,omitempty" yaml:"srlgs,omitempty" bson:"srlgs,omitempty"`
	LossDB    *float64 `json:"loss_db,omitempty" yaml:"loss_db,omitempty" bson:"loss_db,omitempty"`
	PMD2      *float64 `json:"pmd2,omitempty" yaml:"pmd2,omitempty" bson:"pmd2,omitempty"`
}

// Link is a raw topology link as stored in the topology store.
type Link struct {
	ID           string   `json:"id" yaml:"id" bson:"id"`
	Type         LinkType `json:"type" yaml:"type" bson:"type"`
	Source       Endpoint `json:"source" yaml:"source" bson:"source"`
	Dest         Endpoint `json:"dest" yaml:"dest" bson:"dest"`
	AdminState   State    `json:"admin_state,omitempty" yaml:"admin_state,omitempty" bson:"admin_state,omitempty"`
	OperState    State    `json:"oper_state,omitempty" yaml:"oper_state,omitempty" bson:"oper_state,omitempty"`
	OppositeLink string   `json:"opposite_link,omitempty" yaml:"opposite_link,omitempty" bson:"opposite_link,omitempty"`

	// Optical attributes.
	Spans       []Span           `json:"spans,omitempty" yaml:"spans,omitempty" bson:"spans,omitempty"`
	Impairments *LinkImpairments `json:"impairments,omitempty" yaml:"impairments,omitempty" bson:"impairments,omitempty"`

	// OTN attributes, in Mb/s.
	AvailableBandwidth *uint64 `json:"available_bandwidth,omitempty" yaml:"available_bandwidth,omitempty" bson:"available_bandwidth,omitempty"`
	UsedBandwidth      *uint64 `json:"used_bandwidth,omitempty" yaml:"used_bandwidth,omitempty" bson:"used_bandwidth,omitempty"`
	RateType           string  `json:"rate_type,omitempty" yaml:"rate_type,omitempty" bson:"rate_type,omitempty"`
}

// SRLGs returns every SRLG id declared on the link's spans, falling back
// to the whole-link impairment record.
func (l *Link) SRLGs() []uint32 {
	var out []uint32
	for _, s := range l.Spans {
		out = append(out, s.SRLGs...)
	}
	if len(out) == 0 && l.Impairments != nil {
		out = append(out, l.Impairments.SRLGs...)
	}
	return out
}
