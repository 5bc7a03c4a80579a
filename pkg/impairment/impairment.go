// Package impairment derives the physical-layer impairments of optical links
// from their span data.
//
// All functions are pure. Missing loss and PMD data are not errors; they are
// replaced by the engineering approximations [DefaultLoss] and [DefaultPMD2].
package impairment

import (
	"math"
	"slices"
	"strings"

	"github.com/matzehuels/pcegraph/pkg/topology"
)

// Physical constants.
const (
	// SpeedOfLight in vacuum, km/s.
	SpeedOfLight = 299792.458
	// RefractiveIndex of standard fiber.
	RefractiveIndex = 1.5
	// DefaultCDPerKm applies to unknown fiber types, ps/nm/km.
	DefaultCDPerKm = 16.5
	// PMDPerKm is the PMD coefficient used when no PMD is declared, ps/√km.
	PMDPerKm = 0.04
	// LossPerKm is the attenuation used when no loss is declared, dB/km.
	LossPerKm = 0.25
	// ConnectorLoss is added to the default loss, dB.
	ConnectorLoss = 1.0
	// PowerReference is subtracted from the launch power.
	PowerReference = 2.0
)

var cdPerKm = map[string]float64{
	"smf":       16.5,
	"ull":       16.5,
	"eleaf":     4.3,
	"oleaf":     4.3,
	"nzdsf":     4.3,
	"truewave":  4.4,
	"truewavec": 3.0,
	"dsf":       0.0,
}

var launchPower = map[string]float64{
	"smf":       2,
	"eleaf":     1,
	"truewavec": -1,
}

func normalizeFiber(fiber string) string {
	return strings.ToLower(strings.TrimSpace(fiber))
}

// Latency returns the propagation latency of a fiber of the given length.
func Latency(lengthKm float64) float64 {
	return math.Ceil(lengthKm * 1000 / (SpeedOfLight / RefractiveIndex))
}

// CDPerKm returns the chromatic dispersion coefficient of a fiber type.
func CDPerKm(fiber string) float64 {
	if cd, ok := cdPerKm[normalizeFiber(fiber)]; ok {
		return cd
	}
	return DefaultCDPerKm
}

// ChromaticDispersion returns the accumulated CD of a fiber, ps/nm.
func ChromaticDispersion(lengthKm float64, fiber string) float64 {
	return lengthKm * CDPerKm(fiber)
}

// DefaultLoss approximates the loss of a fiber with no loss data, dB.
func DefaultLoss(lengthKm float64) float64 {
	return ConnectorLoss + LossPerKm*lengthKm
}

// DefaultPMD2 approximates the squared PMD of a fiber with no PMD data.
func DefaultPMD2(lengthKm float64) float64 {
	pmd := lengthKm * PMDPerKm
	return pmd * pmd
}

// LaunchPower returns the launch power for a fiber type, dBm.
func LaunchPower(fiber string) float64 {
	return launchPower[normalizeFiber(fiber)]
}

// PowerCorrection returns the launch-power correction for a fiber type.
func PowerCorrection(fiber string) float64 {
	return LaunchPower(fiber) - PowerReference
}

// Metrics are the impairments attached to an optical link.
type Metrics struct {
	LengthKm        float64  `json:"length_km"`
	Latency         float64  `json:"latency_ms"`
	CD              float64  `json:"cd"`
	PMD2            float64  `json:"pmd2"`
	LossDB          float64  `json:"loss_db"`
	PowerCorrection float64  `json:"power_correction"`
	SRLGs           []uint32 `json:"srlgs,omitempty"`
}

// FromSpans derives metrics from span data. It reports false when there are
// no spans to derive from.
func FromSpans(spans []topology.Span) (Metrics, bool) {
	if len(spans) == 0 {
		return Metrics{}, false
	}

	var m Metrics
	var loss, pmd2 float64
	var hasLoss, hasPMD bool
	for _, s := range spans {
		m.LengthKm += s.LengthKm
		m.CD += ChromaticDispersion(s.LengthKm, s.FiberType)
		if s.LossDB != nil {
			loss += *s.LossDB
			hasLoss = true
		}
		if s.PMD != nil {
			pmd2 += *s.PMD * *s.PMD
			hasPMD = true
		}
		m.SRLGs = appendUnique(m.SRLGs, s.SRLGs...)
	}

	m.Latency = Latency(m.LengthKm)
	m.LossDB = loss
	if !hasLoss {
		m.LossDB = DefaultLoss(m.LengthKm)
	}
	m.PMD2 = pmd2
	if !hasPMD {
		m.PMD2 = DefaultPMD2(m.LengthKm)
	}
	m.PowerCorrection = PowerCorrection(spans[0].FiberType)
	return m, true
}

// FromRecord derives metrics from a whole-link impairment record.
func FromRecord(rec *topology.LinkImpairments) (Metrics, bool) {
	if rec == nil {
		return Metrics{}, false
	}
	m := Metrics{
		LengthKm:        rec.LengthKm,
		Latency:         Latency(rec.LengthKm),
		CD:              ChromaticDispersion(rec.LengthKm, rec.FiberType),
		LossDB:          DefaultLoss(rec.LengthKm),
		PMD2:            DefaultPMD2(rec.LengthKm),
		PowerCorrection: PowerCorrection(rec.FiberType),
		SRLGs:           appendUnique(nil, rec.SRLGs...),
	}
	if rec.LossDB != nil {
		m.LossDB = *rec.LossDB
	}
	if rec.PMD2 != nil {
		m.PMD2 = *rec.PMD2
	}
	return m, true
}

// ForLink derives the metrics of a link from its spans, falling back to its
// whole-link record.
func ForLink(l *topology.Link) (Metrics, bool) {
	if m, ok := FromSpans(l.Spans); ok {
		return m, true
	}
	return FromRecord(l.Impairments)
}

// Max combines the two directions of a bidirectional link, keeping the worse
// value of every metric. SRLGs are the union of both directions.
func Max(a, b Metrics) Metrics {
	return Metrics{
		LengthKm:        math.Max(a.LengthKm, b.LengthKm),
		Latency:         math.Max(a.Latency, b.Latency),
		CD:              math.Max(a.CD, b.CD),
		PMD2:            math.Max(a.PMD2, b.PMD2),
		LossDB:          math.Max(a.LossDB, b.LossDB),
		PowerCorrection: math.Max(a.PowerCorrection, b.PowerCorrection),
		SRLGs:           appendUnique(slices.Clone(a.SRLGs), b.SRLGs...),
	}
}

func appendUnique(dst []uint32, vals ...uint32) []uint32 {
	for _, v := range vals {
		if !slices.Contains(dst, v) {
			dst = append(dst, v)
		}
	}
	return dst
}
