package measurement

import (
	"fmt"
	"log/slog"
	"math"
)

// SintonSheet is the workbook sheet holding settings and results
const SintonSheet = "User"

// Sinton field names used by the resistivity cross-check
const (
	SintonSampleName          = "Sample Name"
	SintonResistivity         = "Resistivity"
	SintonMeasuredResistivity = "Measured Resistivity"
)

// ResistivityTolerance is the largest accepted relative deviation between
// the configured and the measured resistivity.
const ResistivityTolerance = 0.01

// toleranceSlack absorbs float64 rounding so decimal inputs exactly at the
// tolerance compare as equal to it.
const toleranceSlack = 1e-9

// SintonCoordinates addresses the lifetime tester fields. Settings live on
// row 5, results on row 8; lifetime, iVoc and iFF alias result cells.
var SintonCoordinates = NewCoordinateTable(
	Field{SintonSampleName, at(SintonSheet, 0, 5)},
	Field{"Wafer Thickness", at(SintonSheet, 1, 5)},
	Field{SintonResistivity, at(SintonSheet, 2, 5)},
	Field{"Sample Type", at(SintonSheet, 3, 5)},
	Field{"Optical Constant", at(SintonSheet, 4, 5)},
	Field{"Specified MCD", at(SintonSheet, 5, 5)},
	Field{"Bias Light", at(SintonSheet, 6, 5)},
	Field{"Analysis Mode", at(SintonSheet, 7, 5)},

	Field{"Lifetime at Spec. MCD", at(SintonSheet, 0, 8)},
	Field{"Sheet Resistance", at(SintonSheet, 1, 8)},
	Field{SintonMeasuredResistivity, at(SintonSheet, 2, 8)},
	Field{"J0", at(SintonSheet, 3, 8)},
	Field{"Fit Intercept", at(SintonSheet, 4, 8)},
	Field{"Min MCD", at(SintonSheet, 5, 8)},
	Field{"Max MCD", at(SintonSheet, 6, 8)},
	Field{"Bias point CD", at(SintonSheet, 7, 8)},
	Field{"Trap Density", at(SintonSheet, 8, 8)},
	Field{"Doping", at(SintonSheet, 9, 8)},
	Field{"1 sun Implied Voc", at(SintonSheet, 10, 8)},
	Field{"Implied FF", at(SintonSheet, 11, 8)},

	Field{"lifetime", at(SintonSheet, 0, 8)},
	Field{"iVoc", at(SintonSheet, 10, 8)},
	Field{"iFF", at(SintonSheet, 11, 8)},
)

// CheckStatus is the outcome of the resistivity cross-check
type CheckStatus string

const (
	CheckOK           CheckStatus = "ok"
	CheckMismatch     CheckStatus = "mismatch"
	CheckZeroMeasured CheckStatus = "zero_measured"
	CheckUnavailable  CheckStatus = "unavailable"
)

// ResistivityCheck compares the resistivity entered on the tester with the
// one it measured. Deviation is |configured-measured|/|measured| and is NaN
// unless Status is CheckOK or CheckMismatch.
type ResistivityCheck struct {
	Configured float64
	Measured   float64
	Deviation  float64
	Status     CheckStatus
}

// Sinton is a Sinton lifetime tester workbook
type Sinton struct {
	*Spreadsheet
	check ResistivityCheck
}

// NewSinton loads a lifetime workbook and cross-checks its resistivities.
// A failed cross-check is logged; the measurement stays usable.
func NewSinton(path string, opts ...Option) (Measurement, error) {
	s, err := openSpreadsheet(path, VariantSinton, SintonCoordinates, opts)
	if err != nil {
		return nil, err
	}
	m := &Sinton{Spreadsheet: s}
	m.check = m.crossCheck()
	return m, nil
}

// ResistivityCheck returns the result of the cross-check done at load time
func (m *Sinton) ResistivityCheck() ResistivityCheck {
	return m.check
}

// SampleName returns the sample name cell as text
func (m *Sinton) SampleName() string {
	v, ok := m.lookup(SintonSampleName)
	if !ok || v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

func (m *Sinton) crossCheck() ResistivityCheck {
	res := ResistivityCheck{Configured: math.NaN(), Measured: math.NaN(), Deviation: math.NaN()}

	configured, okC := m.lookup(SintonResistivity)
	measured, okM := m.lookup(SintonMeasuredResistivity)
	setRes, numC := toFloat(configured)
	measRes, numM := toFloat(measured)
	if !okC || !okM || !numC || !numM {
		res.Status = CheckUnavailable
		m.warn(res, "resistivity_unavailable", "Warning: resistivities could not be compared")
		return res
	}
	res.Configured, res.Measured = setRes, measRes

	if measRes == 0 {
		res.Status = CheckZeroMeasured
		m.warn(res, "zero_measured_resistivity", "Warning: measured resistivity is zero")
		return res
	}

	res.Deviation = math.Abs((setRes - measRes) / measRes)
	if res.Deviation > ResistivityTolerance*(1+toleranceSlack) {
		res.Status = CheckMismatch
		m.warn(res, "resistivity_mismatch", "Warning: resistivities do not match")
		return res
	}

	res.Status = CheckOK
	return res
}

func (m *Sinton) warn(res ResistivityCheck, reason, msg string) {
	m.recorder.RecordValidationWarning(m.variant, reason)
	attrs := []any{
		slog.String("sample", m.SampleName()),
		slog.String("path", m.path),
	}
	// NaN does not encode as JSON
	for _, a := range []slog.Attr{
		slog.Float64("configured_resistivity", res.Configured),
		slog.Float64("measured_resistivity", res.Measured),
		slog.Float64("deviation", res.Deviation),
	} {
		if !math.IsNaN(a.Value.Float64()) {
			attrs = append(attrs, a)
		}
	}
	attrs = append(attrs, slog.Float64("tolerance", ResistivityTolerance))
	m.logger.Warn(msg+" in sample '"+m.SampleName()+"'", attrs...)
}
