package walls

import (
	"encoding/json"

	"github.com/couchcryptid/walls-survey-etl/internal/opt"
	"github.com/couchcryptid/walls-survey-etl/internal/unit"
)

type unitsJSON struct {
	VectorType      VectorType                `json:"vector_type"`
	CtOrder         []CtMeasurement           `json:"ct_order"`
	RectOrder       []RectMeasurement         `json:"rect_order"`
	DUnit           unit.Unit                 `json:"d_unit"`
	SUnit           unit.Unit                 `json:"s_unit"`
	AUnit           unit.Unit                 `json:"a_unit"`
	AbUnit          unit.Unit                 `json:"ab_unit"`
	VUnit           unit.Unit                 `json:"v_unit"`
	VbUnit          unit.Unit                 `json:"vb_unit"`
	Decl            unit.Value                `json:"decl"`
	Grid            unit.Value                `json:"grid"`
	Rect            unit.Value                `json:"rect"`
	Incd            unit.Value                `json:"incd"`
	Inca            unit.Value                `json:"inca"`
	Incab           unit.Value                `json:"incab"`
	Incv            unit.Value                `json:"incv"`
	Incvb           unit.Value                `json:"incvb"`
	Incs            unit.Value                `json:"incs"`
	Inch            unit.Value                `json:"inch"`
	TypeabCorrected bool                      `json:"typeab_corrected"`
	TypeabTolerance unit.Value                `json:"typeab_tolerance"`
	TypeabNoAverage bool                      `json:"typeab_no_average"`
	TypevbCorrected bool                      `json:"typevb_corrected"`
	TypevbTolerance unit.Value                `json:"typevb_tolerance"`
	TypevbNoAverage bool                      `json:"typevb_no_average"`
	Case            CaseType                  `json:"case"`
	Lrud            LrudType                  `json:"lrud"`
	LrudOrder       []LrudMeasurement         `json:"lrud_order"`
	Tape            []TapingMethodMeasurement `json:"tape"`
	Flag            opt.Optional[string]      `json:"flag"`
	Prefix          []opt.Optional[string]    `json:"prefix"`
	Uvh             float64                   `json:"uvh"`
	Uvv             float64                   `json:"uvv"`
}

// MarshalJSON encodes every field of the snapshot.
func (u *Units) MarshalJSON() ([]byte, error) {
	d := &u.data
	return json.Marshal(unitsJSON{
		VectorType:      d.vectorType,
		CtOrder:         d.ctOrder,
		RectOrder:       d.rectOrder,
		DUnit:           d.dUnit,
		SUnit:           d.sUnit,
		AUnit:           d.aUnit,
		AbUnit:          d.abUnit,
		VUnit:           d.vUnit,
		VbUnit:          d.vbUnit,
		Decl:            d.decl,
		Grid:            d.grid,
		Rect:            d.rect,
		Incd:            d.incd,
		Inca:            d.inca,
		Incab:           d.incab,
		Incv:            d.incv,
		Incvb:           d.incvb,
		Incs:            d.incs,
		Inch:            d.inch,
		TypeabCorrected: d.typeabCorrected,
		TypeabTolerance: d.typeabTolerance,
		TypeabNoAverage: d.typeabNoAverage,
		TypevbCorrected: d.typevbCorrected,
		TypevbTolerance: d.typevbTolerance,
		TypevbNoAverage: d.typevbNoAverage,
		Case:            d.caseType,
		Lrud:            d.lrud,
		LrudOrder:       d.lrudOrder,
		Tape:            d.tape,
		Flag:            d.flag,
		Prefix:          d.prefix,
		Uvh:             d.uvh,
		Uvv:             d.uvv,
	})
}

// UnmarshalJSON decodes a snapshot. Fields missing from the input keep their
// defaults. It must only be called on a fresh Units, never on one already shared.
func (u *Units) UnmarshalJSON(b []byte) error {
	d := defaultData()
	j := unitsJSON{
		VectorType:      d.vectorType,
		CtOrder:         d.ctOrder,
		RectOrder:       d.rectOrder,
		DUnit:           d.dUnit,
		SUnit:           d.sUnit,
		AUnit:           d.aUnit,
		AbUnit:          d.abUnit,
		VUnit:           d.vUnit,
		VbUnit:          d.vbUnit,
		Decl:            d.decl,
		Grid:            d.grid,
		Rect:            d.rect,
		Incd:            d.incd,
		Inca:            d.inca,
		Incab:           d.incab,
		Incv:            d.incv,
		Incvb:           d.incvb,
		Incs:            d.incs,
		Inch:            d.inch,
		TypeabTolerance: d.typeabTolerance,
		TypevbTolerance: d.typevbTolerance,
		Case:            d.caseType,
		Lrud:            d.lrud,
		LrudOrder:       d.lrudOrder,
		Tape:            d.tape,
		Prefix:          d.prefix,
	}
	if err := json.Unmarshal(b, &j); err != nil {
		return err
	}
	u.data = data{
		vectorType:      j.VectorType,
		ctOrder:         j.CtOrder,
		rectOrder:       j.RectOrder,
		dUnit:           j.DUnit,
		sUnit:           j.SUnit,
		aUnit:           j.AUnit,
		abUnit:          j.AbUnit,
		vUnit:           j.VUnit,
		vbUnit:          j.VbUnit,
		decl:            j.Decl,
		grid:            j.Grid,
		rect:            j.Rect,
		incd:            j.Incd,
		inca:            j.Inca,
		incab:           j.Incab,
		incv:            j.Incv,
		incvb:           j.Incvb,
		incs:            j.Incs,
		inch:            j.Inch,
		typeabCorrected: j.TypeabCorrected,
		typeabTolerance: j.TypeabTolerance,
		typeabNoAverage: j.TypeabNoAverage,
		typevbCorrected: j.TypevbCorrected,
		typevbTolerance: j.TypevbTolerance,
		typevbNoAverage: j.TypevbNoAverage,
		caseType:        j.Case,
		lrud:            j.Lrud,
		lrudOrder:       j.LrudOrder,
		tape:            j.Tape,
		flag:            j.Flag,
		prefix:          trimPrefix(j.Prefix),
		uvh:             j.Uvh,
		uvv:             j.Uvv,
	}
	return nil
}
