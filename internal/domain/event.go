package domain

import (
	"context"
	"time"

	"github.com/couchcryptid/walls-survey-etl/internal/opt"
	"github.com/couchcryptid/walls-survey-etl/internal/walls"
)

// RecordKind distinguishes unit directives from shots in the source stream.
type RecordKind string

const (
	KindUnits RecordKind = "units"
	KindShot  RecordKind = "shot"
)

// RawSurveyRecord is the flat JSON the upstream tokenizer publishes for one
// line of a .SRV file. Measurements are decimal strings in the units in effect
// for the file; "" or "--" means the value was not recorded.
type RawSurveyRecord struct {
	File    string         `json:"file"`
	Line    int            `json:"line"`
	Kind    string         `json:"kind"`
	Options []walls.Option `json:"options,omitempty"`

	From          string   `json:"from"`
	To            string   `json:"to"`
	Distance      string   `json:"distance"`
	FsAzimuth     string   `json:"fs_azimuth"`
	BsAzimuth     string   `json:"bs_azimuth"`
	FsInclination string   `json:"fs_inclination"`
	BsInclination string   `json:"bs_inclination"`
	East          string   `json:"east"`  // rectangular vectors only
	North         string   `json:"north"` // rectangular vectors only
	Up            string   `json:"up"`    // rectangular vectors only
	InstHeight    string   `json:"instrument_height"`
	TargetHeight  string   `json:"target_height"`
	Lruds         []string `json:"lruds,omitempty"`
}

// RawEvent represents an unprocessed message from the source topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// SurveyRecord is a RawSurveyRecord with its measurements parsed. Magnitudes
// are still in the file's current units.
type SurveyRecord struct {
	File    string
	Line    int
	Kind    RecordKind
	Options []walls.Option

	From          opt.Optional[string]
	To            opt.Optional[string]
	Distance      opt.Optional[float64]
	FsAzimuth     opt.Optional[float64]
	BsAzimuth     opt.Optional[float64]
	FsInclination opt.Optional[float64]
	BsInclination opt.Optional[float64]
	East          opt.Optional[float64]
	North         opt.Optional[float64]
	Up            opt.Optional[float64]
	InstHeight    opt.Optional[float64] // instrument above the from station, in sUnit
	TargetHeight  opt.Optional[float64] // target above the to station, in sUnit
	Lruds         []opt.Optional[float64]

	RawPayload []byte
}

// Location is the file and line a record came from, formatted "file:line".
func (r SurveyRecord) Location() string {
	return formatLocation(r.File, r.Line)
}

// Lrud holds passage dimensions in meters.
type Lrud struct {
	Left  opt.Optional[float64] `json:"left"`
	Right opt.Optional[float64] `json:"right"`
	Up    opt.Optional[float64] `json:"up"`
	Down  opt.Optional[float64] `json:"down"`
}

// ShotEvent is a shot resolved against the unit context in effect at its line.
// Lengths are meters and angles are degrees.
type ShotEvent struct {
	ID   string `json:"id"`
	File string `json:"file"`
	Line int    `json:"line"`

	From               opt.Optional[string]  `json:"from"`
	To                 opt.Optional[string]  `json:"to"`
	DistanceMeters     float64               `json:"distance_m"`
	AzimuthDegrees     opt.Optional[float64] `json:"azimuth_deg"`
	InclinationDegrees float64               `json:"inclination_deg"`

	Lrud      Lrud           `json:"lrud"`
	LrudType  walls.LrudType `json:"lrud_type"`
	LrudOrder string         `json:"lrud_order"`

	Flag     opt.Optional[string] `json:"flag"`
	Warnings []string             `json:"warnings,omitempty"`
	UnitsKey string               `json:"units_key"`

	ProcessedAt time.Time `json:"processed_at"`
}

// UnitsEvent records the unit context after a units line was applied.
type UnitsEvent struct {
	ID          string       `json:"id"`
	File        string       `json:"file"`
	Line        int          `json:"line"`
	Units       *walls.Units `json:"units"`
	UnitsKey    string       `json:"units_key"`
	ProcessedAt time.Time    `json:"processed_at"`
}

// OutputEvent is the serialized form destined for the sink topic.
type OutputEvent struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}
