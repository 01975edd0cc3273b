package model

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	geom "github.com/peterstace/simplefeatures/geom"
	"gorm.io/datatypes"
)

////////////////////////
// DATABASE STRUCTURES //
////////////////////////

// DatabaseModels is a list of all the structs exported here which represent tables in the database schema
var DatabaseModels = []interface{}{
	&Session{},
	&Frame{},
	&SkaterState{},
	&PackBoundary{},
}

// Session is one recording run. Track holds the track dimensions the frames
// were evaluated against.
type Session struct {
	ID         uuid.UUID      `json:"id" gorm:"type:uuid;primarykey"`
	CreatedAt  time.Time      `json:"createdAt"`
	Name       string         `json:"name" gorm:"size:127"`
	Method     string         `json:"method" gorm:"size:16"`
	StartTime  time.Time      `json:"startTime" gorm:"index:idx_session_start_time"`
	EndTime    sql.NullTime   `json:"endTime"`
	FrameCount uint           `json:"frameCount" gorm:"default:0"`
	Track      datatypes.JSON `json:"track"`
	Anchor     geom.Point     `json:"anchor"` // WGS84 lon/lat of the track origin, empty without georeferencing
}

func (*Session) TableName() string {
	return "sessions"
}

// Frame is the summary row of one evaluated snapshot.
type Frame struct {
	ID          uint           `json:"id" gorm:"primarykey;autoIncrement;"`
	SessionID   uuid.UUID      `json:"sessionId" gorm:"type:uuid;index:idx_frame_session_id"`
	Session     Session        `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:SessionID;"`
	FrameIndex  uint           `json:"frame" gorm:"index:idx_frame_index"`
	Time        time.Time      `json:"time"`
	Method      string         `json:"method" gorm:"size:16"`
	HasPack     bool           `json:"hasPack" gorm:"default:false"`
	PackSize    uint16         `json:"packSize"`
	InPlay      uint16         `json:"inPlay"`
	OutOfBounds uint16         `json:"outOfBounds"`
	Pack        datatypes.JSON `json:"pack"` // skater IDs
	EvalMicros  int64          `json:"evalMicros"`
}

func (*Frame) TableName() string {
	return "frames"
}

// SkaterState is one skater in one frame with its derived attributes.
type SkaterState struct {
	ID         uint      `json:"id" gorm:"primarykey;autoIncrement;"`
	SessionID  uuid.UUID `json:"sessionId" gorm:"type:uuid;index:idx_skaterstate_session_id"`
	Session    Session   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:SessionID;"`
	FrameIndex uint      `json:"frame" gorm:"index:idx_skaterstate_frame"`
	Time       time.Time `json:"time"`
	SkaterID   int       `json:"skaterId" gorm:"index:idx_skaterstate_skater_id"`

	Team          string          `json:"team" gorm:"size:1"`
	IsJammer      bool            `json:"isJammer" gorm:"default:false"`
	IsPivot       bool            `json:"isPivot" gorm:"default:false"`
	Position      geom.Point      `json:"position"` // track plane, meters
	Location      geom.Point      `json:"location"` // EPSG:3857, empty without georeferencing
	Rotation      float32         `json:"rotation"`
	InBounds      bool            `json:"inBounds" gorm:"default:false"`
	PivotLineDist sql.NullFloat64 `json:"pivotLineDist"` // NULL while out of bounds
	InPlay        bool            `json:"inPlay" gorm:"default:false"`
	PackSkater    bool            `json:"packSkater" gorm:"default:false"`
}

func (*SkaterState) TableName() string {
	return "skater_states"
}

// PackBoundary stores the pack ends and engagement zone of a frame that had a
// pack. FrontLine and BackLine (engagement zone) and ExtentFrontLine and
// ExtentBackLine (pack extent) run from the inside to the outside track edge
// and are only set for rectangle evaluations. They are in EPSG:3857 when the
// session is georeferenced and in track meters otherwise.
type PackBoundary struct {
	ID          uint            `json:"id" gorm:"primarykey;autoIncrement;"`
	SessionID   uuid.UUID       `json:"sessionId" gorm:"type:uuid;index:idx_packboundary_session_id"`
	Session     Session         `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:SessionID;"`
	FrameIndex  uint            `json:"frame" gorm:"index:idx_packboundary_frame"`
	Time        time.Time       `json:"time"`
	Method      string          `json:"method" gorm:"size:16"`
	SectorStart sql.NullFloat64 `json:"sectorStart"`
	SectorEnd   sql.NullFloat64 `json:"sectorEnd"`
	Boundaries  datatypes.JSON  `json:"boundaries"`
	Zone        datatypes.JSON  `json:"zone"`
	FrontLine   geom.LineString `json:"frontLine"`
	BackLine    geom.LineString `json:"backLine"`

	Extent          datatypes.JSON  `json:"extent"`
	ExtentFrontLine geom.LineString `json:"extentFrontLine"`
	ExtentBackLine  geom.LineString `json:"extentBackLine"`
}

func (*PackBoundary) TableName() string {
	return "pack_boundaries"
}
