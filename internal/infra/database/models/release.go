package models

import (
	"time"
)

// ReleasedLearningObject is an immutable snapshot taken at release time.
// Document holds the full object as json; the scalar columns exist for
// filtering without unmarshalling.
type ReleasedLearningObject struct {
	ID          string    `json:"id" gorm:"primaryKey;type:text"`
	CUID        string    `json:"cuid" gorm:"type:text;index"`
	Name        string    `json:"name" gorm:"type:text"`
	AuthorID    string    `json:"authorID" gorm:"type:text;index"`
	Collection  string    `json:"collection" gorm:"type:text;index"`
	Revision    int       `json:"revision" gorm:"not null;default:0"`
	Version     int       `json:"version" gorm:"not null;default:1"`
	Date        string    `json:"date" gorm:"type:text"`
	Document    string    `json:"document" gorm:"type:text"`
	Fingerprint string    `json:"fingerprint" gorm:"type:text"`
	CDate       time.Time `json:"cdate" gorm:"type:timestamp with time zone;not null;default:clock_timestamp()"`
}

type ReleasedLearningObjectChild struct {
	ParentID string                 `json:"parentID" gorm:"primaryKey;type:text"`
	Parent   ReleasedLearningObject `json:"-" gorm:"foreignKey:ParentID;references:ID;constraint:OnDelete:CASCADE;"`
	ChildID  string                 `json:"childID" gorm:"primaryKey;type:text;index"`
	Rank     int                    `json:"rank" gorm:"not null;default:0"`
}

type Submission struct {
	ID               int64      `json:"id" gorm:"primaryKey;autoIncrement"`
	LearningObjectID string     `json:"learningObjectID" gorm:"type:text;index"`
	Collection       string     `json:"collection" gorm:"type:text;index"`
	CDate            time.Time  `json:"cdate" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
	CancelDate       *time.Time `json:"cancelDate" gorm:"type:timestamp with time zone"`
}

type Changelog struct {
	ID     string    `json:"id" gorm:"primaryKey;type:text"`
	CUID   string    `json:"cuid" gorm:"type:text;index"`
	Author string    `json:"author" gorm:"type:text"`
	Text   string    `json:"text" gorm:"type:text"`
	CDate  time.Time `json:"cdate" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
}
