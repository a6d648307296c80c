package models

import (
	"time"
)

type User struct {
	Username      string    `json:"username" gorm:"primaryKey;type:text"`
	Name          string    `json:"name" gorm:"type:text"`
	Email         string    `json:"email" gorm:"type:text"`
	EmailVerified bool      `json:"emailVerified" gorm:"type:boolean;not null;default:false"`
	CDate         time.Time `json:"cdate" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
}

type LearningObject struct {
	ID          string    `json:"id" gorm:"primaryKey;type:text"`
	CUID        string    `json:"cuid" gorm:"type:text;index"`
	Name        string    `json:"name" gorm:"type:text"`
	Description string    `json:"description" gorm:"type:text"`
	AuthorID    string    `json:"authorID" gorm:"type:text;index"`
	Author      User      `json:"-" gorm:"foreignKey:AuthorID;references:Username"`
	Collection  string    `json:"collection" gorm:"type:text;index"`
	Status      string    `json:"status" gorm:"type:text;index"`
	Revision    int       `json:"revision" gorm:"not null;default:0"`
	Outcomes    string    `json:"outcomes" gorm:"type:text"` // json array
	Date        string    `json:"date" gorm:"type:text"`
	CDate       time.Time `json:"cdate" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
}

type LearningObjectChild struct {
	ParentID string         `json:"parentID" gorm:"primaryKey;type:text"`
	Parent   LearningObject `json:"-" gorm:"foreignKey:ParentID;references:ID;constraint:OnDelete:CASCADE;"`
	ChildID  string         `json:"childID" gorm:"primaryKey;type:text;index"`
	Rank     int            `json:"rank" gorm:"not null;default:0"`
}

type LearningObjectContributor struct {
	LearningObjectID string         `json:"learningObjectID" gorm:"primaryKey;type:text"`
	LearningObject   LearningObject `json:"-" gorm:"foreignKey:LearningObjectID;references:ID;constraint:OnDelete:CASCADE;"`
	Username         string         `json:"username" gorm:"primaryKey;type:text;index"`
}
