package model

import (
	"time"

	"gorm.io/datatypes"
)

////////////////////////
// DATABASE STRUCTURES //
////////////////////////

// DatabaseModels is a list of all the structs exported here which represent tables in the database schema
var DatabaseModels = []interface{}{
	&Record{},
}

// Record is one stored key-value pair. Values are the JSON documents
// written by the board store.
type Record struct {
	Key       string         `json:"key" gorm:"primaryKey;size:127"`
	Value     datatypes.JSON `json:"value"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

func (*Record) TableName() string {
	return "records"
}
