package main

import (
	"time"

	"github.com/quarry-dev/quarry/schema"
)

//quarry:model
type Sample struct {
	ID      schema.Auto[int64] `model:"primary_key"`
	Note    *string
	Payload []byte
	Seen    time.Time
	Name    schema.LimitedString `model:"unique,max_length=100,column=display_name"`
	Flag    bool
	Stamp   schema.Timestamp
}

func main() {}
