package main

import "github.com/quarry-dev/quarry/schema"

//quarry:model
type Parent struct {
	ID schema.Auto[int32] `model:"primary_key"`
}

func main() {}
