package main

import "github.com/quarry-dev/quarry/schema"

//quarry:model
type Parent struct {
	ID schema.Auto[int32] `model:"primary_key"`
}

//quarry:model
type MyModel struct {
	ID     schema.Auto[int32] `model:"primary_key"`
	Field1 string
	Field2 schema.LimitedString `model:"max_length=64"`
	Parent schema.ForeignKey[Parent]
}

func main() {}
