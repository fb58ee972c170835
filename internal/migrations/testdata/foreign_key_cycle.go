package main

import "github.com/quarry-dev/quarry/schema"

//quarry:model
type Child struct {
	ID     schema.Auto[int32] `model:"primary_key"`
	Parent schema.ForeignKey[Parent]
}

//quarry:model
type Parent struct {
	ID    schema.Auto[int32] `model:"primary_key"`
	Child schema.ForeignKey[Child]
}

func main() {}
