package main

import "github.com/quarry-dev/quarry/schema"

//quarry:model
type Orphan struct {
	ID   schema.Auto[int32]
	Name string
}

func main() {}
