package gomod

import "fmt"

func constant() int32 {
	i := int32(1)
	j := i
	return j
}

//gflow:ignore
func ignored(a int) int {
	b := a
	return b
}

func deferred() {
	defer fmt.Println("done")
}
