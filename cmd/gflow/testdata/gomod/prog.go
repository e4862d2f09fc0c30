package gomod

import "strconv"

// constant always returns 1
func constant() int32 {
	i := int32(1)
	j := i
	return j
}

func format(n int32) string {
	s := strconv.Itoa(int(n))
	return s
}
