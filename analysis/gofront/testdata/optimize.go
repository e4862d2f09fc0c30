package test

func f(x int) int { return x }

func constant() int32 {
	i := int32(1)
	j := i
	return j
}

func deadBranch(p int) int32 {
	i := int32(1)
	var j int32
	if i != 1 {
		j = 2
	} else {
		j = 3
	}
	f(p)
	return j
}

func copies(a int) int {
	b := a
	c := b
	return f(c)
}

func deadStore(a int) int {
	x := 0
	x = 2
	x = f(a)
	return x
}

func loop(n int32) int32 {
	var k int32 = 4
	s := int32(0)
	for s < n {
		s += k
	}
	return s
}

func untouched(n int) int {
	s := 0
	for i := 0; i < n; i++ {
		s += i
	}
	return s
}
