package test

func callee() int { return 1 }

func deferred() {
	defer callee()
}

func goroutine() {
	go callee()
}

func ranged(s []int) int {
	t := 0
	for _, x := range s {
		t += x
	}
	return t
}

func address() *int {
	x := 1
	return &x
}

func closure() func() int {
	x := 1
	return func() int { return x }
}

func multi() (int, int) {
	return 1, 2
}

func swap(a, b int) int {
	a, b = b, a
	return a
}

func shift(x int32) int32 {
	return x << 3
}

func named() (r int) {
	r = 1
	return
}

type counter struct{ n int }

func (c *counter) inc() { c.n++ }

func fieldOfLocal() int {
	var c counter
	c.n = 3
	return c.n
}

func pointerMethod() int {
	var c counter
	c.inc()
	return c.n
}

func generic[T any](x T) T {
	return x
}

func index(s []int) int {
	return s[0]
}

func tagless(x int) int {
	switch {
	case x > 0:
		return 1
	}
	return 0
}
