package test

func constant() int32 {
	i := int32(1)
	j := i
	return j
}

func loops(n int) int {
	s := 0
	for i := 0; i < n; i++ {
		s += i
	}
	for s > 100 {
		s--
	}
	return s
}

func zero(p bool) bool {
	var b bool
	var x int32
	if p {
		x = 1
	}
	return b || x > 0
}

func fail(msg string) {
	if msg != "" {
		panic(msg)
	}
}

func sw(x int32) int32 {
	switch x {
	case 1:
		return 10
	case 2, 3:
		x++
		fallthrough
	default:
		x--
	}
	return x
}

type point struct{ x, y int }

func (p *point) norm() int {
	if p.x > p.y {
		return p.x - p.y
	}
	return p.y - p.x
}

func labeled(n int) int {
	c := 0
outer:
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if j > i {
				continue outer
			}
			if c > 10 {
				break outer
			}
			c++
		}
	}
	return c
}

//gflow:ignore
func ignored() int32 {
	i := int32(1)
	return i
}
