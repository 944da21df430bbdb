package puzzle

// Cell addresses one grid position.
type Cell struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Validate returns the cells that repeat a value already seen in their row,
// column or box. Empty cells are ignored.
func Validate(g *Grid) []Cell {
	conf := make([]Cell, 0, 8)
	// rows
	for r := 0; r < Size; r++ {
		m := 0
		for c := 0; c < Size; c++ {
			conf, m = mark(conf, m, g[r][c], r, c)
		}
	}
	// cols
	for c := 0; c < Size; c++ {
		m := 0
		for r := 0; r < Size; r++ {
			conf, m = mark(conf, m, g[r][c], r, c)
		}
	}
	// boxes
	for br := 0; br < 3; br++ {
		for bc := 0; bc < 3; bc++ {
			m := 0
			for dr := 0; dr < 3; dr++ {
				for dc := 0; dc < 3; dc++ {
					r, c := br*3+dr, bc*3+dc
					conf, m = mark(conf, m, g[r][c], r, c)
				}
			}
		}
	}
	return conf
}

func mark(conf []Cell, seen, val, r, c int) ([]Cell, int) {
	if val == 0 {
		return conf, seen
	}
	bit := 1 << val
	if seen&bit != 0 {
		conf = append(conf, Cell{Row: r, Col: c})
	}
	return conf, seen | bit
}

// IsSolved reports whether every cell holds 1-9 and no constraint is broken.
func IsSolved(g *Grid) bool {
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			if g[r][c] < 1 || g[r][c] > Size {
				return false
			}
		}
	}
	return len(Validate(g)) == 0
}

// CountZeros returns the number of empty cells.
func CountZeros(g *Grid) int {
	n := 0
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			if g[r][c] == 0 {
				n++
			}
		}
	}
	return n
}
