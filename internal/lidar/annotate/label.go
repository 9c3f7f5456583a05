package annotate

import "image"

// Labels holds a component id per pixel; 0 is background.
type Labels struct {
	W, H  int
	IDs   []int
	Count int
}

// At returns the label at (x, y).
func (l *Labels) At(x, y int) int { return l.IDs[y*l.W+x] }

var neighbours8 = [8]image.Point{
	{-1, -1}, {0, -1}, {1, -1},
	{-1, 0}, {1, 0},
	{-1, 1}, {0, 1}, {1, 1},
}

// Label assigns 8-connected component ids to m in raster-scan order of each
// component's first pixel, starting at 1.
func Label(m *Mask) *Labels {
	l := &Labels{W: m.W, H: m.H, IDs: make([]int, m.W*m.H)}
	queue := []image.Point{}
	for y := 0; y < m.H; y++ {
		for x := 0; x < m.W; x++ {
			idx := y*m.W + x
			if !m.Bits[idx] || l.IDs[idx] != 0 {
				continue
			}
			l.Count++
			id := l.Count
			l.IDs[idx] = id
			queue = append(queue[:0], image.Pt(x, y))
			for len(queue) != 0 {
				pt := queue[len(queue)-1]
				queue = queue[:len(queue)-1]
				for _, d := range neighbours8 {
					nx, ny := pt.X+d.X, pt.Y+d.Y
					if nx < 0 || ny < 0 || nx >= m.W || ny >= m.H {
						continue
					}
					nidx := ny*m.W + nx
					if !m.Bits[nidx] || l.IDs[nidx] != 0 {
						continue
					}
					l.IDs[nidx] = id
					queue = append(queue, image.Pt(nx, ny))
				}
			}
		}
	}
	return l
}
