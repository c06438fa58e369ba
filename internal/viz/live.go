package viz

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/trajopt/internal/replay"
)

const (
	canvasWidth  = 70
	canvasHeight = 20
)

var (
	cyan   = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	white  = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dim    = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	dimmer = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	green  = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
)

type tickMsg time.Time

// Replay is a bubbletea model that plays a recorded trajectory frame by
// frame with a drone glyph, target marker and position trail.
type Replay struct {
	frames  []replay.Frame
	targetX float64
	targetY float64

	head    int
	playing bool
	fps     int
	canvas  [][]rune
	trail   []struct{ x, y int }
}

func NewReplay(frames []replay.Frame, targetX, targetY float64, fps int) *Replay {
	if fps <= 0 {
		fps = 25
	}
	canvas := make([][]rune, canvasHeight)
	for i := range canvas {
		canvas[i] = make([]rune, canvasWidth)
	}
	return &Replay{
		frames:  frames,
		targetX: targetX,
		targetY: targetY,
		playing: true,
		fps:     fps,
		canvas:  canvas,
		trail:   make([]struct{ x, y int }, 0, 60),
	}
}

func (r *Replay) tick() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(r.fps), func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (r *Replay) Init() tea.Cmd { return r.tick() }

func (r *Replay) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return r, tea.Quit
		case " ":
			r.playing = !r.playing
		case "r":
			r.head = 0
			r.trail = r.trail[:0]
			r.playing = true
		case "left", "h":
			if r.head > 0 {
				r.head--
			}
		case "right", "l":
			if r.head < len(r.frames)-1 {
				r.head++
			}
		}
		return r, nil
	case tickMsg:
		if r.playing && r.head < len(r.frames)-1 {
			r.head++
		}
		return r, r.tick()
	}
	return r, nil
}

func (r *Replay) View() string {
	if len(r.frames) == 0 {
		return "no frames\n"
	}

	r.clear()
	r.drawGround()
	r.drawTarget()
	r.drawDrone(r.frames[r.head])

	var b strings.Builder
	b.WriteString("\n  " + cyan.Render("trajectory replay") + "\n")
	b.WriteString(dimmer.Render("  "+strings.Repeat("─", canvasWidth)) + "\n")
	for _, row := range r.canvas {
		b.WriteString("  " + string(row) + "\n")
	}
	b.WriteString(dimmer.Render("  "+strings.Repeat("─", canvasWidth)) + "\n")

	f := r.frames[r.head]
	b.WriteString(fmt.Sprintf("  %s %s   %s %s\n",
		dim.Render("t"), white.Render(fmt.Sprintf("%6.2fs", f.T)),
		dim.Render("step"), white.Render(fmt.Sprintf("%d/%d", r.head, len(r.frames)-1)),
	))
	b.WriteString(fmt.Sprintf("  %s %s   %s %s   %s %s\n",
		dim.Render("pos"), green.Render(fmt.Sprintf("(%6.2f, %6.2f)", f.X, f.Y)),
		dim.Render("θ"), white.Render(fmt.Sprintf("%6.3f", f.Theta)),
		dim.Render("thrust"), white.Render(fmt.Sprintf("%.2f / %.2f", f.TL, f.TR)),
	))
	b.WriteString("\n" + dim.Render("  space pause   ←→ scrub   r restart   q quit") + "\n")

	return b.String()
}

func (r *Replay) clear() {
	for y := range r.canvas {
		for x := range r.canvas[y] {
			r.canvas[y][x] = ' '
		}
	}
}

func (r *Replay) set(x, y int, c rune) {
	if x >= 0 && x < canvasWidth && y >= 0 && y < canvasHeight {
		r.canvas[y][x] = c
	}
}

// project maps world coordinates to canvas cells. The scene spans roughly
// x ∈ [−8, 8] and y ∈ [−1, 8].
func (r *Replay) project(wx, wy float64) (int, int) {
	x := canvasWidth/2 + int(wx*4)
	y := canvasHeight - 3 - int(wy*2)
	return x, y
}

func (r *Replay) drawGround() {
	_, gy := r.project(0, 0)
	for i := 0; i < canvasWidth; i++ {
		r.set(i, gy+1, '_')
	}
}

func (r *Replay) drawTarget() {
	tx, ty := r.project(r.targetX, r.targetY)
	r.set(tx, ty, '+')
}

func (r *Replay) drawDrone(f replay.Frame) {
	dx, dy := r.project(f.X, f.Y)

	r.trail = append(r.trail, struct{ x, y int }{dx, dy})
	if len(r.trail) > 60 {
		r.trail = r.trail[1:]
	}
	for _, pt := range r.trail {
		r.set(pt.x, pt.y, '.')
	}

	arm := 4.0
	lx := dx - int(arm*math.Cos(f.Theta))
	ly := dy - int(arm*math.Sin(f.Theta))
	rx := dx + int(arm*math.Cos(f.Theta))
	ry := dy + int(arm*math.Sin(f.Theta))

	r.line(lx, ly, rx, ry, '-')
	r.set(dx, dy, 'X')
	r.set(lx, ly, 'o')
	r.set(rx, ry, 'o')
}

func (r *Replay) line(x1, y1, x2, y2 int, c rune) {
	dx := abs(x2 - x1)
	dy := abs(y2 - y1)
	sx, sy := 1, 1
	if x1 > x2 {
		sx = -1
	}
	if y1 > y2 {
		sy = -1
	}
	err := dx - dy
	for {
		r.set(x1, y1, c)
		if x1 == x2 && y1 == y2 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x1 += sx
		}
		if e2 < dx {
			err += dx
			y1 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// RunReplay plays frames in an alt-screen bubbletea session.
func RunReplay(frames []replay.Frame, targetX, targetY float64, fps int) error {
	p := tea.NewProgram(NewReplay(frames, targetX, targetY, fps), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
