// Package terminal 提供基于 tcell 的终端画布
//
// 画布把粒子场光栅化到字符单元网格上：每个单元格对应一块
// CellWidth x CellHeight 的画布像素，以背景色块的形式显示。
package terminal

import (
	"image/color"
	"math"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/lucasb-eyer/go-colorful"
)

const (
	// CellWidth 单元格宽度（画布像素）
	CellWidth = 8.0
	// CellHeight 单元格高度（画布像素），终端字符约为 1:2
	CellHeight = 16.0
)

// Canvas 终端帧缓冲，实现 systems.Canvas 接口
//
// 绘制在帧循环协程进行，Resize/Present 可能来自其他协程，所有方法都加锁。
type Canvas struct {
	mu    sync.Mutex
	cols  int
	rows  int
	cells []colorful.Color
}

// NewCanvas 创建 cols x rows 个单元格的画布，初始为黑色
func NewCanvas(cols, rows int) *Canvas {
	c := &Canvas{}
	c.Resize(cols, rows)
	return c
}

// Resize 调整网格尺寸并清空缓冲，负数按 0 处理
func (c *Canvas) Resize(cols, rows int) {
	if cols < 0 {
		cols = 0
	}
	if rows < 0 {
		rows = 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if cols == c.cols && rows == c.rows && c.cells != nil {
		return
	}
	c.cols, c.rows = cols, rows
	c.cells = make([]colorful.Color, cols*rows)
}

// Grid 返回单元格网格尺寸
func (c *Canvas) Grid() (cols, rows int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cols, c.rows
}

// Size 返回画布像素尺寸
func (c *Canvas) Size() (float64, float64) {
	cols, rows := c.Grid()
	return PixelSize(cols, rows)
}

// PixelSize 把网格尺寸换算为画布像素尺寸
func PixelSize(cols, rows int) (float64, float64) {
	return float64(cols) * CellWidth, float64(rows) * CellHeight
}

// CellCenter 返回单元格中心的画布像素坐标（用于鼠标位置换算）
func CellCenter(col, row int) (float64, float64) {
	return (float64(col) + 0.5) * CellWidth, (float64(row) + 0.5) * CellHeight
}

// Cell 返回单元格当前颜色，越界返回黑色
func (c *Canvas) Cell(col, row int) color.RGBA {
	c.mu.Lock()
	defer c.mu.Unlock()
	if col < 0 || row < 0 || col >= c.cols || row >= c.rows {
		return color.RGBA{A: 255}
	}
	r, g, b := c.cells[row*c.cols+col].Clamped().RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

// Fade 以 clr 的 alpha 将所有单元格向 clr 混合
func (c *Canvas) Fade(clr color.NRGBA) {
	target, alpha := toColorful(clr)
	if alpha <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.cells {
		c.cells[i] = c.cells[i].BlendRgb(target, alpha)
	}
}

// Glow 以加色方式绘制径向光晕，强度按 (1-d/r)² 衰减
func (c *Canvas) Glow(x, y, radius float64, clr color.NRGBA) {
	src, alpha := toColorful(clr)
	if alpha <= 0 || radius <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.eachCell(x, y, radius, func(i int, d float64) {
		k := 1 - d/radius
		if k <= 0 {
			return
		}
		w := alpha * k * k
		cell := c.cells[i]
		c.cells[i] = colorful.Color{R: cell.R + src.R*w, G: cell.G + src.G*w, B: cell.B + src.B*w}.Clamped()
	})
}

// Circle 绘制实心圆，小于一个单元格的圆按覆盖面积降低不透明度
func (c *Canvas) Circle(x, y, radius float64, clr color.NRGBA) {
	src, alpha := toColorful(clr)
	if alpha <= 0 || radius <= 0 {
		return
	}
	coverage := math.Min(1, math.Pi*radius*radius/(CellWidth*CellHeight)*4)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.eachCell(x, y, radius, func(i int, d float64) {
		if d > radius && !c.isCenterCell(i, x, y) {
			return
		}
		c.cells[i] = c.cells[i].BlendRgb(src, alpha*coverage)
	})
}

// Line 用 Bresenham 算法在单元格网格上绘制线段
func (c *Canvas) Line(x0, y0, x1, y1, width float64, clr color.NRGBA) {
	src, alpha := toColorful(clr)
	if alpha <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	cx0, cy0 := cellOf(x0, y0)
	cx1, cy1 := cellOf(x1, y1)
	dx := absInt(cx1 - cx0)
	dy := -absInt(cy1 - cy0)
	sx, sy := 1, 1
	if cx0 > cx1 {
		sx = -1
	}
	if cy0 > cy1 {
		sy = -1
	}
	err := dx + dy
	for {
		if i, ok := c.index(cx0, cy0); ok {
			c.cells[i] = c.cells[i].BlendRgb(src, alpha)
		}
		if cx0 == cx1 && cy0 == cy1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			cx0 += sx
		}
		if e2 <= dx {
			err += dx
			cy0 += sy
		}
	}
}

// Present 把缓冲写入屏幕（背景色空格），调用方负责 Show
func (c *Canvas) Present(screen tcell.Screen) {
	if screen == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for row := 0; row < c.rows; row++ {
		for col := 0; col < c.cols; col++ {
			r, g, b := c.cells[row*c.cols+col].Clamped().RGB255()
			style := tcell.StyleDefault.Background(tcell.NewRGBColor(int32(r), int32(g), int32(b)))
			screen.SetContent(col, row, ' ', nil, style)
		}
	}
}

// eachCell 遍历中心点到 (x, y) 的距离不超过 radius 的单元格，以及 (x, y) 所在的单元格
func (c *Canvas) eachCell(x, y, radius float64, fn func(i int, d float64)) {
	minCol, minRow := cellOf(x-radius, y-radius)
	maxCol, maxRow := cellOf(x+radius, y+radius)
	for row := minRow; row <= maxRow; row++ {
		for col := minCol; col <= maxCol; col++ {
			i, ok := c.index(col, row)
			if !ok {
				continue
			}
			cx, cy := CellCenter(col, row)
			fn(i, math.Hypot(cx-x, cy-y))
		}
	}
}

func (c *Canvas) isCenterCell(i int, x, y float64) bool {
	col, row := cellOf(x, y)
	j, ok := c.index(col, row)
	return ok && i == j
}

func (c *Canvas) index(col, row int) (int, bool) {
	if col < 0 || row < 0 || col >= c.cols || row >= c.rows {
		return 0, false
	}
	return row*c.cols + col, true
}

func cellOf(x, y float64) (int, int) {
	return int(math.Floor(x / CellWidth)), int(math.Floor(y / CellHeight))
}

func toColorful(clr color.NRGBA) (colorful.Color, float64) {
	return colorful.Color{
		R: float64(clr.R) / 255,
		G: float64(clr.G) / 255,
		B: float64(clr.B) / 255,
	}, float64(clr.A) / 255
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
