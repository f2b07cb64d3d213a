package app

import "github.com/hajimehoshi/ebiten/v2"

// 拖动超过该像素数不再视为点击
const tapSlop = 8

// 拖动时每像素旋转的弧度
const dragRadiansPerPixel = 0.005

// pointer 统一处理鼠标和触摸输入：点击跳过当前阶段，水平拖动旋转相机
type pointer struct {
	dragging bool
	moved    bool
	startX   int
	lastX    int
}

// pointerState 获取指针状态，优先触摸
func pointerState() (pressed bool, x int) {
	if ids := ebiten.AppendTouchIDs(nil); len(ids) > 0 {
		x, _ = ebiten.TouchPosition(ids[0])
		return true, x
	}
	x, _ = ebiten.CursorPosition()
	return ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft), x
}

// step 推进一帧。返回是否完成一次点击，以及本帧的水平拖动量
func (p *pointer) step(pressed bool, x int) (tapped bool, dx int) {
	switch {
	case pressed && !p.dragging:
		p.dragging = true
		p.moved = false
		p.startX, p.lastX = x, x
	case pressed:
		dx = x - p.lastX
		p.lastX = x
		if abs(x-p.startX) > tapSlop {
			p.moved = true
		}
	case p.dragging:
		p.dragging = false
		tapped = !p.moved
	}
	return tapped, dx
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
