package reveal

import (
	"fmt"
	"math"
	"strings"
)

// Easing Functions (缓动函数)
//
// 缓动函数控制淡入/淡出的速度曲线。
// 所有函数接受进度值 t ∈ [0, 1]，返回缓动后的值 ∈ [0, 1]。
// 默认使用线性缓动，即 opacity = timer/duration。
//
// 参考：https://easings.net/

// EasingFunc maps linear progress to eased progress.
type EasingFunc func(t float64) float64

// Easing names accepted in scene configuration.
const (
	EasingLinear     = "linear"
	EasingInQuad     = "inQuad"
	EasingOutQuad    = "outQuad"
	EasingInCubic    = "inCubic"
	EasingOutCubic   = "outCubic"
	EasingInOutCubic = "inOutCubic"
	EasingOutExpo    = "outExpo"
)

// EaseLinear 线性缓动（匀速）
func EaseLinear(t float64) float64 {
	return t
}

// EaseInQuad 二次方缓入
// 公式：f(t) = t²
func EaseInQuad(t float64) float64 {
	return t * t
}

// EaseOutQuad 二次方缓出
// 公式：f(t) = 1 - (1-t)²
func EaseOutQuad(t float64) float64 {
	return 1 - (1-t)*(1-t)
}

// EaseInCubic 三次方缓入
// 公式：f(t) = t³
func EaseInCubic(t float64) float64 {
	return t * t * t
}

// EaseOutCubic 三次方缓出，开始快，结束慢
// 公式：f(t) = 1 - (1-t)³
func EaseOutCubic(t float64) float64 {
	return 1 - math.Pow(1-t, 3)
}

// EaseInOutCubic 三次方缓入缓出
//
//	t < 0.5: f(t) = 4t³
//	t >= 0.5: f(t) = 1 - (-2t + 2)³ / 2
func EaseInOutCubic(t float64) float64 {
	if t < 0.5 {
		return 4 * t * t * t
	}
	return 1 - math.Pow(-2*t+2, 3)/2
}

// EaseOutExpo 指数缓出
// 公式：f(t) = 1 - 2^(-10t)
func EaseOutExpo(t float64) float64 {
	if t >= 1.0 {
		return 1.0
	}
	return 1 - math.Pow(2, -10*t)
}

var easings = map[string]EasingFunc{
	strings.ToLower(EasingLinear):     EaseLinear,
	strings.ToLower(EasingInQuad):     EaseInQuad,
	strings.ToLower(EasingOutQuad):    EaseOutQuad,
	strings.ToLower(EasingInCubic):    EaseInCubic,
	strings.ToLower(EasingOutCubic):   EaseOutCubic,
	strings.ToLower(EasingInOutCubic): EaseInOutCubic,
	strings.ToLower(EasingOutExpo):    EaseOutExpo,
}

// LookupEasing resolves an easing by name (case-insensitive). An empty name is linear.
func LookupEasing(name string) (EasingFunc, error) {
	if name == "" {
		return EaseLinear, nil
	}
	fn, ok := easings[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown easing %q", name)
	}
	return fn, nil
}
