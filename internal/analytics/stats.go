package analytics

import (
	"math"
	"sort"
)

func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round2(v float64) float64 { return math.Round(v*100) / 100 }

func mean(values []int) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0
	for _, v := range values {
		sum += v
	}
	return float64(sum) / float64(len(values))
}

// median 取中位数，偶数个时为中间两数的均值。
func median(values []int) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]int(nil), values...)
	sort.Ints(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return float64(sorted[n/2])
	}
	return float64(sorted[n/2-1]+sorted[n/2]) / 2
}

// stddev 为样本标准差（n-1），样本数不足两个时取 0。
func stddev(values []int) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}
	m := mean(values)
	var sum float64
	for _, v := range values {
		d := float64(v) - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(n-1))
}

func minMax(values []int) (lo, hi int) {
	if len(values) == 0 {
		return 0, 0
	}
	lo, hi = values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

// growthRate 计算首尾增长率（百分比）。
// 序列不足两个值或首值为 0 时取 0：避免除零，代价是
// 从零基线起步的增长会被低估（既定的粗糙口径，不是待修的 bug）。
func growthRate(values []int) float64 {
	if len(values) < 2 {
		return 0
	}
	first := values[0]
	last := values[len(values)-1]
	if first == 0 {
		return 0
	}
	return float64(last-first) / float64(first) * 100
}

// rankByCount 统计字符串出现次数并按次数降序排序，
// 并列时按首次出现顺序排列；top>0 时截断。
type freqEntry struct {
	key   string
	count int
}

func rankByCount(items []string, top int) []freqEntry {
	counts := map[string]int{}
	firstIdx := map[string]int{}
	order := make([]string, 0)
	for i, it := range items {
		if _, seen := counts[it]; !seen {
			firstIdx[it] = i
			order = append(order, it)
		}
		counts[it]++
	}
	out := make([]freqEntry, 0, len(order))
	for _, k := range order {
		out = append(out, freqEntry{key: k, count: counts[k]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].count != out[j].count {
			return out[i].count > out[j].count
		}
		return firstIdx[out[i].key] < firstIdx[out[j].key]
	})
	if top > 0 && len(out) > top {
		out = out[:top]
	}
	return out
}
