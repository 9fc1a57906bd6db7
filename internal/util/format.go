package util

import (
	"fmt"
	"math"
	"strings"

	"aerokpi/internal/model"
)

// FormatKPI 按指标口径格式化数值（控制台展示用）；空值显示为 "-"
func FormatKPI(k model.KPI, v *float64) string {
	if v == nil {
		return "-"
	}
	switch {
	case k.Currency:
		return FormatCurrency(*v)
	case k.Kind == model.AggRatio:
		return FormatPercent(*v)
	case k.Kind == model.AggMean:
		return fmt.Sprintf("%.2f", *v)
	default:
		return FormatThousands(math.Round(*v))
	}
}

// FormatPercent 格式化百分比（数值已是 0-100）
func FormatPercent(value float64) string {
	return fmt.Sprintf("%.2f%%", value)
}

// FormatCurrency 格式化金额（千分位，无小数）
func FormatCurrency(value float64) string {
	return "$" + FormatThousands(math.Round(value))
}

// FormatThousands 整数千分位
func FormatThousands(value float64) string {
	s := fmt.Sprintf("%.0f", math.Abs(value))
	var b strings.Builder
	if value < 0 && s != "0" {
		b.WriteByte('-')
	}
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return b.String()
}
