package parser

import (
	"math"
	"strings"

	"aerokpi/internal/model"
)

// SourceRecognizer 源类型识别器（根据表头特征字段与文件名关键词）
type SourceRecognizer struct{}

// NewSourceRecognizer 创建识别器
func NewSourceRecognizer() *SourceRecognizer {
	return &SourceRecognizer{}
}

// Recognize 识别表格对应的源类型；最高分并列时不做判定
func (r *SourceRecognizer) Recognize(name string, headers []string) RecognitionResult {
	best := RecognitionResult{Name: name, Confidence: 0}
	runnerUp := 0.0
	lowerName := strings.ToLower(name)

	for _, kind := range model.AllSourceKinds() {
		schema := SchemaFor(kind)
		confidence := r.score(schema, headers)

		// 文件名辅助判定
		if ContainsAny(lowerName, schema.Hints) {
			confidence += 0.3
		}
		switch {
		case confidence > best.Confidence:
			runnerUp = best.Confidence
			best.Source = kind
			best.Confidence = confidence
		case confidence > runnerUp:
			runnerUp = confidence
		}
	}

	if best.Confidence > 0 && math.Abs(best.Confidence-runnerUp) < 1e-9 {
		best.Source = ""
	}

	if best.Confidence > 1 {
		best.Confidence = 1
	}
	if best.Confidence < 0.5 {
		best.Source = ""
	}
	return best
}

// score 特征字段命中率；日期列缺失直接判 0
//
// 只命中日期列时得 0.3，只能靠文件名识别。
func (r *SourceRecognizer) score(schema Schema, headers []string) float64 {
	mapping := NewFieldMapper(schema).Map(headers)
	if !mapping.Has(FieldDate) {
		return 0
	}

	keys, hits := 0, 0
	for _, f := range schema.Fields {
		if !f.Key {
			continue
		}
		keys++
		if mapping.Has(f.Name) {
			hits++
		}
	}
	if keys == 0 || hits == 0 {
		return 0.3
	}
	return 0.9 * float64(hits) / float64(keys)
}
