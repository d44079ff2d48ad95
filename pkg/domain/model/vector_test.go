package model_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/stackscout/pkg/domain/model"
)

func TestCosineDistance(t *testing.T) {
	gt.Number(t, model.CosineDistance([]float32{1, 0}, []float32{2, 0})).LessOrEqual(1e-9)
	gt.Value(t, model.CosineDistance([]float32{1, 0}, []float32{0, 1})).Equal(1.0)
	gt.Number(t, model.CosineDistance([]float32{1, 0}, []float32{-1, 0})).GreaterOrEqual(1.999)
	gt.Value(t, model.CosineDistance([]float32{1, 0}, []float32{1, 0, 0})).Equal(1.0)
	gt.Value(t, model.CosineDistance([]float32{0, 0}, []float32{1, 0})).Equal(1.0)
}
