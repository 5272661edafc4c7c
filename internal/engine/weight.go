package engine

import (
	"fmt"
	"math"

	"github.com/custodia-labs/sercha-engine/internal/core/domain"
)

// BM25 holds the BM25 tuning constants.
type BM25 struct {
	K1 float64
	B  float64
}

// DefaultBM25 returns k1=1.2, b=0.75.
func DefaultBM25() BM25 {
	return BM25{K1: 1.2, B: 0.75}
}

// Validate rejects negative constants and b above one.
func (p BM25) Validate() error {
	if p.K1 < 0 || p.B < 0 || p.B > 1 || math.IsNaN(p.K1) || math.IsNaN(p.B) {
		return fmt.Errorf("%w: bm25 k1=%v b=%v", domain.ErrInvalidInput, p.K1, p.B)
	}
	return nil
}

// rsj is the Robertson/Sparck-Jones relevance weight. With no relevance
// information (R = r = 0) it reduces to the usual BM25 idf ratio.
func rsj(N, n, R, r int) float64 {
	num := (float64(r) + 0.5) * (float64(N-n-R+r) + 0.5)
	den := (float64(R-r) + 0.5) * (float64(n-r) + 0.5)
	return num / den
}

// termWeight is the idf part: log(1 + rsj), always positive.
func termWeight(N, n, R, r int) float64 {
	return math.Log(1 + rsj(N, n, R, r))
}

// tfWeight is the saturating term-frequency part.
func (p BM25) tfWeight(wdf uint32, docLen uint32, avgLen float64) float64 {
	if wdf == 0 {
		return 0
	}
	norm := 1.0
	if avgLen > 0 {
		norm = (1 - p.B) + p.B*float64(docLen)/avgLen
	}
	f := float64(wdf)
	return (p.K1 + 1) * f / (p.K1*norm + f)
}

// expandWeight is the offer weight of a term for query expansion.
func expandWeight(N, n, R, r int) float64 {
	return float64(r) * math.Log(rsj(N, n, R, r))
}

func validWeight(w float64) bool {
	return !math.IsNaN(w) && !math.IsInf(w, -1)
}
