package sales

import (
	"fmt"
	"math/rand/v2"
	"time"
)

// NumberGenerator genera números de venta PREFIX-YYYYMM-XXXXXXXX, donde X son los últimos
// 8 dígitos del instante en microsegundos. Tras una colisión se agrega un sufijo aleatorio
// de 4 dígitos.
type NumberGenerator struct {
	Prefix string
	Now    func() time.Time
	// Suffix devuelve un entero en [1000, 9999].
	Suffix func() int
}

// NewNumberGenerator generador con reloj y azar reales.
func NewNumberGenerator(prefix string) *NumberGenerator {
	return &NumberGenerator{
		Prefix: prefix,
		Now:    time.Now,
		Suffix: func() int { return 1000 + rand.IntN(9000) },
	}
}

// Next devuelve el número para el intento attempt (0 = primer intento).
func (g *NumberGenerator) Next(attempt int) string {
	now := g.Now()
	base := fmt.Sprintf("%s-%s-%08d", g.Prefix, now.Format("200601"), now.UnixMicro()%100_000_000)
	if attempt == 0 {
		return base
	}
	return fmt.Sprintf("%s-%04d", base, g.Suffix())
}
