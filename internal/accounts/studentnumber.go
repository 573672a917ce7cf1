package accounts

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// StudentNumberPattern documents the generated format: "S", two-digit year,
// five random digits.
const StudentNumberPattern = `S\d{2}\d{5}`

// generateStudentNumber produces a candidate student number. The format does
// not guarantee global uniqueness; callers rely on the store's unique
// constraint and retry on collision.
func generateStudentNumber(now time.Time) string {
	year := now.Year() % 100
	n, err := rand.Int(rand.Reader, big.NewInt(90000))
	suffix := int64(10000)
	if err == nil {
		suffix += n.Int64()
	}
	return fmt.Sprintf("S%02d%05d", year, suffix)
}
