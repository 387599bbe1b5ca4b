// Package identifier produces the QR code, barcode and serial number strings
// printed on each physical product unit.
package identifier

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand/v2"
	"strconv"
	"strings"
	"sync"

	"github.com/warrantyhub/backend/internal/domain/shared"
)

const (
	base36Alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

	qrPrefix     = "QR"
	serialPrefix = "SN"

	qrRandomLen     = 6
	serialRandomLen = 8
	barcodeTimeLen  = 8
	productCodeLen  = 4
)

// Codes is the identifier triplet assigned to one product unit
type Codes struct {
	QRCode       string
	Barcode      string
	SerialNumber string
}

// Generator derives identifiers from a product ID, the clock and a random source.
// It is safe for concurrent use.
type Generator struct {
	clock shared.Clock
	mu    sync.Mutex
	rnd   *rand.Rand
}

// Option configures a Generator
type Option func(*Generator)

// WithRandSource replaces the random source, mainly for deterministic tests
func WithRandSource(src rand.Source) Option {
	return func(g *Generator) {
		g.rnd = rand.New(src)
	}
}

// NewGenerator creates a Generator seeded from crypto/rand
func NewGenerator(clock shared.Clock, opts ...Option) *Generator {
	var seed [32]byte
	_, _ = crand.Read(seed[:])
	g := &Generator{
		clock: clock,
		rnd:   rand.New(rand.NewChaCha8(seed)),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate produces all three identifiers for a product unit
func (g *Generator) Generate(productID string) Codes {
	return Codes{
		QRCode:       g.QRCode(productID),
		Barcode:      g.Barcode(productID),
		SerialNumber: g.SerialNumber(productID),
	}
}

// QRCode returns "QR" + product code + base-36 millis + 6 random base-36 chars, uppercased
func (g *Generator) QRCode(productID string) string {
	var b strings.Builder
	b.WriteString(qrPrefix)
	b.WriteString(ProductCode(productID))
	b.WriteString(g.timestamp36())
	b.WriteString(strings.ToUpper(g.random36(qrRandomLen)))
	return b.String()
}

// Barcode returns the numeric product code + last 8 digits of millis + 4 random digits
func (g *Generator) Barcode(productID string) string {
	millis := strconv.FormatInt(g.clock.Now().UnixMilli(), 10)
	if len(millis) > barcodeTimeLen {
		millis = millis[len(millis)-barcodeTimeLen:]
	}

	g.mu.Lock()
	n := g.rnd.IntN(10000)
	g.mu.Unlock()

	return NumericProductCode(productID) + millis + leftPad(strconv.Itoa(n), 4, '0')
}

// SerialNumber returns "SN" + product code + base-36 millis + 8 random base-36 chars, uppercased
func (g *Generator) SerialNumber(productID string) string {
	var b strings.Builder
	b.WriteString(serialPrefix)
	b.WriteString(ProductCode(productID))
	b.WriteString(g.timestamp36())
	b.WriteString(strings.ToUpper(g.random36(serialRandomLen)))
	return b.String()
}

// ProductCode is the last four characters of the product ID, uppercased
func ProductCode(productID string) string {
	return strings.ToUpper(lastN(productID, productCodeLen))
}

// NumericProductCode keeps only the digits of the last four characters of the
// product ID and left-pads them with zeros to four digits.
func NumericProductCode(productID string) string {
	tail := lastN(productID, productCodeLen)
	digits := make([]byte, 0, len(tail))
	for i := 0; i < len(tail); i++ {
		if tail[i] >= '0' && tail[i] <= '9' {
			digits = append(digits, tail[i])
		}
	}
	return leftPad(string(digits), productCodeLen, '0')
}

func (g *Generator) timestamp36() string {
	return strings.ToUpper(strconv.FormatInt(g.clock.Now().UnixMilli(), 36))
}

func (g *Generator) random36(n int) string {
	g.mu.Lock()
	defer g.mu.Unlock()

	buf := make([]byte, n)
	for i := range buf {
		buf[i] = base36Alphabet[g.rnd.IntN(len(base36Alphabet))]
	}
	return string(buf)
}

func lastN(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

func leftPad(s string, width int, pad byte) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat(string(pad), width-len(s)) + s
}

// SeedFromUint64 builds a deterministic ChaCha8 source from a single seed value
func SeedFromUint64(seed uint64) rand.Source {
	var s [32]byte
	binary.LittleEndian.PutUint64(s[:8], seed)
	return rand.NewChaCha8(s)
}
