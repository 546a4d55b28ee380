// Package partnumber implements the ARINC 665 PartNumber primitive: a
// 13-character identifier composed of a manufacturer code, a self-checking
// check code, and a product identifier.
package partnumber

import (
	"fmt"
	"strings"
)

// Field lengths, in characters.
const (
	ManufacturerCodeLength   = 3
	CheckCodeLength          = 2
	ProductIdentifierLength  = 8
	Length                   = ManufacturerCodeLength + CheckCodeLength + ProductIdentifierLength
)

// forbiddenProductLetters lists the letters excluded from the product
// identifier to avoid confusion with digits (I/1, O/0, Q/0, Z/2).
const forbiddenProductLetters = "IOQZ"

// PartNumber is a validated ARINC 665 part number.
type PartNumber struct {
	manufacturerCode  string
	productIdentifier string
}

// New builds a PartNumber from a manufacturer code and product identifier,
// validating both against the character set and length rules.
func New(manufacturerCode, productIdentifier string) (PartNumber, error) {
	if err := checkManufacturerCode(manufacturerCode); err != nil {
		return PartNumber{}, err
	}
	if err := checkProductIdentifier(productIdentifier); err != nil {
		return PartNumber{}, err
	}
	return PartNumber{manufacturerCode: manufacturerCode, productIdentifier: productIdentifier}, nil
}

// Parse decodes the 13-character concatenated form "MFRCCPRODUCTID" and
// verifies the embedded check code against the one computed from the
// manufacturer code and product identifier.
func Parse(s string) (PartNumber, error) {
	if len(s) != Length {
		return PartNumber{}, fmt.Errorf("partnumber: invalid length %d, want %d", len(s), Length)
	}

	mfr := s[:ManufacturerCodeLength]
	givenCheck := s[ManufacturerCodeLength : ManufacturerCodeLength+CheckCodeLength]
	product := s[ManufacturerCodeLength+CheckCodeLength:]

	pn, err := New(mfr, product)
	if err != nil {
		return PartNumber{}, err
	}

	if want := pn.CheckCode(); want != givenCheck {
		return PartNumber{}, fmt.Errorf("partnumber: check code mismatch: have %q, want %q", givenCheck, want)
	}

	return pn, nil
}

func checkManufacturerCode(s string) error {
	if len(s) != ManufacturerCodeLength {
		return fmt.Errorf("partnumber: manufacturer code %q has length %d, want %d", s, len(s), ManufacturerCodeLength)
	}
	for _, r := range s {
		if !isUpperAlphanumeric(r) {
			return fmt.Errorf("partnumber: manufacturer code %q contains invalid character %q", s, r)
		}
	}
	return nil
}

func checkProductIdentifier(s string) error {
	if len(s) != ProductIdentifierLength {
		return fmt.Errorf("partnumber: product identifier %q has length %d, want %d", s, len(s), ProductIdentifierLength)
	}
	for _, r := range s {
		if !isUpperAlphanumeric(r) {
			return fmt.Errorf("partnumber: product identifier %q contains invalid character %q", s, r)
		}
		if strings.ContainsRune(forbiddenProductLetters, r) {
			return fmt.Errorf("partnumber: product identifier %q contains forbidden letter %q", s, r)
		}
	}
	return nil
}

func isUpperAlphanumeric(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'A' && r <= 'Z')
}

// ManufacturerCode returns the 3-character manufacturer code.
func (p PartNumber) ManufacturerCode() string { return p.manufacturerCode }

// ProductIdentifier returns the 8-character product identifier.
func (p PartNumber) ProductIdentifier() string { return p.productIdentifier }

// CheckCode computes the 2-hex-digit check code: the XOR of every byte of
// the manufacturer code and product identifier.
func (p PartNumber) CheckCode() string {
	var check uint8
	for i := 0; i < len(p.manufacturerCode); i++ {
		check ^= p.manufacturerCode[i]
	}
	for i := 0; i < len(p.productIdentifier); i++ {
		check ^= p.productIdentifier[i]
	}
	return fmt.Sprintf("%02X", check)
}

// String renders the full 13-character concatenated form.
func (p PartNumber) String() string {
	return p.manufacturerCode + p.CheckCode() + p.productIdentifier
}

// IsZero reports whether p is the zero value (never produced by New/Parse).
func (p PartNumber) IsZero() bool {
	return p.manufacturerCode == "" && p.productIdentifier == ""
}
