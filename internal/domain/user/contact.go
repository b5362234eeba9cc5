package user

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// NormalizePhone parses raw in the given default region and returns it in
// E.164 form. An empty input is accepted as "no phone".
func NormalizePhone(raw, region string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}

	num, err := phonenumbers.Parse(raw, region)
	if err != nil {
		return "", NewValidationError("phoneNumber", "Phone number is not valid.")
	}

	if !phonenumbers.IsValidNumber(num) {
		return "", NewValidationError("phoneNumber", "Phone number is not valid.")
	}

	return phonenumbers.Format(num, phonenumbers.E164), nil
}

// NormalizeTaxID strips punctuation from a CPF (11 digits) or CNPJ (14 digits)
// and verifies its check digits. An empty input is accepted.
func NormalizeTaxID(raw string) (string, error) {
	var b strings.Builder
	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '/' || r == ' ':
		default:
			return "", NewValidationError("taxId", "Tax id must contain only digits.")
		}
	}

	digits := b.String()
	switch len(digits) {
	case 0:
		return "", nil
	case 11:
		if !validCPF(digits) {
			return "", NewValidationError("taxId", "CPF is not valid.")
		}
	case 14:
		if !validCNPJ(digits) {
			return "", NewValidationError("taxId", "CNPJ is not valid.")
		}
	default:
		return "", NewValidationError("taxId", "Tax id must be a CPF or a CNPJ.")
	}

	return digits, nil
}

func validCPF(d string) bool {
	if allSame(d) {
		return false
	}
	return checkDigit(d[:9], weightsDescending(10)) == int(d[9]-'0') &&
		checkDigit(d[:10], weightsDescending(11)) == int(d[10]-'0')
}

func validCNPJ(d string) bool {
	if allSame(d) {
		return false
	}
	first := []int{5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
	second := []int{6, 5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
	return checkDigit(d[:12], first) == int(d[12]-'0') &&
		checkDigit(d[:13], second) == int(d[13]-'0')
}

func checkDigit(d string, weights []int) int {
	sum := 0
	for i := range d {
		sum += int(d[i]-'0') * weights[i]
	}
	rem := sum % 11
	if rem < 2 {
		return 0
	}
	return 11 - rem
}

func weightsDescending(from int) []int {
	w := make([]int, from-1)
	for i := range w {
		w[i] = from - i
	}
	return w
}

func allSame(d string) bool {
	return strings.Count(d, d[:1]) == len(d)
}
