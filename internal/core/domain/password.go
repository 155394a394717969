package domain

import "unicode"

// MinPasswordLength is the shortest password accepted by the new-password form.
const MinPasswordLength = 8

// Strength is the password meter reading shown next to the new-password field.
type Strength struct {
	Score   int    `json:"score"`
	Percent int    `json:"percent"`
	Label   string `json:"label"`
}

// PasswordTraits reports which character classes a password contains.
type PasswordTraits struct {
	Upper   bool
	Lower   bool
	Digit   bool
	Special bool
}

// TraitsOf scans pw once for each character class.
func TraitsOf(pw string) PasswordTraits {
	var t PasswordTraits
	for _, r := range pw {
		switch {
		case unicode.IsUpper(r):
			t.Upper = true
		case unicode.IsLower(r):
			t.Lower = true
		case unicode.IsDigit(r):
			t.Digit = true
		case isMeterSpecial(r):
			t.Special = true
		}
	}
	return t
}

// PasswordStrength scores pw one point each for length, upper, lower, digit
// and special character.
func PasswordStrength(pw string) Strength {
	if pw == "" {
		return Strength{}
	}
	t := TraitsOf(pw)
	score := 0
	for _, ok := range []bool{len([]rune(pw)) >= MinPasswordLength, t.Upper, t.Lower, t.Digit, t.Special} {
		if ok {
			score++
		}
	}

	switch {
	case score <= 2:
		return Strength{Score: score, Percent: score * 20, Label: "Weak"}
	case score == 3:
		return Strength{Score: score, Percent: score * 20, Label: "Fair"}
	case score == 4:
		return Strength{Score: score, Percent: score * 20, Label: "Good"}
	default:
		return Strength{Score: score, Percent: 100, Label: "Strong"}
	}
}

func isMeterSpecial(r rune) bool {
	switch r {
	case '!', '@', '#', '$', '%', '^', '&', '*', '(', ')', ',', '.', '?', '"', ':', '{', '}', '|', '<', '>':
		return true
	}
	return false
}
