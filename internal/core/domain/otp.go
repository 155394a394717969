package domain

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// OTPLength is the number of single-character cells in an OTP entry.
const OTPLength = 6

// OTPEntry models the six-cell code input used by account verification and
// password reset. Each cell holds at most one character.
type OTPEntry struct {
	cells [OTPLength]string
}

// EntryFromCode spreads a pasted or typed code over the cells, one character
// per cell. Characters beyond the sixth are dropped.
func EntryFromCode(code string) OTPEntry {
	var e OTPEntry
	i := 0
	for _, r := range strings.TrimSpace(code) {
		if i == OTPLength {
			break
		}
		e.cells[i] = string(r)
		i++
	}
	return e
}

// EntryFromCells builds an entry from cell values as submitted by a form.
func EntryFromCells(cells []string) (OTPEntry, error) {
	var e OTPEntry
	if len(cells) > OTPLength {
		return e, NewValidationError("otp", fmt.Sprintf("Please enter all %d digits", OTPLength))
	}
	for i, v := range cells {
		if utf8.RuneCountInString(v) > 1 {
			return e, NewValidationError("otp", "Each cell takes a single character")
		}
		e.cells[i] = v
	}
	return e, nil
}

// Input sets cell index to value and returns the index that should receive
// focus next. Values longer than one character are ignored.
func (e *OTPEntry) Input(index int, value string) int {
	if index < 0 || index >= OTPLength {
		return clampCell(index)
	}
	if utf8.RuneCountInString(value) > 1 {
		return index
	}
	e.cells[index] = value
	if value != "" && index < OTPLength-1 {
		return index + 1
	}
	return index
}

// Backspace clears cell index when it holds a character; on an already empty
// cell it moves focus to the previous one.
func (e *OTPEntry) Backspace(index int) int {
	if index < 0 || index >= OTPLength {
		return clampCell(index)
	}
	if e.cells[index] != "" {
		e.cells[index] = ""
		return index
	}
	if index > 0 {
		return index - 1
	}
	return index
}

// Reset empties every cell.
func (e *OTPEntry) Reset() {
	e.cells = [OTPLength]string{}
}

// Cells returns a copy of the cell values.
func (e OTPEntry) Cells() []string {
	out := make([]string, OTPLength)
	copy(out, e.cells[:])
	return out
}

// Filled counts the non-empty cells.
func (e OTPEntry) Filled() int {
	n := 0
	for _, c := range e.cells {
		if c != "" {
			n++
		}
	}
	return n
}

// Code joins the cells. It fails with ErrIncompleteOTP unless every cell is
// populated.
func (e OTPEntry) Code() (string, error) {
	code := strings.Join(e.cells[:], "")
	if utf8.RuneCountInString(code) != OTPLength {
		return "", ErrIncompleteOTP
	}
	return code, nil
}

func clampCell(index int) int {
	if index < 0 {
		return 0
	}
	return OTPLength - 1
}
