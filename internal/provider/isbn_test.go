package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestISBN13To10(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   string
		wantOK bool
	}{
		{name: "regular", input: "9780306406157", want: "0306406152", wantOK: true},
		{name: "another", input: "9780415480635", want: "0415480639", wantOK: true},
		{name: "check digit X", input: "9780804429573", want: "080442957X", wantOK: true},
		{name: "hyphenated", input: "978-0-306-40615-7", want: "0306406152", wantOK: true},
		{name: "979 prefix has no ISBN-10", input: "9791032305690", want: "9791032305690", wantOK: false},
		{name: "already ISBN-10", input: "0306406152", want: "0306406152", wantOK: false},
		{name: "non digits", input: "978030640615A", want: "978030640615A", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ISBN13To10(tt.input)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantOK, ok)
		})
	}
}

func TestNormalizeISBN(t *testing.T) {
	assert.Equal(t, "9780306406157", NormalizeISBN("978-0 306-40615-7"))
}
