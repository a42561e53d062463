package arc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{`models\char\hero.mdl`, "models/char/hero.mdl"},
		{"models/char/hero.mdl", "models/char/hero.mdl"},
		{`\models\`, "models"},
		{`models\\char`, "models/char"},
		{"", ""},
		{`\`, ""},
		{`..\escape`, "../escape"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizePath(tt.in))
		})
	}
}

func TestBaseName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"game/arc/pl0000.arc", "pl0000"},
		{"pl0000.arc", "pl0000"},
		{`C:\lp\stage.s01.arc`, "stage"},
		{"noext", "noext"},
		{".arc", ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, BaseName(tt.in))
		})
	}
}
