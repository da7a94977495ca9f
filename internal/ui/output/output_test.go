package output_test

import (
	"bytes"
	"testing"

	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"go.trai.ch/weld/internal/ui/output"
)

func TestProfiles_NoColor(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	assert.True(t, output.NoColor())
	assert.Equal(t, termenv.Ascii, output.ColorProfile())
	assert.Equal(t, termenv.Ascii, output.ColorProfileANSI())
}

func TestProfiles_Color(t *testing.T) {
	t.Setenv("NO_COLOR", "")

	assert.False(t, output.NoColor())
	assert.Equal(t, termenv.ANSI, output.ColorProfileANSI())
	p := output.ColorProfile()
	assert.True(t, p >= termenv.TrueColor && p <= termenv.Ascii)
}

func TestNewWithProfile(t *testing.T) {
	t.Setenv("NO_COLOR", "")

	tests := []struct {
		name    string
		profile func() termenv.Profile
		styled  bool
	}{
		{name: "plain", profile: output.Plain, styled: false},
		{name: "ansi", profile: output.ColorProfileANSI, styled: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			out := output.NewWithProfile(&buf, tt.profile)
			_, _ = out.WriteString(out.String("app@exe").Bold().String())

			assert.Contains(t, buf.String(), "app@exe")
			assert.Equal(t, tt.styled, buf.String() != "app@exe")
		})
	}
}

func TestNew_NilWriter(t *testing.T) {
	assert.NotNil(t, output.New(nil))
}
