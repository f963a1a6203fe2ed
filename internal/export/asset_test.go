package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPageAssetValidate(t *testing.T) {
	valid := PageAsset{Index: 0, Image: []byte{1}, Audio: []byte{2}}

	t.Run("valid asset", func(t *testing.T) {
		assert.NoError(t, valid.Validate())
	})

	t.Run("negative index", func(t *testing.T) {
		page := valid
		page.Index = -1
		assert.ErrorIs(t, page.Validate(), ErrInvalidPageAsset)
	})

	t.Run("empty image", func(t *testing.T) {
		page := valid
		page.Image = nil
		assert.ErrorIs(t, page.Validate(), ErrInvalidPageAsset)
	})

	t.Run("empty audio is an error, not a skip", func(t *testing.T) {
		page := valid
		page.Audio = []byte{}
		err := page.Validate()
		require.ErrorIs(t, err, ErrInvalidPageAsset)
		assert.Contains(t, err.Error(), "page 0")
	})
}

func TestTimingConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		hold    float64
		fade    float64
		wantErr bool
	}{
		{"typical values", 6, 0.5, false},
		{"zero fade", 4, 0, false},
		{"fade just below hold", 2, 1.999, false},
		{"zero hold", 0, 0, true},
		{"negative hold", -1, 0, true},
		{"fade equals hold", 3, 3, true},
		{"fade above hold", 3, 4, true},
		{"negative fade", 3, -0.1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := TimingConfig{HoldSeconds: tt.hold, FadeSeconds: tt.fade}.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidTimingConfig)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestTimingConfigFadeStart(t *testing.T) {
	timing := TimingConfig{HoldSeconds: 4, FadeSeconds: 0.5}
	assert.InDelta(t, 3.5, timing.FadeStart(), 1e-9)
}

func TestEncodeParamsValidate(t *testing.T) {
	assert.NoError(t, EncodeParams{Width: 1280, Height: 720, FPS: 25}.Validate())
	assert.ErrorIs(t, EncodeParams{Width: 0, Height: 720, FPS: 25}.Validate(), ErrInvalidEncodeParams)
	assert.ErrorIs(t, EncodeParams{Width: 1280, Height: -1, FPS: 25}.Validate(), ErrInvalidEncodeParams)
	assert.ErrorIs(t, EncodeParams{Width: 1280, Height: 720, FPS: 0}.Validate(), ErrInvalidEncodeParams)
}

func TestPageTurnEffect(t *testing.T) {
	effect := PageTurnEffect()
	require.NotEmpty(t, effect)
	// Embedded effect must be a RIFF/WAVE file.
	assert.True(t, bytes.HasPrefix(effect, []byte("RIFF")))
	assert.Equal(t, []byte("WAVE"), effect[8:12])
}
