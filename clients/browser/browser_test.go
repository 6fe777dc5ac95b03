package browser

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dgexport/models"
)

func TestBrowserSurface_Open(t *testing.T) {
	geometry := models.CenteredWindow(1920, 1080, 600, 525)

	t.Run("opens the url", func(t *testing.T) {
		var opened string
		openURL = func(url string) error {
			opened = url
			return nil
		}
		t.Cleanup(func() { openURL = defaultOpenURL })

		var out bytes.Buffer
		window, err := NewBrowserSurface(&out).Open(context.Background(), "https://github.com/login/oauth/authorize?state=x", geometry)
		require.NoError(t, err)
		assert.Equal(t, "https://github.com/login/oauth/authorize?state=x", opened)
		assert.Contains(t, out.String(), "state=x")

		assert.NoError(t, window.Close())
		assert.NoError(t, window.Close())
	})

	t.Run("browser failure", func(t *testing.T) {
		openURL = func(url string) error { return errors.New("no display") }
		t.Cleanup(func() { openURL = defaultOpenURL })

		_, err := NewBrowserSurface(&bytes.Buffer{}).Open(context.Background(), "https://example.com", geometry)
		assert.ErrorContains(t, err, "no display")
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := NewPrintSurface(&bytes.Buffer{}).Open(ctx, "https://example.com", geometry)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestPrintSurface_Open(t *testing.T) {
	var out bytes.Buffer
	window, err := NewPrintSurface(&out).Open(context.Background(), "https://github.com/apps/x/installations/new", models.WindowGeometry{})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "https://github.com/apps/x/installations/new")
	assert.NoError(t, window.Close())
}

func TestCenteredWindow(t *testing.T) {
	g := models.CenteredWindow(1920, 1080, 600, 525)
	assert.Equal(t, models.WindowGeometry{Width: 600, Height: 525, Left: 660, Top: 277}, g)
	assert.Equal(t, "width=600,height=525,left=660,top=277", g.Features())

	small := models.CenteredWindow(400, 300, 600, 525)
	assert.Equal(t, 0, small.Left)
	assert.Equal(t, 0, small.Top)
}
