package classifier

import (
	"bytes"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeImage(t *testing.T) {
	t.Parallel()

	var pngData, jpegData bytes.Buffer

	require.NoError(t, png.Encode(&pngData, testImage()))
	require.NoError(t, jpeg.Encode(&jpegData, testImage(), nil))

	img, err := DecodeImage(pngData.Bytes())
	require.NoError(t, err)
	require.Equal(t, 2, img.Bounds().Dx())

	_, err = DecodeImage(jpegData.Bytes())
	require.NoError(t, err)

	_, err = DecodeImage(nil)
	require.ErrorIs(t, err, ErrEmptyImage)

	_, err = DecodeImage([]byte("not an image"))
	require.Error(t, err)
}
