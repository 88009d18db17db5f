package augment

import (
	"image"
	"image/color"
	"math/rand"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/gomlx/segaug/pkg/augment/scale"
	"github.com/gomlx/segaug/pkg/core/errs"
	"github.com/gomlx/segaug/pkg/core/mask"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var white = color.NRGBA{R: 255, G: 255, B: 255, A: 255}

// markerPair returns a black image with a white block at rect, and a mask with label 0 everywhere
// except 1 on the same block.
func markerPair(width, height int, rect image.Rectangle) (*image.NRGBA, *mask.Mask) {
	img := imaging.New(width, height, color.NRGBA{A: 255})
	m := mask.New(width, height)
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			img.SetNRGBA(x, y, white)
			m.Set(x, y, 1)
		}
	}
	return img, m
}

// requireAligned checks that the white pixels of img are exactly the pixels labeled 1 in m.
func requireAligned(t *testing.T, img *image.NRGBA, m *mask.Mask, msgAndArgs ...any) {
	t.Helper()
	require.Equal(t, img.Bounds().Size(), m.Size(), msgAndArgs...)
	for y := range m.Height {
		for x := range m.Width {
			isWhite := img.NRGBAAt(x, y).R > 128
			require.Equal(t, isWhite, m.At(x, y) == 1, append([]any{"pixel (%d, %d)", x, y}, msgAndArgs...)...)
		}
	}
}

func TestScaleToSides(t *testing.T) {
	assert.Equal(t, image.Pt(1024, 512), ScaleToLongSide(image.Pt(2048, 1024), 1024))
	assert.Equal(t, image.Pt(300, 500), ScaleToLongSide(image.Pt(600, 1000), 500))
	// 333*100/1000 = 33.3 -> 33; 335*100/1000 = 33.5 -> 34.
	assert.Equal(t, image.Pt(100, 33), ScaleToLongSide(image.Pt(1000, 333), 100))
	assert.Equal(t, image.Pt(100, 34), ScaleToLongSide(image.Pt(1000, 335), 100))
	assert.Equal(t, image.Pt(64, 64), ScaleToLongSide(image.Pt(10, 10), 64))

	assert.Equal(t, image.Pt(150, 100), ScaleToShortSide(image.Pt(300, 200), 100))
	assert.Equal(t, image.Pt(100, 150), ScaleToShortSide(image.Pt(200, 300), 100))
	assert.Equal(t, image.Pt(100, 100), ScaleToShortSide(image.Pt(7, 7), 100))
}

func TestPlanRandom(t *testing.T) {
	rng := rand.New(rand.NewSource(0))
	crop := image.Pt(64, 48)
	numFlips := 0
	const numTrials = 1000
	for range numTrials {
		g, err := PlanRandom(rng, image.Pt(200, 100), crop, 96)
		require.NoError(t, err)
		require.Equal(t, image.Pt(96, 48), g.Resize)
		require.Equal(t, image.Pt(0, 0), g.Pad)
		require.Equal(t, crop, g.Crop.Size())
		require.True(t, g.Crop.In(image.Rect(0, 0, 96, 48)))
		if g.Flip {
			numFlips++
		}
	}
	assert.InDelta(t, numTrials/2, numFlips, 60)

	// Needs padding on both axes.
	g, err := PlanRandom(rng, image.Pt(200, 100), image.Pt(128, 128), 64)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(64, 32), g.Resize)
	assert.Equal(t, image.Pt(64, 96), g.Pad)
	assert.Equal(t, image.Rect(0, 0, 128, 128), g.Crop)

	_, err = PlanRandom(rng, image.Pt(200, 100), image.Pt(0, 10), 64)
	assert.True(t, errs.IsGeometry(err))
	_, err = PlanRandom(nil, image.Pt(200, 100), image.Pt(10, 10), 64)
	assert.Error(t, err)
}

func TestGeometryValidate(t *testing.T) {
	g := Geometry{Resize: image.Pt(10, 10), Crop: image.Rect(0, 0, 10, 10)}
	require.NoError(t, g.Validate())
	g.Crop = image.Rect(1, 0, 11, 10)
	assert.True(t, errs.IsGeometry(g.Validate()))
	g.Pad = image.Pt(1, 0)
	require.NoError(t, g.Validate())
	g.Resize = image.Pt(0, 10)
	assert.True(t, errs.IsGeometry(g.Validate()))
}

func TestApplyFlip(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 3, 1))
	img.SetNRGBA(0, 0, color.NRGBA{R: 10, A: 255})
	img.SetNRGBA(1, 0, color.NRGBA{R: 20, A: 255})
	img.SetNRGBA(2, 0, color.NRGBA{R: 30, A: 255})
	m := &mask.Mask{Width: 3, Height: 1, Labels: []int32{1, 2, 3}}
	g := Geometry{Flip: true, Resize: image.Pt(3, 1), Crop: image.Rect(0, 0, 3, 1)}
	outImg, outMask, err := g.Apply(img, m)
	require.NoError(t, err)
	assert.Equal(t, []int32{3, 2, 1}, outMask.Labels)
	assert.Equal(t, uint8(30), outImg.NRGBAAt(0, 0).R)
	assert.Equal(t, uint8(10), outImg.NRGBAAt(2, 0).R)
	// Inputs are untouched.
	assert.Equal(t, []int32{1, 2, 3}, m.Labels)
	assert.Equal(t, uint8(10), img.NRGBAAt(0, 0).R)
}

func TestApplyAlignmentWithoutResize(t *testing.T) {
	// A single marked pixel must land at the same output coordinate in the image and in the mask.
	rng := rand.New(rand.NewSource(7))
	const width, height = 40, 30
	marker := image.Pt(13, 21)
	img, m := markerPair(width, height, image.Rectangle{Min: marker, Max: marker.Add(image.Pt(1, 1))})
	numVisible := 0
	for range 50 {
		g, err := PlanRandom(rng, image.Pt(width, height), image.Pt(24, 24), width)
		require.NoError(t, err)
		require.Equal(t, image.Pt(width, height), g.Resize)
		outImg, outMask, err := g.Apply(img, m)
		require.NoError(t, err)
		requireAligned(t, outImg, outMask, "geometry %s", g)

		// Where it should be: mirror, then shift by the crop origin.
		expected := marker
		if g.Flip {
			expected.X = width - 1 - marker.X
		}
		if expected.In(g.Crop) {
			numVisible++
			expected = expected.Sub(g.Crop.Min)
			assert.Equal(t, int32(1), outMask.At(expected.X, expected.Y))
		}
	}
	assert.Greater(t, numVisible, 0)
}

func TestApplyAlignmentUpscaled(t *testing.T) {
	// Exact 2x upscale: bilinear image edges and nearest-neighbor labels agree on the >50% threshold.
	rng := rand.New(rand.NewSource(11))
	img, m := markerPair(50, 40, image.Rect(10, 8, 26, 20))
	for range 20 {
		g, err := PlanRandom(rng, image.Pt(50, 40), image.Pt(64, 64), 100)
		require.NoError(t, err)
		require.Equal(t, image.Pt(100, 80), g.Resize)
		outImg, outMask, err := g.Apply(img, m)
		require.NoError(t, err)
		requireAligned(t, outImg, outMask, "geometry %s", g)
	}
}

func TestRandomSync(t *testing.T) {
	transformer := NewTransformer(nil)
	rng := rand.New(rand.NewSource(3))
	img, m := markerPair(120, 80, image.Rect(30, 20, 60, 50))
	key := scale.Key{BaseSize: 128, Low: 0.5, High: 2.0, Std: 4}
	crop := image.Pt(96, 64)
	for range 20 {
		outImg, outMask, err := transformer.RandomSync(rng, img, m, crop, key)
		require.NoError(t, err)
		require.Equal(t, crop, outImg.Bounds().Size())
		require.Equal(t, crop, outMask.Size())
		for _, v := range outMask.Unique() {
			require.Contains(t, []int32{0, 1, mask.RawIgnore}, v)
		}
	}

	// Mismatched sizes.
	_, _, err := transformer.RandomSync(rng, img, mask.New(120, 81), crop, key)
	assert.True(t, errs.IsGeometry(err))
	// Invalid crop.
	_, _, err = transformer.RandomSync(rng, img, m, image.Pt(-1, 10), key)
	assert.True(t, errs.IsGeometry(err))
	// Invalid scale configuration.
	_, _, err = transformer.RandomSync(rng, img, m, crop, scale.Key{BaseSize: 128, Low: 2, High: 1, Std: 4})
	assert.True(t, errs.IsConfiguration(err))
}

func TestRandomSyncReproducible(t *testing.T) {
	transformer := NewTransformer(scale.NewSampler(nil))
	img, m := markerPair(120, 80, image.Rect(30, 20, 60, 50))
	key := scale.Key{BaseSize: 128, Low: 0.5, High: 2.0, Std: 4}
	run := func(seed int64) ([]uint8, []int32) {
		outImg, outMask, err := transformer.RandomSync(rand.New(rand.NewSource(seed)), img, m, image.Pt(64, 64), key)
		require.NoError(t, err)
		return outImg.Pix, outMask.Labels
	}
	pix1, labels1 := run(5)
	pix2, labels2 := run(5)
	assert.Equal(t, pix1, pix2)
	assert.Equal(t, labels1, labels2)
}

func TestPaddingInvariant(t *testing.T) {
	// 20x10 scaled to long side 32 -> 32x16, padded to 64x64: the crop is the whole canvas.
	img, m := markerPair(20, 10, image.Rect(0, 0, 20, 10))
	rng := rand.New(rand.NewSource(0))
	g, err := PlanRandom(rng, image.Pt(20, 10), image.Pt(64, 64), 32)
	require.NoError(t, err)
	require.Equal(t, image.Pt(32, 48), g.Pad)
	outImg, outMask, err := g.Apply(img, m)
	require.NoError(t, err)
	require.Equal(t, image.Pt(64, 64), outMask.Size())
	for y := range 64 {
		for x := range 64 {
			padded := x >= 32 || y >= 16
			if padded {
				require.Equal(t, mask.RawIgnore, outMask.At(x, y), "(%d, %d)", x, y)
				require.Equal(t, PadColor, outImg.NRGBAAt(x, y), "(%d, %d)", x, y)
			} else {
				require.Equal(t, int32(1), outMask.At(x, y), "(%d, %d)", x, y)
				require.NotEqual(t, PadColor, outImg.NRGBAAt(x, y), "(%d, %d)", x, y)
			}
		}
	}
}

func TestExampleLargeImage(t *testing.T) {
	// 2048x1024 image with raw code 7 everywhere, cropped to 768x768.
	img := imaging.New(2048, 1024, color.NRGBA{R: 90, G: 120, B: 30, A: 255})
	m := mask.NewFilled(2048, 1024, 7)
	transformer := NewTransformer(nil)
	rng := rand.New(rand.NewSource(2048))
	key := scale.Key{BaseSize: 2048, Low: 0.6, High: 3.0, Std: 25}
	for range 3 {
		outImg, outMask, err := transformer.RandomSync(rng, img, m, image.Pt(768, 768), key)
		require.NoError(t, err)
		assert.Equal(t, image.Pt(768, 768), outImg.Bounds().Size())
		assert.Equal(t, image.Pt(768, 768), outMask.Size())
		for _, v := range outMask.Unique() {
			assert.Contains(t, []int32{7, mask.RawIgnore}, v)
		}
	}
}

func TestCenterSync(t *testing.T) {
	img, m := markerPair(300, 200, image.Rect(100, 50, 200, 150))
	outImg, outMask, err := CenterSync(img, m, 100)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(100, 100), outImg.Bounds().Size())
	requireAligned(t, outImg, outMask)

	// Resized to 150x100, center crop starts at x=25: the marker (scaled to [50,100)x[25,75)) moves to [25,75).
	assert.Equal(t, int32(1), outMask.At(25, 25))
	assert.Equal(t, int32(0), outMask.At(24, 25))
	assert.Equal(t, int32(1), outMask.At(74, 74))
	assert.Equal(t, int32(0), outMask.At(75, 74))

	_, _, err = CenterSync(img, m, 0)
	assert.True(t, errs.IsGeometry(err))
	_, _, err = CenterSync(img, mask.New(10, 10), 100)
	assert.True(t, errs.IsGeometry(err))
}

func TestPlanCenterRounding(t *testing.T) {
	// 306x200 -> 153x100; (153-100)/2 = 26.5 rounds half to even: 26.
	g, err := PlanCenter(image.Pt(306, 200), 100)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(153, 100), g.Resize)
	assert.Equal(t, image.Rect(26, 0, 126, 100), g.Crop)

	// Portrait: 200x310 -> 100x155; (155-100)/2 = 27.5 rounds to 28.
	g, err = PlanCenter(image.Pt(200, 310), 100)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(100, 155), g.Resize)
	assert.Equal(t, image.Rect(0, 28, 100, 128), g.Crop)
}

func TestResizeLongSide(t *testing.T) {
	assert.Equal(t, 544, MakeDivisible(520, 32))
	assert.Equal(t, 512, MakeDivisible(512, 32))
	assert.Equal(t, 0, MakeDivisible(0, 32))

	// 1000x600, base 520 -> 544; 600*544/1000 = 326.4 -> 326 -> 352.
	img := imaging.New(1000, 600, white)
	out, err := ResizeLongSide(img, 520)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(544, 352), out.Bounds().Size())

	out, err = ResizeLongSide(imaging.New(600, 1000, white), 520)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(352, 544), out.Bounds().Size())

	size, err := LongSideSize(image.Pt(100, 100), 100)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(128, 128), size)
	// Very thin images keep at least one unit on the short side.
	size, err = LongSideSize(image.Pt(1000, 2), 512)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(512, 32), size)

	_, err = ResizeLongSide(img, 0)
	assert.True(t, errs.IsConfiguration(err))
}

func TestResizeLongSidePair(t *testing.T) {
	img, m := markerPair(1000, 600, image.Rect(0, 0, 500, 600))
	outImg, outMask, err := ResizeLongSidePair(img, m, 520)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(544, 352), outImg.Bounds().Size())
	assert.Equal(t, image.Pt(544, 352), outMask.Size())
	assert.Equal(t, int32(1), outMask.At(0, 0))
	assert.Equal(t, int32(0), outMask.At(543, 351))

	_, _, err = ResizeLongSidePair(img, mask.New(1, 1), 520)
	assert.True(t, errs.IsGeometry(err))
}
