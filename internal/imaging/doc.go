// Package imaging loads, manipulates and writes raster images.
//
// An Image wraps a decoded bitmap together with the path it was loaded from.
// Every transformation (Resize, Crop, CropResize, Rotate, Flip, Watermark,
// Filter, AutoOrient) returns a new Image and leaves the receiver untouched,
// so one source can feed several derived images:
//
//	img, err := imaging.Open("images/joomla.png")
//	thumb, err := img.Resize(imaging.Px(200), imaging.Px(200), imaging.ScaleInside)
//	err = thumb.ToFile("images/thumb.png", imaging.FormatPNG)
//
// Sizes for responsive variants are given as "WIDTHxHEIGHT" strings and written
// next to the source image into a "responsive" (or "thumbs") folder using the
// "<name>_<W>x<H>.<ext>" naming scheme, see CreateMultipleSizes.
//
// Decoding supports GIF, JPEG, PNG and WebP. Encoding supports the same four
// formats; WebP is encoded through libwebp.
package imaging
