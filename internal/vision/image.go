package vision

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
)

// ErrUnsupportedImage is returned for payloads that are not JPEG or PNG.
var ErrUnsupportedImage = errors.New("unsupported image")

// Decode parses a JPEG or PNG payload.
func Decode(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}
	return img, nil
}

// DetectorInput resizes img to the detector resolution as a CHW tensor
// normalised with mean 127.5 and std 128.
func DetectorInput(img image.Image) []float32 {
	return toCHW(img, detectInputSize, detectInputSize, 127.5, 128)
}

// EmbedderInput resizes a face crop to the ArcFace resolution as a CHW tensor
// normalised to [-1, 1].
func EmbedderInput(face image.Image) []float32 {
	return toCHW(face, embedInputSize, embedInputSize, 127.5, 127.5)
}

// toCHW scales img bilinearly to w x h and lays it out as a planar RGB
// tensor with (pixel - mean) / std applied to every channel.
func toCHW(img image.Image, w, h int, mean, std float32) []float32 {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.BiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)

	plane := w * h
	out := make([]float32, 3*plane)
	for i := 0; i < plane; i++ {
		px := dst.Pix[i*4 : i*4+3 : i*4+3]
		out[i] = (float32(px[0]) - mean) / std
		out[plane+i] = (float32(px[1]) - mean) / std
		out[2*plane+i] = (float32(px[2]) - mean) / std
	}
	return out
}

// CropFace cuts the detected face out of img with 10% padding on each side,
// clamped to the image bounds. It returns nil for an empty box.
func CropFace(img image.Image, box Box) image.Image {
	b := img.Bounds()
	padX := box.Width() * 0.1
	padY := box.Height() * 0.1

	r := image.Rect(
		int(box.X1-padX), int(box.Y1-padY),
		int(box.X2+padX), int(box.Y2+padY),
	).Add(b.Min).Intersect(b)
	if r.Empty() {
		return nil
	}

	crop := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	draw.Copy(crop, image.Point{}, img, r, draw.Src, nil)
	return crop
}
