package ocr

import (
	"image"

	"gocv.io/x/gocv"

	"label-editor/internal/label"
)

// preprocessField prepares a label region for OCR. Each field type gets the
// pipeline that empirically works for it on scanned identity documents:
// single characters are binarized hard and scaled up; machine-readable zones
// get contrast equalization, denoising, and sharpening; everything else gets
// adaptive thresholding with a modest upscale.
func preprocessField(src gocv.Mat, fieldType string) gocv.Mat {
	gray := gocv.NewMat()
	gocv.CvtColor(src, &gray, gocv.ColorRGBToGray)

	switch fieldType {
	case label.FieldSingleChar:
		return preprocessSingleChar(gray)
	case label.FieldMRZ:
		return preprocessMRZ(gray)
	default:
		return preprocessGeneral(gray)
	}
}

func preprocessGeneral(gray gocv.Mat) gocv.Mat {
	defer gray.Close()

	binary := gocv.NewMat()
	gocv.AdaptiveThreshold(gray, &binary, 255, gocv.AdaptiveThresholdGaussian, gocv.ThresholdBinary, 11, 2)

	scaled := gocv.NewMat()
	gocv.Resize(binary, &scaled, image.Point{}, 2, 2, gocv.InterpolationCubic)
	binary.Close()
	return scaled
}

func preprocessSingleChar(gray gocv.Mat) gocv.Mat {
	defer gray.Close()

	binary := gocv.NewMat()
	gocv.Threshold(gray, &binary, 127, 255, gocv.ThresholdBinary)

	scaled := gocv.NewMat()
	gocv.Resize(binary, &scaled, image.Point{}, 5, 5, gocv.InterpolationCubic)
	binary.Close()
	return scaled
}

func preprocessMRZ(gray gocv.Mat) gocv.Mat {
	defer gray.Close()

	clahe := gocv.NewCLAHEWithParams(2.0, image.Point{X: 8, Y: 8})
	defer clahe.Close()

	enhanced := gocv.NewMat()
	clahe.Apply(gray, &enhanced)

	filtered := gocv.NewMat()
	gocv.BilateralFilter(enhanced, &filtered, 9, 75, 75)
	enhanced.Close()

	binary := gocv.NewMat()
	gocv.Threshold(filtered, &binary, 0, 255, gocv.ThresholdBinary|gocv.ThresholdOtsu)
	filtered.Close()

	kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Point{X: 2, Y: 2})
	defer kernel.Close()

	cleaned := gocv.NewMat()
	gocv.MorphologyEx(binary, &cleaned, gocv.MorphOpen, kernel)
	binary.Close()

	scaled := gocv.NewMat()
	gocv.Resize(cleaned, &scaled, image.Point{}, 4, 4, gocv.InterpolationLanczos4)
	cleaned.Close()

	sharpen := sharpenKernel()
	defer sharpen.Close()

	sharpened := gocv.NewMat()
	gocv.Filter2D(scaled, &sharpened, gocv.MatType(-1), sharpen, image.Point{X: -1, Y: -1}, 0, gocv.BorderDefault)
	scaled.Close()
	return sharpened
}

// sharpenKernel builds the 3x3 sharpening convolution used for MRZ regions.
func sharpenKernel() gocv.Mat {
	k := gocv.NewMatWithSize(3, 3, gocv.MatTypeCV32F)
	for row := 0; row < 3; row++ {
		for col := 0; col < 3; col++ {
			k.SetFloatAt(row, col, -1)
		}
	}
	k.SetFloatAt(1, 1, 9)
	return k
}
