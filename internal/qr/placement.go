package qr

// ImagePlacement is the logo's square bounding box in pixel space.
type ImagePlacement struct {
	Image    string
	Size     int
	Position int
	Show     bool
}

// PlaceImage centers the logo on an odd number of modules so the keep-out
// zone never straddles half a module.
func PlaceImage(moduleCount int, cfg RenderConfig) ImagePlacement {
	sizeInModules := logoModules(moduleCount, cfg.ImageSize)
	return ImagePlacement{
		Image:    cfg.Image,
		Size:     sizeInModules * cfg.BlockSize,
		Position: (moduleCount/2 - sizeInModules/2) * cfg.BlockSize,
		Show:     cfg.AddImage,
	}
}

// logoModules returns 2*floor(n*f/2)+1, always odd and at least 1.
func logoModules(moduleCount int, imageSize Percent) int {
	half := int(float64(moduleCount) * imageSize.Fraction() / 2)
	if half < 0 {
		half = 0
	}
	return 2*half + 1
}
