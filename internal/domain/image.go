package domain

import "fmt"

// Image names one of the execution environments a level can run in
type Image string

const (
	ImageGCC    Image = "gcc"
	ImagePython Image = "python"
	ImageAlpine Image = "alpine"
	ImageUbuntu Image = "ubuntu"
	ImageBash   Image = "bash"
	ImageRust   Image = "rust"
	ImageJava   Image = "java"
	ImageNode   Image = "node"
)

// Images lists every supported environment in display order
var Images = []Image{
	ImageGCC,
	ImagePython,
	ImageAlpine,
	ImageUbuntu,
	ImageBash,
	ImageRust,
	ImageJava,
	ImageNode,
}

func (i Image) Valid() bool {
	for _, img := range Images {
		if img == i {
			return true
		}
	}
	return false
}

// ParseImage converts a stored container choice into an Image
func ParseImage(s string) (Image, error) {
	img := Image(s)
	if !img.Valid() {
		return "", fmt.Errorf("unknown image %q", s)
	}
	return img, nil
}
