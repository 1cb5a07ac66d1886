package gui

import (
	_ "embed"

	"fyne.io/fyne/v2"
)

//go:embed kikitori_256.png
var iconData []byte

// GetAppIcon returns the application icon as a Fyne resource
func GetAppIcon() fyne.Resource {
	return &fyne.StaticResource{
		StaticName:    "kikitori.png",
		StaticContent: iconData,
	}
}
