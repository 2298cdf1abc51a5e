package checkpointer

import "fmt"

// EpochFilename returns a function which returns filenames suffixed by
// the epoch. The filename parameter is the full filename with its path,
// while the extension parameter determines the file extension.
func EpochFilename(filename, extension string) func(int) string {
	return func(epoch int) string {
		return fmt.Sprintf("%v_%v%v", filename, epoch, extension)
	}
}

// Filename returns a function which always returns filename
func Filename(filename string) func(int) string {
	return func(int) string {
		return filename
	}
}
