package cs1550fs

// Config parameterizes the backing image path and its size in blocks.
type Config struct {
	ImagePath       string
	ImageSizeBlocks int
}

// DefaultConfig returns a 1 MiB image of 2048 blocks at ".disk" relative
// to the process working directory.
func DefaultConfig() Config {
	return Config{
		ImagePath:       ".disk",
		ImageSizeBlocks: NumBlocks,
	}
}
