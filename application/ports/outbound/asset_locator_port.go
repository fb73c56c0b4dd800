package outbound

// AssetLocatorPort resolves the narration script and the slide images inside
// a work directory.
type AssetLocatorPort interface {
	// LocateScript returns the script path, looking in the work directory
	// first and its parent second.
	LocateScript(workDir string) (string, error)
	// LocateSlides returns slide image paths keyed by slide index.
	LocateSlides(workDir string) (map[int]string, error)
}
