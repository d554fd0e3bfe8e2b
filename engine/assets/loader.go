package assets

import "github.com/spaghettifunk/vkscene/engine/renderer/metadata"

type Loader interface {
	// params is loader specific and may be nil.
	Load(path string, params interface{}) (*metadata.Resource, error)
}
